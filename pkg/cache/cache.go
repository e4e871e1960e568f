package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

var (
	ErrKeyNotExist = fmt.Errorf("cache key not exists")
)

// Cache stores json encoded values. GetAs must return an error wrapping ErrKeyNotExist on a miss or an expired entry.
type Cache interface {
	GetAs(ctx context.Context, key string, out interface{}) error
	SetExp(ctx context.Context, key string, inValue interface{}, expireDur time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Key joins non-empty parts with colon, i.e: Key("portal", "app", "v1.demo") -> portal:app:v1.demo
func Key(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return strings.Join(out, ":")
}
