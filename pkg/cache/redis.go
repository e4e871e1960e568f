package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/encoding/json"
	"github.com/stevelaver/developer-portal-sub000/pkg/validator"
)

type RedisConfig struct {
	Client redis.UniversalClient `validate:"required"`

	// Namespace is prepended to every key so several deployments can share one redis.
	Namespace string `validate:"-"`
}

// Redis is shared between replicas, so an invalidation is seen by all of them.
type Redis struct {
	client    redis.UniversalClient
	namespace string
}

var _ Cache = (*Redis)(nil)

func NewRedis(conf RedisConfig) (*Redis, error) {
	if err := validator.Validate(conf); err != nil {
		return nil, fmt.Errorf("error validate cache redis: %w", err)
	}

	return &Redis{client: conf.Client, namespace: conf.Namespace}, nil
}

func (r *Redis) GetAs(ctx context.Context, key string, out interface{}) error {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return fmt.Errorf("%w: %s", ErrKeyNotExist, key)
	case err != nil:
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err = json.Unmarshal(val, out); err != nil {
		return fmt.Errorf("decode cached %s: %w", key, err)
	}

	return nil
}

// SetExp store inValue as json. A non positive expireDur keeps the key until it is deleted.
func (r *Redis) SetExp(ctx context.Context, key string, inValue interface{}, expireDur time.Duration) error {
	val, err := json.Marshal(inValue)
	if err != nil {
		return fmt.Errorf("cannot marshal json value: %w", err)
	}

	if expireDur < 0 {
		expireDur = 0
	}

	if err = r.client.Set(ctx, r.key(key), val, expireDur).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, r.key(key)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis del %s: %w", key, err)
	}

	return nil
}

func (r *Redis) key(key string) string {
	return Key(r.namespace, key)
}
