// Package objectstore is the binary object storage used for app icons.
package objectstore

import (
	"context"
	"time"
)

type Store interface {
	// Bucket name the store writes to.
	Bucket() string

	// UploadURL return a short-lived URL accepting a PUT of contentType at key.
	UploadURL(ctx context.Context, key, contentType string, expiry time.Duration) (url string, err error)

	// Exists report whether key is currently stored.
	Exists(ctx context.Context, key string) (bool, error)

	Copy(ctx context.Context, srcKey, dstKey string) error

	// Delete remove key, a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
