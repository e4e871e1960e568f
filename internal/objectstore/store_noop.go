package objectstore

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/yusufsyaifudin/ylog"
)

// Noop log every call and store nothing, used when no bucket is configured.
type Noop struct {
	bucket string
}

var _ Store = (*Noop)(nil)

func NewNoop(bucket string) *Noop {
	return &Noop{bucket: bucket}
}

func (n *Noop) Bucket() string {
	return n.bucket
}

func (n *Noop) UploadURL(_ context.Context, key, _ string, expiry time.Duration) (string, error) {
	u := url.URL{
		Scheme:   "noop",
		Host:     n.bucket,
		Path:     "/" + key,
		RawQuery: url.Values{"expires": []string{fmt.Sprint(int64(expiry.Seconds()))}}.Encode(),
	}

	return u.String(), nil
}

// Exists always report true so uploads flow through the pipeline without a bucket.
func (n *Noop) Exists(ctx context.Context, key string) (bool, error) {
	ylog.Debug(ctx, "noop object exists", ylog.KV("key", key))
	return true, nil
}

func (n *Noop) Copy(ctx context.Context, srcKey, dstKey string) error {
	ylog.Info(ctx, "noop object copy", ylog.KV("src", srcKey), ylog.KV("dst", dstKey))
	return nil
}

func (n *Noop) Delete(ctx context.Context, key string) error {
	ylog.Info(ctx, "noop object delete", ylog.KV("key", key))
	return nil
}
