package objectstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/stevelaver/developer-portal-sub000/pkg/httpclient"
	"github.com/stevelaver/developer-portal-sub000/pkg/tracer"
	"github.com/stevelaver/developer-portal-sub000/pkg/validator"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

type FirebaseConfig struct {
	CredentialsFile string `validate:"required,file"`
	Bucket          string `validate:"required"`

	// GoogleAccessID and PrivateKeyFile sign upload URLs, usually the service account of CredentialsFile.
	GoogleAccessID string `validate:"required"`
	PrivateKeyFile string `validate:"required,file"`
}

// Firebase store objects in the Cloud Storage bucket of a Firebase project.
type Firebase struct {
	Config     FirebaseConfig
	bucket     *gcs.BucketHandle
	privateKey []byte
}

var _ Store = (*Firebase)(nil)

func NewFirebase(ctx context.Context, cfg FirebaseConfig) (*Firebase, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, err
	}

	credJSON, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	privateKey, err := os.ReadFile(cfg.PrivateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("read private key file: %w", err)
	}

	cred, err := google.CredentialsFromJSON(ctx, credJSON, gcs.ScopeReadWrite)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	httpClient := httpclient.New(30 * time.Second)
	httpClient.Transport = &oauth2.Transport{
		Base:   httpClient.Transport,
		Source: cred.TokenSource,
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cred.ProjectID,
		StorageBucket: cfg.Bucket,
	}, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("initiate firebase app client error: %w", err)
	}

	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("initiate firebase storage client error: %w", err)
	}

	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("bucket %s: %w", cfg.Bucket, err)
	}

	return &Firebase{
		Config:     cfg,
		bucket:     bucket,
		privateKey: privateKey,
	}, nil
}

func (f *Firebase) Bucket() string {
	return f.Config.Bucket
}

func (f *Firebase) UploadURL(ctx context.Context, key, contentType string, expiry time.Duration) (url string, err error) {
	var span trace.Span
	_, span = tracer.StartSpan(ctx, "objectstore.Firebase.UploadURL")
	defer span.End()

	url, err = gcs.SignedURL(f.Config.Bucket, key, &gcs.SignedURLOptions{
		GoogleAccessID: f.Config.GoogleAccessID,
		PrivateKey:     f.privateKey,
		Method:         "PUT",
		Expires:        time.Now().Add(expiry),
		ContentType:    contentType,
		Scheme:         gcs.SigningSchemeV4,
	})
	if err != nil {
		err = fmt.Errorf("sign upload url: %w", err)
	}

	return
}

func (f *Firebase) Exists(ctx context.Context, key string) (bool, error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "objectstore.Firebase.Exists")
	defer span.End()

	_, err := f.bucket.Object(key).Attrs(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("stat %s: %w", key, err)
	}

	return true, nil
}

func (f *Firebase) Copy(ctx context.Context, srcKey, dstKey string) error {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "objectstore.Firebase.Copy")
	defer span.End()

	_, err := f.bucket.Object(dstKey).CopierFrom(f.bucket.Object(srcKey)).Run(ctx)
	if err != nil {
		return fmt.Errorf("copy %s to %s: %w", srcKey, dstKey, err)
	}

	return nil
}

func (f *Firebase) Delete(ctx context.Context, key string) error {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "objectstore.Firebase.Delete")
	defer span.End()

	err := f.bucket.Object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	return nil
}
