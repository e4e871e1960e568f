package iconsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stevelaver/developer-portal-sub000/internal/objectstore"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/accessctl"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/apprepo"
	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
	"github.com/stevelaver/developer-portal-sub000/pkg/tracer"
	"github.com/stevelaver/developer-portal-sub000/pkg/validator"
	"github.com/yusufsyaifudin/ylog"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
)

// Actor recorded on versions produced by the pipeline.
const Actor = "icon-pipeline"

type Service interface {
	UploadLink(ctx context.Context, in InputUploadLink) (out OutUploadLink, err error)
	HandleEvent(ctx context.Context, in InputHandleEvent) (out OutHandleEvent, err error)
}

type InputUploadLink struct {
	Caller accessctl.Caller `validate:"-"`
	Vendor string           `validate:"required"`
	AppID  string           `validate:"required"`
}

type OutUploadLink struct {
	URL         string
	ContentType string
	ExpiresIn   time.Duration
}

type InputHandleEvent struct {
	Body []byte
}

type OutHandleEvent struct {
	// Handled is false when the event is not an icon upload, it is acknowledged and dropped.
	Handled bool
	AppID   string
	Version int64
}

type Config struct {
	AppRepo apprepo.Repo      `validate:"required"`
	Access  accessctl.Checker `validate:"required"`
	Store   objectstore.Store `validate:"required"`

	// Prefix of every icon object key in the bucket.
	Prefix       string        `validate:"-"`
	UploadExpiry time.Duration `validate:"required"`
}

type DefaultService struct {
	Config Config
}

var _ Service = (*DefaultService)(nil)

func New(cfg Config) (*DefaultService, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, err
	}

	return &DefaultService{Config: cfg}, nil
}

// UploadLink return a signed URL where the caller PUT a png, the pipeline picks it up from there.
func (d *DefaultService) UploadLink(ctx context.Context, in InputUploadLink) (out OutUploadLink, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "iconsvc.UploadLink")
	defer span.End()

	if err = validator.Validate(in); err != nil {
		err = apperr.BadRequest("validation error: %s", err)
		return
	}

	if err = d.Config.Access.CheckApp(ctx, in.Caller, in.Vendor, in.AppID); err != nil {
		return
	}

	const contentType = "image/png"
	url, err := d.Config.Store.UploadURL(ctx, stagingKey(d.Config.Prefix, in.AppID), contentType, d.Config.UploadExpiry)
	if err != nil {
		return
	}

	out = OutUploadLink{URL: url, ContentType: contentType, ExpiresIn: d.Config.UploadExpiry}
	return
}

// HandleEvent bump the app version for a finished upload and move the staged object to
// {prefix}/{appId}/32/{version}.png and {prefix}/{appId}/64/{version}.png.
// Events of another shape, type, bucket or key are ignored, so are events whose staged object is gone.
func (d *DefaultService) HandleEvent(ctx context.Context, in InputHandleEvent) (out OutHandleEvent, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "iconsvc.HandleEvent")
	defer span.End()

	event, ok := DecodeEvent(in.Body)
	if !ok {
		ylog.Debug(ctx, "icon hook: ignoring malformed event")
		return
	}

	if event.Type != EventObjectFinalize || event.Bucket != d.Config.Store.Bucket() {
		ylog.Debug(ctx, "icon hook: ignoring event", ylog.KV("event", event.String()))
		return
	}

	appID, ok := appIDFromStagingKey(d.Config.Prefix, event.Key)
	if !ok {
		ylog.Debug(ctx, "icon hook: ignoring object", ylog.KV("event", event.String()))
		return
	}

	// Push delivery is at least once. A redelivered event finds the staged upload already moved,
	// it must not bump the version again.
	staged, err := d.Config.Store.Exists(ctx, event.Key)
	if err != nil {
		return
	}

	if !staged {
		ylog.Info(ctx, "icon hook: staged upload already processed", ylog.KV("event", event.String()))
		return
	}

	added, err := d.Config.AppRepo.AddIcon(ctx, apprepo.InputAddIcon{ID: appID, Actor: Actor})
	if errors.Is(err, apperr.ErrNotFound) {
		ylog.Info(ctx, "icon hook: app does not exist, upload dropped", ylog.KV("app_id", appID))
		err = nil
		return
	}

	if err != nil {
		return
	}

	src := event.Key
	for _, dst := range []string{added.Icon32, added.Icon64} {
		if _err := d.Config.Store.Copy(ctx, src, joinKey(d.Config.Prefix, dst)); _err != nil {
			err = multierr.Append(err, _err)
		}
	}

	if err != nil {
		err = fmt.Errorf("icons of %s at version %d: %w", appID, added.Version, err)
		return
	}

	if _err := d.Config.Store.Delete(ctx, src); _err != nil {
		ylog.Error(ctx, "icon hook: cannot delete staged upload", ylog.KV("error", _err), ylog.KV("key", src))
	}

	ylog.Info(ctx, "icon hook: icons stored", ylog.KV("app_id", appID), ylog.KV("version", added.Version))
	out = OutHandleEvent{Handled: true, AppID: appID, Version: added.Version}
	return
}
