package appsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stevelaver/developer-portal-sub000/backend"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/accessctl"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/apprepo"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/vendorrepo"
	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
	"github.com/stevelaver/developer-portal-sub000/pkg/paging"
	"github.com/stevelaver/developer-portal-sub000/pkg/tracer"
	"github.com/stevelaver/developer-portal-sub000/pkg/validator"
	"github.com/yusufsyaifudin/ylog"
	"go.opentelemetry.io/otel/trace"
)

type DefaultServiceConfig struct {
	AppRepo    apprepo.Repo      `validate:"required"`
	VendorRepo vendorrepo.Repo   `validate:"required"`
	Access     accessctl.Checker `validate:"required"`
	Notifier   backend.Notifier  `validate:"required"`

	// AdminEmails receive publish requests.
	AdminEmails []string `validate:"dive,email"`

	Now func() time.Time `validate:"-"`
}

type DefaultService struct {
	Config DefaultServiceConfig
}

var _ Service = (*DefaultService)(nil)

func New(dep DefaultServiceConfig) (*DefaultService, error) {
	if err := validator.Validate(dep); err != nil {
		return nil, err
	}

	if dep.Now == nil {
		dep.Now = time.Now
	}

	return &DefaultService{
		Config: dep,
	}, nil
}

// CreateApp register {vendor}.{shortId} at version 1. isPublic is never taken from the caller.
func (d *DefaultService) CreateApp(ctx context.Context, in InputCreateApp) (out OutApp, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "appsvc.CreateApp")
	defer span.End()

	if err = validate(in); err != nil {
		return
	}

	if err = d.Config.Access.CheckVendor(ctx, in.Caller, in.Vendor); err != nil {
		return
	}

	if _, err = d.Config.VendorRepo.Get(ctx, vendorrepo.InputGet{ID: in.Vendor}); err != nil {
		return
	}

	payload := in.Payload
	payload.IsPublic = nil

	inserted, err := d.Config.AppRepo.Insert(ctx, apprepo.InputInsert{
		ID:      fmt.Sprintf("%s.%s", in.Vendor, in.ShortID),
		Vendor:  in.Vendor,
		Actor:   in.Caller.Email,
		Payload: payload,
	})
	if err != nil {
		return
	}

	ylog.Info(ctx, "app created", ylog.KV("app_id", inserted.App.ID), ylog.KV("by", in.Caller.Email))
	out = OutApp{App: inserted.App}
	return
}

// GetApp return the current state. Admins also see soft deleted apps.
func (d *DefaultService) GetApp(ctx context.Context, in InputGetApp) (out OutApp, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "appsvc.GetApp")
	defer span.End()

	if err = d.authorizeApp(ctx, in.InputAppRef); err != nil {
		return
	}

	got, err := d.Config.AppRepo.Get(ctx, apprepo.InputGet{ID: in.AppID, IncludeDeleted: in.Caller.IsAdmin})
	if err != nil {
		return
	}

	out = OutApp{App: got.App}
	return
}

func (d *DefaultService) ListApps(ctx context.Context, in InputListApps) (out OutListApps, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "appsvc.ListApps")
	defer span.End()

	if err = validate(in); err != nil {
		return
	}

	if err = d.Config.Access.CheckVendor(ctx, in.Caller, in.Vendor); err != nil {
		return
	}

	return d.list(ctx, apprepo.InputList{Vendor: in.Vendor, Offset: in.Offset, Limit: in.Limit})
}

func (d *DefaultService) AdminListApps(ctx context.Context, in InputAdminListApps) (out OutListApps, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "appsvc.AdminListApps")
	defer span.End()

	if !in.Caller.IsAdmin {
		err = apperr.Unauthorized("only admin can list apps of all vendors")
		return
	}

	return d.list(ctx, apprepo.InputList{Vendor: in.Vendor, Offset: in.Offset, Limit: in.Limit})
}

func (d *DefaultService) PublicListApps(ctx context.Context, in InputPublicListApps) (out OutListApps, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "appsvc.PublicListApps")
	defer span.End()

	return d.list(ctx, apprepo.InputList{PublicOnly: true, Offset: in.Offset, Limit: in.Limit})
}

// PublicGetApp hide everything that is not approved, public and alive.
func (d *DefaultService) PublicGetApp(ctx context.Context, in InputPublicGetApp) (out OutApp, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "appsvc.PublicGetApp")
	defer span.End()

	if err = validate(in); err != nil {
		return
	}

	got, err := d.Config.AppRepo.Get(ctx, apprepo.InputGet{ID: in.AppID})
	if err != nil {
		return
	}

	if !got.App.IsApproved || !got.App.IsPublic {
		err = apperr.NotFound("app %s does not exist", in.AppID)
		return
	}

	out = OutApp{App: got.App}
	return
}

// UpdateApp apply the partial payload. Setting isPublic to true is only allowed for an approved,
// not deprecated app which is complete after the payload is applied.
func (d *DefaultService) UpdateApp(ctx context.Context, in InputUpdateApp) (out OutApp, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "appsvc.UpdateApp")
	defer span.End()

	if err = d.authorizeApp(ctx, in.InputAppRef); err != nil {
		return
	}

	payload := in.Payload.Sanitize()
	if payload.IsPublic != nil && *payload.IsPublic {
		current, _err := d.current(ctx, in.AppID)
		if _err != nil {
			err = _err
			return
		}

		if err = canBecomePublic(current, payload); err != nil {
			return
		}
	}

	updated, err := d.Config.AppRepo.Update(ctx, apprepo.InputUpdate{
		ID:      in.AppID,
		Actor:   in.Caller.Email,
		Payload: payload,
	})
	if err != nil {
		return
	}

	out = OutApp{App: updated.App}
	return
}

// DeleteApp soft delete the app. It is a tracked mutation like any other.
func (d *DefaultService) DeleteApp(ctx context.Context, in InputAppRef) (out OutApp, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "appsvc.DeleteApp")
	defer span.End()

	if err = d.authorizeApp(ctx, in); err != nil {
		return
	}

	got, err := d.Config.AppRepo.Get(ctx, apprepo.InputGet{ID: in.AppID, IncludeDeleted: true, SkipCache: true})
	if err != nil {
		return
	}

	if got.App.Deleted() {
		err = apperr.BadRequest("app %s is already deleted", in.AppID)
		return
	}

	now := d.Config.Now()
	notPublic := false
	updated, err := d.Config.AppRepo.Update(ctx, apprepo.InputUpdate{
		ID:      in.AppID,
		Actor:   in.Caller.Email,
		Payload: apprepo.Payload{IsPublic: &notPublic},
		State:   apprepo.StateChange{DeletedOn: &now},
	})
	if err != nil {
		return
	}

	ylog.Info(ctx, "app deleted", ylog.KV("app_id", in.AppID), ylog.KV("by", in.Caller.Email))
	out = OutApp{App: updated.App}
	return
}

func (d *DefaultService) ListVersions(ctx context.Context, in InputListVersions) (out OutListVersions, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "appsvc.ListVersions")
	defer span.End()

	if err = d.authorizeApp(ctx, in.InputAppRef); err != nil {
		return
	}

	page := paging.Page{Offset: in.Offset, Limit: in.Limit}.Clamp()
	versions, err := d.Config.AppRepo.ListVersions(ctx, apprepo.InputListVersions{
		ID:     in.AppID,
		Offset: page.Offset,
		Limit:  page.Limit,
	})
	if err != nil {
		return
	}

	out = OutListVersions{
		Total:    versions.Total,
		Offset:   page.Offset,
		Limit:    page.Limit,
		Versions: versions.Versions,
	}
	return
}

func (d *DefaultService) GetVersion(ctx context.Context, in InputGetVersion) (out OutVersion, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "appsvc.GetVersion")
	defer span.End()

	if err = d.authorizeApp(ctx, in.InputAppRef); err != nil {
		return
	}

	got, err := d.Config.AppRepo.GetVersion(ctx, apprepo.InputGetVersion{ID: in.AppID, Version: in.Version})
	if err != nil {
		return
	}

	out = OutVersion{Version: got.Version}
	return
}

// Rollback replay the content of an older snapshot as a new version authored by the caller.
// History is never rewritten: rolling back from v5 to v2 produce v6 holding the content of v2.
func (d *DefaultService) Rollback(ctx context.Context, in InputRollback) (out OutApp, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "appsvc.Rollback")
	defer span.End()

	if err = d.authorizeApp(ctx, in.InputAppRef); err != nil {
		return
	}

	snapshot, err := d.Config.AppRepo.GetVersion(ctx, apprepo.InputGetVersion{ID: in.AppID, Version: in.Version})
	if err != nil {
		return
	}

	updated, err := d.Config.AppRepo.Update(ctx, apprepo.InputUpdate{
		ID:      in.AppID,
		Actor:   in.Caller.Email,
		Payload: apprepo.PayloadFromAttributes(snapshot.Version.Attributes),
		State:   apprepo.StateChange{Icons: apprepo.IconsFromAttributes(snapshot.Version.Attributes)},
	})
	if err != nil {
		return
	}

	ylog.Info(ctx, "app rolled back",
		ylog.KV("app_id", in.AppID),
		ylog.KV("from_version", in.Version),
		ylog.KV("new_version", updated.App.Version),
	)

	out = OutApp{App: updated.App}
	return
}

// RequestPublish check the app is complete and ask the admins to approve it.
// The app state does not change.
func (d *DefaultService) RequestPublish(ctx context.Context, in InputAppRef) (out OutApp, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "appsvc.RequestPublish")
	defer span.End()

	if err = d.authorizeApp(ctx, in); err != nil {
		return
	}

	app, err := d.current(ctx, in.AppID)
	if err != nil {
		return
	}

	if err = checkAppCanBePublished(app.Attributes); err != nil {
		return
	}

	if !app.IsApproved && len(d.Config.AdminEmails) > 0 {
		d.Config.Notifier.Notify(ctx, backend.Message{
			Event:      backend.EventAppNeedsApproval,
			Recipients: d.Config.AdminEmails,
			Subject:    fmt.Sprintf("App %s needs approval", app.ID),
			Body: fmt.Sprintf("Vendor %s requests approval of app %s (%s) at version %d.\nRequested by %s.",
				app.Vendor, app.ID, app.Name, app.Version, in.Caller.Email),
		})
	}

	out = OutApp{App: app}
	return
}

// Approve is admin only. It fails when the app is already approved or not complete,
// otherwise it is a tracked mutation bumping the version.
func (d *DefaultService) Approve(ctx context.Context, in InputApprove) (out OutApp, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "appsvc.Approve")
	defer span.End()

	if err = validate(in); err != nil {
		return
	}

	if !in.Caller.IsAdmin {
		err = apperr.Unauthorized("only admin can approve apps")
		return
	}

	app, err := d.current(ctx, in.AppID)
	if err != nil {
		return
	}

	if app.IsApproved {
		err = apperr.BadRequest("app %s is already approved", in.AppID)
		return
	}

	if err = checkAppCanBePublished(app.Attributes); err != nil {
		return
	}

	approved := true
	updated, err := d.Config.AppRepo.Update(ctx, apprepo.InputUpdate{
		ID:    in.AppID,
		Actor: in.Caller.Email,
		State: apprepo.StateChange{IsApproved: &approved},
	})
	if err != nil {
		return
	}

	ylog.Info(ctx, "app approved", ylog.KV("app_id", in.AppID), ylog.KV("by", in.Caller.Email))
	out = OutApp{App: updated.App}
	return
}

// Deprecate retire the app, optionally pointing to an existing replacement. It clears isPublic.
func (d *DefaultService) Deprecate(ctx context.Context, in InputDeprecate) (out OutApp, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "appsvc.Deprecate")
	defer span.End()

	if err = d.authorizeApp(ctx, in.InputAppRef); err != nil {
		return
	}

	if err = validate(in); err != nil {
		return
	}

	app, err := d.current(ctx, in.AppID)
	if err != nil {
		return
	}

	if app.IsDeprecated {
		err = apperr.BadRequest("app %s is already deprecated", in.AppID)
		return
	}

	if in.ReplacementApp != nil {
		if *in.ReplacementApp == in.AppID {
			err = apperr.BadRequest("app cannot replace itself")
			return
		}

		_, err = d.Config.AppRepo.Get(ctx, apprepo.InputGet{ID: *in.ReplacementApp})
		if errors.Is(err, apperr.ErrNotFound) {
			err = apperr.BadRequest("replacement app %s does not exist", *in.ReplacementApp)
			return
		}

		if err != nil {
			return
		}
	}

	deprecated, notPublic := true, false
	updated, err := d.Config.AppRepo.Update(ctx, apprepo.InputUpdate{
		ID:      in.AppID,
		Actor:   in.Caller.Email,
		Payload: apprepo.Payload{IsPublic: &notPublic},
		State: apprepo.StateChange{
			IsDeprecated:   &deprecated,
			ExpiredOn:      in.ExpiredOn,
			ReplacementApp: in.ReplacementApp,
		},
	})
	if err != nil {
		return
	}

	out = OutApp{App: updated.App}
	return
}

func (d *DefaultService) authorizeApp(ctx context.Context, ref InputAppRef) error {
	if err := validate(ref); err != nil {
		return err
	}

	return d.Config.Access.CheckApp(ctx, ref.Caller, ref.Vendor, ref.AppID)
}

// current read the app bypassing any cache, state guards must not decide on stale rows.
func (d *DefaultService) current(ctx context.Context, appID string) (apprepo.App, error) {
	got, err := d.Config.AppRepo.Get(ctx, apprepo.InputGet{ID: appID, SkipCache: true})
	return got.App, err
}

func (d *DefaultService) list(ctx context.Context, in apprepo.InputList) (out OutListApps, err error) {
	page := paging.Page{Offset: in.Offset, Limit: in.Limit}.Clamp()
	in.Offset, in.Limit = page.Offset, page.Limit

	apps, err := d.Config.AppRepo.List(ctx, in)
	if err != nil {
		return
	}

	out = OutListApps{
		Total:  apps.Total,
		Offset: page.Offset,
		Limit:  page.Limit,
		Apps:   apps.Apps,
	}
	return
}

func canBecomePublic(current apprepo.App, payload apprepo.Payload) error {
	if !current.IsApproved {
		return apperr.BadRequest("app %s must be approved before it is made public", current.ID)
	}

	if current.IsDeprecated {
		return apperr.BadRequest("app %s is deprecated", current.ID)
	}

	merged := current
	payload.ApplyTo(&merged)
	return checkAppCanBePublished(merged.Attributes)
}

func validate(in interface{}) error {
	if err := validator.Validate(in); err != nil {
		return apperr.BadRequest("validation error: %s", err)
	}

	return nil
}
