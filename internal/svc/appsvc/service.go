package appsvc

import (
	"context"
	"time"

	"github.com/stevelaver/developer-portal-sub000/internal/svc/accessctl"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/apprepo"
)

// Service is the app registry. Every operation taking a Caller authorizes it first,
// the public ones serve approved and public apps only.
// Any input and output from/to this function should be SAFE for external party to consume,
// i.e: request or response from HTTP handler.
type Service interface {
	CreateApp(ctx context.Context, in InputCreateApp) (out OutApp, err error)
	GetApp(ctx context.Context, in InputGetApp) (out OutApp, err error)
	ListApps(ctx context.Context, in InputListApps) (out OutListApps, err error)
	UpdateApp(ctx context.Context, in InputUpdateApp) (out OutApp, err error)
	DeleteApp(ctx context.Context, in InputAppRef) (out OutApp, err error)

	ListVersions(ctx context.Context, in InputListVersions) (out OutListVersions, err error)
	GetVersion(ctx context.Context, in InputGetVersion) (out OutVersion, err error)
	Rollback(ctx context.Context, in InputRollback) (out OutApp, err error)

	RequestPublish(ctx context.Context, in InputAppRef) (out OutApp, err error)
	Approve(ctx context.Context, in InputApprove) (out OutApp, err error)
	Deprecate(ctx context.Context, in InputDeprecate) (out OutApp, err error)

	AdminListApps(ctx context.Context, in InputAdminListApps) (out OutListApps, err error)

	PublicListApps(ctx context.Context, in InputPublicListApps) (out OutListApps, err error)
	PublicGetApp(ctx context.Context, in InputPublicGetApp) (out OutApp, err error)
}

// InputAppRef point to one app of vendor on behalf of Caller.
type InputAppRef struct {
	Caller accessctl.Caller `validate:"-"`
	Vendor string           `validate:"required"`
	AppID  string           `validate:"required"`
}

type InputCreateApp struct {
	Caller  accessctl.Caller `validate:"-"`
	Vendor  string           `validate:"required,slug"`
	ShortID string           `validate:"required,slug,max=64"`
	Payload apprepo.Payload  `validate:"-"`
}

type InputGetApp struct {
	InputAppRef
}

type InputListApps struct {
	Caller accessctl.Caller `validate:"-"`
	Vendor string           `validate:"required"`
	Offset int64
	Limit  int64
}

type InputUpdateApp struct {
	InputAppRef
	Payload apprepo.Payload `validate:"-"`
}

type InputListVersions struct {
	InputAppRef
	Offset int64
	Limit  int64
}

type InputGetVersion struct {
	InputAppRef
	Version int64
}

type InputRollback struct {
	InputAppRef
	Version int64
}

type InputApprove struct {
	Caller accessctl.Caller `validate:"-"`
	AppID  string           `validate:"required"`
}

type InputDeprecate struct {
	InputAppRef
	ExpiredOn      *time.Time `validate:"-"`
	ReplacementApp *string    `validate:"omitempty,min=1"`
}

type InputAdminListApps struct {
	Caller accessctl.Caller `validate:"-"`

	// Vendor filters by owner when not empty.
	Vendor string
	Offset int64
	Limit  int64
}

type InputPublicListApps struct {
	Offset int64
	Limit  int64
}

type InputPublicGetApp struct {
	AppID string `validate:"required"`
}

type OutApp struct {
	App apprepo.App
}

type OutVersion struct {
	Version apprepo.AppVersion
}

type OutListApps struct {
	Total  int64
	Offset int64
	Limit  int64
	Apps   []apprepo.App
}

type OutListVersions struct {
	Total    int64
	Offset   int64
	Limit    int64
	Versions []apprepo.AppVersion
}
