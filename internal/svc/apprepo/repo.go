package apprepo

import (
	"context"
)

// Repo is the app version store.
// Every successful mutation bumps version by exactly one and writes the matching app_versions row
// in the same transaction.
type Repo interface {
	Insert(ctx context.Context, in InputInsert) (out OutInsert, err error)
	Update(ctx context.Context, in InputUpdate) (out OutUpdate, err error)
	AddIcon(ctx context.Context, in InputAddIcon) (out OutAddIcon, err error)
	Get(ctx context.Context, in InputGet) (out OutGet, err error)
	GetVersion(ctx context.Context, in InputGetVersion) (out OutGetVersion, err error)
	ListVersions(ctx context.Context, in InputListVersions) (out OutListVersions, err error)
	List(ctx context.Context, in InputList) (out OutList, err error)
}

type InputInsert struct {
	ID      string  `validate:"required,max=128"`
	Vendor  string  `validate:"required,slug"`
	Actor   string  `validate:"required"`
	Payload Payload `validate:"-"`
}

type OutInsert struct {
	App App
}

type InputUpdate struct {
	ID      string      `validate:"required"`
	Actor   string      `validate:"required"`
	Payload Payload     `validate:"-"`
	State   StateChange `validate:"-"`
}

type OutUpdate struct {
	App App

	// Changed is false when the update was a no-op and version was not bumped.
	Changed bool
}

type InputAddIcon struct {
	ID    string `validate:"required"`
	Actor string `validate:"required"`
}

type OutAddIcon struct {
	Version int64
	Icon32  string
	Icon64  string
}

type InputGet struct {
	ID             string `validate:"required"`
	IncludeDeleted bool

	// SkipCache forces a read from the persistent store, mutation guards use it.
	SkipCache bool
}

type OutGet struct {
	App App
}

type InputGetVersion struct {
	ID      string `validate:"required"`
	Version int64
}

type OutGetVersion struct {
	Version AppVersion
}

type InputListVersions struct {
	ID     string `validate:"required"`
	Offset int64
	Limit  int64
}

type OutListVersions struct {
	Total    int64
	Versions []AppVersion
}

type InputList struct {
	// Vendor filters by owner when not empty.
	Vendor string

	// PublicOnly keeps approved and public apps only.
	PublicOnly bool

	Offset int64
	Limit  int64
}

type OutList struct {
	Total int64
	Apps  []App
}
