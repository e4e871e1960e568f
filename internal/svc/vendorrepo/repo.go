package vendorrepo

import (
	"context"
	"time"
)

// Vendor is a tenant owning apps. Json tag is used for caching.
type Vendor struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Address    string    `json:"address" db:"address"`
	Email      string    `json:"email" db:"email"`
	IsPublic   bool      `json:"isPublic" db:"is_public"`
	IsApproved bool      `json:"isApproved" db:"is_approved"`
	CreatedOn  time.Time `json:"createdOn" db:"created_on"`
	CreatedBy  string    `json:"createdBy" db:"created_by"`
}

type Repo interface {
	Create(ctx context.Context, in InputCreate) (out OutCreate, err error)
	Get(ctx context.Context, in InputGet) (out OutGet, err error)
	List(ctx context.Context, in InputList) (out OutList, err error)
	Approve(ctx context.Context, in InputApprove) (out OutApprove, err error)
}

type InputCreate struct {
	Vendor Vendor `validate:"required"`
}

type OutCreate struct {
	Vendor Vendor
}

type InputGet struct {
	ID string `validate:"required"`
}

type OutGet struct {
	Vendor Vendor
}

type InputList struct {
	Offset int64
	Limit  int64
}

type OutList struct {
	Total   int64
	Vendors []Vendor
}

type InputApprove struct {
	ID string `validate:"required"`

	// NewID renames the vendor while approving it, empty keeps the id.
	NewID string `validate:"omitempty,slug,max=32"`
}

type OutApprove struct {
	Vendor Vendor
}
