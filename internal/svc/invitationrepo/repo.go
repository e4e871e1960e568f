package invitationrepo

import (
	"context"
	"time"
)

// Invitation is a one time code inviting email to join vendor.
type Invitation struct {
	Code       string     `db:"code"`
	Vendor     string     `db:"vendor"`
	Email      string     `db:"email"`
	CreatedBy  string     `db:"created_by"`
	CreatedOn  time.Time  `db:"created_on"`
	AcceptedOn *time.Time `db:"accepted_on"`
}

type Repo interface {
	Replace(ctx context.Context, in InputReplace) (out OutReplace, err error)
	Accept(ctx context.Context, in InputAccept) (out OutAccept, err error)
}

// InputReplace drop any unaccepted code of (Vendor, Email) and store the new one.
type InputReplace struct {
	Invitation Invitation `validate:"required"`
}

type OutReplace struct {
	Invitation Invitation
}

// InputAccept accept the code on behalf of Email. Confirm runs inside the transaction after the
// code is marked accepted, an error from it rolls the acceptance back.
type InputAccept struct {
	Vendor  string                                                 `validate:"required"`
	Code    string                                                 `validate:"required"`
	Email   string                                                 `validate:"required,email"`
	Now     time.Time                                              `validate:"required"`
	MaxAge  time.Duration                                          `validate:"required"`
	Confirm func(ctx context.Context, invitation Invitation) error `validate:"-"`
}

type OutAccept struct {
	Invitation Invitation
}
