package vendorsvc

import (
	"context"

	"github.com/stevelaver/developer-portal-sub000/internal/svc/accessctl"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/invitationrepo"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/vendorrepo"
)

type Service interface {
	CreateVendor(ctx context.Context, in InputCreateVendor) (out OutVendor, err error)
	GetVendor(ctx context.Context, in InputGetVendor) (out OutVendor, err error)
	ListVendors(ctx context.Context, in InputListVendors) (out OutListVendors, err error)
	ApproveVendor(ctx context.Context, in InputApproveVendor) (out OutVendor, err error)
	RequestJoin(ctx context.Context, in InputRequestJoin) (err error)
	Invite(ctx context.Context, in InputInvite) (out OutInvitation, err error)
	AcceptInvitation(ctx context.Context, in InputAcceptInvitation) (out OutInvitation, err error)
}

// MembershipManager grant vendor membership at the identity provider.
type MembershipManager interface {
	AddVendorMembership(ctx context.Context, email, vendor string) error
}

type InputCreateVendor struct {
	Caller  accessctl.Caller `validate:"-"`
	ID      string           `validate:"required,slug,max=32"`
	Name    string           `validate:"required,max=128"`
	Address string           `validate:"max=512"`
	Email   string           `validate:"required,email"`
}

type InputGetVendor struct {
	Caller accessctl.Caller `validate:"-"`
	ID     string           `validate:"required"`
}

type InputListVendors struct {
	Caller accessctl.Caller `validate:"-"`
	Offset int64
	Limit  int64
}

type InputApproveVendor struct {
	Caller accessctl.Caller `validate:"-"`
	ID     string           `validate:"required"`
	NewID  string           `validate:"omitempty,slug,max=32"`
}

type InputRequestJoin struct {
	Caller accessctl.Caller `validate:"-"`
	Vendor string           `validate:"required"`
}

type InputInvite struct {
	Caller accessctl.Caller `validate:"-"`
	Vendor string           `validate:"required"`
	Email  string           `validate:"required,email"`
}

type InputAcceptInvitation struct {
	Caller accessctl.Caller `validate:"-"`
	Vendor string           `validate:"required"`
	Code   string           `validate:"required"`
}

type OutVendor struct {
	Vendor vendorrepo.Vendor
}

type OutListVendors struct {
	Total   int64
	Offset  int64
	Limit   int64
	Vendors []vendorrepo.Vendor
}

type OutInvitation struct {
	Invitation invitationrepo.Invitation
}
