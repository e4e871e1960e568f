package vendorsvc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/satori/uuid"
	"github.com/stevelaver/developer-portal-sub000/backend"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/accessctl"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/invitationrepo"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/vendorrepo"
	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
	"github.com/stevelaver/developer-portal-sub000/pkg/paging"
	"github.com/stevelaver/developer-portal-sub000/pkg/tracer"
	"github.com/stevelaver/developer-portal-sub000/pkg/validator"
	"github.com/yusufsyaifudin/ylog"
	"go.opentelemetry.io/otel/trace"
)

// InvitationMaxAge is how long an invitation code can be accepted.
const InvitationMaxAge = 24 * time.Hour

type DefaultServiceConfig struct {
	VendorRepo     vendorrepo.Repo     `validate:"required"`
	InvitationRepo invitationrepo.Repo `validate:"required"`
	Access         accessctl.Checker   `validate:"required"`
	Members        MembershipManager   `validate:"required"`
	Notifier       backend.Notifier    `validate:"required"`
	AdminEmails    []string            `validate:"dive,email"`

	Now     func() time.Time `validate:"-"`
	NewCode func() string    `validate:"-"`
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

	if dep.NewCode == nil {
		dep.NewCode = func() string {
			return uuid.NewV4().String()
		}
	}

	return &DefaultService{Config: dep}, nil
}

// CreateVendor register an unapproved vendor and make the caller its first member.
func (d *DefaultService) CreateVendor(ctx context.Context, in InputCreateVendor) (out OutVendor, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "vendorsvc.CreateVendor")
	defer span.End()

	if err = validate(in); err != nil {
		return
	}

	created, err := d.Config.VendorRepo.Create(ctx, vendorrepo.InputCreate{
		Vendor: vendorrepo.Vendor{
			ID:        in.ID,
			Name:      strings.TrimSpace(in.Name),
			Address:   strings.TrimSpace(in.Address),
			Email:     in.Email,
			CreatedOn: d.Config.Now().UTC(),
			CreatedBy: in.Caller.Email,
		},
	})
	if err != nil {
		return
	}

	if _err := d.Config.Members.AddVendorMembership(ctx, in.Caller.Email, in.ID); _err != nil {
		ylog.Error(ctx, "cannot add creator to vendor", ylog.KV("error", _err), ylog.KV("vendor", in.ID))
	}

	d.notifyAdmins(ctx, backend.EventUserNeedsApproval,
		fmt.Sprintf("Vendor %s needs approval", in.ID),
		fmt.Sprintf("User %s created vendor %s (%s, %s) and waits for approval.", in.Caller.Email, in.ID, in.Name, in.Email),
	)

	out = OutVendor{Vendor: created.Vendor}
	return
}

func (d *DefaultService) GetVendor(ctx context.Context, in InputGetVendor) (out OutVendor, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "vendorsvc.GetVendor")
	defer span.End()

	if err = validate(in); err != nil {
		return
	}

	if err = d.Config.Access.CheckVendor(ctx, in.Caller, in.ID); err != nil {
		return
	}

	got, err := d.Config.VendorRepo.Get(ctx, vendorrepo.InputGet{ID: in.ID})
	if err != nil {
		return
	}

	out = OutVendor{Vendor: got.Vendor}
	return
}

func (d *DefaultService) ListVendors(ctx context.Context, in InputListVendors) (out OutListVendors, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "vendorsvc.ListVendors")
	defer span.End()

	if !in.Caller.IsAdmin {
		err = apperr.Unauthorized("only admin can list vendors")
		return
	}

	page := paging.Page{Offset: in.Offset, Limit: in.Limit}.Clamp()
	list, err := d.Config.VendorRepo.List(ctx, vendorrepo.InputList{Offset: page.Offset, Limit: page.Limit})
	if err != nil {
		return
	}

	out = OutListVendors{Total: list.Total, Offset: page.Offset, Limit: page.Limit, Vendors: list.Vendors}
	return
}

// ApproveVendor is admin only. A rename moves the creator membership to the new id.
func (d *DefaultService) ApproveVendor(ctx context.Context, in InputApproveVendor) (out OutVendor, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "vendorsvc.ApproveVendor")
	defer span.End()

	if err = validate(in); err != nil {
		return
	}

	if !in.Caller.IsAdmin {
		err = apperr.Unauthorized("only admin can approve vendors")
		return
	}

	newID := in.NewID
	if newID == in.ID {
		newID = ""
	}

	approved, err := d.Config.VendorRepo.Approve(ctx, vendorrepo.InputApprove{ID: in.ID, NewID: newID})
	if err != nil {
		return
	}

	if newID != "" && approved.Vendor.CreatedBy != "" {
		if _err := d.Config.Members.AddVendorMembership(ctx, approved.Vendor.CreatedBy, newID); _err != nil {
			ylog.Error(ctx, "cannot move creator to renamed vendor",
				ylog.KV("error", _err),
				ylog.KV("vendor", newID),
				ylog.KV("email", approved.Vendor.CreatedBy),
			)
		}
	}

	ylog.Info(ctx, "vendor approved", ylog.KV("vendor", approved.Vendor.ID), ylog.KV("by", in.Caller.Email))
	out = OutVendor{Vendor: approved.Vendor}
	return
}

// RequestJoin ask the vendor contact to invite the caller.
func (d *DefaultService) RequestJoin(ctx context.Context, in InputRequestJoin) (err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "vendorsvc.RequestJoin")
	defer span.End()

	if err = validate(in); err != nil {
		return
	}

	if in.Caller.MemberOf(in.Vendor) {
		err = apperr.BadRequest("you are already member of vendor %s", in.Vendor)
		return
	}

	got, err := d.Config.VendorRepo.Get(ctx, vendorrepo.InputGet{ID: in.Vendor})
	if err != nil {
		return
	}

	d.Config.Notifier.Notify(ctx, backend.Message{
		Event:      backend.EventVendorJoinRequest,
		Recipients: []string{got.Vendor.Email},
		Subject:    fmt.Sprintf("%s asks to join vendor %s", in.Caller.Email, in.Vendor),
		Body: fmt.Sprintf("User %s (%s) requests membership of vendor %s.\nInvite them from the portal to grant access.",
			in.Caller.Name, in.Caller.Email, in.Vendor),
	})

	return
}

// Invite replace any pending invitation of email to vendor with a new code and mail it.
func (d *DefaultService) Invite(ctx context.Context, in InputInvite) (out OutInvitation, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "vendorsvc.Invite")
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

	replaced, err := d.Config.InvitationRepo.Replace(ctx, invitationrepo.InputReplace{
		Invitation: invitationrepo.Invitation{
			Code:      d.Config.NewCode(),
			Vendor:    in.Vendor,
			Email:     strings.ToLower(in.Email),
			CreatedBy: in.Caller.Email,
			CreatedOn: d.Config.Now().UTC(),
		},
	})
	if err != nil {
		return
	}

	d.Config.Notifier.Notify(ctx, backend.Message{
		Event:      backend.EventVendorInvitation,
		Recipients: []string{replaced.Invitation.Email},
		Subject:    fmt.Sprintf("Invitation to vendor %s", in.Vendor),
		Body: fmt.Sprintf("%s invited you to vendor %s.\nYour invitation code is %s, it expires in %s.",
			in.Caller.Email, in.Vendor, replaced.Invitation.Code, InvitationMaxAge),
	})

	out = OutInvitation{Invitation: replaced.Invitation}
	return
}

// AcceptInvitation grant the caller membership of vendor. The code is consumed only when the
// identity provider accepts the membership.
func (d *DefaultService) AcceptInvitation(ctx context.Context, in InputAcceptInvitation) (out OutInvitation, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "vendorsvc.AcceptInvitation")
	defer span.End()

	if err = validate(in); err != nil {
		return
	}

	accepted, err := d.Config.InvitationRepo.Accept(ctx, invitationrepo.InputAccept{
		Vendor: in.Vendor,
		Code:   in.Code,
		Email:  in.Caller.Email,
		Now:    d.Config.Now().UTC(),
		MaxAge: InvitationMaxAge,
		Confirm: func(ctx context.Context, inv invitationrepo.Invitation) error {
			return d.Config.Members.AddVendorMembership(ctx, in.Caller.Email, inv.Vendor)
		},
	})
	if err != nil {
		return
	}

	ylog.Info(ctx, "invitation accepted", ylog.KV("vendor", in.Vendor), ylog.KV("email", in.Caller.Email))
	out = OutInvitation{Invitation: accepted.Invitation}
	return
}

func (d *DefaultService) notifyAdmins(ctx context.Context, event backend.Event, subject, body string) {
	if len(d.Config.AdminEmails) == 0 {
		return
	}

	d.Config.Notifier.Notify(ctx, backend.Message{
		Event:      event,
		Recipients: d.Config.AdminEmails,
		Subject:    subject,
		Body:       body,
	})
}

func validate(in interface{}) error {
	if err := validator.Validate(in); err != nil {
		return apperr.BadRequest("validation error: %s", err)
	}

	return nil
}
