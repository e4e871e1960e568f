package vendorsvc

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/stevelaver/developer-portal-sub000/backend"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/accessctl"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/invitationrepo"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/vendorrepo"
	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
)

type memVendorRepo struct {
	mu      sync.Mutex
	vendors map[string]vendorrepo.Vendor
}

var _ vendorrepo.Repo = (*memVendorRepo)(nil)

func (m *memVendorRepo) Create(_ context.Context, in vendorrepo.InputCreate) (out vendorrepo.OutCreate, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exist := m.vendors[in.Vendor.ID]; exist {
		err = apperr.AlreadyExists("vendor %s already exists", in.Vendor.ID)
		return
	}

	m.vendors[in.Vendor.ID] = in.Vendor
	out.Vendor = in.Vendor
	return
}

func (m *memVendorRepo) Get(_ context.Context, in vendorrepo.InputGet) (out vendorrepo.OutGet, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.vendors[in.ID]
	if !ok {
		err = apperr.NotFound("vendor %s not found", in.ID)
		return
	}

	out.Vendor = v
	return
}

func (m *memVendorRepo) List(_ context.Context, in vendorrepo.InputList) (out vendorrepo.OutList, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out.Total = int64(len(m.vendors))
	for _, v := range m.vendors {
		out.Vendors = append(out.Vendors, v)
	}
	return
}

func (m *memVendorRepo) Approve(_ context.Context, in vendorrepo.InputApprove) (out vendorrepo.OutApprove, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.vendors[in.ID]
	if !ok {
		err = apperr.NotFound("vendor %s not found", in.ID)
		return
	}

	if v.IsApproved {
		err = apperr.BadRequest("vendor %s is already approved", in.ID)
		return
	}

	v.IsApproved = true
	if in.NewID != "" {
		delete(m.vendors, v.ID)
		v.ID = in.NewID
	}

	m.vendors[v.ID] = v
	out.Vendor = v
	return
}

// memInvitationRepo keep invitations by code.
type memInvitationRepo struct {
	mu          sync.Mutex
	invitations map[string]invitationrepo.Invitation
}

var _ invitationrepo.Repo = (*memInvitationRepo)(nil)

func (m *memInvitationRepo) Replace(_ context.Context, in invitationrepo.InputReplace) (out invitationrepo.OutReplace, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for code, inv := range m.invitations {
		if inv.Vendor == in.Invitation.Vendor && strings.EqualFold(inv.Email, in.Invitation.Email) && inv.AcceptedOn == nil {
			delete(m.invitations, code)
		}
	}

	m.invitations[in.Invitation.Code] = in.Invitation
	out.Invitation = in.Invitation
	return
}

func (m *memInvitationRepo) Accept(ctx context.Context, in invitationrepo.InputAccept) (out invitationrepo.OutAccept, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inv, ok := m.invitations[in.Code]
	if !ok || inv.Vendor != in.Vendor || !strings.EqualFold(inv.Email, in.Email) {
		err = apperr.NotFound("invitation not found")
		return
	}

	if inv.AcceptedOn != nil {
		err = apperr.BadRequest("invitation was already accepted")
		return
	}

	if in.Now.Sub(inv.CreatedOn) > in.MaxAge {
		err = apperr.BadRequest("invitation has expired")
		return
	}

	now := in.Now
	inv.AcceptedOn = &now
	if in.Confirm != nil {
		if err = in.Confirm(ctx, inv); err != nil {
			return
		}
	}

	m.invitations[in.Code] = inv
	out.Invitation = inv
	return
}

type memMembers struct {
	mu      sync.Mutex
	fail    bool
	granted map[string][]string
}

func (m *memMembers) AddVendorMembership(_ context.Context, email, vendor string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail {
		return errors.New("identity provider unavailable")
	}

	m.granted[email] = append(m.granted[email], vendor)
	return nil
}

type recordNotifier struct {
	mu   sync.Mutex
	msgs []backend.Message
}

func (r *recordNotifier) Notify(_ context.Context, msg backend.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

type noApps struct{}

func (noApps) FindAppOwner(_ context.Context, _ string) (accessctl.AppOwner, bool, error) {
	return accessctl.AppOwner{}, false, nil
}

var fixedNow = time.Date(2022, 10, 2, 0, 0, 0, 0, time.UTC)
