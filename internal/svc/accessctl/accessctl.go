package accessctl

import (
	"context"
	"fmt"

	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
)

// Caller is an already authenticated identity, as reported by the identity provider.
type Caller struct {
	Email   string   `json:"email"`
	Name    string   `json:"name"`
	Vendors []string `json:"vendors"`
	IsAdmin bool     `json:"isAdmin"`
}

// MemberOf report whether the caller belongs to vendor.
func (c Caller) MemberOf(vendor string) bool {
	for _, v := range c.Vendors {
		if v == vendor {
			return true
		}
	}

	return false
}

// AppOwner is what access control needs to know about an app.
type AppOwner struct {
	Vendor  string
	Deleted bool
}

// AppFinder look up the owner of an app. found is false when the app does not exist at all.
type AppFinder interface {
	FindAppOwner(ctx context.Context, appID string) (owner AppOwner, found bool, err error)
}

type Checker interface {
	CheckVendor(ctx context.Context, caller Caller, vendor string) error
	CheckApp(ctx context.Context, caller Caller, vendor, appID string) error
}

type Config struct {
	Apps AppFinder `validate:"required"`
}

type DefaultChecker struct {
	apps AppFinder
}

var _ Checker = (*DefaultChecker)(nil)

func New(cfg Config) (*DefaultChecker, error) {
	if cfg.Apps == nil {
		return nil, fmt.Errorf("access control needs an app finder")
	}

	return &DefaultChecker{apps: cfg.Apps}, nil
}

// CheckVendor pass for admins and members of vendor.
func (d *DefaultChecker) CheckVendor(_ context.Context, caller Caller, vendor string) error {
	if caller.IsAdmin || caller.MemberOf(vendor) {
		return nil
	}

	return apperr.Unauthorized("you are not member of vendor %s", vendor)
}

// CheckApp pass when CheckVendor passes and the app exists under vendor.
// An app of another vendor is reported as NotFound so its existence does not leak across tenants.
// Admins only need the app to exist.
func (d *DefaultChecker) CheckApp(ctx context.Context, caller Caller, vendor, appID string) error {
	if err := d.CheckVendor(ctx, caller, vendor); err != nil {
		return err
	}

	owner, found, err := d.apps.FindAppOwner(ctx, appID)
	if err != nil {
		return fmt.Errorf("find owner of app %s: %w", appID, err)
	}

	if caller.IsAdmin {
		if !found {
			return apperr.NotFound("app %s does not exist", appID)
		}

		return nil
	}

	if !found || owner.Deleted || owner.Vendor != vendor {
		return apperr.NotFound("app %s does not exist", appID)
	}

	return nil
}
