// Package identity resolves bearer credentials into callers and manages vendor memberships
// at the external identity provider.
package identity

import (
	"context"

	"github.com/stevelaver/developer-portal-sub000/internal/svc/accessctl"
)

type Provider interface {
	// Identify return the caller owning token. Unknown or expired token is apperr.Unauthorized.
	Identify(ctx context.Context, token string) (caller accessctl.Caller, err error)

	// AddVendorMembership grant email membership of vendor.
	AddVendorMembership(ctx context.Context, email, vendor string) error
}
