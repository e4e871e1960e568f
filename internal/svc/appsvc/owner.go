package appsvc

import (
	"context"
	"errors"

	"github.com/stevelaver/developer-portal-sub000/internal/svc/accessctl"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/apprepo"
	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
)

// OwnerFinder serve access control from the version store, soft deleted apps included.
type OwnerFinder struct {
	Repo apprepo.Repo
}

var _ accessctl.AppFinder = (*OwnerFinder)(nil)

func (o *OwnerFinder) FindAppOwner(ctx context.Context, appID string) (owner accessctl.AppOwner, found bool, err error) {
	out, err := o.Repo.Get(ctx, apprepo.InputGet{ID: appID, IncludeDeleted: true})
	if errors.Is(err, apperr.ErrNotFound) {
		return accessctl.AppOwner{}, false, nil
	}

	if err != nil {
		return accessctl.AppOwner{}, false, err
	}

	return accessctl.AppOwner{Vendor: out.App.Vendor, Deleted: out.App.Deleted()}, true, nil
}
