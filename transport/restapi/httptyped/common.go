package httptyped

import (
	"time"

	"github.com/stevelaver/developer-portal-sub000/internal/svc/apprepo"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/invitationrepo"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/vendorrepo"
	"github.com/stevelaver/developer-portal-sub000/pkg/paging"
)

// AppEntity is the app as returned to vendors and admins.
type AppEntity = apprepo.App

// AppVersionEntity is one history snapshot.
type AppVersionEntity = apprepo.AppVersion

// PublicAppEntity hide the audit fields of an app from anonymous callers.
type PublicAppEntity struct {
	ID      string `json:"id"`
	Vendor  string `json:"vendor"`
	Version int64  `json:"version"`

	apprepo.Attributes
}

func PublicAppFromSvc(app apprepo.App) PublicAppEntity {
	return PublicAppEntity{
		ID:         app.ID,
		Vendor:     app.Vendor,
		Version:    app.Version,
		Attributes: app.Attributes,
	}
}

type VendorEntity struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	Email      string    `json:"email"`
	IsPublic   bool      `json:"isPublic"`
	IsApproved bool      `json:"isApproved"`
	CreatedOn  time.Time `json:"createdOn"`
	CreatedBy  string    `json:"createdBy"`
}

func VendorFromSvc(v vendorrepo.Vendor) VendorEntity {
	return VendorEntity(v)
}

// InvitationEntity never carries the code, it is only delivered by email.
type InvitationEntity struct {
	Vendor     string     `json:"vendor"`
	Email      string     `json:"email"`
	CreatedBy  string     `json:"createdBy"`
	CreatedOn  time.Time  `json:"createdOn"`
	AcceptedOn *time.Time `json:"acceptedOn,omitempty"`
}

func InvitationFromSvc(inv invitationrepo.Invitation) InvitationEntity {
	return InvitationEntity{
		Vendor:     inv.Vendor,
		Email:      inv.Email,
		CreatedBy:  inv.CreatedBy,
		CreatedOn:  inv.CreatedOn,
		AcceptedOn: inv.AcceptedOn,
	}
}

// Page is the pagination echoed in every list response.
type Page struct {
	Total  int64 `json:"total"`
	Offset int64 `json:"offset"`
	Limit  int64 `json:"limit"`
}

// PageQuery is decoded from the query string with gorilla/schema.
// Limit is nil when the query has no limit.
type PageQuery struct {
	Offset int64  `schema:"offset"`
	Limit  *int64 `schema:"limit"`
	Vendor string `schema:"vendor"`
}

// PageLimit return the limit for the service layer, 0 when absent.
func (q PageQuery) PageLimit() int64 {
	return paging.LimitFrom(q.Limit)
}
