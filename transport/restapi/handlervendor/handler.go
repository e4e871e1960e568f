package handlervendor

import (
	"net/http"

	"github.com/stevelaver/developer-portal-sub000/internal/svc/accessctl"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/vendorsvc"
	"github.com/stevelaver/developer-portal-sub000/pkg/respbuilder"
	"github.com/stevelaver/developer-portal-sub000/pkg/validator"
	"github.com/stevelaver/developer-portal-sub000/transport/restapi/httptyped"
)

type HandlerConfig struct {
	VendorService vendorsvc.Service `validate:"required"`
	DebugError    bool              `validate:"-"`
}

type Handler struct {
	Config HandlerConfig
}

func NewHandler(conf HandlerConfig) (*Handler, error) {
	err := validator.Validate(conf)
	if err != nil {
		return nil, err
	}

	return &Handler{Config: conf}, nil
}

type CreateVendorReq struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
}

type VendorResp struct {
	Vendor httptyped.VendorEntity `json:"vendor"`
}

type ListVendorsResp struct {
	httptyped.Page

	Vendors []httptyped.VendorEntity `json:"vendors"`
}

type ApproveVendorReq struct {
	NewID string `json:"newId"`
}

type InviteReq struct {
	Email string `json:"email"`
}

type InvitationResp struct {
	Invitation httptyped.InvitationEntity `json:"invitation"`
}

// CreateVendor register a vendor waiting for admin approval, the caller becomes its member.
// Path         : POST /v1/vendors
// Request Body : CreateVendorReq
// Response     : VendorResp
func (h *Handler) CreateVendor() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var reqBody CreateVendorReq
		if err := httptyped.DecodeJSON(r, &reqBody); err != nil {
			h.fail(w, r, err)
			return
		}

		out, err := h.Config.VendorService.CreateVendor(ctx, vendorsvc.InputCreateVendor{
			Caller:  caller(r),
			ID:      reqBody.ID,
			Name:    reqBody.Name,
			Address: reqBody.Address,
			Email:   reqBody.Email,
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}

		resp := VendorResp{Vendor: httptyped.VendorFromSvc(out.Vendor)}
		respbuilder.WriteJSON(http.StatusCreated, w, r, respbuilder.Success(ctx, resp))
	}
}

// GetVendor
// Path     : GET /v1/vendors/{vendor}
// Response : VendorResp
func (h *Handler) GetVendor() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		out, err := h.Config.VendorService.GetVendor(ctx, vendorsvc.InputGetVendor{
			Caller: caller(r),
			ID:     httptyped.URLParam(r, "vendor"),
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}

		resp := VendorResp{Vendor: httptyped.VendorFromSvc(out.Vendor)}
		respbuilder.WriteJSON(http.StatusOK, w, r, respbuilder.Success(ctx, resp))
	}
}

// RequestJoin
// Path     : POST /v1/vendors/{vendor}/join-request
// Response : empty
func (h *Handler) RequestJoin() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		err := h.Config.VendorService.RequestJoin(ctx, vendorsvc.InputRequestJoin{
			Caller: caller(r),
			Vendor: httptyped.URLParam(r, "vendor"),
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}

		respbuilder.WriteJSON(http.StatusAccepted, w, r, respbuilder.Success(ctx, struct{}{}))
	}
}

// Invite email a one time code to join vendor.
// Path         : POST /v1/vendors/{vendor}/invitations
// Request Body : InviteReq
// Response     : InvitationResp
func (h *Handler) Invite() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var reqBody InviteReq
		if err := httptyped.DecodeJSON(r, &reqBody); err != nil {
			h.fail(w, r, err)
			return
		}

		out, err := h.Config.VendorService.Invite(ctx, vendorsvc.InputInvite{
			Caller: caller(r),
			Vendor: httptyped.URLParam(r, "vendor"),
			Email:  reqBody.Email,
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}

		resp := InvitationResp{Invitation: httptyped.InvitationFromSvc(out.Invitation)}
		respbuilder.WriteJSON(http.StatusCreated, w, r, respbuilder.Success(ctx, resp))
	}
}

// AcceptInvitation
// Path     : POST /v1/vendors/{vendor}/invitations/{code}
// Response : InvitationResp
func (h *Handler) AcceptInvitation() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		out, err := h.Config.VendorService.AcceptInvitation(ctx, vendorsvc.InputAcceptInvitation{
			Caller: caller(r),
			Vendor: httptyped.URLParam(r, "vendor"),
			Code:   httptyped.URLParam(r, "code"),
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}

		resp := InvitationResp{Invitation: httptyped.InvitationFromSvc(out.Invitation)}
		respbuilder.WriteJSON(http.StatusOK, w, r, respbuilder.Success(ctx, resp))
	}
}

// ListVendors is admin only.
// Path     : GET /v1/admin/vendors?offset=&limit=
// Response : ListVendorsResp
func (h *Handler) ListVendors() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var query httptyped.PageQuery
		if err := httptyped.DecodeQuery(r, &query); err != nil {
			h.fail(w, r, err)
			return
		}

		out, err := h.Config.VendorService.ListVendors(ctx, vendorsvc.InputListVendors{
			Caller: caller(r),
			Offset: query.Offset,
			Limit:  query.PageLimit(),
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}

		resp := ListVendorsResp{
			Page:    httptyped.Page{Total: out.Total, Offset: out.Offset, Limit: out.Limit},
			Vendors: make([]httptyped.VendorEntity, 0, len(out.Vendors)),
		}

		for _, v := range out.Vendors {
			resp.Vendors = append(resp.Vendors, httptyped.VendorFromSvc(v))
		}

		respbuilder.WriteJSON(http.StatusOK, w, r, respbuilder.Success(ctx, resp))
	}
}

// ApproveVendor is admin only, newId renames the vendor.
// Path         : POST /v1/admin/vendors/{vendor}/approve
// Request Body : ApproveVendorReq (optional)
// Response     : VendorResp
func (h *Handler) ApproveVendor() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var reqBody ApproveVendorReq
		if r.ContentLength != 0 {
			if err := httptyped.DecodeJSON(r, &reqBody); err != nil {
				h.fail(w, r, err)
				return
			}
		}

		out, err := h.Config.VendorService.ApproveVendor(ctx, vendorsvc.InputApproveVendor{
			Caller: caller(r),
			ID:     httptyped.URLParam(r, "vendor"),
			NewID:  reqBody.NewID,
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}

		resp := VendorResp{Vendor: httptyped.VendorFromSvc(out.Vendor)}
		respbuilder.WriteJSON(http.StatusOK, w, r, respbuilder.Success(ctx, resp))
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	respbuilder.WriteError(w, r, err, h.Config.DebugError)
}

func caller(r *http.Request) accessctl.Caller {
	c, _ := httptyped.CallerFrom(r.Context())
	return c
}
