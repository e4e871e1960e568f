package handlerapp

import (
	"net/http"
	"time"

	"github.com/stevelaver/developer-portal-sub000/internal/svc/accessctl"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/apprepo"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/appsvc"
	"github.com/stevelaver/developer-portal-sub000/pkg/respbuilder"
	"github.com/stevelaver/developer-portal-sub000/pkg/validator"
	"github.com/stevelaver/developer-portal-sub000/transport/restapi/httptyped"
)

type HandlerConfig struct {
	AppService appsvc.Service `validate:"required"`
	DebugError bool           `validate:"-"`
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

// CreateAppReq is the app payload plus the short id, the full id is {vendor}.{id}.
type CreateAppReq struct {
	ID string `json:"id"`

	apprepo.Payload
}

type AppResp struct {
	App httptyped.AppEntity `json:"app"`
}

type ListAppsResp struct {
	httptyped.Page

	Apps []httptyped.AppEntity `json:"apps"`
}

type VersionResp struct {
	Version httptyped.AppVersionEntity `json:"version"`
}

type ListVersionsResp struct {
	httptyped.Page

	Versions []httptyped.AppVersionEntity `json:"versions"`
}

type DeprecateReq struct {
	ExpiredOn      *time.Time `json:"expiredOn"`
	ReplacementApp *string    `json:"replacementApp"`
}

type PublicAppResp struct {
	App httptyped.PublicAppEntity `json:"app"`
}

type PublicListAppsResp struct {
	httptyped.Page

	Apps []httptyped.PublicAppEntity `json:"apps"`
}

// CreateApp register a new app under vendor.
// Path         : POST /v1/vendors/{vendor}/apps
// Request Body : CreateAppReq
// Response     : AppResp
func (h *Handler) CreateApp() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var reqBody CreateAppReq
		if err := httptyped.DecodeJSON(r, &reqBody); err != nil {
			h.fail(w, r, err)
			return
		}

		out, err := h.Config.AppService.CreateApp(ctx, appsvc.InputCreateApp{
			Caller:  caller(r),
			Vendor:  httptyped.URLParam(r, "vendor"),
			ShortID: reqBody.ID,
			Payload: reqBody.Payload,
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}

		respbuilder.WriteJSON(http.StatusCreated, w, r, respbuilder.Success(ctx, AppResp{App: out.App}))
	}
}

// ListApps list apps of vendor.
// Path     : GET /v1/vendors/{vendor}/apps?offset=&limit=
// Response : ListAppsResp
func (h *Handler) ListApps() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var query httptyped.PageQuery
		if err := httptyped.DecodeQuery(r, &query); err != nil {
			h.fail(w, r, err)
			return
		}

		out, err := h.Config.AppService.ListApps(ctx, appsvc.InputListApps{
			Caller: caller(r),
			Vendor: httptyped.URLParam(r, "vendor"),
			Offset: query.Offset,
			Limit:  query.PageLimit(),
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}

		respbuilder.WriteJSON(http.StatusOK, w, r, respbuilder.Success(ctx, listAppsResp(out)))
	}
}

// GetApp return the current state of an app.
// Path     : GET /v1/vendors/{vendor}/apps/{app}
// Response : AppResp
func (h *Handler) GetApp() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		out, err := h.Config.AppService.GetApp(ctx, appsvc.InputGetApp{InputAppRef: appRef(r)})
		if err != nil {
			h.fail(w, r, err)
			return
		}

		respbuilder.WriteJSON(http.StatusOK, w, r, respbuilder.Success(ctx, AppResp{App: out.App}))
	}
}

// UpdateApp apply a partial update, keys outside of the app payload are ignored.
// Path         : PATCH /v1/vendors/{vendor}/apps/{app}
// Request Body : apprepo.Payload
// Response     : AppResp
func (h *Handler) UpdateApp() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload apprepo.Payload
		if err := httptyped.DecodeJSON(r, &payload); err != nil {
			h.fail(w, r, err)
			return
		}

		out, err := h.Config.AppService.UpdateApp(ctx, appsvc.InputUpdateApp{
			InputAppRef: appRef(r),
			Payload:     payload,
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}

		respbuilder.WriteJSON(http.StatusOK, w, r, respbuilder.Success(ctx, AppResp{App: out.App}))
	}
}

// DeleteApp soft delete an app.
// Path     : DELETE /v1/vendors/{vendor}/apps/{app}
// Response : AppResp
func (h *Handler) DeleteApp() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		out, err := h.Config.AppService.DeleteApp(ctx, appRef(r))
		if err != nil {
			h.fail(w, r, err)
			return
		}

		respbuilder.WriteJSON(http.StatusOK, w, r, respbuilder.Success(ctx, AppResp{App: out.App}))
	}
}

// ListVersions list the history of an app, newest first.
// Path     : GET /v1/vendors/{vendor}/apps/{app}/versions?offset=&limit=
// Response : ListVersionsResp
func (h *Handler) ListVersions() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var query httptyped.PageQuery
		if err := httptyped.DecodeQuery(r, &query); err != nil {
			h.fail(w, r, err)
			return
		}

		out, err := h.Config.AppService.ListVersions(ctx, appsvc.InputListVersions{
			InputAppRef: appRef(r),
			Offset:      query.Offset,
			Limit:       query.PageLimit(),
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}

		resp := ListVersionsResp{
			Page:     httptyped.Page{Total: out.Total, Offset: out.Offset, Limit: out.Limit},
			Versions: out.Versions,
		}

		if resp.Versions == nil {
			resp.Versions = []httptyped.AppVersionEntity{}
		}

		respbuilder.WriteJSON(http.StatusOK, w, r, respbuilder.Success(ctx, resp))
	}
}

// GetVersion return one history snapshot.
// Path     : GET /v1/vendors/{vendor}/apps/{app}/versions/{version}
// Response : VersionResp
func (h *Handler) GetVersion() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		version, err := httptyped.URLParamInt(r, "version")
		if err != nil {
			h.fail(w, r, err)
			return
		}

		out, err := h.Config.AppService.GetVersion(ctx, appsvc.InputGetVersion{
			InputAppRef: appRef(r),
			Version:     version,
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}

		respbuilder.WriteJSON(http.StatusOK, w, r, respbuilder.Success(ctx, VersionResp{Version: out.Version}))
	}
}

// Rollback write the content of an older version as a new version.
// Path     : POST /v1/vendors/{vendor}/apps/{app}/versions/{version}/rollback
// Response : AppResp
func (h *Handler) Rollback() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		version, err := httptyped.URLParamInt(r, "version")
		if err != nil {
			h.fail(w, r, err)
			return
		}

		out, err := h.Config.AppService.Rollback(ctx, appsvc.InputRollback{
			InputAppRef: appRef(r),
			Version:     version,
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}

		respbuilder.WriteJSON(http.StatusOK, w, r, respbuilder.Success(ctx, AppResp{App: out.App}))
	}
}

// RequestPublish ask admins to approve a complete app.
// Path     : POST /v1/vendors/{vendor}/apps/{app}/publish-request
// Response : AppResp
func (h *Handler) RequestPublish() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		out, err := h.Config.AppService.RequestPublish(ctx, appRef(r))
		if err != nil {
			h.fail(w, r, err)
			return
		}

		respbuilder.WriteJSON(http.StatusAccepted, w, r, respbuilder.Success(ctx, AppResp{App: out.App}))
	}
}

// Deprecate retire an app, optionally pointing to its replacement.
// Path         : POST /v1/vendors/{vendor}/apps/{app}/deprecate
// Request Body : DeprecateReq
// Response     : AppResp
func (h *Handler) Deprecate() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var reqBody DeprecateReq
		if err := httptyped.DecodeJSON(r, &reqBody); err != nil {
			h.fail(w, r, err)
			return
		}

		out, err := h.Config.AppService.Deprecate(ctx, appsvc.InputDeprecate{
			InputAppRef:    appRef(r),
			ExpiredOn:      reqBody.ExpiredOn,
			ReplacementApp: reqBody.ReplacementApp,
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}

		respbuilder.WriteJSON(http.StatusOK, w, r, respbuilder.Success(ctx, AppResp{App: out.App}))
	}
}

// Approve is admin only.
// Path     : POST /v1/admin/apps/{app}/approve
// Response : AppResp
func (h *Handler) Approve() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		out, err := h.Config.AppService.Approve(ctx, appsvc.InputApprove{
			Caller: caller(r),
			AppID:  httptyped.URLParam(r, "app"),
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}

		respbuilder.WriteJSON(http.StatusOK, w, r, respbuilder.Success(ctx, AppResp{App: out.App}))
	}
}

// AdminListApps list apps of every vendor, unapproved included.
// Path     : GET /v1/admin/apps?vendor=&offset=&limit=
// Response : ListAppsResp
func (h *Handler) AdminListApps() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var query httptyped.PageQuery
		if err := httptyped.DecodeQuery(r, &query); err != nil {
			h.fail(w, r, err)
			return
		}

		out, err := h.Config.AppService.AdminListApps(ctx, appsvc.InputAdminListApps{
			Caller: caller(r),
			Vendor: query.Vendor,
			Offset: query.Offset,
			Limit:  query.PageLimit(),
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}

		respbuilder.WriteJSON(http.StatusOK, w, r, respbuilder.Success(ctx, listAppsResp(out)))
	}
}

// PublicListApps need no authentication.
// Path     : GET /v1/public/apps?offset=&limit=
// Response : PublicListAppsResp
func (h *Handler) PublicListApps() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var query httptyped.PageQuery
		if err := httptyped.DecodeQuery(r, &query); err != nil {
			h.fail(w, r, err)
			return
		}

		out, err := h.Config.AppService.PublicListApps(ctx, appsvc.InputPublicListApps{
			Offset: query.Offset,
			Limit:  query.PageLimit(),
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}

		resp := PublicListAppsResp{
			Page: httptyped.Page{Total: out.Total, Offset: out.Offset, Limit: out.Limit},
			Apps: make([]httptyped.PublicAppEntity, 0, len(out.Apps)),
		}

		for _, app := range out.Apps {
			resp.Apps = append(resp.Apps, httptyped.PublicAppFromSvc(app))
		}

		respbuilder.WriteJSON(http.StatusOK, w, r, respbuilder.Success(ctx, resp))
	}
}

// PublicGetApp need no authentication.
// Path     : GET /v1/public/apps/{app}
// Response : PublicAppResp
func (h *Handler) PublicGetApp() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		out, err := h.Config.AppService.PublicGetApp(ctx, appsvc.InputPublicGetApp{
			AppID: httptyped.URLParam(r, "app"),
		})
		if err != nil {
			h.fail(w, r, err)
			return
		}

		resp := PublicAppResp{App: httptyped.PublicAppFromSvc(out.App)}
		respbuilder.WriteJSON(http.StatusOK, w, r, respbuilder.Success(ctx, resp))
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	respbuilder.WriteError(w, r, err, h.Config.DebugError)
}

func listAppsResp(out appsvc.OutListApps) ListAppsResp {
	resp := ListAppsResp{
		Page: httptyped.Page{Total: out.Total, Offset: out.Offset, Limit: out.Limit},
		Apps: out.Apps,
	}

	if resp.Apps == nil {
		resp.Apps = []httptyped.AppEntity{}
	}

	return resp
}

func appRef(r *http.Request) appsvc.InputAppRef {
	return appsvc.InputAppRef{
		Caller: caller(r),
		Vendor: httptyped.URLParam(r, "vendor"),
		AppID:  httptyped.URLParam(r, "app"),
	}
}

// caller is empty on a route mounted without authentication, services then refuse it.
func caller(r *http.Request) accessctl.Caller {
	c, _ := httptyped.CallerFrom(r.Context())
	return c
}
