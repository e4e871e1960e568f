package handlericon

import (
	"io"
	"net/http"

	"github.com/stevelaver/developer-portal-sub000/internal/svc/iconsvc"
	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
	"github.com/stevelaver/developer-portal-sub000/pkg/respbuilder"
	"github.com/stevelaver/developer-portal-sub000/pkg/validator"
	"github.com/stevelaver/developer-portal-sub000/transport/restapi/httptyped"
	"github.com/yusufsyaifudin/ylog"
)

type HandlerConfig struct {
	IconService iconsvc.Service `validate:"required"`
	DebugError  bool            `validate:"-"`
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

type UploadLinkResp struct {
	Link             string `json:"link"`
	ContentType      string `json:"contentType"`
	ExpiresInSeconds int64  `json:"expiresIn"`
}

type HookResp struct {
	Handled bool   `json:"handled"`
	AppID   string `json:"appId,omitempty"`
	Version int64  `json:"version,omitempty"`
}

// UploadLink return a signed PUT url for the app icon. The png is picked up by the storage hook.
// Path     : POST /v1/vendors/{vendor}/apps/{app}/icon
// Response : UploadLinkResp
func (h *Handler) UploadLink() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		c, _ := httptyped.CallerFrom(ctx)
		out, err := h.Config.IconService.UploadLink(ctx, iconsvc.InputUploadLink{
			Caller: c,
			Vendor: httptyped.URLParam(r, "vendor"),
			AppID:  httptyped.URLParam(r, "app"),
		})
		if err != nil {
			respbuilder.WriteError(w, r, err, h.Config.DebugError)
			return
		}

		resp := UploadLinkResp{
			Link:             out.URL,
			ContentType:      out.ContentType,
			ExpiresInSeconds: int64(out.ExpiresIn.Seconds()),
		}

		respbuilder.WriteJSON(http.StatusOK, w, r, respbuilder.Success(ctx, resp))
	}
}

// StorageHook receive Pub/Sub push messages of the icon bucket.
// Any 2xx acknowledges the message, so only failures worth a retry answer otherwise.
// Path         : POST /v1/hooks/storage
// Request Body : iconsvc.PushEnvelope
// Response     : HookResp
func (h *Handler) StorageHook() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Body == nil {
			respbuilder.WriteError(w, r, apperr.BadRequest("request body is empty"), h.Config.DebugError)
			return
		}

		defer func() {
			if _err := r.Body.Close(); _err != nil {
				ylog.Error(ctx, "cannot close request body", ylog.KV("error", _err))
			}
		}()

		body, err := io.ReadAll(io.LimitReader(r.Body, httptyped.MaxBodyBytes))
		if err != nil {
			respbuilder.WriteError(w, r, apperr.BadRequest("cannot read body: %s", err), h.Config.DebugError)
			return
		}

		out, err := h.Config.IconService.HandleEvent(ctx, iconsvc.InputHandleEvent{Body: body})
		if err != nil {
			respbuilder.WriteError(w, r, err, h.Config.DebugError)
			return
		}

		resp := HookResp{Handled: out.Handled, AppID: out.AppID, Version: out.Version}
		respbuilder.WriteJSON(http.StatusOK, w, r, respbuilder.Success(ctx, resp))
	}
}
