package respbuilder

import (
	"net/http"

	"github.com/segmentio/encoding/json"
	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
	"github.com/yusufsyaifudin/ylog"
)

func WriteJSON(httpStatus int, rw http.ResponseWriter, r *http.Request, data interface{}) {
	tracer := MustExtract(r.Context())

	rw.Header().Set("Content-Type", "application/json")
	rw.Header().Set("Tracer-ID", tracer.AppTraceID)
	rw.WriteHeader(httpStatus)

	enc := json.NewEncoder(rw)
	err := enc.Encode(data)
	if err != nil {
		ylog.Error(r.Context(), "cannot encode response", ylog.KV("error", err))
	}
}

// WriteError write err using its kind status. Internal errors are logged here with full detail.
func WriteError(rw http.ResponseWriter, r *http.Request, err error, debug bool) {
	if apperr.KindOf(err) == apperr.KindInternal {
		ylog.Error(r.Context(), "internal error", ylog.KV("error", err.Error()), ylog.KV("path", r.URL.Path))
	}

	status, resp := Error(r.Context(), err, debug)
	WriteJSON(status, rw, r, resp)
}
