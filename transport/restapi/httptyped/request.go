package httptyped

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
	"github.com/segmentio/encoding/json"
	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
	"github.com/yusufsyaifudin/ylog"
)

// MaxBodyBytes bounds every request body.
const MaxBodyBytes = 1 << 20

var queryDecoder = func() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return dec
}()

// DecodeJSON read the request body into dst. Unknown keys are dropped by dst's own shape.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return apperr.BadRequest("request body is empty")
	}

	defer func() {
		if _err := r.Body.Close(); _err != nil {
			ylog.Error(r.Context(), "cannot close request body", ylog.KV("error", _err))
		}
	}()

	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	err := dec.Decode(dst)
	if errors.Is(err, io.EOF) {
		return apperr.BadRequest("request body is empty")
	}

	if err != nil {
		return apperr.BadRequest("malformed json body: %s", err)
	}

	return nil
}

// DecodeQuery decode the query string into dst using `schema` tags.
func DecodeQuery(r *http.Request, dst interface{}) error {
	if err := queryDecoder.Decode(dst, r.URL.Query()); err != nil {
		return apperr.BadRequest("malformed query string: %s", err)
	}

	return nil
}

// URLParam return the trimmed chi route parameter.
func URLParam(r *http.Request, key string) string {
	return strings.TrimSpace(chi.URLParam(r, key))
}

// URLParamInt parse a numeric route parameter.
func URLParamInt(r *http.Request, key string) (int64, error) {
	raw := URLParam(r, key)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.BadRequest("%s must be a number, got %q", key, raw)
	}

	return v, nil
}
