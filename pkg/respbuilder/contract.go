package respbuilder

import (
	"net/http"

	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
)

// Reason is the stable, client facing meaning of an error kind.
type Reason struct {
	Code    string
	Message string
	Status  int
}

var reasonMap = map[apperr.Kind]Reason{
	apperr.KindInternal:      {Code: "01", Message: "internal error", Status: http.StatusInternalServerError},
	apperr.KindBadRequest:    {Code: "02", Message: "bad request", Status: http.StatusBadRequest},
	apperr.KindAlreadyExists: {Code: "03", Message: "already exists", Status: http.StatusConflict},
	apperr.KindNotFound:      {Code: "04", Message: "resource not found", Status: http.StatusNotFound},
	apperr.KindUnauthorized:  {Code: "05", Message: "unauthorized", Status: http.StatusUnauthorized},
	apperr.KindUnprocessable: {Code: "06", Message: "unprocessable entity", Status: http.StatusUnprocessableEntity},
}

// ReasonOf return the Reason of kind, unknown kinds are internal.
func ReasonOf(kind apperr.Kind) Reason {
	reason, ok := reasonMap[kind]
	if !ok {
		return reasonMap[apperr.KindInternal]
	}

	return reason
}

// ErrorEntity contain code, message, debug (*if applicable) and trace id.
type ErrorEntity struct {
	Code    string `json:"error_code"`
	Kind    string `json:"error_kind"`
	Message string `json:"error_description"`
	Debug   string `json:"debug,omitempty"`
	TraceID string `json:"trace_id"`
}

// HTTPError follow Facebook error response object:
// https://developers.facebook.com/docs/graph-api/using-graph-api/error-handling/
type HTTPError struct {
	Err ErrorEntity `json:"error"`
}

func (e HTTPError) Error() string {
	return e.Err.Message + ": " + e.Err.Debug
}

// HTTPSuccess success response always wrap in data key.
type HTTPSuccess struct {
	TraceID string      `json:"trace_id"`
	Data    interface{} `json:"data"`
}
