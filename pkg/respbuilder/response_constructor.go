package respbuilder

import (
	"context"

	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
)

// Error build the response of err and its http status.
// Domain errors carry their own message. Anything else is opaque to the caller and only
// identified by the trace id, unless debug is set.
func Error(ctx context.Context, err error, debug bool) (int, HTTPError) {
	stuff := MustExtract(ctx)

	kind := apperr.KindOf(err)
	reason := ReasonOf(kind)

	entity := ErrorEntity{
		Code:    reason.Code,
		Kind:    string(kind),
		Message: reason.Message,
		TraceID: stuff.AppTraceID,
	}

	if kind == "" {
		entity.Kind = string(apperr.KindInternal)
	}

	if msg := apperr.Message(err); msg != "" {
		entity.Message = msg
	}

	if debug && err != nil {
		entity.Debug = err.Error()
	}

	return reason.Status, HTTPError{Err: entity}
}

func Success(ctx context.Context, data interface{}) HTTPSuccess {
	stuff := MustExtract(ctx)

	return HTTPSuccess{
		TraceID: stuff.AppTraceID,
		Data:    data,
	}
}
