package httptyped

import (
	"context"

	"github.com/stevelaver/developer-portal-sub000/internal/svc/accessctl"
)

type callerCtxKey struct{}

// InjectCaller store the authenticated caller of the request.
func InjectCaller(ctx context.Context, caller accessctl.Caller) context.Context {
	return context.WithValue(ctx, callerCtxKey{}, caller)
}

// CallerFrom return the authenticated caller, false on routes without authentication.
func CallerFrom(ctx context.Context) (accessctl.Caller, bool) {
	caller, ok := ctx.Value(callerCtxKey{}).(accessctl.Caller)
	return caller, ok
}
