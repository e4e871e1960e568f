package restapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/stevelaver/developer-portal-sub000/internal/identity"
	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
	"github.com/stevelaver/developer-portal-sub000/pkg/respbuilder"
	"github.com/stevelaver/developer-portal-sub000/pkg/tracer"
	"github.com/stevelaver/developer-portal-sub000/transport/restapi/httptyped"
	"github.com/yusufsyaifudin/ylog"
)

// HeaderHookToken authenticates storage notifications.
const HeaderHookToken = "X-Hook-Token"

// bearerAuth resolve the caller of every request through the identity provider.
func bearerAuth(provider identity.Provider, debugError bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				respbuilder.WriteError(w, r, apperr.Unauthorized("missing bearer token"), debugError)
				return
			}

			caller, err := provider.Identify(r.Context(), token)
			if err != nil {
				respbuilder.WriteError(w, r, err, debugError)
				return
			}

			ctx := httptyped.InjectCaller(r.Context(), caller)

			// re-tag every following log line of this request with the caller
			resp := respbuilder.MustExtract(ctx)
			logTrace, err := ylog.NewTracer(tracer.LogData{
				RemoteAddr: resp.RemoteAddr,
				TraceID:    resp.AppTraceID,
				Caller:     caller.Email,
			}, ylog.WithTag("tracer"))
			if err == nil {
				ctx = ylog.Inject(ctx, logTrace)
			}

			ylog.Debug(ctx, "caller identified", ylog.KV("email", caller.Email), ylog.KV("admin", caller.IsAdmin))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// hookToken compare the shared secret in constant time. An empty secret rejects everything.
func hookToken(secret string, debugError bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(HeaderHookToken)
			if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				respbuilder.WriteError(w, r, apperr.Unauthorized("invalid hook token"), debugError)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}

	return strings.TrimSpace(header[len(prefix):])
}
