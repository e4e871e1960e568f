package restapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/segmentio/encoding/json"
	"github.com/stevelaver/developer-portal-sub000/internal/identity"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/accessctl"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/appsvc"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/iconsvc"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/vendorrepo"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/vendorsvc"
	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
	"github.com/stevelaver/developer-portal-sub000/transport/restapi"
	"github.com/stevelaver/developer-portal-sub000/transport/restapi/apidoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubApps struct {
	appsvc.Service
}

type stubVendors struct {
	vendorsvc.Service
}

func (stubVendors) ListVendors(_ context.Context, in vendorsvc.InputListVendors) (vendorsvc.OutListVendors, error) {
	if !in.Caller.IsAdmin {
		return vendorsvc.OutListVendors{}, apperr.Unauthorized("admin only")
	}

	return vendorsvc.OutListVendors{
		Total:   1,
		Limit:   100,
		Vendors: []vendorrepo.Vendor{{ID: "acme", Name: "Acme"}},
	}, nil
}

type stubIcons struct {
	events int
}

func (s *stubIcons) UploadLink(context.Context, iconsvc.InputUploadLink) (iconsvc.OutUploadLink, error) {
	return iconsvc.OutUploadLink{}, apperr.ErrNotFound
}

func (s *stubIcons) HandleEvent(context.Context, iconsvc.InputHandleEvent) (iconsvc.OutHandleEvent, error) {
	s.events++
	return iconsvc.OutHandleEvent{Handled: true, AppID: "acme.weather", Version: 2}, nil
}

func newTransport(t *testing.T, icons *stubIcons) http.Handler {
	t.Helper()

	users := identity.NewStatic(map[string]accessctl.Caller{
		"admin-token": {Email: "admin@portal.test", IsAdmin: true},
		"dev-token":   {Email: "dev@acme.test", Vendors: []string{"acme"}},
	})

	transport, err := restapi.NewHTTPTransport(restapi.Config{
		AppServiceName: "devportal",
		AppVersion:     "test",
		Identity:       users,
		AppService:     stubApps{},
		VendorService:  stubVendors{},
		IconService:    icons,
		IconHookToken:  "hook-secret",
	})
	require.NoError(t, err)

	return transport.Server()
}

func serve(h http.Handler, method, target string, header map[string]string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error struct {
			Code string `json:"error_code"`
		} `json:"error"`
	}

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestNewHTTPTransport_InvalidConfig(t *testing.T) {
	transport, err := restapi.NewHTTPTransport(restapi.Config{})
	assert.Error(t, err)
	assert.Nil(t, transport)
}

func TestRouter_Health(t *testing.T) {
	h := newTransport(t, &stubIcons{})

	rec := serve(h, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_DocsIndex(t *testing.T) {
	h := newTransport(t, &stubIcons{})

	rec := serve(h, http.MethodGet, "/docs/", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/docs/openapi.json")
}

func TestRouter_EveryDocumentedRouteIsMounted(t *testing.T) {
	h := newTransport(t, &stubIcons{})

	mux, ok := h.(chi.Routes)
	require.True(t, ok)

	mounted := map[string]bool{}
	err := chi.Walk(mux, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if len(route) > 1 {
			route = strings.TrimSuffix(route, "/")
		}

		mounted[method+" "+route] = true
		return nil
	})
	require.NoError(t, err)

	for _, r := range apidoc.Routes() {
		assert.True(t, mounted[r.Method+" "+r.Path], "route %s %s is documented but not mounted", r.Method, r.Path)
	}
}

func TestRouter_BearerAuth(t *testing.T) {
	h := newTransport(t, &stubIcons{})

	t.Run("missing token", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/v1/admin/vendors", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "05", errorCode(t, rec))
	})

	t.Run("unknown token", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/v1/admin/vendors", map[string]string{"Authorization": "Bearer nope"}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("not admin", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/v1/admin/vendors", map[string]string{"Authorization": "Bearer dev-token"}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("admin", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/v1/admin/vendors?limit=10", map[string]string{"Authorization": "bearer admin-token"}, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			TraceID string `json:"trace_id"`
			Data    struct {
				Total   int64 `json:"total"`
				Vendors []struct {
					ID string `json:"id"`
				} `json:"vendors"`
			} `json:"data"`
		}

		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body.TraceID)
		assert.Equal(t, body.TraceID, rec.Header().Get("Tracer-ID"))
		assert.EqualValues(t, 1, body.Data.Total)
		require.Len(t, body.Data.Vendors, 1)
		assert.Equal(t, "acme", body.Data.Vendors[0].ID)
	})
}

func TestRouter_StorageHook(t *testing.T) {
	icons := &stubIcons{}
	h := newTransport(t, icons)

	t.Run("wrong token", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/v1/hooks/storage", map[string]string{restapi.HeaderHookToken: "guess"}, `{}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, 0, icons.events)
	})

	t.Run("valid token", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/v1/hooks/storage", map[string]string{restapi.HeaderHookToken: "hook-secret"}, `{}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, icons.events)
		assert.Contains(t, rec.Body.String(), `"appId":"acme.weather"`)
	})
}

func TestBearerTokenOnly(t *testing.T) {
	h := newTransport(t, &stubIcons{})

	rec := serve(h, http.MethodGet, "/v1/admin/vendors", map[string]string{"Authorization": "Basic admin-token"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
