package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/accessctl"
	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
	"github.com/stevelaver/developer-portal-sub000/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type identityServer struct {
	meCalls     int32
	memberships map[string]string
}

func (s *identityServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"service-token","token_type":"Bearer","expires_in":3600}`))
	})

	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.meCalls, 1)
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		_ = json.NewEncoder(w).Encode(accessctl.Caller{Email: "dev@v1.com", Name: "Dev", Vendors: []string{"v1"}})
	})

	mux.HandleFunc("/users/dev@v1.com/vendors", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer service-token" {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		s.memberships["dev@v1.com"] = body["vendor"]
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func newHTTPProvider(t *testing.T) (*HTTPProvider, *identityServer) {
	srv := &identityServer{memberships: map[string]string{}}
	ts := httptest.NewServer(srv.handler(t))
	t.Cleanup(ts.Close)

	mem, err := cache.NewInMemory(1 << 20)
	require.NoError(t, err)

	p, err := NewHTTP(HTTPConfig{
		BaseURL:      ts.URL,
		ClientID:     "portal",
		ClientSecret: "secret",
		TokenURL:     ts.URL + "/token",
		Cache:        mem,
		CacheTTL:     time.Minute,
	})
	require.NoError(t, err)
	return p, srv
}

func TestHTTPProvider_Identify(t *testing.T) {
	p, srv := newHTTPProvider(t)
	ctx := context.Background()

	caller, err := p.Identify(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "dev@v1.com", caller.Email)
	assert.Equal(t, []string{"v1"}, caller.Vendors)

	_, err = p.Identify(ctx, "good")
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&srv.meCalls), "second call is served from cache")

	_, err = p.Identify(ctx, "bad")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = p.Identify(ctx, " ")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestHTTPProvider_AddVendorMembership(t *testing.T) {
	p, srv := newHTTPProvider(t)

	require.NoError(t, p.AddVendorMembership(context.Background(), "dev@v1.com", "v2"))
	assert.Equal(t, "v2", srv.memberships["dev@v1.com"])

	assert.Error(t, p.AddVendorMembership(context.Background(), "nobody@v1.com", "v2"))
}

func TestStaticProvider(t *testing.T) {
	p := NewStatic(map[string]accessctl.Caller{
		"t1": {Email: "dev@v1.com", Vendors: []string{"v1"}},
	})

	ctx := context.Background()
	c, err := p.Identify(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, c.Vendors)

	_, err = p.Identify(ctx, "unknown")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	require.NoError(t, p.AddVendorMembership(ctx, "dev@v1.com", "v2"))
	c, err = p.Identify(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, c.Vendors)

	assert.ErrorIs(t, p.AddVendorMembership(ctx, "nobody@v1.com", "v2"), apperr.ErrNotFound)
}
