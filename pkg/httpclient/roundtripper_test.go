package httpclient

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripper_keepsBodies(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_, _ = w.Write(append([]byte("echo:"), b...))
	}))
	defer ts.Close()

	client := New(time.Second)
	resp, err := client.Post(ts.URL, "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "echo:hello", string(b))
}

func TestRoundTripper_unreachable(t *testing.T) {
	client := New(time.Second)
	_, err := client.Get("http://127.0.0.1:1")
	assert.Error(t, err)
}

func TestSimpleHeader_redacts(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer secret")
	h.Set("X-Hook-Token", "secret")
	h.Add("Accept", "a")
	h.Add("Accept", "b")

	m := SimpleHeader(h)
	assert.Equal(t, "[redacted]", m["Authorization"])
	assert.Equal(t, "[redacted]", m["X-Hook-Token"])
	assert.Equal(t, "a b", m["Accept"])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate([]byte("abc")))
	long := truncate([]byte(strings.Repeat("x", maxLoggedBody+10)))
	assert.True(t, strings.HasSuffix(long, "...[truncated]"))
}
