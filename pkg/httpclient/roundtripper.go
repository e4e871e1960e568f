package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yusufsyaifudin/ylog"
	"go.uber.org/multierr"
)

// maxLoggedBody caps how much of each body lands in the access log.
const maxLoggedBody = 4 << 10

var redactedHeaders = map[string]struct{}{
	"Authorization": {},
	"Cookie":        {},
	"Set-Cookie":    {},
	"X-Hook-Token":  {},
}

// RoundTripper log every outgoing request and its response with ylog.Access.
type RoundTripper struct {
	Base http.RoundTripper
}

var _ http.RoundTripper = (*RoundTripper)(nil)

// New return http.Client logging through RoundTripper on top of http.DefaultTransport.
func New(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &RoundTripper{Base: http.DefaultTransport},
		Timeout:   timeout,
	}
}

func (r *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	t0 := time.Now()

	var (
		ctx  = req.Context() // request context
		resp *http.Response  // final response
		err  error           // final error
	)

	base := r.Base
	if base == nil {
		base = http.DefaultTransport
	}

	var reqBody []byte
	if req.Body != nil && req.Body != http.NoBody {
		var reqBodyErr error
		reqBody, reqBodyErr = io.ReadAll(req.Body)
		if reqBodyErr != nil {
			return nil, fmt.Errorf("error read request body: %w", reqBodyErr)
		}

		_ = req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(reqBody))
	}

	resp, err = base.RoundTrip(req)
	if err != nil {
		err = fmt.Errorf("error doing actual request: %w", err)
	}

	var (
		respBody   []byte
		respHeader http.Header
	)
	if resp != nil {
		respHeader = resp.Header
		if resp.Body != nil {
			var respErrBody error
			respBody, respErrBody = io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if respErrBody != nil {
				err = multierr.Append(err, fmt.Errorf("error read response body: %w", respErrBody))
			}

			resp.Body = io.NopCloser(bytes.NewReader(respBody))
		}
	}

	errStr := ""
	if err != nil {
		errStr = err.Error()
	}

	// log outgoing request
	ylog.Access(ctx, ylog.AccessLogData{
		Path: req.Method + " " + req.URL.String(),
		Request: ylog.HTTPData{
			Header:     SimpleHeader(req.Header),
			DataString: truncate(reqBody),
		},
		Response: ylog.HTTPData{
			Header:     SimpleHeader(respHeader),
			DataString: truncate(respBody),
		},
		Error:       errStr,
		ElapsedTime: time.Since(t0).Milliseconds(),
	})

	return resp, err
}

// SimpleHeader flatten h for logging, secrets are redacted.
func SimpleHeader(h http.Header) map[string]string {
	out := map[string]string{}
	for k, v := range h {
		if _, secret := redactedHeaders[http.CanonicalHeaderKey(k)]; secret {
			out[k] = "[redacted]"
			continue
		}

		out[k] = strings.Join(v, " ")
	}

	return out
}

func truncate(b []byte) string {
	if len(b) > maxLoggedBody {
		return string(b[:maxLoggedBody]) + "...[truncated]"
	}

	return string(b)
}
