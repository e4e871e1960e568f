package restapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/satori/uuid"
	"github.com/segmentio/encoding/json"
	"github.com/stevelaver/developer-portal-sub000/pkg/httpclient"
	"github.com/stevelaver/developer-portal-sub000/pkg/respbuilder"
	"github.com/stevelaver/developer-portal-sub000/pkg/tracer"
	"github.com/yusufsyaifudin/ylog"
	"go.uber.org/multierr"
)

// requestTimeout bounds every request, a store transaction running past it is rolled back.
const requestTimeout = 30 * time.Second

func requestLogger(skipFunc func(r *http.Request) bool, next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if skipFunc(r) {
			next.ServeHTTP(w, r)
			return
		}

		var globalErr error
		t1 := time.Now().UTC()
		ctx := r.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		traceID := uuid.NewV4().String()

		propagateData := tracer.LogData{
			RemoteAddr: r.RemoteAddr,
			TraceID:    traceID,
		}

		logTraceData, err := ylog.NewTracer(propagateData, ylog.WithTag("tracer"))
		if err != nil {
			// this should never happen, but once it happens, we need to log in the response
			globalErr = multierr.Append(globalErr, fmt.Errorf("error prepare log tracer data: %w", err))
		}

		responseTracer := respbuilder.Tracer{
			RemoteAddr: r.RemoteAddr,
			AppTraceID: traceID,
		}

		// Inject logger and response tracer at same time
		if logTraceData != nil {
			ctx = ylog.Inject(ctx, logTraceData)
		}

		ctx = respbuilder.Inject(ctx, responseTracer)
		r = r.WithContext(ctx)

		var reqBody []byte
		if r.Body != nil {
			reqBody, err = io.ReadAll(r.Body)
			if err != nil {
				globalErr = multierr.Append(globalErr, fmt.Errorf("error read request body: %w", err))
			}

			if _err := r.Body.Close(); _err != nil {
				globalErr = multierr.Append(globalErr, fmt.Errorf("cannot close request body: %w", _err))
			}

			r.Body = io.NopCloser(bytes.NewReader(reqBody))
		}

		reqBodyStr, reqBodyObj := bodyForLog(reqBody)

		// continue serve, and record the response
		rec := httptest.NewRecorder()
		next.ServeHTTP(rec, r)

		respBody := rec.Body.Bytes()
		respBodyStr, respBodyObj := bodyForLog(respBody)

		for k, v := range rec.Header() {
			w.Header()[k] = v
		}

		w.WriteHeader(rec.Code)
		_, err = bytes.NewReader(respBody).WriteTo(w)
		if err != nil {
			globalErr = multierr.Append(globalErr, fmt.Errorf("error write response body: %w", err))
		}

		errStr := ""
		if globalErr != nil {
			errStr = globalErr.Error()
		}

		// log request
		ylog.Access(ctx, ylog.AccessLogData{
			Path: r.Method + " " + r.RequestURI,
			Request: ylog.HTTPData{
				Header:     httpclient.SimpleHeader(r.Header),
				DataObject: reqBodyObj,
				DataString: reqBodyStr,
			},
			Response: ylog.HTTPData{
				Header:     httpclient.SimpleHeader(rec.Header()),
				DataObject: respBodyObj,
				DataString: respBodyStr,
			},
			Error:       errStr,
			ElapsedTime: time.Since(t1).Milliseconds(),
		})
	}
}

// bodyForLog return the body as object when it is json, as string otherwise.
func bodyForLog(body []byte) (str string, obj interface{}) {
	if len(body) == 0 {
		return "", nil
	}

	if err := json.Unmarshal(body, &obj); err != nil {
		return string(body), nil
	}

	return "", obj
}
