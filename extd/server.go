package extd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/satori/uuid"
	"github.com/stevelaver/developer-portal-sub000/assets"
	"github.com/stevelaver/developer-portal-sub000/container"
	"github.com/stevelaver/developer-portal-sub000/pkg/tracer"
	"github.com/stevelaver/developer-portal-sub000/transport/restapi"
	"github.com/yusufsyaifudin/ylog"
	jaegerPropagator "go.opentelemetry.io/contrib/propagators/jaeger"
	"go.opentelemetry.io/contrib/propagators/ot"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const shutdownTimeout = 10 * time.Second

// RunServer located in extd (extended) so other binaries can start the same server with their own config source.
func RunServer(ctx context.Context, cfg container.Config, appVersion string) (err error) {
	if ctx == nil {
		ctx = context.TODO()
	}

	ctx = SetupLog(ctx)

	if !cfg.Tracer.Disable {
		shutdownTracer, _err := tracer.InitTraceProvider(tracer.ProviderConfig{
			ServiceName:    assets.ServiceName,
			Environment:    cfg.Tracer.Environment,
			JaegerEndpoint: cfg.Tracer.JaegerEndpoint,
		})
		if _err != nil {
			err = _err
			ylog.Error(ctx, "cannot setup trace provider", ylog.KV("error", err))
			return
		}

		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if _err := shutdownTracer(flushCtx); _err != nil {
				ylog.Error(ctx, "tracer shutdown: failed", ylog.KV("error", _err))
			}
		}()
	}

	// register ot propagator
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		&ot.OT{},
		&jaegerPropagator.Jaeger{},
		propagation.TraceContext{},
	))

	// ** setup repositories and services
	ylog.Info(ctx, "container preparation: starting")
	dependencies, err := container.Setup(ctx, cfg)
	if err != nil {
		ylog.Error(ctx, "container preparation: failed", ylog.KV("error", err))
		return
	}

	defer func() {
		ylog.Info(ctx, "closing container: starting")
		if _err := dependencies.Close(); _err != nil {
			ylog.Error(ctx, "closing container: failed", ylog.KV("error", _err))
			return
		}

		ylog.Info(ctx, "closing container: done")
	}()

	ylog.Info(ctx, "container preparation: done")

	// ** HTTP TRANSPORT
	ylog.Info(ctx, "http transport: starting")
	server, err := restapi.NewHTTPTransport(restapi.Config{
		AppServiceName: assets.ServiceName,
		AppVersion:     appVersion,
		Identity:       dependencies.Services.Identity(),
		AppService:     dependencies.Services.App(),
		VendorService:  dependencies.Services.Vendor(),
		IconService:    dependencies.Services.Icon(),
		DebugError:     cfg.Transport.HTTP.DebugError,
		IconHookToken:  cfg.Transport.HTTP.IconHookToken,
	})
	if err != nil {
		ylog.Error(ctx, "http transport: failed", ylog.KV("error", err))
		return
	}

	if cfg.Transport.HTTP.IconHookToken == "" {
		ylog.Info(ctx, "http transport: iconHookToken is empty, storage notifications will be rejected")
	}

	h2s := &http2.Server{}
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Transport.HTTP.Port),
		Handler:           h2c.NewHandler(server.Server(), h2s), // HTTP/2 Cleartext handler
		ReadHeaderTimeout: 10 * time.Second,
	}

	var apiErrChan = make(chan error, 1)
	go func() {
		ylog.Info(ctx, fmt.Sprintf("http transport: done running on port %d", cfg.Transport.HTTP.Port))
		apiErrChan <- httpServer.ListenAndServe()
	}()

	ylog.Info(ctx, "system: up and running...")

	// ** listen for sigterm signal
	var signalChan = make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-signalChan:
		ylog.Info(ctx, "system: exiting...")
		ylog.Info(ctx, "http transport: exiting...")

		stopCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		if _err := httpServer.Shutdown(stopCtx); _err != nil {
			ylog.Error(ctx, "http transport: ", ylog.KV("error", _err))
		}

	case _err := <-apiErrChan:
		if _err != nil && !errors.Is(_err, http.ErrServerClosed) {
			err = _err
			ylog.Error(ctx, "http transport: error", ylog.KV("error", err))
		}
	}

	return
}

// SetupLog set the global zap backed logger and return ctx tagged as a system process.
func SetupLog(ctx context.Context) context.Context {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:        "ts",
			MessageKey:     "msg",
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
			LineEnding:     zapcore.DefaultLineEnding,
			LevelKey:       "level",
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
		}),
		zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), // pipe to multiple writer
		zapcore.DebugLevel,
	)

	zapLog := zap.New(core)

	propagateData := tracer.LogData{
		RemoteAddr: "system",
		TraceID:    uuid.NewV4().String(),
	}

	traceLog, err := ylog.NewTracer(propagateData, ylog.WithTag("tracer"))
	if err != nil {
		log.Fatalf("error prepare tracer system data: %s", err)
		return ctx
	}

	// inject context
	ctx = ylog.Inject(ctx, traceLog)

	// ** set global logger
	ylog.SetGlobalLogger(ylog.NewZap(zapLog))

	return ctx
}
