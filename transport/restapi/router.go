package restapi

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/stevelaver/developer-portal-sub000/assets"
	"github.com/stevelaver/developer-portal-sub000/internal/identity"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/appsvc"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/iconsvc"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/vendorsvc"
	"github.com/stevelaver/developer-portal-sub000/pkg/respbuilder"
	"github.com/stevelaver/developer-portal-sub000/pkg/tracer"
	"github.com/stevelaver/developer-portal-sub000/pkg/validator"
	"github.com/stevelaver/developer-portal-sub000/transport/restapi/apidoc"
	"github.com/stevelaver/developer-portal-sub000/transport/restapi/handlerapp"
	"github.com/stevelaver/developer-portal-sub000/transport/restapi/handlericon"
	"github.com/stevelaver/developer-portal-sub000/transport/restapi/handlervendor"
	"go.opentelemetry.io/otel"
)

type Config struct {
	AppServiceName string            `validate:"required"`
	AppVersion     string            `validate:"required"`
	Identity       identity.Provider `validate:"required"`
	AppService     appsvc.Service    `validate:"required"`
	VendorService  vendorsvc.Service `validate:"required"`
	IconService    iconsvc.Service   `validate:"required"`

	// DebugError expose the internal error text in responses. Never enable it in production.
	DebugError bool `validate:"-"`

	// IconHookToken is the shared secret of the storage hook, empty rejects every call.
	IconHookToken string `validate:"-"`
}

type DefaultHTTP struct {
	router *chi.Mux
}

func NewHTTPTransport(cfg Config) (*DefaultHTTP, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("http transport cfg error: %w", err)
	}

	// ** Application handler
	handlerApp, err := handlerapp.NewHandler(handlerapp.HandlerConfig{
		AppService: cfg.AppService,
		DebugError: cfg.DebugError,
	})
	if err != nil {
		return nil, err
	}

	// ** Vendor handler
	handlerVendor, err := handlervendor.NewHandler(handlervendor.HandlerConfig{
		VendorService: cfg.VendorService,
		DebugError:    cfg.DebugError,
	})
	if err != nil {
		return nil, err
	}

	// ** Icon handler
	handlerIcon, err := handlericon.NewHandler(handlericon.HandlerConfig{
		IconService: cfg.IconService,
		DebugError:  cfg.DebugError,
	})
	if err != nil {
		return nil, err
	}

	docIndex, err := fs.ReadFile(assets.SwaggerUI, "swaggerui/index.html")
	if err != nil {
		return nil, fmt.Errorf("read swagger ui: %w", err)
	}

	router := chi.NewRouter()

	skip := func(r *http.Request) bool {
		p := strings.TrimSpace(path.Clean(r.URL.Path))
		return p == "/health" || p == "/ping" || strings.HasPrefix(p, "/docs")
	}

	router.Use(middleware.StripSlashes)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", HeaderHookToken},
		ExposedHeaders:   []string{"Link", "Tracer-ID"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	router.Use(func(next http.Handler) http.Handler {
		return tracer.Middleware(tracer.MiddlewareConfig{
			TracerName:     "github.com/stevelaver/developer-portal-sub000",
			ServiceName:    assets.ServiceName,
			SkipFunc:       skip,
			TracerProvider: otel.GetTracerProvider(),    // global tracer provider
			TextPropagator: otel.GetTextMapPropagator(), // use global text map propagator
		}, next)
	})

	// add trace id and also log request response
	router.Use(func(next http.Handler) http.Handler {
		return requestLogger(skip, next)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(docIndex)
	})

	router.Get("/docs/openapi.json", openAPIHandler(cfg))

	// Resource: public catalogue, no authentication
	router.Route("/v1/public/apps", func(r chi.Router) {
		r.Get("/", handlerApp.PublicListApps())
		r.Get("/{app}", handlerApp.PublicGetApp())
	})

	// Resource: storage notifications
	router.With(hookToken(cfg.IconHookToken, cfg.DebugError)).Post("/v1/hooks/storage", handlerIcon.StorageHook())

	// Resource: vendors and their apps
	router.Route("/v1/vendors", func(r chi.Router) {
		r.Use(bearerAuth(cfg.Identity, cfg.DebugError))

		r.Post("/", handlerVendor.CreateVendor())
		r.Route("/{vendor}", func(r chi.Router) {
			r.Get("/", handlerVendor.GetVendor())
			r.Post("/join-request", handlerVendor.RequestJoin())
			r.Post("/invitations", handlerVendor.Invite())
			r.Post("/invitations/{code}", handlerVendor.AcceptInvitation())

			r.Post("/apps", handlerApp.CreateApp())
			r.Get("/apps", handlerApp.ListApps())
			r.Route("/apps/{app}", func(r chi.Router) {
				r.Get("/", handlerApp.GetApp())
				r.Patch("/", handlerApp.UpdateApp())
				r.Delete("/", handlerApp.DeleteApp())
				r.Get("/versions", handlerApp.ListVersions())
				r.Get("/versions/{version}", handlerApp.GetVersion())
				r.Post("/versions/{version}/rollback", handlerApp.Rollback())
				r.Post("/publish-request", handlerApp.RequestPublish())
				r.Post("/deprecate", handlerApp.Deprecate())
				r.Post("/icon", handlerIcon.UploadLink())
			})
		})
	})

	// Resource: administration, the services check the admin flag
	router.Route("/v1/admin", func(r chi.Router) {
		r.Use(bearerAuth(cfg.Identity, cfg.DebugError))

		r.Get("/apps", handlerApp.AdminListApps())
		r.Post("/apps/{app}/approve", handlerApp.Approve())
		r.Get("/vendors", handlerVendor.ListVendors())
		r.Post("/vendors/{vendor}/approve", handlerVendor.ApproveVendor())
	})

	instance := &DefaultHTTP{
		router: router,
	}

	return instance, nil
}

// Server .
func (a *DefaultHTTP) Server() http.Handler {
	return a.router
}

// openAPIHandler build the document on first request and serve the same bytes afterwards.
func openAPIHandler(cfg Config) http.HandlerFunc {
	var (
		once    sync.Once
		docJSON []byte
		docErr  error
	)

	return func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			doc, err := apidoc.Build(context.Background(), apidoc.Config{
				Title:   cfg.AppServiceName,
				Version: cfg.AppVersion,
			})
			if err != nil {
				docErr = fmt.Errorf("build api doc: %w", err)
				return
			}

			docJSON, docErr = doc.MarshalJSON()
		})

		if docErr != nil {
			respbuilder.WriteError(w, r, docErr, cfg.DebugError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(docJSON)
	}
}
