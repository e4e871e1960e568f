// Package apidoc describes every route of the REST API as an OpenAPI 3 document.
// The same document is served under /docs and written to disk by the apidoc command.
package apidoc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stevelaver/developer-portal-sub000/assets"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/apprepo"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/iconsvc"
	"github.com/stevelaver/developer-portal-sub000/pkg/respbuilder"
	"github.com/stevelaver/developer-portal-sub000/transport/restapi/handlerapp"
	"github.com/stevelaver/developer-portal-sub000/transport/restapi/handlericon"
	"github.com/stevelaver/developer-portal-sub000/transport/restapi/handlervendor"
	"github.com/stevelaver/developer-portal-sub000/transport/restapi/httptyped"
	"github.com/yusufsyaifudin/openapidoc/schema"
)

const (
	securityBearer = "bearer"
	securityHook   = "hookToken"
)

type Config struct {
	Title      string
	Version    string
	ServerURL  string
	SchemaLogs io.Writer
}

// Route is one documented endpoint.
type Route struct {
	Method      string
	Path        string
	Tag         string
	OperationID string
	Summary     string
	Security    string
	Query       []string
	Request     interface{}
	Status      int
	Response    interface{}
}

// Build generate the document for all Routes.
func Build(ctx context.Context, cfg Config) (*openapi3.T, error) {
	if cfg.Title == "" {
		cfg.Title = assets.ServiceName
	}

	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}

	if cfg.SchemaLogs == nil {
		cfg.SchemaLogs = io.Discard
	}

	components := openapi3.Components{
		Schemas:       map[string]*openapi3.SchemaRef{},
		RequestBodies: map[string]*openapi3.RequestBodyRef{},
		SecuritySchemes: map[string]*openapi3.SecuritySchemeRef{
			securityBearer: {Value: openapi3.NewJWTSecurityScheme()},
			securityHook: {Value: openapi3.NewSecurityScheme().
				WithType("apiKey").
				WithIn("header").
				WithName("X-Hook-Token")},
		},
	}

	paths := make(map[string]*openapi3.PathItem)
	for _, route := range Routes() {
		if err := addRoute(ctx, cfg, components, paths, route); err != nil {
			return nil, fmt.Errorf("route %s %s: %w", route.Method, route.Path, err)
		}
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.0",
		Info: &openapi3.Info{
			Title:       cfg.Title,
			Description: "Registry of vendor applications with versioned history and an approval workflow.",
			Version:     cfg.Version,
		},
		Components: components,
		Paths:      paths,
	}

	if cfg.ServerURL != "" {
		doc.Servers = openapi3.Servers{{URL: cfg.ServerURL}}
	}

	return doc, nil
}

func addRoute(ctx context.Context, cfg Config, components openapi3.Components, paths map[string]*openapi3.PathItem, route Route) error {
	op := openapi3.NewOperation()
	op.Tags = []string{route.Tag}
	op.Summary = route.Summary
	op.OperationID = route.OperationID

	for _, name := range pathParams(route.Path) {
		op.AddParameter(openapi3.NewPathParameter(name).WithSchema(openapi3.NewStringSchema()))
	}

	for _, name := range route.Query {
		op.AddParameter(openapi3.NewQueryParameter(name).WithSchema(openapi3.NewStringSchema()))
	}

	if route.Security != "" {
		op.Security = openapi3.NewSecurityRequirements().With(openapi3.NewSecurityRequirement().Authenticate(route.Security))
	}

	if route.Request != nil {
		outReq, err := generate(ctx, cfg, route.OperationID+".", route.Request)
		if err != nil {
			return err
		}

		for s, ref := range outReq.Schemas {
			components.Schemas[s] = ref
		}

		reqBody := openapi3.NewRequestBody().WithJSONSchemaRef(&openapi3.SchemaRef{
			Ref: fmt.Sprintf("#/components/schemas/%s", outReq.ParentSchemaName),
		})
		components.RequestBodies[route.OperationID] = &openapi3.RequestBodyRef{Value: reqBody}
		op.RequestBody = &openapi3.RequestBodyRef{
			Ref: fmt.Sprintf("#/components/requestBodies/%s", route.OperationID),
		}
	}

	// every response is wrapped the same way as respbuilder writes it
	outResp, err := generate(ctx, cfg, fmt.Sprintf("%s.Resp%d.", route.OperationID, route.Status),
		respbuilder.Success(ctx, route.Response))
	if err != nil {
		return err
	}

	for s, ref := range outResp.Schemas {
		components.Schemas[s] = ref
	}

	op.AddResponse(route.Status, openapi3.NewResponse().WithJSONSchemaRef(&openapi3.SchemaRef{
		Ref: fmt.Sprintf("#/components/schemas/%s", outResp.ParentSchemaName),
	}).WithDescription(http.StatusText(route.Status)))

	outErr, err := generate(ctx, cfg, route.OperationID+".Error.", respbuilder.HTTPError{})
	if err != nil {
		return err
	}

	for s, ref := range outErr.Schemas {
		components.Schemas[s] = ref
	}

	op.Responses["default"] = &openapi3.ResponseRef{
		Value: openapi3.NewResponse().WithJSONSchemaRef(&openapi3.SchemaRef{
			Ref: fmt.Sprintf("#/components/schemas/%s", outErr.ParentSchemaName),
		}).WithDescription("error"),
	}

	item, exist := paths[route.Path]
	if !exist {
		item = &openapi3.PathItem{}
		paths[route.Path] = item
	}

	item.SetOperation(route.Method, op)
	return nil
}

func generate(ctx context.Context, cfg Config, prefix string, value interface{}) (out schema.GenerateOut, err error) {
	g, err := schema.NewGenerator(schema.WithLog(cfg.SchemaLogs), schema.WithSchemaPrefix(prefix))
	if err != nil {
		err = fmt.Errorf("schema generator: %w", err)
		return
	}

	out, err = g.Generate(ctx, value)
	if err != nil {
		err = fmt.Errorf("generate schema %s: %w", prefix, err)
		return
	}

	return
}

// pathParams return the chi style {name} segments of p in order.
func pathParams(p string) []string {
	params := make([]string, 0)
	for _, seg := range strings.Split(p, "/") {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			params = append(params, strings.TrimSuffix(strings.TrimPrefix(seg, "{"), "}"))
		}
	}

	return params
}

// Routes list every endpoint mounted by the REST transport, sorted by path then method.
func Routes() []Route {
	now := time.Date(2022, 10, 1, 0, 0, 0, 0, time.UTC)
	name, appType := "Weather extractor", "extractor"

	app := httptyped.AppEntity{
		ID:        "acme.weather",
		Vendor:    "acme",
		Version:   1,
		CreatedOn: now,
		CreatedBy: "dev@acme.test",
	}
	app.Name = name
	app.Type = appType

	version := httptyped.AppVersionEntity{
		ID:        app.ID,
		Version:   1,
		CreatedOn: now,
		CreatedBy: app.CreatedBy,
	}
	version.Name = name
	version.Type = appType

	page := httptyped.Page{Total: 1, Offset: 0, Limit: 100}
	vendor := httptyped.VendorEntity{ID: "acme", Name: "Acme", Email: "dev@acme.test", CreatedOn: now, CreatedBy: "dev@acme.test"}
	invitation := httptyped.InvitationEntity{Vendor: "acme", Email: "new@acme.test", CreatedBy: "dev@acme.test", CreatedOn: now}
	public := httptyped.PublicAppFromSvc(app)
	payload := apprepo.Payload{Name: &name, Type: &appType}

	const (
		vendorApps = "/v1/vendors/{vendor}/apps"
		vendorApp  = "/v1/vendors/{vendor}/apps/{app}"
	)

	routes := []Route{
		{http.MethodGet, "/v1/public/apps", "Public", "PublicListApps", "List public apps", "", []string{"offset", "limit"}, nil,
			http.StatusOK, handlerapp.PublicListAppsResp{Page: page, Apps: []httptyped.PublicAppEntity{public}}},
		{http.MethodGet, "/v1/public/apps/{app}", "Public", "PublicGetApp", "Get a public app", "", nil, nil,
			http.StatusOK, handlerapp.PublicAppResp{App: public}},

		{http.MethodPost, "/v1/vendors", "Vendor", "CreateVendor", "Create a vendor, it waits for admin approval", securityBearer, nil,
			handlervendor.CreateVendorReq{ID: "acme", Name: "Acme", Email: "dev@acme.test"},
			http.StatusCreated, handlervendor.VendorResp{Vendor: vendor}},
		{http.MethodGet, "/v1/vendors/{vendor}", "Vendor", "GetVendor", "Get a vendor", securityBearer, nil, nil,
			http.StatusOK, handlervendor.VendorResp{Vendor: vendor}},
		{http.MethodPost, "/v1/vendors/{vendor}/join-request", "Vendor", "RequestJoin", "Ask the vendor to grant membership", securityBearer, nil, nil,
			http.StatusAccepted, struct{}{}},
		{http.MethodPost, "/v1/vendors/{vendor}/invitations", "Vendor", "Invite", "Invite a user by email", securityBearer, nil,
			handlervendor.InviteReq{Email: "new@acme.test"},
			http.StatusCreated, handlervendor.InvitationResp{Invitation: invitation}},
		{http.MethodPost, "/v1/vendors/{vendor}/invitations/{code}", "Vendor", "AcceptInvitation", "Accept an invitation", securityBearer, nil, nil,
			http.StatusOK, handlervendor.InvitationResp{Invitation: invitation}},

		{http.MethodPost, vendorApps, "App", "CreateApp", "Create an app", securityBearer, nil,
			handlerapp.CreateAppReq{ID: "weather", Payload: payload},
			http.StatusCreated, handlerapp.AppResp{App: app}},
		{http.MethodGet, vendorApps, "App", "ListApps", "List vendor apps", securityBearer, []string{"offset", "limit"}, nil,
			http.StatusOK, handlerapp.ListAppsResp{Page: page, Apps: []httptyped.AppEntity{app}}},
		{http.MethodGet, vendorApp, "App", "GetApp", "Get an app", securityBearer, nil, nil,
			http.StatusOK, handlerapp.AppResp{App: app}},
		{http.MethodPatch, vendorApp, "App", "UpdateApp", "Update an app, every change makes a new version", securityBearer, nil,
			payload, http.StatusOK, handlerapp.AppResp{App: app}},
		{http.MethodDelete, vendorApp, "App", "DeleteApp", "Soft delete an app", securityBearer, nil, nil,
			http.StatusOK, handlerapp.AppResp{App: app}},
		{http.MethodGet, vendorApp + "/versions", "App", "ListVersions", "List app history, newest first", securityBearer, []string{"offset", "limit"}, nil,
			http.StatusOK, handlerapp.ListVersionsResp{Page: page, Versions: []httptyped.AppVersionEntity{version}}},
		{http.MethodGet, vendorApp + "/versions/{version}", "App", "GetVersion", "Get one version snapshot", securityBearer, nil, nil,
			http.StatusOK, handlerapp.VersionResp{Version: version}},
		{http.MethodPost, vendorApp + "/versions/{version}/rollback", "App", "Rollback", "Restore the content of an older version", securityBearer, nil, nil,
			http.StatusOK, handlerapp.AppResp{App: app}},
		{http.MethodPost, vendorApp + "/publish-request", "App", "RequestPublish", "Ask admins to approve the app", securityBearer, nil, nil,
			http.StatusAccepted, handlerapp.AppResp{App: app}},
		{http.MethodPost, vendorApp + "/deprecate", "App", "Deprecate", "Deprecate an app", securityBearer, nil,
			handlerapp.DeprecateReq{ExpiredOn: &now},
			http.StatusOK, handlerapp.AppResp{App: app}},
		{http.MethodPost, vendorApp + "/icon", "App", "UploadLink", "Get a signed upload link for the app icon", securityBearer, nil, nil,
			http.StatusOK, handlericon.UploadLinkResp{Link: "https://storage.test/upload", ContentType: "image/png", ExpiresInSeconds: 900}},

		{http.MethodGet, "/v1/admin/apps", "Admin", "AdminListApps", "List apps of every vendor", securityBearer, []string{"vendor", "offset", "limit"}, nil,
			http.StatusOK, handlerapp.ListAppsResp{Page: page, Apps: []httptyped.AppEntity{app}}},
		{http.MethodPost, "/v1/admin/apps/{app}/approve", "Admin", "ApproveApp", "Approve an app", securityBearer, nil, nil,
			http.StatusOK, handlerapp.AppResp{App: app}},
		{http.MethodGet, "/v1/admin/vendors", "Admin", "ListVendors", "List vendors", securityBearer, []string{"offset", "limit"}, nil,
			http.StatusOK, handlervendor.ListVendorsResp{Page: page, Vendors: []httptyped.VendorEntity{vendor}}},
		{http.MethodPost, "/v1/admin/vendors/{vendor}/approve", "Admin", "ApproveVendor", "Approve a vendor, optionally under a new id", securityBearer, nil,
			handlervendor.ApproveVendorReq{NewID: "acme-corp"},
			http.StatusOK, handlervendor.VendorResp{Vendor: vendor}},

		{http.MethodPost, "/v1/hooks/storage", "Hook", "StorageHook", "Receive object storage notifications", securityHook, nil,
			iconsvc.PushEnvelope{Subscription: "projects/p/subscriptions/icons"},
			http.StatusOK, handlericon.HookResp{Handled: true, AppID: app.ID, Version: 2}},
	}

	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}

		return routes[i].Method < routes[j].Method
	})

	return routes
}
