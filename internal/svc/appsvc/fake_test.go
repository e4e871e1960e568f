package appsvc

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stevelaver/developer-portal-sub000/backend"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/apprepo"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/vendorrepo"
	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
)

// memAppRepo mimic the transactional store: the whole mutation runs under one lock,
// like the row lock held by the bump-and-snapshot transaction.
type memAppRepo struct {
	mu       sync.Mutex
	apps     map[string]apprepo.App
	versions map[string][]apprepo.AppVersion
	now      time.Time
}

var _ apprepo.Repo = (*memAppRepo)(nil)

func newMemAppRepo() *memAppRepo {
	return &memAppRepo{
		apps:     map[string]apprepo.App{},
		versions: map[string][]apprepo.AppVersion{},
		now:      time.Date(2022, 10, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memAppRepo) snapshot(app apprepo.App, actor string) {
	m.versions[app.ID] = append(m.versions[app.ID], apprepo.AppVersion{
		ID:         app.ID,
		Version:    app.Version,
		Attributes: app.Attributes,
		CreatedOn:  m.now,
		CreatedBy:  actor,
	})
}

func (m *memAppRepo) Insert(_ context.Context, in apprepo.InputInsert) (out apprepo.OutInsert, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exist := m.apps[in.ID]; exist {
		err = apperr.AlreadyExists("app %s already exists", in.ID)
		return
	}

	app := apprepo.App{ID: in.ID, Vendor: in.Vendor, Version: 1, CreatedOn: m.now, CreatedBy: in.Actor}
	app.Type = apprepo.TypeOther
	in.Payload.Sanitize().ApplyTo(&app)
	m.apps[in.ID] = app
	m.snapshot(app, in.Actor)
	out.App = app
	return
}

func (m *memAppRepo) Update(_ context.Context, in apprepo.InputUpdate) (out apprepo.OutUpdate, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, exist := m.apps[in.ID]
	if !exist || app.Deleted() {
		err = apperr.NotFound("app %s does not exist", in.ID)
		return
	}

	if in.Payload.IsEmpty() && in.State.IsEmpty() {
		out.App = app
		return
	}

	in.Payload.ApplyTo(&app)
	in.State.ApplyTo(&app)
	app.Version++
	m.apps[in.ID] = app
	m.snapshot(app, in.Actor)
	out = apprepo.OutUpdate{App: app, Changed: true}
	return
}

func (m *memAppRepo) AddIcon(_ context.Context, in apprepo.InputAddIcon) (out apprepo.OutAddIcon, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, exist := m.apps[in.ID]
	if !exist || app.Deleted() {
		err = apperr.NotFound("app %s does not exist", in.ID)
		return
	}

	app.Version++
	icon32, icon64 := apprepo.IconKeys(in.ID, app.Version)
	app.Icon32, app.Icon64 = &icon32, &icon64
	m.apps[in.ID] = app
	m.snapshot(app, in.Actor)
	out = apprepo.OutAddIcon{Version: app.Version, Icon32: icon32, Icon64: icon64}
	return
}

func (m *memAppRepo) Get(_ context.Context, in apprepo.InputGet) (out apprepo.OutGet, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, exist := m.apps[in.ID]
	if !exist || (app.Deleted() && !in.IncludeDeleted) {
		err = apperr.NotFound("app %s does not exist", in.ID)
		return
	}

	out.App = app
	return
}

func (m *memAppRepo) GetVersion(_ context.Context, in apprepo.InputGetVersion) (out apprepo.OutGetVersion, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if in.Version < 1 {
		err = apperr.BadRequest("version must be greater than zero")
		return
	}

	for _, v := range m.versions[in.ID] {
		if v.Version == in.Version {
			out.Version = v
			return
		}
	}

	err = apperr.NotFound("version %d of app %s does not exist", in.Version, in.ID)
	return
}

func (m *memAppRepo) ListVersions(_ context.Context, in apprepo.InputListVersions) (out apprepo.OutListVersions, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := append([]apprepo.AppVersion(nil), m.versions[in.ID]...)
	sort.Slice(all, func(i, j int) bool { return all[i].Version > all[j].Version })
	out.Total = int64(len(all))
	out.Versions = window(all, in.Offset, in.Limit)
	return
}

func (m *memAppRepo) List(_ context.Context, in apprepo.InputList) (out apprepo.OutList, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]apprepo.App, 0)
	for _, a := range m.apps {
		if a.Deleted() || (in.Vendor != "" && a.Vendor != in.Vendor) || (in.PublicOnly && !(a.IsApproved && a.IsPublic)) {
			continue
		}

		all = append(all, a)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	out.Total = int64(len(all))
	out.Apps = window(all, in.Offset, in.Limit)
	return
}

func window[T any](all []T, offset, limit int64) []T {
	if offset >= int64(len(all)) {
		return []T{}
	}

	end := offset + limit
	if end > int64(len(all)) {
		end = int64(len(all))
	}

	return all[offset:end]
}

type memVendorRepo struct {
	vendors map[string]vendorrepo.Vendor
}

var _ vendorrepo.Repo = (*memVendorRepo)(nil)

func (m *memVendorRepo) Create(_ context.Context, in vendorrepo.InputCreate) (out vendorrepo.OutCreate, err error) {
	m.vendors[in.Vendor.ID] = in.Vendor
	out.Vendor = in.Vendor
	return
}

func (m *memVendorRepo) Get(_ context.Context, in vendorrepo.InputGet) (out vendorrepo.OutGet, err error) {
	v, ok := m.vendors[in.ID]
	if !ok {
		err = apperr.NotFound("vendor %s does not exist", in.ID)
		return
	}

	out.Vendor = v
	return
}

func (m *memVendorRepo) List(_ context.Context, _ vendorrepo.InputList) (out vendorrepo.OutList, err error) {
	return
}

func (m *memVendorRepo) Approve(_ context.Context, _ vendorrepo.InputApprove) (out vendorrepo.OutApprove, err error) {
	return
}

type recordNotifier struct {
	mu   sync.Mutex
	msgs []backend.Message
}

func (r *recordNotifier) Notify(_ context.Context, msg backend.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}
