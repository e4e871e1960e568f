package apprepo

import (
	"context"
	"testing"
	"time"

	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
	"github.com/stevelaver/developer-portal-sub000/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRepo keep one current row per app and count reads reaching it.
type countingRepo struct {
	Repo
	apps  map[string]App
	reads int

	// afterRead runs once between the read and the return of Get.
	afterRead func()
}

func (r *countingRepo) Get(_ context.Context, in InputGet) (out OutGet, err error) {
	app, ok := r.apps[in.ID]
	if !ok {
		err = apperr.NotFound("app %s not found", in.ID)
		return
	}

	r.reads++
	out.App = app
	if fn := r.afterRead; fn != nil {
		r.afterRead = nil
		fn()
	}

	return
}

func (r *countingRepo) Update(_ context.Context, in InputUpdate) (out OutUpdate, err error) {
	app := r.apps[in.ID]
	in.Payload.ApplyTo(&app)
	app.Version++
	r.apps[in.ID] = app
	out = OutUpdate{App: app, Changed: true}
	return
}

func (r *countingRepo) AddIcon(_ context.Context, in InputAddIcon) (out OutAddIcon, err error) {
	app := r.apps[in.ID]
	app.Version++
	r.apps[in.ID] = app
	out = OutAddIcon{Version: app.Version}
	return
}

func newCachedRepo(t *testing.T) (*CachedRepo, *countingRepo, cache.Cache) {
	persistent := &countingRepo{apps: map[string]App{
		"v1.demo": {ID: "v1.demo", Vendor: "v1", Version: 2, Attributes: Attributes{Name: "Demo"}},
	}}

	c, err := cache.NewInMemory(0)
	require.NoError(t, err)

	repo, err := NewCached(CachedConfig{
		Persistent:     persistent,
		CacheExpiry:    time.Minute,
		CachePrefixKey: "apps",
		Cache:          c,
	})
	require.NoError(t, err)
	return repo, persistent, c
}

func TestCachedRepo_GetFillsCache(t *testing.T) {
	repo, persistent, _ := newCachedRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		out, err := repo.Get(ctx, InputGet{ID: "v1.demo"})
		require.NoError(t, err)
		assert.EqualValues(t, 2, out.App.Version)
	}

	assert.Equal(t, 1, persistent.reads)

	_, err := repo.Get(ctx, InputGet{ID: "v1.demo", SkipCache: true})
	require.NoError(t, err)
	assert.Equal(t, 2, persistent.reads)
}

func TestCachedRepo_MutationEvictsOnly(t *testing.T) {
	repo, _, c := newCachedRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, InputGet{ID: "v1.demo"})
	require.NoError(t, err)

	_, err = repo.Update(ctx, InputUpdate{ID: "v1.demo", Actor: "dev@v1.com", Payload: Payload{Name: strPtr("Demo 3")}})
	require.NoError(t, err)

	var cached App
	assert.ErrorIs(t, c.GetAs(ctx, repo.cacheKey("v1.demo"), &cached), cache.ErrKeyNotExist)

	out, err := repo.Get(ctx, InputGet{ID: "v1.demo"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, out.App.Version)
	assert.Equal(t, "Demo 3", out.App.Name)

	_, err = repo.AddIcon(ctx, InputAddIcon{ID: "v1.demo", Actor: "icon-pipeline"})
	require.NoError(t, err)

	out, err = repo.Get(ctx, InputGet{ID: "v1.demo"})
	require.NoError(t, err)
	assert.EqualValues(t, 4, out.App.Version)
}

func TestCachedRepo_ReadRacingUpdateIsDropped(t *testing.T) {
	repo, persistent, c := newCachedRepo(t)
	ctx := context.Background()

	// the update commits and evicts after the read saw version 2 but before it is cached
	persistent.afterRead = func() {
		_, err := repo.Update(ctx, InputUpdate{ID: "v1.demo", Actor: "dev@v1.com", Payload: Payload{Name: strPtr("Demo 3")}})
		require.NoError(t, err)
	}

	out, err := repo.Get(ctx, InputGet{ID: "v1.demo"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, out.App.Version)

	var cached App
	assert.ErrorIs(t, c.GetAs(ctx, repo.cacheKey("v1.demo"), &cached), cache.ErrKeyNotExist, "older row is not kept")

	out, err = repo.Get(ctx, InputGet{ID: "v1.demo"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, out.App.Version)
}
