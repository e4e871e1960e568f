package apprepo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/stevelaver/developer-portal-sub000/pkg/cache"
	"github.com/stevelaver/developer-portal-sub000/pkg/validator"
	"github.com/yusufsyaifudin/ylog"
)

type CachedConfig struct {
	Persistent     Repo          `validate:"required"`
	CacheExpiry    time.Duration `validate:"required"`
	CachePrefixKey string        `validate:"required,alphanum"`
	Cache          cache.Cache   `validate:"required"`
}

// CachedRepo cache the current state of non deleted apps by id.
// Only reads fill the cache. Every mutation goes to the persistent repo, marks the committed
// version and then evicts the entry. A read that stored a row older than a marked version drops it.
type CachedRepo struct {
	Config CachedConfig
}

var _ Repo = (*CachedRepo)(nil)

func NewCached(cfg CachedConfig) (*CachedRepo, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, err
	}

	return &CachedRepo{
		Config: cfg,
	}, nil
}

func (c *CachedRepo) Insert(ctx context.Context, in InputInsert) (out OutInsert, err error) {
	return c.Config.Persistent.Insert(ctx, in)
}

func (c *CachedRepo) Update(ctx context.Context, in InputUpdate) (out OutUpdate, err error) {
	out, err = c.Config.Persistent.Update(ctx, in)
	if err == nil && out.Changed {
		c.markCommitted(ctx, in.ID, out.App.Version)
	}

	c.evict(ctx, in.ID)
	return
}

func (c *CachedRepo) AddIcon(ctx context.Context, in InputAddIcon) (out OutAddIcon, err error) {
	out, err = c.Config.Persistent.AddIcon(ctx, in)
	if err == nil {
		c.markCommitted(ctx, in.ID, out.Version)
	}

	c.evict(ctx, in.ID)
	return
}

func (c *CachedRepo) Get(ctx context.Context, in InputGet) (out OutGet, err error) {
	if in.IncludeDeleted || in.SkipCache {
		return c.Config.Persistent.Get(ctx, in)
	}

	// Get from cache first
	app, err := c.getApp(ctx, in.ID)
	if err == nil && app.ID == in.ID {
		out = OutGet{App: app}
		return
	}

	out, err = c.Config.Persistent.Get(ctx, in)
	if err != nil {
		return
	}

	// A mutation committed after our read marks version+1 before evicting.
	// Checking the mark after the write covers a write landing after that eviction.
	c.setApp(ctx, out.App)
	if c.committedAfter(ctx, out.App.ID, out.App.Version) {
		c.evict(ctx, out.App.ID)
	}

	return
}

// GetVersion is not cached, snapshots are read rarely.
func (c *CachedRepo) GetVersion(ctx context.Context, in InputGetVersion) (out OutGetVersion, err error) {
	return c.Config.Persistent.GetVersion(ctx, in)
}

func (c *CachedRepo) ListVersions(ctx context.Context, in InputListVersions) (out OutListVersions, err error) {
	return c.Config.Persistent.ListVersions(ctx, in)
}

// List of cached apps now will not use cache. It hard to maintain list in cache.
func (c *CachedRepo) List(ctx context.Context, in InputList) (out OutList, err error) {
	return c.Config.Persistent.List(ctx, in)
}

// -- cache

func (c *CachedRepo) cacheKey(appID string) string {
	return cache.Key(c.Config.CachePrefixKey, "app", appID)
}

func (c *CachedRepo) committedKey(appID string, version int64) string {
	return cache.Key(c.Config.CachePrefixKey, "committed", appID, strconv.FormatInt(version, 10))
}

func (c *CachedRepo) markCommitted(ctx context.Context, appID string, version int64) {
	err := c.Config.Cache.SetExp(ctx, c.committedKey(appID, version), true, c.Config.CacheExpiry)
	if err != nil {
		ylog.Error(ctx, fmt.Sprintf("cannot mark app %s version %d", appID, version), ylog.KV("error", err))
	}
}

// committedAfter report whether a version newer than version was committed.
// Versions are contiguous so checking version+1 is enough, an unreadable mark counts as committed.
func (c *CachedRepo) committedAfter(ctx context.Context, appID string, version int64) bool {
	var marked bool
	err := c.Config.Cache.GetAs(ctx, c.committedKey(appID, version+1), &marked)
	return !errors.Is(err, cache.ErrKeyNotExist)
}

func (c *CachedRepo) getApp(ctx context.Context, appID string) (App, error) {
	var app App
	err := c.Config.Cache.GetAs(ctx, c.cacheKey(appID), &app)
	if err != nil {
		return App{}, err
	}

	ylog.Debug(ctx, fmt.Sprintf("get app %s from cache", appID))
	return app, nil
}

func (c *CachedRepo) setApp(ctx context.Context, app App) {
	err := c.Config.Cache.SetExp(ctx, c.cacheKey(app.ID), app, c.Config.CacheExpiry)
	if err != nil {
		ylog.Error(ctx, fmt.Sprintf("cannot save cache app %s", app.ID), ylog.KV("error", err))
	}
}

func (c *CachedRepo) evict(ctx context.Context, appID string) {
	if err := c.Config.Cache.Delete(ctx, c.cacheKey(appID)); err != nil {
		ylog.Error(ctx, fmt.Sprintf("cannot evict cache app %s", appID), ylog.KV("error", err))
	}
}
