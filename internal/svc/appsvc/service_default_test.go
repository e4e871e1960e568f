package appsvc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stevelaver/developer-portal-sub000/internal/svc/accessctl"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/apprepo"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/vendorrepo"
	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	dev   = accessctl.Caller{Email: "dev@v1.com", Vendors: []string{"v1"}}
	other = accessctl.Caller{Email: "dev@v2.com", Vendors: []string{"v2"}}
	admin = accessctl.Caller{Email: "admin@portal.com", IsAdmin: true}
)

type fixture struct {
	svc      *DefaultService
	repo     *memAppRepo
	notifier *recordNotifier
}

func newFixture(t *testing.T) fixture {
	repo := newMemAppRepo()
	access, err := accessctl.New(accessctl.Config{Apps: &OwnerFinder{Repo: repo}})
	require.NoError(t, err)

	notifier := &recordNotifier{}
	svc, err := New(DefaultServiceConfig{
		AppRepo: repo,
		VendorRepo: &memVendorRepo{vendors: map[string]vendorrepo.Vendor{
			"v1": {ID: "v1", Name: "Vendor One"},
			"v2": {ID: "v2", Name: "Vendor Two"},
		}},
		Access:      access,
		Notifier:    notifier,
		AdminEmails: []string{"admin@portal.com"},
		Now:         func() time.Time { return time.Date(2022, 10, 2, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	return fixture{svc: svc, repo: repo, notifier: notifier}
}

func str(s string) *string { return &s }

func boolean(b bool) *bool { return &b }

func ref(caller accessctl.Caller, appID string) InputAppRef {
	return InputAppRef{Caller: caller, Vendor: "v1", AppID: appID}
}

func (f fixture) createDemo(t *testing.T) apprepo.App {
	out, err := f.svc.CreateApp(context.Background(), InputCreateApp{
		Caller:  dev,
		Vendor:  "v1",
		ShortID: "demo",
		Payload: apprepo.Payload{Name: str("Demo"), Type: str(apprepo.TypeExtractor), IsPublic: boolean(true)},
	})
	require.NoError(t, err)
	return out.App
}

func completePayload() apprepo.Payload {
	return apprepo.Payload{
		Repository: &apprepo.RepositoryPayload{
			Type: str("dockerhub"),
			URI:  str("v1/demo"),
			Tag:  str("1.0.0"),
		},
		ShortDescription: str("Demo extractor"),
		LongDescription:  str("Extracts demo data"),
		LicenseURL:       str("https://v1.com/license"),
		DocumentationURL: str("https://v1.com/docs"),
	}
}

func (f fixture) completeDemo(t *testing.T) {
	ctx := context.Background()
	_, err := f.svc.UpdateApp(ctx, InputUpdateApp{InputAppRef: ref(dev, "v1.demo"), Payload: completePayload()})
	require.NoError(t, err)

	_, err = f.repo.AddIcon(ctx, apprepo.InputAddIcon{ID: "v1.demo", Actor: dev.Email})
	require.NoError(t, err)
}

func (f fixture) assertHistoryMatches(t *testing.T, appID string) {
	app := f.repo.apps[appID]
	versions := f.repo.versions[appID]
	require.Len(t, versions, int(app.Version))
	for i, v := range versions {
		assert.EqualValues(t, i+1, v.Version)
	}

	assert.Equal(t, app.Attributes, versions[len(versions)-1].Attributes)
}

func TestDefaultService_CreateApp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app := f.createDemo(t)
	assert.Equal(t, "v1.demo", app.ID)
	assert.Equal(t, "v1", app.Vendor)
	assert.EqualValues(t, 1, app.Version)
	assert.False(t, app.IsPublic, "isPublic is forced server side")
	assert.Equal(t, dev.Email, app.CreatedBy)

	_, err := f.svc.CreateApp(ctx, InputCreateApp{Caller: dev, Vendor: "v1", ShortID: "demo", Payload: apprepo.Payload{Name: str("Demo")}})
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	_, err = f.svc.CreateApp(ctx, InputCreateApp{Caller: dev, Vendor: "v2", ShortID: "demo", Payload: apprepo.Payload{Name: str("Demo")}})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = f.svc.CreateApp(ctx, InputCreateApp{Caller: admin, Vendor: "v9", ShortID: "demo", Payload: apprepo.Payload{Name: str("Demo")}})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.CreateApp(ctx, InputCreateApp{Caller: dev, Vendor: "v1", ShortID: "Not Valid", Payload: apprepo.Payload{Name: str("Demo")}})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestDefaultService_approvalScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createDemo(t)

	out, err := f.svc.UpdateApp(ctx, InputUpdateApp{
		InputAppRef: ref(dev, "v1.demo"),
		Payload:     apprepo.Payload{ShortDescription: str("Demo extractor")},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, out.App.Version)
	assert.Len(t, f.repo.versions["v1.demo"], 2)

	_, err = f.svc.Approve(ctx, InputApprove{Caller: admin, AppID: "v1.demo"})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.EqualValues(t, 2, f.repo.apps["v1.demo"].Version, "failed approve does not bump version")

	f.completeDemo(t)
	assert.EqualValues(t, 4, f.repo.apps["v1.demo"].Version)

	_, err = f.svc.Approve(ctx, InputApprove{Caller: dev, AppID: "v1.demo"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	out, err = f.svc.Approve(ctx, InputApprove{Caller: admin, AppID: "v1.demo"})
	require.NoError(t, err)
	assert.True(t, out.App.IsApproved)
	assert.EqualValues(t, 5, out.App.Version)

	_, err = f.svc.Approve(ctx, InputApprove{Caller: admin, AppID: "v1.demo"})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.EqualValues(t, 5, f.repo.apps["v1.demo"].Version)

	f.assertHistoryMatches(t, "v1.demo")
}

func TestDefaultService_UpdateApp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createDemo(t)

	t.Run("empty payload is a no-op", func(t *testing.T) {
		out, err := f.svc.UpdateApp(ctx, InputUpdateApp{InputAppRef: ref(dev, "v1.demo")})
		require.NoError(t, err)
		assert.EqualValues(t, 1, out.App.Version)
	})

	t.Run("other vendor sees not found", func(t *testing.T) {
		_, err := f.svc.UpdateApp(ctx, InputUpdateApp{
			InputAppRef: InputAppRef{Caller: other, Vendor: "v2", AppID: "v1.demo"},
			Payload:     apprepo.Payload{Name: str("mine")},
		})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("non member is unauthorized", func(t *testing.T) {
		_, err := f.svc.UpdateApp(ctx, InputUpdateApp{InputAppRef: ref(other, "v1.demo"), Payload: apprepo.Payload{Name: str("mine")}})
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("public needs approval", func(t *testing.T) {
		_, err := f.svc.UpdateApp(ctx, InputUpdateApp{InputAppRef: ref(dev, "v1.demo"), Payload: apprepo.Payload{IsPublic: boolean(true)}})
		assert.ErrorIs(t, err, apperr.ErrBadRequest)
		assert.EqualValues(t, 1, f.repo.apps["v1.demo"].Version)
	})

	t.Run("public after approval", func(t *testing.T) {
		f.completeDemo(t)
		_, err := f.svc.Approve(ctx, InputApprove{Caller: admin, AppID: "v1.demo"})
		require.NoError(t, err)

		broken := completePayload()
		broken.LicenseURL = str("")
		broken.IsPublic = boolean(true)
		_, err = f.svc.UpdateApp(ctx, InputUpdateApp{InputAppRef: ref(dev, "v1.demo"), Payload: broken})
		assert.ErrorIs(t, err, apperr.ErrBadRequest, "payload would make the app incomplete")

		out, err := f.svc.UpdateApp(ctx, InputUpdateApp{InputAppRef: ref(dev, "v1.demo"), Payload: apprepo.Payload{IsPublic: boolean(true)}})
		require.NoError(t, err)
		assert.True(t, out.App.IsPublic)

		list, err := f.svc.PublicListApps(ctx, InputPublicListApps{})
		require.NoError(t, err)
		require.Len(t, list.Apps, 1)
		assert.EqualValues(t, 100, list.Limit)

		got, err := f.svc.PublicGetApp(ctx, InputPublicGetApp{AppID: "v1.demo"})
		require.NoError(t, err)
		assert.Equal(t, "v1.demo", got.App.ID)
	})

	f.assertHistoryMatches(t, "v1.demo")
}

func TestDefaultService_Rollback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createDemo(t)

	for _, name := range []string{"Demo 2", "Demo 3"} {
		_, err := f.svc.UpdateApp(ctx, InputUpdateApp{InputAppRef: ref(dev, "v1.demo"), Payload: apprepo.Payload{Name: str(name)}})
		require.NoError(t, err)
	}

	before := append([]apprepo.AppVersion(nil), f.repo.versions["v1.demo"]...)

	out, err := f.svc.Rollback(ctx, InputRollback{InputAppRef: ref(dev, "v1.demo"), Version: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 4, out.App.Version)
	assert.Equal(t, "Demo", out.App.Name)
	assert.Equal(t, before, f.repo.versions["v1.demo"][:3], "older snapshots are untouched")

	_, err = f.svc.Rollback(ctx, InputRollback{InputAppRef: ref(dev, "v1.demo"), Version: 0})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = f.svc.Rollback(ctx, InputRollback{InputAppRef: ref(dev, "v1.demo"), Version: 9})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	versions, err := f.svc.ListVersions(ctx, InputListVersions{InputAppRef: ref(dev, "v1.demo"), Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 4, versions.Total)
	require.Len(t, versions.Versions, 2)
	assert.EqualValues(t, 4, versions.Versions[0].Version)

	v2, err := f.svc.GetVersion(ctx, InputGetVersion{InputAppRef: ref(dev, "v1.demo"), Version: 2})
	require.NoError(t, err)
	assert.Equal(t, "Demo 2", v2.Version.Name)

	f.assertHistoryMatches(t, "v1.demo")
}

func TestDefaultService_Rollback_RestoresEveryContentField(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createDemo(t)
	f.completeDemo(t)

	uiOptions := apprepo.StringList{"genericDockerUI"}
	loggerConfiguration := apprepo.JSONObject{"a": 1}
	_, err := f.svc.UpdateApp(ctx, InputUpdateApp{InputAppRef: ref(dev, "v1.demo"), Payload: apprepo.Payload{
		UIOptions:           &uiOptions,
		LoggerConfiguration: &loggerConfiguration,
	}})
	require.NoError(t, err)
	require.EqualValues(t, 4, f.repo.apps["v1.demo"].Version)

	for _, target := range []int64{1, 3, 4} {
		snapshot, err := f.svc.GetVersion(ctx, InputGetVersion{InputAppRef: ref(dev, "v1.demo"), Version: target})
		require.NoError(t, err)

		out, err := f.svc.Rollback(ctx, InputRollback{InputAppRef: ref(dev, "v1.demo"), Version: target})
		require.NoError(t, err)
		assert.Equal(t, snapshot.Version.Attributes, out.App.Attributes, "content of version %d", target)
	}

	app := f.repo.apps["v1.demo"]
	assert.EqualValues(t, 7, app.Version)
	require.NotNil(t, app.Icon32, "icons of version 3 are restored")
	assert.Equal(t, "v1.demo/32/3.png", *app.Icon32)
	f.assertHistoryMatches(t, "v1.demo")
}

func TestDefaultService_RequestPublish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createDemo(t)

	_, err := f.svc.RequestPublish(ctx, ref(dev, "v1.demo"))
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.Empty(t, f.notifier.msgs)

	f.completeDemo(t)
	version := f.repo.apps["v1.demo"].Version

	_, err = f.svc.RequestPublish(ctx, ref(dev, "v1.demo"))
	require.NoError(t, err)
	require.Len(t, f.notifier.msgs, 1)
	assert.Equal(t, []string{"admin@portal.com"}, f.notifier.msgs[0].Recipients)
	assert.Equal(t, version, f.repo.apps["v1.demo"].Version, "request publish is not a mutation")
}

func TestDefaultService_Deprecate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createDemo(t)
	f.completeDemo(t)
	_, err := f.svc.Approve(ctx, InputApprove{Caller: admin, AppID: "v1.demo"})
	require.NoError(t, err)
	_, err = f.svc.UpdateApp(ctx, InputUpdateApp{InputAppRef: ref(dev, "v1.demo"), Payload: apprepo.Payload{IsPublic: boolean(true)}})
	require.NoError(t, err)

	_, err = f.svc.Deprecate(ctx, InputDeprecate{InputAppRef: ref(dev, "v1.demo"), ReplacementApp: str("v1.missing")})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = f.svc.CreateApp(ctx, InputCreateApp{Caller: dev, Vendor: "v1", ShortID: "demo2", Payload: apprepo.Payload{Name: str("Demo 2")}})
	require.NoError(t, err)

	expire := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	out, err := f.svc.Deprecate(ctx, InputDeprecate{InputAppRef: ref(dev, "v1.demo"), ExpiredOn: &expire, ReplacementApp: str("v1.demo2")})
	require.NoError(t, err)
	assert.True(t, out.App.IsDeprecated)
	assert.False(t, out.App.IsPublic)
	assert.Equal(t, "v1.demo2", *out.App.ReplacementApp)
	assert.True(t, expire.Equal(*out.App.ExpiredOn))

	_, err = f.svc.Deprecate(ctx, InputDeprecate{InputAppRef: ref(dev, "v1.demo")})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = f.svc.UpdateApp(ctx, InputUpdateApp{InputAppRef: ref(dev, "v1.demo"), Payload: apprepo.Payload{IsPublic: boolean(true)}})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	f.assertHistoryMatches(t, "v1.demo")
}

func TestDefaultService_DeleteApp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createDemo(t)

	out, err := f.svc.DeleteApp(ctx, ref(dev, "v1.demo"))
	require.NoError(t, err)
	assert.NotNil(t, out.App.DeletedOn)
	assert.EqualValues(t, 2, out.App.Version)

	_, err = f.svc.GetApp(ctx, InputGetApp{InputAppRef: ref(dev, "v1.demo")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := f.svc.GetApp(ctx, InputGetApp{InputAppRef: ref(admin, "v1.demo")})
	require.NoError(t, err)
	assert.True(t, got.App.Deleted())

	_, err = f.svc.DeleteApp(ctx, ref(admin, "v1.demo"))
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	list, err := f.svc.ListApps(ctx, InputListApps{Caller: dev, Vendor: "v1"})
	require.NoError(t, err)
	assert.Empty(t, list.Apps)

	f.assertHistoryMatches(t, "v1.demo")
}

func TestDefaultService_AdminListApps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createDemo(t)

	_, err := f.svc.AdminListApps(ctx, InputAdminListApps{Caller: dev})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	list, err := f.svc.AdminListApps(ctx, InputAdminListApps{Caller: admin, Offset: -5, Limit: 1000})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)
	assert.EqualValues(t, 0, list.Offset)
	assert.EqualValues(t, 100, list.Limit)
}

func TestDefaultService_concurrentUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createDemo(t)

	payloads := []apprepo.Payload{
		{ShortDescription: str("short")},
		{LongDescription: str("long")},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(payloads))
	for i := range payloads {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.UpdateApp(ctx, InputUpdateApp{InputAppRef: ref(dev, "v1.demo"), Payload: payloads[i]})
		}(i)
	}

	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	app := f.repo.apps["v1.demo"]
	assert.EqualValues(t, 3, app.Version)
	assert.Equal(t, "short", app.ShortDescription)
	assert.Equal(t, "long", app.LongDescription)

	versions := f.repo.versions["v1.demo"]
	require.Len(t, versions, 3)
	assert.NotEqual(t, versions[1].Attributes, versions[2].Attributes)
	f.assertHistoryMatches(t, "v1.demo")
}
