package apprepo

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2022, 10, 1, 12, 0, 0, 0, time.UTC)

func newMockRepo(t *testing.T) (*RepoPostgres, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := Postgres(RepoPostgresConfig{
		Connection: sqlx.NewDb(db, "postgres"),
		Now:        func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return repo, mock
}

// appRows render app as a result set in appColumns order.
func appRows(t *testing.T, apps ...App) *sqlmock.Rows {
	rows := sqlmock.NewRows(appColumns)
	for _, a := range apps {
		vals := []driver.Value{a.ID, a.Vendor, a.Version}
		vals = append(vals, driverValues(t, attrValues(a.Attributes))...)
		vals = append(vals, driverValues(t, []interface{}{a.IsApproved, a.DeletedOn, a.CreatedOn, a.CreatedBy})...)
		rows.AddRow(vals...)
	}

	return rows
}

func versionRows(t *testing.T, versions ...AppVersion) *sqlmock.Rows {
	rows := sqlmock.NewRows(versionColumns)
	for _, v := range versions {
		vals := []driver.Value{v.ID, v.Version}
		vals = append(vals, driverValues(t, attrValues(v.Attributes))...)
		vals = append(vals, v.CreatedOn, v.CreatedBy)
		rows.AddRow(vals...)
	}

	return rows
}

func driverValues(t *testing.T, in []interface{}) []driver.Value {
	out := make([]driver.Value, 0, len(in))
	for _, v := range in {
		switch x := v.(type) {
		case driver.Valuer:
			dv, err := x.Value()
			require.NoError(t, err)
			out = append(out, dv)
		case *string:
			if x == nil {
				out = append(out, nil)
				continue
			}
			out = append(out, *x)
		case *time.Time:
			if x == nil {
				out = append(out, nil)
				continue
			}
			out = append(out, *x)
		default:
			out = append(out, v)
		}
	}

	return out
}

func demoApp(version int64) App {
	return App{
		ID:      "v1.demo",
		Vendor:  "v1",
		Version: version,
		Attributes: Attributes{
			Name: "Demo",
			Type: TypeExtractor,
		},
		CreatedOn: fixedNow,
		CreatedBy: "dev@v1.com",
	}
}

func TestPostgres(t *testing.T) {
	repo, err := Postgres(RepoPostgresConfig{})
	assert.Error(t, err)
	assert.Nil(t, repo)
}

func TestRepoPostgres_Insert(t *testing.T) {
	name, typ := "Demo", TypeExtractor

	t.Run("success writes version 1 and its snapshot", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		perms := Permissions{{Stack: "us-east-1"}}

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(sqlFindUnknownStacks)).
			WillReturnRows(sqlmock.NewRows([]string{"name"}))
		mock.ExpectQuery(regexp.QuoteMeta(sqlInsertApp)).
			WillReturnRows(appRows(t, demoApp(1)))
		mock.ExpectExec(regexp.QuoteMeta(sqlCopyCurrentToVersion)).
			WithArgs("v1.demo", fixedNow, "dev@v1.com").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		out, err := repo.Insert(context.Background(), InputInsert{
			ID:      "v1.demo",
			Vendor:  "v1",
			Actor:   "dev@v1.com",
			Payload: Payload{Name: &name, Type: &typ, Permissions: &perms},
		})
		require.NoError(t, err)
		assert.EqualValues(t, 1, out.App.Version)
		assert.Equal(t, "v1.demo", out.App.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already exists", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(sqlInsertApp)).
			WillReturnRows(sqlmock.NewRows(appColumns))
		mock.ExpectRollback()

		_, err := repo.Insert(context.Background(), InputInsert{
			ID: "v1.demo", Vendor: "v1", Actor: "dev@v1.com",
			Payload: Payload{Name: &name},
		})
		assert.ErrorIs(t, err, apperr.ErrAlreadyExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown stack", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		perms := Permissions{{Stack: "mars-1"}}

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(sqlFindUnknownStacks)).
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("mars-1"))
		mock.ExpectRollback()

		_, err := repo.Insert(context.Background(), InputInsert{
			ID: "v1.demo", Vendor: "v1", Actor: "dev@v1.com",
			Payload: Payload{Name: &name, Permissions: &perms},
		})
		assert.Equal(t, apperr.KindUnprocessable, apperr.KindOf(err))
		assert.Contains(t, err.Error(), "mars-1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("name is required", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		_, err := repo.Insert(context.Background(), InputInsert{ID: "v1.demo", Vendor: "v1", Actor: "dev@v1.com"})
		assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepoPostgres_Update(t *testing.T) {
	t.Run("empty payload is a no-op", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta(sqlGetApp)).
			WithArgs("v1.demo").
			WillReturnRows(appRows(t, demoApp(2)))

		out, err := repo.Update(context.Background(), InputUpdate{ID: "v1.demo", Actor: "dev@v1.com"})
		require.NoError(t, err)
		assert.False(t, out.Changed)
		assert.EqualValues(t, 2, out.App.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bump and snapshot in one transaction", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		desc := "Extracts demo data"
		payload := Payload{ShortDescription: &desc}
		query, _ := sqlUpdateApp(payload.columns())

		updated := demoApp(3)
		updated.ShortDescription = desc

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(query)).
			WithArgs(desc, "v1.demo").
			WillReturnRows(appRows(t, updated))
		mock.ExpectExec(regexp.QuoteMeta(sqlCopyCurrentToVersion)).
			WithArgs("v1.demo", fixedNow, "editor@v1.com").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		out, err := repo.Update(context.Background(), InputUpdate{ID: "v1.demo", Actor: "editor@v1.com", Payload: payload})
		require.NoError(t, err)
		assert.True(t, out.Changed)
		assert.EqualValues(t, 3, out.App.Version)
		assert.Equal(t, desc, out.App.ShortDescription)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("state change only", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		approved := true
		state := StateChange{IsApproved: &approved}
		query, _ := sqlUpdateApp(state.columns())

		updated := demoApp(5)
		updated.IsApproved = true

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(query)).
			WithArgs(true, "v1.demo").
			WillReturnRows(appRows(t, updated))
		mock.ExpectExec(regexp.QuoteMeta(sqlCopyCurrentToVersion)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		out, err := repo.Update(context.Background(), InputUpdate{ID: "v1.demo", Actor: "admin@portal.com", State: state})
		require.NoError(t, err)
		assert.True(t, out.App.IsApproved)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found or deleted", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		desc := "x"
		payload := Payload{ShortDescription: &desc}
		query, _ := sqlUpdateApp(payload.columns())

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnRows(sqlmock.NewRows(appColumns))
		mock.ExpectRollback()

		_, err := repo.Update(context.Background(), InputUpdate{ID: "v1.gone", Actor: "dev@v1.com", Payload: payload})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("snapshot failure rolls back the bump", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		desc := "x"
		payload := Payload{ShortDescription: &desc}
		query, _ := sqlUpdateApp(payload.columns())

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnRows(appRows(t, demoApp(4)))
		mock.ExpectExec(regexp.QuoteMeta(sqlCopyCurrentToVersion)).WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		out, err := repo.Update(context.Background(), InputUpdate{ID: "v1.demo", Actor: "dev@v1.com", Payload: payload})
		assert.Error(t, err)
		assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
		assert.False(t, out.Changed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid payload never touches the store", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		stage := "sideways"

		_, err := repo.Update(context.Background(), InputUpdate{
			ID: "v1.demo", Actor: "dev@v1.com",
			Payload: Payload{DefaultBucketStage: &stage},
		})
		assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepoPostgres_AddIcon(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(sqlBumpVersion)).
		WithArgs("v1.demo").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(4)))
	mock.ExpectExec(regexp.QuoteMeta(sqlSetIcons)).
		WithArgs("v1.demo", "v1.demo/32/4.png", "v1.demo/64/4.png").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(sqlCopyCurrentToVersion)).
		WithArgs("v1.demo", fixedNow, "icon-hook").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	out, err := repo.AddIcon(context.Background(), InputAddIcon{ID: "v1.demo", Actor: "icon-hook"})
	require.NoError(t, err)
	assert.Equal(t, OutAddIcon{Version: 4, Icon32: "v1.demo/32/4.png", Icon64: "v1.demo/64/4.png"}, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoPostgres_Get(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(sqlGetApp)).WillReturnRows(sqlmock.NewRows(appColumns))

		_, err := repo.Get(context.Background(), InputGet{ID: "v1.demo"})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("include deleted", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		deleted := demoApp(6)
		deletedOn := fixedNow.Add(time.Hour)
		deleted.DeletedOn = &deletedOn

		mock.ExpectQuery(regexp.QuoteMeta(sqlGetAppDeleted)).WillReturnRows(appRows(t, deleted))

		out, err := repo.Get(context.Background(), InputGet{ID: "v1.demo", IncludeDeleted: true})
		require.NoError(t, err)
		assert.True(t, out.App.Deleted())
	})
}

func TestRepoPostgres_GetVersion(t *testing.T) {
	t.Run("version must be positive", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		for _, v := range []int64{0, -1} {
			_, err := repo.GetVersion(context.Background(), InputGetVersion{ID: "v1.demo", Version: v})
			assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		snapshot := AppVersion{ID: "v1.demo", Version: 2, Attributes: Attributes{Name: "Demo", ShortDescription: "short"}, CreatedOn: fixedNow, CreatedBy: "dev@v1.com"}
		mock.ExpectQuery(regexp.QuoteMeta(sqlGetVersion)).
			WithArgs("v1.demo", int64(2)).
			WillReturnRows(versionRows(t, snapshot))

		out, err := repo.GetVersion(context.Background(), InputGetVersion{ID: "v1.demo", Version: 2})
		require.NoError(t, err)
		assert.Equal(t, "short", out.Version.ShortDescription)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(sqlGetVersion)).WillReturnRows(sqlmock.NewRows(versionColumns))

		_, err := repo.GetVersion(context.Background(), InputGetVersion{ID: "v1.demo", Version: 9})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestRepoPostgres_List(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(sqlCountApps)).
		WithArgs("", true).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta(sqlListApps)).
		WithArgs("", true, int64(100), int64(0)).
		WillReturnRows(appRows(t, demoApp(3)))

	out, err := repo.List(context.Background(), InputList{PublicOnly: true, Offset: -3, Limit: 500})
	require.NoError(t, err)
	assert.EqualValues(t, 1, out.Total)
	assert.Len(t, out.Apps, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoPostgres_ListVersions_Empty(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(sqlCountVersions)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(int64(0)))

	out, err := repo.ListVersions(context.Background(), InputListVersions{ID: "v1.demo"})
	require.NoError(t, err)
	assert.Empty(t, out.Versions)
	assert.NotNil(t, out.Versions)
}
