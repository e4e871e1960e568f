package container

import (
	"context"
	"fmt"
	"io"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/apprepo"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/invitationrepo"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/vendorrepo"
	"github.com/stevelaver/developer-portal-sub000/pkg/multidb"
	"go.uber.org/multierr"
)

// Repositories is an abstraction layer to list down all repositories.
// This only will connect and save the repository.
// To use this, you must select the db label based on config file
type Repositories interface {
	io.Closer

	SQL(dbLabel string) (*sqlx.DB, error)
	Redis(label string) (redis.UniversalClient, error)
	AppRepo(dbLabel string) (apprepo.Repo, error)
	VendorRepo(dbLabel string) (vendorrepo.Repo, error)
	InvitationRepo(dbLabel string) (invitationrepo.Repo, error)
}

// RepositoryImpl the real implementation of Repositories
type RepositoryImpl struct {
	dbResourceMap ConfigDatabaseResources
	dbSqlConn     multidb.MultiDB // all database connection
	redisConn     *RedisConnMaker
}

// Ensure that RepositoryImpl implements RepositoryImpl
var _ Repositories = (*RepositoryImpl)(nil)

// SetupRepositories return pointer because it heavily used.
// This will return RepositoryImpl instead Repositories,
// the reason is when SetupRepositories called it must be close in deferred mode, any passed value using interface
// won't let user Close any dependencies during run-time.
func SetupRepositories(ctx context.Context, dbConf ConfigDatabaseResources, redisConf ConfigRedisResources) (*RepositoryImpl, error) {
	sqlDbConfig := multidb.DatabaseResources{}
	for name, conn := range dbConf {
		sqlDbConfig[name] = multidb.DatabaseResource{
			Disable: conn.Disable,
			Driver:  multidb.Driver(conn.Driver),
			Postgres: multidb.GoSqlDb{
				Debug:           conn.Postgres.Debug,
				DSN:             conn.Postgres.DSN,
				MaxOpenConns:    conn.Postgres.MaxOpenConns,
				MaxIdleConns:    conn.Postgres.MaxIdleConns,
				ConnMaxLifetime: conn.Postgres.ConnMaxLifetime,
			},
		}
	}

	dbSqlConn, err := multidb.NewSqlDbConnMaker(multidb.SqlDbConnMakerConfig{Config: sqlDbConfig})
	if err != nil {
		return nil, err
	}

	redisConn, err := NewRedisConnMaker(ctx, redisConf)
	if err != nil {
		err = multierr.Append(err, dbSqlConn.Close())
		return nil, err
	}

	dep := &RepositoryImpl{
		dbResourceMap: dbConf,
		dbSqlConn:     dbSqlConn,
		redisConn:     redisConn,
	}

	return dep, nil
}

// SQL return the postgres connection of dbLabel.
func (r *RepositoryImpl) SQL(dbLabel string) (*sqlx.DB, error) {
	repoConnInfo, ok := r.dbResourceMap[dbLabel]
	if !ok {
		return nil, fmt.Errorf("unknown database key %s", dbLabel)
	}

	// only postgres is supported, app ids and the version store rely on its row locks
	sqlDriver := repoConnInfo.Driver
	switch multidb.Driver(sqlDriver) {
	case multidb.Postgres:
		return r.dbSqlConn.GetSqlx(multidb.Postgres, dbLabel)

	default:
		return nil, fmt.Errorf("not supported db driver '%s' on label '%s'", sqlDriver, dbLabel)
	}
}

func (r *RepositoryImpl) Redis(label string) (redis.UniversalClient, error) {
	return r.redisConn.Get(label)
}

// AppRepo return apprepo.Repo and return error when connection is closed or nil.
// This should never have caused panic.
func (r *RepositoryImpl) AppRepo(dbLabel string) (appRepo apprepo.Repo, err error) {
	sqlConn, err := r.SQL(dbLabel)
	if err != nil {
		err = fmt.Errorf("app repo: %w", err)
		return
	}

	appRepo, err = apprepo.Postgres(apprepo.RepoPostgresConfig{
		Connection: sqlConn,
	})
	return
}

func (r *RepositoryImpl) VendorRepo(dbLabel string) (repo vendorrepo.Repo, err error) {
	sqlConn, err := r.SQL(dbLabel)
	if err != nil {
		err = fmt.Errorf("vendor repo: %w", err)
		return
	}

	repo, err = vendorrepo.NewPostgres(vendorrepo.PostgresConfig{
		Connection: sqlConn,
	})
	return
}

func (r *RepositoryImpl) InvitationRepo(dbLabel string) (repo invitationrepo.Repo, err error) {
	sqlConn, err := r.SQL(dbLabel)
	if err != nil {
		err = fmt.Errorf("invitation repo: %w", err)
		return
	}

	repo, err = invitationrepo.NewPostgres(invitationrepo.PostgresConfig{
		Connection: sqlConn,
	})
	return
}

// Close will close all dependencies.
func (r *RepositoryImpl) Close() error {
	if r == nil {
		return nil
	}

	var err error
	if r.dbSqlConn != nil {
		if _err := r.dbSqlConn.Close(); _err != nil {
			err = multierr.Append(err, fmt.Errorf("close db error: %w", _err))
		}
	}

	if r.redisConn != nil {
		if _err := r.redisConn.Close(); _err != nil {
			err = multierr.Append(err, fmt.Errorf("close redis error: %w", _err))
		}
	}

	return err
}
