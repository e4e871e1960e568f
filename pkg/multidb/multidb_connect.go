package multidb

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/stevelaver/developer-portal-sub000/pkg/validator"
	"go.uber.org/multierr"
)

type SqlDbConnMakerConfig struct {
	Config DatabaseResources `validate:"required"`
}

// conn is one opened database resource.
type conn struct {
	driver Driver
	db     *sqlx.DB
}

// SqlDbConnMaker open every enabled resource up front and hand them out by label.
type SqlDbConnMaker struct {
	disabled map[string]struct{}
	conns    map[string]conn
}

var _ MultiDB = (*SqlDbConnMaker)(nil)

func NewSqlDbConnMaker(conf SqlDbConnMakerConfig) (*SqlDbConnMaker, error) {
	if err := validator.Validate(conf); err != nil {
		return nil, fmt.Errorf("sql db connection maker failed: %w", err)
	}

	instance := &SqlDbConnMaker{
		disabled: make(map[string]struct{}),
		conns:    make(map[string]conn),
	}

	for label, resource := range conf.Config {
		if err := instance.open(label, resource); err != nil {
			// release whatever was opened before the failure
			return nil, multierr.Append(err, instance.Close())
		}
	}

	return instance, nil
}

func (i *SqlDbConnMaker) GetSqlx(driver Driver, key string) (*sqlx.DB, error) {
	key = normalizeLabel(key)
	if _, disabled := i.disabled[key]; disabled {
		return nil, fmt.Errorf("db with key '%s' is disabled", key)
	}

	c, ok := i.conns[key]
	if !ok {
		return nil, fmt.Errorf("key '%s' is not exist on db list", key)
	}

	if c.driver != driver {
		return nil, fmt.Errorf("db key '%s' not using driver %s", key, driver)
	}

	return c.db, nil
}

// Ping check every enabled connection.
func (i *SqlDbConnMaker) Ping(ctx context.Context) error {
	var err error
	for _, label := range i.labels() {
		if _err := i.conns[label].db.PingContext(ctx); _err != nil {
			err = multierr.Append(err, fmt.Errorf("ping db '%s': %w", label, _err))
		}
	}

	return err
}

func (i *SqlDbConnMaker) Close() error {
	var err error
	for _, label := range i.labels() {
		if _err := i.conns[label].db.Close(); _err != nil {
			err = multierr.Append(err, fmt.Errorf("(%s) %w", label, _err))
		}
	}

	return err
}

func (i *SqlDbConnMaker) labels() []string {
	labels := make([]string, 0, len(i.conns))
	for label := range i.conns {
		labels = append(labels, label)
	}

	sort.Strings(labels)
	return labels
}

func (i *SqlDbConnMaker) open(label string, resource DatabaseResource) error {
	label = normalizeLabel(label)
	if err := validator.Var(label, "required,alphanum"); err != nil {
		return fmt.Errorf("error connecting to database label '%s': %w", label, err)
	}

	if resource.Disable {
		i.disabled[label] = struct{}{}
		return nil
	}

	switch resource.Driver {
	case Postgres:
		db, err := openGoSqlDb(label, resource.Driver, resource.Postgres)
		if err != nil {
			return err
		}

		i.conns[label] = conn{driver: resource.Driver, db: db}
		return nil

	default:
		return fmt.Errorf("not supported driver '%s' on label '%s'", resource.Driver, label)
	}
}

// openGoSqlDb open a database/sql pool, routed through the query logger when cfg.Debug is set.
func openGoSqlDb(label string, driver Driver, cfg GoSqlDb) (*sqlx.DB, error) {
	db, err := sql.Open(driver.String(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("cannot open db connection '%s': %w", label, err)
	}

	if cfg.Debug {
		db = sqldblogger.OpenDriver(cfg.DSN, db.Driver(), &QueryLogger{}, sqldblogger.WithConnectionIDFieldname(label))
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return sqlx.NewDb(db, driver.String()), nil
}

func normalizeLabel(label string) string {
	return strings.TrimSpace(strings.ToLower(label))
}
