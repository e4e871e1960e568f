package apprepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
	"github.com/stevelaver/developer-portal-sub000/pkg/multidb"
	"github.com/stevelaver/developer-portal-sub000/pkg/paging"
	"github.com/stevelaver/developer-portal-sub000/pkg/tracer"
	"github.com/stevelaver/developer-portal-sub000/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

// DB is satisfied by *sqlx.DB.
type DB interface {
	sqlx.ExtContext
	multidb.TxBeginner
}

type RepoPostgresConfig struct {
	Connection DB               `validate:"required"`
	Now        func() time.Time `validate:"-"`
}

type RepoPostgres struct {
	Config RepoPostgresConfig
}

var _ Repo = (*RepoPostgres)(nil)

// Postgres return repo interface which implements using PgSQL
func Postgres(conf RepoPostgresConfig) (service *RepoPostgres, err error) {
	err = validator.Validate(conf)
	if err != nil {
		return nil, err
	}

	if conf.Now == nil {
		conf.Now = time.Now
	}

	service = &RepoPostgres{
		Config: conf,
	}
	return
}

func (p *RepoPostgres) Insert(ctx context.Context, in InputInsert) (out OutInsert, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "apprepo.Insert")
	defer span.End()

	err = validator.Validate(in)
	if err != nil {
		err = validationErr(err)
		return
	}

	payload := in.Payload.Sanitize()
	if err = validatePayload(payload); err != nil {
		return
	}

	app := App{
		ID:     in.ID,
		Vendor: in.Vendor,
		Attributes: Attributes{
			Type: TypeOther,
		},
	}
	payload.ApplyTo(&app)
	if app.Name == "" {
		err = apperr.BadRequest("name is required")
		return
	}

	now := p.Config.Now().UTC()
	err = multidb.WithTx(ctx, p.Config.Connection, func(tx *sqlx.Tx) error {
		if _err := p.checkStacks(ctx, tx, payload.Stacks()); _err != nil {
			return _err
		}

		args := append([]interface{}{app.ID, app.Vendor, 1, false, now, in.Actor}, attrValues(app.Attributes)...)
		_err := sqlx.GetContext(ctx, tx, &out.App, sqlInsertApp, args...)
		if errors.Is(_err, sql.ErrNoRows) {
			return apperr.AlreadyExists("app %s already exists", in.ID)
		}

		if _err != nil {
			return mapPqError(_err, fmt.Sprintf("app %s", in.ID))
		}

		return p.CopyCurrentToVersion(ctx, tx, in.ID, in.Actor)
	})

	if err != nil {
		out = OutInsert{}
	}

	return
}

// Update apply payload and state change then bump version and snapshot, all in one transaction.
// An empty update is a no-op and returns the current app with Changed false.
func (p *RepoPostgres) Update(ctx context.Context, in InputUpdate) (out OutUpdate, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "apprepo.Update")
	defer span.End()

	err = validator.Validate(in)
	if err != nil {
		err = validationErr(err)
		return
	}

	payload := in.Payload.Sanitize()
	if err = validatePayload(payload); err != nil {
		return
	}

	cols := append(payload.columns(), in.State.columns()...)
	if len(cols) == 0 {
		var current OutGet
		current, err = p.Get(ctx, InputGet{ID: in.ID})
		out = OutUpdate{App: current.App}
		return
	}

	query, args := sqlUpdateApp(cols)
	args = append(args, in.ID)

	err = multidb.WithTx(ctx, p.Config.Connection, func(tx *sqlx.Tx) error {
		if _err := p.checkStacks(ctx, tx, payload.Stacks()); _err != nil {
			return _err
		}

		_err := sqlx.GetContext(ctx, tx, &out.App, query, args...)
		if errors.Is(_err, sql.ErrNoRows) {
			return apperr.NotFound("app %s not found", in.ID)
		}

		if _err != nil {
			return mapPqError(_err, fmt.Sprintf("app %s", in.ID))
		}

		return p.CopyCurrentToVersion(ctx, tx, in.ID, in.Actor)
	})

	if err != nil {
		out = OutUpdate{}
		return
	}

	out.Changed = true
	return
}

// AddIcon bump version and point both icon columns to the object names derived from the new version.
func (p *RepoPostgres) AddIcon(ctx context.Context, in InputAddIcon) (out OutAddIcon, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "apprepo.AddIcon")
	defer span.End()

	err = validator.Validate(in)
	if err != nil {
		err = validationErr(err)
		return
	}

	err = multidb.WithTx(ctx, p.Config.Connection, func(tx *sqlx.Tx) error {
		var version int64
		_err := sqlx.GetContext(ctx, tx, &version, sqlBumpVersion, in.ID)
		if errors.Is(_err, sql.ErrNoRows) {
			return apperr.NotFound("app %s not found", in.ID)
		}

		if _err != nil {
			return fmt.Errorf("bump version of app %s: %w", in.ID, _err)
		}

		icon32, icon64 := IconKeys(in.ID, version)
		if _, _err = tx.ExecContext(ctx, sqlSetIcons, in.ID, icon32, icon64); _err != nil {
			return fmt.Errorf("set icons of app %s: %w", in.ID, _err)
		}

		out = OutAddIcon{Version: version, Icon32: icon32, Icon64: icon64}
		return p.CopyCurrentToVersion(ctx, tx, in.ID, in.Actor)
	})

	if err != nil {
		out = OutAddIcon{}
	}

	return
}

// CopyCurrentToVersion snapshot the current apps row into app_versions.
// It must be called with the transaction that already bumped the version.
func (p *RepoPostgres) CopyCurrentToVersion(ctx context.Context, tx sqlx.ExecerContext, appID, actor string) error {
	res, err := tx.ExecContext(ctx, sqlCopyCurrentToVersion, appID, p.Config.Now().UTC(), actor)
	if err != nil {
		return mapPqError(err, fmt.Sprintf("version of app %s", appID))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("copy app %s to version: %w", appID, err)
	}

	if n != 1 {
		return apperr.NotFound("app %s not found", appID)
	}

	return nil
}

func (p *RepoPostgres) Get(ctx context.Context, in InputGet) (out OutGet, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "apprepo.Get")
	defer span.End()

	err = validator.Validate(in)
	if err != nil {
		err = validationErr(err)
		return
	}

	query := sqlGetApp
	if in.IncludeDeleted {
		query = sqlGetAppDeleted
	}

	err = sqlx.GetContext(ctx, p.Config.Connection, &out.App, query, in.ID)
	if errors.Is(err, sql.ErrNoRows) {
		err = apperr.NotFound("app %s not found", in.ID)
		return
	}

	if err != nil {
		err = fmt.Errorf("get app %s: %w", in.ID, err)
	}

	return
}

func (p *RepoPostgres) GetVersion(ctx context.Context, in InputGetVersion) (out OutGetVersion, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "apprepo.GetVersion")
	defer span.End()

	err = validator.Validate(in)
	if err != nil {
		err = validationErr(err)
		return
	}

	if in.Version < 1 {
		err = apperr.BadRequest("version must be a positive number, got %d", in.Version)
		return
	}

	err = sqlx.GetContext(ctx, p.Config.Connection, &out.Version, sqlGetVersion, in.ID, in.Version)
	if errors.Is(err, sql.ErrNoRows) {
		err = apperr.NotFound("version %d of app %s not found", in.Version, in.ID)
		return
	}

	if err != nil {
		err = fmt.Errorf("get version %d of app %s: %w", in.Version, in.ID, err)
	}

	return
}

func (p *RepoPostgres) ListVersions(ctx context.Context, in InputListVersions) (out OutListVersions, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "apprepo.ListVersions")
	defer span.End()

	err = validator.Validate(in)
	if err != nil {
		err = validationErr(err)
		return
	}

	page := paging.Page{Offset: in.Offset, Limit: in.Limit}.Clamp()

	err = sqlx.GetContext(ctx, p.Config.Connection, &out.Total, sqlCountVersions, in.ID)
	if err != nil {
		err = fmt.Errorf("cannot count versions of app %s: %w", in.ID, err)
		return
	}

	out.Versions = make([]AppVersion, 0)
	if out.Total <= 0 {
		return
	}

	err = sqlx.SelectContext(ctx, p.Config.Connection, &out.Versions, sqlListVersions, in.ID, page.Limit, page.Offset)
	if err != nil {
		err = fmt.Errorf("cannot list versions of app %s: %w", in.ID, err)
	}

	return
}

func (p *RepoPostgres) List(ctx context.Context, in InputList) (out OutList, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "apprepo.List")
	defer span.End()

	page := paging.Page{Offset: in.Offset, Limit: in.Limit}.Clamp()

	err = sqlx.GetContext(ctx, p.Config.Connection, &out.Total, sqlCountApps, in.Vendor, in.PublicOnly)
	if err != nil {
		err = fmt.Errorf("cannot count list of apps: %w", err)
		return
	}

	out.Apps = make([]App, 0)
	if out.Total <= 0 {
		return
	}

	err = sqlx.SelectContext(ctx, p.Config.Connection, &out.Apps, sqlListApps, in.Vendor, in.PublicOnly, page.Limit, page.Offset)
	if err != nil {
		err = fmt.Errorf("cannot get list of apps: %w", err)
	}

	return
}

// checkStacks fail with Unprocessable when any stack is not registered.
func (p *RepoPostgres) checkStacks(ctx context.Context, q sqlx.QueryerContext, stacks []string) error {
	if len(stacks) == 0 {
		return nil
	}

	unknown := make([]string, 0)
	err := sqlx.SelectContext(ctx, q, &unknown, sqlFindUnknownStacks, pq.Array(stacks))
	if err != nil {
		return fmt.Errorf("check stacks: %w", err)
	}

	if len(unknown) > 0 {
		return apperr.Unprocessable("unknown stack: %s", strings.Join(unknown, ", "))
	}

	return nil
}

func validatePayload(p Payload) error {
	if err := validator.Validate(p); err != nil {
		return validationErr(err)
	}

	return nil
}

func validationErr(err error) error {
	return apperr.BadRequest("validation error: %s", err)
}

// mapPqError translate constraint violations into domain errors, anything else is wrapped as is.
func mapPqError(err error, subject string) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return fmt.Errorf("%s: %w", subject, err)
	}

	switch pqErr.Code {
	case "23505": // unique_violation
		return apperr.AlreadyExists("%s already exists", subject)
	case "23503": // foreign_key_violation
		return apperr.Unprocessable("%s references an unknown record", subject)
	default:
		return fmt.Errorf("%s: %w", subject, err)
	}
}
