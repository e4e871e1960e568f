package vendorrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
	"github.com/stevelaver/developer-portal-sub000/pkg/multidb"
	"github.com/stevelaver/developer-portal-sub000/pkg/paging"
	"github.com/stevelaver/developer-portal-sub000/pkg/tracer"
	"github.com/stevelaver/developer-portal-sub000/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	sqlVendorColumns = `id, name, address, email, is_public, is_approved, created_on, created_by`

	sqlCreateVendor = `INSERT INTO vendors (id, name, address, email, is_public, is_approved, created_on, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (id) DO NOTHING RETURNING ` + sqlVendorColumns + `;`
	sqlGetVendor          = `SELECT ` + sqlVendorColumns + ` FROM vendors WHERE id = $1 LIMIT 1;`
	sqlGetVendorForUpdate = `SELECT ` + sqlVendorColumns + ` FROM vendors WHERE id = $1 LIMIT 1 FOR UPDATE;`
	sqlCountVendors       = `SELECT COUNT(*) AS total FROM vendors;`
	sqlListVendors        = `SELECT ` + sqlVendorColumns + ` FROM vendors ORDER BY id ASC LIMIT $1 OFFSET $2;`
	sqlApproveVendor      = `UPDATE vendors SET is_approved = true WHERE id = $1 RETURNING ` + sqlVendorColumns + `;`
	sqlVendorExists       = `SELECT EXISTS (SELECT 1 FROM vendors WHERE id = $1);`
	sqlVendorHasApps      = `SELECT EXISTS (SELECT 1 FROM apps WHERE vendor = $1);`
	sqlMoveInvitations    = `UPDATE invitations SET vendor = $2 WHERE vendor = $1;`
	sqlDeleteVendor       = `DELETE FROM vendors WHERE id = $1;`
)

type DB interface {
	sqlx.ExtContext
	multidb.TxBeginner
}

type PostgresConfig struct {
	Connection DB `validate:"required"`
}

type Postgres struct {
	Config PostgresConfig
}

var _ Repo = (*Postgres)(nil)

func NewPostgres(cfg PostgresConfig) (*Postgres, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, err
	}

	return &Postgres{Config: cfg}, nil
}

func (p *Postgres) Create(ctx context.Context, in InputCreate) (out OutCreate, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "vendorrepo.Create")
	defer span.End()

	v := in.Vendor
	err = sqlx.GetContext(ctx, p.Config.Connection, &out.Vendor, sqlCreateVendor,
		v.ID, v.Name, v.Address, v.Email, v.IsPublic, v.IsApproved, v.CreatedOn.UTC(), v.CreatedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		err = apperr.AlreadyExists("vendor %s already exists", v.ID)
		return
	}

	if err != nil {
		err = fmt.Errorf("insert vendor %s: %w", v.ID, err)
	}

	return
}

func (p *Postgres) Get(ctx context.Context, in InputGet) (out OutGet, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "vendorrepo.Get")
	defer span.End()

	err = sqlx.GetContext(ctx, p.Config.Connection, &out.Vendor, sqlGetVendor, in.ID)
	if errors.Is(err, sql.ErrNoRows) {
		err = apperr.NotFound("vendor %s not found", in.ID)
		return
	}

	if err != nil {
		err = fmt.Errorf("get vendor %s: %w", in.ID, err)
	}

	return
}

func (p *Postgres) List(ctx context.Context, in InputList) (out OutList, err error) {
	page := paging.Page{Offset: in.Offset, Limit: in.Limit}.Clamp()

	err = sqlx.GetContext(ctx, p.Config.Connection, &out.Total, sqlCountVendors)
	if err != nil {
		err = fmt.Errorf("cannot count vendors: %w", err)
		return
	}

	out.Vendors = make([]Vendor, 0)
	if out.Total <= 0 {
		return
	}

	err = sqlx.SelectContext(ctx, p.Config.Connection, &out.Vendors, sqlListVendors, page.Limit, page.Offset)
	if err != nil {
		err = fmt.Errorf("cannot list vendors: %w", err)
	}

	return
}

// Approve mark vendor approved. With NewID the vendor row is re-inserted under the new id,
// its invitations follow and the old row is removed, all in one transaction.
func (p *Postgres) Approve(ctx context.Context, in InputApprove) (out OutApprove, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "vendorrepo.Approve")
	defer span.End()

	if err = validator.Validate(in); err != nil {
		err = apperr.BadRequest("validation error: %s", err)
		return
	}

	err = multidb.WithTx(ctx, p.Config.Connection, func(tx *sqlx.Tx) error {
		var current Vendor
		_err := sqlx.GetContext(ctx, tx, &current, sqlGetVendorForUpdate, in.ID)
		if errors.Is(_err, sql.ErrNoRows) {
			return apperr.NotFound("vendor %s not found", in.ID)
		}

		if _err != nil {
			return fmt.Errorf("lock vendor %s: %w", in.ID, _err)
		}

		if current.IsApproved {
			return apperr.BadRequest("vendor %s is already approved", in.ID)
		}

		if in.NewID == "" || in.NewID == in.ID {
			return sqlx.GetContext(ctx, tx, &out.Vendor, sqlApproveVendor, in.ID)
		}

		return p.rename(ctx, tx, current, in.NewID, &out.Vendor)
	})

	if err != nil {
		out = OutApprove{}
	}

	return
}

func (p *Postgres) rename(ctx context.Context, tx *sqlx.Tx, current Vendor, newID string, dst *Vendor) error {
	var exists bool
	if err := sqlx.GetContext(ctx, tx, &exists, sqlVendorExists, newID); err != nil {
		return fmt.Errorf("check vendor %s: %w", newID, err)
	}

	if exists {
		return apperr.AlreadyExists("vendor %s already exists", newID)
	}

	// app ids embed the vendor id
	var hasApps bool
	if err := sqlx.GetContext(ctx, tx, &hasApps, sqlVendorHasApps, current.ID); err != nil {
		return fmt.Errorf("check apps of vendor %s: %w", current.ID, err)
	}

	if hasApps {
		return apperr.BadRequest("vendor %s already has apps and cannot be renamed", current.ID)
	}

	err := sqlx.GetContext(ctx, tx, dst, sqlCreateVendor,
		newID, current.Name, current.Address, current.Email, current.IsPublic, true, current.CreatedOn.UTC(), current.CreatedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.AlreadyExists("vendor %s already exists", newID)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return apperr.AlreadyExists("vendor %s already exists", newID)
	}

	if err != nil {
		return fmt.Errorf("insert renamed vendor %s: %w", newID, err)
	}

	if _, err = tx.ExecContext(ctx, sqlMoveInvitations, current.ID, newID); err != nil {
		return fmt.Errorf("move invitations to %s: %w", newID, err)
	}

	if _, err = tx.ExecContext(ctx, sqlDeleteVendor, current.ID); err != nil {
		return fmt.Errorf("delete vendor %s: %w", current.ID, err)
	}

	return nil
}
