package invitationrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
	"github.com/stevelaver/developer-portal-sub000/pkg/multidb"
	"github.com/stevelaver/developer-portal-sub000/pkg/tracer"
	"github.com/stevelaver/developer-portal-sub000/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	sqlInvitationColumns = `code, vendor, email, created_by, created_on, accepted_on`

	sqlDeletePending    = `DELETE FROM invitations WHERE vendor = $1 AND LOWER(email) = LOWER($2) AND accepted_on IS NULL;`
	sqlInsertInvitation = `INSERT INTO invitations (code, vendor, email, created_by, created_on) VALUES ($1, $2, $3, $4, $5) RETURNING ` + sqlInvitationColumns + `;`
	sqlLockInvitation   = `SELECT ` + sqlInvitationColumns + ` FROM invitations WHERE code = $1 AND vendor = $2 LIMIT 1 FOR UPDATE;`
	sqlAcceptInvitation = `UPDATE invitations SET accepted_on = $2 WHERE code = $1 RETURNING ` + sqlInvitationColumns + `;`
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

func (p *Postgres) Replace(ctx context.Context, in InputReplace) (out OutReplace, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "invitationrepo.Replace")
	defer span.End()

	inv := in.Invitation
	err = multidb.WithTx(ctx, p.Config.Connection, func(tx *sqlx.Tx) error {
		if _, _err := tx.ExecContext(ctx, sqlDeletePending, inv.Vendor, inv.Email); _err != nil {
			return fmt.Errorf("delete pending invitation: %w", _err)
		}

		_err := sqlx.GetContext(ctx, tx, &out.Invitation, sqlInsertInvitation,
			inv.Code, inv.Vendor, inv.Email, inv.CreatedBy, inv.CreatedOn.UTC(),
		)
		if _err != nil {
			return fmt.Errorf("insert invitation: %w", _err)
		}

		return nil
	})

	if err != nil {
		out = OutReplace{}
	}

	return
}

func (p *Postgres) Accept(ctx context.Context, in InputAccept) (out OutAccept, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "invitationrepo.Accept")
	defer span.End()

	if err = validator.Validate(in); err != nil {
		err = apperr.BadRequest("validation error: %s", err)
		return
	}

	err = multidb.WithTx(ctx, p.Config.Connection, func(tx *sqlx.Tx) error {
		var inv Invitation
		_err := sqlx.GetContext(ctx, tx, &inv, sqlLockInvitation, in.Code, in.Vendor)
		if errors.Is(_err, sql.ErrNoRows) {
			return apperr.NotFound("invitation not found")
		}

		if _err != nil {
			return fmt.Errorf("lock invitation: %w", _err)
		}

		// a code addressed to somebody else is reported the same as a missing one
		if !strings.EqualFold(inv.Email, in.Email) {
			return apperr.NotFound("invitation not found")
		}

		if inv.AcceptedOn != nil {
			return apperr.BadRequest("invitation was already accepted")
		}

		if in.Now.Sub(inv.CreatedOn) > in.MaxAge {
			return apperr.BadRequest("invitation has expired")
		}

		_err = sqlx.GetContext(ctx, tx, &out.Invitation, sqlAcceptInvitation, in.Code, in.Now.UTC())
		if _err != nil {
			return fmt.Errorf("accept invitation: %w", _err)
		}

		if in.Confirm == nil {
			return nil
		}

		return in.Confirm(ctx, out.Invitation)
	})

	if err != nil {
		out = OutAccept{}
	}

	return
}
