package multidb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/multierr"
)

// TxBeginner is satisfied by *sqlx.DB.
type TxBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// WithTx run fn inside one transaction. The transaction is committed when fn returns nil
// and rolled back on any error or panic, so callers never leak an open transaction.
func WithTx(ctx context.Context, db TxBeginner, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		err = fmt.Errorf("begin transaction: %w", err)
		return
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}

		if err != nil {
			if _err := tx.Rollback(); _err != nil {
				err = multierr.Append(err, fmt.Errorf("rollback: %w", _err))
			}
		}
	}()

	err = fn(tx)
	if err != nil {
		return
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("commit transaction: %w", err)
	}

	return
}
