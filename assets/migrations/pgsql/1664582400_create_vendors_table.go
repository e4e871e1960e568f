package pgsql

import (
	"context"
	"fmt"

	"github.com/stevelaver/developer-portal-sub000/pkg/tracer"
	"go.opentelemetry.io/otel/trace"
)

// CreateVendorsTable1664582400 is struct to define a migration with ID 1664582400_create_vendors_table
type CreateVendorsTable1664582400 struct{}

func (m CreateVendorsTable1664582400) ID(ctx context.Context) string {
	return fmt.Sprintf("%d_%s.sql", 1664582400, "create_vendors_table")
}

func (m CreateVendorsTable1664582400) SequenceNumber(ctx context.Context) int {
	return 1664582400
}

// Up return sql migration for sync database
func (m CreateVendorsTable1664582400) Up(ctx context.Context) (sql string, err error) {
	var span trace.Span
	_, span = tracer.StartSpan(ctx, "CreateVendorsTable1664582400.Up")
	defer span.End()

	sql = `
CREATE TABLE IF NOT EXISTS vendors (
	id VARCHAR(32) NOT NULL PRIMARY KEY,
	name VARCHAR(128) NOT NULL,
	address TEXT NOT NULL DEFAULT '',
	email VARCHAR(128) NOT NULL,
	is_public BOOLEAN NOT NULL DEFAULT FALSE,
	is_approved BOOLEAN NOT NULL DEFAULT FALSE,
	created_on TIMESTAMP WITH TIME ZONE NOT NULL,
	created_by VARCHAR(128) NOT NULL
);`
	return
}

// Down return sql migration for rollback database
func (m CreateVendorsTable1664582400) Down(ctx context.Context) (sql string, err error) {
	var span trace.Span
	_, span = tracer.StartSpan(ctx, "CreateVendorsTable1664582400.Down")
	defer span.End()

	sql = `DROP TABLE IF EXISTS vendors;`
	return
}
