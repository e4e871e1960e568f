package pgsql

import (
	"context"
	"fmt"

	"github.com/stevelaver/developer-portal-sub000/pkg/tracer"
	"go.opentelemetry.io/otel/trace"
)

// CreateInvitationsTable1664582640 is struct to define a migration with ID 1664582640_create_invitations_table
type CreateInvitationsTable1664582640 struct{}

func (m CreateInvitationsTable1664582640) ID(ctx context.Context) string {
	return fmt.Sprintf("%d_%s.sql", 1664582640, "create_invitations_table")
}

func (m CreateInvitationsTable1664582640) SequenceNumber(ctx context.Context) int {
	return 1664582640
}

// Up return sql migration for sync database
func (m CreateInvitationsTable1664582640) Up(ctx context.Context) (sql string, err error) {
	var span trace.Span
	_, span = tracer.StartSpan(ctx, "CreateInvitationsTable1664582640.Up")
	defer span.End()

	sql = `
CREATE TABLE IF NOT EXISTS invitations (
	code VARCHAR(64) NOT NULL PRIMARY KEY,
	vendor VARCHAR(32) NOT NULL REFERENCES vendors (id) ON UPDATE CASCADE ON DELETE CASCADE,
	email VARCHAR(128) NOT NULL,
	created_by VARCHAR(128) NOT NULL,
	created_on TIMESTAMP WITH TIME ZONE NOT NULL,
	accepted_on TIMESTAMP WITH TIME ZONE NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS invitations_active_idx ON invitations (vendor, LOWER(email)) WHERE accepted_on IS NULL;`
	return
}

// Down return sql migration for rollback database
func (m CreateInvitationsTable1664582640) Down(ctx context.Context) (sql string, err error) {
	var span trace.Span
	_, span = tracer.StartSpan(ctx, "CreateInvitationsTable1664582640.Down")
	defer span.End()

	sql = `DROP TABLE IF EXISTS invitations;`
	return
}
