package pgsql

import (
	"context"
	"fmt"

	"github.com/stevelaver/developer-portal-sub000/pkg/tracer"
	"go.opentelemetry.io/otel/trace"
)

// CreateStacksTable1664582460 is struct to define a migration with ID 1664582460_create_stacks_table
type CreateStacksTable1664582460 struct{}

func (m CreateStacksTable1664582460) ID(ctx context.Context) string {
	return fmt.Sprintf("%d_%s.sql", 1664582460, "create_stacks_table")
}

func (m CreateStacksTable1664582460) SequenceNumber(ctx context.Context) int {
	return 1664582460
}

// Up return sql migration for sync database
func (m CreateStacksTable1664582460) Up(ctx context.Context) (sql string, err error) {
	var span trace.Span
	_, span = tracer.StartSpan(ctx, "CreateStacksTable1664582460.Up")
	defer span.End()

	sql = `
CREATE TABLE IF NOT EXISTS stacks (
	name VARCHAR(128) NOT NULL PRIMARY KEY
);

INSERT INTO stacks (name) VALUES
	('connection.keboola.com'),
	('connection.eu-central-1.keboola.com'),
	('connection.north-europe.azure.keboola.com')
ON CONFLICT (name) DO NOTHING;`
	return
}

// Down return sql migration for rollback database
func (m CreateStacksTable1664582460) Down(ctx context.Context) (sql string, err error) {
	var span trace.Span
	_, span = tracer.StartSpan(ctx, "CreateStacksTable1664582460.Down")
	defer span.End()

	sql = `DROP TABLE IF EXISTS stacks;`
	return
}
