package pgsql

import (
	"context"
	"fmt"

	"github.com/stevelaver/developer-portal-sub000/pkg/tracer"
	"go.opentelemetry.io/otel/trace"
)

// CreateAppsTable1664582520 is struct to define a migration with ID 1664582520_create_apps_table
type CreateAppsTable1664582520 struct{}

func (m CreateAppsTable1664582520) ID(ctx context.Context) string {
	return fmt.Sprintf("%d_%s.sql", 1664582520, "create_apps_table")
}

func (m CreateAppsTable1664582520) SequenceNumber(ctx context.Context) int {
	return 1664582520
}

// Up return sql migration for sync database
func (m CreateAppsTable1664582520) Up(ctx context.Context) (sql string, err error) {
	var span trace.Span
	_, span = tracer.StartSpan(ctx, "CreateAppsTable1664582520.Up")
	defer span.End()

	sql = `
CREATE TABLE IF NOT EXISTS apps (
	id VARCHAR(128) NOT NULL PRIMARY KEY,
	vendor VARCHAR(32) NOT NULL REFERENCES vendors (id) ON UPDATE CASCADE,
	version BIGINT NOT NULL DEFAULT 1,
	name VARCHAR(128) NOT NULL,
	type VARCHAR(32) NOT NULL DEFAULT 'other',
	repo_type VARCHAR(32) NOT NULL DEFAULT '',
	repo_uri VARCHAR(255) NOT NULL DEFAULT '',
	repo_tag VARCHAR(64) NOT NULL DEFAULT '',
	repo_options JSONB NULL,
	short_description TEXT NOT NULL DEFAULT '',
	long_description TEXT NOT NULL DEFAULT '',
	license_url VARCHAR(255) NOT NULL DEFAULT '',
	documentation_url VARCHAR(255) NOT NULL DEFAULT '',
	required_memory VARCHAR(16) NOT NULL DEFAULT '',
	process_timeout BIGINT NOT NULL DEFAULT 0,
	encryption BOOLEAN NOT NULL DEFAULT FALSE,
	default_bucket BOOLEAN NOT NULL DEFAULT FALSE,
	default_bucket_stage VARCHAR(16) NOT NULL DEFAULT '',
	forward_token BOOLEAN NOT NULL DEFAULT FALSE,
	forward_token_details BOOLEAN NOT NULL DEFAULT FALSE,
	inject_environment BOOLEAN NOT NULL DEFAULT FALSE,
	logger_type VARCHAR(16) NOT NULL DEFAULT '',
	logger_configuration JSONB NULL,
	ui_options JSONB NULL,
	configuration_schema JSONB NULL,
	test_configuration JSONB NULL,
	empty_configuration JSONB NULL,
	permissions JSONB NULL,
	icon32 VARCHAR(255) NULL,
	icon64 VARCHAR(255) NULL,
	is_public BOOLEAN NOT NULL DEFAULT FALSE,
	is_deprecated BOOLEAN NOT NULL DEFAULT FALSE,
	expired_on TIMESTAMP WITH TIME ZONE NULL,
	replacement_app VARCHAR(128) NULL,
	is_approved BOOLEAN NOT NULL DEFAULT FALSE,
	deleted_on TIMESTAMP WITH TIME ZONE NULL,
	created_on TIMESTAMP WITH TIME ZONE NOT NULL,
	created_by VARCHAR(128) NOT NULL
);

CREATE INDEX IF NOT EXISTS apps_vendor_idx ON apps (vendor);`
	return
}

// Down return sql migration for rollback database
func (m CreateAppsTable1664582520) Down(ctx context.Context) (sql string, err error) {
	var span trace.Span
	_, span = tracer.StartSpan(ctx, "CreateAppsTable1664582520.Down")
	defer span.End()

	sql = `DROP TABLE IF EXISTS apps;`
	return
}
