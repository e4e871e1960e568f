package pgsql

import (
	"context"
	"fmt"

	"github.com/stevelaver/developer-portal-sub000/pkg/tracer"
	"go.opentelemetry.io/otel/trace"
)

// CreateAppVersionsTable1664582580 is struct to define a migration with ID 1664582580_create_app_versions_table
type CreateAppVersionsTable1664582580 struct{}

func (m CreateAppVersionsTable1664582580) ID(ctx context.Context) string {
	return fmt.Sprintf("%d_%s.sql", 1664582580, "create_app_versions_table")
}

func (m CreateAppVersionsTable1664582580) SequenceNumber(ctx context.Context) int {
	return 1664582580
}

// Up return sql migration for sync database
func (m CreateAppVersionsTable1664582580) Up(ctx context.Context) (sql string, err error) {
	var span trace.Span
	_, span = tracer.StartSpan(ctx, "CreateAppVersionsTable1664582580.Up")
	defer span.End()

	sql = `
CREATE TABLE IF NOT EXISTS app_versions (
	id VARCHAR(128) NOT NULL REFERENCES apps (id) ON UPDATE CASCADE ON DELETE CASCADE,
	version BIGINT NOT NULL,
	name VARCHAR(128) NOT NULL,
	type VARCHAR(32) NOT NULL,
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
	created_on TIMESTAMP WITH TIME ZONE NOT NULL,
	created_by VARCHAR(128) NOT NULL,
	PRIMARY KEY (id, version)
);`
	return
}

// Down return sql migration for rollback database
func (m CreateAppVersionsTable1664582580) Down(ctx context.Context) (sql string, err error) {
	var span trace.Span
	_, span = tracer.StartSpan(ctx, "CreateAppVersionsTable1664582580.Down")
	defer span.End()

	sql = `DROP TABLE IF EXISTS app_versions;`
	return
}
