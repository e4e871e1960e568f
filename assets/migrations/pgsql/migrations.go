// Package pgsql contains the Postgres schema of the registry.
// Every migration ID is prefixed with the unix time when it was written.
package pgsql

import (
	"github.com/stevelaver/developer-portal-sub000/pkg/migration"
)

// All return every migration in the order they must be applied.
func All() []migration.Migrate {
	return []migration.Migrate{
		CreateVendorsTable1664582400{},
		CreateStacksTable1664582460{},
		CreateAppsTable1664582520{},
		CreateAppVersionsTable1664582580{},
		CreateInvitationsTable1664582640{},
	}
}
