package migration

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/stevelaver/developer-portal-sub000/pkg/validator"
)

type SQLImmigrationConfig struct {
	Dialect        string    `validate:"required,oneof=postgres"`
	DB             *sql.DB   `validate:"required"`
	MigrationTable string    `validate:"required"`
	Migrations     []Migrate `validate:"required,min=1,dive,required"`
}

type SQLImmigration struct {
	config SQLImmigrationConfig
	source migrate.MigrationSource
}

var _ Immigration = (*SQLImmigration)(nil)

func NewSQLImmigration(ctx context.Context, config SQLImmigrationConfig) (*SQLImmigration, error) {
	err := validator.Validate(config)
	if err != nil {
		return nil, err
	}

	sorted := make([]Migrate, len(config.Migrations))
	copy(sorted, config.Migrations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SequenceNumber(ctx) < sorted[j].SequenceNumber(ctx)
	})

	seen := make(map[string]struct{}, len(sorted))
	mig := make([]*migrate.Migration, 0, len(sorted))
	for _, m := range sorted {
		id := m.ID(ctx)
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate migration id %s", id)
		}
		seen[id] = struct{}{}

		sqlUp, err := m.Up(ctx)
		if err != nil {
			return nil, fmt.Errorf("migration %s up: %w", id, err)
		}

		sqlDown, err := m.Down(ctx)
		if err != nil {
			return nil, fmt.Errorf("migration %s down: %w", id, err)
		}

		mig = append(mig, &migrate.Migration{
			Id:   id,
			Up:   []string{sqlUp},
			Down: []string{sqlDown},
		})
	}

	return &SQLImmigration{
		config: config,
		source: &migrate.MemoryMigrationSource{Migrations: mig},
	}, nil
}

func (p *SQLImmigration) Up() (int, error) {
	migrate.SetTable(p.config.MigrationTable)
	return migrate.Exec(p.config.DB, p.config.Dialect, p.source, migrate.Up)
}

func (p *SQLImmigration) Down(max int) (int, error) {
	if max < 1 {
		max = 1
	}

	migrate.SetTable(p.config.MigrationTable)
	return migrate.ExecMax(p.config.DB, p.config.Dialect, p.source, migrate.Down, max)
}

// Plan list pending migrations for the direction without executing them.
func (p *SQLImmigration) Plan(up bool) ([]Planned, error) {
	migrate.SetTable(p.config.MigrationTable)

	dir := migrate.Down
	max := 1
	if up {
		dir = migrate.Up
		max = 0
	}

	planned, _, err := migrate.PlanMigration(p.config.DB, p.config.Dialect, p.source, dir, max)
	if err != nil {
		return nil, err
	}

	out := make([]Planned, 0, len(planned))
	for _, pm := range planned {
		out = append(out, Planned{
			ID:      pm.Id,
			Queries: pm.Queries,
		})
	}

	return out, nil
}
