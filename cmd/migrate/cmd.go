package migrate

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/mitchellh/cli"
	"github.com/stevelaver/developer-portal-sub000/assets/migrations/pgsql"
	"github.com/stevelaver/developer-portal-sub000/container"
	"github.com/stevelaver/developer-portal-sub000/extd"
	"github.com/stevelaver/developer-portal-sub000/pkg/migration"
	"github.com/yusufsyaifudin/ylog"
)

const (
	ExitSuccess = 0
	ExitErr     = 1

	migrationTable = "migration_records_devportal"
)

type Cmd struct {
	flags      *flag.FlagSet
	appName    string
	configFile string
	dbLabel    string
	max        int
	out        io.Writer
}

func NewCmd(appName string) func() (cli.Command, error) {
	return func() (cli.Command, error) {
		cmd := &Cmd{
			appName: appName,
			out:     os.Stdout,
		}
		cmd.init()
		return cmd, nil
	}
}

var _ cli.Command = (*Cmd)(nil)
var _ cli.CommandFactory = NewCmd("")

func (c *Cmd) init() {
	c.flags = flag.NewFlagSet("migrate", flag.ContinueOnError)
	c.flags.StringVar(&c.configFile, "config", "config.yml", "Config file to load")
	c.flags.StringVar(&c.configFile, "c", "config.yml", "Alias for config file to load")
	c.flags.StringVar(&c.dbLabel, "db", "", "Database label to migrate, default to services.app.dbLabel")
	c.flags.IntVar(&c.max, "max", 1, "Maximum migrations to roll back on down")
}

func (c *Cmd) Help() string {
	return `Usage: ` + c.appName + ` migrate [-config=config.yml] [-db=label] [-max=1] up|down|print

  up     apply every pending migration
  down   roll back the last -max applied migrations
  print  print the SQL of every migration, no database needed`
}

func (c *Cmd) Synopsis() string {
	return "migrate the registry database schema"
}

func (c *Cmd) Run(args []string) int {
	if err := c.flags.Parse(args); err != nil {
		log.Printf("error parsing argument: %s", err)
		return ExitErr
	}

	ctx := extd.SetupLog(context.Background())
	direction := strings.ToLower(strings.TrimSpace(c.flags.Arg(0)))

	var err error
	switch direction {
	case "print":
		err = Print(ctx, c.out, pgsql.All())
	case "up", "down":
		err = c.migrate(ctx, direction)
	default:
		err = fmt.Errorf("unknown sub command direction: '%s'", direction)
	}

	if err != nil {
		ylog.Error(ctx, "migration failed", ylog.KV("direction", direction), ylog.KV("error", err))
		return ExitErr
	}

	return ExitSuccess
}

func (c *Cmd) migrate(ctx context.Context, direction string) (err error) {
	cfg, err := container.LoadConfig(c.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	label := c.dbLabel
	if label == "" {
		label = cfg.Services.App.DBLabel
	}

	// redis is not needed to migrate
	repos, err := container.SetupRepositories(ctx, cfg.DatabaseResources, container.ConfigRedisResources{})
	if err != nil {
		return fmt.Errorf("prepare repositories: %w", err)
	}

	defer func() {
		if _err := repos.Close(); _err != nil {
			ylog.Error(ctx, "error close db", ylog.KV("error", _err))
		}
	}()

	db, err := repos.SQL(label)
	if err != nil {
		return err
	}

	if err = db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping db error: %w", err)
	}

	mig, err := migration.NewSQLImmigration(ctx, migration.SQLImmigrationConfig{
		Dialect:        "postgres",
		DB:             db.DB,
		MigrationTable: migrationTable,
		Migrations:     pgsql.All(),
	})
	if err != nil {
		return fmt.Errorf("prepare immigration error: %w", err)
	}

	planned, err := mig.Plan(direction == "up")
	if err != nil {
		return fmt.Errorf("plan migration: %w", err)
	}

	for _, p := range planned {
		ylog.Info(ctx, "migration planned", ylog.KV("id", p.ID), ylog.KV("direction", direction))
	}

	var applied int
	if direction == "up" {
		applied, err = mig.Up()
	} else {
		applied, err = mig.Down(c.max)
	}

	if err != nil {
		return fmt.Errorf("query db error: %w", err)
	}

	ylog.Info(ctx, "success migrate", ylog.KV("label", label), ylog.KV("applied", applied))
	return nil
}

// Print write every migration in sql-migrate file format.
func Print(ctx context.Context, w io.Writer, migrations []migration.Migrate) error {
	for _, m := range migrations {
		up, err := m.Up(ctx)
		if err != nil {
			return fmt.Errorf("migration %s up: %w", m.ID(ctx), err)
		}

		down, err := m.Down(ctx)
		if err != nil {
			return fmt.Errorf("migration %s down: %w", m.ID(ctx), err)
		}

		_, err = fmt.Fprintf(w, "-- %s\n\n-- +migrate Up\n%s\n\n-- +migrate Down\n%s\n\n",
			m.ID(ctx), strings.TrimSpace(up), strings.TrimSpace(down))
		if err != nil {
			return err
		}
	}

	return nil
}
