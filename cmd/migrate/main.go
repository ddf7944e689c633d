// Command migrate manages the outwit database schema and seeds seasons.
package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"

	"github.com/okian/outwit/internal/adapters/repository"
	"github.com/okian/outwit/internal/adapters/repository/migrations"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "migrate",
		Usage:     "outwit database migrations",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "dsn",
				Usage:    "postgres:// URL, or a SQLite file: URI for local runs",
				EnvVars:  []string{"OUTWIT_POSTGRES_DSN"},
				Required: true,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: withMigrator(func(c *cli.Context, m *migrate.Migrator) error {
					if err := m.Init(c.Context); err != nil {
						return err
					}
					_, _ = fmt.Fprintln(c.App.Writer, "migration tables ready")
					return nil
				}),
			},
			{
				Name:  "migrate",
				Usage: "migrate database",
				Action: withMigrator(func(c *cli.Context, m *migrate.Migrator) error {
					group, err := m.Migrate(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						_, _ = fmt.Fprintln(c.App.Writer, "no new migrations to run")
						return nil
					}
					_, _ = fmt.Fprintf(c.App.Writer, "migrated to %s\n", group)
					return nil
				}),
			},
			{
				Name:  "rollback",
				Usage: "rollback the last migration group",
				Action: withMigrator(func(c *cli.Context, m *migrate.Migrator) error {
					group, err := m.Rollback(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						_, _ = fmt.Fprintln(c.App.Writer, "no groups to roll back")
						return nil
					}
					_, _ = fmt.Fprintf(c.App.Writer, "rolled back %s\n", group)
					return nil
				}),
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: withMigrator(func(c *cli.Context, m *migrate.Migrator) error {
					ms, err := m.MigrationsWithStatus(c.Context)
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintf(c.App.Writer, "migrations: %s\n", ms)
					_, _ = fmt.Fprintf(c.App.Writer, "unapplied migrations: %s\n", ms.Unapplied())
					_, _ = fmt.Fprintf(c.App.Writer, "last migration group: %s\n", ms.LastGroup())
					return nil
				}),
			},
			{
				Name:      "seed",
				Usage:     "upsert a season YAML file into a migrated database",
				ArgsUsage: "<season.yaml>",
				Action: func(c *cli.Context) error {
					path := c.Args().First()
					if path == "" {
						return fmt.Errorf("seed: missing season file")
					}
					db, err := openDB(c.String("dsn"))
					if err != nil {
						return err
					}
					store := repository.NewBunStore(db)
					defer func() { _ = store.Close() }()

					season, err := repository.ApplySeedFile(c.Context, store, path)
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintf(c.App.Writer, "seeded %d castaways, %d episodes, %d players\n",
						len(season.Castaways), len(season.Episodes), len(season.Players))
					return nil
				},
			},
		},
	}
}

func withMigrator(action func(*cli.Context, *migrate.Migrator) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		db, err := openDB(c.String("dsn"))
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return action(c, migrate.NewMigrator(db, migrations.Migrations))
	}
}

func openDB(dsn string) (*bun.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		return bun.NewDB(pgdb, pgdialect.New()), nil
	}
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}
