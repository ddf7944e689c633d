// Package migrations registers the bun schema migrations.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the registry the server and cmd/migrate run.
var Migrations = migrate.NewMigrations()

func init() {
	// Migration ids come from the registering file names.
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
}
