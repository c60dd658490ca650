package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Migrations collects the schema steps; each file registers itself by name.
var Migrations = migrate.NewMigrations()

// sqlSteps pairs an embedded up script with its rollback statement.
func sqlSteps(up, down string) (migrate.MigrationFunc, migrate.MigrationFunc) {
	return func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, up)
			return err
		}, func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, down)
			return err
		}
}
