package models

import (
	"context"
	"fmt"

	"photostore/db"
)

const (
	MigrateUp   = "up"
	MigrateDown = "down"

	// schemaVersion mirrors the latest file in db/migrations
	schemaVersion = 1
)

// Migrate applies the schema in the given direction and returns the resulting version.
// PostgreSQL goes through the versioned SQL migrations, SQLite (local/dev) through AutoMigrate.
func Migrate(ctx context.Context, direction string) (uint, error) {
	if direction != MigrateUp && direction != MigrateDown {
		return 0, fmt.Errorf("unknown migration direction %q", direction)
	}
	if db.Dialect() != db.DialectSQLite {
		return db.Migrate(ctx, direction)
	}
	migrator := db.Instance.WithContext(ctx).Migrator()
	if direction == MigrateDown {
		// Reverse order of creation
		if err := migrator.DropTable(&SharedItem{}, &Album{}, &Photo{}); err != nil {
			return 0, err
		}
		return 0, nil
	}
	if err := migrator.AutoMigrate(&Photo{}, &Album{}, &SharedItem{}); err != nil {
		return 0, err
	}
	return schemaVersion, nil
}
