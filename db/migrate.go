package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/url"

	"photostore/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate runs the embedded SQL migrations against PostgreSQL.
// "up" applies everything pending, "down" reverts the latest migration only.
func Migrate(ctx context.Context, direction string) (uint, error) {
	dsn, err := DSN(ctx)
	if err != nil {
		return 0, err
	}
	migrateURL, err := MigrationURL(dsn, config.MIGRATIONS_TABLE)
	if err != nil {
		return 0, err
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL)
	if err != nil {
		return 0, fmt.Errorf("migration init: %w", err)
	}
	defer m.Close()

	// golang-migrate has no context support, so stop the run on cancellation instead
	stop := context.AfterFunc(ctx, func() {
		m.GracefulStop <- true
	})
	defer stop()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	default:
		return 0, fmt.Errorf("unknown migration direction %q", direction)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migration %s: %w", direction, err)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		version, err = 0, nil
	}
	if err != nil {
		return 0, err
	}
	log.WithFields(log.Fields{
		"direction": direction,
		"version":   version,
		"dirty":     dirty,
	}).Info("Migrations applied")
	return version, nil
}

// MigrationURL converts a postgres:// DSN to the pgx5:// scheme used by golang-migrate
// and points it at the given tracking table
func MigrationURL(dsn, table string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid database URL: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql", "pgx5":
		u.Scheme = "pgx5"
	default:
		return "", fmt.Errorf("unsupported database URL scheme %q", u.Scheme)
	}
	if table != "" {
		q := u.Query()
		q.Set("x-migrations-table", table)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
