package db

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	migrations "github.com/joshmarlow/data-schema/db"
)

// MigrationsTable is the table golang-migrate records the schema version in
const MigrationsTable = "go_schema_migrations"

// WithMigrationsTable returns the database URL with the custom migrations table parameter
func WithMigrationsTable(dbURL string) string {
	if dbURL == "" {
		return ""
	}
	if strings.Contains(dbURL, "?") {
		return dbURL + "&x-migrations-table=" + MigrationsTable
	}
	return dbURL + "?x-migrations-table=" + MigrationsTable
}

// NewMigrate creates a migrate instance for dbURL. Migrations are read from dir when it
// is set and from the embedded migrations otherwise.
func NewMigrate(dbURL, dir string) (*migrate.Migrate, error) {
	if dir != "" {
		return newMigrate(dbURL, os.DirFS(dir), ".")
	}
	return newMigrate(dbURL, migrations.Migrations, "migrations")
}

func newMigrate(dbURL string, fsys fs.FS, path string) (*migrate.Migrate, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	d, err := iofs.New(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	return migrate.NewWithSourceInstance("iofs", d, WithMigrationsTable(dbURL))
}

// MigrateUp applies all pending migrations. It returns the resulting version and whether
// anything was applied.
func MigrateUp(dbURL, dir string) (uint, bool, error) {
	m, err := NewMigrate(dbURL, dir)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	applied := true
	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return 0, false, fmt.Errorf("migration failed: %w", err)
		}
		applied = false
	}

	version, _, _ := m.Version()
	return version, applied, nil
}
