package storage

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator applies the embedded schema migrations to a SQLite file.
type Migrator struct {
	migrate *migrate.Migrate
	source  source.Driver
}

func newSource() (source.Driver, error) {
	dir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to access migrations directory: %w", err)
	}
	drv, err := iofs.New(dir, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}
	return drv, nil
}

// sqliteURL builds a migrate database URL; Windows paths get a leading slash.
func sqliteURL(path string) string {
	p := filepath.ToSlash(path)
	if filepath.IsAbs(path) && p[0] != '/' {
		p = "/" + p
	}
	return "sqlite://" + p
}

// NewMigrator opens dbPath for migration.
func NewMigrator(dbPath string) (*Migrator, error) {
	src, err := newSource()
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, sqliteURL(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	// A second source instance so Latest does not move the one migrate reads.
	latest, err := newSource()
	if err != nil {
		m.Close()
		return nil, err
	}
	return &Migrator{migrate: m, source: latest}, nil
}

// Up applies every pending migration.
func (m *Migrator) Up() error {
	if err := m.migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Steps applies n up (n > 0) or down (n < 0) migrations.
func (m *Migrator) Steps(n int) error {
	if err := m.migrate.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate %d steps: %w", n, err)
	}
	return nil
}

// Version returns the applied version; 0 for an unmigrated database.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Latest returns the highest embedded migration version.
func (m *Migrator) Latest() (uint, error) {
	v, err := m.source.First()
	if err != nil {
		return 0, fmt.Errorf("no migrations embedded: %w", err)
	}
	for {
		next, err := m.source.Next(v)
		if errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to walk migrations: %w", err)
		}
		v = next
	}
}

// Close releases both the source and database handles.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.migrate.Close()
	return errors.Join(srcErr, dbErr, m.source.Close())
}

// migrateUp brings the database at path to the latest version and returns it.
func migrateUp(path string, logger zerolog.Logger) (version uint, err error) {
	m, err := NewMigrator(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close migrator: %w", closeErr)
		}
	}()

	from, dirty, err := m.Version()
	if err != nil {
		return 0, err
	}
	if dirty {
		return 0, fmt.Errorf("database schema is dirty at version %d", from)
	}
	if err := m.Up(); err != nil {
		return 0, err
	}
	to, _, err := m.Version()
	if err != nil {
		return 0, err
	}
	if to != from {
		logger.Info().Uint("from", from).Uint("to", to).Msg("Applied schema migrations")
	}
	return to, nil
}
