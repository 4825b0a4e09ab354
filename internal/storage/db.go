// Package storage persists the reference corpus, player collections and saved decks.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // SQLite driver
)

// MemoryPath opens a private in-memory database. Migrations cannot run against it.
const MemoryPath = ":memory:"

// DB wraps the SQLite connection pool.
type DB struct {
	conn   *sql.DB
	schema uint
}

// Config holds database settings.
type Config struct {
	Path string

	// Pool limits.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// SQLite pragmas.
	BusyTimeout time.Duration
	JournalMode string // WAL, DELETE, ...
	Synchronous string // OFF, NORMAL, FULL

	// AutoMigrate applies pending migrations before the pool is opened.
	AutoMigrate bool

	Logger zerolog.Logger
}

// DefaultConfig returns WAL-mode defaults for path. AutoMigrate is off.
func DefaultConfig(path string) *Config {
	return &Config{
		Path:            path,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		BusyTimeout:     5 * time.Second,
		JournalMode:     "WAL",
		Synchronous:     "NORMAL",
		Logger:          zerolog.Nop(),
	}
}

func (c *Config) dsn() string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	q.Add("_pragma", fmt.Sprintf("journal_mode(%s)", c.JournalMode))
	q.Add("_pragma", fmt.Sprintf("synchronous(%s)", c.Synchronous))
	q.Add("_pragma", "foreign_keys(1)")
	return c.Path + "?" + q.Encode()
}

// Open migrates the database when configured to and opens the pool.
func Open(config *Config) (*DB, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}
	if config.Path == "" {
		return nil, errors.New("database path is required")
	}

	db := &DB{}
	if config.Path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(config.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		// golang-migrate needs its own handle, so it runs before the pool exists.
		if config.AutoMigrate {
			version, err := migrateUp(config.Path, config.Logger)
			if err != nil {
				return nil, err
			}
			db.schema = version
		}
	}

	conn, err := sql.Open("sqlite", config.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(config.MaxOpenConns)
	conn.SetMaxIdleConns(config.MaxIdleConns)
	conn.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err := conn.Ping(); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to ping database: %w", err), conn.Close())
	}
	db.conn = conn
	return db, nil
}

// Close closes the pool.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Conn returns the underlying pool.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping verifies the connection is alive.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// SchemaVersion is the migration version applied by Open, or 0 when Open did
// not migrate.
func (db *DB) SchemaVersion() uint {
	return db.schema
}
