package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig("test.db")

	if config.Path != "test.db" {
		t.Errorf("expected path 'test.db', got '%s'", config.Path)
	}
	if config.MaxOpenConns != 25 {
		t.Errorf("expected MaxOpenConns 25, got %d", config.MaxOpenConns)
	}
	if config.BusyTimeout != 5*time.Second {
		t.Errorf("expected BusyTimeout 5s, got %v", config.BusyTimeout)
	}
	if config.JournalMode != "WAL" {
		t.Errorf("expected JournalMode 'WAL', got '%s'", config.JournalMode)
	}
	if config.AutoMigrate {
		t.Error("expected AutoMigrate to default to false")
	}
}

func TestOpen(t *testing.T) {
	db, err := Open(DefaultConfig(filepath.Join(t.TempDir(), "open.db")))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Errorf("failed to ping database: %v", err)
	}
	if db.Conn() == nil {
		t.Error("expected non-nil connection")
	}
}

func TestOpenWithNilConfig(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Error("expected error when opening with nil config")
	}
	if _, err := Open(DefaultConfig("")); err == nil {
		t.Error("expected error when opening without a path")
	}
}

func TestOpenAutoMigrate(t *testing.T) {
	config := DefaultConfig(filepath.Join(t.TempDir(), "migrated.db"))
	config.AutoMigrate = true
	db, err := Open(config)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	if db.SchemaVersion() != 3 {
		t.Errorf("SchemaVersion() = %d, want 3", db.SchemaVersion())
	}

	// Reopening an up-to-date database is a no-op migration.
	db2, err := Open(config)
	if err != nil {
		t.Fatalf("failed to reopen database: %v", err)
	}
	defer db2.Close()
	if db2.SchemaVersion() != 3 {
		t.Errorf("SchemaVersion() after reopen = %d, want 3", db2.SchemaVersion())
	}
}

func TestOpenInMemory(t *testing.T) {
	config := DefaultConfig(MemoryPath)
	config.AutoMigrate = true
	db, err := Open(config)
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	defer db.Close()
	if db.SchemaVersion() != 0 {
		t.Errorf("in-memory SchemaVersion() = %d, want 0", db.SchemaVersion())
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "deckforge.db")
	db, err := Open(DefaultConfig(path))
	if err != nil {
		t.Fatalf("failed to open database in nested directory: %v", err)
	}
	defer db.Close()
}

func TestClose(t *testing.T) {
	db, err := Open(DefaultConfig(filepath.Join(t.TempDir(), "close.db")))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("failed to close database: %v", err)
	}
	if err := db.Ping(); err == nil {
		t.Error("expected error when pinging closed database")
	}
}
