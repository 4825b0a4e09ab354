// Package config loads and validates the deckforge TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ramonehamilton/deckforge/internal/builder"
	"github.com/ramonehamilton/deckforge/internal/scoring"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "DECKFORGE_CONFIG"

// Config represents the application configuration.
type Config struct {
	// Deck objective weights
	Scoring scoring.Weights `toml:"scoring"`

	// Beam search bounds
	Builder builder.Config `toml:"builder"`

	// Static table and corpus files
	Tables TablesConfig `toml:"tables"`

	// SQLite persistence
	Storage StorageConfig `toml:"storage"`

	// HTTP API
	API APIConfig `toml:"api"`

	// Logging
	Log LogConfig `toml:"log"`
}

// TablesConfig points at the JSON inputs loaded at startup.
type TablesConfig struct {
	RolesPath   string `toml:"roles_path"`   // role -> card names
	BackupsPath string `toml:"backups_path"` // card -> ordered backups
	CorpusPath  string `toml:"corpus_path"`  // reference decks
	Watch       bool   `toml:"watch"`        // Reload on file changes
	Debounce    string `toml:"debounce"`     // Quiet period before a reload (e.g., "500ms")
	Workers     int    `toml:"workers"`      // Corpus reduction workers (0 = GOMAXPROCS)
}

// StorageConfig contains database settings.
type StorageConfig struct {
	Path        string `toml:"path"`         // SQLite file; empty disables persistence
	AutoMigrate bool   `toml:"auto_migrate"` // Apply migrations on open
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port           int      `toml:"port"`
	RateLimit      float64  `toml:"rate_limit"` // Requests per second, 0 = unlimited
	RateBurst      int      `toml:"rate_burst"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Scoring: scoring.DefaultWeights(),
		Builder: builder.DefaultConfig(),
		Tables: TablesConfig{
			Debounce: "500ms",
		},
		Storage: StorageConfig{
			Path:        "",
			AutoMigrate: true,
		},
		API: APIConfig{
			Port:           8080,
			RateLimit:      20,
			RateBurst:      40,
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// DefaultPath returns ~/.deckforge/config.toml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".deckforge", "config.toml"), nil
}

// ResolvePath returns path, falling back to $DECKFORGE_CONFIG and then DefaultPath.
func ResolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, nil
	}
	return DefaultPath()
}

// Load reads the configuration at path. Missing files yield the defaults; keys
// absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	w := c.Scoring
	for name, v := range map[string]float64{
		"synergy": w.Synergy, "meta": w.Meta, "level": w.Level,
		"role": w.Role, "hard_constraint": w.HardConstraint, "frequency": w.Frequency,
	} {
		if v < 0 {
			return fmt.Errorf("scoring weight %s cannot be negative: %v", name, v)
		}
	}

	if c.Builder.BeamWidth < 0 {
		return fmt.Errorf("beam width cannot be negative: %d", c.Builder.BeamWidth)
	}
	if c.Builder.DeckSize < 0 {
		return fmt.Errorf("deck size cannot be negative: %d", c.Builder.DeckSize)
	}
	if c.Builder.TopK < 0 {
		return fmt.Errorf("top k cannot be negative: %d", c.Builder.TopK)
	}

	if c.Tables.Debounce != "" {
		if _, err := time.ParseDuration(c.Tables.Debounce); err != nil {
			return fmt.Errorf("invalid debounce %q: %w", c.Tables.Debounce, err)
		}
	}
	if c.Tables.Watch && c.Tables.CorpusPath == "" {
		return errors.New("tables.watch requires tables.corpus_path")
	}

	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid API port: %d", c.API.Port)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("rate limit cannot be negative: %v", c.API.RateLimit)
	}

	return nil
}

// GetDebounce returns the reload debounce as a duration.
func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Tables.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}
