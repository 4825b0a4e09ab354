package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/deckforge/internal/scoring"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[scoring]
synergy = 2.5

[builder]
beam_width = 25

[tables]
corpus_path = "decks.json"
watch = true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.Scoring.Synergy)
	assert.Equal(t, scoring.DefaultWeights().Meta, cfg.Scoring.Meta)
	assert.Equal(t, 25, cfg.Builder.BeamWidth)
	assert.Equal(t, 8, cfg.Builder.DeckSize)
	assert.True(t, cfg.Tables.Watch)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[scoring\nsynergy = "), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.API.Port = 9090
	cfg.Tables.RolesPath = "roles.json"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "negative weight", mutate: func(c *Config) { c.Scoring.Frequency = -1 }},
		{name: "negative beam", mutate: func(c *Config) { c.Builder.BeamWidth = -2 }},
		{name: "bad debounce", mutate: func(c *Config) { c.Tables.Debounce = "soon" }},
		{name: "watch without corpus", mutate: func(c *Config) { c.Tables.Watch = true }},
		{name: "bad port", mutate: func(c *Config) { c.API.Port = 70000 }},
		{name: "negative rate", mutate: func(c *Config) { c.API.RateLimit = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate() = nil, want error")
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	got, err := ResolvePath("explicit.toml")
	require.NoError(t, err)
	assert.Equal(t, "explicit.toml", got)

	t.Setenv(EnvConfigPath, "/etc/deckforge.toml")
	got, err = ResolvePath("")
	require.NoError(t, err)
	assert.Equal(t, "/etc/deckforge.toml", got)
}
