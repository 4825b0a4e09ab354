package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/deckforge/internal/cards"
	"github.com/ramonehamilton/deckforge/internal/config"
)

const corpusJSON = `[
	[{"name":"Knight"},{"name":"Archers"},{"name":"Fireball"},{"name":"Goblin Barrel"},{"name":"Princess"},{"name":"The Log"},{"name":"Inferno Tower"},{"name":"Goblin Gang"}],
	[{"name":"Hog Rider"},{"name":"Musketeer"},{"name":"Fireball"},{"name":"The Log"},{"name":"Cannon"},{"name":"Ice Spirit"},{"name":"Skeletons"},{"name":"Ice Golem"}]
]`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Log.Level = "disabled"
	cfg.Tables.CorpusPath = filepath.Join(dir, "corpus.json")
	cfg.Tables.RolesPath = filepath.Join(dir, "roles.json")
	require.NoError(t, os.WriteFile(cfg.Tables.CorpusPath, []byte(corpusJSON), 0o644))
	require.NoError(t, os.WriteFile(cfg.Tables.RolesPath, []byte(`{"spell":["Fireball","The Log"]}`), 0o644))
	return cfg
}

func TestSetup_FileOnly(t *testing.T) {
	rt, err := Setup(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer rt.Close()

	assert.True(t, rt.Engine.Ready())
	assert.Nil(t, rt.Store)
	assert.Nil(t, rt.Watcher)
	assert.Equal(t, 2, rt.Engine.Model().DeckCount())
}

func TestSetup_WithStorage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Path = filepath.Join(t.TempDir(), "deckforge.db")
	cfg.Tables.Watch = true

	rt, err := Setup(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, rt.Store)
	require.NotNil(t, rt.Watcher)
	assert.Equal(t, 2, rt.Engine.Model().DeckCount())
	require.NoError(t, rt.Close())

	// A second start finds the decks already stored.
	rt, err = Setup(context.Background(), cfg)
	require.NoError(t, err)
	defer rt.Close()
	n, err := rt.Store.Corpus().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSetup_WatchReloadKeepsImportedDecks(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Path = filepath.Join(t.TempDir(), "deckforge.db")
	cfg.Tables.Watch = true

	ctx := context.Background()
	rt, err := Setup(ctx, cfg)
	require.NoError(t, err)
	defer rt.Close()

	extra := cards.Deck{
		{Name: "Giant"}, {Name: "Witch"}, {Name: "Zap"}, {Name: "Poison"},
		{Name: "Mega Minion"}, {Name: "Bats"}, {Name: "Tombstone"}, {Name: "Lumberjack"},
	}
	_, all, err := rt.Store.ImportCorpus(ctx, []cards.Deck{extra}, "api")
	require.NoError(t, err)
	require.NoError(t, rt.Engine.Publish(ctx, all))
	require.Equal(t, 3, rt.Engine.Model().DeckCount())

	require.NoError(t, rt.Watcher.Reload(ctx, false, true))

	assert.Equal(t, 3, rt.Engine.Model().DeckCount())
	n, err := rt.Store.Corpus().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSetup_NoCorpus(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Log.Level = "disabled"
	rt, err := Setup(context.Background(), cfg)
	require.NoError(t, err)
	defer rt.Close()
	assert.False(t, rt.Engine.Ready())
}

func TestSetup_BadTables(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tables.BackupsPath = filepath.Join(t.TempDir(), "missing.json")
	_, err := Setup(context.Background(), cfg)
	assert.Error(t, err)
}
