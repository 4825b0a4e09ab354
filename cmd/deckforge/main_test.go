package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const corpusJSON = `[
	[{"name":"Knight"},{"name":"Archers"},{"name":"Fireball"},{"name":"Goblin Barrel"},{"name":"Princess"},{"name":"The Log"},{"name":"Inferno Tower"},{"name":"Goblin Gang"}],
	[{"name":"Hog Rider"},{"name":"Musketeer"},{"name":"Fireball"},{"name":"The Log"},{"name":"Cannon"},{"name":"Ice Spirit"},{"name":"Skeletons"},{"name":"Ice Golem"}],
	[{"name":"Hog Rider"},{"name":"Valkyrie"},{"name":"Fireball"},{"name":"Zap"},{"name":"Cannon"},{"name":"Musketeer"},{"name":"Skeletons"},{"name":"Knight"}]
]`

type fixture struct {
	dir        string
	config     string
	collection string
}

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func newFixture(t *testing.T, withStorage bool) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:        dir,
		config:     filepath.Join(dir, "config.toml"),
		collection: filepath.Join(dir, "collection.json"),
	}
	write(t, filepath.Join(dir, "corpus.json"), corpusJSON)
	write(t, filepath.Join(dir, "roles.json"), `{"wincon":["Hog Rider","Goblin Barrel"],"spell":["Fireball","The Log","Zap"],"building":["Cannon","Inferno Tower"]}`)

	var owned []string
	for _, n := range []string{"Knight", "Archers", "Fireball", "Goblin Barrel", "Princess", "The Log", "Inferno Tower",
		"Goblin Gang", "Hog Rider", "Musketeer", "Cannon", "Ice Spirit", "Skeletons", "Ice Golem", "Valkyrie", "Zap"} {
		owned = append(owned, `{"name":"`+n+`","rarity":"common","level":12}`)
	}
	write(t, f.collection, "["+strings.Join(owned, ",")+"]")

	cfg := `[tables]
roles_path = "` + filepath.ToSlash(filepath.Join(dir, "roles.json")) + `"
corpus_path = "` + filepath.ToSlash(filepath.Join(dir, "corpus.json")) + `"

[log]
level = "disabled"
`
	if withStorage {
		cfg += "\n[storage]\npath = \"" + filepath.ToSlash(filepath.Join(dir, "deckforge.db")) + "\"\nauto_migrate = true\n"
	}
	write(t, f.config, cfg)
	return f
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func TestRun_Usage(t *testing.T) {
	_, err := runCLI(t)
	assert.ErrorIs(t, err, errUsage)

	f := newFixture(t, false)
	_, err = runCLI(t, "-config", f.config, "bogus")
	assert.ErrorIs(t, err, errUsage)
}

func TestRun_Version(t *testing.T) {
	out, err := runCLI(t, "-version")
	require.NoError(t, err)
	assert.Equal(t, "deckforge dev\n", out)
}

func TestRun_ExportCards(t *testing.T) {
	f := newFixture(t, false)
	out, err := runCLI(t, "-config", f.config, "export", "-type", "cards", "-top", "3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "rank,name,decks,freq_norm,top_partner,partner_pmi", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1,Fireball,3,"))

	_, err = runCLI(t, "-config", f.config, "export", "-type", "decks")
	assert.Error(t, err)
}

func TestRun_Build(t *testing.T) {
	f := newFixture(t, false)
	out, err := runCLI(t, "-config", f.config, "build", "-collection", f.collection)
	require.NoError(t, err)

	var got struct {
		Cards []string `json:"cards"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got.Cards, 8)

	_, err = runCLI(t, "-config", f.config, "build")
	assert.ErrorIs(t, err, errNoResult)
}

func TestRun_OptimizeAndScore(t *testing.T) {
	f := newFixture(t, false)
	deckPath := filepath.Join(f.dir, "deck.json")
	write(t, deckPath, `[{"name":"Hog Rider"},{"name":"Musketeer"},{"name":"Fireball"},{"name":"The Log"},{"name":"Cannon"},{"name":"Ice Spirit"},{"name":"Skeletons"},{"name":"Ice Golem"}]`)

	out, err := runCLI(t, "-config", f.config, "optimize", "-deck", deckPath, "-collection", f.collection)
	require.NoError(t, err)
	assert.Contains(t, out, "replacements")

	out, err = runCLI(t, "-config", f.config, "score", "-deck", "Hog Rider,Musketeer,Fireball,The Log,Cannon,Ice Spirit,Skeletons,Ice Golem")
	require.NoError(t, err)
	assert.Contains(t, out, "roleCounts")
}

func TestRun_Suggest(t *testing.T) {
	f := newFixture(t, false)
	out, err := runCLI(t, "-config", f.config, "suggest", "-partial", "Hog Rider", "-k", "2", "-collection", f.collection)
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got, 2)
}

func TestRun_ReportAndImport(t *testing.T) {
	f := newFixture(t, true)
	reportPath := filepath.Join(f.dir, "report.html")
	_, err := runCLI(t, "-config", f.config, "report", "-out", reportPath, "-top", "5")
	require.NoError(t, err)
	_, err = os.Stat(reportPath)
	assert.NoError(t, err)

	extra := filepath.Join(f.dir, "extra.json")
	write(t, extra, `[[{"name":"Royal Giant"},{"name":"Fisherman"},{"name":"Fireball"},{"name":"The Log"},{"name":"Hunter"},{"name":"Electro Spirit"},{"name":"Skeletons"},{"name":"Mother Witch"}]]`)
	out, err := runCLI(t, "-config", f.config, "import", "-corpus", extra)
	require.NoError(t, err)

	var got map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 1, got["imported"])
	assert.Equal(t, 4, got["corpusDecks"])
}
