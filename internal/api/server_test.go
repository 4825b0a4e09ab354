package api

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/deckforge/internal/backups"
	"github.com/ramonehamilton/deckforge/internal/cards"
	"github.com/ramonehamilton/deckforge/internal/datasets"
	"github.com/ramonehamilton/deckforge/internal/engine"
	"github.com/ramonehamilton/deckforge/internal/metrics"
	"github.com/ramonehamilton/deckforge/internal/roles"
	"github.com/ramonehamilton/deckforge/internal/storage"
)

var corpusNames = [][]string{
	{"Knight", "Archers", "Fireball", "Goblin Barrel", "Princess", "The Log", "Inferno Tower", "Goblin Gang"},
	{"Hog Rider", "Musketeer", "Fireball", "The Log", "Cannon", "Ice Spirit", "Skeletons", "Ice Golem"},
	{"Hog Rider", "Valkyrie", "Fireball", "Zap", "Cannon", "Musketeer", "Skeletons", "Knight"},
}

func deckOf(names []string) cards.Deck {
	d := make(cards.Deck, len(names))
	for i, n := range names {
		d[i] = cards.Card{Name: n, Rarity: cards.RarityCommon, Level: 11}
	}
	return d
}

func testCollection() []cards.Card {
	seen := map[string]bool{}
	var out []cards.Card
	for _, d := range corpusNames {
		for _, n := range d {
			if !seen[n] {
				seen[n] = true
				out = append(out, cards.Card{Name: n, Rarity: cards.RarityCommon, Level: 12})
			}
		}
	}
	return out
}

func newTestServer(t *testing.T, publish bool) (*Server, *storage.Service) {
	t.Helper()
	tables := &datasets.Tables{
		Roles: roles.NewClassifier(map[roles.Role][]string{
			roles.WinCondition: {"Hog Rider", "Goblin Barrel"},
			roles.Spell:        {"Fireball", "The Log", "Zap"},
			roles.Building:     {"Cannon", "Inferno Tower"},
		}),
		Backups: backups.NewGraph(nil),
	}
	eng := engine.New(tables, engine.Options{}, metrics.NewRecorder(), zerolog.Nop())
	if publish {
		var corpus []cards.Deck
		for _, names := range corpusNames {
			corpus = append(corpus, deckOf(names))
		}
		require.NoError(t, eng.Publish(context.Background(), corpus))
	}

	dbCfg := storage.DefaultConfig(filepath.Join(t.TempDir(), "api.db"))
	dbCfg.AutoMigrate = true
	db, err := storage.Open(dbCfg)
	require.NoError(t, err)
	store := storage.NewService(db)
	t.Cleanup(func() { _ = store.Close() })

	cfg := DefaultConfig()
	cfg.RateLimit = 0
	return NewServer(cfg, eng, store, zerolog.Nop()), store
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

func TestHealthCheck(t *testing.T) {
	s, _ := newTestServer(t, true)
	w := doJSON(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "dev", body["version"])
	assert.Equal(t, true, body["ready"])
	assert.EqualValues(t, 3, body["corpusDecks"])
}

func TestNotReadyReturns503(t *testing.T) {
	s, _ := newTestServer(t, false)
	w := doJSON(t, s, http.MethodPost, "/api/v1/score", map[string]any{"deck": corpusNames[0]})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestOptimizeEndpoint(t *testing.T) {
	s, _ := newTestServer(t, true)

	w := doJSON(t, s, http.MethodPost, "/api/v1/optimize", map[string]any{
		"deck":       deckOf(corpusNames[1]),
		"collection": testCollection(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got struct {
		Cards        []cards.Card `json:"cards"`
		Replacements []struct {
			Reason string `json:"reason"`
		} `json:"replacements"`
	}
	decodeData(t, w, &got)
	assert.Len(t, got.Cards, cards.DeckSize)
	assert.Equal(t, "kept_original", got.Replacements[0].Reason)

	w = doJSON(t, s, http.MethodPost, "/api/v1/optimize", map[string]any{"deck": deckOf(corpusNames[1][:3])})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/v1/optimize", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBuildAndSuggestWithStoredCollection(t *testing.T) {
	s, _ := newTestServer(t, true)

	w := doJSON(t, s, http.MethodPut, "/api/v1/collections/P1", map[string]any{"cards": testCollection()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodPost, "/api/v1/build", map[string]any{"playerTag": "P1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var built struct {
		Cards []string `json:"cards"`
	}
	decodeData(t, w, &built)
	assert.Len(t, cards.UniqueNames(built.Cards), cards.DeckSize)

	w = doJSON(t, s, http.MethodPost, "/api/v1/build", map[string]any{"playerTag": "NOBODY"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/v1/suggest", map[string]any{
		"partial":   []string{"Hog Rider"},
		"topK":      2,
		"playerTag": "P1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var sugg []struct {
		Card string `json:"card"`
	}
	decodeData(t, w, &sugg)
	assert.Len(t, sugg, 2)
}

func TestSavedDecksLifecycle(t *testing.T) {
	s, _ := newTestServer(t, true)

	w := doJSON(t, s, http.MethodPost, "/api/v1/decks", map[string]any{"name": "Hog", "cards": corpusNames[1], "source": "build"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var saved struct {
		ID string `json:"id"`
	}
	decodeData(t, w, &saved)
	require.NotEmpty(t, saved.ID)

	w = doJSON(t, s, http.MethodGet, "/api/v1/decks/"+saved.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/v1/decks", map[string]any{"name": "Short", "cards": corpusNames[1][:4], "source": "copied"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var verr struct {
		Fields []struct {
			Field   string `json:"field"`
			Tag     string `json:"tag"`
			Message string `json:"message"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verr))
	require.Len(t, verr.Fields, 2)
	assert.Equal(t, "cards", verr.Fields[0].Field)
	assert.Equal(t, "cards must have exactly 8 entries", verr.Fields[0].Message)
	assert.Equal(t, "source", verr.Fields[1].Field)
	assert.Equal(t, "oneof", verr.Fields[1].Tag)

	w = doJSON(t, s, http.MethodDelete, "/api/v1/decks/"+saved.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(t, s, http.MethodGet, "/api/v1/decks/"+saved.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImportCorpusRepublishes(t *testing.T) {
	s, _ := newTestServer(t, false)

	var decks []cards.Deck
	for _, names := range corpusNames {
		decks = append(decks, deckOf(names))
	}
	w := doJSON(t, s, http.MethodPost, "/api/v1/corpus", map[string]any{"decks": decks, "source": "test"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, s.engine.Ready())

	w = doJSON(t, s, http.MethodGet, "/api/v1/stats/cards?limit=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var top []struct {
		Name string `json:"name"`
	}
	decodeData(t, w, &top)
	require.Len(t, top, 3)
	assert.Equal(t, "Fireball", top[0].Name)

	w = doJSON(t, s, http.MethodGet, "/api/v1/stats/cards/Unknown/partners", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportCards(t *testing.T) {
	s, _ := newTestServer(t, true)
	w := doJSON(t, s, http.MethodGet, "/api/v1/stats/cards/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Equal(t, "rank,name,decks,freq_norm,top_partner,partner_pmi", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1,Fireball,"))

	w = doJSON(t, s, http.MethodGet, "/api/v1/stats/cards/export?format=json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	assert.Len(t, rows, len(lines)-1)

	w = doJSON(t, s, http.MethodGet, "/api/v1/stats/cards/export?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContentTypeEnforced(t *testing.T) {
	s, _ := newTestServer(t, true)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/score", bytes.NewBufferString(`{"deck":["Knight"]}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Stop()

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, true)
	w := doJSON(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "deckforge_operation_duration_seconds")
}

func TestStartAndShutdown(t *testing.T) {
	s, _ := newTestServer(t, true)
	s.port = 0
	require.NoError(t, s.Start())
	require.NotEmpty(t, s.Addr())

	_, port, err := net.SplitHostPort(s.Addr())
	require.NoError(t, err)
	resp, err := http.Get("http://127.0.0.1:" + port + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}
