// Package builder constructs decks from a player's collection with a beam search
// over the deck objective, and ranks single-card extensions for interactive building.
package builder

import (
	"errors"
	"slices"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ramonehamilton/deckforge/internal/backups"
	"github.com/ramonehamilton/deckforge/internal/cards"
	"github.com/ramonehamilton/deckforge/internal/deckstats"
	"github.com/ramonehamilton/deckforge/internal/roles"
	"github.com/ramonehamilton/deckforge/internal/scoring"
)

// Defaults.
const (
	DefaultBeamWidth = 10
	DefaultTopK      = 5
)

// ErrNoModel is returned when a builder is created without corpus statistics.
var ErrNoModel = errors.New("builder: no deck statistics model")

// Config bounds the search.
type Config struct {
	BeamWidth int `toml:"beam_width" json:"beamWidth"`
	DeckSize  int `toml:"deck_size" json:"deckSize"`
	TopK      int `toml:"top_k" json:"topK"`
}

// DefaultConfig returns the standard search bounds.
func DefaultConfig() Config {
	return Config{BeamWidth: DefaultBeamWidth, DeckSize: cards.DeckSize, TopK: DefaultTopK}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BeamWidth <= 0 {
		c.BeamWidth = d.BeamWidth
	}
	if c.DeckSize <= 0 {
		c.DeckSize = d.DeckSize
	}
	if c.TopK <= 0 {
		c.TopK = d.TopK
	}
	return c
}

// Suggestion is a ranked single-card extension.
type Suggestion struct {
	Card  string  `json:"card"`
	Score float64 `json:"score"`
}

// Builder holds read-only tables and is safe for concurrent use.
type Builder struct {
	stats  *deckstats.Model
	graph  *backups.Graph
	score  scoring.DeckScoreFunc
	cfg    Config
	logger zerolog.Logger
}

// New creates a builder. The strategy chooses the deck objective explicitly.
func New(
	stats *deckstats.Model,
	classifier *roles.Classifier,
	graph *backups.Graph,
	strategy scoring.Strategy,
	cfg Config,
	logger zerolog.Logger,
) (*Builder, error) {
	if stats == nil {
		return nil, ErrNoModel
	}
	fn, err := strategy.Resolve(stats, classifier)
	if err != nil {
		return nil, err
	}
	return &Builder{
		stats:  stats,
		graph:  graph,
		score:  fn,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}, nil
}

// Config returns the effective search bounds.
func (b *Builder) Config() Config { return b.cfg }

// Playable reports whether the player can field the card: they own it, or they own
// one of its listed backups.
func (b *Builder) Playable(name string, player *cards.PlayerLevels) bool {
	if player.Owns(name) {
		return true
	}
	for _, bk := range b.graph.Backups(name) {
		if player.Owns(bk.Name) {
			return true
		}
	}
	return false
}

// playablePool returns every corpus or collection card the player can field, sorted.
func (b *Builder) playablePool(player *cards.PlayerLevels) []string {
	universe := make(map[string]struct{})
	for _, n := range b.stats.Cards() {
		universe[n] = struct{}{}
	}
	for _, n := range player.Names() {
		universe[n] = struct{}{}
	}
	pool := make([]string, 0, len(universe))
	for n := range universe {
		if b.Playable(n, player) {
			pool = append(pool, n)
		}
	}
	sort.Strings(pool)
	return pool
}

// cleanPartial trims, drops blanks and de-duplicates a partial deck.
func cleanPartial(partial []string) []string {
	trimmed := make([]string, len(partial))
	for i, n := range partial {
		trimmed[i] = strings.TrimSpace(n)
	}
	return cards.UniqueNames(trimmed)
}

// SuggestNextCard scores every legal one-card extension of partial and returns the
// best topK, highest score first. topK <= 0 uses the configured default.
func (b *Builder) SuggestNextCard(partial []string, collection []cards.Card, topK int) []Suggestion {
	return b.SuggestNextCardLevels(partial, cards.NewPlayerLevels(collection), topK)
}

// SuggestNextCardLevels is SuggestNextCard over a prebuilt collection index.
func (b *Builder) SuggestNextCardLevels(partial []string, player *cards.PlayerLevels, topK int) []Suggestion {
	if topK <= 0 {
		topK = b.cfg.TopK
	}
	deck := cleanPartial(partial)
	if len(deck) >= b.cfg.DeckSize {
		return []Suggestion{}
	}
	inDeck := make(map[string]struct{}, len(deck))
	for _, n := range deck {
		inDeck[n] = struct{}{}
	}

	out := make([]Suggestion, 0)
	for _, c := range b.playablePool(player) {
		if _, ok := inDeck[c]; ok {
			continue
		}
		next := append(slices.Clone(deck), c)
		out = append(out, Suggestion{Card: c, Score: b.score(next, player)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}
