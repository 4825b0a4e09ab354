// Package engine publishes immutable deck analysis snapshots and serves the
// optimizer, builder and scorer over the current one.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ramonehamilton/deckforge/internal/builder"
	"github.com/ramonehamilton/deckforge/internal/cards"
	"github.com/ramonehamilton/deckforge/internal/datasets"
	"github.com/ramonehamilton/deckforge/internal/deckstats"
	"github.com/ramonehamilton/deckforge/internal/metrics"
	"github.com/ramonehamilton/deckforge/internal/optimizer"
	"github.com/ramonehamilton/deckforge/internal/scoring"
)

// ErrNotReady is returned when no snapshot has been published yet.
var ErrNotReady = errors.New("engine: no corpus published")

// Options configures the engine.
type Options struct {
	Weights scoring.Weights
	Builder builder.Config
	Workers int

	// Strategy overrides the weighted objective when set.
	Strategy *scoring.Strategy
}

// Snapshot is one published, read-only view of the analysis state.
type Snapshot struct {
	Corpus      []cards.Deck
	Stats       *deckstats.Model
	Tables      *datasets.Tables
	Scorer      *scoring.Scorer
	Optimizer   *optimizer.Optimizer
	Builder     *builder.Builder
	PublishedAt time.Time
}

// Engine swaps snapshots atomically; readers never lock. Writers hold writeMu
// from loading the inputs until the new snapshot is stored.
type Engine struct {
	current atomic.Pointer[Snapshot]
	tables  atomic.Pointer[datasets.Tables]
	writeMu sync.Mutex
	opts    Options
	metrics *metrics.Recorder
	logger  zerolog.Logger
}

// New creates an engine with the given tables. Nothing is served until Publish.
func New(tables *datasets.Tables, opts Options, rec *metrics.Recorder, logger zerolog.Logger) *Engine {
	if tables == nil {
		tables = datasets.EmptyTables()
	}
	e := &Engine{opts: opts, metrics: rec, logger: logger}
	e.tables.Store(tables)
	return e
}

// Publish rebuilds the statistics model from corpus and swaps it in.
func (e *Engine) Publish(ctx context.Context, corpus []cards.Deck) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	return e.publishLocked(ctx, corpus)
}

func (e *Engine) publishLocked(ctx context.Context, corpus []cards.Deck) error {
	start := time.Now()
	snap, err := e.build(ctx, corpus, e.tables.Load())
	if err != nil {
		e.metrics.Since(metrics.OpPublish, metrics.ResultError, start)
		return err
	}
	e.current.Store(snap)
	e.metrics.Since(metrics.OpPublish, metrics.ResultOK, start)
	metrics.CorpusDecks.Set(float64(snap.Stats.DeckCount()))

	e.logger.Info().
		Int("decks", snap.Stats.DeckCount()).
		Int("cards", snap.Stats.CardCount()).
		Dur("elapsed", time.Since(start)).
		Msg("Published corpus snapshot")
	return nil
}

// SetTables replaces the role and backup tables and, when a corpus is already
// published, rebuilds the snapshot against them.
func (e *Engine) SetTables(ctx context.Context, tables *datasets.Tables) error {
	if tables == nil {
		tables = datasets.EmptyTables()
	}
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.tables.Store(tables)

	snap := e.current.Load()
	if snap == nil {
		return nil
	}
	return e.publishLocked(ctx, snap.Corpus)
}

func (e *Engine) build(ctx context.Context, corpus []cards.Deck, tables *datasets.Tables) (*Snapshot, error) {
	names := make([][]string, len(corpus))
	for i, d := range corpus {
		names[i] = d.Names()
	}
	stats, err := deckstats.BuildParallel(ctx, names, tables.Roles, e.opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("build deck statistics: %w", err)
	}

	scorer := scoring.NewScorer(e.weights(), stats, tables.Roles)
	strategy := scoring.DefaultStrategy(e.weights())
	if e.opts.Strategy != nil {
		strategy = *e.opts.Strategy
	}
	b, err := builder.New(stats, tables.Roles, tables.Backups, strategy, e.opts.Builder, e.logger)
	if err != nil {
		return nil, fmt.Errorf("create builder: %w", err)
	}

	return &Snapshot{
		Corpus:      corpus,
		Stats:       stats,
		Tables:      tables,
		Scorer:      scorer,
		Optimizer:   optimizer.New(tables.Backups, scorer, e.logger),
		Builder:     b,
		PublishedAt: time.Now(),
	}, nil
}

func (e *Engine) weights() scoring.Weights {
	if e.opts.Weights == (scoring.Weights{}) {
		return scoring.DefaultWeights()
	}
	return e.opts.Weights
}

// Snapshot returns the current snapshot, or nil before the first Publish.
func (e *Engine) Snapshot() *Snapshot {
	return e.current.Load()
}

// Ready reports whether a snapshot has been published.
func (e *Engine) Ready() bool {
	return e.current.Load() != nil
}

// Model returns the published statistics model, or nil before the first Publish.
func (e *Engine) Model() *deckstats.Model {
	if snap := e.current.Load(); snap != nil {
		return snap.Stats
	}
	return nil
}

// Metrics returns the engine's recorder.
func (e *Engine) Metrics() *metrics.Recorder {
	return e.metrics
}

func (e *Engine) snapshot(op string, start time.Time) (*Snapshot, error) {
	snap := e.current.Load()
	if snap == nil {
		e.metrics.Since(op, metrics.ResultError, start)
		return nil, ErrNotReady
	}
	return snap, nil
}

func resultLabel(found bool) string {
	if found {
		return metrics.ResultOK
	}
	return metrics.ResultNoResult
}
