// Package bootstrap wires configuration, data files, storage and the engine
// together for the command-line binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ramonehamilton/deckforge/internal/cards"
	"github.com/ramonehamilton/deckforge/internal/config"
	"github.com/ramonehamilton/deckforge/internal/datasets"
	"github.com/ramonehamilton/deckforge/internal/engine"
	"github.com/ramonehamilton/deckforge/internal/logging"
	"github.com/ramonehamilton/deckforge/internal/metrics"
	"github.com/ramonehamilton/deckforge/internal/storage"
	"github.com/ramonehamilton/deckforge/internal/watch"
)

// Runtime holds the long-lived components built from a configuration.
type Runtime struct {
	Config  *config.Config
	Engine  *engine.Engine
	Store   *storage.Service // nil when storage.path is empty
	Watcher *watch.Watcher   // nil unless tables.watch is set
	Logger  zerolog.Logger
}

// Setup initializes logging, loads the tables and corpus, and publishes the
// first snapshot when any corpus is available.
func Setup(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger := logging.Component("bootstrap")

	tables, err := datasets.LoadTables(cfg.Tables.RolesPath, cfg.Tables.BackupsPath)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}

	rt := &Runtime{
		Config: cfg,
		Engine: engine.New(tables, engine.Options{
			Weights: cfg.Scoring,
			Builder: cfg.Builder,
			Workers: cfg.Tables.Workers,
		}, metrics.NewRecorder(), logging.Component("engine")),
		Logger: logger,
	}

	if cfg.Storage.Path != "" {
		dbCfg := storage.DefaultConfig(cfg.Storage.Path)
		dbCfg.AutoMigrate = cfg.Storage.AutoMigrate
		dbCfg.Logger = logging.Component("storage")
		db, err := storage.Open(dbCfg)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		rt.Store = storage.NewService(db)
	}

	corpus, err := rt.loadCorpus(ctx)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	if len(corpus) > 0 {
		if err := rt.Engine.Publish(ctx, corpus); err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("publish corpus: %w", err)
		}
	} else {
		logger.Warn().Msg("No corpus available; engine will not serve until one is imported")
	}

	if cfg.Tables.Watch {
		rt.Watcher = watch.New(watch.Config{
			RolesPath:   cfg.Tables.RolesPath,
			BackupsPath: cfg.Tables.BackupsPath,
			CorpusPath:  cfg.Tables.CorpusPath,
			Debounce:    cfg.GetDebounce(),
		}, rt.Engine, logging.Component("watch"))
		if rt.Store != nil {
			rt.Watcher.UseStore(rt.Store)
		}
	}

	return rt, nil
}

// loadCorpus reads the corpus file and, with storage enabled, merges it into the
// stored corpus and returns the stored decks.
func (rt *Runtime) loadCorpus(ctx context.Context) ([]cards.Deck, error) {
	var fromFile []cards.Deck
	if p := rt.Config.Tables.CorpusPath; p != "" {
		decks, err := datasets.LoadCorpus(p)
		if err != nil {
			return nil, fmt.Errorf("load corpus: %w", err)
		}
		fromFile = decks
	}
	if rt.Store == nil {
		return fromFile, nil
	}

	result, all, err := rt.Store.ImportCorpus(ctx, fromFile, "file")
	if err != nil {
		return nil, err
	}
	rt.Logger.Info().
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("stored", len(all)).
		Msg("Loaded corpus")
	return all, nil
}

// Close releases the store.
func (rt *Runtime) Close() error {
	var errs []error
	if rt.Watcher != nil {
		rt.Watcher.Stop()
	}
	if rt.Store != nil {
		errs = append(errs, rt.Store.Close())
	}
	return errors.Join(errs...)
}
