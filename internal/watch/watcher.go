// Package watch reloads the role, backup and corpus files when they change on disk
// and republishes them to the engine.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/ramonehamilton/deckforge/internal/cards"
	"github.com/ramonehamilton/deckforge/internal/datasets"
	"github.com/ramonehamilton/deckforge/internal/storage/models"
)

// DefaultDebounce is used when Config.Debounce is not positive.
const DefaultDebounce = 500 * time.Millisecond

// Target receives reloaded data. *engine.Engine satisfies it.
type Target interface {
	Publish(ctx context.Context, corpus []cards.Deck) error
	SetTables(ctx context.Context, tables *datasets.Tables) error
}

// CorpusStore merges reloaded decks into the persisted corpus. *storage.Service
// satisfies it.
type CorpusStore interface {
	ImportCorpus(ctx context.Context, decks []cards.Deck, source string) (*models.ImportResult, []cards.Deck, error)
}

// Config names the watched files. Empty paths are not watched.
type Config struct {
	RolesPath   string
	BackupsPath string
	CorpusPath  string
	Debounce    time.Duration
}

// Watcher coalesces bursts of file events and reloads once the files settle.
type Watcher struct {
	cfg    Config
	target Target
	store  CorpusStore
	logger zerolog.Logger

	mu           sync.Mutex
	tablesDirty  bool
	corpusDirty  bool
	lastEvent    time.Time
	stopChan     chan struct{}
	stopOnce     sync.Once
	reloadsCount int
}

// New creates a watcher. Call Start to begin watching.
func New(cfg Config, target Target, logger zerolog.Logger) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	cfg.RolesPath = cleanPath(cfg.RolesPath)
	cfg.BackupsPath = cleanPath(cfg.BackupsPath)
	cfg.CorpusPath = cleanPath(cfg.CorpusPath)
	return &Watcher{
		cfg:      cfg,
		target:   target,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// UseStore routes corpus reloads through store, so the published corpus is the
// stored corpus with the file's decks merged in rather than the file alone.
func (w *Watcher) UseStore(store CorpusStore) {
	w.store = store
}

func cleanPath(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}

// Start watches until ctx is cancelled or Stop is called. The parent directories are
// watched so that editors replacing a file by rename are noticed.
func (w *Watcher) Start(ctx context.Context) (err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	dirs := map[string]struct{}{}
	for _, p := range []string{w.cfg.RolesPath, w.cfg.BackupsPath, w.cfg.CorpusPath} {
		if p != "" {
			dirs[filepath.Dir(p)] = struct{}{}
		}
	}
	if len(dirs) == 0 {
		return fmt.Errorf("no files to watch")
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	w.logger.Info().
		Str("roles", w.cfg.RolesPath).
		Str("backups", w.cfg.BackupsPath).
		Str("corpus", w.cfg.CorpusPath).
		Dur("debounce", w.cfg.Debounce).
		Msg("Watching data files")

	tick := w.cfg.Debounce / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopChan:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.mark(filepath.Clean(event.Name), time.Now())
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(werr).Msg("File watcher error")
		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

// Stop ends a running Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
}

// Reloads returns the number of completed reload passes.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloadsCount
}

func (w *Watcher) mark(name string, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch name {
	case w.cfg.RolesPath, w.cfg.BackupsPath:
		w.tablesDirty = true
	case w.cfg.CorpusPath:
		w.corpusDirty = true
	default:
		return
	}
	w.lastEvent = at
}

// flush reloads once no event has arrived for a full debounce interval.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	w.mu.Lock()
	if (!w.tablesDirty && !w.corpusDirty) || now.Sub(w.lastEvent) < w.cfg.Debounce {
		w.mu.Unlock()
		return
	}
	tables, corpus := w.tablesDirty, w.corpusDirty
	w.tablesDirty, w.corpusDirty = false, false
	w.mu.Unlock()

	if err := w.Reload(ctx, tables, corpus); err != nil {
		w.logger.Error().Err(err).Msg("Reload failed, keeping previous snapshot")
	}
}

// Reload re-reads the requested files and pushes them to the target.
func (w *Watcher) Reload(ctx context.Context, tables, corpus bool) error {
	defer func() {
		w.mu.Lock()
		w.reloadsCount++
		w.mu.Unlock()
	}()

	if tables {
		t, err := datasets.LoadTables(w.cfg.RolesPath, w.cfg.BackupsPath)
		if err != nil {
			return fmt.Errorf("reload tables: %w", err)
		}
		if err := w.target.SetTables(ctx, t); err != nil {
			return fmt.Errorf("apply tables: %w", err)
		}
		w.logger.Info().Int("roles", t.Roles.Len()).Int("backups", t.Backups.Len()).Msg("Reloaded tables")
	}

	if corpus && w.cfg.CorpusPath != "" {
		decks, err := datasets.LoadCorpus(w.cfg.CorpusPath)
		if err != nil {
			return fmt.Errorf("reload corpus: %w", err)
		}
		fromFile := len(decks)
		if w.store != nil {
			result, all, err := w.store.ImportCorpus(ctx, decks, "watch")
			if err != nil {
				return fmt.Errorf("merge corpus: %w", err)
			}
			w.logger.Debug().Int("imported", result.Imported).Int("skipped", result.Skipped).Msg("Merged corpus file")
			decks = all
		}
		if err := w.target.Publish(ctx, decks); err != nil {
			return fmt.Errorf("publish corpus: %w", err)
		}
		w.logger.Info().Int("file", fromFile).Int("decks", len(decks)).Msg("Reloaded corpus")
	}
	return nil
}
