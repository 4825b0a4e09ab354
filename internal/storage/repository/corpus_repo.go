package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/ramonehamilton/deckforge/internal/cards"
	"github.com/ramonehamilton/deckforge/internal/storage/models"
)

// Expected corpus size and false positive rate used to size the signature filter.
const (
	bloomCapacity = 100000
	bloomFPRate   = 0.001
)

// CorpusRepository handles database operations for the reference deck corpus.
type CorpusRepository interface {
	// ImportDecks stores decks not already present. Decks are identified by their
	// card set, so re-importing the same deck is a no-op.
	ImportDecks(ctx context.Context, decks []cards.Deck, source string) (*models.ImportResult, error)

	// ListDecks returns every stored deck in import order.
	ListDecks(ctx context.Context) ([]cards.Deck, error)

	// Count returns the number of stored decks.
	Count(ctx context.Context) (int, error)
}

type corpusRepository struct {
	db *sql.DB

	mu     sync.Mutex
	filter *bloom.BloomFilter
}

// NewCorpusRepository creates a new corpus repository.
func NewCorpusRepository(db *sql.DB) CorpusRepository {
	return &corpusRepository{db: db}
}

// Signature is the order-independent identity of a deck.
func Signature(names []string) string {
	sorted := make([]string, len(names))
	for i, n := range names {
		sorted[i] = strings.TrimSpace(n)
	}
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

// loadFilter seeds the signature filter from the table. Must hold r.mu.
func (r *corpusRepository) loadFilter(ctx context.Context) error {
	if r.filter != nil {
		return nil
	}
	filter := bloom.NewWithEstimates(bloomCapacity, bloomFPRate)

	rows, err := r.db.QueryContext(ctx, `SELECT signature FROM corpus_decks`)
	if err != nil {
		return fmt.Errorf("failed to load deck signatures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var sig string
		if err := rows.Scan(&sig); err != nil {
			return fmt.Errorf("failed to scan signature: %w", err)
		}
		filter.AddString(sig)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating signatures: %w", err)
	}
	r.filter = filter
	return nil
}

// ImportDecks stores new decks in a single transaction.
func (r *corpusRepository) ImportDecks(ctx context.Context, decks []cards.Deck, source string) (*models.ImportResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.loadFilter(ctx); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result := &models.ImportResult{}
	var added []string
	for _, deck := range decks {
		names := deck.Names()
		if len(names) == 0 {
			result.Skipped++
			continue
		}
		sig := Signature(names)

		// A negative filter answer is definitive; a positive one needs the table.
		if r.filter.TestString(sig) {
			var exists bool
			err := tx.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM corpus_decks WHERE signature = ?)`, sig).Scan(&exists)
			if err != nil {
				return nil, fmt.Errorf("failed to check deck signature: %w", err)
			}
			if exists {
				result.Skipped++
				continue
			}
		}

		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO corpus_decks (signature, source) VALUES (?, ?)`, sig, source)
		if err != nil {
			return nil, fmt.Errorf("failed to insert deck: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// Same card set appeared earlier in this batch.
			result.Skipped++
			continue
		}
		deckID, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to get deck id: %w", err)
		}

		for slot, c := range deck {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO corpus_deck_cards (deck_id, slot, card_name, rarity, level, icon_url, evolution_icon_url)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, deckID, slot, strings.TrimSpace(c.Name), string(c.Rarity), c.Level, c.IconURL, c.EvolutionIconURL)
			if err != nil {
				return nil, fmt.Errorf("failed to insert deck card: %w", err)
			}
		}
		added = append(added, sig)
		result.Imported++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}
	for _, sig := range added {
		r.filter.AddString(sig)
	}
	return result, nil
}

// ListDecks returns every stored deck in import order.
func (r *corpusRepository) ListDecks(ctx context.Context) ([]cards.Deck, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT deck_id, card_name, rarity, level, icon_url, evolution_icon_url
		FROM corpus_deck_cards
		ORDER BY deck_id, slot
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		decks  []cards.Deck
		lastID int64 = -1
	)
	for rows.Next() {
		var (
			deckID int64
			c      cards.Card
			rarity string
		)
		if err := rows.Scan(&deckID, &c.Name, &rarity, &c.Level, &c.IconURL, &c.EvolutionIconURL); err != nil {
			return nil, fmt.Errorf("failed to scan deck card: %w", err)
		}
		c.Rarity = cards.ParseRarity(rarity)
		if deckID != lastID {
			decks = append(decks, cards.Deck{})
			lastID = deckID
		}
		decks[len(decks)-1] = append(decks[len(decks)-1], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decks: %w", err)
	}
	return decks, nil
}

// Count returns the number of stored decks.
func (r *corpusRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM corpus_decks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count decks: %w", err)
	}
	return n, nil
}
