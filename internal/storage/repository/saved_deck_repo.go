package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/ramonehamilton/deckforge/internal/storage/models"
)

// SavedDeckRepository handles database operations for saved decks.
type SavedDeckRepository interface {
	// Save inserts the deck, assigning an ID and creation time when unset.
	Save(ctx context.Context, deck *models.SavedDeck) error

	// Get returns the deck with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (*models.SavedDeck, error)

	// List returns saved decks newest first. An empty playerTag lists all.
	List(ctx context.Context, playerTag string) ([]*models.SavedDeck, error)

	// Delete removes the deck or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}

type savedDeckRepository struct {
	db *sql.DB
}

// NewSavedDeckRepository creates a new saved deck repository.
func NewSavedDeckRepository(db *sql.DB) SavedDeckRepository {
	return &savedDeckRepository{db: db}
}

func (r *savedDeckRepository) Save(ctx context.Context, deck *models.SavedDeck) error {
	if deck.ID == "" {
		deck.ID = uuid.NewString()
	}
	if deck.CreatedAt.IsZero() {
		deck.CreatedAt = time.Now().UTC()
	}
	cardsJSON, err := json.Marshal(deck.Cards)
	if err != nil {
		return fmt.Errorf("failed to marshal deck cards: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO saved_decks (id, player_tag, name, cards, score, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, deck.ID, deck.PlayerTag, deck.Name, string(cardsJSON), deck.Score, deck.Source, deck.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save deck: %w", err)
	}
	return nil
}

const savedDeckColumns = `id, player_tag, name, cards, score, source, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSavedDeck(row rowScanner) (*models.SavedDeck, error) {
	var (
		d         models.SavedDeck
		cardsJSON string
	)
	if err := row.Scan(&d.ID, &d.PlayerTag, &d.Name, &cardsJSON, &d.Score, &d.Source, &d.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cardsJSON), &d.Cards); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deck cards: %w", err)
	}
	return &d, nil
}

func (r *savedDeckRepository) Get(ctx context.Context, id string) (*models.SavedDeck, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+savedDeckColumns+` FROM saved_decks WHERE id = ?`, id)
	d, err := scanSavedDeck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deck: %w", err)
	}
	return d, nil
}

func (r *savedDeckRepository) List(ctx context.Context, playerTag string) ([]*models.SavedDeck, error) {
	query := `SELECT ` + savedDeckColumns + ` FROM saved_decks`
	var args []any
	if playerTag != "" {
		query += ` WHERE player_tag = ?`
		args = append(args, playerTag)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []*models.SavedDeck{}
	for rows.Next() {
		d, err := scanSavedDeck(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deck: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decks: %w", err)
	}
	return out, nil
}

func (r *savedDeckRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM saved_decks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete deck: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
