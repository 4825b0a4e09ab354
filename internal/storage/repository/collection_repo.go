package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ramonehamilton/deckforge/internal/cards"
)

// CollectionRepository handles database operations for player collections.
type CollectionRepository interface {
	// ReplaceCollection overwrites the player's stored collection. Repeated names
	// keep the highest effective level.
	ReplaceCollection(ctx context.Context, playerTag string, collection []cards.Card) error

	// GetCollection returns the player's cards ordered by name. An unknown
	// player has an empty collection.
	GetCollection(ctx context.Context, playerTag string) ([]cards.Card, error)
}

type collectionRepository struct {
	db *sql.DB
}

// NewCollectionRepository creates a new collection repository.
func NewCollectionRepository(db *sql.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

// ReplaceCollection deletes and re-inserts the player's rows in one transaction.
func (r *collectionRepository) ReplaceCollection(ctx context.Context, playerTag string, collection []cards.Card) error {
	player := cards.NewPlayerLevels(collection)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM player_cards WHERE player_tag = ?`, playerTag); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}

	now := time.Now().UTC()
	for _, name := range player.Names() {
		c, _ := player.Card(name)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO player_cards (player_tag, card_name, rarity, level, icon_url, evolution_icon_url, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, playerTag, name, string(c.Rarity), c.Level, c.IconURL, c.EvolutionIconURL, now)
		if err != nil {
			return fmt.Errorf("failed to insert card %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit collection: %w", err)
	}
	return nil
}

// GetCollection returns the player's cards ordered by name.
func (r *collectionRepository) GetCollection(ctx context.Context, playerTag string) ([]cards.Card, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT card_name, rarity, level, icon_url, evolution_icon_url
		FROM player_cards
		WHERE player_tag = ?
		ORDER BY card_name
	`, playerTag)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []cards.Card{}
	for rows.Next() {
		var (
			c      cards.Card
			rarity string
		)
		if err := rows.Scan(&c.Name, &rarity, &c.Level, &c.IconURL, &c.EvolutionIconURL); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		c.Rarity = cards.ParseRarity(rarity)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection: %w", err)
	}
	return out, nil
}
