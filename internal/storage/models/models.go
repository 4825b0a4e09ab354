// Package models holds the persisted record types.
package models

import "time"

// CorpusDeck is one stored reference deck.
type CorpusDeck struct {
	ID         int64
	Signature  string
	Source     string
	ImportedAt time.Time
}

// PlayerCard is one owned card row.
type PlayerCard struct {
	PlayerTag        string
	CardName         string
	Rarity           string
	Level            int
	IconURL          string
	EvolutionIconURL string
	UpdatedAt        time.Time
}

// SavedDeck is a deck a player chose to keep.
type SavedDeck struct {
	ID        string    `json:"id"`
	PlayerTag string    `json:"playerTag,omitempty"`
	Name      string    `json:"name"`
	Cards     []string  `json:"cards"`
	Score     float64   `json:"score"`
	Source    string    `json:"source,omitempty"` // optimize, build or manual
	CreatedAt time.Time `json:"createdAt"`
}

// ImportResult reports the outcome of a corpus import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}
