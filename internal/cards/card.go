// Package cards holds the card, rarity and deck types shared by the optimizer and the builder.
package cards

import (
	"fmt"
	"strings"
)

// DeckSize is the number of slots in a deck.
const DeckSize = 8

// ChampionSlot is the slot reserved for a champion card when the deck has one.
// Only the link builder cares about it; the optimizer treats all slots alike.
const ChampionSlot = 2

// Rarity is a card's rarity tier.
type Rarity string

// Known rarities.
const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
	RarityChampion  Rarity = "champion"
)

// rarityBonus maps a rarity to the levels added when normalizing to an effective level.
var rarityBonus = map[Rarity]int{
	RarityCommon:    0,
	RarityRare:      2,
	RarityEpic:      5,
	RarityLegendary: 8,
	RarityChampion:  10,
}

// ParseRarity parses a rarity case-insensitively. Unknown values map to common.
func ParseRarity(s string) Rarity {
	r := Rarity(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := rarityBonus[r]; ok {
		return r
	}
	return RarityCommon
}

// Bonus returns the level bonus for the rarity.
func (r Rarity) Bonus() int {
	return rarityBonus[ParseRarity(string(r))]
}

// Card is a single card record as supplied by the corpus or a player's collection.
type Card struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Rarity Rarity `json:"rarity"`
	Level  int    `json:"level"`

	// Icon references are opaque and passed through untouched.
	IconURL          string `json:"iconUrl,omitempty"`
	EvolutionIconURL string `json:"evolutionIconUrl,omitempty"`
}

// EffectiveLevel returns the card's level normalized across rarities.
func (c Card) EffectiveLevel() int {
	return EffectiveLevel(c.Level, c.Rarity)
}

// EffectiveLevel normalizes a raw level by rarity. Levels <= 0 mean unowned and stay 0;
// any owned card is at least level 1.
func EffectiveLevel(level int, rarity Rarity) int {
	if level <= 0 {
		return 0
	}
	eff := level + rarity.Bonus()
	if eff < 1 {
		return 1
	}
	return eff
}

// Deck is an ordered list of card slots.
type Deck []Card

// Names returns the card names in slot order.
func (d Deck) Names() []string {
	names := make([]string, len(d))
	for i, c := range d {
		names[i] = c.Name
	}
	return names
}

// Validate checks that the deck has exactly DeckSize named slots.
func (d Deck) Validate() error {
	if len(d) != DeckSize {
		return fmt.Errorf("deck has %d cards, want %d", len(d), DeckSize)
	}
	for i, c := range d {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("slot %d has no card name", i)
		}
	}
	return nil
}

// UniqueNames returns the distinct non-empty names in first-seen order.
func UniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
