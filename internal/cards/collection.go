package cards

import "sort"

// PlayerLevels indexes a player's collection by card name, keeping the best
// effective level seen for each name.
type PlayerLevels struct {
	levels map[string]int
	cards  map[string]Card
	max    int
}

// NewPlayerLevels builds the index from a raw collection. Duplicate names keep
// the entry with the highest effective level. Cards with no name or no level are ignored.
func NewPlayerLevels(collection []Card) *PlayerLevels {
	p := &PlayerLevels{
		levels: make(map[string]int, len(collection)),
		cards:  make(map[string]Card, len(collection)),
	}
	for _, c := range collection {
		if c.Name == "" {
			continue
		}
		eff := c.EffectiveLevel()
		if eff <= 0 {
			continue
		}
		if eff > p.levels[c.Name] {
			p.levels[c.Name] = eff
			p.cards[c.Name] = c
		}
		if eff > p.max {
			p.max = eff
		}
	}
	return p
}

// Level returns the effective level for a card, or 0 if the player does not own it.
func (p *PlayerLevels) Level(name string) int {
	if p == nil {
		return 0
	}
	return p.levels[name]
}

// Owns reports whether the player owns the card at a positive effective level.
func (p *PlayerLevels) Owns(name string) bool {
	return p.Level(name) > 0
}

// Card returns the collection record behind the best level for name.
func (p *PlayerLevels) Card(name string) (Card, bool) {
	if p == nil {
		return Card{}, false
	}
	c, ok := p.cards[name]
	return c, ok
}

// MaxLevel returns the highest effective level across the whole collection.
func (p *PlayerLevels) MaxLevel() int {
	if p == nil {
		return 0
	}
	return p.max
}

// Len returns the number of distinct owned cards.
func (p *PlayerLevels) Len() int {
	if p == nil {
		return 0
	}
	return len(p.levels)
}

// Names returns the owned card names sorted ascending.
func (p *PlayerLevels) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.levels))
	for n := range p.levels {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
