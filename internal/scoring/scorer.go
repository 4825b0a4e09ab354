// Package scoring evaluates a complete or partial deck against learned corpus
// statistics and a player's collection.
package scoring

import (
	"github.com/ramonehamilton/deckforge/internal/cards"
	"github.com/ramonehamilton/deckforge/internal/deckstats"
	"github.com/ramonehamilton/deckforge/internal/roles"
)

// Hard constraint limits and their penalty scales.
const (
	maxWinConditions = 1
	maxBuildings     = 1
	maxSpells        = 2

	stackedRolePenalty = 10.0
	extraSpellPenalty  = 5.0
)

// Weights are the coefficients of the deck objective.
type Weights struct {
	Synergy        float64 `toml:"synergy" json:"synergy"`                // α
	Meta           float64 `toml:"meta" json:"meta"`                      // β
	Level          float64 `toml:"level" json:"level"`                    // γ
	Role           float64 `toml:"role" json:"role"`                      // λ
	HardConstraint float64 `toml:"hard_constraint" json:"hardConstraint"` // μ
	Frequency      float64 `toml:"frequency" json:"frequency"`            // ν
}

// DefaultWeights returns the standard objective weights.
func DefaultWeights() Weights {
	return Weights{
		Synergy:        1.0,
		Meta:           0.5,
		Level:          0.3,
		Role:           0.2,
		HardConstraint: 2.0,
		Frequency:      1.5,
	}
}

// Breakdown is the per-term evaluation of a deck.
type Breakdown struct {
	Synergy               float64      `json:"synergy"`
	Meta                  float64      `json:"meta"`
	Level                 float64      `json:"level"`
	RolePenalty           float64      `json:"rolePenalty"`
	HardConstraintPenalty float64      `json:"hardConstraintPenalty"`
	FrequencyPenalty      float64      `json:"frequencyPenalty"`
	RoleCounts            roles.Counts `json:"roleCounts"`
	Total                 float64      `json:"total"`
}

// Scorer evaluates decks. Partial decks use the same formula over fewer cards,
// which keeps beam search scores consistent with the final re-score.
type Scorer struct {
	weights Weights
	stats   *deckstats.Model
	roles   *roles.Classifier
}

// NewScorer creates a scorer over a published model and role table.
func NewScorer(weights Weights, stats *deckstats.Model, classifier *roles.Classifier) *Scorer {
	return &Scorer{weights: weights, stats: stats, roles: classifier}
}

// Weights returns the scorer's weights.
func (s *Scorer) Weights() Weights { return s.weights }

// Score returns the weighted objective for the deck.
func (s *Scorer) Score(deck []string, player *cards.PlayerLevels) float64 {
	return s.Evaluate(deck, player).Total
}

// Evaluate returns every term of the objective for the deck. Duplicate names are
// scored once.
func (s *Scorer) Evaluate(deck []string, player *cards.PlayerLevels) Breakdown {
	unique := cards.UniqueNames(deck)
	counts := s.roles.CountRoles(unique)

	b := Breakdown{
		Synergy:               s.Synergy(unique),
		Meta:                  s.Meta(unique),
		Level:                 LevelScore(unique, player),
		RolePenalty:           s.RolePenalty(counts),
		HardConstraintPenalty: HardConstraintPenalty(counts),
		FrequencyPenalty:      s.FrequencyPenalty(unique),
		RoleCounts:            counts,
	}
	w := s.weights
	b.Total = w.Synergy*b.Synergy +
		w.Meta*b.Meta +
		w.Level*b.Level -
		w.Role*b.RolePenalty -
		w.HardConstraint*b.HardConstraintPenalty -
		w.Frequency*b.FrequencyPenalty
	return b
}

// Synergy is the mean PMI over all unordered pairs of unique cards.
func (s *Scorer) Synergy(unique []string) float64 {
	if len(unique) < 2 || s.stats == nil {
		return 0
	}
	var sum float64
	pairs := 0
	for i := 0; i < len(unique); i++ {
		for j := i + 1; j < len(unique); j++ {
			sum += s.stats.PMI(unique[i], unique[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}

// Meta is the mean normalized corpus frequency of the cards.
func (s *Scorer) Meta(unique []string) float64 {
	if len(unique) == 0 || s.stats == nil {
		return 0
	}
	var sum float64
	for _, n := range unique {
		sum += s.stats.FreqNorm(n)
	}
	return sum / float64(len(unique))
}

// FrequencyPenalty is the mean of (1 - freqNorm)^2. A card in every deck costs 0,
// a card the corpus never played costs 1.
func (s *Scorer) FrequencyPenalty(unique []string) float64 {
	if len(unique) == 0 {
		return 0
	}
	var sum float64
	for _, n := range unique {
		f := 0.0
		if s.stats != nil {
			f = s.stats.FreqNorm(n)
		}
		d := 1 - f
		sum += d * d
	}
	return sum / float64(len(unique))
}

// RolePenalty is the sum of squared role-count z-scores against the corpus.
func (s *Scorer) RolePenalty(counts roles.Counts) float64 {
	if s.stats == nil {
		return 0
	}
	var sum float64
	for _, r := range roles.All {
		z := (float64(counts[r]) - s.stats.RoleMean(r)) / s.stats.RoleStd(r)
		sum += z * z
	}
	return sum
}

// LevelScore is the mean of each card's effective level over the player's best
// level. Unowned cards contribute 0.
func LevelScore(unique []string, player *cards.PlayerLevels) float64 {
	maxLevel := player.MaxLevel()
	if len(unique) == 0 || maxLevel <= 0 {
		return 0
	}
	var sum float64
	for _, n := range unique {
		sum += float64(player.Level(n)) / float64(maxLevel)
	}
	return sum / float64(len(unique))
}

// HardConstraintPenalty punishes stacked win conditions, buildings and spells.
func HardConstraintPenalty(counts roles.Counts) float64 {
	var p float64
	if c := counts[roles.WinCondition]; c > maxWinConditions {
		d := float64(c - maxWinConditions)
		p += d * d * stackedRolePenalty
	}
	if c := counts[roles.Building]; c > maxBuildings {
		d := float64(c - maxBuildings)
		p += d * d * stackedRolePenalty
	}
	if c := counts[roles.Spell]; c > maxSpells {
		p += float64(c-maxSpells) * extraSpellPenalty
	}
	return p
}
