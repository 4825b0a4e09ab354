package scoring

import (
	"errors"

	"github.com/ramonehamilton/deckforge/internal/cards"
	"github.com/ramonehamilton/deckforge/internal/deckstats"
	"github.com/ramonehamilton/deckforge/internal/roles"
)

// DeckScoreFunc scores a full or partial deck for a player.
type DeckScoreFunc func(deck []string, player *cards.PlayerLevels) float64

// StrategyKind tags which scorer a Strategy carries.
type StrategyKind int

const (
	// KindDefault builds the weighted objective from the published statistics.
	KindDefault StrategyKind = iota
	// KindCustom uses a caller supplied function as is.
	KindCustom
)

// ErrNoScoreFunc is returned when a custom strategy has no function.
var ErrNoScoreFunc = errors.New("scoring: custom strategy has no score function")

// Strategy is the caller's explicit choice of deck scorer. The zero value is the
// weighted objective with DefaultWeights.
type Strategy struct {
	kind    StrategyKind
	weights Weights
	fn      DeckScoreFunc
}

// DefaultStrategy selects the weighted objective with the given weights.
func DefaultStrategy(w Weights) Strategy {
	return Strategy{kind: KindDefault, weights: w}
}

// CustomStrategy selects a ready scoring function.
func CustomStrategy(fn DeckScoreFunc) Strategy {
	return Strategy{kind: KindCustom, fn: fn}
}

// Kind returns the strategy tag.
func (s Strategy) Kind() StrategyKind { return s.kind }

// Resolve returns the scoring function for the strategy.
func (s Strategy) Resolve(stats *deckstats.Model, classifier *roles.Classifier) (DeckScoreFunc, error) {
	switch s.kind {
	case KindCustom:
		if s.fn == nil {
			return nil, ErrNoScoreFunc
		}
		return s.fn, nil
	default:
		w := s.weights
		if w == (Weights{}) {
			w = DefaultWeights()
		}
		return NewScorer(w, stats, classifier).Score, nil
	}
}
