package engine

import (
	"time"

	"github.com/ramonehamilton/deckforge/internal/builder"
	"github.com/ramonehamilton/deckforge/internal/cards"
	"github.com/ramonehamilton/deckforge/internal/metrics"
	"github.com/ramonehamilton/deckforge/internal/optimizer"
	"github.com/ramonehamilton/deckforge/internal/scoring"
)

// Optimize maps a reference deck onto collection. A nil result with a nil error
// means the deck was empty or malformed.
func (e *Engine) Optimize(deck cards.Deck, collection []cards.Card) (*optimizer.OptimizedDeck, error) {
	start := time.Now()
	snap, err := e.snapshot(metrics.OpOptimize, start)
	if err != nil {
		return nil, err
	}
	result := snap.Optimizer.Optimize(deck, collection)
	e.metrics.Since(metrics.OpOptimize, resultLabel(result != nil), start)
	return result, nil
}

// BuildDeck searches for the best playable deck. A nil slice means the player
// cannot field a full deck.
func (e *Engine) BuildDeck(collection []cards.Card) ([]string, error) {
	return e.BuildFrom(nil, collection)
}

// BuildFrom completes partial into a full deck.
func (e *Engine) BuildFrom(partial []string, collection []cards.Card) ([]string, error) {
	start := time.Now()
	snap, err := e.snapshot(metrics.OpBuild, start)
	if err != nil {
		return nil, err
	}
	deck := snap.Builder.BuildFrom(partial, cards.NewPlayerLevels(collection))
	e.metrics.Since(metrics.OpBuild, resultLabel(deck != nil), start)
	return deck, nil
}

// SuggestNextCard ranks single-card extensions of partial. topK <= 0 uses the
// configured default.
func (e *Engine) SuggestNextCard(partial []string, collection []cards.Card, topK int) ([]builder.Suggestion, error) {
	start := time.Now()
	snap, err := e.snapshot(metrics.OpSuggest, start)
	if err != nil {
		return nil, err
	}
	out := snap.Builder.SuggestNextCard(partial, collection, topK)
	e.metrics.Since(metrics.OpSuggest, resultLabel(len(out) > 0), start)
	return out, nil
}

// ScoreDeck evaluates deck with the weighted objective.
func (e *Engine) ScoreDeck(deck []string, collection []cards.Card) (scoring.Breakdown, error) {
	start := time.Now()
	snap, err := e.snapshot(metrics.OpScore, start)
	if err != nil {
		return scoring.Breakdown{}, err
	}
	b := snap.Scorer.Evaluate(deck, cards.NewPlayerLevels(collection))
	e.metrics.Since(metrics.OpScore, metrics.ResultOK, start)
	return b, nil
}
