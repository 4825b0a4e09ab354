// Package optimizer maps a reference deck onto the best cards a player owns.
//
// Every slot may be filled by its original card or one of the original's listed
// backups. The slot-to-card assignment is solved globally as a minimum-cost
// bipartite matching, so no card can end up in two slots.
package optimizer

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/ramonehamilton/deckforge/internal/backups"
	"github.com/ramonehamilton/deckforge/internal/cards"
	"github.com/ramonehamilton/deckforge/internal/scoring"
)

// Reason codes reported per slot.
const (
	ReasonKeptOriginal     = "kept_original"
	ReasonOwnedBackup      = "owned_backup"
	ReasonUnresolved       = "unresolved_fallback"
	ReasonIdentityFallback = "identity_fallback"
)

// Replacement describes the decision taken for one slot.
type Replacement struct {
	Slot             int    `json:"slot"`
	Original         string `json:"original"`
	Chosen           string `json:"chosen"`
	WasReplaced      bool   `json:"wasReplaced"`
	OriginalLevel    int    `json:"originalLevel"`
	ReplacementLevel int    `json:"replacementLevel"`
	Stars            int    `json:"stars"`
	Reason           string `json:"reason"`
}

// OptimizedDeck is the optimizer's result.
type OptimizedDeck struct {
	Cards             cards.Deck         `json:"cards"`
	OptimizationScore float64            `json:"optimizationScore"`
	Replacements      []Replacement      `json:"replacements"`
	IdentityFallback  bool               `json:"identityFallback"`
	Evaluation        *scoring.Breakdown `json:"evaluation,omitempty"`
}

// Names returns the optimized deck's card names in slot order.
func (d *OptimizedDeck) Names() []string {
	return d.Cards.Names()
}

// Optimizer solves reference deck to collection assignments. It holds only
// read-only tables and is safe for concurrent use.
type Optimizer struct {
	graph  *backups.Graph
	scorer *scoring.Scorer
	logger zerolog.Logger
}

// New creates an optimizer. scorer is optional; when set, results carry a full
// deck evaluation.
func New(graph *backups.Graph, scorer *scoring.Scorer, logger zerolog.Logger) *Optimizer {
	return &Optimizer{graph: graph, scorer: scorer, logger: logger}
}

// Optimize maps deck onto the player's collection. It returns nil when the deck is
// empty or malformed.
func (o *Optimizer) Optimize(deck cards.Deck, collection []cards.Card) *OptimizedDeck {
	return o.OptimizeLevels(deck, cards.NewPlayerLevels(collection))
}

// OptimizeLevels is Optimize over a prebuilt collection index.
func (o *Optimizer) OptimizeLevels(deck cards.Deck, player *cards.PlayerLevels) *OptimizedDeck {
	slots, ok := slotNames(deck)
	if !ok {
		o.logger.Debug().Int("cards", len(deck)).Msg("Reference deck rejected")
		return nil
	}

	m := buildCostMatrix(slots, o.graph, player)
	if !m.ownable {
		o.logger.Debug().Strs("deck", slots).Msg("No ownable candidate, keeping reference deck")
		return o.finish(identityFallback(deck, player), player)
	}

	assignment := m.solve()

	result := &OptimizedDeck{
		Cards:        make(cards.Deck, len(slots)),
		Replacements: make([]Replacement, len(slots)),
	}
	for i, original := range slots {
		j := assignment[i]
		rep := Replacement{
			Slot:          i,
			Original:      original,
			OriginalLevel: player.Level(original),
		}

		opt, valid := slotOption{}, false
		if j >= 0 && j < len(m.candidates) && m.cost[i][j] < Big {
			opt, valid = m.option(i, j)
		}
		owned, hasMeta := player.Card(opt.Name)
		if !valid || !hasMeta {
			rep.Chosen = original
			rep.ReplacementLevel = rep.OriginalLevel
			rep.Reason = ReasonUnresolved
			result.Cards[i] = referenceCard(deck[i], player)
			result.Replacements[i] = rep
			continue
		}

		rep.Chosen = opt.Name
		rep.WasReplaced = !opt.Identity
		rep.ReplacementLevel = player.Level(opt.Name)
		rep.Stars = opt.Stars
		rep.Reason = ReasonKeptOriginal
		if rep.WasReplaced {
			rep.Reason = ReasonOwnedBackup
		}
		result.OptimizationScore += m.score[i][j]
		result.Cards[i] = resolvedCard(deck[i], owned, opt.Identity)
		result.Replacements[i] = rep
	}

	return o.finish(result, player)
}

func (o *Optimizer) finish(result *OptimizedDeck, player *cards.PlayerLevels) *OptimizedDeck {
	if o.scorer != nil {
		b := o.scorer.Evaluate(result.Names(), player)
		result.Evaluation = &b
	}
	return result
}

// slotNames extracts trimmed slot names, rejecting decks of the wrong size, blank
// names and repeated cards.
func slotNames(deck cards.Deck) ([]string, bool) {
	if len(deck) != cards.DeckSize {
		return nil, false
	}
	names := make([]string, len(deck))
	seen := make(map[string]struct{}, len(deck))
	for i, c := range deck {
		n := strings.TrimSpace(c.Name)
		if n == "" {
			return nil, false
		}
		if _, dup := seen[n]; dup {
			return nil, false
		}
		seen[n] = struct{}{}
		names[i] = n
	}
	return names, true
}

// identityFallback keeps every reference card, overlaying the player's levels
// where owned.
func identityFallback(deck cards.Deck, player *cards.PlayerLevels) *OptimizedDeck {
	result := &OptimizedDeck{
		Cards:            make(cards.Deck, len(deck)),
		Replacements:     make([]Replacement, len(deck)),
		IdentityFallback: true,
	}
	for i, c := range deck {
		name := strings.TrimSpace(c.Name)
		level := player.Level(name)
		result.Cards[i] = referenceCard(c, player)
		result.Replacements[i] = Replacement{
			Slot:             i,
			Original:         name,
			Chosen:           name,
			OriginalLevel:    level,
			ReplacementLevel: level,
			Reason:           ReasonIdentityFallback,
		}
	}
	return result
}

// referenceCard keeps the reference card, taking level and rarity from the
// collection when the player owns it.
func referenceCard(ref cards.Card, player *cards.PlayerLevels) cards.Card {
	out := ref
	out.Name = strings.TrimSpace(ref.Name)
	if owned, ok := player.Card(out.Name); ok {
		out.Level = owned.Level
		out.Rarity = owned.Rarity
	}
	return out
}

// resolvedCard builds the output card for an owned choice. The original card
// keeps its reference icons; a backup uses the collection's.
func resolvedCard(ref, owned cards.Card, identity bool) cards.Card {
	out := owned
	if identity {
		if out.IconURL == "" {
			out.IconURL = ref.IconURL
		}
		if out.EvolutionIconURL == "" {
			out.EvolutionIconURL = ref.EvolutionIconURL
		}
		if out.ID == "" {
			out.ID = ref.ID
		}
	}
	return out
}
