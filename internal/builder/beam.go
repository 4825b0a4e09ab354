package builder

import (
	"slices"
	"sort"
	"strings"

	"github.com/ramonehamilton/deckforge/internal/cards"
)

// beam is one partial deck in the search frontier.
type beam struct {
	cards []string
	set   map[string]struct{}
	score float64
}

func newBeam(names []string) beam {
	b := beam{cards: names, set: make(map[string]struct{}, len(names)+1)}
	for _, n := range names {
		b.set[n] = struct{}{}
	}
	return b
}

// key identifies the card set regardless of pick order.
func (b beam) key() string {
	sorted := slices.Clone(b.cards)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

func (b beam) extend(card string) beam {
	next := make([]string, len(b.cards)+1)
	copy(next, b.cards)
	next[len(b.cards)] = card
	return newBeam(next)
}

// BuildDeck builds a full deck from scratch for the player's collection. It
// returns nil when the player cannot field enough distinct cards.
func (b *Builder) BuildDeck(collection []cards.Card) []string {
	return b.BuildFrom(nil, cards.NewPlayerLevels(collection))
}

// BuildFrom completes partial into a full deck with a beam search. Partial cards the
// player cannot field are dropped before the search starts. Each step
// expands every surviving beam by every playable card not already in it, and keeps
// the best BeamWidth children across all parents. The surviving full decks are
// re-scored and the best one is returned, or nil if the search runs out of cards.
func (b *Builder) BuildFrom(partial []string, player *cards.PlayerLevels) []string {
	start := make([]string, 0, len(partial))
	for _, n := range cleanPartial(partial) {
		if b.Playable(n, player) {
			start = append(start, n)
		}
	}
	if len(start) > b.cfg.DeckSize {
		start = start[:b.cfg.DeckSize]
	}
	pool := b.playablePool(player)

	frontier := []beam{newBeam(start)}
	frontier[0].score = b.score(start, player)

	for size := len(start); size < b.cfg.DeckSize; size++ {
		seen := make(map[string]int)
		var children []beam
		for _, parent := range frontier {
			for _, c := range pool {
				if _, ok := parent.set[c]; ok {
					continue
				}
				child := parent.extend(c)
				child.score = b.score(child.cards, player)
				k := child.key()
				if i, dup := seen[k]; dup {
					if child.score > children[i].score {
						children[i] = child
					}
					continue
				}
				seen[k] = len(children)
				children = append(children, child)
			}
		}
		if len(children) == 0 {
			b.logger.Debug().
				Int("size", size).
				Int("pool", len(pool)).
				Msg("Beam search ran out of playable cards")
			return nil
		}
		sortBeams(children)
		if len(children) > b.cfg.BeamWidth {
			children = children[:b.cfg.BeamWidth]
		}
		frontier = children
	}

	for i := range frontier {
		frontier[i].score = b.score(frontier[i].cards, player)
	}
	sortBeams(frontier)
	return frontier[0].cards
}

// sortBeams orders beams by score, then by card sequence so equal scores resolve
// the same way every run.
func sortBeams(bs []beam) {
	sort.SliceStable(bs, func(i, j int) bool {
		if bs[i].score != bs[j].score {
			return bs[i].score > bs[j].score
		}
		return slices.Compare(bs[i].cards, bs[j].cards) < 0
	})
}
