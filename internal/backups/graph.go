// Package backups holds the card substitution table used when a player is
// missing a card from a reference deck.
package backups

// Star tiers. The original card always matches itself at the top tier.
const (
	MinStars      = 1
	MaxStars      = 3
	IdentityStars = MaxStars
)

// Backup is one acceptable substitute for a card.
type Backup struct {
	Name  string `json:"name"`
	Stars int    `json:"stars"`
}

// Entry is a row of the static substitution table.
type Entry struct {
	CardName string   `json:"cardName"`
	Backups  []Backup `json:"backups"`
}

// Candidate is a card that may fill a slot, with its tier and its rank in the
// preference list. Rank 0 is the original card.
type Candidate struct {
	Name     string
	Stars    int
	Rank     int
	Identity bool
}

// Graph maps a card to its ordered substitutes. It is immutable after construction.
type Graph struct {
	backups map[string][]Backup
	// reverse maps a substitute back to the cards it can stand in for.
	reverse map[string][]string
}

// NewGraph builds a graph from table rows. Stars are clamped to [MinStars, MaxStars],
// self references and repeated substitutes are dropped, and a repeated card row
// appends to the first one.
func NewGraph(entries []Entry) *Graph {
	g := &Graph{
		backups: make(map[string][]Backup, len(entries)),
		reverse: make(map[string][]string),
	}
	for _, e := range entries {
		if e.CardName == "" {
			continue
		}
		seen := make(map[string]struct{}, len(g.backups[e.CardName]))
		for _, b := range g.backups[e.CardName] {
			seen[b.Name] = struct{}{}
		}
		for _, b := range e.Backups {
			if b.Name == "" || b.Name == e.CardName {
				continue
			}
			if _, dup := seen[b.Name]; dup {
				continue
			}
			seen[b.Name] = struct{}{}
			g.backups[e.CardName] = append(g.backups[e.CardName], Backup{Name: b.Name, Stars: clampStars(b.Stars)})
			g.reverse[b.Name] = append(g.reverse[b.Name], e.CardName)
		}
	}
	return g
}

func clampStars(s int) int {
	if s < MinStars {
		return MinStars
	}
	if s > MaxStars {
		return MaxStars
	}
	return s
}

// Backups returns the listed substitutes for a card in preference order.
func (g *Graph) Backups(name string) []Backup {
	if g == nil {
		return nil
	}
	return g.backups[name]
}

// Candidates returns the original card followed by its substitutes.
func (g *Graph) Candidates(name string) []Candidate {
	list := g.Backups(name)
	out := make([]Candidate, 0, len(list)+1)
	out = append(out, Candidate{Name: name, Stars: IdentityStars, Rank: 0, Identity: true})
	for i, b := range list {
		out = append(out, Candidate{Name: b.Name, Stars: b.Stars, Rank: i + 1})
	}
	return out
}

// Stars returns the compatibility tier of candidate for a slot holding original,
// or 0 if the candidate is not acceptable there.
func (g *Graph) Stars(original, candidate string) int {
	if original == candidate {
		return IdentityStars
	}
	for _, b := range g.Backups(original) {
		if b.Name == candidate {
			return b.Stars
		}
	}
	return 0
}

// SubstituteFor returns the cards that list name as a backup.
func (g *Graph) SubstituteFor(name string) []string {
	if g == nil {
		return nil
	}
	return g.reverse[name]
}

// Len returns the number of cards with at least one backup.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.backups)
}
