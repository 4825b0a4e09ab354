// Package deckstats learns card frequency, co-occurrence and role composition
// statistics from a corpus of reference decks.
//
// A Model is immutable once built. It is safe for concurrent readers and must be
// rebuilt, not mutated, when the corpus changes.
package deckstats

import (
	"errors"
	"math"
	"sort"

	"github.com/ramonehamilton/deckforge/internal/cards"
	"github.com/ramonehamilton/deckforge/internal/roles"
)

// Epsilon is the additive smoothing used in the PMI ratio.
const Epsilon = 1e-9

// ErrEmptyCorpus is returned when a model is built from zero decks.
var ErrEmptyCorpus = errors.New("deckstats: corpus has no decks")

// pairKey packs two interned ids, smaller first.
type pairKey uint64

func makePairKey(a, b int) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey(uint64(a)<<32 | uint64(uint32(b)))
}

// Model holds the learned corpus statistics. Card names are interned to dense ids
// assigned in ascending name order, so two models built from the same corpus are identical.
type Model struct {
	decks int

	ids   map[string]int
	names []string

	freq     []int
	freqNorm []float64
	prob     []float64

	joint map[pairKey]int
	pmi   map[pairKey]float64

	roleMean [roles.Count]float64
	roleStd  [roles.Count]float64
}

// Build derives a model from decks given as card-name lists. Duplicate names
// within one deck count once.
func Build(decks [][]string, classifier *roles.Classifier) (*Model, error) {
	if len(decks) == 0 {
		return nil, ErrEmptyCorpus
	}
	t := newTally()
	for _, d := range decks {
		t.addDeck(d, classifier)
	}
	return t.finalize(), nil
}

// BuildFromDecks is Build over card records.
func BuildFromDecks(decks []cards.Deck, classifier *roles.Classifier) (*Model, error) {
	return Build(deckNames(decks), classifier)
}

func deckNames(decks []cards.Deck) [][]string {
	out := make([][]string, len(decks))
	for i, d := range decks {
		out[i] = d.Names()
	}
	return out
}

// tally accumulates raw counts. All fields are plain sums so partial tallies merge
// associatively.
type tally struct {
	decks     int
	freq      map[string]int
	joint     map[[2]string]int
	roleSum   [roles.Count]int
	roleSumSq [roles.Count]int
}

func newTally() *tally {
	return &tally{
		freq:  make(map[string]int),
		joint: make(map[[2]string]int),
	}
}

func (t *tally) addDeck(names []string, classifier *roles.Classifier) {
	t.decks++
	unique := cards.UniqueNames(names)
	for _, n := range unique {
		t.freq[n]++
	}
	for i := 0; i < len(unique); i++ {
		for j := i + 1; j < len(unique); j++ {
			a, b := unique[i], unique[j]
			if a > b {
				a, b = b, a
			}
			t.joint[[2]string{a, b}]++
		}
	}
	counts := classifier.CountRoles(unique)
	for r, c := range counts {
		t.roleSum[r] += c
		t.roleSumSq[r] += c * c
	}
}

func (t *tally) merge(o *tally) {
	t.decks += o.decks
	for n, c := range o.freq {
		t.freq[n] += c
	}
	for k, c := range o.joint {
		t.joint[k] += c
	}
	for r := range t.roleSum {
		t.roleSum[r] += o.roleSum[r]
		t.roleSumSq[r] += o.roleSumSq[r]
	}
}

func (t *tally) finalize() *Model {
	names := make([]string, 0, len(t.freq))
	for n := range t.freq {
		names = append(names, n)
	}
	sort.Strings(names)

	m := &Model{
		decks:    t.decks,
		ids:      make(map[string]int, len(names)),
		names:    names,
		freq:     make([]int, len(names)),
		freqNorm: make([]float64, len(names)),
		prob:     make([]float64, len(names)),
		joint:    make(map[pairKey]int, len(t.joint)),
		pmi:      make(map[pairKey]float64, len(t.joint)),
	}

	maxFreq := 0
	for i, n := range names {
		m.ids[n] = i
		m.freq[i] = t.freq[n]
		if m.freq[i] > maxFreq {
			maxFreq = m.freq[i]
		}
	}

	n := float64(t.decks)
	for i := range names {
		if maxFreq > 0 {
			m.freqNorm[i] = float64(m.freq[i]) / float64(maxFreq)
		}
		m.prob[i] = float64(m.freq[i]) / n
	}

	for k, c := range t.joint {
		a, b := m.ids[k[0]], m.ids[k[1]]
		key := makePairKey(a, b)
		m.joint[key] = c
		pab := float64(c) / n
		m.pmi[key] = math.Log((pab + Epsilon) / (m.prob[a]*m.prob[b] + Epsilon))
	}

	for r := 0; r < roles.Count; r++ {
		mean := float64(t.roleSum[r]) / n
		variance := float64(t.roleSumSq[r])/n - mean*mean
		std := 0.0
		if variance > 0 {
			std = math.Sqrt(variance)
		}
		if std == 0 {
			std = 1
		}
		m.roleMean[r] = mean
		m.roleStd[r] = std
	}

	return m
}

// DeckCount returns the number of decks the model was built from.
func (m *Model) DeckCount() int { return m.decks }

// CardCount returns the number of distinct cards in the corpus.
func (m *Model) CardCount() int { return len(m.names) }

// Cards returns the distinct corpus card names in ascending order.
func (m *Model) Cards() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// ID returns the interned id for a card name.
func (m *Model) ID(name string) (int, bool) {
	id, ok := m.ids[name]
	return id, ok
}

// Freq returns the number of decks containing the card.
func (m *Model) Freq(name string) int {
	if id, ok := m.ids[name]; ok {
		return m.freq[id]
	}
	return 0
}

// FreqNorm returns the card's frequency divided by the most frequent card's.
// Unseen cards return 0.
func (m *Model) FreqNorm(name string) float64 {
	if id, ok := m.ids[name]; ok {
		return m.freqNorm[id]
	}
	return 0
}

// Prob returns the fraction of decks containing the card.
func (m *Model) Prob(name string) float64 {
	if id, ok := m.ids[name]; ok {
		return m.prob[id]
	}
	return 0
}

// Joint returns the fraction of decks containing both cards.
func (m *Model) Joint(a, b string) float64 {
	key, ok := m.pair(a, b)
	if !ok {
		return 0
	}
	return float64(m.joint[key]) / float64(m.decks)
}

// JointCount returns the number of decks containing both cards.
func (m *Model) JointCount(a, b string) int {
	key, ok := m.pair(a, b)
	if !ok {
		return 0
	}
	return m.joint[key]
}

// PMI returns the pointwise mutual information of a pair. Order does not matter;
// pairs that never co-occur return 0.
func (m *Model) PMI(a, b string) float64 {
	key, ok := m.pair(a, b)
	if !ok {
		return 0
	}
	return m.pmi[key]
}

func (m *Model) pair(a, b string) (pairKey, bool) {
	ia, ok := m.ids[a]
	if !ok {
		return 0, false
	}
	ib, ok := m.ids[b]
	if !ok || ia == ib {
		return 0, false
	}
	return makePairKey(ia, ib), true
}

// RoleMean returns the mean per-deck count of a role.
func (m *Model) RoleMean(r roles.Role) float64 { return m.roleMean[r] }

// RoleStd returns the population standard deviation of a role's per-deck count,
// floored to 1 when the corpus shows no variance.
func (m *Model) RoleStd(r roles.Role) float64 { return m.roleStd[r] }

// CardFrequency is a card and its corpus frequency.
type CardFrequency struct {
	Name     string  `json:"name"`
	Freq     int     `json:"freq"`
	FreqNorm float64 `json:"freqNorm"`
}

// TopCards returns the n most frequent cards, ties broken by name.
func (m *Model) TopCards(n int) []CardFrequency {
	out := make([]CardFrequency, len(m.names))
	for i, name := range m.names {
		out[i] = CardFrequency{Name: name, Freq: m.freq[i], FreqNorm: m.freqNorm[i]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Freq > out[j].Freq
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Partner is a card that co-occurs with another.
type Partner struct {
	Name  string  `json:"name"`
	PMI   float64 `json:"pmi"`
	Count int     `json:"count"`
}

// TopPartners returns the cards that co-occur with name, highest PMI first.
func (m *Model) TopPartners(name string, n int) []Partner {
	id, ok := m.ids[name]
	if !ok {
		return nil
	}
	var out []Partner
	for other, otherName := range m.names {
		if other == id {
			continue
		}
		key := makePairKey(id, other)
		c, ok := m.joint[key]
		if !ok {
			continue
		}
		out = append(out, Partner{Name: otherName, PMI: m.pmi[key], Count: c})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PMI > out[j].PMI
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
