package optimizer

import (
	"math"

	"github.com/ramonehamilton/deckforge/internal/backups"
	"github.com/ramonehamilton/deckforge/internal/cards"
)

// Per-slot score constants.
const (
	scoreScale    = 18.0
	levelTieBreak = 1e-6
	orderTieBreak = 1e-9
	orderBase     = 100
	identityBonus = 1e-4
	tieTolerance  = 1e-9
	tieNudge      = 1e-6
)

// slotOption is a candidate that is structurally valid for a slot.
type slotOption struct {
	backups.Candidate
	index int // position in the master candidate list
}

// costMatrix is the slot x candidate cost table for one optimizer run.
type costMatrix struct {
	slots      []string
	candidates []string
	options    [][]slotOption
	cost       [][]float64
	score      [][]float64
	ownable    bool
}

// buildCostMatrix collects every slot's candidates into one master list, in slot
// order, and fills cost = 1 - score for owned valid pairings and Big otherwise.
func buildCostMatrix(slots []string, graph *backups.Graph, player *cards.PlayerLevels) *costMatrix {
	m := &costMatrix{
		slots:   slots,
		options: make([][]slotOption, len(slots)),
	}

	index := make(map[string]int)
	for i, name := range slots {
		for _, c := range graph.Candidates(name) {
			idx, ok := index[c.Name]
			if !ok {
				idx = len(m.candidates)
				index[c.Name] = idx
				m.candidates = append(m.candidates, c.Name)
			}
			m.options[i] = append(m.options[i], slotOption{Candidate: c, index: idx})
		}
	}

	m.cost = make([][]float64, len(slots))
	m.score = make([][]float64, len(slots))
	for i := range slots {
		m.cost[i] = make([]float64, len(m.candidates))
		m.score[i] = make([]float64, len(m.candidates))
		for j := range m.cost[i] {
			m.cost[i][j] = Big
		}

		originalScore, originalOwned := 0.0, false
		for _, opt := range m.options[i] {
			level := player.Level(opt.Name)
			if level <= 0 {
				continue
			}
			m.ownable = true
			s := slotScore(opt.Candidate, level)
			if opt.Identity {
				originalScore, originalOwned = s, true
			} else if originalOwned {
				s = yieldTie(s, originalScore)
			}
			m.score[i][opt.index] = s
			m.cost[i][opt.index] = 1 - s
		}
	}
	return m
}

// yieldTie drops a backup score that ties the original card's to just below it.
// identityBonus already separates them for star and level values the tables accept,
// so this only guards against scores that land within tieTolerance anyway.
func yieldTie(s, originalScore float64) float64 {
	if math.Abs(s-originalScore) <= tieTolerance {
		return originalScore - tieNudge
	}
	return s
}

// slotScore rates an owned candidate for a slot. The small terms only break ties:
// higher level first, then earlier listed backups, then the original card.
func slotScore(c backups.Candidate, level int) float64 {
	s := float64(c.Stars+level)/scoreScale +
		float64(level)*levelTieBreak +
		float64(orderBase-c.Rank)*orderTieBreak
	if c.Identity {
		s += identityBonus
	}
	return s
}

// option returns the slot's option for a master candidate index.
func (m *costMatrix) option(slot, candidate int) (slotOption, bool) {
	for _, opt := range m.options[slot] {
		if opt.index == candidate {
			return opt, true
		}
	}
	return slotOption{}, false
}

// solve returns the matched candidate index per slot, or -1 for slots left on a
// forbidden or padded pairing. Rows and columns with no finite entry cannot take
// part in a finite matching, so they are dropped before padding; this keeps the
// Big entries from swamping the tie-break terms in the potentials.
func (m *costMatrix) solve() []int {
	var rows, cols []int
	colUsed := make([]bool, len(m.candidates))
	for i := range m.slots {
		finite := false
		for j, c := range m.cost[i] {
			if c < Big {
				finite = true
				colUsed[j] = true
			}
		}
		if finite {
			rows = append(rows, i)
		}
	}
	for j, used := range colUsed {
		if used {
			cols = append(cols, j)
		}
	}

	reduced := make([][]float64, len(rows))
	for r, i := range rows {
		reduced[r] = make([]float64, len(cols))
		for c, j := range cols {
			reduced[r][c] = m.cost[i][j]
		}
	}

	out := make([]int, len(m.slots))
	for i := range out {
		out[i] = -1
	}
	for r, c := range solveAssignment(padSquare(reduced, len(rows), len(cols))) {
		if r >= len(rows) || c >= len(cols) {
			continue
		}
		out[rows[r]] = cols[c]
	}
	return out
}
