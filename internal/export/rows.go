package export

import (
	"time"

	"github.com/ramonehamilton/deckforge/internal/deckstats"
	"github.com/ramonehamilton/deckforge/internal/storage/models"
)

// CardRow is one card of the corpus frequency table.
type CardRow struct {
	Rank       int     `csv:"rank" json:"rank"`
	Name       string  `csv:"name" json:"name"`
	Decks      int     `csv:"decks" json:"decks"`
	FreqNorm   float64 `csv:"freq_norm" json:"freqNorm"`
	TopPartner string  `csv:"top_partner" json:"topPartner,omitempty"`
	PartnerPMI float64 `csv:"partner_pmi" json:"partnerPmi,omitempty"`
}

// CardRows returns the n most played cards (all when n <= 0) with their
// strongest partner.
func CardRows(m *deckstats.Model, n int) []CardRow {
	if n <= 0 {
		n = m.CardCount()
	}
	top := m.TopCards(n)
	rows := make([]CardRow, len(top))
	for i, c := range top {
		rows[i] = CardRow{Rank: i + 1, Name: c.Name, Decks: c.Freq, FreqNorm: c.FreqNorm}
		if p := m.TopPartners(c.Name, 1); len(p) > 0 {
			rows[i].TopPartner = p[0].Name
			rows[i].PartnerPMI = p[0].PMI
		}
	}
	return rows
}

// SavedDeckRow flattens a saved deck.
type SavedDeckRow struct {
	ID        string    `csv:"id" json:"id"`
	PlayerTag string    `csv:"player_tag" json:"playerTag,omitempty"`
	Name      string    `csv:"name" json:"name"`
	Source    string    `csv:"source" json:"source"`
	Score     float64   `csv:"score" json:"score"`
	Cards     []string  `csv:"cards" json:"cards"`
	CreatedAt time.Time `csv:"created_at" json:"createdAt"`
}

// SavedDeckRows converts stored decks to rows.
func SavedDeckRows(decks []*models.SavedDeck) []SavedDeckRow {
	rows := make([]SavedDeckRow, len(decks))
	for i, d := range decks {
		rows[i] = SavedDeckRow{
			ID:        d.ID,
			PlayerTag: d.PlayerTag,
			Name:      d.Name,
			Source:    d.Source,
			Score:     d.Score,
			Cards:     d.Cards,
			CreatedAt: d.CreatedAt,
		}
	}
	return rows
}
