package charts

import (
	"fmt"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ramonehamilton/deckforge/internal/deckstats"
)

// PartnerMatrix is the PMI of every pair among the n most played cards.
type PartnerMatrix struct {
	Cards  []string
	Values [][]float64 // Values[i][j] = PMI(Cards[i], Cards[j]); diagonal is 0
	MaxAbs float64
}

// NewPartnerMatrix computes the matrix for the top n cards.
func NewPartnerMatrix(m *deckstats.Model, n int) PartnerMatrix {
	top := m.TopCards(n)
	pm := PartnerMatrix{
		Cards:  make([]string, len(top)),
		Values: make([][]float64, len(top)),
	}
	for i, c := range top {
		pm.Cards[i] = c.Name
	}
	for i, a := range pm.Cards {
		pm.Values[i] = make([]float64, len(pm.Cards))
		for j, b := range pm.Cards {
			if i == j {
				continue
			}
			v := m.PMI(a, b)
			pm.Values[i][j] = v
			pm.MaxAbs = math.Max(pm.MaxAbs, math.Abs(v))
		}
	}
	return pm
}

// NewPartnerHeatMap draws the matrix with a diverging scale centred on zero.
func NewPartnerHeatMap(pm PartnerMatrix, config ChartConfig) *charts.HeatMap {
	hm := charts.NewHeatMap()

	limit := float32(pm.MaxAbs)
	if limit == 0 {
		limit = 1
	}
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: config.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: pm.Cards}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: pm.Cards}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        -limit,
			Max:        limit,
			InRange:    &opts.VisualMapInRange{Color: []string{"#4575B4", "#F7F7F7", "#D73027"}},
		}),
	)

	cells := make([]opts.HeatMapData, 0, len(pm.Cards)*len(pm.Cards))
	for i := range pm.Cards {
		for j := range pm.Cards {
			v := math.Round(pm.Values[i][j]*1000) / 1000
			cells = append(cells, opts.HeatMapData{Value: [3]any{j, i, v}})
		}
	}
	hm.SetXAxis(pm.Cards).AddSeries(config.SeriesName, cells)
	return hm
}

func partnerHeatMapConfig(n int) ChartConfig {
	cfg := DefaultChartConfig()
	cfg.Title = "Card synergy"
	cfg.Subtitle = fmt.Sprintf("PMI between the top %d cards", n)
	cfg.SeriesName = "PMI"
	cfg.Height = "900px"
	return cfg
}
