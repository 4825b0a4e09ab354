// Package charts renders corpus statistics as interactive HTML charts.
package charts

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ramonehamilton/deckforge/internal/deckstats"
	"github.com/ramonehamilton/deckforge/internal/roles"
)

// ChartConfig sets a chart's labels, size and palette. Width and Height are
// CSS sizes.
type ChartConfig struct {
	Title      string
	Subtitle   string
	SeriesName string
	Width      string
	Height     string
	Theme      string
	ShowLegend bool
	Colors     []string // only the first is used by bar charts
}

// DefaultChartConfig returns a 900x500 light chart.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:      "900px",
		Height:     "500px",
		Theme:      "light",
		ShowLegend: true,
		Colors:     []string{"#5470C6", "#91CC75", "#FAC858", "#EE6666", "#73C0DE"},
	}
}

// DataPoint is one labelled bar.
type DataPoint struct {
	Label string
	Value float64
}

// TopCardPoints returns the n most frequent cards with their normalized frequency.
func TopCardPoints(m *deckstats.Model, n int) []DataPoint {
	top := m.TopCards(n)
	out := make([]DataPoint, len(top))
	for i, c := range top {
		out[i] = DataPoint{Label: c.Name, Value: c.FreqNorm}
	}
	return out
}

// RoleMeanPoints returns the mean per-deck count of each role.
func RoleMeanPoints(m *deckstats.Model) []DataPoint {
	out := make([]DataPoint, 0, roles.Count)
	for _, r := range roles.All {
		out = append(out, DataPoint{Label: r.String(), Value: m.RoleMean(r)})
	}
	return out
}

// NewBarChart builds a bar chart from data points.
func NewBarChart(data []DataPoint, config ChartConfig) *charts.Bar {
	bar := charts.NewBar()

	colors := config.Colors
	if len(colors) == 0 {
		colors = DefaultChartConfig().Colors
	}
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: config.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(config.ShowLegend),
		}),
		charts.WithColorsOpts(opts.Colors{colors[0]}),
	)

	xLabels := make([]string, len(data))
	yData := make([]opts.BarData, len(data))
	for i, point := range data {
		xLabels[i] = point.Label
		yData[i] = opts.BarData{Value: point.Value}
	}

	bar.SetXAxis(xLabels).
		AddSeries(config.SeriesName, yData).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)
	return bar
}

// RenderBarChart writes a single bar chart as HTML.
func RenderBarChart(data []DataPoint, config ChartConfig, w io.Writer) error {
	if err := NewBarChart(data, config).Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// heatMapCards caps the synergy matrix so the axis labels stay readable.
const heatMapCards = 15

// RenderReport writes a page with the top-n card frequency chart, the role
// mean chart and a PMI heat map of the most played cards.
func RenderReport(m *deckstats.Model, n int, w io.Writer) error {
	freq := DefaultChartConfig()
	freq.Title = fmt.Sprintf("Top %d cards", n)
	freq.Subtitle = fmt.Sprintf("%d decks", m.DeckCount())
	freq.SeriesName = "Normalized frequency"

	role := DefaultChartConfig()
	role.Title = "Role composition"
	role.Subtitle = "Mean cards per deck"
	role.SeriesName = "Mean count"
	role.Colors = role.Colors[1:]

	page := components.NewPage()
	page.PageTitle = "Deck corpus report"
	page.AddCharts(
		NewBarChart(TopCardPoints(m, n), freq),
		NewBarChart(RoleMeanPoints(m), role),
		NewPartnerHeatMap(NewPartnerMatrix(m, min(n, heatMapCards)), partnerHeatMapConfig(min(n, heatMapCards))),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// WriteReport renders the report to outputPath.
func WriteReport(m *deckstats.Model, n int, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	return RenderReport(m, n, f)
}

// openers maps GOOS to the command that hands a file to the desktop.
var openers = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"freebsd": {"xdg-open"},
	"windows": {"cmd", "/c", "start"},
}

// OpenInBrowser opens a rendered report with the platform's default handler.
func OpenInBrowser(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	opener, ok := openers[runtime.GOOS]
	if !ok {
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	args := append(opener[1:len(opener):len(opener)], absPath)
	return exec.Command(opener[0], args...).Start()
}
