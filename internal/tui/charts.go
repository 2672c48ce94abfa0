package tui

import (
	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
)

// trendBars returns the newest values that fit in width one-cell bars with a
// one-cell gap.
func trendBars(values []float64, width int) []float64 {
	maxBars := (width + 1) / 2
	if maxBars < 1 {
		return nil
	}
	if len(values) > maxBars {
		values = values[len(values)-maxBars:]
	}
	return values
}

// renderTrend draws values as a bar chart under a title line.
func renderTrend(title, latest string, values []float64, width, height int, color lipgloss.Color) string {
	header := statLine(title, latest, width)
	bars := trendBars(values, width)
	if len(bars) == 0 || height < 2 {
		return lipgloss.JoinVertical(lipgloss.Left, header, helpStyle.Render("No samples yet"))
	}

	bc := barchart.New(width, height-1,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(1),
		barchart.WithNoAxis(),
	)
	style := lipgloss.NewStyle().Foreground(color).Background(color)
	for _, v := range bars {
		bc.Push(barchart.BarData{
			Label:  "",
			Values: []barchart.BarValue{{Name: title, Value: v, Style: style}},
		})
	}
	bc.Draw()
	return lipgloss.JoinVertical(lipgloss.Left, header, bc.View())
}
