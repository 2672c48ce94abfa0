package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

const sentinel = "--"

func orSentinel(s string) string {
	if s == "" {
		return sentinel
	}
	return s
}

// cardInnerWidth is the content width of a card rendered at width.
func cardInnerWidth(width int) int {
	return max(width-4, 1)
}

// renderCard draws a bordered card of the given outer width.
func renderCard(title string, width int, lines ...string) string {
	body := lipgloss.JoinVertical(lipgloss.Left, append([]string{cardTitleStyle.Render(title)}, lines...)...)
	return cardStyle.Width(max(width-2, 1)).Render(body)
}

// statLine puts label on the left and value flush right within width.
func statLine(label, value string, width int) string {
	l := labelStyle.Render(label)
	v := valueStyle.Render(orSentinel(value))
	gap := width - lipgloss.Width(l) - lipgloss.Width(v)
	if gap < 1 {
		gap = 1
	}
	return l + strings.Repeat(" ", gap) + v
}

// columnWidths splits width into n columns separated by gap cells.
func columnWidths(width, n, gap int) []int {
	if n <= 0 {
		return nil
	}
	each := (width - gap*(n-1)) / n
	out := make([]int, n)
	for i := range out {
		out[i] = max(each, 20)
	}
	return out
}

// joinRow lays cards out side by side.
func joinRow(cards ...string) string {
	spaced := make([]string, 0, len(cards)*2)
	for i, c := range cards {
		if i > 0 {
			spaced = append(spaced, " ")
		}
		spaced = append(spaced, c)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, spaced...)
}

// newTable builds a bubbles table styled with the current palette.
func newTable(cols []table.Column, focused bool) table.Model {
	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(focused),
		table.WithHeight(5),
	)
	s := table.DefaultStyles()
	s.Header = tableHeaderStyle
	s.Selected = tableSelectedStyle
	t.SetStyles(s)
	return t
}

// fitColumns stretches the last column so the table spans width.
func fitColumns(cols []table.Column, width int) []table.Column {
	out := append([]table.Column(nil), cols...)
	used := 0
	for _, c := range out[:len(out)-1] {
		used += c.Width + 2
	}
	last := width - used - 2
	if last > out[len(out)-1].Width {
		out[len(out)-1].Width = last
	}
	return out
}

// renderTableOrPlaceholder shows text under the column titles instead of the
// table rows when text is set.
func renderTableOrPlaceholder(t table.Model, cols []table.Column, text string, width int) string {
	if text != "" {
		titles := make([]string, 0, len(cols))
		for _, c := range cols {
			titles = append(titles, c.Title)
		}
		line := tableHeaderStyle.Width(width).Render(strings.Join(titles, "  "))
		return lipgloss.JoinVertical(lipgloss.Left, line, lipgloss.PlaceHorizontal(width, lipgloss.Center, placeholderStyle.Render(text)))
	}
	return t.View()
}
