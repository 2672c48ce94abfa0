package tui

import "github.com/charmbracelet/lipgloss"

// Palette used by every page. InitializeSkin may replace these before the
// program starts.
var (
	ColorBlue   = lipgloss.Color("39")
	ColorNavy   = lipgloss.Color("24")
	ColorGray   = lipgloss.Color("245")
	ColorWhite  = lipgloss.Color("255")
	ColorGreen  = lipgloss.Color("42")
	ColorYellow = lipgloss.Color("220")
	ColorOrange = lipgloss.Color("208")
	ColorRed    = lipgloss.Color("196")
	ColorBlack  = lipgloss.Color("16")
)

var (
	cardStyle          lipgloss.Style
	cardTitleStyle     lipgloss.Style
	labelStyle         lipgloss.Style
	valueStyle         lipgloss.Style
	helpStyle          lipgloss.Style
	chartTitleStyle    lipgloss.Style
	tabStyle           lipgloss.Style
	activeTabStyle     lipgloss.Style
	healthyStyle       lipgloss.Style
	degradedStyle      lipgloss.Style
	inboundStyle       lipgloss.Style
	outboundStyle      lipgloss.Style
	statusLineStyle    lipgloss.Style
	placeholderStyle   lipgloss.Style
	tableHeaderStyle   lipgloss.Style
	tableSelectedStyle lipgloss.Style
)

func init() {
	rebuildStyles()
}

// rebuildStyles derives every style from the palette.
func rebuildStyles() {
	cardStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorNavy).
		Padding(0, 1)
	cardTitleStyle = lipgloss.NewStyle().Foreground(ColorBlue).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(ColorGray)
	valueStyle = lipgloss.NewStyle().Foreground(ColorWhite).Bold(true)
	helpStyle = lipgloss.NewStyle().Foreground(ColorGray)
	chartTitleStyle = lipgloss.NewStyle().Foreground(ColorBlue)
	tabStyle = lipgloss.NewStyle().Foreground(ColorGray).Padding(0, 2)
	activeTabStyle = lipgloss.NewStyle().
		Foreground(ColorWhite).
		Background(ColorNavy).
		Bold(true).
		Padding(0, 2)
	healthyStyle = lipgloss.NewStyle().Foreground(ColorBlack).Background(ColorGreen).Bold(true).Padding(0, 1)
	degradedStyle = lipgloss.NewStyle().Foreground(ColorWhite).Background(ColorRed).Bold(true).Padding(0, 1)
	inboundStyle = lipgloss.NewStyle().Foreground(ColorGreen)
	outboundStyle = lipgloss.NewStyle().Foreground(ColorOrange)
	statusLineStyle = lipgloss.NewStyle().Foreground(ColorGray)
	placeholderStyle = lipgloss.NewStyle().Foreground(ColorGray).Italic(true)
	tableHeaderStyle = lipgloss.NewStyle().
		Foreground(ColorBlue).
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(ColorNavy)
	tableSelectedStyle = lipgloss.NewStyle().Foreground(ColorWhite).Background(ColorNavy)
}
