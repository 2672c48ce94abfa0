package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/palladium-stack/plmdash/internal/model"
)

// Page represents a top-level screen of the dashboard.
type Page interface {
	ID() model.Page
	// Update receives key presses while the page is active and every widget
	// message after it has been applied to st.
	Update(msg tea.Msg, st *State) tea.Cmd
	View(st *State, width, height int) string
}

// NewPages builds the pages in the given order. Unknown pages are skipped.
func NewPages(pages []model.Page) []Page {
	out := make([]Page, 0, len(pages))
	for _, p := range pages {
		switch p {
		case model.PageDashboard:
			out = append(out, NewDashboardPage())
		case model.PagePeers:
			out = append(out, NewPeersPage())
		case model.PageServers:
			out = append(out, NewServersPage())
		}
	}
	return out
}
