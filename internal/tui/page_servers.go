package tui

import (
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/palladium-stack/plmdash/internal/model"
)

var serverColumns = []table.Column{
	{Title: "Host", Width: 36},
	{Title: "TCP Port", Width: 10},
	{Title: "SSL Port", Width: 10},
}

// ServersPage lists the indexer's peer servers.
type ServersPage struct {
	table table.Model
}

// NewServersPage creates the servers page.
func NewServersPage() *ServersPage {
	return &ServersPage{table: newTable(serverColumns, true)}
}

func (p *ServersPage) ID() model.Page { return model.PageServers }

func (p *ServersPage) Update(msg tea.Msg, st *State) tea.Cmd {
	switch msg.(type) {
	case ServersMsg:
		if st.Servers != nil {
			rows := make([]table.Row, 0, len(st.Servers.Rows))
			for _, r := range st.Servers.Rows {
				rows = append(rows, table.Row{r.Host, r.TCPPort, r.SSLPort})
			}
			p.table.SetRows(rows)
		}
		return nil
	case tea.KeyMsg:
		var cmd tea.Cmd
		p.table, cmd = p.table.Update(msg)
		return cmd
	}
	return nil
}

func (p *ServersPage) View(st *State, width, height int) string {
	widths := columnWidths(width, 2, 1)
	totals := st.ServerTotals
	if totals == nil {
		totals = &model.ServerTotals{}
	}
	summary := joinRow(
		renderCard("Active Servers", widths[0], valueStyle.Render(orSentinel(totals.ServersText))),
		renderCard("TCP Reachable", widths[1], valueStyle.Render(orSentinel(totals.TCPReachableText))),
	)

	inner := cardInnerWidth(width)
	cols := fitColumns(serverColumns, inner)
	p.table.SetColumns(cols)
	p.table.SetWidth(inner)
	p.table.SetHeight(max(height-lipgloss.Height(summary)-4, 2))

	placeholder := "Loading..."
	if v := st.Servers; v != nil {
		placeholder = ""
		if v.Placeholder != nil {
			placeholder = v.Placeholder.Text
		}
	}
	list := renderCard("ElectrumX Servers", width, renderTableOrPlaceholder(p.table, cols, placeholder, inner))
	return lipgloss.JoinVertical(lipgloss.Left, summary, list)
}
