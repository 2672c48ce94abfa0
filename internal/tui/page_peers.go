package tui

import (
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/palladium-stack/plmdash/internal/model"
)

var peerColumns = []table.Column{
	{Title: "Address", Width: 22},
	{Title: "Direction", Width: 9},
	{Title: "Version", Width: 16},
	{Title: "Connected", Width: 10},
	{Title: "Sent", Width: 10},
	{Title: "Received", Width: 10},
	{Title: "Total", Width: 10},
}

// PeersPage lists connected peers with aggregate traffic.
type PeersPage struct {
	table table.Model
}

// NewPeersPage creates the peers page.
func NewPeersPage() *PeersPage {
	return &PeersPage{table: newTable(peerColumns, true)}
}

func (p *PeersPage) ID() model.Page { return model.PagePeers }

func (p *PeersPage) Update(msg tea.Msg, st *State) tea.Cmd {
	switch msg.(type) {
	case PeersMsg:
		if st.Peers != nil {
			rows := make([]table.Row, 0, len(st.Peers.Rows))
			for _, r := range st.Peers.Rows {
				rows = append(rows, table.Row{r.Addr, r.Direction, r.Version, r.ConnTime, r.Sent, r.Received, r.Total})
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

// SelectedPeer returns the address under the cursor.
func (p *PeersPage) SelectedPeer() string {
	row := p.table.SelectedRow()
	if len(row) == 0 {
		return ""
	}
	return row[0]
}

func (p *PeersPage) View(st *State, width, height int) string {
	widths := columnWidths(width, 4, 1)
	stats := st.PeerStats
	if stats == nil {
		stats = &model.PeerStats{}
	}
	summary := joinRow(
		renderCard("Total Peers", widths[0], valueStyle.Render(orSentinel(stats.TotalText))),
		renderCard("Inbound", widths[1], inboundStyle.Render(orSentinel(stats.InboundText))),
		renderCard("Outbound", widths[2], outboundStyle.Render(orSentinel(stats.OutboundText))),
		renderCard("Total Traffic", widths[3], valueStyle.Render(orSentinel(stats.TrafficText))),
	)

	inner := cardInnerWidth(width)
	cols := fitColumns(peerColumns, inner)
	p.table.SetColumns(cols)
	p.table.SetWidth(inner)
	p.table.SetHeight(max(height-lipgloss.Height(summary)-4, 2))

	placeholder := "Loading..."
	if v := st.Peers; v != nil {
		placeholder = ""
		if v.Placeholder != nil {
			placeholder = v.Placeholder.Text
		}
	}
	list := renderCard("Connected Peers", width, renderTableOrPlaceholder(p.table, cols, placeholder, inner))
	return lipgloss.JoinVertical(lipgloss.Left, summary, list)
}
