package tui

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/palladium-stack/plmdash/internal/format"
	"github.com/palladium-stack/plmdash/internal/model"
)

var blockColumns = []table.Column{
	{Title: "Height", Width: 10},
	{Title: "Hash", Width: 24},
	{Title: "Time", Width: 12},
	{Title: "Size", Width: 10},
	{Title: "Transactions", Width: 12},
}

// DashboardPage shows resources, the node, the indexer, trends and recent blocks.
type DashboardPage struct {
	gauge  progress.Model
	blocks table.Model
}

// NewDashboardPage creates the dashboard page.
func NewDashboardPage() *DashboardPage {
	return &DashboardPage{
		gauge: progress.New(
			progress.WithSolidFill(string(ColorBlue)),
			progress.WithoutPercentage(),
		),
		blocks: newTable(blockColumns, false),
	}
}

func (p *DashboardPage) ID() model.Page { return model.PageDashboard }

func (p *DashboardPage) Update(msg tea.Msg, st *State) tea.Cmd {
	if _, ok := msg.(BlocksMsg); ok && st.Blocks != nil {
		rows := make([]table.Row, 0, len(st.Blocks.Rows))
		for _, b := range st.Blocks.Rows {
			rows = append(rows, table.Row{b.Height, b.ShortHash, b.Time, b.Size, b.TxCount})
		}
		p.blocks.SetRows(rows)
	}
	return nil
}

func (p *DashboardPage) View(st *State, width, height int) string {
	widths := columnWidths(width, 3, 1)

	top := joinRow(
		p.resourcesCard(st, widths[0]),
		p.chainCard(st, widths[1]),
		p.mempoolCard(st, widths[2]),
	)
	middle := joinRow(
		p.nodeCard(st, widths[0]),
		p.indexerCard(st, widths[1]),
		p.trendsCard(st, widths[2]),
	)

	remaining := height - lipgloss.Height(top) - lipgloss.Height(middle)
	sections := []string{top, middle}
	if remaining >= 5 {
		sections = append(sections, p.blocksCard(st, width, remaining))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (p *DashboardPage) gaugeLines(label string, g model.GaugeView, width int) []string {
	p.gauge.Width = width
	return []string{
		statLine(label, g.Text, width),
		p.gauge.ViewAs(g.Width / 100),
	}
}

func (p *DashboardPage) resourcesCard(st *State, width int) string {
	inner := cardInnerWidth(width)
	r := st.Resources
	if r == nil {
		r = &model.ResourcesView{}
	}
	var lines []string
	lines = append(lines, p.gaugeLines("CPU", r.CPU, inner)...)
	lines = append(lines, p.gaugeLines("Memory", r.Memory, inner)...)
	lines = append(lines, p.gaugeLines("Disk", r.Disk, inner)...)
	return renderCard("System Resources", width, lines...)
}

func (p *DashboardPage) chainCard(st *State, width int) string {
	inner := cardInnerWidth(width)
	c := st.Chain
	if c == nil {
		c = &model.ChainView{}
	}
	hashrate := ""
	if st.Hashrate != nil {
		hashrate = st.Hashrate.Text
	}
	return renderCard("Blockchain", width,
		statLine("Block Height", c.HeightText, inner),
		statLine("Difficulty", c.DifficultyText, inner),
		statLine("Network", c.Network, inner),
		statLine("Sync Progress", c.SyncText, inner),
		statLine("Network Hashrate", hashrate, inner),
		"",
	)
}

func (p *DashboardPage) mempoolCard(st *State, width int) string {
	inner := cardInnerWidth(width)
	m := st.Mempool
	if m == nil {
		m = &model.MempoolView{}
	}
	return renderCard("Mempool", width,
		statLine("Transactions", m.SizeText, inner),
		statLine("Size", m.BytesText, inner),
		statLine("Max Size", m.MaxText, inner),
		statLine("Usage", m.UsageText, inner),
		"",
		"",
	)
}

func (p *DashboardPage) nodeCard(st *State, width int) string {
	inner := cardInnerWidth(width)
	version := ""
	if st.Network != nil {
		version = st.Network.Version
	}
	health := sentinel
	if h := st.Health; h != nil {
		if h.Healthy() {
			health = healthyStyle.Render(h.Text)
		} else {
			health = degradedStyle.Render(h.Text)
		}
	}
	return renderCard("Node", width,
		health,
		statLine("Version", version, inner),
		statLine("Connections", st.Connections, inner),
		"", "", "", "",
	)
}

func (p *DashboardPage) indexerCard(st *State, width int) string {
	inner := cardInnerWidth(width)
	s := st.IndexerStats
	if s == nil {
		s = &model.IndexerStatsView{}
	}
	return renderCard("ElectrumX Server", width,
		statLine("Version", s.Version, inner),
		statLine("Database Size", s.DBSize, inner),
		statLine("Uptime", s.Uptime, inner),
		statLine("Server IP", s.ServerIP, inner),
		statLine("TCP Port", s.TCPPort, inner),
		statLine("SSL Port", s.SSLPort, inner),
		statLine("Active Servers", s.ActiveServers, inner),
	)
}

func (p *DashboardPage) trendsCard(st *State, width int) string {
	inner := cardInnerWidth(width)
	cpu := st.Series(model.MetricCPUPercent)
	hashrate := st.Series(model.MetricNetworkHashrate)

	latestCPU, latestHashrate := "", ""
	if n := len(cpu); n > 0 {
		latestCPU = format.Percent(cpu[n-1], 1)
	}
	if n := len(hashrate); n > 0 {
		latestHashrate = format.Hashrate(hashrate[n-1])
	}
	return renderCard("Trends", width,
		renderTrend("CPU", latestCPU, cpu, inner, 3, ColorBlue),
		renderTrend("Hashrate", latestHashrate, hashrate, inner, 3, ColorGreen),
	)
}

func (p *DashboardPage) blocksCard(st *State, width, height int) string {
	inner := cardInnerWidth(width)
	cols := fitColumns(blockColumns, inner)
	p.blocks.SetColumns(cols)
	p.blocks.SetWidth(inner)
	p.blocks.SetHeight(max(height-4, 2))

	placeholder := "Loading..."
	if b := st.Blocks; b != nil {
		placeholder = ""
		if b.Placeholder != nil {
			placeholder = b.Placeholder.Text
		}
	}
	return renderCard("Recent Blocks", width, renderTableOrPlaceholder(p.blocks, cols, placeholder, inner))
}
