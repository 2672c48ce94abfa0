package webview

import (
	"slices"
	"sort"
	"sync"

	"github.com/palladium-stack/plmdash/internal/model"
)

// Element ids of the dashboard markup.
const (
	IDHealthStatus         = "healthStatus"
	IDCPUValue             = "cpuValue"
	IDCPUProgress          = "cpuProgress"
	IDMemoryValue          = "memoryValue"
	IDMemoryProgress       = "memoryProgress"
	IDDiskValue            = "diskValue"
	IDDiskProgress         = "diskProgress"
	IDBlockHeight          = "blockHeight"
	IDDifficulty           = "difficulty"
	IDNetwork              = "network"
	IDSyncProgress         = "syncProgress"
	IDNodeVersion          = "nodeVersion"
	IDConnections          = "connections"
	IDMempoolSize          = "mempoolSize"
	IDMempoolBytes         = "mempoolBytes"
	IDMempoolMax           = "mempoolMax"
	IDMempoolUsage         = "mempoolUsage"
	IDNetworkHashrate      = "networkHashrate"
	IDRecentBlocksTable    = "recentBlocksTable"
	IDServerVersion        = "serverVersion"
	IDDBSize               = "dbSize"
	IDUptime               = "uptime"
	IDServerIP             = "serverIP"
	IDTCPPort              = "tcpPort"
	IDSSLPort              = "sslPort"
	IDActiveServersCount   = "activeServersCount"
	IDPeersTableBody       = "peersTableBody"
	IDTotalPeers           = "totalPeers"
	IDInboundPeers         = "inboundPeers"
	IDOutboundPeers        = "outboundPeers"
	IDTotalTraffic         = "totalTraffic"
	IDElectrumServersTable = "electrumServersTable"
	IDTotalServers         = "totalServers"
	IDTCPReachable         = "tcpReachable"
	IDLastUpdate           = "lastUpdate"
)

var pageElementIDs = map[model.Page][]string{
	model.PageDashboard: {
		IDHealthStatus, IDCPUValue, IDCPUProgress, IDMemoryValue, IDMemoryProgress,
		IDDiskValue, IDDiskProgress, IDBlockHeight, IDDifficulty, IDNetwork,
		IDSyncProgress, IDNodeVersion, IDConnections, IDMempoolSize, IDMempoolBytes,
		IDMempoolMax, IDMempoolUsage, IDNetworkHashrate, IDRecentBlocksTable,
		IDServerVersion, IDDBSize, IDUptime, IDServerIP, IDTCPPort, IDSSLPort,
		IDActiveServersCount, IDLastUpdate,
	},
	model.PagePeers: {
		IDPeersTableBody, IDTotalPeers, IDInboundPeers, IDOutboundPeers, IDTotalTraffic, IDLastUpdate,
	},
	model.PageServers: {
		IDElectrumServersTable, IDTotalServers, IDTCPReachable, IDLastUpdate,
	},
}

// PageElementIDs returns the element ids shown on page.
func PageElementIDs(page model.Page) []string {
	return append([]string(nil), pageElementIDs[page]...)
}

// Cell is one table cell.
type Cell struct {
	Text    string `json:"text"`
	Title   string `json:"title,omitempty"`
	Class   string `json:"class,omitempty"`
	Strong  bool   `json:"strong,omitempty"`
	Colspan int    `json:"colspan,omitempty"`
}

// Row is one table row.
type Row struct {
	Cells []Cell `json:"cells"`
}

// Element is the state of one element of the markup. Text elements use Text,
// gauges additionally Width, the health banner Class, and table bodies Rows.
type Element struct {
	ID    string `json:"id"`
	Text  string `json:"text,omitempty"`
	Class string `json:"class,omitempty"`
	Width string `json:"width,omitempty"`
	Rows  []Row  `json:"rows,omitempty"`
	Table bool   `json:"table,omitempty"`
}

// Elements is a concurrency-safe model.View that keeps element state by id
// and notifies subscribers of every change.
type Elements struct {
	mu       sync.RWMutex
	elements map[string]Element
	version  uint64
	subs     []func([]Element)

	// delivery is taken before mu is released so subscribers see batches
	// in version order.
	delivery sync.Mutex
}

var _ model.View = (*Elements)(nil)

// NewElements returns a store seeded with loading placeholders.
func NewElements() *Elements {
	e := &Elements{elements: make(map[string]Element)}
	for _, ids := range pageElementIDs {
		for _, id := range ids {
			e.elements[id] = Element{ID: id, Text: "--"}
		}
	}
	e.elements[IDHealthStatus] = Element{ID: IDHealthStatus, Text: "Checking..."}
	for _, id := range []string{IDCPUProgress, IDMemoryProgress, IDDiskProgress} {
		e.elements[id] = Element{ID: id, Width: formatWidth(0)}
	}
	for _, id := range []string{IDRecentBlocksTable, IDPeersTableBody} {
		e.elements[id] = placeholderElement(id, model.Placeholder{Text: "Loading...", Columns: columnsFor(id)})
	}
	e.elements[IDElectrumServersTable] = placeholderElement(IDElectrumServersTable, model.Placeholder{Text: "Loading...", Columns: 3})
	return e
}

func columnsFor(id string) int {
	if id == IDPeersTableBody {
		return 7
	}
	return 5
}

func placeholderElement(id string, p model.Placeholder) Element {
	return Element{ID: id, Table: true, Rows: []Row{{Cells: []Cell{{Text: p.Text, Class: "loading", Colspan: p.Columns}}}}}
}

// OnChange registers fn to receive every batch of changed elements. fn is
// called outside the store lock, one batch at a time and in the order the
// batches were applied. fn must not block.
func (e *Elements) OnChange(fn func([]Element)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, fn)
}

// Get returns the element with id.
func (e *Elements) Get(id string) (Element, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	el, ok := e.elements[id]
	return el, ok
}

// Text returns the text of element id, empty when unknown.
func (e *Elements) Text(id string) string {
	el, _ := e.Get(id)
	return el.Text
}

// Version counts the changes applied so far.
func (e *Elements) Version() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// Snapshot returns every element sorted by id. A non-empty ids list limits
// the result to those elements.
func (e *Elements) Snapshot(ids ...string) []Element {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []Element
	if len(ids) == 0 {
		out = make([]Element, 0, len(e.elements))
		for _, el := range e.elements {
			out = append(out, el)
		}
	} else {
		for _, id := range ids {
			if el, ok := e.elements[id]; ok {
				out = append(out, el)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Map returns the elements keyed by id for template rendering.
func (e *Elements) Map() map[string]Element {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]Element, len(e.elements))
	for id, el := range e.elements {
		out[id] = el
	}
	return out
}

func (e *Elements) set(els ...Element) {
	e.mu.Lock()
	for _, el := range els {
		e.elements[el.ID] = el
	}
	e.version++
	subs := slices.Clone(e.subs)
	e.delivery.Lock()
	e.mu.Unlock()
	defer e.delivery.Unlock()

	for _, fn := range subs {
		fn(els)
	}
}

func text(id, s string) Element { return Element{ID: id, Text: s} }

// SetLastUpdated implements model.View.
func (e *Elements) SetLastUpdated(stamp string) {
	e.set(text(IDLastUpdate, stamp))
}

// RenderHealth implements model.View.
func (e *Elements) RenderHealth(v model.HealthView) {
	class := ""
	if !v.Healthy() {
		class = model.HealthClassDegraded
	}
	e.set(Element{ID: IDHealthStatus, Text: v.Text, Class: class})
}

func gauge(valueID, progressID string, g model.GaugeView) []Element {
	return []Element{
		text(valueID, g.Text),
		{ID: progressID, Width: formatWidth(g.Width)},
	}
}

// RenderResources implements model.View.
func (e *Elements) RenderResources(v model.ResourcesView) {
	var els []Element
	els = append(els, gauge(IDCPUValue, IDCPUProgress, v.CPU)...)
	els = append(els, gauge(IDMemoryValue, IDMemoryProgress, v.Memory)...)
	els = append(els, gauge(IDDiskValue, IDDiskProgress, v.Disk)...)
	e.set(els...)
}

// RenderNodeInfo implements model.View. Absent sections keep their elements.
func (e *Elements) RenderNodeInfo(v model.NodeInfoView) {
	els := []Element{text(IDConnections, v.ConnectionsText)}
	if c := v.Chain; c != nil {
		els = append(els,
			text(IDBlockHeight, c.HeightText),
			text(IDDifficulty, c.DifficultyText),
			text(IDNetwork, c.Network),
			text(IDSyncProgress, c.SyncText),
		)
	}
	if n := v.Network; n != nil {
		els = append(els, text(IDNodeVersion, n.Version))
	}
	if m := v.Mempool; m != nil {
		els = append(els,
			text(IDMempoolSize, m.SizeText),
			text(IDMempoolBytes, m.BytesText),
			text(IDMempoolMax, m.MaxText),
			text(IDMempoolUsage, m.UsageText),
		)
	}
	e.set(els...)
}

// RenderNetworkHashrate implements model.View.
func (e *Elements) RenderNetworkHashrate(v model.HashrateView) {
	e.set(text(IDNetworkHashrate, v.Text))
}

// RenderRecentBlocks implements model.View.
func (e *Elements) RenderRecentBlocks(v model.BlocksView) {
	if v.Placeholder != nil {
		e.set(placeholderElement(IDRecentBlocksTable, *v.Placeholder))
		return
	}
	rows := make([]Row, 0, len(v.Rows))
	for _, b := range v.Rows {
		rows = append(rows, Row{Cells: []Cell{
			{Text: b.Height, Strong: true},
			{Text: b.ShortHash, Title: b.Hash, Class: "hash-cell"},
			{Text: b.Time},
			{Text: b.Size},
			{Text: b.TxCount},
		}})
	}
	e.set(Element{ID: IDRecentBlocksTable, Table: true, Rows: rows})
}

// RenderPeers implements model.View. A nil Stats keeps the aggregate elements.
func (e *Elements) RenderPeers(v model.PeersView) {
	var els []Element
	if v.Placeholder != nil {
		els = append(els, placeholderElement(IDPeersTableBody, *v.Placeholder))
	} else {
		rows := make([]Row, 0, len(v.Rows))
		for _, p := range v.Rows {
			rows = append(rows, Row{Cells: []Cell{
				{Text: p.Addr, Class: "peer-addr"},
				{Text: p.Direction, Class: p.DirectionClass},
				{Text: p.Version},
				{Text: p.ConnTime},
				{Text: p.Sent},
				{Text: p.Received},
				{Text: p.Total, Strong: true},
			}})
		}
		els = append(els, Element{ID: IDPeersTableBody, Table: true, Rows: rows})
	}
	if s := v.Stats; s != nil {
		els = append(els,
			text(IDTotalPeers, s.TotalText),
			text(IDInboundPeers, s.InboundText),
			text(IDOutboundPeers, s.OutboundText),
			text(IDTotalTraffic, s.TrafficText),
		)
	}
	e.set(els...)
}

// RenderIndexerStats implements model.View.
func (e *Elements) RenderIndexerStats(v model.IndexerStatsView) {
	e.set(
		text(IDServerVersion, v.Version),
		text(IDDBSize, v.DBSize),
		text(IDUptime, v.Uptime),
		text(IDServerIP, v.ServerIP),
		text(IDTCPPort, v.TCPPort),
		text(IDSSLPort, v.SSLPort),
		text(IDActiveServersCount, v.ActiveServers),
	)
}

// RenderIndexerServers implements model.View. A nil Totals keeps the totals.
func (e *Elements) RenderIndexerServers(v model.ServersView) {
	var els []Element
	if v.Placeholder != nil {
		els = append(els, placeholderElement(IDElectrumServersTable, *v.Placeholder))
	} else {
		rows := make([]Row, 0, len(v.Rows))
		for _, s := range v.Rows {
			rows = append(rows, Row{Cells: []Cell{
				{Text: s.Host, Class: "peer-addr"},
				{Text: s.TCPPort},
				{Text: s.SSLPort},
			}})
		}
		els = append(els, Element{ID: IDElectrumServersTable, Table: true, Rows: rows})
	}
	if t := v.Totals; t != nil {
		els = append(els,
			text(IDTotalServers, t.ServersText),
			text(IDTCPReachable, t.TCPReachableText),
		)
	}
	e.set(els...)
}
