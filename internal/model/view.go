package model

// View receives rendered view-models, one method per widget. Implementations
// must tolerate concurrent calls from different bindings.
type View interface {
	SetLastUpdated(stamp string)
	RenderHealth(v HealthView)
	RenderResources(v ResourcesView)
	RenderNodeInfo(v NodeInfoView)
	RenderNetworkHashrate(v HashrateView)
	RenderRecentBlocks(v BlocksView)
	RenderPeers(v PeersView)
	RenderIndexerStats(v IndexerStatsView)
	RenderIndexerServers(v ServersView)
}

// Health status classes.
const (
	HealthClassHealthy  = "healthy"
	HealthClassDegraded = "degraded"
)

// HealthView is the overall status banner.
type HealthView struct {
	Status string
	Class  string
	Text   string
}

// Healthy reports whether the banner shows the operational state.
func (h HealthView) Healthy() bool { return h.Class == HealthClassHealthy }

// GaugeView is one percentage gauge. Width is the progress fill in percent.
type GaugeView struct {
	Percent float64
	Text    string
	Width   float64
}

// ResourcesView holds the host resource gauges.
type ResourcesView struct {
	CPU    GaugeView
	Memory GaugeView
	Disk   GaugeView
}

// ChainView is the blockchain section of the node card.
type ChainView struct {
	Height         int64
	HeightText     string
	Difficulty     float64
	DifficultyText string
	Network        string
	SyncProgress   float64
	SyncText       string
}

// NetworkView is the network section of the node card.
type NetworkView struct {
	Version string
}

// MempoolView is the mempool section of the node card.
type MempoolView struct {
	Size      int64
	SizeText  string
	Bytes     float64
	BytesText string
	MaxText   string
	UsageText string
}

// NodeInfoView is the node card. Nil sections were absent from the payload
// and must not be rendered.
type NodeInfoView struct {
	Chain           *ChainView
	Network         *NetworkView
	Connections     int64
	ConnectionsText string
	Mempool         *MempoolView
}

// HashrateView is the network hashrate figure.
type HashrateView struct {
	Hashrate float64
	Text     string
}

// Placeholder is a single full-width row shown instead of table data.
type Placeholder struct {
	Text    string
	Columns int
}

// BlockRow is one recent block.
type BlockRow struct {
	Height    string
	Hash      string
	ShortHash string
	Time      string
	Size      string
	TxCount   string
}

// BlocksView replaces the recent blocks table.
type BlocksView struct {
	Rows        []BlockRow
	Placeholder *Placeholder
}

// Peer direction classes.
const (
	PeerClassInbound  = "peer-inbound"
	PeerClassOutbound = "peer-outbound"
)

// PeerRow is one connected peer.
type PeerRow struct {
	Addr           string
	Inbound        bool
	Direction      string
	DirectionClass string
	Version        string
	ConnTime       string
	Sent           string
	Received       string
	Total          string
}

// PeerStats are the aggregates computed while building the peer rows.
type PeerStats struct {
	Total        int
	Inbound      int
	Outbound     int
	TrafficBytes float64
	TotalText    string
	InboundText  string
	OutboundText string
	TrafficText  string
}

// PeersView replaces the peer table. A nil Stats leaves the aggregates as they were.
type PeersView struct {
	Rows        []PeerRow
	Placeholder *Placeholder
	Stats       *PeerStats
}

// IndexerStatsView is the indexer card.
type IndexerStatsView struct {
	Version            string
	DBSizeBytes        float64
	DBSize             string
	Uptime             string
	ServerIP           string
	TCPPort            string
	SSLPort            string
	ActiveServersCount int64
	ActiveServers      string
}

// ServerRow is one indexer peer server.
type ServerRow struct {
	Host    string
	TCPPort string
	SSLPort string
}

// ServerTotals summarise the server table.
type ServerTotals struct {
	Servers          int
	TCPReachable     int
	ServersText      string
	TCPReachableText string
}

// ServersView replaces the server table. A nil Totals leaves the totals as they were.
type ServersView struct {
	Rows        []ServerRow
	Placeholder *Placeholder
	Totals      *ServerTotals
}
