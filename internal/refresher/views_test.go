package refresher

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/palladium-stack/plmdash/internal/model"
)

func TestHealthView(t *testing.T) {
	t.Parallel()

	if v := healthView(model.HealthPayload{Status: "healthy"}); !v.Healthy() || v.Text != "All Systems Operational" {
		t.Errorf("healthy view = %+v", v)
	}
	for _, status := range []string{"degraded", "", "HEALTHY"} {
		v := healthView(model.HealthPayload{Status: status})
		if v.Class != model.HealthClassDegraded || v.Text != "Service Degraded" {
			t.Errorf("status %q view = %+v", status, v)
		}
	}
}

func TestResourcesView(t *testing.T) {
	t.Parallel()

	v := resourcesView(model.ResourcesPayload{
		CPU:    model.UsagePayload{Percent: 12.345},
		Memory: model.UsagePayload{Percent: 150},
	})
	if v.CPU.Text != "12.3%" || v.CPU.Width != 12.345 {
		t.Errorf("cpu = %+v", v.CPU)
	}
	if v.Memory.Width != 100 {
		t.Errorf("memory width = %v, want clamped 100", v.Memory.Width)
	}
	if v.Disk.Text != "0.0%" {
		t.Errorf("disk text = %q, want 0.0%%", v.Disk.Text)
	}
}

func TestNodeInfoViewSections(t *testing.T) {
	t.Parallel()

	v := nodeInfoView(model.NodeInfoPayload{Peers: 8})
	if v.Chain != nil || v.Network != nil || v.Mempool != nil {
		t.Fatalf("absent sections rendered: %+v", v)
	}
	if v.ConnectionsText != "8" {
		t.Errorf("ConnectionsText = %q, want 8", v.ConnectionsText)
	}

	v = nodeInfoView(model.NodeInfoPayload{
		Blockchain: &model.BlockchainInfo{Blocks: 1234567, Difficulty: 2500000, VerificationProgress: 0.5},
		Network:    &model.NetworkInfo{Subversion: "/Palladium:2.0.0/"},
		Mempool:    &model.MempoolInfo{Size: 3, Bytes: 1536},
	})
	if v.Chain.HeightText != "1,234,567" || v.Chain.DifficultyText != "2.5 M" {
		t.Errorf("chain = %+v", v.Chain)
	}
	if v.Chain.Network != "UNKNOWN" {
		t.Errorf("Network = %q, want UNKNOWN", v.Chain.Network)
	}
	if v.Chain.SyncText != "50.00%" {
		t.Errorf("SyncText = %q, want 50.00%%", v.Chain.SyncText)
	}
	if v.Network.Version != "v2.0.0" {
		t.Errorf("Version = %q, want v2.0.0", v.Network.Version)
	}
	if v.Mempool.UsageText != "0%" || v.Mempool.BytesText != "1.5 KB" || v.Mempool.MaxText != "0 B" {
		t.Errorf("mempool = %+v", v.Mempool)
	}

	v = nodeInfoView(model.NodeInfoPayload{
		Network: &model.NetworkInfo{},
		Mempool: &model.MempoolInfo{Bytes: 1024, MaxMempool: 4096},
	})
	if v.Network.Version != "Unknown" {
		t.Errorf("empty subversion = %q, want Unknown", v.Network.Version)
	}
	if v.Mempool.UsageText != "25.0%" {
		t.Errorf("UsageText = %q, want 25.0%%", v.Mempool.UsageText)
	}
}

func TestHashrateView(t *testing.T) {
	t.Parallel()

	if v := hashrateView(model.HashratePayload{}); v.Text != "--" || !math.IsNaN(v.Hashrate) {
		t.Errorf("missing hashrate view = %+v", v)
	}
	rate := 1500.0
	if v := hashrateView(model.HashratePayload{NetworkHashrate: &rate}); v.Text != "1.50 KH/s" {
		t.Errorf("Text = %q, want 1.50 KH/s", v.Text)
	}
}

func TestBlocksView(t *testing.T) {
	t.Parallel()

	v := blocksView(model.BlocksPayload{}, time.UTC)
	if len(v.Rows) != 0 || v.Placeholder == nil {
		t.Fatalf("empty blocks view = %+v", v)
	}
	if v.Placeholder.Text != "No blocks available" || v.Placeholder.Columns != 5 {
		t.Errorf("placeholder = %+v", v.Placeholder)
	}

	v = blocksView(model.BlocksPayload{Blocks: []model.Block{
		{Height: 100, Hash: "0123456789abcdef0123456789", Time: 0, Size: 2048, TxCount: 4},
		{Height: 99, Hash: "short"},
	}}, time.UTC)
	if v.Placeholder != nil || len(v.Rows) != 2 {
		t.Fatalf("blocks view = %+v", v)
	}
	row := v.Rows[0]
	if row.ShortHash != "0123456789abcdef0123..." {
		t.Errorf("ShortHash = %q", row.ShortHash)
	}
	if row.Height != "100" || row.Size != "2 KB" || row.TxCount != "4" || row.Time != "12:00:00 AM" {
		t.Errorf("row = %+v", row)
	}
	if v.Rows[1].ShortHash != "short..." {
		t.Errorf("short hash = %q", v.Rows[1].ShortHash)
	}
}

func TestPeersViewAggregates(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	v := peersView(model.PeersPayload{Peers: []model.Peer{
		{Addr: "a", Inbound: true, Subver: "/Palladium:2.0.0/", ConnTime: now.Unix() - 3660, BytesSent: 1024, BytesRecv: 512},
		{Addr: "b", Inbound: true, Version: "Satoshi 0.21", ConnTime: 0, BytesSent: 1024, BytesRecv: 512},
		{Addr: "c", Inbound: false, BytesSent: 2048, BytesRecv: 1024},
	}}, now)

	s := v.Stats
	if s == nil {
		t.Fatal("Stats = nil")
	}
	if s.Total != 3 || s.Inbound != 2 || s.Outbound != 1 {
		t.Errorf("stats = %+v, want 3/2/1", s)
	}
	if s.TrafficBytes != 6144 || s.TrafficText != "6 KB" {
		t.Errorf("traffic = %v (%q), want 6144 (6 KB)", s.TrafficBytes, s.TrafficText)
	}
	if v.Rows[0].ConnTime != "1h 1m" || v.Rows[1].ConnTime != "--" {
		t.Errorf("conn times = %q/%q", v.Rows[0].ConnTime, v.Rows[1].ConnTime)
	}
	if v.Rows[0].Version != "v2.0.0" || v.Rows[1].Version != "v0.21" || v.Rows[2].Version != "Unknown" {
		t.Errorf("versions = %q/%q/%q", v.Rows[0].Version, v.Rows[1].Version, v.Rows[2].Version)
	}
	if v.Rows[2].DirectionClass != model.PeerClassOutbound || v.Rows[0].DirectionClass != model.PeerClassInbound {
		t.Errorf("direction classes = %q/%q", v.Rows[0].DirectionClass, v.Rows[2].DirectionClass)
	}
	if v.Rows[0].Total != "1.5 KB" {
		t.Errorf("row total = %q, want 1.5 KB", v.Rows[0].Total)
	}

	empty := peersView(model.PeersPayload{}, now)
	if empty.Placeholder == nil || empty.Placeholder.Columns != 7 || empty.Placeholder.Text != "No peers connected" {
		t.Errorf("empty placeholder = %+v", empty.Placeholder)
	}
	if empty.Stats == nil || empty.Stats.TotalText != "0" || empty.Stats.TrafficText != "0 B" {
		t.Errorf("empty stats = %+v", empty.Stats)
	}
}

func TestIndexerStatsView(t *testing.T) {
	t.Parallel()

	var stats model.IndexerStats
	if err := json.Unmarshal([]byte(`{"server_version":"","db_size":0,"uptime":-5,"tcp_port":null,"active_servers":[{},{}]}`), &stats); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	v := indexerStatsView(stats)
	if v.Version != "Unknown" || v.DBSize != "--" || v.Uptime != "--" || v.ServerIP != "--" || v.TCPPort != "--" || v.SSLPort != "--" {
		t.Errorf("defaults = %+v", v)
	}
	if v.ActiveServers != "2" {
		t.Errorf("ActiveServers = %q, want 2 from list length", v.ActiveServers)
	}

	count := int64(0)
	v = indexerStatsView(model.IndexerStats{
		ServerVersion:      "ElectrumX 1.16.0",
		DBSize:             1073741824,
		Uptime:             90000,
		TCPPort:            "50001",
		ActiveServers:      []json.RawMessage{[]byte(`{}`)},
		ActiveServersCount: &count,
	})
	if v.Version != "v1.16.0" || v.DBSize != "1 GB" || v.Uptime != "1d 1h" || v.TCPPort != "50001" {
		t.Errorf("view = %+v", v)
	}
	if v.ActiveServers != "0" {
		t.Errorf("ActiveServers = %q, want explicit count 0", v.ActiveServers)
	}
}

func TestServersView(t *testing.T) {
	t.Parallel()

	no, yes := false, true
	v := serversView(model.ServersPayload{Servers: []model.Server{
		{Host: "a", TCPPort: "50001", SSLPort: "50002"},
		{Host: "b", SSLPort: "50002"},
		{Host: "c", TCPPort: "50001", TCPReachable: &no},
		{TCPReachable: &yes},
	}})
	if v.Totals.Servers != 4 || v.Totals.TCPReachable != 2 {
		t.Errorf("totals = %+v, want 4/2", v.Totals)
	}
	if v.Rows[1].TCPPort != "--" || v.Rows[3].Host != "--" {
		t.Errorf("rows = %+v", v.Rows)
	}

	empty := serversView(model.ServersPayload{})
	if empty.Placeholder == nil || empty.Placeholder.Text != "No active servers found" || empty.Placeholder.Columns != 3 {
		t.Errorf("placeholder = %+v", empty.Placeholder)
	}
	if empty.Totals.ServersText != "0" || empty.Totals.TCPReachableText != "0" {
		t.Errorf("empty totals = %+v", empty.Totals)
	}
}
