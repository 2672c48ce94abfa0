package refresher

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/palladium-stack/plmdash/internal/format"
	"github.com/palladium-stack/plmdash/internal/model"
)

// Placeholder texts and column spans of the table widgets.
const (
	noBlocksText     = "No blocks available"
	noPeersText      = "No peers connected"
	peersErrorText   = "Error loading peers"
	noServersText    = "No active servers found"
	serversErrorText = "Error loading servers"

	blockColumns  = 5
	peerColumns   = 7
	serverColumns = 3

	shortHashLen = 20
)

func healthView(p model.HealthPayload) model.HealthView {
	if p.Status == "healthy" {
		return model.HealthView{Status: p.Status, Class: model.HealthClassHealthy, Text: "All Systems Operational"}
	}
	return model.HealthView{Status: p.Status, Class: model.HealthClassDegraded, Text: "Service Degraded"}
}

func gaugeView(percent float64) model.GaugeView {
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		percent = 0
	}
	width := math.Max(0, math.Min(100, percent))
	return model.GaugeView{Percent: percent, Text: format.Percent(percent, 1), Width: width}
}

func resourcesView(p model.ResourcesPayload) model.ResourcesView {
	return model.ResourcesView{
		CPU:    gaugeView(p.CPU.Percent),
		Memory: gaugeView(p.Memory.Percent),
		Disk:   gaugeView(p.Disk.Percent),
	}
}

func nodeInfoView(p model.NodeInfoPayload) model.NodeInfoView {
	v := model.NodeInfoView{
		Connections:     p.Peers,
		ConnectionsText: strconv.FormatInt(p.Peers, 10),
	}
	if b := p.Blockchain; b != nil {
		chain := b.Chain
		if chain == "" {
			chain = "unknown"
		}
		v.Chain = &model.ChainView{
			Height:         b.Blocks,
			HeightText:     format.BlockHeight(b.Blocks),
			Difficulty:     b.Difficulty,
			DifficultyText: format.Difficulty(b.Difficulty),
			Network:        strings.ToUpper(chain),
			SyncProgress:   b.VerificationProgress,
			SyncText:       format.Percent(b.VerificationProgress*100, 2),
		}
	}
	if n := p.Network; n != nil {
		v.Network = &model.NetworkView{Version: format.Version(n.Subversion, true)}
	}
	if m := p.Mempool; m != nil {
		usage := "0%"
		if m.MaxMempool != 0 && m.Bytes != 0 {
			usage = format.Percent(m.Bytes/m.MaxMempool*100, 1)
		}
		v.Mempool = &model.MempoolView{
			Size:      m.Size,
			SizeText:  strconv.FormatInt(m.Size, 10),
			Bytes:     m.Bytes,
			BytesText: format.Bytes(m.Bytes),
			MaxText:   format.Bytes(m.MaxMempool),
			UsageText: usage,
		}
	}
	return v
}

func hashrateView(p model.HashratePayload) model.HashrateView {
	if p.NetworkHashrate == nil {
		return model.HashrateView{Hashrate: math.NaN(), Text: format.Sentinel}
	}
	return model.HashrateView{Hashrate: *p.NetworkHashrate, Text: format.Hashrate(*p.NetworkHashrate)}
}

func shortHash(hash string) string {
	if len(hash) > shortHashLen {
		hash = hash[:shortHashLen]
	}
	return hash + "..."
}

func blocksView(p model.BlocksPayload, loc *time.Location) model.BlocksView {
	if len(p.Blocks) == 0 {
		return model.BlocksView{Placeholder: &model.Placeholder{Text: noBlocksText, Columns: blockColumns}}
	}
	rows := make([]model.BlockRow, 0, len(p.Blocks))
	for _, b := range p.Blocks {
		rows = append(rows, model.BlockRow{
			Height:    strconv.FormatInt(b.Height, 10),
			Hash:      b.Hash,
			ShortHash: shortHash(b.Hash),
			Time:      format.TimeIn(b.Time, loc),
			Size:      format.Bytes(b.Size),
			TxCount:   strconv.FormatInt(b.TxCount, 10),
		})
	}
	return model.BlocksView{Rows: rows}
}

func peerStats(total, inbound, outbound int, traffic float64) *model.PeerStats {
	return &model.PeerStats{
		Total:        total,
		Inbound:      inbound,
		Outbound:     outbound,
		TrafficBytes: traffic,
		TotalText:    strconv.Itoa(total),
		InboundText:  strconv.Itoa(inbound),
		OutboundText: strconv.Itoa(outbound),
		TrafficText:  format.Bytes(traffic),
	}
}

// peersView builds the peer rows and their aggregates in one pass.
func peersView(p model.PeersPayload, now time.Time) model.PeersView {
	if len(p.Peers) == 0 {
		return model.PeersView{
			Placeholder: &model.Placeholder{Text: noPeersText, Columns: peerColumns},
			Stats:       peerStats(0, 0, 0, 0),
		}
	}
	var (
		rows              = make([]model.PeerRow, 0, len(p.Peers))
		inbound, outbound int
		sent, recv        float64
	)
	for _, peer := range p.Peers {
		row := model.PeerRow{
			Addr:     peer.Addr,
			Inbound:  peer.Inbound,
			Version:  format.Version(peer.UserAgent(), false),
			ConnTime: format.Sentinel,
			Sent:     format.Bytes(peer.BytesSent),
			Received: format.Bytes(peer.BytesRecv),
			Total:    format.Bytes(peer.BytesSent + peer.BytesRecv),
		}
		if peer.Inbound {
			inbound++
			row.Direction, row.DirectionClass = "⬇️ Inbound", model.PeerClassInbound
		} else {
			outbound++
			row.Direction, row.DirectionClass = "⬆️ Outbound", model.PeerClassOutbound
		}
		if peer.ConnTime > 0 {
			row.ConnTime = format.Duration(now.Unix() - peer.ConnTime)
		}
		sent += peer.BytesSent
		recv += peer.BytesRecv
		rows = append(rows, row)
	}
	return model.PeersView{Rows: rows, Stats: peerStats(len(p.Peers), inbound, outbound, sent+recv)}
}

func orSentinel(s string) string {
	if s == "" {
		return format.Sentinel
	}
	return s
}

func indexerStatsView(s model.IndexerStats) model.IndexerStatsView {
	v := model.IndexerStatsView{
		Version:     format.Version(s.ServerVersion, false),
		DBSizeBytes: s.DBSize,
		DBSize:      format.Sentinel,
		Uptime:      format.Sentinel,
		ServerIP:    orSentinel(s.ServerIP),
		TCPPort:     orSentinel(string(s.TCPPort)),
		SSLPort:     orSentinel(string(s.SSLPort)),
	}
	if s.DBSize > 0 {
		v.DBSize = format.Bytes(s.DBSize)
	}
	if s.Uptime > 0 {
		v.Uptime = format.Duration(int64(s.Uptime))
	}
	if s.ActiveServersCount != nil {
		v.ActiveServersCount = *s.ActiveServersCount
	} else {
		v.ActiveServersCount = int64(len(s.ActiveServers))
	}
	v.ActiveServers = strconv.FormatInt(v.ActiveServersCount, 10)
	return v
}

func serverTotals(servers, reachable int) *model.ServerTotals {
	return &model.ServerTotals{
		Servers:          servers,
		TCPReachable:     reachable,
		ServersText:      strconv.Itoa(servers),
		TCPReachableText: strconv.Itoa(reachable),
	}
}

func tcpReachable(s model.Server) bool {
	if s.TCPReachable != nil {
		return *s.TCPReachable
	}
	return s.TCPPort != ""
}

func serversView(p model.ServersPayload) model.ServersView {
	if len(p.Servers) == 0 {
		return model.ServersView{
			Placeholder: &model.Placeholder{Text: noServersText, Columns: serverColumns},
			Totals:      serverTotals(0, 0),
		}
	}
	rows := make([]model.ServerRow, 0, len(p.Servers))
	reachable := 0
	for _, s := range p.Servers {
		rows = append(rows, model.ServerRow{
			Host:    orSentinel(s.Host),
			TCPPort: orSentinel(string(s.TCPPort)),
			SSLPort: orSentinel(string(s.SSLPort)),
		})
		if tcpReachable(s) {
			reachable++
		}
	}
	return model.ServersView{Rows: rows, Totals: serverTotals(len(p.Servers), reachable)}
}
