package tui

import (
	"context"
	"math"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/palladium-stack/plmdash/internal/model"
)

// seriesCap bounds every trend series.
const seriesCap = 120

// TrendMetrics are the series kept for the dashboard charts.
var TrendMetrics = []string{
	model.MetricCPUPercent,
	model.MetricMemoryPercent,
	model.MetricNetworkHashrate,
	model.MetricMempoolBytes,
}

// State is the last rendered value of every widget. Nil means the widget
// has not rendered yet.
type State struct {
	LastUpdated  string
	Health       *model.HealthView
	Resources    *model.ResourcesView
	Chain        *model.ChainView
	Network      *model.NetworkView
	Mempool      *model.MempoolView
	Connections  string
	Hashrate     *model.HashrateView
	Blocks       *model.BlocksView
	Peers        *model.PeersView
	PeerStats    *model.PeerStats
	IndexerStats *model.IndexerStatsView
	Servers      *model.ServersView
	ServerTotals *model.ServerTotals

	series map[string][]float64
}

// NewState returns an empty state.
func NewState() *State {
	return &State{series: make(map[string][]float64)}
}

// Apply folds a widget message into the state and reports whether msg was one.
func (s *State) Apply(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case LastUpdatedMsg:
		s.LastUpdated = msg.Stamp
	case HealthMsg:
		v := msg.View
		s.Health = &v
	case ResourcesMsg:
		v := msg.View
		s.Resources = &v
		s.push(model.MetricCPUPercent, v.CPU.Percent)
		s.push(model.MetricMemoryPercent, v.Memory.Percent)
	case NodeInfoMsg:
		v := msg.View
		s.Connections = v.ConnectionsText
		if v.Chain != nil {
			s.Chain = v.Chain
		}
		if v.Network != nil {
			s.Network = v.Network
		}
		if v.Mempool != nil {
			s.Mempool = v.Mempool
			s.push(model.MetricMempoolBytes, v.Mempool.Bytes)
		}
	case HashrateMsg:
		v := msg.View
		s.Hashrate = &v
		s.push(model.MetricNetworkHashrate, v.Hashrate)
	case BlocksMsg:
		v := msg.View
		s.Blocks = &v
	case PeersMsg:
		v := msg.View
		s.Peers = &v
		if v.Stats != nil {
			s.PeerStats = v.Stats
		}
	case IndexerStatsMsg:
		v := msg.View
		s.IndexerStats = &v
	case ServersMsg:
		v := msg.View
		s.Servers = &v
		if v.Totals != nil {
			s.ServerTotals = v.Totals
		}
	default:
		return false
	}
	return true
}

func (s *State) push(name string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	series := append(s.series[name], v)
	if len(series) > seriesCap {
		series = series[len(series)-seriesCap:]
	}
	s.series[name] = series
}

// Series returns the recorded values of name, oldest first.
func (s *State) Series(name string) []float64 {
	return s.series[name]
}

// Seed prepends historical values to the series of name.
func (s *State) Seed(name string, values []float64) {
	merged := make([]float64, 0, len(values)+len(s.series[name]))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			merged = append(merged, v)
		}
	}
	merged = append(merged, s.series[name]...)
	if len(merged) > seriesCap {
		merged = merged[len(merged)-seriesCap:]
	}
	s.series[name] = merged
}

// LoadSeries reads the trend metrics back from a history store.
func LoadSeries(ctx context.Context, q model.SampleQuerier) (map[string][]float64, error) {
	out := make(map[string][]float64, len(TrendMetrics))
	for _, name := range TrendMetrics {
		samples, err := q.RecentSamples(ctx, name, seriesCap)
		if err != nil {
			return nil, err
		}
		values := make([]float64, 0, len(samples))
		for _, smp := range samples {
			values = append(values, smp.Value)
		}
		out[name] = values
	}
	return out, nil
}
