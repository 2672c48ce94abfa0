package refresher

import (
	"context"
	"math"

	"github.com/palladium-stack/plmdash/internal/apiclient"
	"github.com/palladium-stack/plmdash/internal/metrics"
	"github.com/palladium-stack/plmdash/internal/model"
)

// Binding outcomes recorded in metrics.
const (
	outcomeOK           = "ok"
	outcomeErrorPayload = "error_payload"
	outcomeFailed       = "failed"
	outcomePanic        = "panic"
)

const systemSource = "system"

func (r *Refresher) pageBindings(page model.Page) []binding {
	switch page {
	case model.PageDashboard:
		return []binding{
			{name: "health", page: page, run: r.refreshHealth},
			{name: "system_resources", page: page, run: r.refreshResources},
			{name: "node_info", page: page, run: r.refreshNodeInfo},
			{name: "recent_blocks", page: page, run: r.refreshRecentBlocks},
			{name: "indexer_stats", page: page, run: r.refreshIndexerStats},
		}
	case model.PagePeers:
		return []binding{{name: "peers", page: page, run: r.refreshPeers}}
	case model.PageServers:
		return []binding{{name: "indexer_servers", page: page, run: r.refreshIndexerServers}}
	}
	return nil
}

func (r *Refresher) fetchFailed(name string, ep apiclient.Endpoint, err error) {
	r.logger.Warn("refresher: fetch failed", "binding", name, "endpoint", ep.Path, "error", err)
}

func (r *Refresher) errorPayload(name string, ep apiclient.Endpoint, msg string) {
	r.logger.Warn("refresher: backend reported error", "binding", name, "endpoint", ep.Path, "error", msg)
}

func (r *Refresher) sample(name string, value float64, source string) model.MetricSample {
	return model.MetricSample{Timestamp: r.now(), Name: name, Value: value, Source: source}
}

func (r *Refresher) refreshHealth(ctx context.Context) ([]model.MetricSample, string) {
	p, err := apiclient.FetchPlain[model.HealthPayload](ctx, r.client, r.eps.Health)
	if err != nil {
		r.fetchFailed("health", r.eps.Health, err)
		return nil, outcomeFailed
	}
	r.view.RenderHealth(healthView(p))
	return nil, outcomeOK
}

func (r *Refresher) refreshResources(ctx context.Context) ([]model.MetricSample, string) {
	res, err := apiclient.Fetch[model.ResourcesPayload](ctx, r.client, r.eps.Resources)
	if err != nil {
		r.fetchFailed("system_resources", r.eps.Resources, err)
		return nil, outcomeFailed
	}
	p, ok := res.Get()
	if !ok {
		r.errorPayload("system_resources", r.eps.Resources, res.Message())
		return nil, outcomeErrorPayload
	}
	v := resourcesView(p)
	r.view.RenderResources(v)
	return []model.MetricSample{
		r.sample(model.MetricCPUPercent, v.CPU.Percent, systemSource),
		r.sample(model.MetricMemoryPercent, v.Memory.Percent, systemSource),
		r.sample(model.MetricDiskPercent, v.Disk.Percent, systemSource),
	}, outcomeOK
}

// refreshNodeInfo renders the node card, then fetches the network hashrate.
// The hashrate fetch only runs after a successful info fetch and its failure
// only skips the hashrate widget.
func (r *Refresher) refreshNodeInfo(ctx context.Context) ([]model.MetricSample, string) {
	res, err := apiclient.Fetch[model.NodeInfoPayload](ctx, r.client, r.eps.NodeInfo)
	if err != nil {
		r.fetchFailed("node_info", r.eps.NodeInfo, err)
		return nil, outcomeFailed
	}
	p, ok := res.Get()
	if !ok {
		r.errorPayload("node_info", r.eps.NodeInfo, res.Message())
		return nil, outcomeErrorPayload
	}
	v := nodeInfoView(p)
	r.view.RenderNodeInfo(v)

	samples := []model.MetricSample{r.sample(model.MetricConnections, float64(v.Connections), r.node)}
	if c := v.Chain; c != nil {
		samples = append(samples,
			r.sample(model.MetricBlockHeight, float64(c.Height), r.node),
			r.sample(model.MetricDifficulty, c.Difficulty, r.node),
			r.sample(model.MetricSyncProgress, c.SyncProgress, r.node),
		)
	}
	if m := v.Mempool; m != nil {
		samples = append(samples, r.sample(model.MetricMempoolBytes, m.Bytes, r.node))
	}

	if hr, ok := r.refreshHashrate(ctx); ok {
		samples = append(samples, hr...)
	}
	return samples, outcomeOK
}

func (r *Refresher) refreshHashrate(ctx context.Context) (samples []model.MetricSample, ok bool) {
	outcome := outcomeFailed
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("refresher: binding panicked", "binding", "network_hashrate", "panic", rec)
			samples, ok, outcome = nil, false, outcomePanic
		}
		metrics.BindingRunsTotal.WithLabelValues("network_hashrate", outcome).Inc()
	}()

	res, err := apiclient.Fetch[model.HashratePayload](ctx, r.client, r.eps.NetworkHashrate)
	if err != nil {
		r.fetchFailed("network_hashrate", r.eps.NetworkHashrate, err)
		return nil, false
	}
	p, got := res.Get()
	if !got {
		r.errorPayload("network_hashrate", r.eps.NetworkHashrate, res.Message())
		outcome = outcomeErrorPayload
		return nil, false
	}
	v := hashrateView(p)
	r.view.RenderNetworkHashrate(v)
	outcome = outcomeOK
	if math.IsNaN(v.Hashrate) {
		return nil, true
	}
	return []model.MetricSample{r.sample(model.MetricNetworkHashrate, v.Hashrate, r.node)}, true
}

func (r *Refresher) refreshRecentBlocks(ctx context.Context) ([]model.MetricSample, string) {
	res, err := apiclient.Fetch[model.BlocksPayload](ctx, r.client, r.eps.RecentBlocks)
	if err != nil {
		r.fetchFailed("recent_blocks", r.eps.RecentBlocks, err)
		return nil, outcomeFailed
	}
	p, ok := res.Get()
	if !ok {
		r.errorPayload("recent_blocks", r.eps.RecentBlocks, res.Message())
		return nil, outcomeErrorPayload
	}
	r.view.RenderRecentBlocks(blocksView(p, r.loc))
	return nil, outcomeOK
}

// refreshPeers replaces the peer table. A transport failure shows an error
// row and keeps the aggregates.
func (r *Refresher) refreshPeers(ctx context.Context) ([]model.MetricSample, string) {
	res, err := apiclient.Fetch[model.PeersPayload](ctx, r.client, r.eps.Peers)
	if err != nil {
		r.fetchFailed("peers", r.eps.Peers, err)
		r.view.RenderPeers(model.PeersView{
			Placeholder: &model.Placeholder{Text: peersErrorText, Columns: peerColumns},
		})
		return nil, outcomeFailed
	}
	p, ok := res.Get()
	if !ok {
		r.errorPayload("peers", r.eps.Peers, res.Message())
		return nil, outcomeErrorPayload
	}
	v := peersView(p, r.now())
	r.view.RenderPeers(v)
	s := v.Stats
	return []model.MetricSample{
		r.sample(model.MetricPeersTotal, float64(s.Total), r.node),
		r.sample(model.MetricPeersInbound, float64(s.Inbound), r.node),
		r.sample(model.MetricPeersOutbound, float64(s.Outbound), r.node),
		r.sample(model.MetricPeersTrafficBytes, s.TrafficBytes, r.node),
	}, outcomeOK
}

func (r *Refresher) refreshIndexerStats(ctx context.Context) ([]model.MetricSample, string) {
	res, err := apiclient.Fetch[model.IndexerStatsPayload](ctx, r.client, r.eps.IndexerStats)
	if err != nil {
		r.fetchFailed("indexer_stats", r.eps.IndexerStats, err)
		return nil, outcomeFailed
	}
	p, ok := res.Get()
	if !ok {
		r.errorPayload("indexer_stats", r.eps.IndexerStats, res.Message())
		return nil, outcomeErrorPayload
	}
	if p.Stats == nil {
		return nil, outcomeOK
	}
	v := indexerStatsView(*p.Stats)
	r.view.RenderIndexerStats(v)
	if v.DBSizeBytes <= 0 {
		return nil, outcomeOK
	}
	return []model.MetricSample{r.sample(model.MetricIndexerDBSize, v.DBSizeBytes, r.indexer)}, outcomeOK
}

// refreshIndexerServers replaces the server table. A transport failure shows
// an error row and keeps the totals.
func (r *Refresher) refreshIndexerServers(ctx context.Context) ([]model.MetricSample, string) {
	res, err := apiclient.Fetch[model.ServersPayload](ctx, r.client, r.eps.IndexerServers)
	if err != nil {
		r.fetchFailed("indexer_servers", r.eps.IndexerServers, err)
		r.view.RenderIndexerServers(model.ServersView{
			Placeholder: &model.Placeholder{Text: serversErrorText, Columns: serverColumns},
		})
		return nil, outcomeFailed
	}
	p, ok := res.Get()
	if !ok {
		r.errorPayload("indexer_servers", r.eps.IndexerServers, res.Message())
		return nil, outcomeErrorPayload
	}
	v := serversView(p)
	r.view.RenderIndexerServers(v)
	return []model.MetricSample{r.sample(model.MetricIndexerServers, float64(v.Totals.Servers), r.indexer)}, outcomeOK
}
