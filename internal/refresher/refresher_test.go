package refresher

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/palladium-stack/plmdash/internal/apiclient"
	"github.com/palladium-stack/plmdash/internal/fakebackend"
	"github.com/palladium-stack/plmdash/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// recordingView keeps the last view-model per widget and a render count.
type recordingView struct {
	mu        sync.Mutex
	counts    map[string]int
	updated   []string
	health    model.HealthView
	resources model.ResourcesView
	node      model.NodeInfoView
	hashrate  model.HashrateView
	blocks    model.BlocksView
	peers     model.PeersView
	stats     model.IndexerStatsView
	servers   model.ServersView
	rendered  chan string
	panicOn   string
}

func newRecordingView() *recordingView {
	return &recordingView{counts: make(map[string]int), rendered: make(chan string, 64)}
}

func (v *recordingView) record(widget string) {
	v.counts[widget]++
	if widget == v.panicOn {
		panic("render " + widget)
	}
	select {
	case v.rendered <- widget:
	default:
	}
}

func (v *recordingView) count(widget string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.counts[widget]
}

func (v *recordingView) SetLastUpdated(stamp string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.updated = append(v.updated, stamp)
	v.record("lastUpdate")
}

func (v *recordingView) RenderHealth(h model.HealthView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.health = h
	v.record("health")
}

func (v *recordingView) RenderResources(r model.ResourcesView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resources = r
	v.record("resources")
}

func (v *recordingView) RenderNodeInfo(n model.NodeInfoView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.node = n
	v.record("node")
}

func (v *recordingView) RenderNetworkHashrate(h model.HashrateView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hashrate = h
	v.record("hashrate")
}

func (v *recordingView) RenderRecentBlocks(b model.BlocksView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.blocks = b
	v.record("blocks")
}

func (v *recordingView) RenderPeers(p model.PeersView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.peers = p
	v.record("peers")
}

func (v *recordingView) RenderIndexerStats(s model.IndexerStatsView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stats = s
	v.record("stats")
}

func (v *recordingView) RenderIndexerServers(s model.ServersView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.servers = s
	v.record("servers")
}

type captureSink struct {
	mu      sync.Mutex
	batches [][]model.MetricSample
}

func (s *captureSink) RecordSamples(_ context.Context, samples []model.MetricSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, samples)
	return nil
}

type fixture struct {
	backend *fakebackend.Backend
	view    *recordingView
	eps     apiclient.Endpoints
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		backend: fakebackend.New(),
		view:    newRecordingView(),
		eps:     apiclient.NewEndpoints(model.DefaultNode, model.DefaultIndexer),
		now:     time.Unix(1_700_000_000, 0),
	}
	f.backend.Populate(f.eps, f.now)
	return f
}

func (f *fixture) refresher(t *testing.T, mutate func(*Config)) *Refresher {
	t.Helper()
	srv := httptest.NewServer(f.backend.Router())
	t.Cleanup(func() {
		f.backend.Release()
		srv.Close()
	})
	client, err := apiclient.New(apiclient.Config{BaseURL: srv.URL, APIKey: "k3y", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	cfg := Config{
		Client:   client,
		View:     f.view,
		Node:     model.DefaultNode,
		Indexer:  model.DefaultIndexer,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:      func() time.Time { return f.now },
		Location: time.UTC,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestNewRequiresClientAndView(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{View: newRecordingView()}); err == nil {
		t.Error("expected error without client")
	}
	client, _ := apiclient.New(apiclient.Config{})
	if _, err := New(Config{Client: client}); err == nil {
		t.Error("expected error without view")
	}
}

func TestPagesSelectBindings(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	r := f.refresher(t, func(c *Config) { c.Pages = []model.Page{model.PagePeers, model.PageServers} })
	got := r.Bindings()
	if len(got) != 2 || got[0] != "peers" || got[1] != "indexer_servers" {
		t.Errorf("Bindings() = %v", got)
	}
	all := f.refresher(t, nil).Bindings()
	if len(all) != 7 {
		t.Errorf("default bindings = %v, want 7", all)
	}
}

func TestRunCycleRendersEveryWidget(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	r := f.refresher(t, nil)
	r.RunCycle(context.Background())

	for _, w := range []string{"lastUpdate", "health", "resources", "node", "hashrate", "blocks", "peers", "stats", "servers"} {
		if n := f.view.count(w); n != 1 {
			t.Errorf("%s rendered %d times, want 1", w, n)
		}
	}
	if f.view.updated[0] != "11/14/2023, 10:13:20 PM" {
		t.Errorf("last updated = %q", f.view.updated[0])
	}
	if !f.view.health.Healthy() {
		t.Errorf("health = %+v", f.view.health)
	}
	if f.view.node.Chain.HeightText != "1,234,567" {
		t.Errorf("height = %q", f.view.node.Chain.HeightText)
	}
	if f.view.hashrate.Text != "1.50 KH/s" {
		t.Errorf("hashrate = %q", f.view.hashrate.Text)
	}
	if f.view.stats.TCPPort != "50001" || f.view.stats.SSLPort != "50002" || f.view.stats.ActiveServers != "1" {
		t.Errorf("indexer stats = %+v", f.view.stats)
	}
	if f.view.servers.Totals.Servers != 2 || f.view.servers.Totals.TCPReachable != 1 {
		t.Errorf("server totals = %+v", f.view.servers.Totals)
	}
}

func TestPeersAggregateStatistics(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	r := f.refresher(t, func(c *Config) { c.Pages = []model.Page{model.PagePeers} })
	r.RunCycle(context.Background())

	s := f.view.peers.Stats
	if s == nil {
		t.Fatal("peer stats not rendered")
	}
	if s.TotalText != "3" || s.InboundText != "2" || s.OutboundText != "1" {
		t.Errorf("stats = %s/%s/%s, want 3/2/1", s.TotalText, s.InboundText, s.OutboundText)
	}
	wantTraffic := float64(fakebackend.SamplePeersSent + fakebackend.SamplePeersRecv)
	if s.TrafficBytes != wantTraffic || s.TrafficText != "9 KB" {
		t.Errorf("traffic = %v (%q), want %v (9 KB)", s.TrafficBytes, s.TrafficText, wantTraffic)
	}
	if len(f.view.peers.Rows) != 3 {
		t.Errorf("rows = %d, want 3", len(f.view.peers.Rows))
	}
}

func TestEmptyBlocksRenderPlaceholder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.backend.Set(f.eps.RecentBlocks.Path, http.StatusOK, gin.H{"blocks": []gin.H{}})
	r := f.refresher(t, nil)
	r.RunCycle(context.Background())

	b := f.view.blocks
	if len(b.Rows) != 0 || b.Placeholder == nil {
		t.Fatalf("blocks = %+v, want single placeholder", b)
	}
	if b.Placeholder.Columns != 5 || b.Placeholder.Text != "No blocks available" {
		t.Errorf("placeholder = %+v", b.Placeholder)
	}
}

func TestFailuresKeepWidgetsStale(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	r := f.refresher(t, nil)
	r.RunCycle(context.Background())

	f.backend.Set(f.eps.Resources.Path, http.StatusInternalServerError, gin.H{"error": "psutil failed"})
	f.backend.Drop(f.eps.RecentBlocks.Path)
	f.backend.Set(f.eps.IndexerStats.Path, http.StatusInternalServerError, gin.H{"error": "Cannot connect to ElectrumX"})
	f.backend.SetRaw(f.eps.Health.Path, http.StatusBadGateway, "<html>502</html>")
	f.backend.Set(f.eps.Peers.Path, http.StatusInternalServerError, gin.H{"error": "rpc down"})
	r.RunCycle(context.Background())

	for _, w := range []string{"resources", "blocks", "stats", "health", "peers"} {
		if n := f.view.count(w); n != 1 {
			t.Errorf("%s rendered %d times after failure, want 1", w, n)
		}
	}
	if f.view.resources.CPU.Text != "12.5%" {
		t.Errorf("cpu = %q, want previous 12.5%%", f.view.resources.CPU.Text)
	}
	if n := f.view.count("node"); n != 2 {
		t.Errorf("healthy sibling rendered %d times, want 2", n)
	}
}

func TestPeersTransportFailureShowsErrorRow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	r := f.refresher(t, func(c *Config) { c.Pages = []model.Page{model.PagePeers, model.PageServers} })
	f.backend.Drop(f.eps.Peers.Path)
	f.backend.Drop(f.eps.IndexerServers.Path)
	r.RunCycle(context.Background())

	p := f.view.peers
	if p.Placeholder == nil || p.Placeholder.Text != "Error loading peers" || p.Placeholder.Columns != 7 {
		t.Errorf("peers placeholder = %+v", p.Placeholder)
	}
	if p.Stats != nil {
		t.Errorf("peer stats = %+v, want untouched", p.Stats)
	}
	s := f.view.servers
	if s.Placeholder == nil || s.Placeholder.Text != "Error loading servers" || s.Totals != nil {
		t.Errorf("servers view = %+v", s)
	}
}

func TestHashrateFailureOnlySkipsHashrate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.backend.Set(f.eps.NetworkHashrate.Path, http.StatusInternalServerError, gin.H{"error": "getnetworkhashps failed"})
	r := f.refresher(t, nil)
	r.RunCycle(context.Background())

	if f.view.count("node") != 1 {
		t.Error("node info not rendered")
	}
	if f.view.count("hashrate") != 0 {
		t.Error("hashrate rendered despite error payload")
	}

	f.backend.Set(f.eps.NodeInfo.Path, http.StatusInternalServerError, gin.H{"error": "rpc down"})
	f.backend.Set(f.eps.NetworkHashrate.Path, http.StatusOK, gin.H{"network_hashrate": 1e6})
	r.RunCycle(context.Background())
	if f.view.count("hashrate") != 0 {
		t.Error("hashrate fetched although node info failed")
	}
}

func TestHangingEndpointDoesNotBlockSiblings(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.backend.Hang(f.eps.NodeInfo.Path)
	r := f.refresher(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.RunCycle(ctx)
		close(done)
	}()

	want := map[string]bool{"health": true, "resources": true, "blocks": true, "stats": true, "peers": true, "servers": true}
	deadline := time.After(3 * time.Second)
	for len(want) > 0 {
		select {
		case w := <-f.view.rendered:
			delete(want, w)
		case <-deadline:
			t.Fatalf("widgets not rendered while node info hangs: %v", want)
		}
	}

	select {
	case <-done:
		t.Fatal("cycle finished while node info still hanging")
	default:
	}

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("cycle did not finish after cancel")
	}
	if f.view.count("node") != 0 {
		t.Error("node info rendered from hanging endpoint")
	}
}

func TestAPIKeySentByEveryBinding(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	r := f.refresher(t, nil)
	r.RunCycle(context.Background())

	reqs := f.backend.Requests()
	if len(reqs) != 8 {
		t.Fatalf("requests = %d, want 8", len(reqs))
	}
	for _, req := range reqs {
		if req.APIKey != "k3y" {
			t.Errorf("%s sent key %q, want k3y", req.Path, req.APIKey)
		}
	}
}

func TestSinksReceiveSamples(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	sink := &captureSink{}
	r := f.refresher(t, func(c *Config) { c.Sinks = []model.SampleSink{sink} })
	r.RunCycle(context.Background())

	if len(sink.batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(sink.batches))
	}
	byName := make(map[string]model.MetricSample)
	for _, s := range sink.batches[0] {
		byName[s.Name] = s
	}
	checks := map[string]float64{
		model.MetricCPUPercent:      12.5,
		model.MetricBlockHeight:     fakebackend.SampleHeight,
		model.MetricNetworkHashrate: fakebackend.SampleHashrate,
		model.MetricPeersTotal:      3,
		model.MetricPeersInbound:    2,
		model.MetricIndexerDBSize:   fakebackend.SampleDBSize,
		model.MetricIndexerServers:  2,
	}
	for name, want := range checks {
		s, ok := byName[name]
		if !ok {
			t.Errorf("missing sample %s", name)
			continue
		}
		if s.Value != want {
			t.Errorf("%s = %v, want %v", name, s.Value, want)
		}
	}
	if byName[model.MetricBlockHeight].Source != model.DefaultNode {
		t.Errorf("block height source = %q", byName[model.MetricBlockHeight].Source)
	}
	if !byName[model.MetricCPUPercent].Timestamp.Equal(f.now) {
		t.Errorf("timestamp = %v, want %v", byName[model.MetricCPUPercent].Timestamp, f.now)
	}
}

func TestPanickingRenderIsIsolated(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.view.panicOn = "health"
	r := f.refresher(t, nil)
	r.RunCycle(context.Background())

	if f.view.count("resources") != 1 || f.view.count("servers") != 1 {
		t.Error("siblings not rendered after a panicking binding")
	}
}

func TestRunAndRefreshNow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	r := f.refresher(t, func(c *Config) {
		c.Interval = time.Hour
		c.Pages = []model.Page{model.PageServers}
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()

	waitForCount(t, f.view, "servers", 1)
	r.RefreshNow()
	waitForCount(t, f.view, "servers", 2)

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunTicks(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	r := f.refresher(t, func(c *Config) {
		c.Interval = 20 * time.Millisecond
		c.Pages = []model.Page{model.PageServers}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	waitForCount(t, f.view, "servers", 3)
}

func waitForCount(t *testing.T, v *recordingView, widget string, want int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if v.count(widget) >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("%s rendered %d times, want at least %d", widget, v.count(widget), want)
}
