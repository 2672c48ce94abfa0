package webview_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/palladium-stack/plmdash/internal/apiclient"
	"github.com/palladium-stack/plmdash/internal/fakebackend"
	"github.com/palladium-stack/plmdash/internal/model"
	"github.com/palladium-stack/plmdash/internal/refresher"
	"github.com/palladium-stack/plmdash/internal/webview"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubHistory struct {
	samples []model.MetricSample
	err     error
	limit   int
	name    string
}

func (s *stubHistory) RecentSamples(_ context.Context, name string, limit int) ([]model.MetricSample, error) {
	s.name, s.limit = name, limit
	return s.samples, s.err
}

type testEnv struct {
	elements *webview.Elements
	hub      *webview.Hub
	handler  http.Handler
}

func newTestEnv(t *testing.T, mutate func(*webview.Config)) *testEnv {
	t.Helper()
	elements := webview.NewElements()
	hub := webview.NewHub(quietLogger(), elements)
	cfg := webview.Config{Elements: elements, Hub: hub, Logger: quietLogger()}
	if mutate != nil {
		mutate(&cfg)
	}
	srv, err := webview.NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return &testEnv{elements: elements, hub: hub, handler: srv.Handler()}
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestNewServerRequiresElementsAndHub(t *testing.T) {
	if _, err := webview.NewServer(webview.Config{}); err == nil {
		t.Fatal("expected error without elements and hub")
	}
}

func TestPagesRenderCurrentElements(t *testing.T) {
	env := newTestEnv(t, nil)
	env.elements.RenderNodeInfo(model.NodeInfoView{
		Chain:           &model.ChainView{HeightText: "1,234,567", Network: "main"},
		ConnectionsText: "8",
	})

	w := env.get(t, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`id="blockHeight">1,234,567<`, `id="connections">8<`, `id="recentBlocksTable"`, `data-page="dashboard"`} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}

	for path, id := range map[string]string{"/peers": "peersTableBody", "/servers": "electrumServersTable"} {
		w := env.get(t, path)
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `id="`+id+`"`) {
			t.Errorf("%s: status %d, missing %s", path, w.Code, id)
		}
	}
}

func TestDisabledPagesAreNotRouted(t *testing.T) {
	env := newTestEnv(t, func(c *webview.Config) { c.Pages = []model.Page{model.PagePeers} })
	if w := env.get(t, "/servers"); w.Code != http.StatusNotFound {
		t.Errorf("/servers status = %d, want 404", w.Code)
	}
	if w := env.get(t, "/peers"); w.Code != http.StatusOK {
		t.Errorf("/peers status = %d", w.Code)
	}
}

func TestElementsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.elements.SetLastUpdated("11/14/2023, 10:13:20 PM")

	w := env.get(t, "/api/elements?page=servers")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Version  uint64            `json:"version"`
		Elements []webview.Element `json:"elements"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Version != 1 || len(resp.Elements) != 4 {
		t.Fatalf("resp = %+v", resp)
	}

	if w := env.get(t, "/api/elements?page=wallet"); w.Code != http.StatusBadRequest {
		t.Errorf("unknown page status = %d", w.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	ts := time.Unix(1_700_000_000, 0).UTC()
	hist := &stubHistory{samples: []model.MetricSample{
		{Timestamp: ts, Name: model.MetricBlockHeight, Value: 100, Source: "palladium"},
		{Timestamp: ts.Add(10 * time.Second), Name: model.MetricBlockHeight, Value: 101, Source: "palladium"},
	}}
	env := newTestEnv(t, func(c *webview.Config) { c.History = hist })

	w := env.get(t, "/api/history/"+model.MetricBlockHeight+"?limit=5000")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if hist.limit != 1000 || hist.name != model.MetricBlockHeight {
		t.Errorf("query = %s/%d", hist.name, hist.limit)
	}
	var resp struct {
		Metric  string `json:"metric"`
		Samples []struct {
			V float64 `json:"v"`
		} `json:"samples"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Samples) != 2 || resp.Samples[1].V != 101 {
		t.Errorf("samples = %+v", resp.Samples)
	}

	if w := env.get(t, "/api/history/x?limit=-1"); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", w.Code)
	}

	hist.err = errors.New("boom")
	if w := env.get(t, "/api/history/x"); w.Code != http.StatusInternalServerError {
		t.Errorf("failing store status = %d", w.Code)
	}
	if hist.limit != 60 {
		t.Errorf("default limit = %d", hist.limit)
	}
}

func TestHistoryDisabled(t *testing.T) {
	env := newTestEnv(t, nil)
	if w := env.get(t, "/api/history/node_block_height"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	var calls atomic.Int32
	env := newTestEnv(t, func(c *webview.Config) { c.Refresh = func() { calls.Add(1) } })
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	if w.Code != http.StatusAccepted || calls.Load() != 1 {
		t.Errorf("status = %d, calls = %d", w.Code, calls.Load())
	}

	bare := newTestEnv(t, nil)
	w = httptest.NewRecorder()
	bare.handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	if w.Code != http.StatusNotImplemented {
		t.Errorf("status without refresh = %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, nil)
	env.elements.SetLastUpdated("now")
	w := env.get(t, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "ok" || resp["last_update"] != "now" {
		t.Errorf("resp = %v", resp)
	}
	ws, ok := resp["websocket"].(map[string]any)
	if !ok || ws["connectedClients"] != float64(0) || ws["totalMessages"] != float64(0) {
		t.Errorf("websocket stats = %v", resp["websocket"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.get(t, "/healthz")
	w := env.get(t, "/metrics")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "plmdash_http_requests_total") {
		t.Errorf("metrics status = %d", w.Code)
	}
}

// TestDashboardEndToEnd drives a real refresh cycle against the fake backend
// and reads the result back over HTTP.
func TestDashboardEndToEnd(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	backend := fakebackend.New()
	eps := apiclient.NewEndpoints(model.DefaultNode, model.DefaultIndexer)
	backend.Populate(eps, now)
	upstream := httptest.NewServer(backend.Router())
	defer upstream.Close()

	client, err := apiclient.New(apiclient.Config{BaseURL: upstream.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	env := newTestEnv(t, nil)
	r, err := refresher.New(refresher.Config{
		Client:   client,
		View:     env.elements,
		Logger:   quietLogger(),
		Now:      func() time.Time { return now },
		Location: time.UTC,
	})
	if err != nil {
		t.Fatalf("refresher.New: %v", err)
	}
	r.RunCycle(context.Background())

	body := env.get(t, "/").Body.String()
	for _, want := range []string{"1,234,567", "All Systems Operational", "12.5%", "main"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	peers := env.get(t, "/peers").Body.String()
	if !strings.Contains(peers, "10.0.0.3:2333") || !strings.Contains(peers, `id="totalPeers">3<`) {
		t.Errorf("peers page missing rows or totals")
	}
	if got := env.elements.Text(webview.IDLastUpdate); got != "11/14/2023, 10:13:20 PM" {
		t.Errorf("last update = %q", got)
	}
}
