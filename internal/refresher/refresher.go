// Package refresher polls the dashboard backend and renders every widget
// through a model.View on a fixed interval.
package refresher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/palladium-stack/plmdash/internal/apiclient"
	"github.com/palladium-stack/plmdash/internal/format"
	"github.com/palladium-stack/plmdash/internal/metrics"
	"github.com/palladium-stack/plmdash/internal/model"
)

// Config configures a Refresher.
type Config struct {
	Client   *apiclient.Client
	View     model.View
	Node     string
	Indexer  string
	Pages    []model.Page
	Interval time.Duration
	Sinks    []model.SampleSink
	Logger   *slog.Logger
	// Now and Location default to time.Now and time.Local.
	Now      func() time.Time
	Location *time.Location
}

// binding pairs one backend resource with the widget it renders.
type binding struct {
	name string
	page model.Page
	run  func(ctx context.Context) ([]model.MetricSample, string)
}

// Refresher runs refresh cycles over a fixed set of bindings.
type Refresher struct {
	client   *apiclient.Client
	eps      apiclient.Endpoints
	view     model.View
	node     string
	indexer  string
	interval time.Duration
	sinks    []model.SampleSink
	logger   *slog.Logger
	now      func() time.Time
	loc      *time.Location
	bindings []binding
	trigger  chan struct{}
	wg       sync.WaitGroup
}

// New validates cfg and builds the bindings for the configured pages.
func New(cfg Config) (*Refresher, error) {
	if cfg.Client == nil {
		return nil, errors.New("refresher: client is required")
	}
	if cfg.View == nil {
		return nil, errors.New("refresher: view is required")
	}
	r := &Refresher{
		client:   cfg.Client,
		eps:      apiclient.NewEndpoints(cfg.Node, cfg.Indexer),
		view:     cfg.View,
		node:     cfg.Node,
		indexer:  cfg.Indexer,
		interval: cfg.Interval,
		sinks:    cfg.Sinks,
		logger:   cfg.Logger,
		now:      cfg.Now,
		loc:      cfg.Location,
		trigger:  make(chan struct{}, 1),
	}
	if r.node == "" {
		r.node = model.DefaultNode
	}
	if r.indexer == "" {
		r.indexer = model.DefaultIndexer
	}
	if r.interval <= 0 {
		r.interval = model.DefaultRefreshInterval
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.loc == nil {
		r.loc = time.Local
	}

	pages := cfg.Pages
	if len(pages) == 0 {
		pages = model.AllPages()
	}
	for _, page := range pages {
		r.bindings = append(r.bindings, r.pageBindings(page)...)
	}
	return r, nil
}

// Endpoints returns the endpoint set derived from the node and indexer names.
func (r *Refresher) Endpoints() apiclient.Endpoints { return r.eps }

// Interval returns the tick interval.
func (r *Refresher) Interval() time.Duration { return r.interval }

// Bindings returns the names of the active bindings in launch order.
func (r *Refresher) Bindings() []string {
	names := make([]string, len(r.bindings))
	for i, b := range r.bindings {
		names[i] = b.name
	}
	return names
}

// RunCycle stamps the last-updated time, runs every binding concurrently and
// waits for all of them. Samples are forwarded to the sinks afterwards.
func (r *Refresher) RunCycle(ctx context.Context) {
	start := time.Now()
	metrics.CyclesInFlight.Inc()
	defer func() {
		metrics.CyclesInFlight.Dec()
		metrics.CyclesTotal.Inc()
		metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}()

	r.view.SetLastUpdated(format.DateTime(r.now().In(r.loc)))

	var (
		mu      sync.Mutex
		samples []model.MetricSample
		g       errgroup.Group
	)
	for _, b := range r.bindings {
		g.Go(func() error {
			out := r.runBinding(ctx, b)
			if len(out) > 0 {
				mu.Lock()
				samples = append(samples, out...)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(samples) == 0 {
		return
	}
	for _, sink := range r.sinks {
		if err := sink.RecordSamples(ctx, samples); err != nil {
			r.logger.Warn("refresher: sample sink failed", "error", err)
		}
	}
}

// Run performs one cycle immediately, then one per tick until ctx is done.
// Ticks do not wait for the previous cycle to finish. Run returns after every
// launched cycle has returned.
func (r *Refresher) Run(ctx context.Context) error {
	r.RunCycle(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer r.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.launch(ctx)
		case <-r.trigger:
			r.launch(ctx)
		}
	}
}

func (r *Refresher) launch(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.RunCycle(ctx)
	}()
}

// RefreshNow asks a running loop for an extra cycle. Requests made while one
// is already pending are coalesced.
func (r *Refresher) RefreshNow() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// runBinding runs b and records its outcome. A panicking binding is logged
// and treated as failed.
func (r *Refresher) runBinding(ctx context.Context, b binding) (samples []model.MetricSample) {
	outcome := outcomeFailed
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("refresher: binding panicked", "binding", b.name, "panic", rec)
			samples, outcome = nil, outcomePanic
		}
		metrics.BindingRunsTotal.WithLabelValues(b.name, outcome).Inc()
	}()
	samples, outcome = b.run(ctx)
	return samples
}
