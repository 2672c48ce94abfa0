// Package otlpexport forwards dashboard samples to an OpenTelemetry collector
// as OTLP gauge metrics over gRPC.
package otlpexport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	collectormetrics "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	metricspb "go.opentelemetry.io/proto/otlp/metrics/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"

	"github.com/palladium-stack/plmdash/internal/metrics"
	"github.com/palladium-stack/plmdash/internal/model"
)

const (
	scopeName      = "github.com/palladium-stack/plmdash"
	maxPending     = 10000
	defaultTimeout = 10 * time.Second
)

// Config configures an Exporter.
type Config struct {
	Endpoint       string
	ServiceName    string
	ServiceVersion string
	Interval       time.Duration
	Timeout        time.Duration
	DialOptions    []grpc.DialOption
	Logger         *slog.Logger
}

// Exporter buffers samples and pushes them to the collector on an interval.
type Exporter struct {
	conn     *grpc.ClientConn
	client   collectormetrics.MetricsServiceClient
	resource *resourcepb.Resource
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending []model.MetricSample
}

// New creates a gRPC client for cfg.Endpoint. The connection is established lazily.
func New(cfg Config) (*Exporter, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("otlpexport: endpoint is required")
	}
	opts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, cfg.DialOptions...)
	conn, err := grpc.NewClient(cfg.Endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("otlpexport: dial %s: %w", cfg.Endpoint, err)
	}

	e := &Exporter{
		conn:     conn,
		client:   collectormetrics.NewMetricsServiceClient(conn),
		resource: newResource(cfg.ServiceName, cfg.ServiceVersion),
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
	}
	if e.interval <= 0 {
		e.interval = model.DefaultRefreshInterval
	}
	if e.timeout <= 0 {
		e.timeout = defaultTimeout
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

func stringAttr(key, value string) *commonpb.KeyValue {
	return &commonpb.KeyValue{
		Key:   key,
		Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: value}},
	}
}

func newResource(service, version string) *resourcepb.Resource {
	if service == "" {
		service = "plmdash"
	}
	attrs := []*commonpb.KeyValue{stringAttr("service.name", service)}
	if version != "" {
		attrs = append(attrs, stringAttr("service.version", version))
	}
	return &resourcepb.Resource{Attributes: attrs}
}

// RecordSamples implements model.SampleSink. Samples are queued for the next
// flush; when the queue is full the oldest samples are dropped.
func (e *Exporter) RecordSamples(_ context.Context, samples []model.MetricSample) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = append(e.pending, samples...)
	if over := len(e.pending) - maxPending; over > 0 {
		e.pending = append([]model.MetricSample(nil), e.pending[over:]...)
	}
	return nil
}

// Flush exports every queued sample. Samples of a failed export are dropped.
func (e *Exporter) Flush(ctx context.Context) error {
	e.mu.Lock()
	batch := e.pending
	e.pending = nil
	e.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	req := BuildRequest(e.resource, batch)
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.Export(ctx, req)
	if err != nil {
		metrics.OTLPExportsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("otlpexport: export %d samples: %w", len(batch), err)
	}
	if ps := resp.GetPartialSuccess(); ps != nil && ps.GetRejectedDataPoints() > 0 {
		metrics.OTLPExportsTotal.WithLabelValues("partial").Inc()
		e.logger.Warn("otlpexport: collector rejected data points",
			"rejected", ps.GetRejectedDataPoints(), "message", ps.GetErrorMessage())
		return nil
	}
	metrics.OTLPExportsTotal.WithLabelValues("ok").Inc()
	e.logger.Debug("otlpexport: exported", "samples", len(batch), "bytes", proto.Size(req))
	return nil
}

// Run flushes on every interval until ctx is done, then flushes once more.
func (e *Exporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), e.timeout)
			defer cancel()
			if err := e.Flush(flushCtx); err != nil {
				e.logger.Warn("otlpexport: final flush failed", "error", err)
			}
			return nil
		case <-ticker.C:
			if err := e.Flush(ctx); err != nil {
				e.logger.Warn("otlpexport: flush failed", "error", err)
			}
		}
	}
}

// Close releases the gRPC connection.
func (e *Exporter) Close() error {
	return e.conn.Close()
}

// BuildRequest groups samples by name into one gauge metric each.
func BuildRequest(resource *resourcepb.Resource, samples []model.MetricSample) *collectormetrics.ExportMetricsServiceRequest {
	byName := make(map[string][]*metricspb.NumberDataPoint)
	var names []string
	for _, s := range samples {
		if _, ok := byName[s.Name]; !ok {
			names = append(names, s.Name)
		}
		byName[s.Name] = append(byName[s.Name], dataPoint(s))
	}
	sort.Strings(names)

	out := make([]*metricspb.Metric, 0, len(names))
	for _, name := range names {
		out = append(out, &metricspb.Metric{
			Name: "plmdash." + name,
			Data: &metricspb.Metric_Gauge{Gauge: &metricspb.Gauge{DataPoints: byName[name]}},
		})
	}

	return &collectormetrics.ExportMetricsServiceRequest{
		ResourceMetrics: []*metricspb.ResourceMetrics{{
			Resource: resource,
			ScopeMetrics: []*metricspb.ScopeMetrics{{
				Scope:   &commonpb.InstrumentationScope{Name: scopeName},
				Metrics: out,
			}},
		}},
	}
}

func dataPoint(s model.MetricSample) *metricspb.NumberDataPoint {
	var attrs []*commonpb.KeyValue
	if s.Source != "" {
		attrs = append(attrs, stringAttr("source", s.Source))
	}
	keys := make([]string, 0, len(s.Labels))
	for k := range s.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, stringAttr(k, s.Labels[k]))
	}
	return &metricspb.NumberDataPoint{
		Attributes:   attrs,
		TimeUnixNano: uint64(s.Timestamp.UnixNano()),
		Value:        &metricspb.NumberDataPoint_AsDouble{AsDouble: s.Value},
	}
}
