// Package metrics provides Prometheus instrumentation for plmdash.
package metrics

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/palladium-stack/plmdash/internal/model"
)

var (
	// FetchesTotal counts backend fetches by endpoint and outcome.
	FetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plmdash",
			Name:      "backend_fetches_total",
			Help:      "Total backend fetches by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	// FetchDuration observes backend fetch latency by endpoint.
	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "plmdash",
			Name:      "backend_fetch_duration_seconds",
			Help:      "Backend fetch duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// BindingRunsTotal counts widget binding runs by binding and outcome.
	BindingRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plmdash",
			Name:      "binding_runs_total",
			Help:      "Total widget binding runs by outcome.",
		},
		[]string{"binding", "outcome"},
	)

	// CyclesTotal counts completed refresh cycles.
	CyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "plmdash",
		Name:      "refresh_cycles_total",
		Help:      "Total completed refresh cycles.",
	})

	// CycleDuration observes the wall time of a refresh cycle.
	CycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "plmdash",
		Name:      "refresh_cycle_duration_seconds",
		Help:      "Refresh cycle duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	// CyclesInFlight tracks refresh cycles currently running. Values above one
	// mean ticks overlapped.
	CyclesInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "plmdash",
		Name:      "refresh_cycles_in_flight",
		Help:      "Number of refresh cycles currently running.",
	})

	// DashboardValue mirrors the latest numeric sample of every dashboard metric.
	DashboardValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "plmdash",
			Name:      "dashboard_value",
			Help:      "Latest value shown on the dashboard by metric name.",
		},
		[]string{"metric", "source"},
	)

	// HistorySamplesTotal counts samples written to the history store.
	HistorySamplesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "plmdash",
		Name:      "history_samples_total",
		Help:      "Total samples written to the history store.",
	})

	// OTLPExportsTotal counts OTLP export attempts by result.
	OTLPExportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plmdash",
			Name:      "otlp_exports_total",
			Help:      "Total OTLP export attempts by result.",
		},
		[]string{"result"},
	)

	// ActiveWebSocketClients tracks connected WebSocket clients.
	ActiveWebSocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "plmdash",
		Name:      "active_websocket_clients",
		Help:      "Number of currently connected WebSocket clients.",
	})

	// HTTPRequestsTotal counts web requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plmdash",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes web request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "plmdash",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(
		FetchesTotal,
		FetchDuration,
		BindingRunsTotal,
		CyclesTotal,
		CycleDuration,
		CyclesInFlight,
		DashboardValue,
		HistorySamplesTotal,
		OTLPExportsTotal,
		ActiveWebSocketClients,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			StatusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// StatusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func StatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// GaugeSink publishes refresh samples as DashboardValue gauges.
type GaugeSink struct{}

// RecordSamples implements model.SampleSink.
func (GaugeSink) RecordSamples(_ context.Context, samples []model.MetricSample) error {
	for _, s := range samples {
		DashboardValue.WithLabelValues(s.Name, s.Source).Set(s.Value)
	}
	return nil
}
