package model

import (
	"context"
	"time"
)

// Metric names emitted by the refresh bindings.
const (
	MetricCPUPercent        = "system_cpu_percent"
	MetricMemoryPercent     = "system_memory_percent"
	MetricDiskPercent       = "system_disk_percent"
	MetricBlockHeight       = "node_block_height"
	MetricDifficulty        = "node_difficulty"
	MetricSyncProgress      = "node_sync_progress"
	MetricConnections       = "node_connections"
	MetricMempoolBytes      = "node_mempool_bytes"
	MetricNetworkHashrate   = "node_network_hashrate"
	MetricPeersTotal        = "peers_total"
	MetricPeersInbound      = "peers_inbound"
	MetricPeersOutbound     = "peers_outbound"
	MetricPeersTrafficBytes = "peers_traffic_bytes"
	MetricIndexerDBSize     = "indexer_db_size_bytes"
	MetricIndexerServers    = "indexer_servers_total"
)

// MetricSample represents one numeric datapoint derived from a successful binding.
type MetricSample struct {
	Timestamp time.Time
	Name      string
	Value     float64
	Labels    map[string]string
	Source    string
}

// SampleSink receives the samples gathered by one refresh cycle.
type SampleSink interface {
	RecordSamples(ctx context.Context, samples []MetricSample) error
}

// SampleQuerier reads back recorded samples, newest last.
type SampleQuerier interface {
	RecentSamples(ctx context.Context, name string, limit int) ([]MetricSample, error)
}
