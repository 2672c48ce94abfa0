package apiclient

import (
	"strings"

	"github.com/palladium-stack/plmdash/internal/model"
)

// Endpoint names one backend JSON resource.
type Endpoint struct {
	Name string
	Path string
}

// Endpoints is the fixed set of backend resources the dashboard reads.
type Endpoints struct {
	Health          Endpoint
	Resources       Endpoint
	NodeInfo        Endpoint
	NetworkHashrate Endpoint
	RecentBlocks    Endpoint
	Peers           Endpoint
	IndexerStats    Endpoint
	IndexerServers  Endpoint
}

// NewEndpoints builds the endpoint set for a node and indexer name, for
// example "palladium" and "electrumx".
func NewEndpoints(node, indexer string) Endpoints {
	node = strings.Trim(strings.TrimSpace(node), "/")
	if node == "" {
		node = model.DefaultNode
	}
	indexer = strings.Trim(strings.TrimSpace(indexer), "/")
	if indexer == "" {
		indexer = model.DefaultIndexer
	}
	return Endpoints{
		Health:          Endpoint{Name: "health", Path: "/api/health"},
		Resources:       Endpoint{Name: "system_resources", Path: "/api/system/resources"},
		NodeInfo:        Endpoint{Name: "node_info", Path: "/api/" + node + "/info"},
		NetworkHashrate: Endpoint{Name: "network_hashrate", Path: "/api/" + node + "/network-hashrate"},
		RecentBlocks:    Endpoint{Name: "recent_blocks", Path: "/api/" + node + "/blocks/recent"},
		Peers:           Endpoint{Name: "peers", Path: "/api/" + node + "/peers"},
		IndexerStats:    Endpoint{Name: "indexer_stats", Path: "/api/" + indexer + "/stats"},
		IndexerServers:  Endpoint{Name: "indexer_servers", Path: "/api/" + indexer + "/servers"},
	}
}

// All returns every endpoint in a stable order.
func (e Endpoints) All() []Endpoint {
	return []Endpoint{
		e.Health, e.Resources, e.NodeInfo, e.NetworkHashrate,
		e.RecentBlocks, e.Peers, e.IndexerStats, e.IndexerServers,
	}
}
