package fakebackend

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/palladium-stack/plmdash/internal/apiclient"
)

// Sample payload figures used by Populate.
const (
	SampleHeight     = 1234567
	SampleHashrate   = 1500.0
	SamplePeersSent  = 1024 + 2048 + 4096
	SamplePeersRecv  = 512 + 512 + 1024
	SampleDBSize     = 1073741824
	SampleServerHost = "electrum.palladium.example"
)

// Populate installs healthy responses for every endpoint in eps.
func (b *Backend) Populate(eps apiclient.Endpoints, now time.Time) {
	b.Set(eps.Health.Path, http.StatusOK, gin.H{
		"status":   "healthy",
		"services": gin.H{"palladium": "up", "electrumx": "up"},
	})
	b.Set(eps.Resources.Path, http.StatusOK, gin.H{
		"cpu":    gin.H{"percent": 12.5, "count": 4},
		"memory": gin.H{"percent": 45.67, "total": 8 << 30, "used": 3 << 30},
		"disk":   gin.H{"percent": 70, "total": 500 << 30, "used": 350 << 30},
	})
	b.Set(eps.NodeInfo.Path, http.StatusOK, gin.H{
		"blockchain": gin.H{
			"blocks":               SampleHeight,
			"difficulty":           2500000.0,
			"chain":                "main",
			"verificationprogress": 0.99995,
		},
		"network": gin.H{"subversion": "/Palladium:2.0.0/"},
		"peers":   3,
		"mempool": gin.H{"size": 42, "bytes": 1536, "maxmempool": 300 << 20},
	})
	b.Set(eps.NetworkHashrate.Path, http.StatusOK, gin.H{"network_hashrate": SampleHashrate})
	b.Set(eps.RecentBlocks.Path, http.StatusOK, gin.H{
		"blocks": []gin.H{
			{"height": SampleHeight, "hash": "00000000000000000001a2b3c4d5e6f708192a3b4c5d6e7f", "time": now.Unix() - 60, "size": 1536, "tx_count": 12},
			{"height": SampleHeight - 1, "hash": "00000000000000000009f8e7d6c5b4a39281706f5e4d3c2b", "time": now.Unix() - 180, "size": 2048, "tx_count": 7},
		},
	})
	b.Set(eps.Peers.Path, http.StatusOK, gin.H{
		"peers": []gin.H{
			{"addr": "10.0.0.1:2333", "inbound": true, "version": "/Palladium:2.0.0/", "conntime": now.Unix() - 3660, "bytessent": 1024, "bytesrecv": 512},
			{"addr": "10.0.0.2:2333", "inbound": true, "subver": "/Palladium:1.9.1/", "conntime": now.Unix() - 90, "bytessent": 2048, "bytesrecv": 512},
			{"addr": "10.0.0.3:2333", "inbound": false, "version": "/Palladium:2.0.0/", "conntime": now.Unix() - 90000, "bytessent": 4096, "bytesrecv": 1024},
		},
		"total": 3,
	})
	b.Set(eps.IndexerStats.Path, http.StatusOK, gin.H{
		"stats": gin.H{
			"server_version": "ElectrumX 1.16.0",
			"db_size":        SampleDBSize,
			"uptime":         90000,
			"server_ip":      "203.0.113.7",
			"tcp_port":       50001,
			"ssl_port":       "50002",
			"active_servers": []gin.H{{"host": SampleServerHost}},
		},
	})
	b.Set(eps.IndexerServers.Path, http.StatusOK, gin.H{
		"servers": []gin.H{
			{"host": SampleServerHost, "tcp_port": 50001, "ssl_port": 50002},
			{"host": "ssl-only.example", "tcp_port": nil, "ssl_port": "50002"},
		},
	})
}
