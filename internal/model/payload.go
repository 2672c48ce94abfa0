package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// HealthPayload is the body of /api/health.
type HealthPayload struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

// UsagePayload is one resource gauge of /api/system/resources.
type UsagePayload struct {
	Percent float64 `json:"percent"`
	Total   float64 `json:"total,omitempty"`
	Used    float64 `json:"used,omitempty"`
	Count   int     `json:"count,omitempty"`
}

// ResourcesPayload is the body of /api/system/resources.
type ResourcesPayload struct {
	CPU    UsagePayload `json:"cpu"`
	Memory UsagePayload `json:"memory"`
	Disk   UsagePayload `json:"disk"`
}

// BlockchainInfo mirrors the getblockchaininfo section of the node info payload.
type BlockchainInfo struct {
	Blocks               int64   `json:"blocks"`
	Difficulty           float64 `json:"difficulty"`
	Chain                string  `json:"chain"`
	VerificationProgress float64 `json:"verificationprogress"`
}

// NetworkInfo mirrors the getnetworkinfo section of the node info payload.
type NetworkInfo struct {
	Subversion string `json:"subversion"`
}

// MempoolInfo mirrors the getmempoolinfo section of the node info payload.
type MempoolInfo struct {
	Size       int64   `json:"size"`
	Bytes      float64 `json:"bytes"`
	MaxMempool float64 `json:"maxmempool"`
}

// NodeInfoPayload is the body of /api/<node>/info. Absent sections stay nil.
type NodeInfoPayload struct {
	Blockchain *BlockchainInfo `json:"blockchain,omitempty"`
	Network    *NetworkInfo    `json:"network,omitempty"`
	Peers      int64           `json:"peers"`
	Mempool    *MempoolInfo    `json:"mempool,omitempty"`
}

// HashratePayload is the body of /api/<node>/network-hashrate.
type HashratePayload struct {
	NetworkHashrate *float64 `json:"network_hashrate"`
}

// Block is one entry of /api/<node>/blocks/recent.
type Block struct {
	Height  int64   `json:"height"`
	Hash    string  `json:"hash"`
	Time    int64   `json:"time"`
	Size    float64 `json:"size"`
	TxCount int64   `json:"tx_count"`
}

// BlocksPayload is the body of /api/<node>/blocks/recent.
type BlocksPayload struct {
	Blocks []Block `json:"blocks"`
}

// Peer is one entry of /api/<node>/peers. Older backends send subver, newer ones
// version, which some nodes report as the numeric protocol version.
type Peer struct {
	Addr      string     `json:"addr"`
	Inbound   bool       `json:"inbound"`
	Subver    FlexString `json:"subver,omitempty"`
	Version   FlexString `json:"version,omitempty"`
	ConnTime  int64      `json:"conntime"`
	BytesSent float64    `json:"bytessent"`
	BytesRecv float64    `json:"bytesrecv"`
}

// UserAgent returns the free-form version string of the peer.
func (p Peer) UserAgent() string {
	if p.Subver != "" {
		return string(p.Subver)
	}
	return string(p.Version)
}

// PeersPayload is the body of /api/<node>/peers.
type PeersPayload struct {
	Peers []Peer `json:"peers"`
}

// IndexerStats is the stats section of /api/<indexer>/stats.
type IndexerStats struct {
	ServerVersion      string            `json:"server_version"`
	DBSize             float64           `json:"db_size"`
	Uptime             float64           `json:"uptime"`
	ServerIP           string            `json:"server_ip"`
	TCPPort            FlexString        `json:"tcp_port"`
	SSLPort            FlexString        `json:"ssl_port"`
	ActiveServers      []json.RawMessage `json:"active_servers"`
	ActiveServersCount *int64            `json:"active_servers_count"`
}

// IndexerStatsPayload is the body of /api/<indexer>/stats.
type IndexerStatsPayload struct {
	Stats *IndexerStats `json:"stats"`
}

// Server is one entry of /api/<indexer>/servers.
type Server struct {
	Host         string     `json:"host"`
	TCPPort      FlexString `json:"tcp_port"`
	SSLPort      FlexString `json:"ssl_port"`
	TCPReachable *bool      `json:"tcp_reachable,omitempty"`
	SSLReachable *bool      `json:"ssl_reachable,omitempty"`
}

// ServersPayload is the body of /api/<indexer>/servers.
type ServersPayload struct {
	Servers []Server `json:"servers"`
}

// FlexString accepts a JSON string, number, boolean or null and keeps its text form.
// Null, false, zero and the empty string all decode to "".
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte("false")):
		*f = ""
		return nil
	case bytes.Equal(data, []byte("true")):
		*f = "true"
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if v, err := n.Float64(); err == nil && v == 0 {
		*f = ""
		return nil
	}
	*f = FlexString(n.String())
	return nil
}

// MarshalJSON writes integral values back as numbers.
func (f FlexString) MarshalJSON() ([]byte, error) {
	if f == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseInt(string(f), 10, 64); err == nil {
		return []byte(f), nil
	}
	return json.Marshal(string(f))
}
