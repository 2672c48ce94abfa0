package model

import "time"

// Shared defaults used by both the web service and the TUI binaries.
const (
	DefaultBaseURL          = "http://127.0.0.1:5000"
	DefaultNode             = "palladium"
	DefaultIndexer          = "electrumx"
	DefaultRefreshInterval  = 10 * time.Second
	DefaultRequestTimeout   = 8 * time.Second
	DefaultHistoryRetention = 7 * 24 * time.Hour
	DefaultListenAddr       = ":8080"
	DefaultSkin             = "default"
)
