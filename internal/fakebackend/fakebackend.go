// Package fakebackend serves canned dashboard backend responses for tests
// and demo runs.
package fakebackend

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/palladium-stack/plmdash/internal/apiclient"
)

// Behaviours a path can be configured with.
const (
	modeRespond = iota
	modeHang
	modeDrop
)

type route struct {
	mode   int
	status int
	body   any
	raw    string
}

// Request records one request seen by the backend.
type Request struct {
	Path   string
	APIKey string
}

// Backend is a configurable stand-in for the dashboard backend.
type Backend struct {
	mu       sync.Mutex
	routes   map[string]route
	requests []Request
	release  chan struct{}
	once     sync.Once
}

// New returns a backend with no routes; unknown paths answer 404.
func New() *Backend {
	return &Backend{
		routes:  make(map[string]route),
		release: make(chan struct{}),
	}
}

// Set answers path with status and a JSON encoded body.
func (b *Backend) Set(path string, status int, body any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[path] = route{mode: modeRespond, status: status, body: body}
}

// SetRaw answers path with status and a literal body.
func (b *Backend) SetRaw(path string, status int, raw string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[path] = route{mode: modeRespond, status: status, raw: raw}
}

// Hang makes path block until the client gives up or Release is called.
func (b *Backend) Hang(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[path] = route{mode: modeHang}
}

// Drop makes path close the connection without answering.
func (b *Backend) Drop(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[path] = route{mode: modeDrop}
}

// Release unblocks every hanging request.
func (b *Backend) Release() {
	b.once.Do(func() { close(b.release) })
}

// Requests returns the requests seen so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// Router returns a gin engine serving the configured routes.
func (b *Backend) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.NoRoute(b.handle)
	return r
}

func (b *Backend) handle(c *gin.Context) {
	path := c.Request.URL.Path
	b.mu.Lock()
	b.requests = append(b.requests, Request{Path: path, APIKey: c.GetHeader(apiclient.APIKeyHeader)})
	rt, ok := b.routes[path]
	b.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	switch rt.mode {
	case modeHang:
		select {
		case <-c.Request.Context().Done():
		case <-b.release:
		}
		c.Status(http.StatusGatewayTimeout)
	case modeDrop:
		conn, _, err := c.Writer.Hijack()
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		_ = conn.Close()
	default:
		if rt.raw != "" {
			c.Data(rt.status, "application/json", []byte(rt.raw))
			return
		}
		c.JSON(rt.status, rt.body)
	}
}
