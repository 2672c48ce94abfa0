package webview

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palladium-stack/plmdash/internal/metrics"
	"github.com/palladium-stack/plmdash/internal/model"
)

// normalCloseCodes are WebSocket close codes that indicate an expected disconnect.
var normalCloseCodes = []int{
	websocket.CloseNormalClosure,
	websocket.CloseGoingAway,
	websocket.CloseNoStatusReceived,
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		host := r.Host
		return origin == "http://"+host || origin == "https://"+host
	},
}

// MessageType identifies a pushed message.
type MessageType string

const (
	// MessageSnapshot carries the full state of the subscribed page.
	MessageSnapshot MessageType = "snapshot"
	// MessageElements carries the elements changed by one render.
	MessageElements MessageType = "elements"
)

// Message is the JSON frame pushed to browsers.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Elements  []Element   `json:"elements"`
}

// Subscription narrows a client to the elements of one page. An empty Page
// receives everything.
type Subscription struct {
	Page model.Page `json:"page"`
}

func (s Subscription) filter(els []Element) []Element {
	if s.Page == "" {
		return els
	}
	ids := pageElementIDs[s.Page]
	var out []Element
	for _, el := range els {
		for _, id := range ids {
			if el.ID == id {
				out = append(out, el)
				break
			}
		}
	}
	return out
}

// Client is one WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	mu   sync.RWMutex
	sub  Subscription
}

func (c *Client) subscription() Subscription {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sub
}

// MaxClients is the maximum number of concurrent WebSocket connections.
const MaxClients = 1000

// Hub fans element changes out to connected browsers.
type Hub struct {
	elements   *Elements
	clients    map[*Client]bool
	broadcast  chan []Element
	register   chan *Client
	unregister chan *Client
	resync     chan *Client
	mu         sync.RWMutex
	logger     *slog.Logger
	done       chan struct{}
	maxClients int

	totalMessages atomic.Int64
	totalClients  atomic.Int64
}

// NewHub creates a hub that pushes every change made to elements.
func NewHub(logger *slog.Logger, elements *Elements) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		elements:   elements,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []Element, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		resync:     make(chan *Client, 16),
		logger:     logger,
		done:       make(chan struct{}),
		maxClients: MaxClients,
	}
	elements.OnChange(h.Broadcast)
	return h
}

// Run starts the hub's main loop and blocks until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Debug("websocket hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			metrics.ActiveWebSocketClients.Set(0)
			h.logger.Debug("websocket hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.totalClients.Add(1)
			metrics.ActiveWebSocketClients.Set(float64(n))
			h.logger.Debug("websocket client connected", "total", n)
			h.sendSnapshot(client)

		case client := <-h.resync:
			h.mu.RLock()
			_, ok := h.clients[client]
			h.mu.RUnlock()
			if ok {
				h.sendSnapshot(client)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.ActiveWebSocketClients.Set(float64(n))
			h.logger.Debug("websocket client disconnected", "total", n)

		case els := <-h.broadcast:
			h.totalMessages.Add(1)
			now := time.Now()
			h.mu.RLock()
			var slow []*Client
			for client := range h.clients {
				filtered := client.subscription().filter(els)
				if len(filtered) == 0 {
					continue
				}
				select {
				case client.send <- encode(MessageElements, now, filtered):
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()
			if len(slow) > 0 {
				h.mu.Lock()
				for _, client := range slow {
					if _, ok := h.clients[client]; ok {
						close(client.send)
						delete(h.clients, client)
					}
				}
				h.mu.Unlock()
			}
		}
	}
}

// sendSnapshot must only run on the Run goroutine.
func (h *Hub) sendSnapshot(client *Client) {
	sub := client.subscription()
	var ids []string
	if sub.Page != "" {
		ids = pageElementIDs[sub.Page]
	}
	select {
	case client.send <- encode(MessageSnapshot, time.Now(), h.elements.Snapshot(ids...)):
	default:
		h.logger.Warn("websocket client send buffer full, snapshot dropped")
	}
}

func encode(t MessageType, ts time.Time, els []Element) []byte {
	data, _ := json.Marshal(Message{Type: t, Timestamp: ts, Elements: els})
	return data
}

// Broadcast queues changed elements for every subscribed client.
func (h *Hub) Broadcast(els []Element) {
	select {
	case h.broadcast <- els:
	default:
		h.logger.Warn("broadcast channel full, dropping element update")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns hub statistics.
func (h *Hub) Stats() map[string]any {
	return map[string]any{
		"connectedClients": h.ClientCount(),
		"totalMessages":    h.totalMessages.Load(),
		"totalClients":     h.totalClients.Load(),
	}
}

// HandleWebSocket upgrades HTTP to WebSocket. The page query parameter sets
// the initial subscription.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.done:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	if h.ClientCount() >= h.maxClients {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	sub := Subscription{}
	if raw := r.URL.Query().Get("page"); raw != "" {
		pages, err := model.ParsePages(raw)
		if err != nil || len(pages) != 1 {
			http.Error(w, "unknown page", http.StatusBadRequest)
			return
		}
		sub.Page = pages[0]
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
		sub:  sub,
	}

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump accepts subscription changes until the connection closes.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(4 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, normalCloseCodes...) {
				c.hub.logger.Debug("websocket read error", "error", err)
			}
			return
		}

		var sub Subscription
		if err := json.Unmarshal(message, &sub); err != nil {
			continue
		}
		if _, known := pageElementIDs[sub.Page]; sub.Page != "" && !known {
			continue
		}
		c.mu.Lock()
		c.sub = sub
		c.mu.Unlock()

		select {
		case c.hub.resync <- c:
		case <-c.hub.done:
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Debug("websocket write error", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
