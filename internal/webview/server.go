// Package webview serves the dashboard pages in a browser and pushes widget
// updates over a WebSocket.
package webview

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/palladium-stack/plmdash/internal/metrics"
	"github.com/palladium-stack/plmdash/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	defaultHistoryLimit = 60
	maxHistoryLimit     = 1000
)

// Config wires a Server.
type Config struct {
	Addr     string
	Elements *Elements
	Hub      *Hub
	// History backs /api/history. Nil disables the endpoint.
	History model.SampleQuerier
	Pages   []model.Page
	// Refresh, when set, is called by POST /api/refresh.
	Refresh func()
	Logger  *slog.Logger
}

// Server is the browser front end of the dashboard.
type Server struct {
	cfg       Config
	tmpl      *template.Template
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a web server. Elements and Hub are required.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Elements == nil || cfg.Hub == nil {
		return nil, errors.New("webview: elements and hub are required")
	}
	if cfg.Addr == "" {
		cfg.Addr = model.DefaultListenAddr
	}
	if len(cfg.Pages) == 0 {
		cfg.Pages = model.AllPages()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"pageTitle": func(p model.Page) string { return p.Title() },
		"pagePath":  pagePath,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:       cfg,
		tmpl:      tmpl,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}, nil
}

func pagePath(p model.Page) string {
	if p == model.PageDashboard {
		return "/"
	}
	return "/" + string(p)
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), metrics.Middleware())
	r.SetHTMLTemplate(s.tmpl)

	for _, p := range s.cfg.Pages {
		r.GET(pagePath(p), s.handlePage(p))
	}
	r.GET("/ws", func(c *gin.Context) { s.cfg.Hub.HandleWebSocket(c.Writer, c.Request) })
	r.GET("/api/elements", s.handleElements)
	r.GET("/api/history/:metric", s.handleHistory)
	r.POST("/api/refresh", s.handleRefresh)
	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", metrics.Handler())
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.cfg.Logger.Info("web dashboard listening", "addr", listener.Addr().String())

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.cfg.Logger.Error("web server stopped", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

type pageData struct {
	Page     model.Page
	Pages    []model.Page
	Elements map[string]Element
}

func (s *Server) handlePage(p model.Page) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, string(p)+".html", pageData{
			Page:     p,
			Pages:    s.cfg.Pages,
			Elements: s.cfg.Elements.Map(),
		})
	}
}

func (s *Server) handleElements(c *gin.Context) {
	var ids []string
	if raw := c.Query("page"); raw != "" {
		p := model.Page(raw)
		if _, ok := pageElementIDs[p]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown page"})
			return
		}
		ids = pageElementIDs[p]
	}
	c.JSON(http.StatusOK, gin.H{
		"version":  s.cfg.Elements.Version(),
		"elements": s.cfg.Elements.Snapshot(ids...),
	})
}

type historyPoint struct {
	Timestamp time.Time         `json:"t"`
	Value     float64           `json:"v"`
	Source    string            `json:"source,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.cfg.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled"})
		return
	}
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	metric := c.Param("metric")
	samples, err := s.cfg.History.RecentSamples(c.Request.Context(), metric, limit)
	if err != nil {
		s.cfg.Logger.Warn("history query failed", "metric", metric, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read history"})
		return
	}
	points := make([]historyPoint, 0, len(samples))
	for _, smp := range samples {
		points = append(points, historyPoint{
			Timestamp: smp.Timestamp,
			Value:     smp.Value,
			Source:    smp.Source,
			Labels:    smp.Labels,
		})
	}
	c.JSON(http.StatusOK, gin.H{"metric": metric, "samples": points})
}

func (s *Server) handleRefresh(c *gin.Context) {
	if s.cfg.Refresh == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "manual refresh is not available"})
		return
	}
	s.cfg.Refresh()
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"uptime":      time.Since(s.startTime).Round(time.Second).String(),
		"last_update": s.cfg.Elements.Text(IDLastUpdate),
		"clients":     s.cfg.Hub.ClientCount(),
		"websocket":   s.cfg.Hub.Stats(),
	})
}
