package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/palladium-stack/plmdash/internal/apiclient"
	"github.com/palladium-stack/plmdash/internal/fakebackend"
	"github.com/palladium-stack/plmdash/internal/history"
	"github.com/palladium-stack/plmdash/internal/logging"
	"github.com/palladium-stack/plmdash/internal/metrics"
	"github.com/palladium-stack/plmdash/internal/model"
	"github.com/palladium-stack/plmdash/internal/otlpexport"
	"github.com/palladium-stack/plmdash/internal/refresher"
	"github.com/palladium-stack/plmdash/internal/webview"
)

// runServer polls the backend and serves the web dashboard until interrupted.
func runServer(cfg appConfig) error {
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	if cfg.Demo {
		backend := fakebackend.New()
		backend.Populate(apiclient.NewEndpoints(cfg.Node, cfg.Indexer), time.Now())
		demoSrv, err := backend.Serve("127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to start demo backend: %w", err)
		}
		defer demoSrv.Close()
		cfg.BaseURL = demoSrv.URL
		logger.Info("demo backend started", "url", demoSrv.URL)
	}

	client, err := apiclient.New(apiclient.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.RequestTimeout,
	})
	if err != nil {
		return fmt.Errorf("invalid backend settings: %w", err)
	}

	sinks := []model.SampleSink{metrics.GaugeSink{}}
	var historyQuerier model.SampleQuerier
	var historyPath string

	if cfg.HistoryPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.HistoryPath), 0o755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
		store, err := history.NewStore(cfg.HistoryPath)
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer store.Close()

		cleaner := history.NewRetentionCleaner(store, history.RetentionConfig{
			Retention: cfg.HistoryRetention,
			Logger:    logger,
		})
		if cleaner != nil {
			defer cleaner.Stop()
		}
		sinks = append(sinks, store)
		historyQuerier = store
		historyPath = store.Path()
	}

	var exporter *otlpexport.Exporter
	if cfg.OTLPEndpoint != "" {
		exporter, err = otlpexport.New(otlpexport.Config{
			Endpoint:       cfg.OTLPEndpoint,
			ServiceName:    "plmdash",
			ServiceVersion: version,
			Interval:       cfg.OTLPInterval,
			Logger:         logger,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize OTLP export: %w", err)
		}
		defer exporter.Close()
		sinks = append(sinks, exporter)
	}

	elements := webview.NewElements()
	hub := webview.NewHub(logger, elements)

	ref, err := refresher.New(refresher.Config{
		Client:   client,
		View:     elements,
		Node:     cfg.Node,
		Indexer:  cfg.Indexer,
		Pages:    cfg.Pages,
		Interval: cfg.RefreshInterval,
		Sinks:    sinks,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	web, err := webview.NewServer(webview.Config{
		Addr:     cfg.ListenAddr,
		Elements: elements,
		Hub:      hub,
		History:  historyQuerier,
		Pages:    cfg.Pages,
		Refresh:  ref.RefreshNow,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	if err := web.Start(); err != nil {
		return fmt.Errorf("failed to start web server: %w", err)
	}
	defer web.Stop()

	// Set up context and signal handling before errgroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		os.Exit(1)
	}()

	printStartupBanner(cfg, bannerInfo{
		BaseURL:     client.BaseURL(),
		APIKey:      client.HasAPIKey(),
		Endpoints:   ref.Endpoints(),
		Interval:    ref.Interval(),
		Bindings:    ref.Bindings(),
		HistoryPath: historyPath,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return ref.Run(gctx)
	})
	if exporter != nil {
		g.Go(func() error {
			return exporter.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("server: errgroup exited with error", slog.Any("error", err))
	}

	signal.Stop(sigCh)
	return nil
}

// bannerInfo carries the resolved runtime settings shown at startup.
type bannerInfo struct {
	BaseURL     string
	APIKey      bool
	Endpoints   apiclient.Endpoints
	Interval    time.Duration
	Bindings    []string
	HistoryPath string
}

func printStartupBanner(cfg appConfig, info bannerInfo) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render(`
    ╔═╗╦  ╔╦╗  ╔╦╗╔═╗╔═╗╦ ╦
    ╠═╝║  ║║║   ║║╠═╣╚═╗╠═╣
    ╩  ╩═╝╩ ╩  ═╩╝╩ ╩╚═╝╩ ╩`)

	separator := dim.Render("    ─────────────────────────────────")

	lines := []string{"", logo, "    " + dim.Render("v"+version), "", separator, ""}

	lines = append(lines, bold.Render("    Backend"), "")
	backend := info.BaseURL
	if cfg.Demo {
		backend += " (demo data)"
	}
	lines = append(lines, fmt.Sprintf("    %s  API            %s", check, cyan.Render(backend)))
	if info.APIKey {
		lines = append(lines, fmt.Sprintf("    %s  API Key        %s", check, dim.Render("configured")))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  API Key        %s", dot, dim.Render("none")))
	}
	lines = append(lines, fmt.Sprintf("    %s  Node           %s", check, dim.Render(info.Endpoints.NodeInfo.Path)))
	lines = append(lines, fmt.Sprintf("    %s  Indexer        %s", check, dim.Render(info.Endpoints.IndexerStats.Path)))
	lines = append(lines, fmt.Sprintf("    %s  Refresh        %s", check, dim.Render(fmt.Sprintf("every %s, %d widgets", info.Interval, len(info.Bindings)))))
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Gateway"), "")
	lines = append(lines, fmt.Sprintf("    %s  Web Dashboard  %s", check, cyan.Render(cfg.ListenAddr)))
	pages := make([]string, 0, len(cfg.Pages))
	for _, p := range cfg.Pages {
		pages = append(pages, p.Title())
	}
	lines = append(lines, fmt.Sprintf("    %s  Pages          %s", check, dim.Render(strings.Join(pages, ", "))))
	lines = append(lines, fmt.Sprintf("    %s  Metrics        %s", check, dim.Render("/metrics")))
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Telemetry"), "")
	if info.HistoryPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  History        %s", check, dim.Render(shortenPath(info.HistoryPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  History        %s", dot, dim.Render("disabled")))
	}
	if cfg.OTLPEndpoint != "" {
		lines = append(lines, fmt.Sprintf("    %s  OTLP Export    %s", check, cyan.Render(cfg.OTLPEndpoint)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  OTLP Export    %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Config"), "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "", separator, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"), "")

	fmt.Println(strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
