package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/palladium-stack/plmdash/internal/apiclient"
	"github.com/palladium-stack/plmdash/internal/fakebackend"
	"github.com/palladium-stack/plmdash/internal/history"
	"github.com/palladium-stack/plmdash/internal/logging"
	"github.com/palladium-stack/plmdash/internal/model"
	"github.com/palladium-stack/plmdash/internal/refresher"
	"github.com/palladium-stack/plmdash/internal/tui"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var baseURL string
	var showVersion bool
	var demo bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/plmdash/config.yml)")
	flag.StringVar(&baseURL, "base-url", "", "override the dashboard backend URL")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.BoolVar(&demo, "demo", false, "show built-in sample data instead of a real backend")
	flag.Parse()

	if showVersion {
		fmt.Printf("plmdash-tui - Palladium Terminal Dashboard\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadCLIConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.Demo = demo

	if err := runTUI(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cfg cliConfig) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("finding home directory: %w", err)
	}

	// The terminal belongs to the UI; logs go to the state directory.
	logFile, err := logging.OpenStateLog(home, "plmdash", "plmdash-tui.log")
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat, logFile)

	configDir := filepath.Join(home, ".config", "plmdash")
	if err := tui.InitializeSkin(cfg.Skin, configDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load skin '%s': %v (using default)\n", cfg.Skin, err)
	}

	source := cfg.BaseURL
	if cfg.Demo {
		backend := fakebackend.New()
		backend.Populate(apiclient.NewEndpoints(cfg.Node, cfg.Indexer), time.Now())
		demoSrv, err := backend.Serve("127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to start demo backend: %w", err)
		}
		defer demoSrv.Close()
		cfg.BaseURL = demoSrv.URL
		source = "demo data"
	}

	client, err := apiclient.New(apiclient.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.RequestTimeout,
	})
	if err != nil {
		return fmt.Errorf("invalid backend settings: %w", err)
	}

	var sinks []model.SampleSink
	opts := []tui.Option{tui.WithStatus(cfg.RefreshInterval, source)}
	if cfg.HistoryPath != "" {
		store, err := history.NewStore(cfg.HistoryPath)
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store)

		series, err := tui.LoadSeries(context.Background(), store)
		if err != nil {
			logger.Warn("loading trend history failed", "error", err)
		} else {
			opts = append(opts, tui.WithSeries(series))
		}
	}

	app := tui.NewApp(tui.NewPages(cfg.Pages), opts...)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	ref, err := refresher.New(refresher.Config{
		Client:   client,
		View:     tui.NewProgramView(p),
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
	app.SetRefresh(ref.RefreshNow)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ref.Run(ctx); err != nil {
			logger.Error("refresher stopped", "error", err)
		}
	}()
	defer func() {
		cancel()
		<-done
	}()

	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
