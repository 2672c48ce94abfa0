package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/palladium-stack/plmdash/internal/model"
)

const (
	defaultBaseURL          = model.DefaultBaseURL
	defaultNode             = model.DefaultNode
	defaultIndexer          = model.DefaultIndexer
	defaultRefreshInterval  = model.DefaultRefreshInterval
	defaultRequestTimeout   = model.DefaultRequestTimeout
	defaultListenAddr       = model.DefaultListenAddr
	defaultHistoryRetention = model.DefaultHistoryRetention
	defaultOTLPInterval     = 30 * time.Second
)

// appConfig is internal runtime configuration of the web dashboard.
type appConfig struct {
	BaseURL          string        `mapstructure:"base-url"`
	APIKey           string        `mapstructure:"api-key"`
	Node             string        `mapstructure:"node"`
	Indexer          string        `mapstructure:"indexer"`
	RefreshInterval  time.Duration `mapstructure:"refresh-interval"`
	RequestTimeout   time.Duration `mapstructure:"request-timeout"`
	PageNames        []string      `mapstructure:"pages"`
	ListenAddr       string        `mapstructure:"listen-addr"`
	HistoryPath      string        `mapstructure:"history-path"`
	HistoryRetention time.Duration `mapstructure:"history-retention"`
	OTLPEndpoint     string        `mapstructure:"otlp-endpoint"`
	OTLPInterval     time.Duration `mapstructure:"otlp-interval"`
	LogLevel         string        `mapstructure:"log-level"`
	LogFormat        string        `mapstructure:"log-format"`

	Pages      []model.Page `mapstructure:"-"`
	ConfigPath string       `mapstructure:"-"`
	Demo       bool         `mapstructure:"-"`
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("PLMDASH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("base-url", defaultBaseURL)
	v.SetDefault("api-key", "")
	v.SetDefault("node", defaultNode)
	v.SetDefault("indexer", defaultIndexer)
	v.SetDefault("refresh-interval", defaultRefreshInterval)
	v.SetDefault("request-timeout", defaultRequestTimeout)
	v.SetDefault("pages", "all")
	v.SetDefault("listen-addr", defaultListenAddr)
	v.SetDefault("history-path", filepath.Join(home, ".local", "share", "plmdash", "history.duckdb"))
	v.SetDefault("history-retention", defaultHistoryRetention)
	v.SetDefault("otlp-endpoint", "")
	v.SetDefault("otlp-interval", defaultOTLPInterval)
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "text")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "plmdash", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		cfg.ConfigPath = ""
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("API_KEY")
	}
	if cfg.RefreshInterval <= 0 {
		return cfg, fmt.Errorf("invalid refresh-interval: %s", cfg.RefreshInterval)
	}
	if cfg.RequestTimeout <= 0 {
		return cfg, fmt.Errorf("invalid request-timeout: %s", cfg.RequestTimeout)
	}
	cfg.Pages, err = model.ParsePages(strings.Join(cfg.PageNames, ","))
	if err != nil {
		return cfg, fmt.Errorf("invalid pages: %w", err)
	}

	// Expand ~ in history-path
	if strings.HasPrefix(cfg.HistoryPath, "~/") {
		cfg.HistoryPath = filepath.Join(home, cfg.HistoryPath[2:])
	}
	if strings.EqualFold(cfg.HistoryPath, "none") {
		cfg.HistoryPath = ""
	}

	return cfg, nil
}
