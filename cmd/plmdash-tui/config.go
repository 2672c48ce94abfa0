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
	defaultBaseURL         = model.DefaultBaseURL
	defaultNode            = model.DefaultNode
	defaultIndexer         = model.DefaultIndexer
	defaultRefreshInterval = model.DefaultRefreshInterval
	defaultRequestTimeout  = model.DefaultRequestTimeout
	defaultSkin            = model.DefaultSkin
)

// cliConfig holds only TUI-relevant configuration.
type cliConfig struct {
	BaseURL         string        `mapstructure:"base-url"`
	APIKey          string        `mapstructure:"api-key"`
	Node            string        `mapstructure:"node"`
	Indexer         string        `mapstructure:"indexer"`
	RefreshInterval time.Duration `mapstructure:"refresh-interval"`
	RequestTimeout  time.Duration `mapstructure:"request-timeout"`
	PageNames       []string      `mapstructure:"pages"`
	HistoryPath     string        `mapstructure:"tui-history-path"`
	Skin            string        `mapstructure:"skin"`
	LogLevel        string        `mapstructure:"log-level"`
	LogFormat       string        `mapstructure:"log-format"`

	Pages []model.Page `mapstructure:"-"`
	Demo  bool         `mapstructure:"-"`
}

func loadCLIConfig(configPath string) (cliConfig, error) {
	var cfg cliConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

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
	v.SetDefault("tui-history-path", "")
	v.SetDefault("skin", defaultSkin)
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
	if strings.HasPrefix(cfg.HistoryPath, "~/") {
		cfg.HistoryPath = filepath.Join(home, cfg.HistoryPath[2:])
	}

	return cfg, nil
}
