package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/palladium-stack/plmdash/internal/model"
)

func TestLoadCLIConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	t.Setenv("API_KEY", "")

	path := filepath.Join(home, "config.yml")
	data := []byte("skin: palladium\npages: servers\ntui-history-path: ~/trends.duckdb\napi-key: s3cret\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadCLIConfig(path)
	if err != nil {
		t.Fatalf("loadCLIConfig: %v", err)
	}
	if cfg.Skin != "palladium" || cfg.APIKey != "s3cret" {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Pages) != 1 || cfg.Pages[0] != model.PageServers {
		t.Errorf("pages = %v", cfg.Pages)
	}
	if cfg.HistoryPath != filepath.Join(home, "trends.duckdb") {
		t.Errorf("history path = %s", cfg.HistoryPath)
	}
	if cfg.RefreshInterval != model.DefaultRefreshInterval {
		t.Errorf("refresh interval = %s", cfg.RefreshInterval)
	}
}

func TestLoadCLIConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := loadCLIConfig("")
	if err != nil {
		t.Fatalf("loadCLIConfig: %v", err)
	}
	if cfg.Skin != model.DefaultSkin || cfg.HistoryPath != "" || len(cfg.Pages) != 3 {
		t.Errorf("cfg = %+v", cfg)
	}
}
