package logging

import (
	"bytes"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"invalid", slog.LevelInfo},
		{"  debug  ", slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSetupJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("info", "json", &buf)

	logger.Warn("fetch failed", "binding", "peers")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v (output: %s)", err, buf.String())
	}
	if entry["msg"] != "fetch failed" || entry["binding"] != "peers" {
		t.Errorf("entry = %v", entry)
	}
}

func TestSetupTextFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	Setup("warn", "text", &buf)

	slog.Info("hidden")
	slog.Warn("shown", "endpoint", "/api/health")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line logged at warn level: %s", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "endpoint=/api/health") {
		t.Errorf("text output = %q", out)
	}
}

func TestStdlibBridge(t *testing.T) {
	var buf bytes.Buffer
	Setup("info", "text", &buf)

	log.Printf("from stdlib %d", 7)

	if !strings.Contains(buf.String(), "from stdlib 7") || !strings.Contains(buf.String(), "source=stdlib") {
		t.Errorf("bridged output = %q", buf.String())
	}
}

func TestOpenStateLog(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	f, err := OpenStateLog(home, "plmdash", "plmdash-tui.log")
	if err != nil {
		t.Fatalf("OpenStateLog: %v", err)
	}
	if _, err := f.WriteString("hello\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = f.Close()

	data, err := os.ReadFile(filepath.Join(home, ".local", "state", "plmdash", "plmdash-tui.log"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("content = %q", data)
	}
}
