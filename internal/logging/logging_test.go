package logging

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/nixlim/hcpss-monitor/internal/config"
)

func TestNew_EmptyFileDiscards(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: "info"}, false)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("dropped")
}

func TestNew_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "monitor.log")
	logger, err := New(config.LoggingConfig{Level: "info", File: path}, false)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Debug("hidden at info")
	logger.Info("alert admitted", zap.String("user_id", "user_1"), zap.String("title", "School Closing"))
	_ = logger.Sync()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening log: %v", err)
	}
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			t.Fatalf("line %q is not JSON: %v", sc.Text(), err)
		}
		lines = append(lines, entry)
	}

	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0]["msg"] != "alert admitted" {
		t.Errorf("msg = %v, want 'alert admitted'", lines[0]["msg"])
	}
	if lines[0]["title"] != "School Closing" {
		t.Errorf("title = %v, want 'School Closing'", lines[0]["title"])
	}
	if _, ok := lines[0]["ts"]; !ok {
		t.Error("entry should carry a ts field")
	}
}

func TestNew_DebugOverridesLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.log")
	logger, err := New(config.LoggingConfig{Level: "warn", File: path}, true)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Debug("poll cycle")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "poll cycle") {
		t.Errorf("debug entry missing from %q", data)
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitor.log")
	if _, err := New(config.LoggingConfig{Level: "loud", File: path}, false); err == nil {
		t.Error("New() should reject an unknown level")
	}
}
