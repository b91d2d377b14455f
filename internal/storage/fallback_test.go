package storage

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/nixlim/hcpss-monitor/internal/config"
	"github.com/nixlim/hcpss-monitor/internal/state"
)

func TestFallback_SQLiteSuccess(t *testing.T) {
	cfg := config.StorageConfig{DBPath: filepath.Join(t.TempDir(), "test.db")}

	store, isPersistent, err := NewStore(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if !isPersistent {
		t.Error("expected isPersistent=true for valid DB path")
	}
	if _, ok := store.(*SQLiteStore); !ok {
		t.Errorf("expected *SQLiteStore, got %T", store)
	}
}

func TestFallback_UnwritablePath(t *testing.T) {
	// A regular file in the parent chain makes MkdirAll fail even as root.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg := config.StorageConfig{DBPath: filepath.Join(blocker, "nested", "test.db")}

	store, isPersistent, err := NewStore(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewStore should not return error on fallback: %v", err)
	}
	defer func() { _ = store.Close() }()

	if isPersistent {
		t.Error("expected isPersistent=false for unwritable path")
	}
	if _, ok := store.(*state.MemoryStore); !ok {
		t.Errorf("expected *state.MemoryStore fallback, got %T", store)
	}
}

func TestFallback_ExplicitInMemory(t *testing.T) {
	store, isPersistent, err := NewStore(config.StorageConfig{DBPath: ""}, nil)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if isPersistent {
		t.Error("expected isPersistent=false for empty db_path")
	}
	if _, ok := store.(*state.MemoryStore); !ok {
		t.Errorf("expected *state.MemoryStore, got %T", store)
	}
}
