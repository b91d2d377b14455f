package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSchema_CreateFresh(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	var version int
	if err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		t.Fatalf("failed to read schema_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("schema version: want %d, got %d", currentSchemaVersion, version)
	}

	for _, tableName := range []string{"schema_version", "kv"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", tableName).Scan(&name)
		if err == sql.ErrNoRows {
			t.Errorf("table %q not found", tableName)
		} else if err != nil {
			t.Fatalf("error checking table %q: %v", tableName, err)
		}
	}

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("failed to read journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode: want wal, got %s", journalMode)
	}
}

func TestSchema_NoMigrationAtCurrentVersion(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db1, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("first OpenDB failed: %v", err)
	}
	_, err = db1.Exec("INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)",
		"current_user", `{"id":"user_1"}`, "2026-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("failed to insert test row: %v", err)
	}
	_ = db1.Close()

	db2, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("second OpenDB failed: %v", err)
	}
	defer func() { _ = db2.Close() }()

	var count int
	if err := db2.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		t.Fatalf("counting schema_version rows: %v", err)
	}
	if count != 1 {
		t.Errorf("schema_version rows: want 1, got %d", count)
	}

	var value string
	err = db2.QueryRow("SELECT value FROM kv WHERE key = ?", "current_user").Scan(&value)
	if err == sql.ErrNoRows {
		t.Error("test row was lost, migration re-ran destructively")
	} else if err != nil {
		t.Fatalf("error reading test row: %v", err)
	}
}

func TestSchema_CreateParentDirs(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir1", "subdir2", "test.db")

	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("OpenDB failed with nested path: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestSchema_ForwardVersionRejected(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	futureDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create future DB: %v", err)
	}
	if _, err := futureDB.Exec("CREATE TABLE schema_version (version INTEGER)"); err != nil {
		t.Fatalf("failed to create schema_version table: %v", err)
	}
	if _, err := futureDB.Exec("INSERT INTO schema_version (version) VALUES (999)"); err != nil {
		t.Fatalf("failed to insert future version: %v", err)
	}
	_ = futureDB.Close()

	_, err = OpenDB(dbPath)
	if err == nil {
		t.Fatal("OpenDB should have failed for forward schema version, but succeeded")
	}

	for _, phrase := range []string{"999", "newer", "upgrade hcpss-monitor", dbPath} {
		if !strings.Contains(err.Error(), phrase) {
			t.Errorf("error message missing %q: %s", phrase, err.Error())
		}
	}
}
