package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/nixlim/hcpss-monitor/internal/state"
)

// SQLiteStore is a write-through key-value store. Reads are served from an
// in-memory cache warmed at open; writes reach the database before the cache
// is updated, so a rejected write leaves the previous value visible.
type SQLiteStore struct {
	cache  *state.MemoryStore
	db     *sql.DB
	logger *zap.Logger

	writeMu sync.Mutex
	closed  atomic.Bool

	cancelMaint     context.CancelFunc
	maintenanceDone chan struct{}

	now func() time.Time
}

// NewSQLiteStore opens the database at dbPath, loads every stored key into
// memory and starts the background maintenance loop.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	store := &SQLiteStore{
		cache:           state.NewMemoryStore(),
		db:              db,
		logger:          logger,
		cancelMaint:     cancel,
		maintenanceDone: make(chan struct{}),
		now:             time.Now,
	}

	if err := store.warmCache(); err != nil {
		cancel()
		_ = db.Close()
		return nil, fmt.Errorf("loading stored keys: %w", err)
	}

	store.startMaintenance(ctx)

	return store, nil
}

// Get returns the cached value for key.
func (s *SQLiteStore) Get(key string) (string, bool) {
	return s.cache.Get(key)
}

// Set writes value to the database and then to the cache.
func (s *SQLiteStore) Set(key, value string) error {
	if s.closed.Load() {
		return state.ErrClosed
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		s.logger.Warn("kv write rejected", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("writing key %q: %w", key, err)
	}

	return s.cache.Set(key, value)
}

// Delete removes key from the database and the cache.
func (s *SQLiteStore) Delete(key string) error {
	if s.closed.Load() {
		return state.ErrClosed
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		s.logger.Warn("kv delete rejected", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("deleting key %q: %w", key, err)
	}

	return s.cache.Delete(key)
}

// Close stops maintenance and closes the database. It is safe to call more than once.
func (s *SQLiteStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.cancelMaint()
	select {
	case <-s.maintenanceDone:
	case <-time.After(5 * time.Second):
		s.logger.Warn("maintenance goroutine did not stop within 5s")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.cache.Close()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}
