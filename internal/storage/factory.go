package storage

import (
	"go.uber.org/zap"

	"github.com/nixlim/hcpss-monitor/internal/config"
	"github.com/nixlim/hcpss-monitor/internal/state"
)

// NewStore returns the configured key-value store and whether it is persistent.
// An empty db_path selects the in-memory store. When the SQLite database cannot
// be opened the in-memory store is returned instead and the error is logged,
// so the monitor keeps working for the rest of the process lifetime.
func NewStore(cfg config.StorageConfig, logger *zap.Logger) (state.Store, bool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DBPath == "" {
		return state.NewMemoryStore(), false, nil
	}

	dbPath := config.ExpandTilde(cfg.DBPath)

	store, err := NewSQLiteStore(dbPath, logger)
	if err != nil {
		logger.Warn("SQLite storage unavailable, falling back to in-memory store",
			zap.String("path", dbPath), zap.Error(err))
		return state.NewMemoryStore(), false, nil
	}

	return store, true, nil
}
