package storage

import (
	"fmt"

	"go.uber.org/zap"
)

// warmCache loads every row of the kv table into the in-memory cache.
// Rows that fail to scan are skipped and counted.
func (s *SQLiteStore) warmCache() error {
	rows, err := s.db.Query("SELECT key, value FROM kv")
	if err != nil {
		return fmt.Errorf("querying kv: %w", err)
	}
	defer func() { _ = rows.Close() }()

	values := make(map[string]string)
	var failCount int
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			failCount++
			s.logger.Error("failed to scan kv row", zap.Error(err))
			continue
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating kv rows: %w", err)
	}

	if failCount > 0 {
		s.logger.Warn("skipped unreadable kv rows", zap.Int("count", failCount))
	}

	s.cache.Load(values)
	s.logger.Debug("kv cache warmed", zap.Int("keys", len(values)))
	return nil
}
