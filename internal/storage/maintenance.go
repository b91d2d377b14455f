package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	maintenanceInterval = 1 * time.Hour
	vacuumInterval      = 7 * 24 * time.Hour
)

func (s *SQLiteStore) startMaintenance(ctx context.Context) {
	go s.maintenanceLoop(ctx)
}

func (s *SQLiteStore) maintenanceLoop(ctx context.Context) {
	defer close(s.maintenanceDone)

	lastVacuum := time.Now()
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.runMaintenanceCycle(); err != nil {
				s.logger.Error("maintenance cycle failed", zap.Error(err))
			}

			if time.Since(lastVacuum) >= vacuumInterval {
				if _, err := s.db.Exec("VACUUM"); err != nil {
					s.logger.Error("VACUUM failed", zap.Error(err))
				} else {
					lastVacuum = time.Now()
				}
			}
		}
	}
}

// runMaintenanceCycle folds the write-ahead log back into the main database
// file so it does not grow without bound during long monitoring sessions.
func (s *SQLiteStore) runMaintenanceCycle() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("checkpointing WAL: %w", err)
	}
	return nil
}
