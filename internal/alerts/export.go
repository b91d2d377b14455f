package alerts

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ExportFileName returns the dated file name used for exports. The date is
// the UTC calendar date.
func ExportFileName(now time.Time) string {
	return "hcpss-alerts-" + now.UTC().Format("2006-01-02") + ".json"
}

// Export writes alerts to w as indented JSON in collection order.
func Export(w io.Writer, alerts []Alert) error {
	data, err := encodeAlertsIndent(alerts)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

// WriteExportFile exports alerts into dir under ExportFileName(now) and
// returns the written path. The file is replaced atomically.
func WriteExportFile(dir string, alerts []Alert, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating export directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, ExportFileName(now))

	tmpFile, err := os.CreateTemp(dir, ".hcpss-alerts-*.json.tmp")
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return "", fmt.Errorf("permission denied writing to %s", dir)
		}
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if err := Export(tmpFile, alerts); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return path, nil
}
