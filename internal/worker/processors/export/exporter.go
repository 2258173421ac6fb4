package export

import (
	"fmt"
	"os"
	"path/filepath"

	"hydrogen-admin/internal/csvio"
	"hydrogen-admin/internal/logger"
)

// Exporter writes failed-record tables next to a store's source files so
// they can be fixed and re-run.
type Exporter struct {
	dataDir string
	logger  *logger.Logger
}

func New(dataDir string, logger *logger.Logger) *Exporter {
	return &Exporter{dataDir: dataDir, logger: logger}
}

// ExportFailed writes <dataDir>/<store>/failed/<kind>-<runID>.csv and .xlsx
// and returns the CSV path.
func (e *Exporter) ExportFailed(store, kind, runID string, table *csvio.Table) (string, error) {
	if table == nil || len(table.Rows) == 0 {
		return "", nil
	}
	dir := filepath.Join(e.dataDir, store, "failed")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	base := filepath.Join(dir, fmt.Sprintf("%s-%s", kind, runID))
	if err := os.WriteFile(base+".csv", []byte(csvio.Export(table)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write csv export: %w", err)
	}

	xlsx, err := csvio.ExportXLSX(table, "Failed "+kind)
	if err != nil {
		return "", fmt.Errorf("failed to build xlsx export: %w", err)
	}
	if err := os.WriteFile(base+".xlsx", xlsx, 0o644); err != nil {
		return "", fmt.Errorf("failed to write xlsx export: %w", err)
	}

	e.logger.Info("Exported %d failed %s to %s.csv", len(table.Rows), kind, base)
	return base + ".csv", nil
}
