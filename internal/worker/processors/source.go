package processors

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"hydrogen-admin/internal/csvio"
)

// ErrSourceNotFound means the store has no file for the requested kind.
var ErrSourceNotFound = errors.New("source file not found")

// Loader reads per-store source files: <dataDir>/<store>/<kind>.csv, or
// .xlsx when no CSV exists.
type Loader struct {
	dataDir string
}

func NewLoader(dataDir string) *Loader {
	return &Loader{dataDir: dataDir}
}

func (l *Loader) Load(store, kind string) (*csvio.Table, error) {
	if store == "" || filepath.Base(store) != store {
		return nil, fmt.Errorf("%w: invalid store folder %q", ErrSourceNotFound, store)
	}
	base := filepath.Join(l.dataDir, store, kind)

	if f, err := os.Open(base + ".csv"); err == nil {
		defer f.Close()
		return csvio.Parse(f)
	}
	if f, err := os.Open(base + ".xlsx"); err == nil {
		defer f.Close()
		return csvio.ParseXLSX(f)
	}
	return nil, fmt.Errorf("%w: %s.csv", ErrSourceNotFound, base)
}
