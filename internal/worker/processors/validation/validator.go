package validation

import (
	"errors"
	"fmt"
	"strings"

	"hydrogen-admin/internal/csvio"
	"hydrogen-admin/internal/events"
	"hydrogen-admin/internal/logger"
)

var ErrMissingStore = errors.New("storeName and storeId are required")

type Validator struct {
	logger *logger.Logger
}

func New(logger *logger.Logger) *Validator {
	return &Validator{logger: logger}
}

// ValidateStart checks a publish command payload.
func (v *Validator) ValidateStart(payload events.StartPayload) error {
	if strings.TrimSpace(payload.StoreName) == "" || strings.TrimSpace(payload.StoreID) == "" {
		return ErrMissingStore
	}
	return events.CheckPublications(payload.Publications)
}

// ValidateTable checks that every required column is present in the header.
func (v *Validator) ValidateTable(table *csvio.Table, required ...string) error {
	if table == nil || len(table.Rows) == 0 {
		return csvio.ErrTooFewLines
	}
	have := map[string]bool{}
	for _, c := range table.Columns() {
		have[c] = true
	}
	var missing []string
	for _, c := range required {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		v.logger.Debug("Table columns: %v", table.Columns())
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}
