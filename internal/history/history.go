// Package history persists bulk runs and turns stored failures back into
// exportable tables.
package history

import (
	"context"
	"encoding/json"
	"errors"

	"hydrogen-admin/internal/collections"
	"hydrogen-admin/internal/csvio"
	"hydrogen-admin/internal/logger"
	"hydrogen-admin/internal/models"
	"hydrogen-admin/internal/products"
)

// Store is the part of the run repository the recorder needs.
type Store interface {
	Create(ctx context.Context, run *models.PublishRun) error
	Finish(ctx context.Context, run *models.PublishRun, records []models.RunRecord) error
}

// Recorder never fails a run: storage errors are logged and swallowed.
type Recorder struct {
	store  Store
	logger *logger.Logger
}

func NewRecorder(store Store, logger *logger.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

func (r *Recorder) Start(ctx context.Context, kind models.RunKind, storeID, storeName string) *models.PublishRun {
	run := &models.PublishRun{Kind: kind, StoreID: storeID, StoreName: storeName, Status: models.RunStatusRunning}
	if r == nil || r.store == nil {
		return run
	}
	if err := r.store.Create(ctx, run); err != nil {
		r.logger.Error("Failed to record %s run: %v", kind, err)
	}
	return run
}

func (r *Recorder) FinishCollections(ctx context.Context, run *models.PublishRun, report *collections.Report, runErr error) {
	var records []models.RunRecord
	if report != nil {
		run.Counters = report.Status
		for _, row := range report.Rows {
			rec := models.RunRecord{Position: row.Index, Title: row.Title, Handle: row.Handle, Outcome: models.OutcomeSucceeded}
			if row.State == collections.StateFailed {
				rec.Outcome = models.OutcomeFailed
				rec.Error = row.Error
			}
			rec.Row = encodeRow(row.Row)
			records = append(records, rec)
		}
		run.Message = report.APIErrors.PublishCollection
	}
	r.finish(ctx, run, records, runErr)
}

func (r *Recorder) FinishProducts(ctx context.Context, run *models.PublishRun, report *products.Report, runErr error) {
	var records []models.RunRecord
	if report != nil {
		run.Counters = report.Status
		run.Message = report.Message
		for i, p := range report.Created {
			records = append(records, models.RunRecord{Position: i, Title: p.Title, Handle: p.Handle, Outcome: models.OutcomeSucceeded})
		}
		for i, f := range report.FailedRecords {
			records = append(records, models.RunRecord{
				Position: len(report.Created) + i,
				Title:    f.Row.String(products.ColTitle),
				Handle:   f.Row.String(products.ColHandle),
				Outcome:  models.OutcomeFailed,
				Error:    f.Error,
				Row:      encodeRow(f.Row),
			})
		}
	}
	r.finish(ctx, run, records, runErr)
}

func (r *Recorder) finish(ctx context.Context, run *models.PublishRun, records []models.RunRecord, runErr error) {
	run.Status = models.RunStatusCompleted
	if runErr != nil {
		run.Status = models.RunStatusFailed
		run.Message = runErr.Error()
	}
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.Finish(ctx, run, records); err != nil {
		r.logger.Error("Failed to finish run %s: %v", run.ID, err)
	}
}

func encodeRow(row csvio.Row) string {
	if row == nil {
		return ""
	}
	data, err := json.Marshal(row)
	if err != nil {
		return ""
	}
	return string(data)
}

var ErrNoFailures = errors.New("run has no failed records")

// FailedTable rebuilds the failed rows of a run with their error column.
// Records stored without their row fall back to title and handle.
func FailedTable(records []models.RunRecord) (*csvio.Table, error) {
	table := &csvio.Table{}
	for _, rec := range records {
		if rec.Outcome != models.OutcomeFailed {
			continue
		}
		row := csvio.Row{}
		if rec.Row != "" {
			if err := json.Unmarshal([]byte(rec.Row), &row); err != nil {
				row = csvio.Row{}
			}
		}
		if len(row) == 0 {
			row["title"] = rec.Title
			row["handle"] = rec.Handle
		}
		row[csvio.ErrorColumn] = rec.Error
		table.Rows = append(table.Rows, row)
	}
	if len(table.Rows) == 0 {
		return nil, ErrNoFailures
	}
	return table, nil
}
