package collections

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"hydrogen-admin/internal/csvio"
	"hydrogen-admin/internal/logger"
	"hydrogen-admin/internal/models"
	"hydrogen-admin/internal/publications"
	"hydrogen-admin/internal/services/shopify"

	"golang.org/x/sync/errgroup"
)

// Preconditions checked before any remote call.
var (
	ErrNoStore        = errors.New("Please select a store (theme) before proceeding.")
	ErrNoFile         = errors.New("Please upload a CSV file")
	ErrNoPublications = errors.New("Please select at least one publication channel")
)

// Service is the part of the Admin API client the importer needs.
type Service interface {
	CreateCollection(ctx context.Context, input shopify.CollectionInput) shopify.Result[shopify.Collection]
	PublishPublishable(ctx context.Context, id, publicationID string) shopify.Result[struct{}]
}

type RowState string

const (
	StatePending    RowState = "PENDING"
	StateCreating   RowState = "CREATING"
	StateCreated    RowState = "CREATED"
	StatePublishing RowState = "PUBLISHING"
	StateDone       RowState = "DONE"
	StateFailed     RowState = "FAILED"
)

type PublishFailure struct {
	PublicationID   string `json:"publicationId"`
	PublicationName string `json:"publicationName"`
	Error           string `json:"error"`
}

// RowResult is the outcome of one row.
type RowResult struct {
	Index           int              `json:"index"`
	Title           string           `json:"title"`
	Handle          string           `json:"handle"`
	State           RowState         `json:"state"`
	CollectionID    string           `json:"collectionId,omitempty"`
	Retried         bool             `json:"retried,omitempty"`
	Error           string           `json:"error,omitempty"`
	PublishFailures []PublishFailure `json:"publishFailures,omitempty"`
	Row             csvio.Row        `json:"-"`
}

// FailedRecord is the original row plus the reason it failed. It marshals
// flat so it can be exported next to the input columns.
type FailedRecord struct {
	Row   csvio.Row
	Error string
}

func (f FailedRecord) MarshalJSON() ([]byte, error) {
	out := f.Row.Clone()
	out[csvio.ErrorColumn] = f.Error
	return json.Marshal(out)
}

// APIErrors keeps the latest message per failure category.
type APIErrors struct {
	CreateCollection  string `json:"createCollection,omitempty"`
	ShopifyErrors     string `json:"shopifyErrors,omitempty"`
	GraphQLErrors     string `json:"graphqlErrors,omitempty"`
	PublishCollection string `json:"publishCollection,omitempty"`
}

type Report struct {
	Status        models.ProcessingStatus `json:"processingStatus"`
	Rows          []RowResult             `json:"rows"`
	FailedRecords []FailedRecord          `json:"failedRecords"`
	APIErrors     APIErrors               `json:"apiErrors"`
}

// FailedTable returns the failed rows with their error column for export.
func (r *Report) FailedTable(header []string) *csvio.Table {
	table := &csvio.Table{Header: append(append([]string(nil), header...), csvio.ErrorColumn)}
	for _, f := range r.FailedRecords {
		row := f.Row.Clone()
		row[csvio.ErrorColumn] = f.Error
		table.Rows = append(table.Rows, row)
	}
	return table
}

type Request struct {
	StoreID      string
	Table        *csvio.Table
	Publications []shopify.Publication
}

// ProgressFunc is called after every row with the running counters.
type ProgressFunc func(result RowResult, status models.ProcessingStatus)

type Importer struct {
	service Service
	logger  *logger.Logger
}

func NewImporter(service Service, logger *logger.Logger) *Importer {
	return &Importer{service: service, logger: logger}
}

// Validate checks the whole-batch preconditions.
func (req Request) Validate() error {
	if strings.TrimSpace(req.StoreID) == "" {
		return ErrNoStore
	}
	if req.Table == nil || len(req.Table.Rows) == 0 {
		return ErrNoFile
	}
	if len(req.Publications) == 0 {
		return ErrNoPublications
	}
	return nil
}

// Run submits rows one at a time. Row failures are recorded and never stop
// the loop; only a failed precondition or a cancelled context ends it early.
func (im *Importer) Run(ctx context.Context, req Request, progress ProgressFunc) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	report := &Report{
		Status:        models.ProcessingStatus{Total: len(req.Table.Rows)},
		Rows:          make([]RowResult, 0, len(req.Table.Rows)),
		FailedRecords: []FailedRecord{},
	}
	names := publications.Names(req.Publications)

	for i, csvRow := range req.Table.Rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result := im.processRow(ctx, i, csvRow, names, req.Publications, &report.APIErrors)

		report.Status.Processed++
		if result.State == StateDone {
			report.Status.Successful++
		} else {
			report.Status.Failed++
			report.FailedRecords = append(report.FailedRecords, FailedRecord{Row: csvRow.Clone(), Error: result.Error})
		}
		report.Rows = append(report.Rows, result)

		if progress != nil {
			progress(result, report.Status)
		}
	}

	return report, nil
}

func (im *Importer) processRow(ctx context.Context, index int, csvRow csvio.Row, names []string, pubs []shopify.Publication, apiErrors *APIErrors) RowResult {
	row := RowFromCSV(csvRow)
	result := RowResult{Index: index, Title: row.Title, Handle: row.Handle, State: StatePending, Row: csvRow}

	input := BuildInput(row, names)
	if rel := input.RuleSet.Rules[0].Relation; !IsCanonicalRelation(rel) {
		im.logger.Warn("Row %d: relation %q is not a known rule relation", index+1, rel)
	}

	result.State = StateCreating
	created := im.service.CreateCollection(ctx, input)
	if !created.OK() && created.ProcessedInput != nil {
		im.logger.Info("Row %d: retrying with corrected input", index+1)
		result.Retried = true
		created = im.service.CreateCollection(ctx, *created.ProcessedInput)
	}

	if !created.OK() {
		result.State = StateFailed
		result.Error = created.FirstErrorMessage()
		recordCreateError(apiErrors, created)
		im.logger.Error("Row %d (%s): failed to create collection: %s", index+1, row.Title, result.Error)
		return result
	}

	result.State = StateCreated
	result.CollectionID = created.Data.ID

	result.State = StatePublishing
	failures := im.publishAll(ctx, created.Data.ID, pubs)
	result.PublishFailures = failures

	if len(failures) > 0 {
		failedNames := make([]string, len(failures))
		for i, f := range failures {
			failedNames[i] = f.PublicationName
		}
		apiErrors.PublishCollection = "Failed to publish to: " + strings.Join(failedNames, ", ")
	}

	if len(failures) == len(pubs) {
		result.State = StateFailed
		result.Error = apiErrors.PublishCollection
		return result
	}

	result.State = StateDone
	return result
}

// publishAll publishes to every publication concurrently and returns the
// failures in publication order.
func (im *Importer) publishAll(ctx context.Context, collectionID string, pubs []shopify.Publication) []PublishFailure {
	// each goroutine owns one slot
	failures := make([]*PublishFailure, len(pubs))

	var g errgroup.Group
	for i, pub := range pubs {
		i, pub := i, pub
		g.Go(func() error {
			res := im.service.PublishPublishable(ctx, collectionID, pub.ID)
			if res.OK() {
				return nil
			}
			failures[i] = &PublishFailure{PublicationID: pub.ID, PublicationName: pub.Name, Error: res.FirstErrorMessage()}
			return nil
		})
	}
	g.Wait()

	var out []PublishFailure
	for _, f := range failures {
		if f != nil {
			out = append(out, *f)
		}
	}
	return out
}

func recordCreateError(apiErrors *APIErrors, res shopify.Result[shopify.Collection]) {
	msg := res.FirstErrorMessage()
	apiErrors.CreateCollection = msg
	switch {
	case len(res.UserErrors) > 0:
		apiErrors.ShopifyErrors = "Shopify API Error: " + msg
	case len(res.GraphQLErrors) > 0:
		apiErrors.GraphQLErrors = "GraphQL Error: " + msg
	}
}
