package processors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hydrogen-admin/internal/collections"
	"hydrogen-admin/internal/csvio"
	"hydrogen-admin/internal/events"
	"hydrogen-admin/internal/history"
	"hydrogen-admin/internal/logger"
	"hydrogen-admin/internal/models"
	"hydrogen-admin/internal/products"
	"hydrogen-admin/internal/repository"
	"hydrogen-admin/internal/services/shopify"
	"hydrogen-admin/internal/worker/processors/export"
	"hydrogen-admin/internal/worker/processors/validation"

	"github.com/google/uuid"
)

// Shopify is the Admin API surface both jobs need.
type Shopify interface {
	collections.Service
	products.Service
	GetPublications(ctx context.Context) shopify.Result[[]shopify.Publication]
}

// ShopifyFactory returns a client for the store. store is nil when the
// store is not in the registry.
type ShopifyFactory func(store *models.Store) Shopify

type StoreRepository interface {
	Get(ctx context.Context, storeID string) (*models.Store, error)
	Upsert(ctx context.Context, stores []models.Store) error
}

type Deps struct {
	Sink     Sink
	Stores   StoreRepository
	Recorder *history.Recorder
	Shopify  ShopifyFactory
	DataDir  string
}

// sessionIdle bounds how long a session's sequence survives between
// commands.
const sessionIdle = time.Hour

// CommandProcessor runs the job behind each admin command and reports its
// progress as events on the command's session.
type CommandProcessor struct {
	deps      Deps
	logger    *logger.Logger
	loader    *Loader
	validator *validation.Validator
	exporter  *export.Exporter
	sequences *sequences
}

func NewCommandProcessor(deps Deps, logger *logger.Logger) *CommandProcessor {
	return &CommandProcessor{
		deps:      deps,
		logger:    logger,
		loader:    NewLoader(deps.DataDir),
		validator: validation.New(logger),
		exporter:  export.New(deps.DataDir, logger),
		sequences: newSequences(deps.Sink, logger, sessionIdle),
	}
}

func (cp *CommandProcessor) Process(ctx context.Context, cmd events.Command) error {
	switch cmd.Name {
	case events.PublishCollections:
		return cp.publishCollections(ctx, cmd, cp.sequences.acquire(cmd.Session))
	case events.PublishProducts:
		// products are the last step of every publish session
		defer cp.sequences.release(cmd.Session)
		return cp.publishProducts(ctx, cmd, cp.sequences.acquire(cmd.Session))
	case events.ShopifyCreate, events.ShopifyUpdate:
		defer cp.sequences.release(cmd.Session)
		return cp.configureStore(ctx, cmd, cp.sequences.acquire(cmd.Session))
	}
	return fmt.Errorf("unsupported command %q", cmd.Name)
}

func (cp *CommandProcessor) start(cmd events.Command) (events.StartPayload, error) {
	var payload events.StartPayload
	if err := cmd.Bind(&payload); err != nil {
		return payload, err
	}
	return payload, cp.validator.ValidateStart(payload)
}

func (cp *CommandProcessor) client(ctx context.Context, storeID string) Shopify {
	store, err := cp.deps.Stores.Get(ctx, storeID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			cp.logger.Warn("Store lookup failed for %s: %v", storeID, err)
		}
		store = nil
	}
	return cp.deps.Shopify(store)
}

// publications resolves the command's selection, falling back to every
// publication of the store.
func (cp *CommandProcessor) publications(ctx context.Context, client Shopify, refs []events.PublicationRef) ([]shopify.Publication, error) {
	if len(refs) > 0 {
		pubs := make([]shopify.Publication, len(refs))
		for i, ref := range refs {
			pubs[i] = shopify.Publication{ID: ref.ID, Name: ref.Name}
		}
		return pubs, nil
	}
	res := client.GetPublications(ctx)
	if !res.OK() {
		return nil, fmt.Errorf("failed to fetch publications: %s", res.ErrorMessage())
	}
	return res.Data, nil
}

func (cp *CommandProcessor) loadSource(ctx context.Context, store, kind string, out *emitter, required ...string) (*csvio.Table, bool) {
	table, err := cp.loader.Load(store, kind)
	if errors.Is(err, ErrSourceNotFound) {
		cp.logger.Warn("No %s source for %s: %v", kind, store, err)
		out.emit(ctx, events.PublishNotFound, events.MessagePayload{Message: err.Error()})
		return nil, false
	}
	if err == nil {
		err = cp.validator.ValidateTable(table, required...)
	}
	if err != nil {
		out.emit(ctx, events.PublishError, events.ErrorPayload{Message: err.Error(), Scope: events.Scope(kind)})
		return nil, false
	}
	return table, true
}

func (cp *CommandProcessor) publishCollections(ctx context.Context, cmd events.Command, out *emitter) error {
	payload, err := cp.start(cmd)
	if err != nil {
		out.emit(ctx, events.PublishError, events.ErrorPayload{Message: err.Error(), Scope: events.ScopeCollections})
		return err
	}
	completed := func(success bool) {
		out.emit(ctx, events.CollectionsCompleted, events.CollectionsCompletedPayload{
			StoreName: payload.StoreName, StoreID: payload.StoreID, Success: success,
		})
	}

	out.emit(ctx, events.PublishStatus, events.MessagePayload{Message: "Publishing collections for " + payload.StoreName})
	table, ok := cp.loadSource(ctx, payload.StoreName, string(events.ScopeCollections), out, collections.ColTitle)
	if !ok {
		completed(false)
		return nil
	}

	client := cp.client(ctx, payload.StoreID)
	pubs, err := cp.publications(ctx, client, payload.Publications)
	if err != nil {
		out.emit(ctx, events.PublishError, events.ErrorPayload{Message: err.Error(), Scope: events.ScopeCollections})
		completed(false)
		return nil
	}

	total := len(table.Rows)
	out.emit(ctx, events.CollectionsProgress, progress(models.ProcessingStatus{Total: total}, "starting", "", ""))

	run := cp.deps.Recorder.Start(ctx, models.RunKindCollections, payload.StoreID, payload.StoreName)
	report, err := collections.NewImporter(client, cp.logger).Run(ctx, collections.Request{
		StoreID: payload.StoreID, Table: table, Publications: pubs,
	}, func(row collections.RowResult, status models.ProcessingStatus) {
		item := events.ItemPayload{Title: row.Title, Handle: row.Handle}
		if row.State == collections.StateDone {
			out.emit(ctx, events.CollectionsPublished, item)
		} else {
			item.Message = row.Error
			out.emit(ctx, events.CollectionsError, item)
		}
		if len(row.PublishFailures) > 0 && row.State == collections.StateDone {
			names := make([]string, len(row.PublishFailures))
			for i, f := range row.PublishFailures {
				names[i] = f.PublicationName
			}
			item.Message = publishFailureMessage(names)
			out.emit(ctx, events.CollectionsPublishError, item)
		}
		out.emit(ctx, events.CollectionsProgress, progress(status, string(row.State), row.Title, row.Handle))
	})
	cp.deps.Recorder.FinishCollections(ctx, run, report, err)
	if err != nil {
		out.emit(ctx, events.PublishError, events.ErrorPayload{Message: err.Error(), Scope: events.ScopeCollections})
		completed(false)
		return err
	}

	out.emit(ctx, events.CollectionsPublishSummary, report.APIErrors)
	if len(report.FailedRecords) > 0 {
		failed := report.FailedTable(table.Header)
		out.emit(ctx, events.PublishFailedRecords, failed.Rows)
		if _, err := cp.exporter.ExportFailed(payload.StoreName, "collections", run.ID, failed); err != nil {
			cp.logger.Error("Failed to export failed collections: %v", err)
		}
	}
	out.emit(ctx, events.CollectionsDone, events.DonePayload{Created: report.Status.Successful, Total: report.Status.Total})
	out.emit(ctx, events.PublishCompleted, events.CompletedPayload{Scope: events.ScopeCollections, SuccessCount: report.Status.Successful})
	completed(true)
	return nil
}

func (cp *CommandProcessor) publishProducts(ctx context.Context, cmd events.Command, out *emitter) error {
	payload, err := cp.start(cmd)
	if err != nil {
		out.emit(ctx, events.PublishError, events.ErrorPayload{Message: err.Error(), Scope: events.ScopeProducts})
		return err
	}

	out.emit(ctx, events.PublishStatus, events.MessagePayload{Message: "Publishing products for " + payload.StoreName})
	table, ok := cp.loadSource(ctx, payload.StoreName, string(events.ScopeProducts), out, products.ColHandle)
	if !ok {
		return nil
	}

	client := cp.client(ctx, payload.StoreID)
	pubs, err := cp.publications(ctx, client, payload.Publications)
	if err != nil {
		out.emit(ctx, events.PublishError, events.ErrorPayload{Message: err.Error(), Scope: events.ScopeProducts})
		return nil
	}

	groups := products.GroupByHandle(table.Rows)
	out.emit(ctx, events.ProductsProgress, progress(models.ProcessingStatus{Total: len(groups)}, "starting", "", ""))

	run := cp.deps.Recorder.Start(ctx, models.RunKindProducts, payload.StoreID, payload.StoreName)
	report, err := products.NewUploader(client, cp.logger).Upload(ctx, products.Request{Rows: table.Rows, Publications: pubs}, products.Hooks{
		OnProgress: func(status models.ProcessingStatus) {
			out.emit(ctx, events.ProductsProgress, progress(status, "uploading", "", ""))
		},
		OnPublished: func(title, handle string) {
			out.emit(ctx, events.ProductsPublished, events.ItemPayload{Title: title, Handle: handle})
		},
		OnError: func(title, handle, message string) {
			out.emit(ctx, events.ProductsError, events.ItemPayload{Title: title, Handle: handle, Message: message})
		},
		OnPublishError: func(title, handle string, failures []products.PublishFailure) {
			names := make([]string, len(failures))
			for i, f := range failures {
				names[i] = f.PublicationName
			}
			out.emit(ctx, events.ProductsPublishError, events.ItemPayload{Title: title, Handle: handle, Message: publishFailureMessage(names)})
		},
		OnWarn: func(message string) {
			out.emit(ctx, events.ProductsWarn, events.MessagePayload{Message: message})
		},
	})
	cp.deps.Recorder.FinishProducts(ctx, run, report, err)
	if err != nil {
		out.emit(ctx, events.PublishError, events.ErrorPayload{Message: err.Error(), Scope: events.ScopeProducts})
		return err
	}

	out.emit(ctx, events.ProductsPublishSummary, report)
	if len(report.FailedRecords) > 0 {
		out.emit(ctx, events.ProductsFailedRecords, report.FailedRecords)
		failed := &csvio.Table{Header: append(append([]string(nil), table.Header...), csvio.ErrorColumn)}
		for _, f := range report.FailedRecords {
			row := f.Row.Clone()
			row[csvio.ErrorColumn] = f.Error
			failed.Rows = append(failed.Rows, row)
		}
		if _, err := cp.exporter.ExportFailed(payload.StoreName, "products", run.ID, failed); err != nil {
			cp.logger.Error("Failed to export failed products: %v", err)
		}
	}
	out.emit(ctx, events.ProductsDone, events.DonePayload{Created: report.Status.Successful, Total: report.Status.Total})
	out.emit(ctx, events.PublishCompleted, events.CompletedPayload{Scope: events.ScopeProducts, SuccessCount: report.Status.Successful})
	if report.Success {
		out.emit(ctx, events.PublishSuccess, events.MessagePayload{Message: report.Message})
	}
	return nil
}

// configureStore records the configuration in the registry and hands it to
// the theme backend.
func (cp *CommandProcessor) configureStore(ctx context.Context, cmd events.Command, out *emitter) error {
	var cfg models.StoreConfig
	if err := cmd.Bind(&cfg); err != nil {
		out.emit(ctx, events.ShopifyFailure, events.MessagePayload{Message: err.Error()})
		return err
	}

	store := models.Store{StoreID: cfg.StoreID, Status: "PENDING"}
	if cmd.Name == events.ShopifyUpdate {
		existing, err := cp.deps.Stores.Get(ctx, cfg.StoreID)
		if err != nil {
			out.emit(ctx, events.ShopifyFailure, events.MessagePayload{Message: "Store not found: " + cfg.StoreID})
			return err
		}
		store = *existing
	}
	if store.StoreID == "" {
		store.StoreID = uuid.NewString()
	}
	store.StoreName = cfg.StoreName
	if cfg.ShopifyURL != "" {
		store.StoreURL = cfg.ShopifyURL
	}
	if cfg.Email != "" {
		store.Email = cfg.Email
	}
	if cfg.Phone != "" {
		store.Phone = cfg.Phone
	}

	if err := cp.deps.Stores.Upsert(ctx, []models.Store{store}); err != nil {
		out.emit(ctx, events.ShopifyFailure, events.MessagePayload{Message: err.Error()})
		return err
	}

	cp.logger.Info("Store %s (%s) configuration accepted via %s", store.StoreName, store.StoreID, cmd.Name)
	out.emit(ctx, events.ShopifyStatus, map[string]string{
		"status":  "Configuration received for " + store.StoreName,
		"storeId": store.StoreID,
	})
	if store.StoreURL != "" {
		out.emit(ctx, events.ShopifyStoreURL, map[string]string{"url": store.StoreURL})
	}
	return nil
}

func progress(status models.ProcessingStatus, stage, title, handle string) events.Progress {
	return events.Progress{
		Total:      &status.Total,
		Processed:  &status.Processed,
		Successful: &status.Successful,
		Failed:     &status.Failed,
		Stage:      stage,
		Title:      title,
		Handle:     handle,
	}
}

func publishFailureMessage(names []string) string {
	return "Failed to publish to: " + strings.Join(names, ", ")
}
