package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"hydrogen-admin/internal/csvio"
	"hydrogen-admin/internal/logger"
	"hydrogen-admin/internal/models"
	"hydrogen-admin/internal/services/shopify"

	"golang.org/x/sync/errgroup"
)

const SuccessMessage = "Products uploaded successfully"

var (
	ErrNoRows         = errors.New("No product rows to upload")
	ErrNoPublications = errors.New("No publications provided")
)

// Service is the part of the Admin API client the uploader needs.
type Service interface {
	FirstLocationID(ctx context.Context) shopify.Result[string]
	ProductSet(ctx context.Context, input shopify.ProductSetInput) shopify.Result[shopify.Product]
	TrackInventoryItem(ctx context.Context, inventoryItemID string) shopify.Result[struct{}]
	PublishPublishable(ctx context.Context, id, publicationID string) shopify.Result[struct{}]
}

type PublishFailure struct {
	PublicationID   string `json:"publicationId"`
	PublicationName string `json:"publicationName"`
	Error           string `json:"error"`
}

// Hooks receive per-product notifications. Nil hooks are skipped.
type Hooks struct {
	OnProgress     func(status models.ProcessingStatus)
	OnPublished    func(title, handle string)
	OnError        func(title, handle, message string)
	OnPublishError func(title, handle string, failures []PublishFailure)
	OnWarn         func(message string)
}

type FailedRecord struct {
	Row   csvio.Row
	Error string
}

func (f FailedRecord) MarshalJSON() ([]byte, error) {
	out := f.Row.Clone()
	out[csvio.ErrorColumn] = f.Error
	return json.Marshal(out)
}

type Report struct {
	Success       bool                    `json:"success"`
	Message       string                  `json:"message"`
	Status        models.ProcessingStatus `json:"processingStatus"`
	Created       []shopify.Product       `json:"-"`
	FailedRecords []FailedRecord          `json:"failedRecords,omitempty"`
}

type Request struct {
	Rows         []csvio.Row
	Publications []shopify.Publication
}

type Uploader struct {
	service Service
	logger  *logger.Logger
}

func NewUploader(service Service, logger *logger.Logger) *Uploader {
	return &Uploader{service: service, logger: logger}
}

// Upload creates one product per handle, tracks its inventory and publishes
// it to every publication. A product fails only when productSet fails or no
// publication accepted it.
func (u *Uploader) Upload(ctx context.Context, req Request, hooks Hooks) (*Report, error) {
	if len(req.Rows) == 0 {
		return nil, ErrNoRows
	}
	if len(req.Publications) == 0 {
		return nil, ErrNoPublications
	}

	location := u.service.FirstLocationID(ctx)
	if !location.OK() {
		return nil, fmt.Errorf("failed to fetch location: %s", location.ErrorMessage())
	}

	groups := GroupByHandle(req.Rows)
	themeType := req.Publications[0].Name
	report := &Report{Status: models.ProcessingStatus{Total: len(groups)}}

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		product, errMsg := u.uploadOne(ctx, g, location.Data, themeType, req.Publications, hooks)
		report.Status.Processed++
		if errMsg != "" {
			report.Status.Failed++
			report.FailedRecords = append(report.FailedRecords, FailedRecord{Row: g.First().Clone(), Error: errMsg})
			if hooks.OnError != nil {
				hooks.OnError(g.First().String(ColTitle), g.Handle, errMsg)
			}
		} else {
			report.Status.Successful++
			report.Created = append(report.Created, product)
			if hooks.OnPublished != nil {
				hooks.OnPublished(product.Title, g.Handle)
			}
		}
		if hooks.OnProgress != nil {
			hooks.OnProgress(report.Status)
		}
	}

	report.Success = report.Status.Failed == 0
	if report.Success {
		report.Message = SuccessMessage
	} else {
		report.Message = fmt.Sprintf("%d of %d products failed to upload", report.Status.Failed, report.Status.Total)
	}
	return report, nil
}

func (u *Uploader) uploadOne(ctx context.Context, g Group, locationID, themeType string, pubs []shopify.Publication, hooks Hooks) (shopify.Product, string) {
	if g.Handle == "" {
		return shopify.Product{}, "Missing Handle"
	}

	created := u.service.ProductSet(ctx, BuildInput(g, locationID, themeType))
	if !created.OK() {
		msg := created.ErrorMessage()
		u.logger.Error("Product %s: productSet failed: %s", g.Handle, msg)
		return shopify.Product{}, msg
	}
	product := created.Data

	if itemID := product.FirstInventoryItemID(); itemID != "" {
		if tracked := u.service.TrackInventoryItem(ctx, itemID); !tracked.OK() {
			warn := fmt.Sprintf("Inventory tracking not enabled for %s: %s", g.Handle, tracked.ErrorMessage())
			u.logger.Warn("%s", warn)
			if hooks.OnWarn != nil {
				hooks.OnWarn(warn)
			}
		}
	}

	failures := u.publishAll(ctx, product.ID, pubs)
	if len(failures) > 0 && hooks.OnPublishError != nil {
		hooks.OnPublishError(product.Title, g.Handle, failures)
	}
	if len(failures) == len(pubs) {
		return product, "Failed to publish to any publication"
	}
	return product, ""
}

func (u *Uploader) publishAll(ctx context.Context, productID string, pubs []shopify.Publication) []PublishFailure {
	failures := make([]*PublishFailure, len(pubs))

	var g errgroup.Group
	for i, pub := range pubs {
		i, pub := i, pub
		g.Go(func() error {
			res := u.service.PublishPublishable(ctx, productID, pub.ID)
			if !res.OK() {
				failures[i] = &PublishFailure{PublicationID: pub.ID, PublicationName: pub.Name, Error: res.FirstErrorMessage()}
			}
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
