package handlers

import (
	"context"
	"net/http"
	"strings"

	"hydrogen-admin/internal/config"
	"hydrogen-admin/internal/csvio"
	"hydrogen-admin/internal/events"
	"hydrogen-admin/internal/history"
	"hydrogen-admin/internal/logger"
	"hydrogen-admin/internal/models"
	"hydrogen-admin/internal/products"
	"hydrogen-admin/internal/services/shopify"

	"github.com/gin-gonic/gin"
)

// ShopifyAPI is the Admin API surface the proxy routes relay.
type ShopifyAPI interface {
	GetPublications(ctx context.Context) shopify.Result[[]shopify.Publication]
	CreateCollection(ctx context.Context, input shopify.CollectionInput) shopify.Result[shopify.Collection]
	PublishPublishable(ctx context.Context, id, publicationID string) shopify.Result[struct{}]
	FirstLocationID(ctx context.Context) shopify.Result[string]
	ProductSet(ctx context.Context, input shopify.ProductSetInput) shopify.Result[shopify.Product]
	TrackInventoryItem(ctx context.Context, inventoryItemID string) shopify.Result[struct{}]
}

// ShopifyClientFunc builds a client for a shop URL and admin token.
type ShopifyClientFunc func(shopURL, token string) ShopifyAPI

// ShopifyHandler serves the proxy routes the admin pages call directly.
type ShopifyHandler struct {
	config   *config.Config
	logger   *logger.Logger
	client   ShopifyClientFunc
	recorder *history.Recorder
}

func NewShopifyHandler(cfg *config.Config, logger *logger.Logger, client ShopifyClientFunc, recorder *history.Recorder) *ShopifyHandler {
	return &ShopifyHandler{config: cfg, logger: logger, client: client, recorder: recorder}
}

func (h *ShopifyHandler) configured() (ShopifyAPI, bool) {
	if h.config.ShopifyAdminURL == "" || h.config.ShopifyAdminToken == "" {
		return nil, false
	}
	return h.client(h.config.ShopifyAdminURL, h.config.ShopifyAdminToken), true
}

// vendorFailure renders a failed result: 400 for vendor errors, 500 for
// transport errors.
func vendorFailure[T any](c *gin.Context, res shopify.Result[T], extra gin.H) {
	if res.Kind == shopify.ResultTransportError {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "details": res.ErrorMessage()})
		return
	}

	body := gin.H{}
	if len(res.UserErrors) > 0 {
		body["error"] = "Shopify API Error"
		body["details"] = res.UserErrors
	} else {
		body["error"] = "GraphQL Error"
		body["details"] = res.GraphQLErrors
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusBadRequest, body)
}

// relay writes the vendor response body unchanged.
func relay[T any](c *gin.Context, res shopify.Result[T]) {
	if len(res.Raw) == 0 {
		c.JSON(http.StatusOK, gin.H{"data": res.Data})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", res.Raw)
}

// CreateCollection handles POST /api/create-collection.
func (h *ShopifyHandler) CreateCollection(c *gin.Context) {
	var request struct {
		CollectionInput shopify.CollectionInput `json:"collectionInput"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(request.CollectionInput.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required field: title"})
		return
	}

	client, ok := h.configured()
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Shopify Admin API is not configured"})
		return
	}

	res := client.CreateCollection(c.Request.Context(), request.CollectionInput)
	if !res.OK() {
		h.logger.Error("Failed to create collection %q: %s", request.CollectionInput.Title, res.ErrorMessage())
		extra := gin.H{}
		if res.ProcessedInput != nil {
			extra["processedInput"] = res.ProcessedInput
		}
		vendorFailure(c, res, extra)
		return
	}
	relay(c, res)
}

// PublishCollection handles POST /api/publish-collection.
func (h *ShopifyHandler) PublishCollection(c *gin.Context) {
	var request struct {
		CollectionID  string `json:"collectionId"`
		PublicationID string `json:"publicationId"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if request.CollectionID == "" || request.PublicationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters: collectionId and publicationId"})
		return
	}

	client, ok := h.configured()
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Shopify Admin API is not configured"})
		return
	}

	res := client.PublishPublishable(c.Request.Context(), request.CollectionID, request.PublicationID)
	if !res.OK() {
		h.logger.Error("Failed to publish %s to %s: %s", request.CollectionID, request.PublicationID, res.ErrorMessage())
		vendorFailure(c, res, nil)
		return
	}
	relay(c, res)
}

// GetPublications handles GET /api/get-publications. Query credentials win
// over the configured ones.
func (h *ShopifyHandler) GetPublications(c *gin.Context) {
	shopURL := c.DefaultQuery("shopifyUrl", h.config.ShopifyAdminURL)
	token := c.DefaultQuery("shopifyAdminToken", h.config.ShopifyAdminToken)
	if shopURL == "" || token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters: shopifyUrl and shopifyAdminToken"})
		return
	}

	res := h.client(shopURL, token).GetPublications(c.Request.Context())
	if !res.OK() {
		h.logger.Error("Failed to fetch publications: %s", res.ErrorMessage())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch publications", "details": res.ErrorMessage()})
		return
	}
	relay(c, res)
}

// UploadProducts handles POST /api/upload-products.
func (h *ShopifyHandler) UploadProducts(c *gin.Context) {
	var request struct {
		ParsedCSVData []csvio.Row             `json:"parsedCsvData"`
		Publications  []events.PublicationRef `json:"publications"`
		StoreID       string                  `json:"storeId"`
		StoreName     string                  `json:"storeName"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	if len(request.ParsedCSVData) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": products.ErrNoRows.Error()})
		return
	}
	if len(request.Publications) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": products.ErrNoPublications.Error()})
		return
	}
	if err := events.CheckPublications(request.Publications); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	pubs := make([]shopify.Publication, len(request.Publications))
	for i, ref := range request.Publications {
		pubs[i] = shopify.Publication{ID: ref.ID, Name: ref.Name}
	}

	client, ok := h.configured()
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Shopify Admin API is not configured"})
		return
	}

	ctx := c.Request.Context()
	run := h.recorder.Start(ctx, models.RunKindProducts, request.StoreID, request.StoreName)
	report, err := products.NewUploader(client, h.logger).Upload(ctx, products.Request{
		Rows:         request.ParsedCSVData,
		Publications: pubs,
	}, products.Hooks{})
	h.recorder.FinishProducts(ctx, run, report, err)

	if err != nil {
		h.logger.Error("Product upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	body := gin.H{"success": report.Success, "message": report.Message, "runId": run.ID, "processingStatus": report.Status}
	if !report.Success {
		body["failedRecords"] = report.FailedRecords
	}
	c.JSON(http.StatusOK, body)
}
