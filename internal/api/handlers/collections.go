package handlers

import (
	"errors"
	"net/http"
	"strings"

	"hydrogen-admin/internal/collections"
	"hydrogen-admin/internal/config"
	"hydrogen-admin/internal/history"
	"hydrogen-admin/internal/logger"
	"hydrogen-admin/internal/models"
	"hydrogen-admin/internal/publications"

	"github.com/gin-gonic/gin"
)

type CollectionHandler struct {
	config   *config.Config
	logger   *logger.Logger
	client   ShopifyClientFunc
	recorder *history.Recorder
}

func NewCollectionHandler(cfg *config.Config, logger *logger.Logger, client ShopifyClientFunc, recorder *history.Recorder) *CollectionHandler {
	return &CollectionHandler{config: cfg, logger: logger, client: client, recorder: recorder}
}

// Import handles POST /api/v1/collections/import: a multipart upload with
// file, storeId, storeName and publicationIds (comma separated, all when
// empty). Rows are submitted one by one and the full report is returned.
func (h *CollectionHandler) Import(c *gin.Context) {
	storeID := strings.TrimSpace(c.PostForm("storeId"))
	if storeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": collections.ErrNoStore.Error()})
		return
	}

	table, err := readTable(c)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			err = collections.ErrNoFile
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.config.ShopifyAdminURL == "" || h.config.ShopifyAdminToken == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Shopify Admin API is not configured"})
		return
	}
	client := h.client(h.config.ShopifyAdminURL, h.config.ShopifyAdminToken)
	ctx := c.Request.Context()

	pubs := client.GetPublications(ctx)
	if !pubs.OK() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch publications", "details": pubs.ErrorMessage()})
		return
	}
	selection := publications.NewSelection(pubs.Data)
	if ids := splitIDs(c.PostForm("publicationIds")); len(ids) > 0 {
		selection.Only(ids)
	}

	req := collections.Request{StoreID: storeID, Table: table, Publications: selection.Selected()}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run := h.recorder.Start(ctx, models.RunKindCollections, storeID, c.PostForm("storeName"))
	report, err := collections.NewImporter(client, h.logger).Run(ctx, req, func(row collections.RowResult, status models.ProcessingStatus) {
		h.logger.Debug("Row %d %s: %d/%d processed", row.Index+1, row.State, status.Processed, status.Total)
	})
	h.recorder.FinishCollections(ctx, run, report, err)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "data": report})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report, "runId": run.ID})
}

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
