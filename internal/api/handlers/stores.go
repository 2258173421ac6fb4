package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"hydrogen-admin/internal/events"
	"hydrogen-admin/internal/logger"
	"hydrogen-admin/internal/models"
	"hydrogen-admin/internal/repository"
	"hydrogen-admin/internal/stream"

	"github.com/gin-gonic/gin"
)

type StoreRepository interface {
	List(ctx context.Context) ([]models.Store, error)
	Get(ctx context.Context, storeID string) (*models.Store, error)
	Upsert(ctx context.Context, stores []models.Store) error
}

// Registry is the external source of provisioned stores.
type Registry interface {
	Enabled() bool
	Stores(ctx context.Context) ([]models.Store, error)
}

type StoreHandler struct {
	stores   StoreRepository
	drafts   DraftRepository
	registry Registry
	hub      *stream.Hub
	logger   *logger.Logger
}

func NewStoreHandler(stores StoreRepository, drafts DraftRepository, registry Registry, hub *stream.Hub, logger *logger.Logger) *StoreHandler {
	return &StoreHandler{stores: stores, drafts: drafts, registry: registry, hub: hub, logger: logger}
}

// List refreshes from the registry when one is configured. A registry
// failure falls back to the stored rows.
func (h *StoreHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	stale := false

	if h.registry != nil && h.registry.Enabled() {
		fresh, err := h.registry.Stores(ctx)
		if err == nil {
			err = h.stores.Upsert(ctx, fresh)
		}
		if err != nil {
			h.logger.Warn("Store registry sync failed: %v", err)
			stale = true
		}
	}

	stores, err := h.stores.List(ctx)
	if err != nil {
		h.logger.Error("Failed to list stores: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stores"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stores, "stale": stale})
}

func (h *StoreHandler) Get(c *gin.Context) {
	store, err := h.stores.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch store"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": store})
}

// Create handles POST /api/v1/stores/create. The configuration goes out as
// shopify:create on a new session; ?draftKey= clears the saved form.
func (h *StoreHandler) Create(c *gin.Context) {
	var cfg models.StoreConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg.StoreID = ""
	h.open(c, cfg, http.StatusAccepted)
}

// UpdateConfig handles PUT /api/v1/stores/:id/config with shopify:update.
func (h *StoreHandler) UpdateConfig(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.stores.Get(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch store"})
		return
	}

	var cfg models.StoreConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg.StoreID = id
	h.open(c, cfg, http.StatusAccepted)
}

func (h *StoreHandler) open(c *gin.Context, cfg models.StoreConfig, status int) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode configuration"})
		return
	}

	ctx := c.Request.Context()
	session, err := h.hub.Open(ctx, events.ModeStore, cfg.StoreName, cfg.StoreID, raw)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	state := session.Snapshot()
	if state.Error != "" {
		c.JSON(http.StatusBadGateway, gin.H{"error": state.Error, "sessionId": session.ID})
		return
	}

	if key := c.Query("draftKey"); key != "" && h.drafts != nil {
		if err := h.drafts.Clear(ctx, key); err != nil {
			h.logger.Warn("Failed to clear draft %s: %v", key, err)
		}
	}
	c.JSON(status, gin.H{"data": gin.H{"sessionId": session.ID, "state": state}})
}
