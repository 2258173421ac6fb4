package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"hydrogen-admin/internal/logger"
	"hydrogen-admin/internal/models"
	"hydrogen-admin/internal/repository"

	"github.com/gin-gonic/gin"
)

type DraftRepository interface {
	Save(ctx context.Context, key string, step int, payload string) (*models.StoreDraft, error)
	Load(ctx context.Context, key string) (*models.StoreDraft, error)
	Clear(ctx context.Context, key string) error
}

// DraftHandler keeps the multi-step store form across reloads.
type DraftHandler struct {
	drafts DraftRepository
	logger *logger.Logger
}

func NewDraftHandler(drafts DraftRepository, logger *logger.Logger) *DraftHandler {
	return &DraftHandler{drafts: drafts, logger: logger}
}

func draftBody(d *models.StoreDraft) gin.H {
	return gin.H{
		"key":        d.DraftKey,
		"step":       d.Step,
		"payload":    json.RawMessage(d.Payload),
		"updated_at": d.UpdatedAt,
	}
}

func (h *DraftHandler) Load(c *gin.Context) {
	draft, err := h.drafts.Load(c.Request.Context(), c.Param("key"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Draft not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load draft"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": draftBody(draft)})
}

func (h *DraftHandler) Save(c *gin.Context) {
	var request struct {
		Step    int             `json:"step" binding:"min=0"`
		Payload json.RawMessage `json:"payload" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(request.Payload, &fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload must be a JSON object"})
		return
	}

	draft, err := h.drafts.Save(c.Request.Context(), c.Param("key"), request.Step, string(request.Payload))
	if err != nil {
		h.logger.Error("Failed to save draft: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save draft"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": draftBody(draft)})
}

func (h *DraftHandler) Clear(c *gin.Context) {
	if err := h.drafts.Clear(c.Request.Context(), c.Param("key")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear draft"})
		return
	}
	c.Status(http.StatusNoContent)
}
