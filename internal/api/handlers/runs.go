package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"hydrogen-admin/internal/history"
	"hydrogen-admin/internal/logger"
	"hydrogen-admin/internal/models"
	"hydrogen-admin/internal/repository"

	"github.com/gin-gonic/gin"
)

type RunRepository interface {
	Get(ctx context.Context, id string) (*models.PublishRun, error)
	List(ctx context.Context, limit int) ([]models.PublishRun, error)
	Records(ctx context.Context, runID string, outcome models.RecordOutcome) ([]models.RunRecord, error)
}

type RunHandler struct {
	runs   RunRepository
	logger *logger.Logger
}

func NewRunHandler(runs RunRepository, logger *logger.Logger) *RunHandler {
	return &RunHandler{runs: runs, logger: logger}
}

func (h *RunHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := h.runs.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list runs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": runs})
}

func (h *RunHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	run, ok := h.find(c)
	if !ok {
		return
	}
	records, err := h.runs.Records(ctx, run.ID, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch run records"})
		return
	}
	run.Records = records
	c.JSON(http.StatusOK, gin.H{"data": run})
}

// Failed re-exports a run's failed rows, CSV by default or ?format=xlsx.
func (h *RunHandler) Failed(c *gin.Context) {
	run, ok := h.find(c)
	if !ok {
		return
	}
	records, err := h.runs.Records(c.Request.Context(), run.ID, models.OutcomeFailed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch run records"})
		return
	}
	table, err := history.FailedTable(records)
	if errors.Is(err, history.ErrNoFailures) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	writeTable(c, table, "failed-"+string(run.Kind), c.Query("format"))
}

func (h *RunHandler) find(c *gin.Context) (*models.PublishRun, bool) {
	run, err := h.runs.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch run"})
		return nil, false
	}
	return run, true
}
