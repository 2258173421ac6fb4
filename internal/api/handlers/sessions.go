package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hydrogen-admin/internal/csvio"
	"hydrogen-admin/internal/events"
	"hydrogen-admin/internal/logger"
	"hydrogen-admin/internal/stash"
	"hydrogen-admin/internal/stream"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const keepAlive = 15 * time.Second

// PayloadStash holds start payloads until a session takes them.
type PayloadStash interface {
	Put(ctx context.Context, key string, payload interface{}) error
	Take(ctx context.Context, key string) (json.RawMessage, error)
}

type SessionHandler struct {
	hub    *stream.Hub
	stash  PayloadStash
	logger *logger.Logger
}

func NewSessionHandler(hub *stream.Hub, stash PayloadStash, logger *logger.Logger) *SessionHandler {
	return &SessionHandler{hub: hub, stash: stash, logger: logger}
}

// StashPayload handles POST /api/v1/publish/payloads.
func (h *SessionHandler) StashPayload(c *gin.Context) {
	if h.stash == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payload stash is not available"})
		return
	}

	var payload events.StartPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(payload.Publications) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": events.MsgNoPublications})
		return
	}
	if err := events.CheckPublications(payload.Publications); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := uuid.NewString()
	if err := h.stash.Put(c.Request.Context(), key, payload); err != nil {
		h.logger.Error("Failed to stash payload: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store payload"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": key})
}

type openSessionRequest struct {
	Mode         events.Mode             `json:"mode" binding:"required"`
	StoreName    string                  `json:"storeName"`
	StoreID      string                  `json:"storeId"`
	PayloadKey   string                  `json:"payloadKey"`
	Publications []events.PublicationRef `json:"publications"`
}

// Open handles POST /api/v1/publish/sessions for chained and products mode.
// Products mode takes its start payload from the stash or from inline
// publications. A products session without either still opens and reports
// the missing publications in its state.
func (h *SessionHandler) Open(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Mode != events.ModeChained && req.Mode != events.ModeProducts {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported mode %q", req.Mode)})
		return
	}
	if strings.TrimSpace(req.StoreName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please select a store (theme) before proceeding."})
		return
	}
	if err := events.CheckPublications(req.Publications); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var start json.RawMessage
	if req.Mode == events.ModeProducts {
		var err error
		start, err = h.startPayload(ctx, req)
		if errors.Is(err, stash.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Stashed payload not found or expired"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	session, err := h.hub.Open(ctx, req.Mode, req.StoreName, req.StoreID, start)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"sessionId": session.ID, "state": session.Snapshot()}})
}

func (h *SessionHandler) startPayload(ctx context.Context, req openSessionRequest) (json.RawMessage, error) {
	if req.PayloadKey != "" {
		if h.stash == nil {
			return nil, errors.New("payload stash is not available")
		}
		return h.stash.Take(ctx, req.PayloadKey)
	}
	if len(req.Publications) == 0 {
		return nil, nil
	}
	return json.Marshal(events.StartPayload{StoreName: req.StoreName, StoreID: req.StoreID, Publications: req.Publications})
}

func (h *SessionHandler) find(c *gin.Context) (*stream.Session, bool) {
	session, err := h.hub.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, false
	}
	return session, true
}

func (h *SessionHandler) Get(c *gin.Context) {
	session, ok := h.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": session.Snapshot()})
}

// Events relays a session as server-sent events. The first event is the
// current state; the stream ends when the session is done or the client
// goes away.
func (h *SessionHandler) Events(c *gin.Context) {
	session, ok := h.find(c)
	if !ok {
		return
	}

	updates, release := session.Subscribe(32)
	defer release()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	state := session.Snapshot()
	c.SSEvent("state", state)
	c.Writer.Flush()
	if state.Done() {
		return
	}

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		case update, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent(string(update.Event.Name), update)
			return !update.State.Done()
		}
	})
}

// Failed exports a session's failed records for ?scope=collections|products.
func (h *SessionHandler) Failed(c *gin.Context) {
	session, ok := h.find(c)
	if !ok {
		return
	}

	state := session.Snapshot()
	scope := events.Scope(c.DefaultQuery("scope", string(events.ScopeProducts)))
	var records []events.Record
	switch scope {
	case events.ScopeCollections:
		records = state.Collections.Failed
	case events.ScopeProducts:
		records = state.Products.Failed
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown scope %q", scope)})
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No failed records"})
		return
	}

	table := &csvio.Table{}
	for _, r := range records {
		table.Rows = append(table.Rows, csvio.Row(r.Flat()))
	}
	writeTable(c, table, "failed-"+string(scope), c.Query("format"))
}

func (h *SessionHandler) Close(c *gin.Context) {
	if _, ok := h.find(c); !ok {
		return
	}
	h.hub.Close(c.Param("id"))
	c.Status(http.StatusNoContent)
}
