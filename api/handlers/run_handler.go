package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/ytb/internal/app"
	"github.com/yourusername/ytb/internal/domain"
)

// RunHandler handles run-related HTTP requests
type RunHandler struct {
	queueMgr *app.QueueManager
	runMgr   *app.RunManager
	logger   *zap.Logger
}

// NewRunHandler creates a new run handler
func NewRunHandler(queueMgr *app.QueueManager, runMgr *app.RunManager, logger *zap.Logger) *RunHandler {
	return &RunHandler{
		queueMgr: queueMgr,
		runMgr:   runMgr,
		logger:   logger,
	}
}

// CreateRunRequest represents a request to queue a run
type CreateRunRequest struct {
	URL     string `json:"url" binding:"required"`
	Action  string `json:"action,omitempty"` // check or download, default download
	Format  string `json:"format,omitempty"` // audio or video, default video
	Convert bool   `json:"convert,omitempty"`
}

// CreateRun handles POST /api/v1/runs
func (h *RunHandler) CreateRun(c *gin.Context) {
	var req CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action := domain.Action(req.Action)
	if action == "" {
		action = domain.ActionDownload
	}
	kind := domain.MediaKind(req.Format)
	if kind == "" {
		kind = domain.KindVideo
	}

	run, err := h.queueMgr.Enqueue(domain.Request{
		Action:  action,
		Kind:    kind,
		Convert: req.Convert,
		URL:     req.URL,
	})
	if err != nil {
		h.respondError(c, "Failed to queue run", err)
		return
	}

	c.JSON(http.StatusCreated, run)
}

// GetRun handles GET /api/v1/runs/:id
func (h *RunHandler) GetRun(c *gin.Context) {
	run, err := h.queueMgr.GetRun(c.Param("id"))
	if err != nil {
		h.respondError(c, "Failed to get run", err)
		return
	}

	c.JSON(http.StatusOK, run)
}

// ListRuns handles GET /api/v1/runs
func (h *RunHandler) ListRuns(c *gin.Context) {
	filters := make(map[string]interface{})

	if status := c.Query("status"); status != "" {
		if !domain.ValidateStatus(domain.RunStatus(status)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		filters["status"] = status
	}
	if kind := c.Query("format"); kind != "" {
		filters["kind"] = kind
	}
	if action := c.Query("action"); action != "" {
		filters["action"] = action
	}

	runs, err := h.queueMgr.ListRuns(filters)
	if err != nil {
		h.respondError(c, "Failed to list runs", err)
		return
	}

	c.JSON(http.StatusOK, runs)
}

// GetStats handles GET /api/v1/runs/stats
func (h *RunHandler) GetStats(c *gin.Context) {
	stats, err := h.queueMgr.GetStats()
	if err != nil {
		h.respondError(c, "Failed to get stats", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// CancelRun handles POST /api/v1/runs/:id/cancel
func (h *RunHandler) CancelRun(c *gin.Context) {
	id := c.Param("id")

	if err := h.runMgr.Cancel(id); err != nil {
		h.respondError(c, "Failed to cancel run", err, zap.String("id", id))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "run cancelled"})
}

// DeleteRun handles DELETE /api/v1/runs/:id
func (h *RunHandler) DeleteRun(c *gin.Context) {
	id := c.Param("id")

	if err := h.runMgr.Delete(id); err != nil {
		h.respondError(c, "Failed to delete run", err, zap.String("id", id))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "run deleted"})
}

func (h *RunHandler) respondError(c *gin.Context, msg string, err error, fields ...zap.Field) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, append(fields, zap.Error(err))...)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// errorStatus maps domain errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
