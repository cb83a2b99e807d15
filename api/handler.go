package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"waras/internal/extraction"
	"waras/internal/sales"
)

// SessionHeader identifies the capture session a submission belongs to.
const SessionHeader = "X-Session-ID"

// salesHandler holds the sales service and implements HTTP handlers for sales operations.
type salesHandler struct {
	salesService *sales.Service
	logger       *zap.Logger
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(salesService *sales.Service, logger *zap.Logger) *salesHandler {
	return &salesHandler{
		salesService: salesService,
		logger:       logger,
	}
}

type transcriptRequest struct {
	Transcript string `json:"transcript" binding:"required"`
}

type itemsRequest struct {
	Items []sales.RawItem `json:"items" binding:"required"`
}

// handleProcessTranscript handles POST /transcripts: extract, commit and store.
func (h *salesHandler) handleProcessTranscript(ctx *gin.Context) {
	var req transcriptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	result, err := h.salesService.ProcessTranscript(ctx.Request.Context(), ctx.GetHeader(SessionHeader), req.Transcript)
	if err != nil {
		h.writeError(ctx, err, result.Discarded)
		return
	}

	ctx.JSON(http.StatusCreated, result)
}

// handleExtract handles POST /transcripts/extract: a preview without saving.
func (h *salesHandler) handleExtract(ctx *gin.Context) {
	var req transcriptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	items, err := h.salesService.Extract(ctx.Request.Context(), ctx.GetHeader(SessionHeader), req.Transcript)
	if err != nil {
		h.writeError(ctx, err, nil)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items})
}

// handleCreateSale handles POST /sales with manually entered items.
func (h *salesHandler) handleCreateSale(ctx *gin.Context) {
	var req itemsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	result, err := h.salesService.CommitItems(ctx.Request.Context(), req.Items)
	if err != nil {
		h.writeError(ctx, err, result.Discarded)
		return
	}

	ctx.JSON(http.StatusCreated, result)
}

// handleGetSales handles GET /sales?from=&to=.
func (h *salesHandler) handleGetSales(ctx *gin.Context) {
	from, err := parseTimeParam(ctx.Query("from"), false)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' value"})
		return
	}
	to, err := parseTimeParam(ctx.Query("to"), true)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'to' value"})
		return
	}

	result, err := h.salesService.History(ctx.Request.Context(), sales.HistoryFilter{From: from, To: to})
	if err != nil {
		h.writeError(ctx, err, nil)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// handleGetSale handles GET /sales/:id.
func (h *salesHandler) handleGetSale(ctx *gin.Context) {
	record, err := h.salesService.GetRecord(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.writeError(ctx, err, nil)
		return
	}

	ctx.JSON(http.StatusOK, record)
}

// handleClearSales handles DELETE /sales.
func (h *salesHandler) handleClearSales(ctx *gin.Context) {
	if err := h.salesService.ClearHistory(ctx.Request.Context()); err != nil {
		h.writeError(ctx, err, nil)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *salesHandler) writeError(ctx *gin.Context, err error, discarded []sales.Discard) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}
	if status == http.StatusInternalServerError {
		body["error"] = "internal error"
		if errors.Is(err, sales.ErrWriteFailed) {
			body["error"] = "failed to save sales record"
		}
	}
	if errors.Is(err, sales.ErrUnavailable) {
		body["error"] = sales.ErrUnavailable.Error()
	}
	if len(discarded) > 0 {
		body["discarded"] = discarded
	}
	ctx.JSON(status, body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, extraction.ErrEmptyTranscript):
		return http.StatusBadRequest
	case errors.Is(err, extraction.ErrMissingCredential):
		return http.StatusServiceUnavailable
	case errors.Is(err, extraction.ErrTransport), errors.Is(err, extraction.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, sales.ErrSubmissionInProgress):
		return http.StatusConflict
	case errors.Is(err, sales.ErrEmptyBatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, sales.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sales.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parseTimeParam accepts RFC 3339 or a plain date. A plain date used as an
// upper bound covers the whole day.
func parseTimeParam(v string, endOfDay bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
