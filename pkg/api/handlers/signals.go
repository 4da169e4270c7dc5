// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/newswire/newswire/pkg/api/middleware"
	"github.com/newswire/newswire/pkg/api/models"
	"github.com/newswire/newswire/pkg/api/response"
	"github.com/newswire/newswire/pkg/controller"
	"github.com/newswire/newswire/pkg/feed"
	"github.com/newswire/newswire/pkg/logger"
	"github.com/newswire/newswire/pkg/queue"
	"github.com/newswire/newswire/pkg/receiver"
)

// maxSignalBody bounds the inbound signal payload size.
const maxSignalBody = 1 << 20 // 1MB

// Pipeline is the controller surface the HTTP API depends on.
type Pipeline interface {
	Submit(ctx context.Context, env *feed.Envelope) error
	Received() uint64
	Processed() uint64
	Recent() []*feed.EnrichedRecord
	QueueDepth() int
	QueueCap() int
	State() controller.State
	EffectiveID() string
}

// SignalHandler handles signal ingestion and pipeline introspection endpoints.
type SignalHandler struct {
	pipeline Pipeline
	logger   logger.Logger
}

// NewSignalHandler creates a new signal handler.
func NewSignalHandler(p Pipeline, log logger.Logger) *SignalHandler {
	return &SignalHandler{
		pipeline: p,
		logger:   log,
	}
}

// Submit handles POST /api/v1/signals.
//
// The body is one signal envelope. Accepted signals get a 202; malformed
// envelopes a 400, duplicates a 409, a full queue a 429, and a pipeline
// that is shutting down a 503.
func (h *SignalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxSignalBody))
	if err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Failed to read request body", getRequestID(ctx))
		return
	}

	env, err := feed.ParseEnvelope(body, time.Now())
	if err != nil {
		h.logger.Warn("rejected malformed signal", "error", err)
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), getRequestID(ctx))
		return
	}

	if err := h.pipeline.Submit(ctx, env); err != nil {
		h.writeSubmitError(ctx, w, env.ID, err)
		return
	}

	response.JSON(w, http.StatusAccepted, models.SignalAcceptedResponse{
		ID:     env.ID,
		Status: "accepted",
	})
}

// writeSubmitError maps pipeline rejections to HTTP statuses.
func (h *SignalHandler) writeSubmitError(ctx context.Context, w http.ResponseWriter, id string, err error) {
	requestID := getRequestID(ctx)

	switch {
	case feed.IsValidationError(err):
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), requestID)
	case queue.IsDuplicateError(err):
		response.Error(w, http.StatusConflict, response.ErrCodeConflict, err.Error(), requestID)
	case queue.IsQueueFullError(err):
		response.Error(w, http.StatusTooManyRequests, response.ErrCodeTooManyRequests, err.Error(), requestID)
	case receiver.IsShuttingDownError(err), queue.IsQueueClosedError(err):
		response.Error(w, http.StatusServiceUnavailable, response.ErrCodeServiceUnavailable, err.Error(), requestID)
	default:
		h.logger.Error("signal submission failed", "signal_id", id, "error", err)
		response.Error(w, http.StatusInternalServerError, response.ErrCodeInternalServer, "Failed to submit signal", requestID)
	}
}

// Recent handles GET /api/v1/signals/recent.
func (h *SignalHandler) Recent(w http.ResponseWriter, r *http.Request) {
	records := h.pipeline.Recent()
	if records == nil {
		records = []*feed.EnrichedRecord{}
	}

	response.JSON(w, http.StatusOK, models.RecentRecordsResponse{
		Count:   len(records),
		Records: records,
	})
}

// Stats handles GET /api/v1/stats.
func (h *SignalHandler) Stats(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, models.StatsResponse{
		State:         h.pipeline.State().String(),
		InstanceID:    h.pipeline.EffectiveID(),
		Received:      h.pipeline.Received(),
		Processed:     h.pipeline.Processed(),
		QueueDepth:    h.pipeline.QueueDepth(),
		QueueCapacity: h.pipeline.QueueCap(),
	})
}

// getRequestID extracts the request ID from the request context.
func getRequestID(ctx context.Context) string {
	return middleware.GetRequestID(ctx)
}
