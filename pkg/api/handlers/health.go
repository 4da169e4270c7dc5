package handlers

import (
	"net/http"

	"github.com/newswire/newswire/pkg/api/response"
	"github.com/newswire/newswire/pkg/controller"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	pipeline Pipeline
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(p Pipeline) *HealthHandler {
	return &HealthHandler{
		pipeline: p,
	}
}

// Health handles the /health endpoint (liveness probe).
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Ready handles the /ready endpoint (readiness probe). The pipeline is
// ready once the consumer loop is running.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.pipeline.State() == controller.StateRunning {
		response.JSON(w, http.StatusOK, map[string]bool{
			"ready": true,
		})
	} else {
		response.JSON(w, http.StatusServiceUnavailable, map[string]bool{
			"ready": false,
		})
	}
}

// Status handles the /status endpoint (detailed status).
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"state":       h.pipeline.State().String(),
		"instance_id": h.pipeline.EffectiveID(),
		"received":    h.pipeline.Received(),
		"processed":   h.pipeline.Processed(),
		"queue_depth": h.pipeline.QueueDepth(),
	})
}
