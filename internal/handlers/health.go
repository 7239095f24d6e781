package handlers

import (
	"net/http"
	"time"
)

// Health reports the engine and the points integrity check. A failed
// integrity check reports degraded with a 200.
func (h *APIHandlers) Health(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	state := h.engine.State()
	status := "healthy"
	integrity := map[string]any{
		"status":   "ok",
		"sum":      state.Integrity.Sum,
		"expected": state.Integrity.Expected,
	}
	if !state.Integrity.OK {
		status = "degraded"
		integrity["status"] = "mismatch"
		integrity["warning"] = state.Integrity.Warning
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"message": "Backend is running",
		"checks": map[string]any{
			"engine": map[string]any{
				"status":      "healthy",
				"teams":       len(state.Teams),
				"pick_number": state.PickNumber,
				"is_complete": state.IsComplete,
			},
			"integrity": integrity,
		},
		"timestamp": time.Now().Unix(),
	})
}

// Liveness handles Kubernetes liveness probes
func (h *APIHandlers) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "alive",
		"timestamp": time.Now().Unix(),
	})
}

// Readiness handles Kubernetes readiness probes. The service is ready once
// a team list has been loaded.
func (h *APIHandlers) Readiness(w http.ResponseWriter, r *http.Request) {
	state := h.engine.State()
	if len(state.Teams)+len(state.DraftOrder) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"reason": "no teams loaded",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"timestamp": time.Now().Unix(),
	})
}
