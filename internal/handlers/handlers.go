package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Billy-Davies-2/lottery-draft/internal/logger"
	"github.com/Billy-Davies-2/lottery-draft/internal/lottery"
	"github.com/Billy-Davies-2/lottery-draft/internal/models"
	"github.com/Billy-Davies-2/lottery-draft/internal/pubsub"
)

// SSEKeepalive is how often an idle event stream gets a comment line
var SSEKeepalive = 30 * time.Second

// APIHandlers contains all API handler methods
type APIHandlers struct {
	engine *lottery.Engine
	pubsub pubsub.Broker
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(engine *lottery.Engine, ps pubsub.Broker) *APIHandlers {
	return &APIHandlers{
		engine: engine,
		pubsub: ps,
	}
}

// Register mounts the draft API and health endpoints on mux
func (h *APIHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/state", h.GetState)
	mux.HandleFunc("/api/generate-pick", h.GeneratePick)
	mux.HandleFunc("/api/update-team-name", h.UpdateTeamName)
	mux.HandleFunc("/api/reset-draft", h.ResetDraft)

	// SSE for realtime updates
	mux.HandleFunc("/api/events", h.EventsSSE)

	// Health check endpoints
	mux.HandleFunc("/api/health", h.Health)
	mux.HandleFunc("/healthz", h.Liveness) // Kubernetes liveness probe
	mux.HandleFunc("/readyz", h.Readiness) // Kubernetes readiness probe
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// GetState returns the current draft state
func (h *APIHandlers) GetState(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	logger.Debug("Getting draft state")
	writeJSON(w, http.StatusOK, h.engine.State())
}

// GeneratePick draws the next team
func (h *APIHandlers) GeneratePick(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	result, err := h.engine.DrawPick()
	if err != nil {
		if lottery.IsRejection(err) {
			logger.Info("Pick rejected", "reason", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":  "Draft is complete or no teams available",
				"reason": err.Error(),
			})
			return
		}
		logger.Error("Failed to generate pick", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.pubsub.Publish(pubsub.PickEvent(result))
	writeJSON(w, http.StatusOK, result)
}

type updateTeamNameRequest struct {
	OriginalName *string `json:"original_name"`
	NewName      *string `json:"new_name"`
}

// UpdateTeamName changes the display name of the team with the given
// original (identity) name
func (h *APIHandlers) UpdateTeamName(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req updateTeamNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode update team name request", "error", err)
		writeError(w, http.StatusBadRequest, "Missing original_name or new_name")
		return
	}
	if req.OriginalName == nil || req.NewName == nil {
		writeError(w, http.StatusBadRequest, "Missing original_name or new_name")
		return
	}

	key := models.TeamKey(*req.OriginalName)
	if err := h.engine.Rename(key, *req.NewName); err != nil {
		switch {
		case errors.Is(err, lottery.ErrTeamNotFound):
			writeError(w, http.StatusNotFound, "Team not found")
		case errors.Is(err, lottery.ErrInvalidName):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			logger.Error("Failed to rename team", "error", err, "original_name", key)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	state := h.engine.State()
	h.pubsub.Publish(pubsub.RenameEvent(key, *req.NewName))

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"state":   state,
	})
}

// ResetDraft reloads the team list and clears the draft order
func (h *APIHandlers) ResetDraft(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	logger.Info("Resetting draft")
	state := h.engine.Reset(r.Context())

	h.pubsub.Publish(pubsub.ResetEvent(state))
	writeJSON(w, http.StatusOK, state)
}

// EventsSSE provides Server-Sent Events for realtime updates
func (h *APIHandlers) EventsSSE(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	eventChan := h.pubsub.Subscribe()
	defer h.pubsub.Unsubscribe(eventChan)

	fmt.Fprintf(w, "data: {\"type\":\"connected\"}\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(SSEKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				logger.Warn("Failed to marshal SSE event", "error", err, "type", event.Type)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-r.Context().Done():
			logger.Debug("SSE client disconnected")
			return
		case <-keepalive.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}
