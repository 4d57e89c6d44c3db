package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rohanpai/fallwatch/internal/store"
	"github.com/rohanpai/fallwatch/internal/stream"
)

// InferHandler processes a single frame from a camera through the pipeline
// and returns the structured result. Confirmed falls are persisted through
// the adapter's sink as with streaming.
type InferHandler struct {
	store   *store.Store
	adapter *stream.Adapter
}

// NewInferHandler creates a new InferHandler.
func NewInferHandler(st *store.Store, adapter *stream.Adapter) *InferHandler {
	return &InferHandler{store: st, adapter: adapter}
}

// ServeHTTP handles POST /api/infer/{cameraID}.
func (h *InferHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cameraID := strings.TrimPrefix(r.URL.Path, "/api/infer/")
	if cameraID == "" || strings.Contains(cameraID, "/") {
		http.Error(w, "Camera not found", http.StatusNotFound)
		return
	}

	camera, err := h.store.Cameras().GetByID(cameraID)
	if err != nil {
		http.Error(w, "Camera not found", http.StatusNotFound)
		return
	}
	if camera.URL == "" {
		http.Error(w, "Camera URL not configured", http.StatusBadRequest)
		return
	}

	result, err := h.adapter.ProcessOnce(cameraID, camera.URL)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
