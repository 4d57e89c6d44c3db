package api

import (
	"net/http"
	"time"

	"github.com/rohanpai/fallwatch/internal/store"
)

// StatsHandler reports aggregate counts for the dashboard.
type StatsHandler struct {
	store *store.Store
}

// NewStatsHandler creates a new StatsHandler with the given store.
func NewStatsHandler(s *store.Store) *StatsHandler {
	return &StatsHandler{store: s}
}

type statsResponse struct {
	TotalEvents    int `json:"total_events"`
	ActiveCameras  int `json:"active_cameras"`
	RecentFalls24h int `json:"recent_falls_24h"`
}

// ServeHTTP handles GET /api/stats.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	total, err := h.store.Events().Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count events")
		return
	}

	active, err := h.store.Cameras().CountByStatus(store.CameraActive)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count cameras")
		return
	}

	recent, err := h.store.Events().CountSince(time.Now().Add(-24 * time.Hour))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count recent events")
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalEvents:    total,
		ActiveCameras:  active,
		RecentFalls24h: recent,
	})
}
