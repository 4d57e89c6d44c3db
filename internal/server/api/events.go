package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rohanpai/fallwatch/internal/store"
)

// defaultEventLimit caps event listings.
const defaultEventLimit = 50

// EventHandler handles HTTP requests for fall event resources.
type EventHandler struct {
	store *store.Store
}

// NewEventHandler creates a new EventHandler with the given store.
func NewEventHandler(s *store.Store) *EventHandler {
	return &EventHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *EventHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/events, /api/events/{id},
	// /api/events/{id}/acknowledge, /api/events/{id}/false-alarm
	path := strings.TrimPrefix(r.URL.Path, "/api/events")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	if id, ok := strings.CutSuffix(path, "/acknowledge"); ok {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.setStatus(w, r, id, store.EventAcknowledged)
		return
	}

	if id, ok := strings.CutSuffix(path, "/false-alarm"); ok {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.setStatus(w, r, id, store.EventFalseAlarm)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.get(w, r, path)
}

type eventResponse struct {
	ID           string          `json:"id"`
	CameraID     string          `json:"camera_id"`
	CameraName   string          `json:"camera_name"`
	Location     string          `json:"location"`
	Timestamp    string          `json:"timestamp"`
	Confidence   float64         `json:"confidence"`
	Severity     string          `json:"severity"`
	Status       string          `json:"status"`
	SnapshotPath string          `json:"snapshot_path,omitempty"`
	Details      json.RawMessage `json:"details"`
}

type listEventsResponse struct {
	Events []eventResponse `json:"events"`
}

// toEventResponse converts a store.FallEvent to an eventResponse,
// resolving the camera name and location when the camera still exists.
func (h *EventHandler) toEventResponse(e *store.FallEvent) eventResponse {
	resp := eventResponse{
		ID:           e.ID,
		CameraID:     e.CameraID,
		CameraName:   "Unknown",
		Location:     "Unknown",
		Timestamp:    e.Timestamp.Format(time.RFC3339),
		Confidence:   e.Confidence,
		Severity:     string(e.Severity),
		Status:       string(e.Status),
		SnapshotPath: e.SnapshotPath,
		Details:      json.RawMessage(e.Details),
	}

	if camera, err := h.store.Cameras().GetByID(e.CameraID); err == nil {
		resp.CameraName = camera.Name
		resp.Location = camera.Location
	}

	return resp
}

func (h *EventHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= defaultEventLimit {
			limit = n
		}
	}

	events, err := h.store.Events().ListRecent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}

	response := listEventsResponse{Events: make([]eventResponse, 0, len(events))}
	for _, e := range events {
		response.Events = append(response.Events, h.toEventResponse(e))
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *EventHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	event, err := h.store.Events().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get event")
		return
	}

	writeJSON(w, http.StatusOK, h.toEventResponse(event))
}

func (h *EventHandler) setStatus(w http.ResponseWriter, r *http.Request, id string, status store.EventStatus) {
	if err := h.store.Events().SetStatus(id, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Event not found")
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	event, err := h.store.Events().GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get event")
		return
	}

	writeJSON(w, http.StatusOK, h.toEventResponse(event))
}
