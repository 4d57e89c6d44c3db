// Package api provides HTTP API handlers for the fall-detection service.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rohanpai/fallwatch/internal/capture"
	"github.com/rohanpai/fallwatch/internal/store"
)

// CameraHandler handles HTTP requests for camera resources.
type CameraHandler struct {
	store *store.Store
	// discover probes for local webcams; swappable in tests.
	discover func() []capture.DiscoveredDevice
}

// NewCameraHandler creates a new CameraHandler with the given store.
func NewCameraHandler(s *store.Store) *CameraHandler {
	return &CameraHandler{
		store:    s,
		discover: capture.DiscoverDevices,
	}
}

// SetDiscoverFunc overrides the webcam probe, for tests.
func (h *CameraHandler) SetDiscoverFunc(fn func() []capture.DiscoveredDevice) {
	h.discover = fn
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *CameraHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/cameras, /api/cameras/discover, /api/cameras/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/cameras")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		// Collection endpoint: /api/cameras
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if path == "discover" {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.discoverWebcams(w, r)
		return
	}

	// Item endpoint: /api/cameras/{id}
	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type createCameraRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	URL      string `json:"url"`
	FPS      int    `json:"fps"`
}

type updateCameraRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	URL      string `json:"url"`
	Status   string `json:"status"`
	FPS      int    `json:"fps"`
}

type cameraResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location"`
	URL       string `json:"url"`
	Status    string `json:"status"`
	FPS       int    `json:"fps"`
	CreatedAt string `json:"created_at"`
}

type listCamerasResponse struct {
	Cameras []cameraResponse `json:"cameras"`
}

type discoverResponse struct {
	Available  int      `json:"available"`
	Registered []string `json:"registered"`
	Message    string   `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toCameraResponse converts a store.Camera to a cameraResponse.
func toCameraResponse(c *store.Camera) cameraResponse {
	return cameraResponse{
		ID:        c.ID,
		Name:      c.Name,
		Location:  c.Location,
		URL:       c.URL,
		Status:    string(c.Status),
		FPS:       c.FPS,
		CreatedAt: c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func (h *CameraHandler) list(w http.ResponseWriter, r *http.Request) {
	cameras, err := h.store.Cameras().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list cameras")
		return
	}

	response := listCamerasResponse{Cameras: make([]cameraResponse, 0, len(cameras))}
	for _, c := range cameras {
		response.Cameras = append(response.Cameras, toCameraResponse(c))
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *CameraHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createCameraRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	camera := &store.Camera{
		ID:       uuid.New().String(),
		Name:     req.Name,
		Location: req.Location,
		URL:      req.URL,
		Status:   store.CameraActive,
		FPS:      req.FPS,
	}

	if err := h.store.Cameras().Create(camera); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create camera")
		return
	}

	writeJSON(w, http.StatusCreated, toCameraResponse(camera))
}

func (h *CameraHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	camera, err := h.store.Cameras().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Camera not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get camera")
		return
	}

	writeJSON(w, http.StatusOK, toCameraResponse(camera))
}

func (h *CameraHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	camera, err := h.store.Cameras().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Camera not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get camera")
		return
	}

	var req updateCameraRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name != "" {
		camera.Name = req.Name
	}
	if req.Location != "" {
		camera.Location = req.Location
	}
	if req.URL != "" {
		camera.URL = req.URL
	}
	if req.Status != "" {
		camera.Status = store.CameraStatus(req.Status)
	}
	if req.FPS > 0 {
		camera.FPS = req.FPS
	}

	if err := h.store.Cameras().Update(camera); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update camera")
		return
	}

	writeJSON(w, http.StatusOK, toCameraResponse(camera))
}

func (h *CameraHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Cameras().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Camera not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete camera")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// discoverWebcams probes locally attached devices and registers any that
// are not already present.
func (h *CameraHandler) discoverWebcams(w http.ResponseWriter, r *http.Request) {
	devices := h.discover()
	if len(devices) == 0 {
		writeError(w, http.StatusNotFound, "No webcams detected")
		return
	}

	var registered []string
	for _, device := range devices {
		if _, err := h.store.Cameras().GetByURL(device.Source); err == nil {
			continue // already registered
		}

		camera := &store.Camera{
			ID:       uuid.New().String(),
			Name:     device.Name,
			Location: "Local Device",
			URL:      device.Source,
			Status:   store.CameraActive,
		}
		if err := h.store.Cameras().Create(camera); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to register camera")
			return
		}
		registered = append(registered, device.Name)
	}

	message := fmt.Sprintf("Detected %d webcam(s).", len(devices))
	if len(registered) > 0 {
		message += " Registered: " + strings.Join(registered, ", ")
	} else {
		message += " Already registered"
	}

	writeJSON(w, http.StatusCreated, discoverResponse{
		Available:  len(devices),
		Registered: registered,
		Message:    message,
	})
}
