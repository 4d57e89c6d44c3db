// Package server provides the HTTP server for the fall-detection service.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rohanpai/fallwatch/internal/server/api"
	"github.com/rohanpai/fallwatch/internal/store"
	"github.com/rohanpai/fallwatch/internal/stream"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Adapter   *stream.Adapter
	Hub       *EventsHub
}

// Server represents the HTTP server for the fall-detection service.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		cameraHandler := api.NewCameraHandler(s.config.Store)
		s.mux.Handle("/api/cameras", cameraHandler)
		s.mux.Handle("/api/cameras/", cameraHandler)

		s.mux.Handle("/api/stats", api.NewStatsHandler(s.config.Store))
	}

	// Event routes: the WebSocket feed hangs off the events path, so route
	// between the hub and the REST handler here.
	if s.config.Store != nil {
		eventHandler := api.NewEventHandler(s.config.Store)

		eventRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/ws") && s.config.Hub != nil {
				s.config.Hub.ServeHTTP(w, r)
				return
			}
			eventHandler.ServeHTTP(w, r)
		})

		s.mux.Handle("/api/events", eventRouter)
		s.mux.Handle("/api/events/", eventRouter)
	}

	// Streaming and single-frame inference need both the store (camera
	// lookup) and the adapter.
	if s.config.Store != nil && s.config.Adapter != nil {
		s.mux.Handle("/api/stream/", NewStreamHandler(s.config.Store, s.config.Adapter))
		s.mux.Handle("/api/infer/", NewInferHandler(s.config.Store, s.config.Adapter))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
