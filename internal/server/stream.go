package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/rohanpai/fallwatch/internal/store"
	"github.com/rohanpai/fallwatch/internal/stream"
)

// StreamHandler serves annotated MJPEG frames for a camera.
type StreamHandler struct {
	store   *store.Store
	adapter *stream.Adapter
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(st *store.Store, adapter *stream.Adapter) *StreamHandler {
	return &StreamHandler{store: st, adapter: adapter}
}

// ServeHTTP streams MJPEG frames with detection overlays to the client.
// When the camera becomes unavailable the stream keeps yielding a
// placeholder frame instead of terminating, so the consumer sees an
// explicit "camera unavailable" picture rather than a broken connection.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cameraID := strings.TrimPrefix(r.URL.Path, "/api/stream/")
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

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	interval := h.adapter.FrameInterval()
	healthy := false

	for {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		var encoded []byte

		frame, _, err := h.adapter.ProcessNext(cameraID, camera.URL)
		if err != nil {
			if healthy {
				healthy = false
				h.store.Cameras().SetStatus(cameraID, store.CameraError)
				log.Printf("camera %s: %v", cameraID, err)
			}
			placeholder := stream.ErrorFrame()
			encoded, err = h.adapter.Encode(&placeholder)
			placeholder.Close()
			if err != nil {
				time.Sleep(interval)
				continue
			}
		} else {
			if !healthy {
				healthy = true
				h.store.Cameras().SetStatus(cameraID, store.CameraActive)
			}
			encoded, err = h.adapter.Encode(frame)
			frame.Close()
			if err != nil {
				time.Sleep(interval)
				continue
			}
		}

		if err := writeMJPEGPart(w, encoded); err != nil {
			return
		}

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		time.Sleep(interval) // ~30 FPS pacing
	}
}

// writeMJPEGPart writes one multipart frame in MJPEG framing.
func writeMJPEGPart(w http.ResponseWriter, data []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\r\n")
	return err
}
