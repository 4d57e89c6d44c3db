// Package app wires the fall-detection pipeline together: capture registry,
// detector and pose estimator selection, per-camera pipelines, event
// persistence, and alert fan-out.
package app

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rohanpai/fallwatch/internal/capture"
	"github.com/rohanpai/fallwatch/internal/detector"
	"github.com/rohanpai/fallwatch/internal/notify"
	"github.com/rohanpai/fallwatch/internal/pipeline"
	"github.com/rohanpai/fallwatch/internal/pose"
	"github.com/rohanpai/fallwatch/internal/store"
	"github.com/rohanpai/fallwatch/internal/stream"
	"gocv.io/x/gocv"
)

// Config holds configuration options for the application.
type Config struct {
	Store          *store.Store
	DetectorConfig detector.Config
	PipelineConfig pipeline.Config
	// SnapshotDir is where event snapshot JPEGs are written.
	SnapshotDir string
	// WebhookURL, when set, receives a POST for every persisted event.
	WebhookURL string
}

// App is the main application that orchestrates frame processing and fall
// event handling.
type App struct {
	config    Config
	store     *store.Store
	registry  *capture.Registry
	adapter   *stream.Adapter
	detector  detector.Detector
	estimator pose.Estimator
	notifier  *notify.WebhookNotifier

	mu        sync.Mutex
	pipelines map[string]*pipeline.Pipeline
	onEvent   func(*store.FallEvent)
}

// New creates a new App instance with the given configuration.
// It loads the real detection model when the artifact is available and
// otherwise degrades to the motion-differencing detector.
func New(config Config) *App {
	a := &App{
		config:    config,
		store:     config.Store,
		registry:  capture.NewRegistry(),
		estimator: pose.NewHeuristicEstimator(),
		pipelines: make(map[string]*pipeline.Pipeline),
	}

	// Try the YOLO model first, fall back to degraded detection
	if yolo, err := detector.NewYOLODetector(config.DetectorConfig); err == nil {
		a.detector = yolo
		log.Println("Using YOLO person detection")
	} else {
		log.Printf("Detection model not available (%v), using degraded detector", err)
		a.detector = detector.NewDegradedDetector()
	}

	if config.WebhookURL != "" {
		a.notifier = notify.NewWebhookNotifier(config.WebhookURL)
	}

	a.adapter = stream.New(stream.Config{
		Registry:    a.registry,
		PipelineFor: a.PipelineFor,
		Sink:        a.handleResult,
	})

	return a
}

// Adapter returns the stream adapter.
func (a *App) Adapter() *stream.Adapter {
	return a.adapter
}

// Registry returns the capture registry.
func (a *App) Registry() *capture.Registry {
	return a.registry
}

// Detector returns the active person detector.
func (a *App) Detector() detector.Detector {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.detector
}

// SetDetector replaces the person detector, closing the previous one.
// Existing per-camera pipelines are discarded so the next frame picks up
// the new detector.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.detector != nil && a.detector != d {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}
	a.detector = d
	a.pipelines = make(map[string]*pipeline.Pipeline)
}

// SetEstimator replaces the pose estimator, closing the previous one and
// discarding existing pipelines.
func (a *App) SetEstimator(e pose.Estimator) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.estimator != nil && a.estimator != e {
		if err := a.estimator.Close(); err != nil {
			log.Printf("Error closing estimator: %v", err)
		}
	}
	a.estimator = e
	a.pipelines = make(map[string]*pipeline.Pipeline)
}

// SetEventCallback registers a function invoked for every persisted fall
// event, after the event is stored.
func (a *App) SetEventCallback(fn func(*store.FallEvent)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onEvent = fn
}

// PipelineFor returns the processing pipeline for a camera, creating it on
// first use. Each camera gets its own pipeline so frame processing stays
// in-order and non-overlapping per stream.
func (a *App) PipelineFor(cameraID string) *pipeline.Pipeline {
	a.mu.Lock()
	defer a.mu.Unlock()

	if p, ok := a.pipelines[cameraID]; ok {
		return p
	}

	p := pipeline.New(a.detector, a.estimator, a.config.PipelineConfig)
	a.pipelines[cameraID] = p
	return p
}

// handleResult is the stream adapter sink: it persists confirmed falls,
// writes the annotated snapshot, and fans the event out to the callback
// and webhook.
func (a *App) handleResult(cameraID string, result pipeline.FrameResult, annotated *gocv.Mat) {
	if !result.FallDetected || result.Event == nil {
		return
	}

	details, err := json.Marshal(result.Event)
	if err != nil {
		log.Printf("camera %s: failed to encode event details: %v", cameraID, err)
		details = []byte("{}")
	}

	event := &store.FallEvent{
		ID:         uuid.New().String(),
		CameraID:   cameraID,
		Timestamp:  result.Timestamp,
		Confidence: result.Event.Confidence,
		Severity:   store.SeverityForConfidence(result.Event.Confidence),
		Status:     store.EventNew,
		Details:    string(details),
	}

	if path := a.writeSnapshot(event.ID, annotated); path != "" {
		event.SnapshotPath = path
	}

	if a.store != nil {
		if err := a.store.Events().Create(event); err != nil {
			log.Printf("camera %s: failed to persist fall event: %v", cameraID, err)
			return
		}
	}

	log.Printf("Fall detected on camera %s (confidence %.2f, severity %s)",
		cameraID, event.Confidence, event.Severity)

	a.mu.Lock()
	callback := a.onEvent
	a.mu.Unlock()
	if callback != nil {
		callback(event)
	}

	if a.notifier != nil {
		// Alert delivery is best-effort and must not stall the frame loop.
		go func(e *store.FallEvent) {
			if err := a.notifier.Notify(e); err != nil {
				log.Printf("Failed to deliver webhook for event %s: %v", e.ID, err)
			}
		}(event)
	}
}

// writeSnapshot saves the annotated frame that triggered an event. Returns
// the written path, or empty when snapshots are disabled or writing fails.
func (a *App) writeSnapshot(eventID string, frame *gocv.Mat) string {
	if a.config.SnapshotDir == "" || frame == nil || frame.Empty() {
		return ""
	}

	if err := os.MkdirAll(a.config.SnapshotDir, 0755); err != nil {
		log.Printf("Failed to create snapshot directory: %v", err)
		return ""
	}

	path := filepath.Join(a.config.SnapshotDir, eventID+".jpg")
	if ok := gocv.IMWrite(path, *frame); !ok {
		log.Printf("Failed to write snapshot %s", path)
		return ""
	}

	return path
}

// Close releases all capture handles and model resources.
func (a *App) Close() {
	a.registry.ReleaseAll()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}
	if a.estimator != nil {
		if err := a.estimator.Close(); err != nil {
			log.Printf("Error closing estimator: %v", err)
		}
	}
}
