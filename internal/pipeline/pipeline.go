// Package pipeline drives the per-frame fall-detection cascade: person
// detection, a cheap geometric suspect filter, selective pose estimation,
// and keypoint-based fall confirmation.
package pipeline

import (
	"log"
	"sync"
	"time"

	"github.com/rohanpai/fallwatch/internal/detector"
	"github.com/rohanpai/fallwatch/internal/pose"
	"gocv.io/x/gocv"
)

// DetectionInfo describes one detection's trip through the cascade.
type DetectionInfo struct {
	Detection detector.Detection `json:"detection"`
	IsSuspect bool               `json:"is_suspect"`
	Pose      *pose.Result       `json:"pose,omitempty"`
}

// EventDetails carries the data a caller needs to persist a fall event.
// Confidence is the mean of the detection and pose confidences.
type EventDetails struct {
	Confidence float64              `json:"confidence"`
	Bounds     detector.BoundingBox `json:"bbox"`
	Pose       *pose.Result         `json:"pose"`
}

// FrameResult is the pipeline's output for one processed frame. The caller
// owns it after return; the pipeline holds no reference.
// FallDetected is true if and only if Event is non-nil.
type FrameResult struct {
	CameraID     string          `json:"camera_id"`
	Timestamp    time.Time       `json:"timestamp"`
	Detections   []DetectionInfo `json:"detections"`
	FallDetected bool            `json:"fall_detected"`
	Event        *EventDetails   `json:"event_details,omitempty"`
	// Degraded reports whether the frame was processed without a real
	// detection model.
	Degraded bool `json:"degraded,omitempty"`
}

// Config holds pipeline configuration.
type Config struct {
	// Thresholds are the suspect filter and confirmation constants,
	// calibrated to ReferenceWidth x ReferenceHeight and rescaled per
	// frame at processing time.
	Thresholds Thresholds
}

// DefaultConfig returns a Config with the reference thresholds.
func DefaultConfig() Config {
	return Config{
		Thresholds: DefaultThresholds(),
	}
}

// Pipeline processes frames for a single camera. A mutex keeps processing
// in-order and non-overlapping; share detector and estimator instances
// across pipelines, not the Pipeline itself.
type Pipeline struct {
	detector  detector.Detector
	estimator pose.Estimator
	config    Config
	mu        sync.Mutex
}

// New creates a Pipeline using the given detector and pose estimator.
func New(d detector.Detector, e pose.Estimator, config Config) *Pipeline {
	return &Pipeline{
		detector:  d,
		estimator: e,
		config:    config,
	}
}

// ProcessFrame runs the full cascade on one frame and returns the
// accumulated result. It never panics and never returns an error: detection
// failures degrade to an empty result, pose failures to an unconfirmed
// suspect. Each frame is evaluated independently; the pipeline keeps no
// cross-frame state.
//
// When several detections in one frame confirm as falls, the first one in
// detector output order populates Event; later confirmations still appear
// in Detections but do not overwrite it.
func (p *Pipeline) ProcessFrame(cameraID string, frame *gocv.Mat) FrameResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := FrameResult{
		CameraID:  cameraID,
		Timestamp: time.Now(),
		Degraded:  p.detector.Degraded(),
	}

	frameWidth, frameHeight := ReferenceWidth, ReferenceHeight
	if frame != nil && !frame.Empty() {
		frameWidth = frame.Cols()
		frameHeight = frame.Rows()
	}

	thresholds := p.config.Thresholds.Scaled(frameWidth, frameHeight)

	persons, err := p.detector.Detect(frame)
	if err != nil {
		log.Printf("camera %s: detection failed, treating frame as empty: %v", cameraID, err)
		return result
	}

	for _, person := range persons {
		suspect := thresholds.IsSuspect(person.Bounds, frameWidth, frameHeight)

		var posture *pose.Result
		if suspect {
			posture, err = p.estimator.Estimate(frame, person.Bounds)
			if err != nil {
				log.Printf("camera %s: pose estimation failed: %v", cameraID, err)
				posture = nil
			}
		}

		if person.Degraded {
			result.Degraded = true
		}

		if suspect && result.Event == nil && thresholds.ConfirmFall(posture) {
			result.FallDetected = true
			result.Event = &EventDetails{
				Confidence: (person.Confidence + posture.Confidence) / 2,
				Bounds:     person.Bounds,
				Pose:       posture,
			}
		}

		result.Detections = append(result.Detections, DetectionInfo{
			Detection: person,
			IsSuspect: suspect,
			Pose:      posture,
		})
	}

	return result
}
