// Package detector provides person detection interfaces and types for the
// fall-detection pipeline.
package detector

import "gocv.io/x/gocv"

// ClassPerson is the only object class this pipeline cares about.
const ClassPerson = "person"

// BoundingBox describes a detected region in original-frame pixel
// coordinates. A well-formed box satisfies X2 > X1 and Y2 > Y1.
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width returns the horizontal extent of the box.
func (b BoundingBox) Width() float64 {
	return b.X2 - b.X1
}

// Height returns the vertical extent of the box.
func (b BoundingBox) Height() float64 {
	return b.Y2 - b.Y1
}

// AspectRatio returns width/height, or 0 when the box has no height.
func (b BoundingBox) AspectRatio() float64 {
	h := b.Height()
	if h == 0 {
		return 0
	}
	return b.Width() / h
}

// CenterY returns the vertical center of the box.
func (b BoundingBox) CenterY() float64 {
	return (b.Y1 + b.Y2) / 2
}

// Area returns the box area in square pixels.
func (b BoundingBox) Area() float64 {
	return b.Width() * b.Height()
}

// Detection is a single person candidate found in a frame.
type Detection struct {
	Bounds     BoundingBox `json:"bbox"`
	Confidence float64     `json:"confidence"`
	Class      string      `json:"class"`
	// Degraded marks detections produced without a real model, so callers
	// can distinguish placeholder output from genuine inference.
	Degraded bool `json:"degraded,omitempty"`
}

// Detector defines the interface for person detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected persons.
	// Returns an empty slice if no persons are found.
	Detect(frame *gocv.Mat) ([]Detection, error)

	// Degraded reports whether this detector runs without a real model.
	Degraded() bool

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for person detection.
type Config struct {
	// ModelPath is the location of the ONNX detection model artifact.
	ModelPath string

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// NMSThreshold is the IoU threshold for non-maximum suppression.
	NMSThreshold float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		ModelPath:     "models/yolov8n.onnx",
		MinConfidence: 0.5,
		NMSThreshold:  0.4,
	}
}
