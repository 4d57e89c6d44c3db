package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	detections []Detection
	err        error
	calls      int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetDetections sets the detections that will be returned by Detect.
func (m *MockDetector) SetDetections(detections []Detection) {
	m.detections = detections
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	return m.calls
}

// Detect returns the pre-configured detections or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.detections, nil
}

// Degraded always returns false for the mock.
func (m *MockDetector) Degraded() bool {
	return false
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// StandingPersonDetection returns a preset detection representing an
// upright person near the center of a 640x480 frame.
func StandingPersonDetection() Detection {
	return Detection{
		Bounds:     BoundingBox{X1: 250, Y1: 80, X2: 370, Y2: 420},
		Confidence: 0.92,
		Class:      ClassPerson,
	}
}

// FallenPersonDetection returns a preset detection whose geometry is
// consistent with a person lying horizontally on a 640x480 frame.
func FallenPersonDetection() Detection {
	return Detection{
		Bounds:     BoundingBox{X1: 100, Y1: 300, X2: 400, Y2: 400},
		Confidence: 0.85,
		Class:      ClassPerson,
	}
}
