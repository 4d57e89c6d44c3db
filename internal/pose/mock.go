package pose

import (
	"github.com/rohanpai/fallwatch/internal/detector"
	"gocv.io/x/gocv"
)

// MockEstimator is a test implementation of the Estimator interface.
// It allows tests to control the estimation results.
type MockEstimator struct {
	result *Result
	err    error
	calls  int
}

// NewMockEstimator creates a new MockEstimator instance.
func NewMockEstimator() *MockEstimator {
	return &MockEstimator{}
}

// SetResult sets the result that will be returned by Estimate.
func (m *MockEstimator) SetResult(result *Result) {
	m.result = result
}

// SetError sets the error that will be returned by Estimate.
func (m *MockEstimator) SetError(err error) {
	m.err = err
}

// Calls returns how many times Estimate has been invoked.
func (m *MockEstimator) Calls() int {
	return m.calls
}

// Estimate returns the pre-configured result or error.
func (m *MockEstimator) Estimate(frame *gocv.Mat, bounds detector.BoundingBox) (*Result, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// Degraded always returns false for the mock.
func (m *MockEstimator) Degraded() bool {
	return false
}

// Close is a no-op for the mock estimator.
func (m *MockEstimator) Close() error {
	return nil
}

// FallenPose returns a preset Result representing a body lying
// horizontally: keypoint y-values cluster around the same height.
func FallenPose() *Result {
	keypoints := map[string]Point{
		Nose:          {X: 150, Y: 280},
		LeftShoulder:  {X: 140, Y: 280},
		RightShoulder: {X: 160, Y: 280},
		LeftHip:       {X: 140, Y: 285},
		RightHip:      {X: 160, Y: 285},
		LeftAnkle:     {X: 140, Y: 290},
		RightAnkle:    {X: 160, Y: 290},
	}
	return &Result{
		Keypoints:   keypoints,
		Orientation: Horizontal,
		Confidence:  0.9,
	}
}

// StandingPose returns a preset Result representing an upright body with
// the head well above the hips.
func StandingPose() *Result {
	keypoints := map[string]Point{
		Nose:          {X: 150, Y: 120},
		LeftShoulder:  {X: 140, Y: 140},
		RightShoulder: {X: 160, Y: 140},
		LeftHip:       {X: 145, Y: 200},
		RightHip:      {X: 155, Y: 200},
		LeftAnkle:     {X: 145, Y: 280},
		RightAnkle:    {X: 155, Y: 280},
	}
	return &Result{
		Keypoints:   keypoints,
		Orientation: Vertical,
		Confidence:  0.95,
	}
}
