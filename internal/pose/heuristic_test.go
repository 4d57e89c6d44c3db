package pose

import (
	"testing"

	"github.com/rohanpai/fallwatch/internal/detector"
)

func TestHeuristicEstimator_WideRegionIsHorizontal(t *testing.T) {
	e := NewHeuristicEstimator()
	defer e.Close()

	bounds := detector.BoundingBox{X1: 100, Y1: 300, X2: 400, Y2: 400}
	result, err := e.Estimate(nil, bounds)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	if result == nil {
		t.Fatal("Estimate() = nil for a valid region")
	}
	if result.Orientation != Horizontal {
		t.Errorf("Orientation = %v, want %v", result.Orientation, Horizontal)
	}
	if !result.Degraded {
		t.Error("Degraded = false, want true")
	}
	// 300x100 region exceeds the area threshold.
	if result.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", result.Confidence)
	}

	nose, ok := result.Joint(Nose)
	if !ok {
		t.Fatal("result missing nose")
	}
	leftHip, ok := result.Joint(LeftHip)
	if !ok {
		t.Fatal("result missing left hip")
	}
	rightHip, ok := result.Joint(RightHip)
	if !ok {
		t.Fatal("result missing right hip")
	}
	// Lying layout keeps head and hips at nearly the same height.
	meanHipY := (leftHip.Y + rightHip.Y) / 2
	if diff := nose.Y - meanHipY; diff > 20 || diff < -20 {
		t.Errorf("nose-to-hip vertical gap = %v, want within 20", diff)
	}
}

func TestHeuristicEstimator_TallRegionIsVertical(t *testing.T) {
	e := NewHeuristicEstimator()
	defer e.Close()

	bounds := detector.BoundingBox{X1: 250, Y1: 80, X2: 370, Y2: 420}
	result, err := e.Estimate(nil, bounds)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	if result == nil {
		t.Fatal("Estimate() = nil for a valid region")
	}
	if result.Orientation != Vertical {
		t.Errorf("Orientation = %v, want %v", result.Orientation, Vertical)
	}

	nose, _ := result.Joint(Nose)
	leftHip, _ := result.Joint(LeftHip)
	if nose.Y >= leftHip.Y {
		t.Errorf("upright layout: nose Y (%v) should be above hip Y (%v)", nose.Y, leftHip.Y)
	}

	// All keypoints stay inside the region.
	for name, p := range result.Keypoints {
		if p.X < bounds.X1 || p.X > bounds.X2 || p.Y < bounds.Y1 || p.Y > bounds.Y2 {
			t.Errorf("keypoint %s = %+v outside bounds %+v", name, p, bounds)
		}
	}
}

func TestHeuristicEstimator_TinyRegionDeclines(t *testing.T) {
	e := NewHeuristicEstimator()
	defer e.Close()

	tests := []struct {
		name   string
		bounds detector.BoundingBox
	}{
		{"narrow", detector.BoundingBox{X1: 100, Y1: 100, X2: 105, Y2: 200}},
		{"short", detector.BoundingBox{X1: 100, Y1: 100, X2: 200, Y2: 105}},
		{"zero height", detector.BoundingBox{X1: 10, Y1: 10, X2: 50, Y2: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.Estimate(nil, tt.bounds)
			if err != nil {
				t.Fatalf("Estimate() error = %v", err)
			}
			if result != nil {
				t.Errorf("Estimate() = %+v, want nil", result)
			}
		})
	}
}

func TestHeuristicEstimator_SmallRegionLowerConfidence(t *testing.T) {
	e := NewHeuristicEstimator()
	defer e.Close()

	// 20x10 region clears the minimum size but not the area threshold.
	bounds := detector.BoundingBox{X1: 140, Y1: 280, X2: 160, Y2: 290}
	result, err := e.Estimate(nil, bounds)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	if result == nil {
		t.Fatal("Estimate() = nil for a valid region")
	}
	if result.Confidence != 0.6 {
		t.Errorf("Confidence = %v, want 0.6", result.Confidence)
	}
}
