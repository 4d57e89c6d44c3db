package pose

import (
	"github.com/rohanpai/fallwatch/internal/detector"
	"gocv.io/x/gocv"
)

// minRegionSize is the smallest bounding box edge (in pixels) on which a
// pose can be estimated. Smaller crops carry too little signal.
const minRegionSize = 8

// HeuristicEstimator is the stand-in for a real pose model: it lays out
// anatomical keypoints from bounding-box geometry alone. A box wider than
// tall gets keypoints arranged along its horizontal axis; otherwise the
// layout is head-at-top, ankles-at-bottom. Results are flagged Degraded
// since no learned model is involved.
type HeuristicEstimator struct{}

// NewHeuristicEstimator creates a new HeuristicEstimator.
func NewHeuristicEstimator() *HeuristicEstimator {
	return &HeuristicEstimator{}
}

// Estimate derives keypoints for the region. It returns nil (not a partial
// result) when the region is too small to estimate.
func (e *HeuristicEstimator) Estimate(frame *gocv.Mat, bounds detector.BoundingBox) (*Result, error) {
	if bounds.Width() < minRegionSize || bounds.Height() < minRegionSize {
		return nil, nil
	}

	var keypoints map[string]Point
	if bounds.AspectRatio() > 1.0 {
		keypoints = horizontalLayout(bounds)
	} else {
		keypoints = verticalLayout(bounds)
	}

	// Larger regions give the layout more to work with.
	confidence := 0.6
	if bounds.Area() > 10000 {
		confidence = 0.8
	}

	return &Result{
		Keypoints:   keypoints,
		Orientation: ClassifyOrientation(keypoints),
		Confidence:  confidence,
		Degraded:    true,
	}, nil
}

// horizontalLayout places joints along the box's horizontal axis with
// y-values clustered near the vertical center, consistent with a body
// lying sideways.
func horizontalLayout(b detector.BoundingBox) map[string]Point {
	midY := b.CenterY()
	w := b.Width()
	h := b.Height()

	return map[string]Point{
		Nose:          {X: b.X1 + 0.10*w, Y: midY - 0.05*h},
		LeftShoulder:  {X: b.X1 + 0.25*w, Y: midY - 0.10*h},
		RightShoulder: {X: b.X1 + 0.25*w, Y: midY + 0.10*h},
		LeftHip:       {X: b.X1 + 0.55*w, Y: midY - 0.08*h},
		RightHip:      {X: b.X1 + 0.55*w, Y: midY + 0.08*h},
		LeftAnkle:     {X: b.X1 + 0.95*w, Y: midY - 0.05*h},
		RightAnkle:    {X: b.X1 + 0.95*w, Y: midY + 0.05*h},
	}
}

// verticalLayout places joints top to bottom, consistent with an upright
// body.
func verticalLayout(b detector.BoundingBox) map[string]Point {
	midX := (b.X1 + b.X2) / 2
	w := b.Width()
	h := b.Height()

	return map[string]Point{
		Nose:          {X: midX, Y: b.Y1 + 0.08*h},
		LeftShoulder:  {X: midX - 0.20*w, Y: b.Y1 + 0.20*h},
		RightShoulder: {X: midX + 0.20*w, Y: b.Y1 + 0.20*h},
		LeftHip:       {X: midX - 0.12*w, Y: b.Y1 + 0.52*h},
		RightHip:      {X: midX + 0.12*w, Y: b.Y1 + 0.52*h},
		LeftAnkle:     {X: midX - 0.10*w, Y: b.Y1 + 0.95*h},
		RightAnkle:    {X: midX + 0.10*w, Y: b.Y1 + 0.95*h},
	}
}

// Degraded always returns true: this estimator has no learned model.
func (e *HeuristicEstimator) Degraded() bool {
	return true
}

// Close is a no-op.
func (e *HeuristicEstimator) Close() error {
	return nil
}
