// Package pose provides anatomical keypoint estimation for suspect person
// regions. Pose output feeds the fall confirmation logic, so the contract
// guarantees the nose and both hips are present in every non-nil result.
package pose

import (
	"math"

	"github.com/rohanpai/fallwatch/internal/detector"
	"gocv.io/x/gocv"
)

// Named joints produced by an estimator. Nose, LeftHip and RightHip are
// required for fall confirmation; the rest are decorative.
const (
	Nose          = "nose"
	LeftShoulder  = "left_shoulder"
	RightShoulder = "right_shoulder"
	LeftHip       = "left_hip"
	RightHip      = "right_hip"
	LeftAnkle     = "left_ankle"
	RightAnkle    = "right_ankle"
)

// Orientation classifies the arrangement of body keypoints.
type Orientation string

const (
	// Horizontal means the keypoints are arranged side to side (lying).
	Horizontal Orientation = "horizontal"
	// Vertical means the keypoints are arranged top to bottom (standing or
	// sitting).
	Vertical Orientation = "vertical"
	// Unknown means the estimator could not classify the arrangement.
	Unknown Orientation = "unknown"
)

// Point is a 2D keypoint position in frame pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Result holds the output of one pose estimation. A Result is either fully
// populated or absent: estimators return nil rather than a partial result.
type Result struct {
	Keypoints   map[string]Point `json:"keypoints"`
	Orientation Orientation      `json:"orientation"`
	Confidence  float64          `json:"confidence"`
	// Degraded marks results produced without a real model.
	Degraded bool `json:"degraded,omitempty"`
}

// Joint returns the named keypoint and whether it is present.
func (r *Result) Joint(name string) (Point, bool) {
	if r == nil {
		return Point{}, false
	}
	p, ok := r.Keypoints[name]
	return p, ok
}

// Estimator defines the interface for pose estimation implementations.
type Estimator interface {
	// Estimate analyzes the region of the frame defined by bounds and
	// returns the detected keypoints. It returns a nil Result when no pose
	// can be estimated; callers must treat nil as "not confirmed".
	Estimate(frame *gocv.Mat, bounds detector.BoundingBox) (*Result, error)

	// Degraded reports whether this estimator runs without a real model.
	Degraded() bool

	// Close releases any resources held by the estimator.
	Close() error
}

// ClassifyOrientation derives an orientation from keypoint geometry: when
// the vertical spread of the shoulder/hip/ankle joints is small relative to
// their horizontal spread the body is lying down. Returns Unknown when too
// few joints are present to judge.
func ClassifyOrientation(keypoints map[string]Point) Orientation {
	names := []string{LeftShoulder, RightShoulder, LeftHip, RightHip, LeftAnkle, RightAnkle}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	present := 0

	for _, name := range names {
		p, ok := keypoints[name]
		if !ok {
			continue
		}
		present++
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	if present < 3 {
		return Unknown
	}

	xSpread := maxX - minX
	ySpread := maxY - minY

	if xSpread > ySpread {
		return Horizontal
	}
	return Vertical
}
