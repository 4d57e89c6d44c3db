package detector

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Degraded-mode detection constants.
const (
	// degradedBlurSize is the kernel size for Gaussian blur (21x21).
	degradedBlurSize = 21
	// degradedDiffThreshold is the binary threshold for difference detection.
	degradedDiffThreshold = 25
	// degradedMinArea is the minimum contour area (in pixels) accepted as a
	// person-sized region.
	degradedMinArea = 1500
	// DegradedConfidence is the fixed confidence assigned to degraded-mode
	// detections. Deliberately low so placeholder output never looks like
	// confident inference.
	DegradedConfidence = 0.30
)

// DegradedDetector is the fallback when no detection model is available.
// Instead of fabricating detections, it proposes person candidates from
// frame differencing: consecutive frames are blurred, diffed, thresholded,
// and the bounding rectangles of moving contours become low-confidence
// detections flagged Degraded.
type DegradedDetector struct {
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewDegradedDetector creates a DegradedDetector with no baseline frame.
func NewDegradedDetector() *DegradedDetector {
	return &DegradedDetector{
		prevGray: gocv.NewMat(),
	}
}

// Detect returns bounding boxes of regions that moved since the previous
// frame. The first frame establishes the baseline and yields no detections.
// Output is deterministic for identical frame pairs.
func (d *DegradedDetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame == nil || frame.Empty() {
		return nil, nil
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: degradedBlurSize, Y: degradedBlurSize}, 0, 0, gocv.BorderDefault)

	if !d.initialized {
		blurred.CopyTo(&d.prevGray)
		d.initialized = true
		return nil, nil
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, d.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, degradedDiffThreshold, 255, gocv.ThresholdBinary)

	blurred.CopyTo(&d.prevGray)

	contours := gocv.FindContours(thresh, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var detections []Detection
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		if gocv.ContourArea(contour) < degradedMinArea {
			continue
		}

		rect := gocv.BoundingRect(contour)
		detections = append(detections, Detection{
			Bounds: BoundingBox{
				X1: float64(rect.Min.X),
				Y1: float64(rect.Min.Y),
				X2: float64(rect.Max.X),
				Y2: float64(rect.Max.Y),
			},
			Confidence: DegradedConfidence,
			Class:      ClassPerson,
			Degraded:   true,
		})
	}

	return detections, nil
}

// Degraded always returns true.
func (d *DegradedDetector) Degraded() bool {
	return true
}

// Reset clears the baseline frame so the detector can be reused on a new
// stream.
func (d *DegradedDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.prevGray.Empty() {
		d.prevGray.Close()
		d.prevGray = gocv.NewMat()
	}
	d.initialized = false
}

// Close releases resources used by the detector.
func (d *DegradedDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.prevGray.Empty() {
		d.prevGray.Close()
		d.prevGray = gocv.NewMat()
	}
	d.initialized = false
	return nil
}
