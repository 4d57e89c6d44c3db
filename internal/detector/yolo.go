package detector

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// YOLO network geometry. The exported YOLOv8 ONNX graph takes a 640x640
// input blob and emits a (1, 84, 8400) tensor: 4 box coordinates followed
// by 80 COCO class scores per candidate.
const (
	yoloInputSize  = 640
	yoloBoxFields  = 4
	personClassID  = 0
	yoloOutputCols = 84
)

// YOLODetector runs a YOLOv8 ONNX model through the OpenCV DNN module on
// the CPU inference path.
type YOLODetector struct {
	config Config
	net    gocv.Net
	mu     sync.Mutex
	closed bool
}

// NewYOLODetector loads the ONNX model artifact from config.ModelPath.
// It returns an error when the artifact is missing or unloadable so the
// caller can fall back to a degraded detector instead of crashing.
func NewYOLODetector(config Config) (*YOLODetector, error) {
	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, fmt.Errorf("model artifact not found at %s: %w", config.ModelPath, err)
	}

	net := gocv.ReadNetFromONNX(config.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load ONNX model from %s", config.ModelPath)
	}

	// CPU backend; CUDA is not a supported target for this deployment.
	net.SetPreferableBackend(gocv.NetBackendOpenCV)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &YOLODetector{
		config: config,
		net:    net,
	}, nil
}

// Detect runs person detection on the frame and returns boxes in
// original-frame pixel coordinates. It never panics: an inference failure
// is returned as an error for the caller to treat as "no detections".
func (d *YOLODetector) Detect(frame *gocv.Mat) (detections []Detection, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, fmt.Errorf("detector is closed")
	}
	if frame == nil || frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	// The DNN module signals failures by panicking; contain them at the
	// component boundary so a bad frame cannot take down the camera loop.
	defer func() {
		if r := recover(); r != nil {
			detections = nil
			err = fmt.Errorf("inference failed: %v", r)
		}
	}()

	// Resize and normalize to the network's input geometry. Pixel values
	// scale to [0,1], BGR swaps to RGB.
	blob := gocv.BlobFromImage(*frame, 1.0/255.0, image.Pt(yoloInputSize, yoloInputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	// Flatten (1, 84, 8400) to 84x8400, then transpose so each row is one
	// candidate box.
	reshaped := output.Reshape(1, yoloOutputCols)
	defer reshaped.Close()

	candidates := gocv.NewMat()
	defer candidates.Close()
	gocv.Transpose(reshaped, &candidates)

	// Scale factors back to original frame coordinates. The blob resize
	// does not letterbox, so x and y scale independently.
	xScale := float64(frame.Cols()) / float64(yoloInputSize)
	yScale := float64(frame.Rows()) / float64(yoloInputSize)

	var rects []image.Rectangle
	var scores []float32
	var boxes []BoundingBox

	for i := 0; i < candidates.Rows(); i++ {
		score := candidates.GetFloatAt(i, yoloBoxFields+personClassID)
		if float64(score) < d.config.MinConfidence {
			continue
		}

		// Person must be the best-scoring class for this candidate.
		if !personBestClass(&candidates, i, score) {
			continue
		}

		cx := float64(candidates.GetFloatAt(i, 0))
		cy := float64(candidates.GetFloatAt(i, 1))
		w := float64(candidates.GetFloatAt(i, 2))
		h := float64(candidates.GetFloatAt(i, 3))

		box := BoundingBox{
			X1: (cx - w/2) * xScale,
			Y1: (cy - h/2) * yScale,
			X2: (cx + w/2) * xScale,
			Y2: (cy + h/2) * yScale,
		}

		rects = append(rects, image.Rect(int(box.X1), int(box.Y1), int(box.X2), int(box.Y2)))
		scores = append(scores, score)
		boxes = append(boxes, box)
	}

	if len(rects) == 0 {
		return nil, nil
	}

	// Collapse duplicate boxes for the same person.
	indices := gocv.NMSBoxes(rects, scores, float32(d.config.MinConfidence), float32(d.config.NMSThreshold))

	detections = make([]Detection, 0, len(indices))
	for _, idx := range indices {
		detections = append(detections, Detection{
			Bounds:     boxes[idx],
			Confidence: float64(scores[idx]),
			Class:      ClassPerson,
		})
	}

	return detections, nil
}

// personBestClass reports whether the person class score is the maximum
// among all class scores for candidate row i.
func personBestClass(candidates *gocv.Mat, i int, personScore float32) bool {
	for c := yoloBoxFields; c < yoloOutputCols; c++ {
		if candidates.GetFloatAt(i, c) > personScore {
			return false
		}
	}
	return true
}

// Degraded always returns false: this detector runs real inference.
func (d *YOLODetector) Degraded() bool {
	return false
}

// Close releases the loaded network.
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.net.Close()
}
