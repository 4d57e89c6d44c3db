package stream

import (
	"testing"
	"time"

	"github.com/rohanpai/fallwatch/internal/detector"
	"github.com/rohanpai/fallwatch/internal/pipeline"
	"github.com/rohanpai/fallwatch/internal/testutil"
	"gocv.io/x/gocv"
)

func countChangedPixels(t *testing.T, before, after *gocv.Mat) int {
	t.Helper()

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(*before, *after, &diff)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(diff, &gray, gocv.ColorBGRToGray)

	return gocv.CountNonZero(gray)
}

func TestDrawOverlays_AnnotatesDetections(t *testing.T) {
	frame := testutil.BlankFrame()
	defer frame.Close()
	original := frame.Clone()
	defer original.Close()

	fallen := detector.FallenPersonDetection()
	result := pipeline.FrameResult{
		CameraID:     "cam-1",
		Timestamp:    time.Now(),
		FallDetected: true,
		Detections: []pipeline.DetectionInfo{
			{Detection: fallen, IsSuspect: true},
		},
		Event: &pipeline.EventDetails{
			Confidence: 0.875,
			Bounds:     fallen.Bounds,
		},
	}

	drawOverlays(&frame, result)

	if countChangedPixels(t, &original, &frame) == 0 {
		t.Error("drawOverlays left the frame untouched for a confirmed fall")
	}
}

func TestDrawOverlays_EmptyResultLeavesFrameAlone(t *testing.T) {
	frame := testutil.BlankFrame()
	defer frame.Close()
	original := frame.Clone()
	defer original.Close()

	drawOverlays(&frame, pipeline.FrameResult{CameraID: "cam-1", Timestamp: time.Now()})

	if countChangedPixels(t, &original, &frame) != 0 {
		t.Error("drawOverlays modified the frame with nothing to draw")
	}
}

func TestDrawOverlays_DegradedWatermark(t *testing.T) {
	frame := testutil.BlankFrame()
	defer frame.Close()
	original := frame.Clone()
	defer original.Close()

	drawOverlays(&frame, pipeline.FrameResult{
		CameraID:  "cam-1",
		Timestamp: time.Now(),
		Degraded:  true,
	})

	if countChangedPixels(t, &original, &frame) == 0 {
		t.Error("drawOverlays did not render the degraded watermark")
	}
}

func TestDrawOverlays_NilFrame(t *testing.T) {
	// Must not panic.
	drawOverlays(nil, pipeline.FrameResult{FallDetected: true})
}
