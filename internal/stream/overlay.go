package stream

import (
	"fmt"
	"image"
	"image/color"

	"github.com/rohanpai/fallwatch/internal/pipeline"
	"gocv.io/x/gocv"
)

var (
	colorAlert  = color.RGBA{R: 255}          // red: suspect or fall
	colorNormal = color.RGBA{G: 255}          // green: person, normal posture
	colorText   = color.RGBA{R: 255, G: 255, B: 255}
)

// drawOverlays annotates the frame in place with detection boxes, labels,
// a per-box aspect-ratio debug readout, and a frame-level fall banner.
func drawOverlays(frame *gocv.Mat, result pipeline.FrameResult) {
	if frame == nil || frame.Empty() {
		return
	}

	for _, info := range result.Detections {
		b := info.Detection.Bounds
		rect := image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2))

		boxColor := colorNormal
		label := "Person - Normal"
		if info.IsSuspect || result.FallDetected {
			boxColor = colorAlert
			label = "FALL DETECTED!"
		}

		gocv.Rectangle(frame, rect, boxColor, 3)

		// Label on a filled background above the box.
		labelSize := gocv.GetTextSize(label, gocv.FontHersheySimplex, 0.6, 2)
		labelRect := image.Rect(rect.Min.X, rect.Min.Y-labelSize.Y-10,
			rect.Min.X+labelSize.X, rect.Min.Y)
		gocv.Rectangle(frame, labelRect, boxColor, -1)
		gocv.PutText(frame, label, image.Pt(rect.Min.X, rect.Min.Y-5),
			gocv.FontHersheySimplex, 0.6, colorText, 2)

		debug := fmt.Sprintf("Ratio: %.2f", b.AspectRatio())
		gocv.PutText(frame, debug, image.Pt(rect.Min.X, rect.Max.Y+20),
			gocv.FontHersheySimplex, 0.5, boxColor, 1)
	}

	if result.FallDetected {
		gocv.PutText(frame, "!!! FALL DETECTED !!!", image.Pt(10, 50),
			gocv.FontHersheySimplex, 1.0, colorAlert, 3)
	}

	if result.Degraded {
		gocv.PutText(frame, "DEGRADED MODE", image.Pt(10, frame.Rows()-10),
			gocv.FontHersheySimplex, 0.5, colorAlert, 1)
	}
}

// ErrorFrame builds a black placeholder frame shown when a camera is
// unavailable. The caller must close the returned Mat.
func ErrorFrame() gocv.Mat {
	frame := gocv.Zeros(480, 640, gocv.MatTypeCV8UC3)
	gocv.PutText(&frame, "Camera Unavailable", image.Pt(150, 240),
		gocv.FontHersheySimplex, 1.0, colorText, 2)
	return frame
}
