// Package testutil provides synthetic video frames for tests. Frames are
// generated rather than loaded from disk so tests control their content
// exactly.
package testutil

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Frame dimensions match the pipeline's reference geometry.
const (
	FrameWidth  = 640
	FrameHeight = 480
)

// BlankFrame returns a black 640x480 BGR frame. The caller must close it.
func BlankFrame() gocv.Mat {
	return gocv.Zeros(FrameHeight, FrameWidth, gocv.MatTypeCV8UC3)
}

// PersonFrame returns a black 640x480 frame with a filled light rectangle
// at rect, approximating a person-shaped blob. The caller must close it.
func PersonFrame(rect image.Rectangle) gocv.Mat {
	frame := BlankFrame()
	gocv.Rectangle(&frame, rect, color.RGBA{R: 220, G: 220, B: 220}, -1)
	return frame
}

// FrameSequence returns n clones of the given frame. The caller must close
// every returned Mat as well as the original.
func FrameSequence(frame gocv.Mat, n int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		clone := frame.Clone()
		frames[i] = &clone
	}
	return frames
}
