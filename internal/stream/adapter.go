// Package stream adapts camera capture to the fall-detection pipeline: it
// reads frames, runs them through the per-camera pipeline, draws detection
// overlays, and hands out JPEG-encoded frames for multipart transport.
package stream

import (
	"fmt"
	"time"

	"github.com/rohanpai/fallwatch/internal/capture"
	"github.com/rohanpai/fallwatch/internal/pipeline"
	"gocv.io/x/gocv"
)

// Defaults for frame delivery.
const (
	// DefaultJPEGQuality is the encode quality for streamed frames.
	DefaultJPEGQuality = 85
	// DefaultFrameInterval paces delivery at roughly 30 fps. Advisory, not
	// a hard real-time guarantee.
	DefaultFrameInterval = 33 * time.Millisecond
)

// Sink receives every processed frame result together with the annotated
// frame. The frame is only valid for the duration of the call.
type Sink func(cameraID string, result pipeline.FrameResult, annotated *gocv.Mat)

// Config holds stream adapter configuration.
type Config struct {
	Registry *capture.Registry
	// PipelineFor returns the processing pipeline for a camera. Pipelines
	// are per-camera so processing stays in-order and non-overlapping
	// within a stream.
	PipelineFor func(cameraID string) *pipeline.Pipeline
	// Sink, if set, is invoked for every processed frame.
	Sink          Sink
	JPEGQuality   int
	FrameInterval time.Duration
}

// Adapter turns camera sources into annotated, encoded frame sequences.
type Adapter struct {
	config Config
}

// New creates an Adapter, filling unset config fields with defaults.
func New(config Config) *Adapter {
	if config.JPEGQuality <= 0 {
		config.JPEGQuality = DefaultJPEGQuality
	}
	if config.FrameInterval <= 0 {
		config.FrameInterval = DefaultFrameInterval
	}
	return &Adapter{config: config}
}

// FrameInterval returns the configured pacing interval.
func (a *Adapter) FrameInterval() time.Duration {
	return a.config.FrameInterval
}

// ProcessNext reads the next frame from the camera, runs the detection
// pipeline, and returns the annotated frame along with the result. The
// caller must close the returned Mat.
//
// A failed read is retried once immediately; if the retry also fails the
// capture handle is released so a later call can reopen it, and an error
// is returned. Callers streaming to a consumer should substitute
// ErrorFrame rather than terminating.
func (a *Adapter) ProcessNext(cameraID, source string) (*gocv.Mat, pipeline.FrameResult, error) {
	cam, err := a.config.Registry.Acquire(cameraID, source)
	if err != nil {
		return nil, pipeline.FrameResult{}, err
	}

	frame, err := cam.ReadFrame()
	if err != nil {
		// One immediate retry; transient decode hiccups are common on
		// network streams.
		frame, err = cam.ReadFrame()
		if err != nil {
			a.config.Registry.Release(cameraID)
			return nil, pipeline.FrameResult{}, fmt.Errorf("camera %s stopped responding: %w", cameraID, err)
		}
	}

	result := a.config.PipelineFor(cameraID).ProcessFrame(cameraID, frame)

	drawOverlays(frame, result)

	if a.config.Sink != nil {
		a.config.Sink(cameraID, result, frame)
	}

	return frame, result, nil
}

// ProcessOnce reads and processes a single frame, returning only the
// result. Used by the single-frame inference endpoint.
func (a *Adapter) ProcessOnce(cameraID, source string) (pipeline.FrameResult, error) {
	frame, result, err := a.ProcessNext(cameraID, source)
	if err != nil {
		return pipeline.FrameResult{}, err
	}
	frame.Close()
	return result, nil
}

// Encode serializes a frame as JPEG at the configured quality.
func (a *Adapter) Encode(frame *gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, *frame,
		[]int{gocv.IMWriteJpegQuality, a.config.JPEGQuality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	// Copy out: the buffer's bytes are invalid after Close.
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}

// Release closes the capture handle for a camera. Safe to call when the
// camera was never acquired or is already released.
func (a *Adapter) Release(cameraID string) error {
	return a.config.Registry.Release(cameraID)
}
