package pipeline

import (
	"errors"
	"math"
	"testing"

	"github.com/rohanpai/fallwatch/internal/detector"
	"github.com/rohanpai/fallwatch/internal/pose"
)

const epsilon = 1e-9

func newTestPipeline(d detector.Detector, e pose.Estimator) *Pipeline {
	return New(d, e, DefaultConfig())
}

func TestPipeline_ProcessFrame_ConfirmedFall(t *testing.T) {
	mockDetector := detector.NewMockDetector()
	mockDetector.SetDetections([]detector.Detection{
		{
			// width=20, height=10, aspect 2.0 > 1.5: suspect
			Bounds:     detector.BoundingBox{X1: 140, Y1: 280, X2: 160, Y2: 290},
			Confidence: 0.85,
			Class:      detector.ClassPerson,
		},
	})

	mockEstimator := pose.NewMockEstimator()
	mockEstimator.SetResult(&pose.Result{
		Keypoints:   map[string]pose.Point{},
		Orientation: pose.Horizontal,
		Confidence:  0.9,
	})

	p := newTestPipeline(mockDetector, mockEstimator)
	result := p.ProcessFrame("cam-1", nil)

	if !result.FallDetected {
		t.Fatal("FallDetected = false, want true")
	}
	if result.Event == nil {
		t.Fatal("Event = nil, want details")
	}
	if math.Abs(result.Event.Confidence-0.875) > epsilon {
		t.Errorf("Event.Confidence = %v, want 0.875", result.Event.Confidence)
	}
	if result.CameraID != "cam-1" {
		t.Errorf("CameraID = %q, want %q", result.CameraID, "cam-1")
	}
	if result.Timestamp.IsZero() {
		t.Error("Timestamp is zero")
	}
	if len(result.Detections) != 1 {
		t.Fatalf("len(Detections) = %d, want 1", len(result.Detections))
	}
	if !result.Detections[0].IsSuspect {
		t.Error("Detections[0].IsSuspect = false, want true")
	}
	if result.Detections[0].Pose == nil {
		t.Error("Detections[0].Pose = nil, want result")
	}
}

func TestPipeline_ProcessFrame_NonSuspectSkipsPose(t *testing.T) {
	mockDetector := detector.NewMockDetector()
	mockDetector.SetDetections([]detector.Detection{detector.StandingPersonDetection()})

	mockEstimator := pose.NewMockEstimator()
	mockEstimator.SetResult(pose.FallenPose()) // would confirm if ever consulted

	p := newTestPipeline(mockDetector, mockEstimator)
	result := p.ProcessFrame("cam-1", nil)

	if mockEstimator.Calls() != 0 {
		t.Errorf("estimator called %d times for non-suspect, want 0", mockEstimator.Calls())
	}
	if result.FallDetected {
		t.Error("FallDetected = true for standing person, want false")
	}
	if len(result.Detections) != 1 {
		t.Fatalf("len(Detections) = %d, want 1", len(result.Detections))
	}
	if result.Detections[0].IsSuspect {
		t.Error("IsSuspect = true for standing person, want false")
	}
	if result.Detections[0].Pose != nil {
		t.Error("Pose != nil for non-suspect detection")
	}
}

func TestPipeline_ProcessFrame_FirstConfirmedFallWins(t *testing.T) {
	first := detector.BoundingBox{X1: 100, Y1: 300, X2: 400, Y2: 400}
	second := detector.BoundingBox{X1: 50, Y1: 350, X2: 350, Y2: 440}

	mockDetector := detector.NewMockDetector()
	mockDetector.SetDetections([]detector.Detection{
		{Bounds: first, Confidence: 0.8, Class: detector.ClassPerson},
		{Bounds: second, Confidence: 0.9, Class: detector.ClassPerson},
	})

	mockEstimator := pose.NewMockEstimator()
	mockEstimator.SetResult(pose.FallenPose())

	p := newTestPipeline(mockDetector, mockEstimator)
	result := p.ProcessFrame("cam-1", nil)

	if !result.FallDetected {
		t.Fatal("FallDetected = false, want true")
	}
	if result.Event.Bounds != first {
		t.Errorf("Event.Bounds = %+v, want first detection %+v", result.Event.Bounds, first)
	}
	// Both detections still appear, in detector output order.
	if len(result.Detections) != 2 {
		t.Fatalf("len(Detections) = %d, want 2", len(result.Detections))
	}
	if result.Detections[0].Detection.Bounds != first || result.Detections[1].Detection.Bounds != second {
		t.Error("detections not in detector output order")
	}
	if !result.Detections[1].IsSuspect || result.Detections[1].Pose == nil {
		t.Error("second confirmed fall should still carry suspect flag and pose")
	}
}

func TestPipeline_ProcessFrame_DetectorErrorDegradesToEmpty(t *testing.T) {
	mockDetector := detector.NewMockDetector()
	mockDetector.SetError(errors.New("inference blew up"))

	p := newTestPipeline(mockDetector, pose.NewMockEstimator())
	result := p.ProcessFrame("cam-1", nil)

	if result.FallDetected {
		t.Error("FallDetected = true after detector error, want false")
	}
	if len(result.Detections) != 0 {
		t.Errorf("len(Detections) = %d after detector error, want 0", len(result.Detections))
	}
}

func TestPipeline_ProcessFrame_PoseErrorMeansNotConfirmed(t *testing.T) {
	mockDetector := detector.NewMockDetector()
	mockDetector.SetDetections([]detector.Detection{detector.FallenPersonDetection()})

	mockEstimator := pose.NewMockEstimator()
	mockEstimator.SetError(errors.New("crop failed"))

	p := newTestPipeline(mockDetector, mockEstimator)
	result := p.ProcessFrame("cam-1", nil)

	if result.FallDetected {
		t.Error("FallDetected = true after pose error, want false")
	}
	if len(result.Detections) != 1 {
		t.Fatalf("len(Detections) = %d, want 1", len(result.Detections))
	}
	if !result.Detections[0].IsSuspect {
		t.Error("IsSuspect = false, want true")
	}
	if result.Detections[0].Pose != nil {
		t.Error("Pose != nil after pose error")
	}
}

func TestPipeline_ProcessFrame_NilPoseMeansNotConfirmed(t *testing.T) {
	mockDetector := detector.NewMockDetector()
	mockDetector.SetDetections([]detector.Detection{detector.FallenPersonDetection()})

	// Estimator declines: no pose for this region.
	mockEstimator := pose.NewMockEstimator()
	mockEstimator.SetResult(nil)

	p := newTestPipeline(mockDetector, mockEstimator)
	result := p.ProcessFrame("cam-1", nil)

	if result.FallDetected {
		t.Error("FallDetected = true with nil pose, want false")
	}
}

func TestPipeline_ProcessFrame_StandingPoseNotConfirmed(t *testing.T) {
	mockDetector := detector.NewMockDetector()
	mockDetector.SetDetections([]detector.Detection{detector.FallenPersonDetection()})

	mockEstimator := pose.NewMockEstimator()
	mockEstimator.SetResult(pose.StandingPose())

	p := newTestPipeline(mockDetector, mockEstimator)
	result := p.ProcessFrame("cam-1", nil)

	if result.FallDetected {
		t.Error("FallDetected = true for standing pose, want false")
	}
	if result.Event != nil {
		t.Error("Event != nil for standing pose")
	}
}

func TestPipeline_ProcessFrame_DegradedFlagPropagates(t *testing.T) {
	degraded := detector.StandingPersonDetection()
	degraded.Degraded = true
	degraded.Confidence = detector.DegradedConfidence

	mockDetector := detector.NewMockDetector()
	mockDetector.SetDetections([]detector.Detection{degraded})

	p := newTestPipeline(mockDetector, pose.NewMockEstimator())
	result := p.ProcessFrame("cam-1", nil)

	if !result.Degraded {
		t.Error("Degraded = false for degraded detections, want true")
	}
}

func TestPipeline_ProcessFrame_InvariantFallImpliesEvent(t *testing.T) {
	mockDetector := detector.NewMockDetector()
	mockEstimator := pose.NewMockEstimator()
	p := newTestPipeline(mockDetector, mockEstimator)

	// Empty frame: no falls, no event.
	result := p.ProcessFrame("cam-1", nil)
	if result.FallDetected != (result.Event != nil) {
		t.Error("FallDetected and Event presence disagree")
	}

	// Confirmed fall: both set.
	mockDetector.SetDetections([]detector.Detection{detector.FallenPersonDetection()})
	mockEstimator.SetResult(pose.FallenPose())
	result = p.ProcessFrame("cam-1", nil)
	if !result.FallDetected || result.Event == nil {
		t.Error("confirmed fall must set both FallDetected and Event")
	}
}
