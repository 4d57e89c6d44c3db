package capture

import (
	"testing"

	"github.com/rohanpai/fallwatch/internal/testutil"
	"gocv.io/x/gocv"
)

func mockWithFrames(t *testing.T, n int) *MockCamera {
	t.Helper()

	frame := testutil.BlankFrame()
	defer frame.Close()

	frames := testutil.FrameSequence(frame, n)
	t.Cleanup(func() {
		for _, f := range frames {
			f.Close()
		}
	})
	return NewMockCamera(frames, true)
}

func TestRegistry_AddAndAcquire(t *testing.T) {
	r := NewRegistry()
	defer r.ReleaseAll()

	cam := mockWithFrames(t, 1)
	if err := r.Add("cam-1", cam); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !cam.IsOpen() {
		t.Error("Add() left camera closed")
	}

	// Acquire returns the registered handle instead of opening the source.
	got, err := r.Acquire("cam-1", "/dev/video99")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got != Camera(cam) {
		t.Error("Acquire() returned a different handle than Add registered")
	}
	if r.Active() != 1 {
		t.Errorf("Active() = %d, want 1", r.Active())
	}
}

func TestRegistry_Release(t *testing.T) {
	r := NewRegistry()

	cam := mockWithFrames(t, 1)
	if err := r.Add("cam-1", cam); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := r.Release("cam-1"); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if cam.IsOpen() {
		t.Error("Release() left camera open")
	}
	if r.Active() != 0 {
		t.Errorf("Active() = %d, want 0", r.Active())
	}

	// Releasing again, or releasing an unknown camera, is a no-op.
	if err := r.Release("cam-1"); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
	if err := r.Release("never-registered"); err != nil {
		t.Errorf("Release(unknown) error = %v", err)
	}
}

func TestRegistry_ReleaseAll(t *testing.T) {
	r := NewRegistry()

	cams := []*MockCamera{mockWithFrames(t, 1), mockWithFrames(t, 1)}
	for i, cam := range cams {
		if err := r.Add(string(rune('a'+i)), cam); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	r.ReleaseAll()

	if r.Active() != 0 {
		t.Errorf("Active() = %d after ReleaseAll, want 0", r.Active())
	}
	for i, cam := range cams {
		if cam.IsOpen() {
			t.Errorf("camera %d still open after ReleaseAll", i)
		}
	}
}

func TestMockCamera_Playback(t *testing.T) {
	cam := mockWithFrames(t, 2)
	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	for i := 0; i < 5; i++ {
		frame, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() #%d error = %v", i, err)
		}
		if frame.Empty() {
			t.Errorf("ReadFrame() #%d returned empty frame", i)
		}
		frame.Close()
	}
}

func TestMockCamera_NoLoopExhausts(t *testing.T) {
	frame := testutil.BlankFrame()
	defer frame.Close()
	frames := testutil.FrameSequence(frame, 2)
	defer func() {
		for _, f := range frames {
			f.Close()
		}
	}()

	cam := NewMockCamera(frames, false)
	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	for i := 0; i < 2; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() #%d error = %v", i, err)
		}
		f.Close()
	}
	if _, err := cam.ReadFrame(); err == nil {
		t.Error("ReadFrame() succeeded past the end of a non-looping sequence")
	}
}

func TestMockCamera_FailAfter(t *testing.T) {
	cam := mockWithFrames(t, 1)
	cam.FailAfter(2)
	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	for i := 0; i < 2; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() #%d error = %v", i, err)
		}
		f.Close()
	}
	if _, err := cam.ReadFrame(); err == nil {
		t.Error("ReadFrame() succeeded after the configured failure point")
	}
}

func TestMockCamera_NotOpen(t *testing.T) {
	var frames []*gocv.Mat
	cam := NewMockCamera(frames, false)

	if _, err := cam.ReadFrame(); err != ErrCameraNotOpen {
		t.Errorf("ReadFrame() error = %v, want %v", err, ErrCameraNotOpen)
	}
}
