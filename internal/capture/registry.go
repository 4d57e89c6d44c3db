package capture

import (
	"fmt"
	"sync"
)

// Registry maps camera identifiers to their capture handles. A handle is
// created and opened on first acquisition and then shared; access to the
// map is mutex-guarded so concurrent acquire/release on the same camera
// cannot race. Each Camera implementation serializes its own reads.
type Registry struct {
	mu      sync.Mutex
	cameras map[string]Camera
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		cameras: make(map[string]Camera),
	}
}

// Acquire returns the open capture handle for cameraID, creating and
// opening one from source on first use.
func (r *Registry) Acquire(cameraID, source string) (Camera, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cam, ok := r.cameras[cameraID]; ok {
		return cam, nil
	}

	cam := NewCamera(source)
	if err := cam.Open(); err != nil {
		return nil, fmt.Errorf("open camera %s: %w", cameraID, err)
	}

	r.cameras[cameraID] = cam
	return cam, nil
}

// Add registers an already-constructed camera under cameraID, opening it
// if needed. Used by tests to inject mock cameras.
func (r *Registry) Add(cameraID string, cam Camera) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !cam.IsOpen() {
		if err := cam.Open(); err != nil {
			return err
		}
	}
	r.cameras[cameraID] = cam
	return nil
}

// Release closes and removes the capture handle for cameraID. Releasing an
// unknown or already-released camera is a no-op.
func (r *Registry) Release(cameraID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cam, ok := r.cameras[cameraID]
	if !ok {
		return nil
	}

	delete(r.cameras, cameraID)
	return cam.Close()
}

// ReleaseAll closes every registered capture handle.
func (r *Registry) ReleaseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, cam := range r.cameras {
		cam.Close()
		delete(r.cameras, id)
	}
}

// Active returns the number of currently held capture handles.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cameras)
}
