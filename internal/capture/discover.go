package capture

import (
	"fmt"

	"gocv.io/x/gocv"
)

// DiscoveredDevice describes a locally attached webcam found by probing.
type DiscoveredDevice struct {
	Index int
	Name  string
	// Source is the registry/camera source string for this device.
	Source string
}

// maxProbeIndex is the highest device index probed; indices 0-2 cover a
// built-in camera plus a couple of USB devices.
const maxProbeIndex = 3

// DiscoverDevices probes local device indices and returns those that
// deliver two consecutive, distinct frames. Requiring distinct frames
// filters out devices that open but deliver a frozen image.
func DiscoverDevices() []DiscoveredDevice {
	var devices []DiscoveredDevice

	for i := 0; i < maxProbeIndex; i++ {
		if !probeDevice(i) {
			continue
		}

		name := fmt.Sprintf("Webcam %d", i)
		if i == 0 {
			name = "Built-in Camera"
		}

		devices = append(devices, DiscoveredDevice{
			Index:  i,
			Name:   name,
			Source: fmt.Sprintf("%d", i),
		})
	}

	return devices
}

// probeDevice opens the device, reads two frames, and reports whether they
// differ.
func probeDevice(index int) bool {
	cap, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return false
	}
	defer cap.Close()

	first := gocv.NewMat()
	defer first.Close()
	if ok := cap.Read(&first); !ok || first.Empty() {
		return false
	}

	second := gocv.NewMat()
	defer second.Close()
	if ok := cap.Read(&second); !ok || second.Empty() {
		return false
	}

	if first.Rows() != second.Rows() || first.Cols() != second.Cols() {
		return false
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(first, second, &diff)

	channels := gocv.Split(diff)
	defer func() {
		for _, ch := range channels {
			ch.Close()
		}
	}()

	for _, ch := range channels {
		if gocv.CountNonZero(ch) > 0 {
			return true
		}
	}
	return false
}
