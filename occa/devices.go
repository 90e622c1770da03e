// Package occa implements device.Device on top of OCCA through gocca.
//
// Builds without cgo get a stub whose NewDevice always fails with
// ErrUnavailable, so the host backend keeps working without libocca.
//
// OCCA kernels are written in OKL. Launch geometry is not passed at run
// time: it comes from the @outer and @inner loop bounds of the kernel,
// which the runner fixes through the generated preamble.
package occa

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned by NewDevice in builds without cgo
var ErrUnavailable = errors.New("OCCA support requires cgo and libocca")

// DefaultDevices lists the property strings tried by CreateDevice when no
// explicit list is given, most parallel first
var DefaultDevices = []string{
	`{"mode": "CUDA", "device_id": 0}`,
	`{"mode": "Metal", "device_id": 0}`,
	`{"mode": "OpenMP"}`,
	`{"mode": "Serial"}`,
}

// maxInner is the largest @inner extent accepted per mode
var maxInner = map[string]int{
	"CUDA":   1024,
	"HIP":    1024,
	"Metal":  1024,
	"OpenCL": 256,
	"OpenMP": 1024,
	"Serial": 1024,
}

// maxThreadsFor returns the @inner bound for mode, 256 when unknown
func maxThreadsFor(mode string) int {
	if n, ok := maxInner[mode]; ok {
		return n
	}
	return 256
}

// CreateDevice tries each property string in order and returns the first
// device that opens. DefaultDevices is used when props is empty.
func CreateDevice(props ...string) (*Device, error) {
	if len(props) == 0 {
		props = DefaultDevices
	}
	var lastErr error
	for _, p := range props {
		dev, err := NewDevice(p)
		if err == nil {
			return dev, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no OCCA device available (tried %d): %w", len(props), lastErr)
}
