//go:build !cgo

package occa

import (
	"fmt"

	"github.com/notargets/vecadd/device"
)

// Device stub for non-cgo builds
type Device struct {
	maxThreads int
}

// NewDevice always fails without cgo
func NewDevice(props string) (*Device, error) {
	return nil, fmt.Errorf("failed to create OCCA device %s: %w", props, ErrUnavailable)
}

func (d *Device) Mode() string            { return "unavailable" }
func (d *Device) MaxThreadsPerGroup() int { return d.maxThreads }
func (d *Device) SetMaxThreadsPerGroup(n int) {
	if n > 0 && (d.maxThreads == 0 || n < d.maxThreads) {
		d.maxThreads = n
	}
}
func (d *Device) Malloc(elements int) (device.Memory, error) { return nil, ErrUnavailable }
func (d *Device) BuildKernel(source, name string) (device.Kernel, error) {
	return nil, ErrUnavailable
}
func (d *Device) Finish() {}
func (d *Device) Free()   {}
