//go:build cgo

package occa

import (
	"fmt"
	"unsafe"

	"github.com/notargets/gocca"
	"github.com/notargets/vecadd/device"
)

// Device wraps a gocca device
type Device struct {
	dev        *gocca.OCCADevice
	maxThreads int
}

// NewDevice opens the OCCA device described by props
func NewDevice(props string) (*Device, error) {
	dev, err := gocca.NewDevice(props)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCCA device %s: %w", props, err)
	}
	return &Device{dev: dev, maxThreads: maxThreadsFor(dev.Mode())}, nil
}

func (d *Device) Mode() string { return d.dev.Mode() }

func (d *Device) MaxThreadsPerGroup() int { return d.maxThreads }

// SetMaxThreadsPerGroup lowers the group width bound, e.g. for devices whose
// compiled kernels cannot reach the mode default
func (d *Device) SetMaxThreadsPerGroup(n int) {
	if n > 0 && n < d.maxThreads {
		d.maxThreads = n
	}
}

func (d *Device) Malloc(elements int) (device.Memory, error) {
	if elements <= 0 {
		return nil, fmt.Errorf("invalid allocation size: %d elements", elements)
	}
	bytes := int64(elements) * device.FloatSize
	mem := d.dev.Malloc(bytes, nil, nil)
	if mem == nil {
		return nil, fmt.Errorf("failed to allocate %d bytes on %s", bytes, d.Mode())
	}
	return &memory{mem: mem, elements: elements}, nil
}

func (d *Device) BuildKernel(source, name string) (device.Kernel, error) {
	var (
		k   *gocca.OCCAKernel
		err error
	)
	if d.dev.Mode() == "OpenMP" {
		// OpenMP does not get -O3 by default
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		k, err = d.dev.BuildKernelFromString(source, name, props)
	} else {
		k, err = d.dev.BuildKernelFromString(source, name, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build kernel %s: %w", name, err)
	}
	if k == nil {
		return nil, fmt.Errorf("kernel build returned nil for %s", name)
	}
	return &kernel{name: name, k: k, maxThreads: d.maxThreads}, nil
}

func (d *Device) Finish() { d.dev.Finish() }

func (d *Device) Free() { d.dev.Free() }

type memory struct {
	mem      *gocca.OCCAMemory
	elements int
}

func (m *memory) Len() int     { return m.elements }
func (m *memory) Bytes() int64 { return int64(m.elements) * device.FloatSize }

func (m *memory) CopyFrom(src []float32) error {
	if m.mem == nil {
		return fmt.Errorf("memory has been freed")
	}
	if len(src) > m.elements {
		return fmt.Errorf("buffer too small: %d < %d", m.elements, len(src))
	}
	if len(src) == 0 {
		return nil
	}
	m.mem.CopyFrom(unsafe.Pointer(&src[0]), int64(len(src))*device.FloatSize)
	return nil
}

func (m *memory) CopyTo(dst []float32) error {
	if m.mem == nil {
		return fmt.Errorf("memory has been freed")
	}
	if len(dst) < m.elements {
		return fmt.Errorf("destination buffer too small: %d < %d", len(dst), m.elements)
	}
	m.mem.CopyTo(unsafe.Pointer(&dst[0]), m.Bytes())
	return nil
}

func (m *memory) Free() {
	if m.mem != nil {
		m.mem.Free()
		m.mem = nil
	}
}

type kernel struct {
	name       string
	k          *gocca.OCCAKernel
	maxThreads int
}

func (k *kernel) Name() string { return k.name }

// Run submits the kernel. The launch is only validated here; OCCA derives
// the actual geometry from the loop bounds compiled into the kernel.
func (k *kernel) Run(launch device.Launch, args ...device.Memory) error {
	if err := launch.Validate(k.maxThreads); err != nil {
		return fmt.Errorf("kernel %s: %w", k.name, err)
	}
	occaArgs := make([]interface{}, 0, len(args))
	for i, a := range args {
		m, ok := a.(*memory)
		if !ok {
			return fmt.Errorf("kernel %s: argument %d is not OCCA memory", k.name, i)
		}
		if m.mem == nil {
			return fmt.Errorf("kernel %s: argument %d has been freed", k.name, i)
		}
		occaArgs = append(occaArgs, m.mem)
	}
	if err := k.k.RunWithArgs(occaArgs...); err != nil {
		return fmt.Errorf("kernel execution failed: %w", err)
	}
	return nil
}

func (k *kernel) Free() {
	if k.k != nil {
		k.k.Free()
		k.k = nil
	}
}
