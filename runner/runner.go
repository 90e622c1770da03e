package runner

import (
	"errors"
	"fmt"

	"github.com/notargets/vecadd/device"
	"github.com/notargets/vecadd/logging"
	"github.com/notargets/vecadd/runner/builder"
)

var (
	// ErrBufferInFlight is returned when a buffer is accessed or dispatched
	// while a submission still owns it
	ErrBufferInFlight = errors.New("buffer is checked out to the device")

	// ErrNotAllocated is returned by operations that need AllocateDevice first
	ErrNotAllocated = errors.New("device memory not allocated - call AllocateDevice first")

	// ErrUnknownBuffer is returned when a dispatch names an undefined binding
	ErrUnknownBuffer = errors.New("unknown buffer")
)

// Runner orchestrates kernel compilation and execution over bound buffers
type Runner struct {
	*builder.Builder
	Device      device.Device
	Kernels     map[string]device.Kernel
	Buffers     map[string]*Buffer
	IsAllocated bool
}

// NewRunner creates a new Runner instance
func NewRunner(dev device.Device, cfg builder.Config) *Runner {
	return &Runner{
		Builder: builder.NewBuilder(cfg),
		Device:  dev,
		Kernels: make(map[string]device.Kernel),
		Buffers: make(map[string]*Buffer),
	}
}

// Pipeline is a compiled kernel together with the launch geometry it was
// compiled for
type Pipeline struct {
	Kernel     device.Kernel
	Launch     device.Launch
	maxThreads int
}

// MaxThreadsPerGroup returns the group size bound the launch was sized
// with, including any MaxGroupWidth cap
func (p *Pipeline) MaxThreadsPerGroup() int { return p.maxThreads }

// Name returns the kernel entry point
func (p *Pipeline) Name() string { return p.Kernel.Name() }

// BuildKernel compiles kernelSource behind the generated preamble and
// registers the result under kernelName
func (kr *Runner) BuildKernel(kernelSource, kernelName string) (*Pipeline, error) {
	maxThreads := kr.Device.MaxThreadsPerGroup()
	kr.GeneratePreamble(maxThreads)

	fullSource := kr.KernelPreamble + "\n" + kernelSource

	kernel, err := kr.Device.BuildKernel(fullSource, kernelName)
	if err != nil {
		return nil, fmt.Errorf("failed to build kernel %s: %w", kernelName, err)
	}
	if old, exists := kr.Kernels[kernelName]; exists {
		old.Free()
	}
	kr.Kernels[kernelName] = kernel

	p := &Pipeline{
		Kernel:     kernel,
		Launch:     kr.Launch(maxThreads),
		maxThreads: kr.GroupLimit(maxThreads),
	}
	logging.Debugf("built %s on %s: grid %s, group %s",
		kernelName, kr.Device.Mode(), p.Launch.Grid, p.Launch.Group)
	return p, nil
}

// GetBuffer returns the named buffer, or nil
func (kr *Runner) GetBuffer(name string) *Buffer {
	return kr.Buffers[name]
}

// Free releases all resources. Outstanding work is waited on first.
func (kr *Runner) Free() {
	kr.Device.Finish()

	for name, kernel := range kr.Kernels {
		kernel.Free()
		delete(kr.Kernels, name)
	}

	for _, buf := range kr.Buffers {
		buf.free()
	}
	kr.IsAllocated = false
}
