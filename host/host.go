// Package host provides a CPU implementation of device.Device.
//
// Kernels are Go functions registered by name. A launch spreads its
// thread-groups across runtime.NumCPU() goroutines; the threads of one
// group run sequentially on the goroutine that owns the group, the same
// way a GPU runtime schedules a group onto a single compute unit.
//
// Example usage:
//
//	dev := host.NewDevice(0)
//	defer dev.Free()
//
//	dev.RegisterKernel("scale", func(tid host.ThreadID, args ...[]float32) {
//		i := tid.Global()
//		if i < len(args[0]) {
//			args[1][i] = 2 * args[0][i]
//		}
//	})
package host

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/notargets/vecadd/device"
	"golang.org/x/sys/cpu"
)

// DefaultMaxThreadsPerGroup matches the common GPU limit on threads per group
const DefaultMaxThreadsPerGroup = 1024

// ThreadID identifies a thread's position within the launch
type ThreadID struct {
	GroupIdx  device.Dim3 // Group index within the grid
	ThreadIdx device.Dim3 // Thread index within the group
	GroupDim  device.Dim3 // Dimensions of the group
	NumGroups device.Dim3 // Number of groups along each axis
}

// Global returns the linear global X index
func (tid ThreadID) Global() int {
	return tid.GroupIdx.X*tid.GroupDim.X + tid.ThreadIdx.X
}

// GlobalY returns the global Y index
func (tid ThreadID) GlobalY() int {
	return tid.GroupIdx.Y*tid.GroupDim.Y + tid.ThreadIdx.Y
}

// GlobalZ returns the global Z index
func (tid ThreadID) GlobalZ() int {
	return tid.GroupIdx.Z*tid.GroupDim.Z + tid.ThreadIdx.Z
}

// KernelFunc is executed once per thread. Kernels must bounds-check the
// global index themselves since the last group may be partially filled.
type KernelFunc func(tid ThreadID, args ...[]float32)

// Device is the CPU compute device
type Device struct {
	name       string
	maxThreads int
	workers    int

	mu      sync.RWMutex
	kernels map[string]KernelFunc
	pending sync.WaitGroup
}

// NewDevice creates a host device. A maxThreadsPerGroup of zero selects
// DefaultMaxThreadsPerGroup.
func NewDevice(maxThreadsPerGroup int) *Device {
	if maxThreadsPerGroup <= 0 {
		maxThreadsPerGroup = DefaultMaxThreadsPerGroup
	}
	name := fmt.Sprintf("CPU (%s, %d cores)", runtime.GOARCH, runtime.NumCPU())
	if f := features(); len(f) > 0 {
		name += " [" + strings.Join(f, " ") + "]"
	}
	return &Device{
		name:       name,
		maxThreads: maxThreadsPerGroup,
		workers:    runtime.NumCPU(),
		kernels:    make(map[string]KernelFunc),
	}
}

func features() []string {
	var f []string
	switch {
	case cpu.X86.HasAVX512F:
		f = append(f, "avx512f")
	case cpu.X86.HasAVX2:
		f = append(f, "avx2")
	case cpu.ARM64.HasASIMD:
		f = append(f, "asimd")
	}
	if cpu.X86.HasFMA {
		f = append(f, "fma")
	}
	if cpu.ARM64.HasFPHP {
		f = append(f, "fphp")
	}
	return f
}

func (d *Device) Mode() string            { return "Host" }
func (d *Device) Name() string            { return d.name }
func (d *Device) MaxThreadsPerGroup() int { return d.maxThreads }

// RegisterKernel makes fn available to BuildKernel under name
func (d *Device) RegisterKernel(name string, fn KernelFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.kernels[name] = fn
}

func (d *Device) Malloc(elements int) (device.Memory, error) {
	if elements <= 0 {
		return nil, fmt.Errorf("invalid allocation size: %d elements", elements)
	}
	return &memory{data: make([]float32, elements)}, nil
}

// BuildKernel looks up a registered kernel. The source is not compiled;
// the Go function registered under name is the kernel.
func (d *Device) BuildKernel(source, name string) (device.Kernel, error) {
	d.mu.RLock()
	fn, ok := d.kernels[name]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("kernel %s not registered on host device", name)
	}
	return &kernel{name: name, fn: fn, dev: d}, nil
}

// Finish blocks until every launch submitted to this device has completed
func (d *Device) Finish() {
	d.pending.Wait()
}

func (d *Device) Free() {
	d.Finish()
	d.mu.Lock()
	d.kernels = make(map[string]KernelFunc)
	d.mu.Unlock()
}

type memory struct {
	mu   sync.RWMutex
	data []float32
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *memory) Bytes() int64 {
	return int64(m.Len()) * device.FloatSize
}

func (m *memory) CopyFrom(src []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return fmt.Errorf("memory has been freed")
	}
	if len(src) > len(m.data) {
		return fmt.Errorf("buffer too small: %d < %d", len(m.data), len(src))
	}
	copy(m.data, src)
	return nil
}

func (m *memory) CopyTo(dst []float32) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil {
		return fmt.Errorf("memory has been freed")
	}
	if len(dst) < len(m.data) {
		return fmt.Errorf("destination buffer too small: %d < %d", len(dst), len(m.data))
	}
	copy(dst, m.data)
	return nil
}

func (m *memory) Free() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
}

type kernel struct {
	name string
	fn   KernelFunc
	dev  *Device
}

func (k *kernel) Name() string { return k.name }

func (k *kernel) Free() {}

// Run validates the launch and starts it on worker goroutines. It returns
// before the launch completes.
func (k *kernel) Run(launch device.Launch, args ...device.Memory) error {
	if err := launch.Validate(k.dev.maxThreads); err != nil {
		return fmt.Errorf("kernel %s: %w", k.name, err)
	}

	slices := make([][]float32, len(args))
	for i, a := range args {
		m, ok := a.(*memory)
		if !ok {
			return fmt.Errorf("kernel %s: argument %d is not host memory", k.name, i)
		}
		m.mu.RLock()
		slices[i] = m.data
		m.mu.RUnlock()
		if slices[i] == nil {
			return fmt.Errorf("kernel %s: argument %d has been freed", k.name, i)
		}
	}

	numGroups := launch.NumGroups()
	totalGroups := numGroups.Size()
	numWorkers := k.dev.workers
	if totalGroups < numWorkers {
		numWorkers = totalGroups
	}
	groupsPerWorker := (totalGroups + numWorkers - 1) / numWorkers

	k.dev.pending.Add(1)
	go func() {
		defer k.dev.pending.Done()

		var wg sync.WaitGroup
		wg.Add(numWorkers)
		for w := 0; w < numWorkers; w++ {
			start := w * groupsPerWorker
			end := min(start+groupsPerWorker, totalGroups)
			go func() {
				defer wg.Done()
				for g := start; g < end; g++ {
					groupIdx := linearTo3D(g, numGroups)
					for t := 0; t < launch.Group.Size(); t++ {
						k.fn(ThreadID{
							GroupIdx:  groupIdx,
							ThreadIdx: linearTo3D(t, launch.Group),
							GroupDim:  launch.Group,
							NumGroups: numGroups,
						}, slices...)
					}
				}
			}()
		}
		wg.Wait()
	}()

	return nil
}

// linearTo3D converts a linear index to 3D coordinates
func linearTo3D(linear int, dim device.Dim3) device.Dim3 {
	z := linear / (dim.X * dim.Y)
	y := (linear % (dim.X * dim.Y)) / dim.X
	x := linear % dim.X
	return device.Dim3{X: x, Y: y, Z: z}
}
