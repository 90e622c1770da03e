// Package device defines the compute device interfaces shared by the OCCA
// and host backends.
package device

import "fmt"

// FloatSize is the size in bytes of one device element (float32)
const FloatSize = 4

// Device is a compute device. It is acquired once and is not mutated after
// creation.
type Device interface {
	// Mode returns the backend mode, e.g. "Serial", "CUDA" or "Host"
	Mode() string

	// MaxThreadsPerGroup returns the largest thread-group width a kernel
	// built on this device may be launched with
	MaxThreadsPerGroup() int

	// Malloc allocates device memory for the given number of elements
	Malloc(elements int) (Memory, error)

	// BuildKernel compiles the named entry point from source
	BuildKernel(source, name string) (Kernel, error)

	// Finish blocks until all submitted work has completed
	Finish()

	// Free releases the device
	Free()
}

// Memory is a fixed-length float32 allocation on a device
type Memory interface {
	// Len returns the number of elements
	Len() int

	// Bytes returns the allocation length in bytes
	Bytes() int64

	// CopyFrom copies host data to the device
	CopyFrom(src []float32) error

	// CopyTo copies device data to the host
	CopyTo(dst []float32) error

	Free()
}

// Kernel is a compiled compute kernel
type Kernel interface {
	Name() string

	// Run submits one launch of the kernel. It may return before the
	// launch completes; use Device.Finish to wait.
	Run(launch Launch, args ...Memory) error

	Free()
}

// Dim3 represents 3D dimensions for grid and group configurations
type Dim3 struct {
	X, Y, Z int
}

// Size returns the total number of threads described by d
func (d Dim3) Size() int {
	return d.X * d.Y * d.Z
}

func (d Dim3) String() string {
	return fmt.Sprintf("%dx%dx%d", d.X, d.Y, d.Z)
}

// Launch is the geometry of one dispatch. Grid counts threads, not groups.
type Launch struct {
	Grid  Dim3
	Group Dim3
}

// NumGroups returns the number of thread-groups needed to cover the grid
// along each axis
func (l Launch) NumGroups() Dim3 {
	return Dim3{
		X: ceilDiv(l.Grid.X, l.Group.X),
		Y: ceilDiv(l.Grid.Y, l.Group.Y),
		Z: ceilDiv(l.Grid.Z, l.Group.Z),
	}
}

// Validate checks that the launch is non-empty and the group fits within max
func (l Launch) Validate(maxThreadsPerGroup int) error {
	if l.Grid.X <= 0 || l.Grid.Y <= 0 || l.Grid.Z <= 0 {
		return fmt.Errorf("invalid grid size %s", l.Grid)
	}
	if l.Group.X <= 0 || l.Group.Y <= 0 || l.Group.Z <= 0 {
		return fmt.Errorf("invalid group size %s", l.Group)
	}
	if maxThreadsPerGroup > 0 && l.Group.Size() > maxThreadsPerGroup {
		return fmt.Errorf("group size %s exceeds device maximum %d",
			l.Group, maxThreadsPerGroup)
	}
	return nil
}

// ElementCount converts a byte length into a float32 element count
func ElementCount(bytes int64) int {
	return int(bytes / FloatSize)
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
