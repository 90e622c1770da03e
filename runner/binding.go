package runner

import (
	"fmt"
	"sync"

	"github.com/notargets/vecadd/device"
	"github.com/notargets/vecadd/runner/builder"
)

// Owner records which side may touch a buffer's contents
type Owner int

const (
	OwnerHost Owner = iota
	OwnerDevice
)

func (o Owner) String() string {
	if o == OwnerDevice {
		return "device"
	}
	return "host"
}

// Buffer is a host-visible buffer paired with device memory of the same
// length. The host side may only be used while the buffer is owned by the
// host; a dispatch checks it out to the device until its submission is
// waited on.
type Buffer struct {
	Name string
	Spec builder.ParamSpec

	mu    sync.Mutex
	host  []float32
	mem   device.Memory
	owner Owner
}

// Host returns the host view of the buffer. It fails with
// ErrBufferInFlight while a dispatch owns the buffer.
func (b *Buffer) Host() ([]float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.owner != OwnerHost {
		return nil, fmt.Errorf("%s: %w", b.Name, ErrBufferInFlight)
	}
	return b.host, nil
}

// Owner returns the current owner
func (b *Buffer) Owner() Owner {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.owner
}

// Bytes returns the device allocation length in bytes
func (b *Buffer) Bytes() int64 {
	return b.mem.Bytes()
}

// Len returns the element count, derived from the byte length
func (b *Buffer) Len() int {
	return device.ElementCount(b.Bytes())
}

// Memory exposes the device allocation
func (b *Buffer) Memory() device.Memory {
	return b.mem
}

// DefineBindings registers the buffers used by kernels. Every binding must
// have exactly Length elements.
func (kr *Runner) DefineBindings(params ...*builder.ParamBuilder) error {
	if kr.IsAllocated {
		return fmt.Errorf("bindings cannot be defined after AllocateDevice has been called")
	}

	for i, p := range params {
		if err := kr.AddParam(p.Spec); err != nil {
			return fmt.Errorf("parameter %d: %w", i, err)
		}
	}
	return nil
}

// AllocateDevice allocates device memory for every defined binding.
// Unbound parameters get a host slice of their own.
func (kr *Runner) AllocateDevice() error {
	if kr.IsAllocated {
		return nil
	}

	for _, spec := range kr.Params {
		if builder.SizeOfType(spec.DataType) != device.FloatSize {
			return fmt.Errorf("%s: device buffers hold float32, got %s", spec.Name, spec.DataType)
		}
		mem, err := kr.Device.Malloc(int(spec.Size))
		if err != nil {
			return fmt.Errorf("failed to allocate %s: %w", spec.Name, err)
		}

		host := spec.HostBinding
		if host == nil {
			host = make([]float32, spec.Size)
		}

		kr.Buffers[spec.Name] = &Buffer{
			Name:  spec.Name,
			Spec:  spec,
			host:  host,
			mem:   mem,
			owner: OwnerHost,
		}
	}

	kr.IsAllocated = true
	return nil
}
