package runner

import (
	"fmt"
)

// checkout hands the buffer to the device, copying host data over first
// when the parameter is read by the kernel
func (b *Buffer) checkout() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.owner != OwnerHost {
		return fmt.Errorf("%s: %w", b.Name, ErrBufferInFlight)
	}
	if b.Spec.NeedsCopyTo() {
		if err := b.mem.CopyFrom(b.host); err != nil {
			return fmt.Errorf("failed to copy %s to device: %w", b.Name, err)
		}
	}
	b.owner = OwnerDevice
	return nil
}

// release returns the buffer to the host. With copyBack set, kernel outputs
// are copied into the host slice before ownership changes.
func (b *Buffer) release(copyBack bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.owner != OwnerDevice {
		return nil
	}
	b.owner = OwnerHost
	if copyBack && b.Spec.NeedsCopyBack() {
		if err := b.mem.CopyTo(b.host); err != nil {
			return fmt.Errorf("failed to copy %s from device: %w", b.Name, err)
		}
	}
	return nil
}

func (b *Buffer) free() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mem != nil {
		b.mem.Free()
	}
	b.owner = OwnerHost
}

// Upload copies the host view of a host-owned buffer to the device
// regardless of its direction
func (b *Buffer) Upload() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.owner != OwnerHost {
		return fmt.Errorf("%s: %w", b.Name, ErrBufferInFlight)
	}
	return b.mem.CopyFrom(b.host)
}

// Download refreshes the host view of a host-owned buffer from the device
// regardless of its direction
func (b *Buffer) Download() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.owner != OwnerHost {
		return fmt.Errorf("%s: %w", b.Name, ErrBufferInFlight)
	}
	return b.mem.CopyTo(b.host)
}
