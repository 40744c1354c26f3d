package kms

import (
	"errors"
	"fmt"
	"math"
)

// Buffer is a dumb buffer: linear, CPU mappable memory allocated by the
// driver. The handle is released exactly once, by Destroy.
type Buffer struct {
	dev Device

	// Handle is the driver handle of the allocation.
	Handle uint32

	// Pitch is the number of bytes between two rows.
	Pitch uint32

	// Size of the allocation in bytes.
	Size uint64

	// Dimensions in pixels and the storage size of a pixel in bits.
	Width, Height, BPP int

	mem       []byte
	refs      int
	destroyed bool
}

// NewBuffer allocates a dumb buffer on dev.
func NewBuffer(dev Device, width, height, bpp int) (*Buffer, error) {
	if width <= 0 || height <= 0 || bpp <= 0 {
		return nil, newError("create buffer", ErrAllocation, fmt.Errorf("invalid size %dx%d@%d", width, height, bpp))
	}
	if uint64(width) > math.MaxUint32 || uint64(height) > math.MaxUint32 || uint64(bpp) > math.MaxUint32 {
		return nil, newError("create buffer", ErrAllocation, fmt.Errorf("size %dx%d@%d out of range", width, height, bpp))
	}
	dumb, err := dev.CreateDumb(uint32(width), uint32(height), uint32(bpp))
	if err != nil {
		return nil, newError("create buffer", ErrAllocation, err)
	}
	debugf("buffer %d: %dx%d@%d pitch %d size %d", dumb.Handle, width, height, bpp, dumb.Pitch, dumb.Size)
	return &Buffer{
		dev:    dev,
		Handle: dumb.Handle,
		Pitch:  dumb.Pitch,
		Size:   dumb.Size,
		Width:  width,
		Height: height,
		BPP:    bpp,
	}, nil
}

// Map makes the buffer memory accessible. The first call maps the buffer;
// later calls hand out the same memory until Destroy. Every Mapping must be
// released.
func (b *Buffer) Map() (*Mapping, error) {
	if b.destroyed {
		return nil, newError("map buffer", ErrClosed, nil)
	}
	if b.mem == nil {
		offset, err := b.dev.MapDumb(b.Handle)
		if err != nil {
			return nil, newError("map buffer", ErrDevice, err)
		}
		mem, err := b.dev.Mmap(int64(offset), int(b.Size))
		if err != nil {
			return nil, newError("map buffer", ErrResource, err)
		}
		b.mem = mem
	}
	b.refs++
	return &Mapping{buf: b}, nil
}

// Mapped reports whether the buffer memory is currently mapped.
func (b *Buffer) Mapped() bool {
	return b.mem != nil
}

// Refs is the number of outstanding mappings.
func (b *Buffer) Refs() int {
	return b.refs
}

// Destroy unmaps the buffer and frees its handle. It fails with ErrBusy,
// leaving the buffer intact, while a Mapping is held.
func (b *Buffer) Destroy() error {
	if b == nil || b.destroyed {
		return nil
	}
	if b.refs > 0 {
		return newError("destroy buffer", ErrBusy, fmt.Errorf("buffer %d has %d mappings held", b.Handle, b.refs))
	}
	b.destroyed = true

	var errs []error
	if b.mem != nil {
		if err := b.dev.Munmap(b.mem); err != nil {
			errs = append(errs, newError("destroy buffer", ErrDevice, err))
		}
		b.mem = nil
	}
	if err := b.dev.DestroyDumb(b.Handle); err != nil {
		errs = append(errs, newError("destroy buffer", ErrDevice, err))
	}
	return errors.Join(errs...)
}

// Mapping is one reference to the mapped memory of a Buffer.
type Mapping struct {
	buf      *Buffer
	released bool
}

// Bytes returns the mapped memory, or nil once the mapping was released or
// the buffer destroyed.
func (m *Mapping) Bytes() []byte {
	if m == nil || m.released {
		return nil
	}
	return m.buf.mem
}

// Release drops the reference. It is safe to call more than once.
func (m *Mapping) Release() {
	if m == nil || m.released {
		return
	}
	m.released = true
	if m.buf.refs > 0 {
		m.buf.refs--
	}
}
