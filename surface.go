package kms

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/BeatGlow/kms/pixel"
)

// Surface is a buffer registered as a framebuffer, usable as a CRTC target.
//
// A surface is either allocated by [NewSurface] and backed by a [Buffer], or
// created by [Screen.ImportSurface] from a buffer shared by another device.
type Surface struct {
	dev Device

	// ID is the framebuffer id.
	ID uint32

	Width, Height int
	Format        Format
	Pitch         uint32

	buf       *Buffer
	handle    uint32 // imported buffer handle, 0 for allocated surfaces
	destroyed bool
}

// NewSurface allocates a buffer on dev and registers it as a framebuffer.
// Supported formats are C8 and XRGB8888.
func NewSurface(dev Device, width, height int, format Format) (*Surface, error) {
	switch format {
	case C8, XRGB8888:
	default:
		return nil, newError("create surface", ErrUnsupportedFormat, fmt.Errorf("format %s", format))
	}

	buf, err := NewBuffer(dev, width, height, format.BitsPerPixel())
	if err != nil {
		return nil, err
	}

	id, err := dev.AddFB2(uint32(width), uint32(height), format, buf.Handle, buf.Pitch, 0)
	if err != nil {
		return nil, errors.Join(newError("create surface", ErrDevice, err), buf.Destroy())
	}
	debugf("surface %d: %dx%d %s on buffer %d", id, width, height, format, buf.Handle)

	return &Surface{
		dev:    dev,
		ID:     id,
		Width:  width,
		Height: height,
		Format: format,
		Pitch:  buf.Pitch,
		buf:    buf,
	}, nil
}

// Imported reports whether the surface wraps a buffer of another device.
func (s *Surface) Imported() bool {
	return s.buf == nil
}

// Buffer returns the backing buffer, nil for imported surfaces.
func (s *Surface) Buffer() *Buffer {
	return s.buf
}

// Lock maps the surface memory for CPU access. Imported surfaces are mapped
// on the device that exported them.
func (s *Surface) Lock() (*Mapping, error) {
	if s.destroyed {
		return nil, newError("lock surface", ErrClosed, nil)
	}
	if s.buf == nil {
		return nil, newError("lock surface", ErrImport, errors.New("imported surfaces can not be mapped"))
	}
	return s.buf.Map()
}

// Unlock releases a mapping returned by Lock.
func (s *Surface) Unlock(m *Mapping) {
	m.Release()
}

// Image returns the locked surface memory as an image. For C8 surfaces,
// palette sets the colors of the indexes.
func (s *Surface) Image(m *Mapping, palette color.Palette) (pixel.Image, error) {
	mem := m.Bytes()
	if mem == nil {
		return nil, newError("surface image", ErrClosed, nil)
	}
	return NewImage(mem, s.Width, s.Height, int(s.Pitch), s.Format, palette)
}

// Locked reports whether a mapping of the surface is held.
func (s *Surface) Locked() bool {
	return s != nil && s.buf != nil && s.buf.Refs() > 0
}

// Destroy unregisters the framebuffer, then releases the buffer. It fails
// with ErrBusy while the surface is locked. Destroying a nil surface is a
// no-op.
func (s *Surface) Destroy() error {
	if s == nil || s.destroyed {
		return nil
	}
	if s.Locked() {
		return newError("destroy surface", ErrBusy, fmt.Errorf("framebuffer %d is locked", s.ID))
	}
	s.destroyed = true

	var errs []error
	if err := s.dev.RemoveFB(s.ID); err != nil {
		errs = append(errs, newError("destroy surface", ErrDevice, err))
	}
	if s.buf != nil {
		errs = append(errs, s.buf.Destroy())
	} else if err := s.dev.CloseHandle(s.handle); err != nil {
		errs = append(errs, newError("destroy surface", ErrDevice, err))
	}
	debugf("surface %d: destroyed", s.ID)
	return errors.Join(errs...)
}
