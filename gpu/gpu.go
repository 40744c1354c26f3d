// Package gpu renders frames on a graphics adapter and hands them to a display
// device as shared DMA-BUF buffers.
//
// Rendering is done by the CPU into dumb buffers of the adapter, through the
// image/draw interfaces and the helpers of package draw. A [Surface] is a
// chain of such buffers: the caller draws into [Surface.Image], presents with
// [Surface.SwapBuffers] and exports the last presented frame with
// [Surface.LockFrontBuffer] for [kms.Screen.ImportSurface].
package gpu

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/BeatGlow/kms"
	"github.com/BeatGlow/kms/drm"
)

// Usage flags of a surface.
type Usage uint8

const (
	// Scanout surfaces can be exported to a display device.
	Scanout Usage = 1 << iota

	// Render surfaces can be drawn into.
	Render
)

func (u Usage) String() string {
	switch u {
	case 0:
		return "none"
	case Scanout:
		return "scanout"
	case Render:
		return "render"
	case Scanout | Render:
		return "scanout|render"
	default:
		return fmt.Sprintf("usage(%#x)", uint8(u))
	}
}

// DefaultBuffers is the length of a surface buffer chain.
const DefaultBuffers = 3

// dmabuf holds the DMA-BUF operations on exported buffers.
var dmabuf = struct {
	mmap   func(fd, length int) ([]byte, error)
	munmap func([]byte) error
	sync   func(fd int, flags uint64) error
	close  func(fd int) error
}{
	mmap: func(fd, length int) ([]byte, error) {
		return unix.Mmap(fd, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	},
	munmap: unix.Munmap,
	sync:   drm.SyncDMABuf,
	close:  unix.Close,
}

// Adapter is a graphics adapter used for rendering.
type Adapter struct {
	dev       kms.Device
	ownDevice bool
	closed    bool
}

// Open the adapter device node at path, such as /dev/dri/renderD128.
func Open(path string) (*Adapter, error) {
	card, err := drm.Open(path)
	if err != nil {
		return nil, &kms.Error{Op: "open adapter", Kind: kms.ErrDevice, Err: err}
	}
	a := New(card)
	a.ownDevice = true
	return a, nil
}

// New returns an adapter on an open device. The device stays owned by the
// caller.
func New(dev kms.Device) *Adapter {
	return &Adapter{dev: dev}
}

// Device returns the adapter device.
func (a *Adapter) Device() kms.Device {
	return a.dev
}

func (a *Adapter) String() string {
	return fmt.Sprintf("GPU %s", a.dev)
}

// Close the adapter. Surfaces must be destroyed first.
func (a *Adapter) Close() error {
	if a.closed {
		return &kms.Error{Op: "close adapter", Kind: kms.ErrClosed}
	}
	a.closed = true
	if a.ownDevice {
		if err := a.dev.Close(); err != nil {
			return &kms.Error{Op: "close adapter", Kind: kms.ErrDevice, Err: err}
		}
	}
	return nil
}

func (a *Adapter) canExport() error {
	prime, err := a.dev.Cap(drm.CapPrime)
	if err != nil {
		return err
	}
	if prime&drm.PrimeCapExport == 0 {
		return errors.New("buffer export not supported")
	}
	return nil
}
