package drm

import (
	"golang.org/x/sys/unix"

	"github.com/BeatGlow/kms/internal/ioctl"
)

// Dumb is a dumb buffer allocation (struct drm_mode_create_dumb).
type Dumb struct {
	Handle uint32
	Pitch  uint32
	Size   uint64
}

// CreateDumb allocates a linear, CPU mappable buffer.
func (c *Card) CreateDumb(width, height, bpp uint32) (*Dumb, error) {
	arg := &sysCreateDumb{
		width:  width,
		height: height,
		bpp:    bpp,
	}
	if err := c.ioctl(ioctlModeCreateDumb, arg); err != nil {
		return nil, err
	}
	return &Dumb{
		Handle: arg.handle,
		Pitch:  arg.pitch,
		Size:   arg.size,
	}, nil
}

// MapDumb returns the fake offset to pass to Mmap for a dumb buffer.
func (c *Card) MapDumb(handle uint32) (uint64, error) {
	arg := &sysMapDumb{handle: handle}
	if err := c.ioctl(ioctlModeMapDumb, arg); err != nil {
		return 0, err
	}
	return arg.offset, nil
}

// DestroyDumb frees a dumb buffer handle.
func (c *Card) DestroyDumb(handle uint32) error {
	return c.ioctl(ioctlModeDestroyDumb, &sysDestroyDumb{handle: handle})
}

// AddFB2 registers a single plane buffer as a framebuffer and returns its id.
func (c *Card) AddFB2(width, height uint32, format Format, handle, pitch, offset uint32) (uint32, error) {
	arg := &sysFBCmd2{
		width:       width,
		height:      height,
		pixelFormat: uint32(format),
	}
	arg.handles[0] = handle
	arg.pitches[0] = pitch
	arg.offsets[0] = offset
	if err := c.ioctl(ioctlModeAddFB2, arg); err != nil {
		return 0, err
	}
	return arg.fbID, nil
}

// RemoveFB unregisters a framebuffer.
func (c *Card) RemoveFB(id uint32) error {
	return c.ioctl(ioctlModeRmFB, &id)
}

// PRIME export flags.
const (
	PrimeCloseOnExec = unix.O_CLOEXEC
	PrimeReadWrite   = unix.O_RDWR
)

// PrimeHandleToFD exports a buffer handle as a DMA-BUF file descriptor. The
// caller owns the returned descriptor.
func (c *Card) PrimeHandleToFD(handle uint32, flags uint32) (int, error) {
	arg := &sysPrimeHandle{
		handle: handle,
		flags:  flags,
		fd:     -1,
	}
	if err := c.ioctl(ioctlPrimeHandleToFD, arg); err != nil {
		return -1, err
	}
	return int(arg.fd), nil
}

// PrimeFDToHandle imports a DMA-BUF file descriptor as a buffer handle local
// to this device. The handle must be released with CloseHandle.
func (c *Card) PrimeFDToHandle(fd int) (uint32, error) {
	arg := &sysPrimeHandle{fd: int32(fd)}
	if err := c.ioctl(ioctlPrimeFDToHandle, arg); err != nil {
		return 0, err
	}
	return arg.handle, nil
}

// CloseHandle releases a GEM handle.
func (c *Card) CloseHandle(handle uint32) error {
	return c.ioctl(ioctlGemClose, &sysGemClose{handle: handle})
}

// DMA-BUF CPU access flags, from <linux/dma-buf.h>.
const (
	SyncRead      uint64 = 1 << 0
	SyncWrite     uint64 = 2 << 0
	SyncReadWrite uint64 = SyncRead | SyncWrite
	SyncStart     uint64 = 0 << 2
	SyncEnd       uint64 = 1 << 2
)

// SyncDMABuf brackets CPU access to a mapped DMA-BUF. Call it with SyncStart
// before touching the pixels and with SyncEnd after.
func SyncDMABuf(fd int, flags uint64) error {
	return ioctl.Do(uintptr(fd), ioctlDMABufSync, &sysDMABufSync{flags: flags})
}
