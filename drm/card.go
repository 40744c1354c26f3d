// Package drm talks to Linux Direct Rendering Manager device nodes.
//
// It covers the part of the kernel mode-setting and buffer-sharing API needed to
// drive one display output: resource discovery, mode-setting, page flips,
// dumb buffers, framebuffer registration, PRIME handle export and import, gamma
// tables and the event stream that reports page flip completion.
//
// A [Card] is not safe for concurrent use.
package drm

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/BeatGlow/kms/internal/ioctl"
)

// Card is an open DRM device node, typically /dev/dri/card[0..x].
type Card struct {
	f    *os.File
	fd   uintptr
	name string
}

// Open a DRM device node by path.
func Open(name string) (*Card, error) {
	f, err := os.OpenFile(name, os.O_RDWR, os.ModeDevice)
	if err != nil {
		return nil, err
	}
	return &Card{
		f:    f,
		fd:   f.Fd(),
		name: name,
	}, nil
}

// OpenCard opens /dev/dri/card<n>.
func OpenCard(n int) (*Card, error) {
	return Open(fmt.Sprintf("/dev/dri/card%d", n))
}

func (c *Card) String() string {
	return fmt.Sprintf("DRM device %s", c.name)
}

// Fd returns the device file descriptor, for polling the event stream.
func (c *Card) Fd() uintptr {
	return c.fd
}

// Close the device node.
func (c *Card) Close() error {
	return c.f.Close()
}

func (c *Card) ioctl(cmd ioctl.Command, arg any) error {
	return ioctl.Do(c.fd, cmd, arg)
}

// SetMaster acquires display mastership. It fails with EBUSY (or EACCES) while
// another client holds it.
func (c *Card) SetMaster() error {
	return ioctl.Call(c.fd, uintptr(ioctlSetMaster), 0)
}

// DropMaster releases display mastership.
func (c *Card) DropMaster() error {
	return ioctl.Call(c.fd, uintptr(ioctlDropMaster), 0)
}

// Capabilities, from <drm/drm.h>.
const (
	CapDumbBuffer         uint64 = 0x1
	CapVBlankHighCRTC     uint64 = 0x2
	CapDumbPreferredDepth uint64 = 0x3
	CapDumbPreferShadow   uint64 = 0x4
	CapPrime              uint64 = 0x5
	CapTimestampMonotonic uint64 = 0x6
	CapAsyncPageFlip      uint64 = 0x7

	PrimeCapImport uint64 = 0x1
	PrimeCapExport uint64 = 0x2
)

// Cap queries a device capability.
func (c *Card) Cap(id uint64) (uint64, error) {
	arg := &sysGetCap{capability: id}
	if err := c.ioctl(ioctlGetCap, arg); err != nil {
		return 0, err
	}
	return arg.value, nil
}

// Mmap maps length bytes of the device at the fake offset returned by MapDumb.
func (c *Card) Mmap(offset int64, length int) ([]byte, error) {
	b, err := unix.Mmap(int(c.fd), offset, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, os.NewSyscallError("mmap", err)
	}
	return b, nil
}

// Munmap releases a mapping returned by Mmap.
func (c *Card) Munmap(b []byte) error {
	if err := unix.Munmap(b); err != nil {
		return os.NewSyscallError("munmap", err)
	}
	return nil
}
