// Package kms owns one kernel mode-setting display output.
//
// A [Screen] takes display mastership on a DRM device, picks the first
// connected output, keeps a pair of [Surface] framebuffers as a flip chain and
// restores the original CRTC configuration when it is closed. Buffers rendered
// on another device can be shown through [Screen.ImportSurface].
//
// Nothing in this package is safe for concurrent use.
package kms

import (
	"log"
	"os"

	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/kms/drm"
)

var debug bool

func init() {
	debug = os.Getenv("KMS_DEBUG") != ""
}

func debugf(format string, v ...any) {
	if debug {
		log.Printf("kms: "+format, v...)
	}
}

// Device is the driver interface of a DRM device node. It is implemented by
// [drm.Card].
type Device interface {
	String() string

	// Close the device.
	Close() error

	// SetMaster acquires display mastership.
	SetMaster() error

	// DropMaster releases display mastership.
	DropMaster() error

	// Cap queries a device capability.
	Cap(id uint64) (uint64, error)

	Resources() (*drm.Resources, error)
	Connector(id uint32) (*drm.Connector, error)
	Encoder(id uint32) (*drm.Encoder, error)
	CRTC(id uint32) (*drm.CRTC, error)

	// SetCRTC does a blocking mode-set.
	SetCRTC(crtcID, fbID, x, y uint32, connectors []uint32, mode *drm.ModeInfo) error

	// PageFlip requests a flip at the next vertical blank.
	PageFlip(crtcID, fbID, flags uint32, userData uint64) error

	CreateDumb(width, height, bpp uint32) (*drm.Dumb, error)
	MapDumb(handle uint32) (uint64, error)
	DestroyDumb(handle uint32) error

	AddFB2(width, height uint32, format drm.Format, handle, pitch, offset uint32) (uint32, error)
	RemoveFB(id uint32) error

	PrimeHandleToFD(handle, flags uint32) (int, error)
	PrimeFDToHandle(fd int) (uint32, error)
	CloseHandle(handle uint32) error

	SetGamma(crtcID uint32, red, green, blue []uint16) error

	Mmap(offset int64, length int) ([]byte, error)
	Munmap([]byte) error
}

var _ Device = (*drm.Card)(nil)

// Config is the screen configuration.
type Config struct {
	// Width of the flip chain surfaces in pixels, ignored for Fullscreen.
	Width int

	// Height of the flip chain surfaces in pixels, ignored for Fullscreen.
	Height int

	// Format of the flip chain surfaces, C8 or XRGB8888.
	Format Format

	// Fullscreen uses the size of the preferred mode of the output.
	Fullscreen bool

	// Backlight pin, driven high once the first frame is shown and low on
	// close. Optional.
	Backlight gpio.PinOut
}

// DefaultConfig is used by [Open] when no config is given.
var DefaultConfig = Config{
	Format:     XRGB8888,
	Fullscreen: true,
}
