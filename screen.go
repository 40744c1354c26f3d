package kms

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"

	"golang.org/x/sys/unix"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/kms/draw"
	"github.com/BeatGlow/kms/drm"
)

type state uint8

const (
	closed state = iota
	opening
	opened
)

// noCopy makes go vet report copies of a Screen.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Screen is an open display output. It holds display mastership on its device
// until Close.
type Screen struct {
	noCopy noCopy

	dev       Device
	ownDevice bool
	state     state

	out      output
	original *drm.CRTC

	width, height int
	format        Format
	palette       color.Palette

	chain [2]*Surface
	back  int

	backlight gpio.PinOut
}

// Open takes display mastership on dev, selects an output and allocates the
// flip chain, then shows its first surface. A nil config uses DefaultConfig.
//
// The device stays owned by the caller; it must outlive the screen.
func Open(dev Device, config *Config) (*Screen, error) {
	if config == nil {
		config = new(Config)
		*config = DefaultConfig
	}
	format := config.Format
	if format == 0 {
		format = DefaultConfig.Format
	}

	s := &Screen{
		dev:       dev,
		state:     opening,
		format:    format,
		backlight: config.Backlight,
	}

	if err := dev.SetMaster(); err != nil {
		return nil, newError("open", ErrDevice, err)
	}

	out, err := chooseOutput(dev)
	if err != nil {
		return nil, errors.Join(err, s.dropMaster())
	}
	s.out = *out
	debugf("%s: using %s", dev, s.out)

	if s.original, err = dev.CRTC(s.out.crtc); err != nil {
		return nil, errors.Join(newError("open", ErrDevice, err), s.dropMaster())
	}

	if config.Fullscreen {
		size := s.out.mode.Size()
		s.width, s.height = size.X, size.Y
	} else {
		s.width, s.height = config.Width, config.Height
	}

	for i := range s.chain {
		if s.chain[i], err = NewSurface(dev, s.width, s.height, format); err != nil {
			return nil, errors.Join(err, s.freeChain(), s.dropMaster())
		}
	}

	if err = s.swap("open"); err != nil {
		return nil, errors.Join(err, s.freeChain(), s.dropMaster())
	}
	s.state = opened

	if s.backlight != nil {
		if err = s.backlight.Out(gpio.High); err != nil {
			return nil, errors.Join(newError("open", ErrDevice, fmt.Errorf("backlight %s: %w", s.backlight, err)), s.Close())
		}
	} else {
		debugf("%s: no backlight control", dev)
	}

	return s, nil
}

// OpenPath opens the DRM device node at path and creates a screen on it. The
// device is closed with the screen.
func OpenPath(path string, config *Config) (*Screen, error) {
	card, err := drm.Open(path)
	if err != nil {
		return nil, newError("open", ErrDevice, err)
	}
	s, err := Open(card, config)
	if err != nil {
		return nil, errors.Join(err, card.Close())
	}
	s.ownDevice = true
	return s, nil
}

func (s *Screen) check(op string) error {
	if s == nil || s.state != opened {
		return newError(op, ErrClosed, nil)
	}
	return nil
}

func (s *Screen) dropMaster() error {
	if err := s.dev.DropMaster(); err != nil {
		return newError("drop master", ErrDevice, err)
	}
	return nil
}

func (s *Screen) freeChain() error {
	var errs []error
	for i, surface := range s.chain {
		errs = append(errs, surface.Destroy())
		s.chain[i] = nil
	}
	return errors.Join(errs...)
}

// Close restores the CRTC configuration found by Open, frees the flip chain
// and releases display mastership. It carries on after failures and returns
// all of them. While a chain surface is locked it fails with ErrBusy and
// leaves the screen open.
func (s *Screen) Close() error {
	if err := s.check("close"); err != nil {
		return err
	}
	for i, surface := range s.chain {
		if surface.Locked() {
			return newError("close", ErrBusy, fmt.Errorf("surface %d of the flip chain is locked", i))
		}
	}
	s.state = closed

	var (
		errs []error
		err  error
		crtc = s.original
	)
	if crtc.ModeValid {
		debugf("restore crtc %d to framebuffer %d mode %s", crtc.ID, crtc.BufferID, crtc.Mode)
		err = s.setCRTC("restore", crtc.ID, crtc.BufferID, crtc.X, crtc.Y, []uint32{s.out.connector}, &crtc.Mode)
	} else {
		debugf("restore crtc %d to disabled", crtc.ID)
		err = s.setCRTC("restore", crtc.ID, 0, 0, 0, nil, nil)
	}
	if err != nil {
		log.Printf("kms: %v, releasing the device anyway", err)
		errs = append(errs, err)
	}

	errs = append(errs, s.freeChain())

	if s.backlight != nil {
		if err := s.backlight.Out(gpio.Low); err != nil {
			errs = append(errs, newError("close", ErrDevice, fmt.Errorf("backlight %s: %w", s.backlight, err)))
		}
	}

	errs = append(errs, s.dropMaster())

	if s.ownDevice {
		if err := s.dev.Close(); err != nil {
			errs = append(errs, newError("close", ErrDevice, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Screen) setCRTC(op string, crtc, fb, x, y uint32, connectors []uint32, mode *drm.ModeInfo) error {
	if err := s.dev.SetCRTC(crtc, fb, x, y, connectors, mode); err != nil {
		return newError(op, ErrDevice, err)
	}
	return nil
}

func (s *Screen) swap(op string) error {
	surface := s.chain[s.back]
	if err := s.setCRTC(op, s.out.crtc, surface.ID, 0, 0, []uint32{s.out.connector}, &s.out.mode); err != nil {
		return err
	}
	s.back ^= 1
	return nil
}

// Swap shows the back surface with a blocking mode-set and makes it the
// front surface.
func (s *Screen) Swap() error {
	if err := s.check("swap"); err != nil {
		return err
	}
	return s.swap("swap")
}

// SwapTo shows surface with a blocking mode-set. The flip chain is left as is.
func (s *Screen) SwapTo(surface *Surface) error {
	if err := s.check("swap"); err != nil {
		return err
	}
	if surface == nil {
		return newError("swap", ErrDevice, unix.EINVAL)
	}
	debugf("swap to surface %d", surface.ID)
	return s.setCRTC("swap", s.out.crtc, surface.ID, 0, 0, []uint32{s.out.connector}, &s.out.mode)
}

// Flip requests a page flip to the back surface at the next vertical blank
// and makes it the front surface without waiting. The driver reports
// completion with an event carrying userData on the device.
func (s *Screen) Flip(userData uint64) error {
	if err := s.check("flip"); err != nil {
		return err
	}
	if err := s.pageFlip(s.chain[s.back], userData); err != nil {
		return err
	}
	s.back ^= 1
	return nil
}

// FlipTo requests a page flip to surface. The flip chain is left as is.
func (s *Screen) FlipTo(surface *Surface, userData uint64) error {
	if err := s.check("flip"); err != nil {
		return err
	}
	if surface == nil {
		return newError("flip", ErrDevice, unix.EINVAL)
	}
	return s.pageFlip(surface, userData)
}

func (s *Screen) pageFlip(surface *Surface, userData uint64) error {
	if err := s.dev.PageFlip(s.out.crtc, surface.ID, drm.PageFlipEvent, userData); err != nil {
		return newError("flip", ErrDevice, err)
	}
	return nil
}

// Import describes a buffer shared by another device.
type Import struct {
	// FD is the DMA-BUF file descriptor. It is only read; the exporter keeps
	// ownership.
	FD int

	Width, Height int

	// Pitch in bytes, it must match the shared allocation.
	Pitch int

	// Format, XRGB8888 or ARGB8888.
	Format Format
}

// ImportSurface registers a shared buffer as a framebuffer on the display
// device. The surface must be destroyed by the caller before the screen is
// closed, once it is no longer shown.
func (s *Screen) ImportSurface(in Import) (*Surface, error) {
	if err := s.check("import"); err != nil {
		return nil, err
	}
	switch in.Format {
	case XRGB8888, ARGB8888:
	default:
		return nil, newError("import", ErrUnsupportedFormat, fmt.Errorf("format %s", in.Format))
	}
	if in.Width <= 0 || in.Height <= 0 || in.Pitch <= 0 {
		return nil, newError("import", ErrImport, fmt.Errorf("invalid size %dx%d pitch %d", in.Width, in.Height, in.Pitch))
	}
	if uint64(in.Width) > math.MaxUint32 || uint64(in.Height) > math.MaxUint32 || uint64(in.Pitch) > math.MaxUint32 {
		return nil, newError("import", ErrImport, fmt.Errorf("size %dx%d pitch %d out of range", in.Width, in.Height, in.Pitch))
	}

	handle, err := s.dev.PrimeFDToHandle(in.FD)
	if err != nil {
		return nil, newError("import", ErrImport, err)
	}

	id, err := s.dev.AddFB2(uint32(in.Width), uint32(in.Height), in.Format, handle, uint32(in.Pitch), 0)
	if err != nil {
		importErr := newError("import", ErrImport, err)
		if err := s.dev.CloseHandle(handle); err != nil {
			return nil, errors.Join(importErr, newError("import", ErrDevice, err))
		}
		return nil, importErr
	}
	debugf("import fd %d as handle %d framebuffer %d", in.FD, handle, id)

	return &Surface{
		dev:    s.dev,
		ID:     id,
		Width:  in.Width,
		Height: in.Height,
		Format: in.Format,
		Pitch:  uint32(in.Pitch),
		handle: handle,
	}, nil
}

// NewSurface allocates a surface on the display device.
func (s *Screen) NewSurface(width, height int, format Format) (*Surface, error) {
	if err := s.check("create surface"); err != nil {
		return nil, err
	}
	return NewSurface(s.dev, width, height, format)
}

// LoadLUT programs the CRTC gamma table. For C8 screens the table is also the
// palette of the surfaces.
func (s *Screen) LoadLUT(lut LUT) error {
	if err := s.check("load lut"); err != nil {
		return err
	}

	n := len(lut)
	buf := make([]uint16, 3*n)
	for i, e := range lut {
		buf[n*0+i] = e.Red
		buf[n*1+i] = e.Green
		buf[n*2+i] = e.Blue
	}
	if err := s.dev.SetGamma(s.out.crtc, buf[:n], buf[n:2*n], buf[2*n:]); err != nil {
		return newError("load lut", ErrDevice, err)
	}
	s.palette = lut.Palette()
	return nil
}

// Device returns the display device, for reading page flip events.
func (s *Screen) Device() Device { return s.dev }

// Width of the flip chain surfaces.
func (s *Screen) Width() int { return s.width }

// Height of the flip chain surfaces.
func (s *Screen) Height() int { return s.height }

// Format of the flip chain surfaces.
func (s *Screen) Format() Format { return s.format }

// Mode is the display mode used for mode-sets.
func (s *Screen) Mode() drm.ModeInfo { return s.out.mode }

// Connector is the id of the connector in use.
func (s *Screen) Connector() uint32 { return s.out.connector }

// CRTC is the id of the CRTC in use.
func (s *Screen) CRTC() uint32 { return s.out.crtc }

// Pipe is the index of the CRTC in the device resources.
func (s *Screen) Pipe() int { return s.out.pipe }

// Original is the CRTC state found by Open, restored by Close.
func (s *Screen) Original() drm.CRTC { return *s.original }

// BackIndex is the index of the back surface in the flip chain.
func (s *Screen) BackIndex() int { return s.back }

// Back is the surface the next Swap or Flip shows.
func (s *Screen) Back() *Surface { return s.chain[s.back] }

// Front is the surface shown by the last Swap or Flip.
func (s *Screen) Front() *Surface { return s.chain[s.back^1] }

// Surfaces returns the flip chain.
func (s *Screen) Surfaces() []*Surface { return s.chain[:] }

// Palette is the C8 palette, as set by LoadLUT.
func (s *Screen) Palette() color.Palette { return s.palette }

func (s *Screen) String() string {
	return fmt.Sprintf("KMS %dx%d %s on %s", s.width, s.height, s.format, s.dev)
}

// Halt shows a black frame.
func (s *Screen) Halt() error {
	return s.render("halt", false, func(dst draw.Image) {
		draw.Fill(dst, dst.Bounds(), color.Black)
	})
}

// ColorModel of the flip chain surfaces.
func (s *Screen) ColorModel() color.Model {
	return colorModel(s.format, s.palette)
}

// Bounds of the flip chain surfaces.
func (s *Screen) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.width, s.height)
}

// Draw renders src into the back surface and swaps. The rest of the frame is
// carried over from the front surface.
func (s *Screen) Draw(dstRect image.Rectangle, src image.Image, sp image.Point) error {
	keep := !dstRect.Intersect(s.Bounds()).Eq(s.Bounds())
	return s.render("draw", keep, func(dst draw.Image) {
		draw.Draw(dst, dstRect, src, sp, draw.Src)
	})
}

// DrawScaled renders all of src into the back surface, scaled to fit and
// centered on black, and swaps.
func (s *Screen) DrawScaled(src image.Image, q draw.Quality) error {
	return s.render("draw", false, func(dst draw.Image) {
		draw.Fill(dst, dst.Bounds(), color.Black)
		draw.Fit(dst, src, q, draw.Src)
	})
}

func (s *Screen) render(op string, keep bool, f func(draw.Image)) error {
	if err := s.check(op); err != nil {
		return err
	}

	back, front := s.Back(), s.Front()
	m, err := back.Lock()
	if err != nil {
		return err
	}
	defer back.Unlock(m)

	if keep {
		fm, err := front.Lock()
		if err != nil {
			return err
		}
		copy(m.Bytes(), fm.Bytes())
		front.Unlock(fm)
	}

	img, err := back.Image(m, s.palette)
	if err != nil {
		return err
	}
	f(img)

	return s.swap(op)
}

var _ display.Drawer = (*Screen)(nil)
