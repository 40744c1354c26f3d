package kms

import (
	"errors"
	"image/color"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/BeatGlow/kms/pixel"
)

func TestNewSurface(t *testing.T) {
	for _, format := range []Format{C8, XRGB8888} {
		t.Run(format.String(), func(it *testing.T) {
			dev := newFakeDevice()
			s, err := NewSurface(dev, 320, 240, format)
			if err != nil {
				it.Fatal(err)
			}
			fb, ok := dev.fbs[s.ID]
			if !ok {
				it.Fatal("expected a registered framebuffer")
			}
			if fb.Format != format || fb.Width != 320 || fb.Height != 240 || fb.Pitch != s.Pitch {
				it.Errorf("unexpected framebuffer %+v", fb)
			}
			if s.Imported() || s.Buffer().BPP != format.BitsPerPixel() {
				it.Errorf("unexpected buffer %+v", s.Buffer())
			}
			if err = s.Destroy(); err != nil {
				it.Fatal(err)
			}
			if err = dev.leaks(); err != nil {
				it.Error(err)
			}
		})
	}
}

func TestNewSurfaceUnsupportedFormat(t *testing.T) {
	dev := newFakeDevice()
	for _, format := range []Format{ARGB8888, 0, Format(0x36314752)} {
		if _, err := NewSurface(dev, 320, 240, format); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("%s: expected %v, got %v", format, ErrUnsupportedFormat, err)
		}
	}
	if len(dev.dumbs) != 0 {
		t.Error("expected nothing to be allocated")
	}
}

func TestNewSurfaceRegistrationFailure(t *testing.T) {
	dev := newFakeDevice()
	dev.fail["AddFB2"] = unix.EINVAL
	_, err := NewSurface(dev, 320, 240, XRGB8888)
	if !errors.Is(err, ErrDevice) || !errors.Is(err, unix.EINVAL) {
		t.Fatalf("expected %v wrapping EINVAL, got %v", ErrDevice, err)
	}
	if err = dev.leaks(); err != nil {
		t.Error(err)
	}
}

func TestSurfaceLock(t *testing.T) {
	dev := newFakeDevice()
	s, err := NewSurface(dev, 33, 7, XRGB8888)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Destroy() }()

	m, err := s.Lock()
	if err != nil {
		t.Fatal(err)
	}
	first := &m.Bytes()[0]
	s.Unlock(m)

	if m, err = s.Lock(); err != nil {
		t.Fatal(err)
	}
	if &m.Bytes()[0] != first {
		t.Error("expected the same memory after unlock and lock")
	}
	if dev.mapDumbCalls != 1 || dev.mmapCalls != 1 {
		t.Errorf("expected a single mapping, got %d map ioctls and %d mmaps", dev.mapDumbCalls, dev.mmapCalls)
	}

	i, err := s.Image(m, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := i.(*pixel.XRGB8888Image); !ok {
		t.Fatalf("expected an XRGB8888 image, got %T", i)
	}
	if i.Bounds().Dx() != 33 || i.Bounds().Dy() != 7 {
		t.Errorf("unexpected bounds %s", i.Bounds())
	}
	i.Set(32, 6, color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0xff})
	off := 6*int(s.Pitch) + 32*4
	if v := m.Bytes()[off : off+3]; v[0] != 0x33 || v[1] != 0x22 || v[2] != 0x11 {
		t.Errorf("expected pixel at pitch offset %d, got % x", off, v)
	}
	s.Unlock(m)

	if _, err = s.Image(m, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("expected %v for a released mapping, got %v", ErrClosed, err)
	}
}

func TestSurfaceDestroy(t *testing.T) {
	var s *Surface
	if err := s.Destroy(); err != nil {
		t.Errorf("expected destroying nil to succeed, got %v", err)
	}

	dev := newFakeDevice()
	if s, _ = NewSurface(dev, 8, 8, C8); s == nil {
		t.Fatal("expected a surface")
	}
	m, err := s.Lock()
	if err != nil {
		t.Fatal(err)
	}
	if !s.Locked() {
		t.Error("expected the surface to be locked")
	}
	if err = s.Destroy(); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected %v destroying a locked surface, got %v", ErrBusy, err)
	}
	if _, ok := dev.fbs[s.ID]; !ok {
		t.Fatal("expected the framebuffer to stay registered")
	}
	s.Unlock(m)
	if err = s.Destroy(); err != nil {
		t.Fatal(err)
	}
	if err = dev.leaks(); err != nil {
		t.Error(err)
	}
	if dev.munmapCalls != 1 {
		t.Errorf("expected destroy to unmap, got %d munmaps", dev.munmapCalls)
	}
	if _, err = s.Lock(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected %v locking a destroyed surface, got %v", ErrClosed, err)
	}
	if err = s.Destroy(); err != nil {
		t.Errorf("expected second destroy to do nothing, got %v", err)
	}
}
