package gpu

import (
	"errors"
	"fmt"
	"log"

	"github.com/BeatGlow/kms"
	"github.com/BeatGlow/kms/drm"
	"github.com/BeatGlow/kms/pixel"
)

type bufferState uint8

const (
	free bufferState = iota
	drawing
	presented
	locked
)

type renderBuffer struct {
	buf   *kms.Buffer
	m     *kms.Mapping
	img   pixel.Image
	state bufferState
	frame *FrameBuffer
}

// Surface is a chain of render buffers on an adapter.
type Surface struct {
	a *Adapter

	Width, Height int
	Format        kms.Format
	Usage         Usage

	bufs      []*renderBuffer
	back      int
	front     int // last presented buffer, -1 if none
	destroyed bool
}

// NewSurface creates a chain of DefaultBuffers buffers. Formats are XRGB8888
// and ARGB8888; Scanout usage requires an adapter that can export buffers.
func (a *Adapter) NewSurface(width, height int, format kms.Format, usage Usage) (*Surface, error) {
	const op = "create render surface"
	if a.closed {
		return nil, &kms.Error{Op: op, Kind: kms.ErrClosed}
	}
	switch format {
	case kms.XRGB8888, kms.ARGB8888:
	default:
		return nil, &kms.Error{Op: op, Kind: kms.ErrUnsupportedFormat, Err: fmt.Errorf("format %s", format)}
	}
	if usage&Scanout != 0 {
		if err := a.canExport(); err != nil {
			return nil, &kms.Error{Op: op, Kind: kms.ErrDevice, Err: err}
		}
	}

	s := &Surface{
		a:      a,
		Width:  width,
		Height: height,
		Format: format,
		Usage:  usage,
		front:  -1,
	}
	for i := 0; i < DefaultBuffers; i++ {
		b, err := s.newBuffer()
		if err != nil {
			return nil, errors.Join(err, s.Destroy())
		}
		s.bufs = append(s.bufs, b)
	}
	s.bufs[0].state = drawing
	return s, nil
}

func (s *Surface) newBuffer() (*renderBuffer, error) {
	buf, err := kms.NewBuffer(s.a.dev, s.Width, s.Height, s.Format.BitsPerPixel())
	if err != nil {
		return nil, err
	}
	m, err := buf.Map()
	if err != nil {
		return nil, errors.Join(err, buf.Destroy())
	}
	img, err := kms.NewImage(m.Bytes(), s.Width, s.Height, int(buf.Pitch), s.Format, nil)
	if err != nil {
		m.Release()
		return nil, errors.Join(err, buf.Destroy())
	}
	return &renderBuffer{buf: buf, m: m, img: img}, nil
}

// Image is the buffer to draw the next frame into. It changes with every
// SwapBuffers.
func (s *Surface) Image() (pixel.Image, error) {
	if s.destroyed {
		return nil, &kms.Error{Op: "render", Kind: kms.ErrClosed}
	}
	if s.Usage&Render == 0 {
		return nil, &kms.Error{Op: "render", Kind: kms.ErrDevice, Err: fmt.Errorf("surface usage is %s", s.Usage)}
	}
	return s.bufs[s.back].img, nil
}

// SwapBuffers presents the frame drawn so far and moves on to a free buffer.
// A presented frame that was never locked is recycled. It fails with
// ErrBusy, presenting nothing, when all other buffers are locked.
func (s *Surface) SwapBuffers() error {
	if s.destroyed {
		return &kms.Error{Op: "swap buffers", Kind: kms.ErrClosed}
	}

	next := -1
	for i := 1; i < len(s.bufs); i++ {
		j := (s.back + i) % len(s.bufs)
		if st := s.bufs[j].state; st == free || st == presented {
			next = j
			break
		}
	}
	if next < 0 {
		return &kms.Error{Op: "swap buffers", Kind: kms.ErrBusy, Err: errors.New("no free buffer")}
	}

	if s.front >= 0 && s.bufs[s.front].state == presented {
		s.bufs[s.front].state = free
	}
	s.bufs[s.back].state = presented
	s.front = s.back
	s.back = next
	s.bufs[s.back].state = drawing
	return nil
}

// FrameBuffer is a presented frame exported as a DMA-BUF.
type FrameBuffer struct {
	// FD is the DMA-BUF file descriptor, owned by the surface until
	// UnlockFrontBuffer.
	FD int

	Width, Height int
	Stride        int
	Format        kms.Format

	s        *Surface
	index    int
	size     int
	mem      []byte
	released bool
}

// LockFrontBuffer exports the last presented frame. The buffer stays out of
// the chain until UnlockFrontBuffer.
func (s *Surface) LockFrontBuffer() (*FrameBuffer, error) {
	const op = "lock front buffer"
	if s.destroyed {
		return nil, &kms.Error{Op: op, Kind: kms.ErrClosed}
	}
	if s.Usage&Scanout == 0 {
		return nil, &kms.Error{Op: op, Kind: kms.ErrDevice, Err: fmt.Errorf("surface usage is %s", s.Usage)}
	}
	if s.front < 0 || s.bufs[s.front].state != presented {
		return nil, &kms.Error{Op: op, Kind: kms.ErrDevice, Err: errors.New("no frame presented")}
	}

	b := s.bufs[s.front]
	fd, err := s.a.dev.PrimeHandleToFD(b.buf.Handle, drm.PrimeCloseOnExec|drm.PrimeReadWrite)
	if err != nil {
		return nil, &kms.Error{Op: op, Kind: kms.ErrDevice, Err: err}
	}
	b.state = locked
	b.frame = &FrameBuffer{
		FD:     fd,
		Width:  s.Width,
		Height: s.Height,
		Stride: int(b.buf.Pitch),
		Format: s.Format,
		s:      s,
		index:  s.front,
		size:   int(b.buf.Size),
	}
	return b.frame, nil
}

// UnlockFrontBuffer closes the exported descriptor and returns the buffer to
// the chain. Importers must be done with the descriptor, and the frame must
// be unmapped.
func (s *Surface) UnlockFrontBuffer(fb *FrameBuffer) error {
	const op = "unlock front buffer"
	if fb == nil || fb.s != s || fb.released {
		return &kms.Error{Op: op, Kind: kms.ErrClosed}
	}
	if fb.mem != nil {
		return &kms.Error{Op: op, Kind: kms.ErrBusy, Err: errors.New("frame is mapped")}
	}
	err := fb.release()
	if b := s.bufs[fb.index]; b.state == locked {
		b.state = free
		b.frame = nil
	}
	if err != nil {
		return &kms.Error{Op: op, Kind: kms.ErrDevice, Err: err}
	}
	return nil
}

// Destroy frees the buffers. Frames still locked are unlocked.
func (s *Surface) Destroy() error {
	if s.destroyed {
		return nil
	}
	s.destroyed = true

	var errs []error
	for _, b := range s.bufs {
		if b.frame != nil {
			log.Printf("gpu: destroying surface with frame fd %d locked", b.frame.FD)
			if b.frame.mem != nil {
				errs = append(errs, b.frame.unmap())
			}
			if err := b.frame.release(); err != nil {
				errs = append(errs, &kms.Error{Op: "destroy render surface", Kind: kms.ErrDevice, Err: err})
			}
			b.frame = nil
		}
		b.m.Release()
		errs = append(errs, b.buf.Destroy())
	}
	s.bufs = nil
	return errors.Join(errs...)
}

func (fb *FrameBuffer) release() error {
	if fb.released {
		return nil
	}
	fb.released = true
	return dmabuf.close(fb.FD)
}

// Import describes the frame for kms.Screen.ImportSurface.
func (fb *FrameBuffer) Import() kms.Import {
	return kms.Import{
		FD:     fb.FD,
		Width:  fb.Width,
		Height: fb.Height,
		Pitch:  fb.Stride,
		Format: fb.Format,
	}
}

// Map gives the CPU access to the frame through its DMA-BUF, for as long as
// it is mapped. It returns the memory and the stride.
func (fb *FrameBuffer) Map() ([]byte, int, error) {
	const op = "map frame"
	if fb.released {
		return nil, 0, &kms.Error{Op: op, Kind: kms.ErrClosed}
	}
	if fb.mem != nil {
		return fb.mem, fb.Stride, nil
	}
	mem, err := dmabuf.mmap(fb.FD, fb.size)
	if err != nil {
		return nil, 0, &kms.Error{Op: op, Kind: kms.ErrResource, Err: err}
	}
	if err = dmabuf.sync(fb.FD, drm.SyncStart|drm.SyncReadWrite); err != nil {
		_ = dmabuf.munmap(mem)
		return nil, 0, &kms.Error{Op: op, Kind: kms.ErrDevice, Err: err}
	}
	fb.mem = mem
	return mem, fb.Stride, nil
}

// Image returns the mapped frame as an image.
func (fb *FrameBuffer) Image() (pixel.Image, error) {
	if fb.mem == nil {
		return nil, &kms.Error{Op: "frame image", Kind: kms.ErrClosed, Err: errors.New("frame is not mapped")}
	}
	return kms.NewImage(fb.mem, fb.Width, fb.Height, fb.Stride, fb.Format, nil)
}

// Unmap ends CPU access to the frame.
func (fb *FrameBuffer) Unmap() error {
	if fb.mem == nil {
		return nil
	}
	return fb.unmap()
}

func (fb *FrameBuffer) unmap() error {
	var errs []error
	if err := dmabuf.sync(fb.FD, drm.SyncEnd|drm.SyncReadWrite); err != nil {
		errs = append(errs, &kms.Error{Op: "unmap frame", Kind: kms.ErrDevice, Err: err})
	}
	if err := dmabuf.munmap(fb.mem); err != nil {
		errs = append(errs, &kms.Error{Op: "unmap frame", Kind: kms.ErrDevice, Err: err})
	}
	fb.mem = nil
	return errors.Join(errs...)
}
