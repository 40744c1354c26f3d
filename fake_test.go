package kms

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/BeatGlow/kms/drm"
)

// fakeDevice is an in-memory DRM device with a single CRTC by default. It
// counts the objects it hands out so tests can check for leaks.
type fakeDevice struct {
	master bool
	closed bool

	res        drm.Resources
	connectors map[uint32]*drm.Connector
	encoders   map[uint32]*drm.Encoder
	crtcs      map[uint32]*drm.CRTC

	nextHandle uint32
	nextFB     uint32
	dumbs      map[uint32][]byte
	imported   map[uint32]int // handle -> fd
	fbs        map[uint32]fakeFB
	prime      map[int]bool

	mapDumbCalls int
	mmapCalls    int
	munmapCalls  int
	setCRTCCalls int
	flips        []fakeFlip
	gamma        [][3][]uint16

	// fail makes the named method return the error.
	fail map[string]error
}

type fakeFB struct {
	Width, Height uint32
	Format        drm.Format
	Handle, Pitch uint32
}

type fakeFlip struct {
	CRTC, FB uint32
	UserData uint64
}

func testMode(w, h uint16) drm.ModeInfo {
	m := drm.ModeInfo{
		Clock:    148500,
		Hdisplay: w,
		Htotal:   w + 280,
		Vdisplay: h,
		Vtotal:   h + 45,
		Vrefresh: 60,
	}
	copy(m.RawName[:], fmt.Sprintf("%dx%d", w, h))
	return m
}

// newFakeDevice returns a device with one connected output of the given modes,
// routed through encoder 20 to CRTC 30, showing framebuffer 99.
func newFakeDevice(modes ...drm.ModeInfo) *fakeDevice {
	if len(modes) == 0 {
		modes = []drm.ModeInfo{testMode(1920, 1080)}
	}
	d := &fakeDevice{
		res: drm.Resources{
			CRTCs:      []uint32{29, 30},
			Connectors: []uint32{10},
			Encoders:   []uint32{20},
			MaxWidth:   4096,
			MaxHeight:  4096,
		},
		connectors: map[uint32]*drm.Connector{
			10: {ID: 10, EncoderID: 20, Connection: drm.Connected, Modes: modes, Encoders: []uint32{20}},
		},
		encoders: map[uint32]*drm.Encoder{
			20: {ID: 20, CRTCID: 30, PossibleCRTCs: 0x3},
		},
		crtcs: map[uint32]*drm.CRTC{
			29: {ID: 29, GammaSize: 256},
			30: {ID: 30, BufferID: 99, ModeValid: true, Mode: modes[0], GammaSize: 256},
		},
		nextHandle: 1,
		nextFB:     100,
		dumbs:      make(map[uint32][]byte),
		imported:   make(map[uint32]int),
		fbs:        make(map[uint32]fakeFB),
		prime:      make(map[int]bool),
		fail:       make(map[string]error),
	}
	return d
}

func (d *fakeDevice) String() string { return "fake" }

func (d *fakeDevice) Close() error {
	d.closed = true
	return d.fail["Close"]
}

func (d *fakeDevice) SetMaster() error {
	if err := d.fail["SetMaster"]; err != nil {
		return err
	}
	if d.master {
		return unix.EBUSY
	}
	d.master = true
	return nil
}

func (d *fakeDevice) DropMaster() error {
	if !d.master {
		return unix.EINVAL
	}
	d.master = false
	return d.fail["DropMaster"]
}

func (d *fakeDevice) Cap(id uint64) (uint64, error) {
	switch id {
	case drm.CapDumbBuffer:
		return 1, nil
	case drm.CapPrime:
		return drm.PrimeCapImport | drm.PrimeCapExport, nil
	}
	return 0, unix.EINVAL
}

func (d *fakeDevice) Resources() (*drm.Resources, error) {
	if err := d.fail["Resources"]; err != nil {
		return nil, err
	}
	res := d.res
	return &res, nil
}

func (d *fakeDevice) Connector(id uint32) (*drm.Connector, error) {
	c, ok := d.connectors[id]
	if !ok {
		return nil, unix.ENOENT
	}
	v := *c
	return &v, nil
}

func (d *fakeDevice) Encoder(id uint32) (*drm.Encoder, error) {
	e, ok := d.encoders[id]
	if !ok {
		return nil, unix.ENOENT
	}
	v := *e
	return &v, nil
}

func (d *fakeDevice) CRTC(id uint32) (*drm.CRTC, error) {
	c, ok := d.crtcs[id]
	if !ok {
		return nil, unix.ENOENT
	}
	v := *c
	return &v, nil
}

func (d *fakeDevice) SetCRTC(crtcID, fbID, x, y uint32, connectors []uint32, mode *drm.ModeInfo) error {
	d.setCRTCCalls++
	if err := d.fail["SetCRTC"]; err != nil {
		return err
	}
	if !d.master {
		return unix.EACCES
	}
	c, ok := d.crtcs[crtcID]
	if !ok {
		return unix.ENOENT
	}
	if _, ok := d.fbs[fbID]; fbID != 0 && fbID != 99 && !ok {
		return unix.ENOENT
	}
	c.BufferID, c.X, c.Y = fbID, x, y
	c.ModeValid = mode != nil
	if mode != nil {
		c.Mode = *mode
	} else {
		c.Mode = drm.ModeInfo{}
	}
	return nil
}

func (d *fakeDevice) PageFlip(crtcID, fbID, flags uint32, userData uint64) error {
	if err := d.fail["PageFlip"]; err != nil {
		return err
	}
	if flags&drm.PageFlipEvent == 0 {
		return unix.EINVAL
	}
	if _, ok := d.fbs[fbID]; !ok {
		return unix.ENOENT
	}
	d.flips = append(d.flips, fakeFlip{CRTC: crtcID, FB: fbID, UserData: userData})
	d.crtcs[crtcID].BufferID = fbID
	return nil
}

func (d *fakeDevice) CreateDumb(width, height, bpp uint32) (*drm.Dumb, error) {
	if err := d.fail["CreateDumb"]; err != nil {
		return nil, err
	}
	if width > d.res.MaxWidth || height > d.res.MaxHeight {
		return nil, unix.EINVAL
	}
	pitch := (width*bpp/8 + 63) &^ 63
	size := uint64(pitch) * uint64(height)
	handle := d.nextHandle
	d.nextHandle++
	d.dumbs[handle] = make([]byte, size)
	return &drm.Dumb{Handle: handle, Pitch: pitch, Size: size}, nil
}

func (d *fakeDevice) MapDumb(handle uint32) (uint64, error) {
	d.mapDumbCalls++
	if err := d.fail["MapDumb"]; err != nil {
		return 0, err
	}
	if _, ok := d.dumbs[handle]; !ok {
		return 0, unix.ENOENT
	}
	return uint64(handle) << 12, nil
}

func (d *fakeDevice) DestroyDumb(handle uint32) error {
	if _, ok := d.dumbs[handle]; !ok {
		return unix.ENOENT
	}
	delete(d.dumbs, handle)
	return d.fail["DestroyDumb"]
}

func (d *fakeDevice) handleExists(handle uint32) bool {
	if _, ok := d.dumbs[handle]; ok {
		return true
	}
	_, ok := d.imported[handle]
	return ok
}

func (d *fakeDevice) AddFB2(width, height uint32, format drm.Format, handle, pitch, offset uint32) (uint32, error) {
	if err := d.fail["AddFB2"]; err != nil {
		return 0, err
	}
	if !d.handleExists(handle) {
		return 0, unix.ENOENT
	}
	id := d.nextFB
	d.nextFB++
	d.fbs[id] = fakeFB{Width: width, Height: height, Format: format, Handle: handle, Pitch: pitch}
	return id, nil
}

func (d *fakeDevice) RemoveFB(id uint32) error {
	if _, ok := d.fbs[id]; !ok {
		return unix.ENOENT
	}
	delete(d.fbs, id)
	return nil
}

func (d *fakeDevice) PrimeHandleToFD(handle, flags uint32) (int, error) {
	return -1, unix.ENOSYS
}

// addPrime makes fd importable.
func (d *fakeDevice) addPrime(fd int) {
	d.prime[fd] = true
}

func (d *fakeDevice) PrimeFDToHandle(fd int) (uint32, error) {
	if err := d.fail["PrimeFDToHandle"]; err != nil {
		return 0, err
	}
	if !d.prime[fd] {
		return 0, unix.EBADF
	}
	handle := d.nextHandle
	d.nextHandle++
	d.imported[handle] = fd
	return handle, nil
}

func (d *fakeDevice) CloseHandle(handle uint32) error {
	if _, ok := d.imported[handle]; !ok {
		return unix.EINVAL
	}
	delete(d.imported, handle)
	return nil
}

func (d *fakeDevice) SetGamma(crtcID uint32, red, green, blue []uint16) error {
	if err := d.fail["SetGamma"]; err != nil {
		return err
	}
	c, ok := d.crtcs[crtcID]
	if !ok {
		return unix.ENOENT
	}
	if len(red) != c.GammaSize || len(green) != c.GammaSize || len(blue) != c.GammaSize {
		return unix.EINVAL
	}
	d.gamma = append(d.gamma, [3][]uint16{
		append([]uint16(nil), red...),
		append([]uint16(nil), green...),
		append([]uint16(nil), blue...),
	})
	return nil
}

func (d *fakeDevice) Mmap(offset int64, length int) ([]byte, error) {
	d.mmapCalls++
	if err := d.fail["Mmap"]; err != nil {
		return nil, err
	}
	mem, ok := d.dumbs[uint32(offset>>12)]
	if !ok || length > len(mem) {
		return nil, unix.EINVAL
	}
	return mem[:length], nil
}

func (d *fakeDevice) Munmap(b []byte) error {
	d.munmapCalls++
	return nil
}

// scanout returns the memory of the framebuffer shown on crtc.
func (d *fakeDevice) scanout(crtc uint32) []byte {
	fb, ok := d.fbs[d.crtcs[crtc].BufferID]
	if !ok {
		return nil
	}
	return d.dumbs[fb.Handle]
}

func (d *fakeDevice) leaks() error {
	if n := len(d.fbs); n > 0 {
		return fmt.Errorf("%d framebuffers registered", n)
	}
	if n := len(d.dumbs); n > 0 {
		return fmt.Errorf("%d dumb buffers allocated", n)
	}
	if n := len(d.imported); n > 0 {
		return fmt.Errorf("%d imported handles open", n)
	}
	return nil
}
