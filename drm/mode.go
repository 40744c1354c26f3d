package drm

import (
	"bytes"
	"fmt"
	"image"
	"runtime"
	"unsafe"

	"periph.io/x/conn/v3/physic"
)

// Connection states.
const (
	Connected         = 1
	Disconnected      = 2
	UnknownConnection = 3
)

// Page flip flags.
const (
	PageFlipEvent = 0x01
	PageFlipAsync = 0x02
)

// ModeInfo is a display mode (struct drm_mode_modeinfo).
type ModeInfo struct {
	Clock                                         uint32 // pixel clock in kHz
	Hdisplay, HsyncStart, HsyncEnd, Htotal, Hskew uint16
	Vdisplay, VsyncStart, VsyncEnd, Vtotal, Vscan uint16

	Vrefresh uint32

	Flags   uint32
	Type    uint32
	RawName [displayModeLen]uint8
}

// Name of the mode as reported by the driver, such as "1920x1080".
func (m ModeInfo) Name() string {
	name, _, _ := bytes.Cut(m.RawName[:], []byte{0})
	return string(name)
}

// Size is the visible resolution.
func (m ModeInfo) Size() image.Point {
	return image.Pt(int(m.Hdisplay), int(m.Vdisplay))
}

// Refresh computes the vertical refresh rate from the mode timings, falling
// back to the rounded rate reported by the driver.
func (m ModeInfo) Refresh() physic.Frequency {
	total := uint64(m.Htotal) * uint64(m.Vtotal)
	if m.Clock == 0 || total == 0 {
		return physic.Frequency(m.Vrefresh) * physic.Hertz
	}
	return physic.Frequency(uint64(m.Clock) * 1000 * uint64(physic.Hertz) / total)
}

func (m ModeInfo) String() string {
	return fmt.Sprintf("%dx%d@%dHz", m.Hdisplay, m.Vdisplay, m.Vrefresh)
}

// Resources lists the mode-setting objects of a device.
type Resources struct {
	FBs        []uint32
	CRTCs      []uint32
	Connectors []uint32
	Encoders   []uint32

	MinWidth, MaxWidth   uint32
	MinHeight, MaxHeight uint32
}

// Connector is a display connector (struct drm_mode_get_connector).
type Connector struct {
	ID         uint32
	EncoderID  uint32 // currently bound encoder, 0 if none
	Type       uint32
	TypeID     uint32
	Connection uint32

	// Physical size in millimeters.
	Width, Height uint32

	Modes    []ModeInfo
	Encoders []uint32
}

// Encoder routes a CRTC to connectors (struct drm_mode_get_encoder).
type Encoder struct {
	ID             uint32
	Type           uint32
	CRTCID         uint32
	PossibleCRTCs  uint32
	PossibleClones uint32
}

// CRTC is the scanout engine state (struct drm_mode_crtc).
type CRTC struct {
	ID       uint32
	BufferID uint32 // framebuffer being scanned out, 0 when disabled
	X, Y     uint32

	ModeValid bool
	Mode      ModeInfo

	GammaSize int
}

func ptr[T any](s []T) uint64 {
	if len(s) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(&s[0])))
}

// Resources fetches the mode-setting resource ids.
func (c *Card) Resources() (*Resources, error) {
	arg := &sysCardRes{}
	if err := c.ioctl(ioctlModeGetResources, arg); err != nil {
		return nil, err
	}

	var (
		fbs        = make([]uint32, arg.countFbs)
		crtcs      = make([]uint32, arg.countCrtcs)
		connectors = make([]uint32, arg.countConns)
		encoders   = make([]uint32, arg.countEncoders)
	)
	arg.fbIDPtr = ptr(fbs)
	arg.crtcIDPtr = ptr(crtcs)
	arg.connectorIDPtr = ptr(connectors)
	arg.encoderIDPtr = ptr(encoders)

	// A hotplug between the two calls can grow the counts, the kernel then
	// truncates to the sizes we passed.
	err := c.ioctl(ioctlModeGetResources, arg)
	runtime.KeepAlive(fbs)
	runtime.KeepAlive(crtcs)
	runtime.KeepAlive(connectors)
	runtime.KeepAlive(encoders)
	if err != nil {
		return nil, err
	}

	return &Resources{
		FBs:        fbs[:min(len(fbs), int(arg.countFbs))],
		CRTCs:      crtcs[:min(len(crtcs), int(arg.countCrtcs))],
		Connectors: connectors[:min(len(connectors), int(arg.countConns))],
		Encoders:   encoders[:min(len(encoders), int(arg.countEncoders))],
		MinWidth:   arg.minWidth,
		MaxWidth:   arg.maxWidth,
		MinHeight:  arg.minHeight,
		MaxHeight:  arg.maxHeight,
	}, nil
}

// Connector fetches a connector with its modes and encoders.
func (c *Card) Connector(id uint32) (*Connector, error) {
	arg := &sysGetConnector{connectorID: id}
	if err := c.ioctl(ioctlModeGetConnector, arg); err != nil {
		return nil, err
	}

	var (
		modes    = make([]ModeInfo, arg.countModes)
		encoders = make([]uint32, arg.countEncoders)
	)
	arg.modesPtr = ptr(modes)
	arg.encodersPtr = ptr(encoders)
	arg.countProps = 0

	err := c.ioctl(ioctlModeGetConnector, arg)
	runtime.KeepAlive(modes)
	runtime.KeepAlive(encoders)
	if err != nil {
		return nil, err
	}

	return &Connector{
		ID:         arg.connectorID,
		EncoderID:  arg.encoderID,
		Type:       arg.connectorType,
		TypeID:     arg.connectorTypeID,
		Connection: arg.connection,
		Width:      arg.mmWidth,
		Height:     arg.mmHeight,
		Modes:      modes[:min(len(modes), int(arg.countModes))],
		Encoders:   encoders[:min(len(encoders), int(arg.countEncoders))],
	}, nil
}

// Encoder fetches an encoder.
func (c *Card) Encoder(id uint32) (*Encoder, error) {
	arg := &sysGetEncoder{encoderID: id}
	if err := c.ioctl(ioctlModeGetEncoder, arg); err != nil {
		return nil, err
	}
	return &Encoder{
		ID:             arg.encoderID,
		Type:           arg.encoderType,
		CRTCID:         arg.crtcID,
		PossibleCRTCs:  arg.possibleCrtcs,
		PossibleClones: arg.possibleClones,
	}, nil
}

// CRTC fetches the current state of a CRTC.
func (c *Card) CRTC(id uint32) (*CRTC, error) {
	arg := &sysCrtc{crtcID: id}
	if err := c.ioctl(ioctlModeGetCrtc, arg); err != nil {
		return nil, err
	}
	return &CRTC{
		ID:        arg.crtcID,
		BufferID:  arg.fbID,
		X:         arg.x,
		Y:         arg.y,
		ModeValid: arg.modeValid != 0,
		Mode:      arg.mode,
		GammaSize: int(arg.gammaSize),
	}, nil
}

// SetCRTC performs a synchronous mode-set. A nil mode with no connectors and
// a zero framebuffer disables the CRTC.
func (c *Card) SetCRTC(crtcID, fbID, x, y uint32, connectors []uint32, mode *ModeInfo) error {
	arg := &sysCrtc{
		setConnectorsPtr: ptr(connectors),
		countConnectors:  uint32(len(connectors)),
		crtcID:           crtcID,
		fbID:             fbID,
		x:                x,
		y:                y,
	}
	if mode != nil {
		arg.mode = *mode
		arg.modeValid = 1
	}
	err := c.ioctl(ioctlModeSetCrtc, arg)
	runtime.KeepAlive(connectors)
	return err
}

// PageFlip schedules a flip to fbID at the next vertical blank. With
// PageFlipEvent set, the kernel queues a FlipComplete event carrying userData.
func (c *Card) PageFlip(crtcID, fbID, flags uint32, userData uint64) error {
	return c.ioctl(ioctlModePageFlip, &sysPageFlip{
		crtcID:   crtcID,
		fbID:     fbID,
		flags:    flags,
		userData: userData,
	})
}

// SetGamma programs the CRTC gamma ramp. All three channels must have the same
// length, which must match the CRTC gamma size.
func (c *Card) SetGamma(crtcID uint32, red, green, blue []uint16) error {
	if len(red) != len(green) || len(red) != len(blue) {
		return fmt.Errorf("drm: gamma channel sizes differ: %d/%d/%d", len(red), len(green), len(blue))
	}
	err := c.ioctl(ioctlModeSetGamma, &sysCrtcLUT{
		crtcID:    crtcID,
		gammaSize: uint32(len(red)),
		red:       ptr(red),
		green:     ptr(green),
		blue:      ptr(blue),
	})
	runtime.KeepAlive(red)
	runtime.KeepAlive(green)
	runtime.KeepAlive(blue)
	return err
}
