package drm

import "github.com/BeatGlow/kms/internal/ioctl"

// Definitions from <drm/drm.h> and <drm/drm_mode.h>.
const (
	drmBase    = 'd'
	dmaBufBase = 'b'

	displayModeLen = 32
)

type (
	sysGetCap struct {
		capability uint64
		value      uint64
	}

	sysCardRes struct {
		fbIDPtr        uint64
		crtcIDPtr      uint64
		connectorIDPtr uint64
		encoderIDPtr   uint64
		countFbs       uint32
		countCrtcs     uint32
		countConns     uint32
		countEncoders  uint32
		minWidth       uint32
		maxWidth       uint32
		minHeight      uint32
		maxHeight      uint32
	}

	sysGetConnector struct {
		encodersPtr   uint64
		modesPtr      uint64
		propsPtr      uint64
		propValuesPtr uint64

		countModes    uint32
		countProps    uint32
		countEncoders uint32

		encoderID       uint32
		connectorID     uint32
		connectorType   uint32
		connectorTypeID uint32

		connection uint32
		mmWidth    uint32
		mmHeight   uint32
		subpixel   uint32

		pad uint32
	}

	sysGetEncoder struct {
		encoderID      uint32
		encoderType    uint32
		crtcID         uint32
		possibleCrtcs  uint32
		possibleClones uint32
	}

	sysCrtc struct {
		setConnectorsPtr uint64
		countConnectors  uint32

		crtcID uint32
		fbID   uint32

		x, y uint32

		gammaSize uint32
		modeValid uint32
		mode      ModeInfo
	}

	sysPageFlip struct {
		crtcID   uint32
		fbID     uint32
		flags    uint32
		reserved uint32
		userData uint64
	}

	sysCrtcLUT struct {
		crtcID    uint32
		gammaSize uint32
		red       uint64
		green     uint64
		blue      uint64
	}

	sysCreateDumb struct {
		height uint32
		width  uint32
		bpp    uint32
		flags  uint32
		handle uint32
		pitch  uint32
		size   uint64
	}

	sysMapDumb struct {
		handle uint32
		pad    uint32
		offset uint64
	}

	sysDestroyDumb struct {
		handle uint32
	}

	sysFBCmd2 struct {
		fbID        uint32
		width       uint32
		height      uint32
		pixelFormat uint32
		flags       uint32
		handles     [4]uint32
		pitches     [4]uint32
		offsets     [4]uint32
		modifier    [4]uint64
	}

	sysPrimeHandle struct {
		handle uint32
		flags  uint32
		fd     int32
	}

	sysGemClose struct {
		handle uint32
		pad    uint32
	}

	sysDMABufSync struct {
		flags uint64
	}
)

const rw = ioctl.Read | ioctl.Write

var (
	ioctlSetMaster  = ioctl.Encode(ioctl.None, 0, drmBase, 0x1e)
	ioctlDropMaster = ioctl.Encode(ioctl.None, 0, drmBase, 0x1f)
	ioctlGetCap     = ioctl.Pointer(rw, (*sysGetCap)(nil), drmBase, 0x0c)
	ioctlGemClose   = ioctl.Pointer(ioctl.Write, (*sysGemClose)(nil), drmBase, 0x09)

	ioctlPrimeHandleToFD = ioctl.Pointer(rw, (*sysPrimeHandle)(nil), drmBase, 0x2d)
	ioctlPrimeFDToHandle = ioctl.Pointer(rw, (*sysPrimeHandle)(nil), drmBase, 0x2e)

	ioctlModeGetResources = ioctl.Pointer(rw, (*sysCardRes)(nil), drmBase, 0xa0)
	ioctlModeGetCrtc      = ioctl.Pointer(rw, (*sysCrtc)(nil), drmBase, 0xa1)
	ioctlModeSetCrtc      = ioctl.Pointer(rw, (*sysCrtc)(nil), drmBase, 0xa2)
	ioctlModeSetGamma     = ioctl.Pointer(rw, (*sysCrtcLUT)(nil), drmBase, 0xa5)
	ioctlModeGetEncoder   = ioctl.Pointer(rw, (*sysGetEncoder)(nil), drmBase, 0xa6)
	ioctlModeGetConnector = ioctl.Pointer(rw, (*sysGetConnector)(nil), drmBase, 0xa7)
	ioctlModeRmFB         = ioctl.Encode(rw, 4, drmBase, 0xaf)
	ioctlModePageFlip     = ioctl.Pointer(rw, (*sysPageFlip)(nil), drmBase, 0xb0)
	ioctlModeCreateDumb   = ioctl.Pointer(rw, (*sysCreateDumb)(nil), drmBase, 0xb2)
	ioctlModeMapDumb      = ioctl.Pointer(rw, (*sysMapDumb)(nil), drmBase, 0xb3)
	ioctlModeDestroyDumb  = ioctl.Pointer(rw, (*sysDestroyDumb)(nil), drmBase, 0xb4)
	ioctlModeAddFB2       = ioctl.Pointer(rw, (*sysFBCmd2)(nil), drmBase, 0xb8)

	ioctlDMABufSync = ioctl.Pointer(ioctl.Write, (*sysDMABufSync)(nil), dmaBufBase, 0x00)
)
