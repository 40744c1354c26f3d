package kms

import (
	"encoding/binary"
	"fmt"
	"image/color"

	"github.com/BeatGlow/kms/drm"
	"github.com/BeatGlow/kms/pixel"
)

// Format is a DRM fourcc pixel format.
type Format = drm.Format

// Supported formats.
var (
	// C8 is 8-bit indexed color, the colors come from the CRTC lookup table.
	C8 = drm.FormatC8

	// XRGB8888 is 32-bit packed RGB.
	XRGB8888 = drm.FormatXRGB8888

	// ARGB8888 is 32-bit packed RGB with alpha. It is accepted for imported
	// buffers only.
	ARGB8888 = drm.FormatARGB8888
)

// NewImage returns an image over mapped buffer memory with the given pitch.
// For C8, palette sets the colors of the indexes; nil selects a gray ramp.
func NewImage(mem []byte, width, height, pitch int, format Format, palette color.Palette) (pixel.Image, error) {
	bpp := format.BitsPerPixel()
	if bpp == 0 {
		return nil, newError("image", ErrUnsupportedFormat, fmt.Errorf("format %s", format))
	}
	if width < 0 || height < 0 || pitch < width*bpp/8 || len(mem) < pitch*height {
		return nil, newError("image", ErrResource, fmt.Errorf("%d bytes do not fit %dx%d with pitch %d", len(mem), width, height, pitch))
	}

	buf := pixel.NewBuffer(mem, width, height, pitch)
	switch format {
	case C8:
		return &pixel.C8Image{Buffer: buf, Palette: palette}, nil
	case ARGB8888:
		return &pixel.ARGB8888Image{Buffer: buf, Order: binary.LittleEndian}, nil
	default:
		return &pixel.XRGB8888Image{Buffer: buf, Order: binary.LittleEndian}, nil
	}
}

func colorModel(format Format, palette color.Palette) color.Model {
	switch format {
	case C8:
		if len(palette) > 0 {
			return palette
		}
		return pixel.GrayPalette
	case ARGB8888:
		return pixel.ARGB8888Model
	default:
		return pixel.XRGB8888Model
	}
}
