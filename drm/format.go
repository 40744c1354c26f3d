package drm

// Format is a DRM fourcc pixel format code, from <drm/drm_fourcc.h>.
type Format uint32

func fourcc(a, b, c, d byte) Format {
	return Format(a) | Format(b)<<8 | Format(c)<<16 | Format(d)<<24
}

// Formats.
var (
	FormatC8       = fourcc('C', '8', ' ', ' ') // [7:0] C
	FormatXRGB8888 = fourcc('X', 'R', '2', '4') // [31:0] x:R:G:B 8:8:8:8 little endian
	FormatARGB8888 = fourcc('A', 'R', '2', '4') // [31:0] A:R:G:B 8:8:8:8 little endian
)

// String returns the four character code, such as "XR24".
func (f Format) String() string {
	b := []byte{
		byte(f),
		byte(f >> 8),
		byte(f >> 16),
		byte(f >> 24),
	}
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			b[i] = '?'
		}
	}
	return string(b)
}

// BitsPerPixel returns the storage size of one pixel, or 0 for formats this
// package knows nothing about.
func (f Format) BitsPerPixel() int {
	switch f {
	case FormatC8:
		return 8
	case FormatXRGB8888, FormatARGB8888:
		return 32
	default:
		return 0
	}
}
