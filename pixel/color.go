package pixel

import "image/color"

// Models for the standard color types.
var (
	XRGB8888Model color.Model = color.ModelFunc(xrgb8888Model)
	ARGB8888Model color.Model = color.ModelFunc(argb8888Model)
)

// Black and White in the 32-bit formats.
var (
	Black = XRGB8888{0x000000}
	White = XRGB8888{0xffffff}
)

// XRGB8888 represents a 32-bit x:R:G:B color, the top byte is ignored.
type XRGB8888 struct {
	V uint32
}

func (c XRGB8888) RGBA() (r, g, b, a uint32) {
	r = c.V >> 16 & 0xff
	g = c.V >> 8 & 0xff
	b = c.V & 0xff
	return r | r<<8, g | g<<8, b | b<<8, 0xffff
}

func xrgb8888Model(c color.Color) color.Color {
	if c, ok := c.(XRGB8888); ok {
		return XRGB8888{c.V & 0xffffff}
	}
	r, g, b, _ := c.RGBA()
	return XRGB8888{(r>>8)<<16 | (g>>8)<<8 | b>>8}
}

// ARGB8888 represents a 32-bit A:R:G:B color with premultiplied alpha, the
// blending the display planes use by default.
type ARGB8888 struct {
	V uint32
}

func (c ARGB8888) RGBA() (r, g, b, a uint32) {
	a = c.V >> 24
	r = c.V >> 16 & 0xff
	g = c.V >> 8 & 0xff
	b = c.V & 0xff
	return r | r<<8, g | g<<8, b | b<<8, a | a<<8
}

func argb8888Model(c color.Color) color.Color {
	if _, ok := c.(ARGB8888); ok {
		return c
	}
	r, g, b, a := c.RGBA()
	return ARGB8888{(a>>8)<<24 | (r>>8)<<16 | (g>>8)<<8 | b>>8}
}

// GrayPalette is the 256 level ramp used by indexed images without a palette.
var GrayPalette = func() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.Gray{Y: uint8(i)}
	}
	return p
}()
