package pixel

import (
	"encoding/binary"
	"image"
	"image/color"

	"github.com/BeatGlow/kms/draw"
)

type Image interface {
	draw.Image

	// Clear the image.
	Clear()

	// Fill the image with a single color.
	Fill(color.Color)
}

// Buffer holds the pixel values and is a container that is used by all image formats in this package.
type Buffer struct {
	// Rect is the image bounding box.
	Rect image.Rectangle

	// Pix are the image pixels.
	Pix []byte

	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
}

// NewBuffer wraps existing memory, such as a mapped scanout buffer.
func NewBuffer(pix []byte, w, h, stride int) Buffer {
	return Buffer{
		Rect:   image.Rect(0, 0, w, h),
		Pix:    pix,
		Stride: stride,
	}
}

func (p *Buffer) Bounds() image.Rectangle {
	return p.Rect
}

func (p *Buffer) Clear() {
	clear(p.Pix)
}

func makeBuffer(w, h, stride int) Buffer {
	return NewBuffer(make([]byte, stride*h), w, h, stride)
}

func (p *Buffer) fill32(order binary.ByteOrder, v uint32) {
	row := make([]byte, p.Rect.Dx()*4)
	for i := 0; i < len(row); i += 4 {
		order.PutUint32(row[i:], v)
	}
	for y := 0; y < p.Rect.Dy(); y++ {
		copy(p.Pix[y*p.Stride:], row)
	}
}

// XRGB8888Image is a 32-bits per pixel x:R:G:B image.
type XRGB8888Image struct {
	Buffer
	Order binary.ByteOrder
}

func NewXRGB8888Image(w, h int) *XRGB8888Image {
	return &XRGB8888Image{
		Buffer: makeBuffer(w, h, w*4),
		Order:  binary.LittleEndian,
	}
}

func (p *XRGB8888Image) ColorModel() color.Model {
	return XRGB8888Model
}

func (p *XRGB8888Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*4
}

func (p *XRGB8888Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}

	v := p.Order.Uint32(p.Pix[p.PixOffset(x, y):])
	return XRGB8888{v & 0xffffff}
}

func (p *XRGB8888Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}

	v := xrgb8888Model(c).(XRGB8888).V
	p.Order.PutUint32(p.Pix[p.PixOffset(x, y):], v)
}

func (p *XRGB8888Image) Fill(c color.Color) {
	p.fill32(p.Order, xrgb8888Model(c).(XRGB8888).V)
}

// ARGB8888Image is a 32-bits per pixel A:R:G:B image.
type ARGB8888Image struct {
	Buffer
	Order binary.ByteOrder
}

func NewARGB8888Image(w, h int) *ARGB8888Image {
	return &ARGB8888Image{
		Buffer: makeBuffer(w, h, w*4),
		Order:  binary.LittleEndian,
	}
}

func (p *ARGB8888Image) ColorModel() color.Model {
	return ARGB8888Model
}

func (p *ARGB8888Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*4
}

func (p *ARGB8888Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}

	return ARGB8888{p.Order.Uint32(p.Pix[p.PixOffset(x, y):])}
}

func (p *ARGB8888Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}

	v := argb8888Model(c).(ARGB8888).V
	p.Order.PutUint32(p.Pix[p.PixOffset(x, y):], v)
}

func (p *ARGB8888Image) Fill(c color.Color) {
	p.fill32(p.Order, argb8888Model(c).(ARGB8888).V)
}

// C8Image is an 8-bits per pixel indexed image. The colors the display shows
// for each index are whatever the CRTC lookup table maps them to; Palette is
// the local view of that table.
type C8Image struct {
	Buffer
	Palette color.Palette
}

func NewC8Image(w, h int) *C8Image {
	return &C8Image{
		Buffer:  makeBuffer(w, h, w),
		Palette: GrayPalette,
	}
}

func (p *C8Image) palette() color.Palette {
	if len(p.Palette) == 0 {
		return GrayPalette
	}
	return p.Palette
}

func (p *C8Image) ColorModel() color.Model {
	return p.palette()
}

func (p *C8Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x - p.Rect.Min.X)
}

// ColorIndexAt returns the raw index at (x, y).
func (p *C8Image) ColorIndexAt(x, y int) uint8 {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return 0
	}
	return p.Pix[p.PixOffset(x, y)]
}

// SetColorIndex stores a raw index at (x, y).
func (p *C8Image) SetColorIndex(x, y int, index uint8) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}
	p.Pix[p.PixOffset(x, y)] = index
}

func (p *C8Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}

	pal := p.palette()
	index := int(p.Pix[p.PixOffset(x, y)])
	if index >= len(pal) {
		return color.Black
	}
	return pal[index]
}

func (p *C8Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}

	p.Pix[p.PixOffset(x, y)] = uint8(p.palette().Index(c))
}

func (p *C8Image) Fill(c color.Color) {
	index := uint8(p.palette().Index(c))
	for y := 0; y < p.Rect.Dy(); y++ {
		row := p.Pix[y*p.Stride : y*p.Stride+p.Rect.Dx()]
		for i := range row {
			row[i] = index
		}
	}
}

// Interface checks.
var (
	_ Image = (*XRGB8888Image)(nil)
	_ Image = (*ARGB8888Image)(nil)
	_ Image = (*C8Image)(nil)
)
