package draw

import (
	"image"
	"image/color"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

var (
	defaultFont     *truetype.Font
	defaultFontOnce sync.Once
)

// DefaultFont returns the Go Regular font.
func DefaultFont() *truetype.Font {
	defaultFontOnce.Do(func() {
		var err error
		if defaultFont, err = truetype.Parse(goregular.TTF); err != nil {
			panic(err)
		}
	})
	return defaultFont
}

// Face returns a face of size points at 72 dpi for f, or for [DefaultFont]
// when f is nil.
func Face(f *truetype.Font, size float64) font.Face {
	if f == nil {
		f = DefaultFont()
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Text draws s with its baseline origin at p and returns the dot position
// after the last glyph.
func Text(dst Image, p image.Point, face font.Face, c color.Color, s string) image.Point {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(p.X, p.Y),
	}
	d.DrawString(s)
	return image.Pt(d.Dot.X.Round(), d.Dot.Y.Round())
}

// TextBounds returns the pixel bounds of s drawn with its baseline origin at
// p.
func TextBounds(p image.Point, face font.Face, s string) image.Rectangle {
	b, _ := font.BoundString(face, s)
	return image.Rect(
		p.X+b.Min.X.Floor(), p.Y+b.Min.Y.Floor(),
		p.X+b.Max.X.Ceil(), p.Y+b.Max.Y.Ceil(),
	)
}

// CenterText draws s centered in r.
func CenterText(dst Image, r image.Rectangle, face font.Face, c color.Color, s string) {
	b := TextBounds(image.Point{}, face, s)
	p := image.Pt(
		r.Min.X+(r.Dx()-b.Dx())/2-b.Min.X,
		r.Min.Y+(r.Dy()-b.Dy())/2-b.Min.Y,
	)
	Text(dst, p, face, c, s)
}
