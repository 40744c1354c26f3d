// Package draw has the drawing helpers used to compose frames into scanout
// and render buffers.
package draw

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Drawer is an alias for [image/draw.Drawer].
type Drawer = draw.Drawer

// Image is an alias for [image/draw.Image].
type Image = draw.Image

// Op is an alias for image/draw.Op
type Op = draw.Op

const (
	// Over specifies ``(src in mask) over dst''.
	Over Op = iota

	// Src specifies ``src in mask''.
	Src
)

// Draw calls [DrawMask] with a nil mask.
func Draw(dst Image, r image.Rectangle, src image.Image, sp image.Point, op Op) {
	DrawMask(dst, r, src, sp, nil, image.Point{}, op)
}

// DrawMask aligns r.Min in dst with sp in src and mp in mask and then replaces the rectangle r
// in dst with the result of a Porter-Duff composition. A nil mask is treated as opaque.
func DrawMask(dst Image, r image.Rectangle, src image.Image, sp image.Point, mask image.Image, mp image.Point, op Op) {
	draw.DrawMask(dst, r, src, sp, mask, mp, op)
}

// Fill replaces r in dst with c.
func Fill(dst Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, Src)
}

// Quality selects the resampling kernel used by [Scale].
type Quality int

const (
	// Fast is nearest neighbor, suited to integer upscaling.
	Fast Quality = iota

	// Smooth is bilinear.
	Smooth

	// Best is Catmull-Rom.
	Best
)

func (q Quality) scaler() xdraw.Scaler {
	switch q {
	case Smooth:
		return xdraw.ApproxBiLinear
	case Best:
		return xdraw.CatmullRom
	default:
		return xdraw.NearestNeighbor
	}
}

// Scale resamples all of src into dr in dst.
func Scale(dst Image, dr image.Rectangle, src image.Image, q Quality, op Op) {
	q.scaler().Scale(dst, dr, src, src.Bounds(), op, nil)
}

// Fit scales src into dst keeping its aspect ratio, centered. The returned
// rectangle is the area that was drawn.
func Fit(dst Image, src image.Image, q Quality, op Op) image.Rectangle {
	var (
		db = dst.Bounds()
		sb = src.Bounds()
	)
	if sb.Empty() || db.Empty() {
		return image.Rectangle{}
	}
	w, h := db.Dx(), sb.Dy()*db.Dx()/sb.Dx()
	if h > db.Dy() {
		w, h = sb.Dx()*db.Dy()/sb.Dy(), db.Dy()
	}
	at := db.Min.Add(image.Pt((db.Dx()-w)/2, (db.Dy()-h)/2))
	dr := image.Rectangle{Min: at, Max: at.Add(image.Pt(w, h))}
	Scale(dst, dr, src, q, op)
	return dr
}
