package draw

import (
	"image"
	"image/color"
)

// Line draws a line between two points, both included.
func Line(dst Image, a, b image.Point, c color.Color) {
	var (
		dx = abs(b.X - a.X)
		dy = -abs(b.Y - a.Y)
		sx = sign(b.X - a.X)
		sy = sign(b.Y - a.Y)
		e  = dx + dy
	)
	for {
		dst.Set(a.X, a.Y, c)
		if a == b {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			a.X += sx
		}
		if e2 <= dx {
			e += dx
			a.Y += sy
		}
	}
}

// HorizontalLine draws w pixels starting at (x,y).
func HorizontalLine(dst Image, x, y, w int, c color.Color) {
	if w > 0 {
		Fill(dst, image.Rect(x, y, x+w, y+1), c)
	}
}

// VerticalLine draws h pixels starting at (x,y).
func VerticalLine(dst Image, x, y, h int, c color.Color) {
	if h > 0 {
		Fill(dst, image.Rect(x, y, x+1, y+h), c)
	}
}

// Rectangle draws the outline of rect, inside its bounds.
func Rectangle(dst Image, rect image.Rectangle, c color.Color) {
	rect = rect.Canon()
	if rect.Empty() {
		return
	}
	var (
		w = rect.Dx()
		h = rect.Dy()
	)
	HorizontalLine(dst, rect.Min.X, rect.Min.Y, w, c)
	HorizontalLine(dst, rect.Min.X, rect.Max.Y-1, w, c)
	VerticalLine(dst, rect.Min.X, rect.Min.Y, h, c)
	VerticalLine(dst, rect.Max.X-1, rect.Min.Y, h, c)
}

// RoundedRectangle draws a rectangle with radius pixels rounded corners.
func RoundedRectangle(dst Image, rect image.Rectangle, radius int, c color.Color) {
	rect = rect.Canon()
	r := clampRadius(rect, radius)
	if r == 0 {
		Rectangle(dst, rect, c)
		return
	}
	var (
		x0, y0 = rect.Min.X, rect.Min.Y
		x1, y1 = rect.Max.X - 1, rect.Max.Y - 1
	)
	HorizontalLine(dst, x0+r, y0, rect.Dx()-2*r, c)
	HorizontalLine(dst, x0+r, y1, rect.Dx()-2*r, c)
	VerticalLine(dst, x0, y0+r, rect.Dy()-2*r, c)
	VerticalLine(dst, x1, y0+r, rect.Dy()-2*r, c)
	circle(r, func(x, y int) {
		dst.Set(x0+r-x, y0+r-y, c)
		dst.Set(x1-r+x, y0+r-y, c)
		dst.Set(x0+r-x, y1-r+y, c)
		dst.Set(x1-r+x, y1-r+y, c)
	})
}

// Box draws a filled rectangle.
func Box(dst Image, rect image.Rectangle, c color.Color) {
	Fill(dst, rect.Canon(), c)
}

// RoundedBox draws a filled rectangle with radius pixels rounded corners.
func RoundedBox(dst Image, rect image.Rectangle, radius int, c color.Color) {
	rect = rect.Canon()
	r := clampRadius(rect, radius)
	Box(dst, image.Rect(rect.Min.X, rect.Min.Y+r, rect.Max.X, rect.Max.Y-r), c)
	if r == 0 {
		return
	}
	var (
		x0, y0 = rect.Min.X, rect.Min.Y
		y1     = rect.Max.Y - 1
	)
	circle(r, func(x, y int) {
		HorizontalLine(dst, x0+r-x, y0+r-y, rect.Dx()-2*(r-x), c)
		HorizontalLine(dst, x0+r-x, y1-r+y, rect.Dx()-2*(r-x), c)
	})
}

func clampRadius(rect image.Rectangle, radius int) int {
	return max(0, min(radius, (rect.Dx()-1)/2, (rect.Dy()-1)/2))
}

// circle calls plot for every point of the midpoint circle octants, mirrored
// into the upper right quadrant.
func circle(radius int, plot func(x, y int)) {
	var (
		x = radius
		y = 0
		e = 1 - radius
	)
	for x >= y {
		plot(x, y)
		plot(y, x)
		y++
		if e < 0 {
			e += 2*y + 1
		} else {
			x--
			e += 2*(y-x) + 1
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}
