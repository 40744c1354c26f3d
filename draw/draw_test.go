package draw

import (
	"image"
	"image/color"
	"testing"
)

var (
	testBlack = color.RGBA{A: 0xff}
	testWhite = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

func testCanvas(w, h int) *image.RGBA {
	i := image.NewRGBA(image.Rect(0, 0, w, h))
	Fill(i, i.Bounds(), testBlack)
	return i
}

func testCount(i *image.RGBA, c color.Color) (n int) {
	b := i.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if i.At(x, y) == c {
				n++
			}
		}
	}
	return
}

func TestFill(t *testing.T) {
	i := testCanvas(8, 8)
	Fill(i, image.Rect(2, 2, 4, 5), testWhite)
	if n := testCount(i, testWhite); n != 6 {
		t.Errorf("expected 6 pixels filled, got %d", n)
	}
	if i.At(2, 2) != testWhite || i.At(3, 4) != testWhite || i.At(4, 4) != testBlack {
		t.Error("fill outside of rectangle")
	}
}

func TestRectangle(t *testing.T) {
	tests := []struct {
		Name string
		Rect image.Rectangle
		Want int
	}{
		{"empty", image.Rectangle{}, 0},
		{"point", image.Rect(1, 1, 2, 2), 1},
		{"square", image.Rect(1, 2, 5, 6), 12},
		{"wide", image.Rect(0, 3, 10, 5), 20},
		{"clipped", image.Rect(-2, -2, 20, 20), 0},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			i := testCanvas(10, 10)
			Rectangle(i, test.Rect, testWhite)
			if n := testCount(i, testWhite); n != test.Want {
				it.Errorf("expected %d outline pixels, got %d", test.Want, n)
			}
		})
	}
}

func TestBox(t *testing.T) {
	i := testCanvas(10, 10)
	Box(i, image.Rect(6, 7, 2, 3), testWhite)
	if n := testCount(i, testWhite); n != 16 {
		t.Errorf("expected 16 pixels, got %d", n)
	}
}

func TestRoundedBox(t *testing.T) {
	i := testCanvas(20, 20)
	RoundedBox(i, image.Rect(0, 0, 20, 20), 5, testWhite)
	if i.At(0, 0) != testBlack || i.At(19, 19) != testBlack {
		t.Error("expected corners to be rounded off")
	}
	if i.At(10, 0) != testWhite || i.At(0, 10) != testWhite || i.At(10, 10) != testWhite {
		t.Error("expected edges and center to be filled")
	}
}

func TestRoundedRectangle(t *testing.T) {
	i := testCanvas(20, 20)
	RoundedRectangle(i, image.Rect(0, 0, 20, 20), 4, testWhite)
	if i.At(0, 0) != testBlack {
		t.Error("expected corner to be rounded off")
	}
	if i.At(10, 0) != testWhite || i.At(19, 10) != testWhite {
		t.Error("expected edges to be drawn")
	}
	if i.At(10, 10) != testBlack {
		t.Error("expected center to be left alone")
	}
}

func TestLine(t *testing.T) {
	tests := []struct {
		Name string
		A, B image.Point
		Want int
	}{
		{"point", image.Pt(3, 3), image.Pt(3, 3), 1},
		{"horizontal", image.Pt(0, 1), image.Pt(9, 1), 10},
		{"vertical", image.Pt(2, 9), image.Pt(2, 0), 10},
		{"diagonal", image.Pt(0, 0), image.Pt(9, 9), 10},
		{"steep", image.Pt(0, 0), image.Pt(3, 9), 10},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			i := testCanvas(10, 10)
			Line(i, test.A, test.B, testWhite)
			if i.At(test.A.X, test.A.Y) != testWhite || i.At(test.B.X, test.B.Y) != testWhite {
				it.Error("expected both end points to be drawn")
			}
			if n := testCount(i, testWhite); n != test.Want {
				it.Errorf("expected %d pixels, got %d", test.Want, n)
			}
		})
	}
}

func TestFit(t *testing.T) {
	var (
		dst = testCanvas(100, 50)
		src = testCanvas(20, 20)
	)
	Fill(src, src.Bounds(), testWhite)
	r := Fit(dst, src, Fast, Src)
	if want := image.Rect(25, 0, 75, 50); r != want {
		t.Fatalf("expected %s, got %s", want, r)
	}
	if dst.At(50, 25) != testWhite || dst.At(10, 25) != testBlack {
		t.Error("expected only the fitted area to be drawn")
	}
	if r := Fit(dst, image.NewRGBA(image.Rectangle{}), Fast, Src); !r.Empty() {
		t.Errorf("expected nothing drawn for an empty source, got %s", r)
	}
}

func TestText(t *testing.T) {
	var (
		i    = testCanvas(120, 40)
		face = Face(nil, 20)
	)
	defer face.Close()

	end := Text(i, image.Pt(4, 30), face, testWhite, "KMS")
	if end.X <= 4 || end.Y != 30 {
		t.Errorf("unexpected dot after drawing: %s", end)
	}

	b := TextBounds(image.Pt(4, 30), face, "KMS")
	if b.Empty() || !b.In(i.Bounds()) {
		t.Fatalf("unexpected text bounds %s", b)
	}
	var drawn bool
	for y := 0; y < i.Rect.Dy(); y++ {
		for x := 0; x < i.Rect.Dx(); x++ {
			if r, _, _, _ := i.At(x, y).RGBA(); r != 0 {
				drawn = true
			}
		}
	}
	if !drawn {
		t.Error("expected text to be drawn")
	}
}
