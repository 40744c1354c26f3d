package kms

import (
	"fmt"
	"image/color"
	"io"
	"os"
)

// LUTSize is the number of entries in a palette file.
const LUTSize = 256

// LUTEntry is one level of a color lookup table, in 16-bit fixed point.
type LUTEntry struct {
	Red, Green, Blue uint16
}

// LUT is a color lookup table, one entry per input level.
type LUT []LUTEntry

// ReadPalette reads LUTSize red, green, blue byte triples.
func ReadPalette(r io.Reader) (LUT, error) {
	lut, err := readPalette(r)
	if err != nil {
		return nil, newError("read palette", ErrMalformedInput, err)
	}
	return lut, nil
}

func readPalette(r io.Reader) (LUT, error) {
	var raw [3 * LUTSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return nil, err
	}

	lut := make(LUT, LUTSize)
	for i := range lut {
		lut[i] = LUTEntry{
			Red:   uint16(raw[i*3+0]) << 8,
			Green: uint16(raw[i*3+1]) << 8,
			Blue:  uint16(raw[i*3+2]) << 8,
		}
	}
	return lut, nil
}

// LoadPalette reads a palette file.
func LoadPalette(name string) (LUT, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, newError("load palette", ErrMalformedInput, err)
	}
	defer func() { _ = f.Close() }()

	lut, err := readPalette(f)
	if err != nil {
		return nil, newError("load palette", ErrMalformedInput, fmt.Errorf("%s: %w", name, err))
	}
	return lut, nil
}

// LinearLUT returns an identity ramp of n entries.
func LinearLUT(n int) LUT {
	lut := make(LUT, n)
	for i := range lut {
		var v uint16
		if n > 1 {
			v = uint16(i * 0xffff / (n - 1))
		}
		lut[i] = LUTEntry{Red: v, Green: v, Blue: v}
	}
	return lut
}

// Palette returns the table as colors, index for index.
func (lut LUT) Palette() color.Palette {
	if len(lut) == 0 {
		return nil
	}
	p := make(color.Palette, len(lut))
	for i, e := range lut {
		p[i] = color.RGBA64{R: e.Red, G: e.Green, B: e.Blue, A: 0xffff}
	}
	return p
}
