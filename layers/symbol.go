package layers

import "image/color"

type Stroke struct {
	Color color.NRGBA
	Width float32
}

type PointSymbol struct {
	Color   color.NRGBA
	Outline Stroke
	Size    float32
}

type LineSymbol struct {
	Color color.NRGBA
	Width float32
}

type FillSymbol struct {
	Color   color.NRGBA
	Outline Stroke
}

// Symbology holds one symbol per geometry family.
type Symbology struct {
	Point    PointSymbol
	Polyline LineSymbol
	Polygon  FillSymbol
}

var palette = []color.NRGBA{
	{R: 0x2a, G: 0x9d, B: 0x8f, A: 0xff},
	{R: 0xe9, G: 0xc4, B: 0x6a, A: 0xff},
	{R: 0xf4, G: 0xa2, B: 0x61, A: 0xff},
	{R: 0x8a, G: 0xb1, B: 0x7d, A: 0xff},
	{R: 0xe7, G: 0x6f, B: 0x51, A: 0xff},
	{R: 0x26, G: 0x46, B: 0x53, A: 0xff},
}

// DefaultSymbology picks the n-th palette colour.
func DefaultSymbology(n int) Symbology {
	c := palette[n%len(palette)]
	fill := c
	fill.A = 0x60
	outline := Stroke{Color: c, Width: 1.5}
	return Symbology{
		Point:    PointSymbol{Color: c, Outline: Stroke{Color: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, Width: 1}, Size: 8},
		Polyline: LineSymbol{Color: c, Width: 2},
		Polygon:  FillSymbol{Color: fill, Outline: outline},
	}
}
