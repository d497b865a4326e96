package main

import (
	"bytes"
	"fmt"
	"image"

	svg "github.com/ajstarks/svgo"
	"github.com/bluele/gcache"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/photonicat/simply_analog/internal/face"
)

const (
	GLYPH_BATTERY   = "battery"
	GLYPH_BLUETOOTH = "bluetooth"
	GLYPH_QUIET     = "quiet"
)

type iconKey struct {
	glyph string
	tone  face.Color
	w, h  int
}

var iconCache = gcache.New(32).LRU().LoaderFunc(func(k interface{}) (interface{}, error) {
	return renderGlyph(k.(iconKey))
}).Build()

// glyphSVG writes the named status glyph as an SVG document in the given tone.
// Glyphs are drawn on their own grid and scaled when rasterized.
func glyphSVG(glyph string, tone face.Color) ([]byte, error) {
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	fill := "fill:" + tone.Hex()
	stroke := "fill:none;stroke-linejoin:round;stroke-width:2;stroke:" + tone.Hex()

	switch glyph {
	case GLYPH_BATTERY:
		canvas.Startview(26, 12, 0, 0, 26, 12)
		canvas.Rect(1, 1, 20, 10, stroke)
		canvas.Rect(22, 4, 3, 4, fill)
		canvas.Rect(4, 4, 3, 4, fill)
	case GLYPH_BLUETOOTH:
		canvas.Startview(14, 22, 0, 0, 14, 22)
		canvas.Polyline([]int{2, 12, 7, 7, 12, 2}, []int{6, 16, 21, 1, 6, 16}, stroke)
	case GLYPH_QUIET:
		canvas.Startview(20, 20, 0, 0, 20, 20)
		canvas.Path("M13 1 A9 9 0 1 0 19 14 A7 7 0 0 1 13 1 Z", fill)
	default:
		return nil, fmt.Errorf("unknown glyph %q", glyph)
	}
	canvas.End()
	return buf.Bytes(), nil
}

func renderGlyph(key iconKey) (*image.RGBA, error) {
	if key.w <= 0 || key.h <= 0 {
		return nil, fmt.Errorf("invalid icon size %dx%d", key.w, key.h)
	}
	data, err := glyphSVG(key.glyph, key.tone)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	icon.SetTarget(0, 0, float64(key.w), float64(key.h))

	img := image.NewRGBA(image.Rect(0, 0, key.w, key.h))
	scanner := rasterx.NewScannerGV(key.w, key.h, img, img.Bounds())
	dasher := rasterx.NewDasher(key.w, key.h, scanner)
	icon.Draw(dasher, 1.0)
	return img, nil
}

// drawIcon rasterizes glyph into rect, reusing earlier rasters of the same
// glyph, tone and size.
func drawIcon(frame *image.RGBA, glyph string, tone face.Color, rect face.Rect) error {
	v, err := iconCache.Get(iconKey{glyph: glyph, tone: tone, w: rect.W, h: rect.H})
	if err != nil {
		return err
	}
	return copyImageToImageAt(frame, v.(*image.RGBA), rect.X, rect.Y)
}

// parseToneParam reads a glyph tone from a query value; white by default.
func parseToneParam(s string) face.Color {
	switch trimLower(s) {
	case "", "white":
		return face.White
	case "black":
		return face.Black
	}
	c, err := face.ParseColor(s)
	if err != nil || !c.IsSet() {
		return face.White
	}
	return c
}
