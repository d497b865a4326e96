package main

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/photonicat/simply_analog/internal/face"
)

func TestGlyphSVG(t *testing.T) {
	for _, glyph := range []string{GLYPH_BATTERY, GLYPH_BLUETOOTH, GLYPH_QUIET} {
		data, err := glyphSVG(glyph, face.White)
		if err != nil {
			t.Fatalf("%s: %v", glyph, err)
		}
		doc := string(data)
		if !strings.Contains(doc, "<svg") || !strings.Contains(doc, "</svg>") {
			t.Errorf("%s: not an svg document: %s", glyph, doc)
		}
		if !strings.Contains(doc, "#FFFFFF") {
			t.Errorf("%s: tone missing from %s", glyph, doc)
		}
	}

	if _, err := glyphSVG("wifi", face.White); err == nil {
		t.Error("unknown glyph should fail")
	}
}

func TestRenderGlyph(t *testing.T) {
	img, err := renderGlyph(iconKey{glyph: GLYPH_QUIET, tone: face.White, w: 10, h: 10})
	if err != nil {
		t.Fatalf("renderGlyph: %v", err)
	}
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 10 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}
	opaque := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] > 0 {
			opaque++
		}
	}
	if opaque == 0 {
		t.Error("glyph rasterized to nothing")
	}

	if _, err := renderGlyph(iconKey{glyph: GLYPH_QUIET, tone: face.White}); err == nil {
		t.Error("zero size should fail")
	}
}

func TestDrawIcon(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 40, 40))
	clearFrame(frame, color.RGBA{0, 0, 0, 255})

	rect := face.Rect{X: 5, Y: 5, W: 13, H: 6}
	if err := drawIcon(frame, GLYPH_BATTERY, face.White, rect); err != nil {
		t.Fatalf("drawIcon: %v", err)
	}
	black := color.RGBA{0, 0, 0, 255}
	inside := false
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if frame.RGBAAt(x, y) == black {
				continue
			}
			if x < rect.X || x >= rect.X+rect.W || y < rect.Y || y >= rect.Y+rect.H {
				t.Fatalf("icon painted outside its rect at %d,%d", x, y)
			}
			inside = true
		}
	}
	if !inside {
		t.Error("icon not painted")
	}

	if err := drawIcon(frame, "wifi", face.White, rect); err == nil {
		t.Error("unknown glyph should fail")
	}
}

func TestParseToneParam(t *testing.T) {
	tests := []struct {
		in   string
		want face.Color
	}{
		{"", face.White},
		{"white", face.White},
		{" Black ", face.Black},
		{"#FFAA00", face.ChromeYellow},
		{"purple", face.White},
		{"unset", face.White},
	}
	for _, tt := range tests {
		if got := parseToneParam(tt.in); got != tt.want {
			t.Errorf("parseToneParam(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
