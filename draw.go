package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/llgcode/draw2d/draw2dimg"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/photonicat/simply_analog/internal/face"
	"github.com/photonicat/simply_analog/internal/logger"
)

//---------------- Painter ----------------

// Painter turns a face.Scene into pixels.
type Painter struct {
	caser *cases.Caser
	// face overrides the scaled Go Bold label face; tests use basicfont.
	face font.Face
}

// NewPainter returns a painter applying labelCase ("upper", "lower", "title"
// or "none") in the given locale.
func NewPainter(labelCase, locale string) *Painter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	var c cases.Caser
	switch trimLower(labelCase) {
	case "upper", "":
		c = cases.Upper(tag)
	case "lower":
		c = cases.Lower(tag)
	case "title":
		c = cases.Title(tag)
	default:
		return &Painter{}
	}
	return &Painter{caser: &c}
}

func (p *Painter) labelText(s string) string {
	if p.caser == nil {
		return s
	}
	return p.caser.String(s)
}

func (p *Painter) labelFace(d face.Display) (font.Face, error) {
	if p.face != nil {
		return p.face, nil
	}
	f, _, err := getFontFace(labelFontSize(d.Height))
	return f, err
}

// Paint draws sc over the whole frame: background, ticks, labels, icons, then
// hands and the centre dot on top.
func (p *Painter) Paint(frame *image.RGBA, sc face.Scene) error {
	clearFrame(frame, sc.Background.RGBA())

	gc := draw2dimg.NewGraphicContext(frame)
	for _, tick := range sc.Ticks {
		fillPolygon(gc, tick, sc.TickColor.RGBA())
	}

	labelFace, err := p.labelFace(sc.Display)
	if err != nil {
		return fmt.Errorf("label font: %w", err)
	}
	for _, l := range []face.Label{sc.Labels.Weekday, sc.Labels.Day, sc.Labels.Month} {
		p.drawLabel(frame, l, labelFace)
	}

	icons := []struct {
		glyph string
		icon  face.Icon
	}{
		{GLYPH_BATTERY, sc.Icons.Battery},
		{GLYPH_BLUETOOTH, sc.Icons.Bluetooth},
		{GLYPH_QUIET, sc.Icons.Quiet},
	}
	for _, ic := range icons {
		if !ic.icon.Visible {
			continue
		}
		if err := drawIcon(frame, ic.glyph, sc.Icons.Tone, ic.icon.Rect); err != nil {
			logger.Warn("icon not drawn", "glyph", ic.glyph, "err", err)
		}
	}

	drawHand(gc, sc.MinuteHand)
	drawHand(gc, sc.HourHand)
	drawRect(frame, sc.CenterDot.X, sc.CenterDot.Y, sc.CenterDot.W, sc.CenterDot.H, sc.DotColor.RGBA())
	return nil
}

func tracePolygon(gc *draw2dimg.GraphicContext, poly face.Polygon) {
	gc.BeginPath()
	for i, pt := range poly {
		if i == 0 {
			gc.MoveTo(float64(pt.X), float64(pt.Y))
		} else {
			gc.LineTo(float64(pt.X), float64(pt.Y))
		}
	}
	gc.Close()
}

func fillPolygon(gc *draw2dimg.GraphicContext, poly face.Polygon, c color.Color) {
	if len(poly) < 3 {
		return
	}
	gc.SetFillColor(c)
	tracePolygon(gc, poly)
	gc.Fill()
}

// drawHand fills the hand and outlines it so it stays readable where it
// crosses labels.
func drawHand(gc *draw2dimg.GraphicContext, h face.Hand) {
	if len(h.Polygon) < 3 {
		return
	}
	gc.SetFillColor(h.Fill.RGBA())
	gc.SetStrokeColor(h.Stroke.RGBA())
	gc.SetLineWidth(1)
	tracePolygon(gc, h.Polygon)
	gc.FillStroke()
}

func (p *Painter) drawLabel(frame *image.RGBA, l face.Label, f font.Face) {
	text := p.labelText(l.Text)
	if text == "" {
		return
	}
	width := font.MeasureString(f, text).Round()
	switch l.Align {
	case face.AlignCenter:
		drawText(frame, text, l.Rect.X+l.Rect.W/2, l.Rect.Y, f, l.Color.RGBA(), true)
	case face.AlignRight:
		drawText(frame, text, l.Rect.X+l.Rect.W-width, l.Rect.Y, f, l.Color.RGBA(), false)
	default:
		drawText(frame, text, l.Rect.X, l.Rect.Y, f, l.Color.RGBA(), false)
	}
}

//---------------- Drawing Functions ----------------

// drawText draws a string onto an *image.RGBA at (x,y) using the specified font face and color.
// posY is the top of the text box.
func drawText(img *image.RGBA, text string, posX, posY int, fontFace font.Face, clr color.Color, center bool) (finishX, finishY int) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(clr),
		Face: fontFace,
	}
	metrics := fontFace.Metrics()
	textWidth := d.MeasureString(text).Round()

	x := posX
	if center {
		x = posX - textWidth/2
	}
	d.Dot = fixed.P(x, posY+metrics.Ascent.Round())
	d.DrawString(text)

	finishX = x + textWidth
	finishY = posY + metrics.Ascent.Round() + metrics.Descent.Round()
	return
}

func drawRect(img *image.RGBA, x0, y0, width, height int, c color.Color) {
	r, g, b, a := c.RGBA()
	col := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}

	for x := x0; x < x0+width; x++ {
		for y := y0; y < y0+height; y++ {
			img.SetRGBA(x, y, col)
		}
	}
}

// copyImageToImageAt alpha-blends img onto frame with its top-left corner at (x0, y0).
func copyImageToImageAt(frame *image.RGBA, img *image.RGBA, x0, y0 int) error {
	if frame == nil || img == nil {
		return fmt.Errorf("nil image provided")
	}
	if x0 < 0 || y0 < 0 {
		return fmt.Errorf("x, y is negative: %d,%d", x0, y0)
	}

	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			sample := img.RGBAAt(b.Min.X+x, b.Min.Y+y)
			if sample.A == 0 {
				continue
			}
			if sample.A == 255 {
				frame.SetRGBA(x0+x, y0+y, sample)
				continue
			}
			// image.RGBA is premultiplied, so "over" is src + dst*(1-a).
			dst := frame.RGBAAt(x0+x, y0+y)
			invA := uint16(255 - sample.A)
			frame.SetRGBA(x0+x, y0+y, color.RGBA{
				R: uint8(uint16(sample.R) + uint16(dst.R)*invA/255),
				G: uint8(uint16(sample.G) + uint16(dst.G)*invA/255),
				B: uint8(uint16(sample.B) + uint16(dst.B)*invA/255),
				A: uint8(uint16(sample.A) + uint16(dst.A)*invA/255),
			})
		}
	}
	return nil
}

func saveFrameToPng(frame *image.RGBA, filename string) error {
	outFile, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer outFile.Close()
	return png.Encode(outFile, frame)
}
