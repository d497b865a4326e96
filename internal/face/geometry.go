package face

import "math"

// FullTurn is one full revolution in fixed-point angle units.
const FullTurn = 0x10000

// NumTicks is the number of hour markers around the dial.
const NumTicks = 12

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Polygon is a closed path in screen coordinates.
type Polygon []Point

// Display describes the currently unobstructed drawing area.
type Display struct {
	Width  int  `json:"width"`
	Height int  `json:"height"`
	Round  bool `json:"round"`
	// Mono is set for strictly two-color panels.
	Mono bool `json:"mono"`
}

// Center returns the dial centre.
func (d Display) Center() Point {
	return Point{X: d.Width / 2, Y: d.Height / 2}
}

func (d Display) radius() int {
	r := d.Width
	if d.Height < r {
		r = d.Height
	}
	return r / 2
}

// Layout holds every fixed element position for one display size.
type Layout struct {
	Weekday        Rect `json:"weekday"`
	Day            Rect `json:"day"`
	Month          Rect `json:"month"`
	Bluetooth      Rect `json:"bluetooth"`
	Quiet          Rect `json:"quiet"`
	Battery        Rect `json:"battery"`
	BatteryInQuiet Rect `json:"battery_in_quiet"`
	CenterDot      Rect `json:"center_dot"`
}

// LayoutFor derives element positions from the display bounds.
func LayoutFor(d Display) Layout {
	w, h := d.Width, d.Height
	l := Layout{
		Weekday:        Rect{10, h * 6 / 32, w - 20, 30},
		Day:            Rect{w - 26, h/2 - 15, 25, 30},
		Month:          Rect{10, h * 5 / 8, w - 20, 30},
		Bluetooth:      Rect{w - 13, 3, 7, 11},
		Quiet:          Rect{6, 2, 10, 10},
		Battery:        Rect{6, 4, 13, 6},
		BatteryInQuiet: Rect{22, 4, 13, 6},
		CenterDot:      Rect{w/2 - 1, h/2 - 1, 3, 3},
	}
	if d.Round {
		l.Battery = Rect{w/2 - 6, 10, 13, 6}
		l.BatteryInQuiet = Rect{w/2 - 6, 17, 13, 6}
	}
	return l
}

// hourHandShape and minuteHandShape return hand outlines pointing at twelve,
// relative to the centre.
func hourHandShape(d Display) Polygon {
	r := d.radius()
	return Polygon{{-6, 12}, {6, 12}, {0, -(r * 3 / 5)}}
}

func minuteHandShape(d Display) Polygon {
	r := d.radius()
	return Polygon{{-5, 12}, {5, 12}, {0, -(r - 8)}}
}

// Rotate turns shape clockwise by angle about the origin and then moves it to
// center.
func Rotate(shape Polygon, angle int32, center Point) Polygon {
	rad := float64(angle) / FullTurn * 2 * math.Pi
	sin, cos := math.Sin(rad), math.Cos(rad)
	out := make(Polygon, len(shape))
	for i, p := range shape {
		x := float64(p.X)*cos - float64(p.Y)*sin
		y := float64(p.X)*sin + float64(p.Y)*cos
		out[i] = Point{
			X: center.X + int(math.Round(x)),
			Y: center.Y + int(math.Round(y)),
		}
	}
	return out
}

// TickMarks returns the static hour markers. They depend only on the display
// geometry; quarter-hour markers are longer and wider.
func TickMarks(d Display) []Polygon {
	c := d.Center()
	cx, cy := float64(c.X), float64(c.Y)
	const inset = 2.0
	ticks := make([]Polygon, 0, NumTicks)
	for i := 0; i < NumTicks; i++ {
		rad := float64(i) / NumTicks * 2 * math.Pi
		dx, dy := math.Sin(rad), -math.Cos(rad)

		var reach float64
		if d.Round {
			reach = float64(d.radius()) - inset
		} else {
			reach = rayToRect(dx, dy, cx-inset, cy-inset)
		}

		length, half := 6.0, 1.0
		if i%3 == 0 {
			length, half = 10.0, 2.0
		}
		ox, oy := cx+dx*reach, cy+dy*reach
		ix, iy := ox-dx*length, oy-dy*length
		// perpendicular
		px, py := -dy*half, dx*half
		ticks = append(ticks, Polygon{
			{roundInt(ox + px), roundInt(oy + py)},
			{roundInt(ix + px), roundInt(iy + py)},
			{roundInt(ix - px), roundInt(iy - py)},
			{roundInt(ox - px), roundInt(oy - py)},
		})
	}
	return ticks
}

// rayToRect is the distance from the centre along (dx, dy) to the edge of a
// rectangle with half extents hw and hh.
func rayToRect(dx, dy, hw, hh float64) float64 {
	tx, ty := math.Inf(1), math.Inf(1)
	if math.Abs(dx) > 1e-9 {
		tx = hw / math.Abs(dx)
	}
	if math.Abs(dy) > 1e-9 {
		ty = hh / math.Abs(dy)
	}
	return math.Min(tx, ty)
}

func roundInt(f float64) int {
	return int(math.Round(f))
}
