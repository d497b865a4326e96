package face

import (
	"fmt"
	"time"
)

// Sensors are the ambient readings a frame depends on.
type Sensors struct {
	BatteryPercent     int  `json:"battery_percent"`
	BluetoothConnected bool `json:"bluetooth_connected"`
	QuietHoursActive   bool `json:"quiet_hours_active"`
}

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

type Label struct {
	Text  string `json:"text"`
	Rect  Rect   `json:"rect"`
	Align Align  `json:"align"`
	Color Color  `json:"color"`
}

type Labels struct {
	Weekday Label `json:"weekday"`
	Day     Label `json:"day"`
	Month   Label `json:"month"`
}

type Icon struct {
	Visible bool `json:"visible"`
	Rect    Rect `json:"rect"`
}

type Icons struct {
	Battery   Icon `json:"battery"`
	Bluetooth Icon `json:"bluetooth"`
	Quiet     Icon `json:"quiet"`
	// Tone is Black or White; glyphs are drawn in this color.
	Tone Color `json:"tone"`
}

type Hand struct {
	Polygon Polygon `json:"polygon"`
	Fill    Color   `json:"fill"`
	Stroke  Color   `json:"stroke"`
}

// Scene is everything the surface needs to paint one frame.
type Scene struct {
	Display     Display   `json:"display"`
	Background  Color     `json:"background"`
	HourAngle   int32     `json:"hour_angle"`
	MinuteAngle int32     `json:"minute_angle"`
	HourHand    Hand      `json:"hour_hand"`
	MinuteHand  Hand      `json:"minute_hand"`
	CenterDot   Rect      `json:"center_dot"`
	DotColor    Color     `json:"dot_color"`
	Ticks       []Polygon `json:"ticks"`
	TickColor   Color     `json:"tick_color"`
	Labels      Labels    `json:"labels"`
	Icons       Icons     `json:"icons"`
}

// HourAngle advances in ten-minute steps: 72 positions per half day.
func HourAngle(hour, minute int) int32 {
	return int32(FullTurn * ((hour%12)*6 + minute/10) / (12 * 6))
}

func MinuteAngle(minute int) int32 {
	return int32(FullTurn * minute / 60)
}

// FormatLabels returns the long weekday name, two-digit day and long month
// name of t.
func FormatLabels(t time.Time) (weekday, day, month string) {
	return t.Weekday().String(), fmt.Sprintf("%02d", t.Day()), t.Month().String()
}

// BatteryVisible reports whether the low battery glyph is shown. A zero
// threshold disables it.
func BatteryVisible(percent, threshold int) bool {
	return threshold > 0 && percent <= threshold
}

// RenderTick computes the scene for now. It has no side effects.
func RenderTick(cfg Config, now time.Time, s Sensors, d Display) Scene {
	pal := ResolvePalette(cfg, d.Mono)
	layout := LayoutFor(d)
	center := d.Center()

	hourAngle := HourAngle(now.Hour(), now.Minute())
	minuteAngle := MinuteAngle(now.Minute())

	weekday, day, month := FormatLabels(now)
	weekdayColor, dateColor, monthColor := pal.Weekday, pal.Date, pal.Month
	if !s.BluetoothConnected && !d.Mono && cfg.DisconnectColor.IsSet() {
		dc := cfg.DisconnectColor
		override := cfg.DisconnectPrecedence == PrecedenceOverride
		if override || !cfg.WeekdayTextColor.IsSet() {
			weekdayColor = dc
		}
		if override || !cfg.DateTextColor.IsSet() {
			dateColor = dc
		}
		if override || !cfg.MonthTextColor.IsSet() {
			monthColor = dc
		}
	}

	batteryRect := layout.Battery
	if s.QuietHoursActive {
		batteryRect = layout.BatteryInQuiet
	}

	return Scene{
		Display:     d,
		Background:  pal.Background,
		HourAngle:   hourAngle,
		MinuteAngle: minuteAngle,
		HourHand: Hand{
			Polygon: Rotate(hourHandShape(d), hourAngle, center),
			Fill:    pal.HourHand,
			Stroke:  pal.Background,
		},
		MinuteHand: Hand{
			Polygon: Rotate(minuteHandShape(d), minuteAngle, center),
			Fill:    pal.MinuteHand,
			Stroke:  pal.Background,
		},
		CenterDot: layout.CenterDot,
		DotColor:  pal.MinuteHand,
		Ticks:     TickMarks(d),
		TickColor: pal.Markers,
		Labels: Labels{
			Weekday: Label{Text: weekday, Rect: layout.Weekday, Align: AlignCenter, Color: weekdayColor},
			Day:     Label{Text: day, Rect: layout.Day, Align: AlignRight, Color: dateColor},
			Month:   Label{Text: month, Rect: layout.Month, Align: AlignCenter, Color: monthColor},
		},
		Icons: Icons{
			Battery: Icon{
				Visible: BatteryVisible(s.BatteryPercent, cfg.LowBatteryThresholdPercent),
				Rect:    batteryRect,
			},
			Bluetooth: Icon{
				Visible: !s.BluetoothConnected && cfg.BluetoothAlertEnabled,
				Rect:    layout.Bluetooth,
			},
			Quiet: Icon{
				Visible: s.QuietHoursActive,
				Rect:    layout.Quiet,
			},
			Tone: pal.IconTone,
		},
	}
}
