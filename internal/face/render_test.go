package face

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rect144 = Display{Width: 144, Height: 168}

func TestMinuteAngleTruncates(t *testing.T) {
	for m := 0; m < 60; m++ {
		assert.Equal(t, int32(FullTurn*m/60), MinuteAngle(m), "minute %d", m)
	}
	assert.Equal(t, int32(1092), MinuteAngle(1))
	assert.Equal(t, int32(16384), MinuteAngle(15))
	assert.Equal(t, int32(64443), MinuteAngle(59))
}

func TestHourAngleSteps(t *testing.T) {
	for h := 0; h < 24; h++ {
		for m := 0; m < 60; m++ {
			want := HourAngle(h%12, (m/10)*10)
			require.Equal(t, want, HourAngle(h, m), "%02d:%02d", h, m)
		}
	}

	assert.Equal(t, int32(0), HourAngle(0, 0))
	assert.Equal(t, int32(16384), HourAngle(3, 0))
	assert.Equal(t, int32(16384), HourAngle(15, 9))
	assert.Equal(t, int32(17294), HourAngle(3, 10))
	assert.Equal(t, int32(32768), HourAngle(18, 0))

	for m := 0; m < 50; m += 10 {
		assert.Greater(t, HourAngle(7, m+10), HourAngle(7, m))
	}
}

func TestFormatLabels(t *testing.T) {
	weekday, day, month := FormatLabels(time.Date(2029, time.March, 7, 10, 30, 0, 0, time.UTC))
	assert.Equal(t, "Wednesday", weekday)
	assert.Equal(t, "07", day)
	assert.Equal(t, "March", month)
}

func TestRotate(t *testing.T) {
	center := Point{50, 50}
	up := Polygon{{0, -10}}

	assert.Equal(t, Polygon{{50, 40}}, Rotate(up, 0, center))
	assert.Equal(t, Polygon{{60, 50}}, Rotate(up, FullTurn/4, center))
	assert.Equal(t, Polygon{{50, 60}}, Rotate(up, FullTurn/2, center))
	assert.Equal(t, Polygon{{40, 50}}, Rotate(up, FullTurn*3/4, center))
}

func TestTickMarks(t *testing.T) {
	ticks := TickMarks(rect144)
	require.Len(t, ticks, NumTicks)

	assert.Equal(t, Polygon{{74, 2}, {74, 12}, {70, 12}, {70, 2}}, ticks[0])
	assert.Equal(t, Polygon{{142, 86}, {132, 86}, {132, 82}, {142, 82}}, ticks[3])

	round := TickMarks(Display{Width: 180, Height: 180, Round: true})
	require.Len(t, round, NumTicks)
	assert.Equal(t, Point{92, 2}, round[0][0])
}

func TestRenderTickTicksIgnoreTime(t *testing.T) {
	cfg := DefaultConfig()
	a := RenderTick(cfg, time.Date(2029, 3, 7, 1, 2, 0, 0, time.UTC), Sensors{}, rect144)
	b := RenderTick(cfg, time.Date(2031, 9, 1, 17, 45, 0, 0, time.UTC), Sensors{}, rect144)
	assert.Equal(t, a.Ticks, b.Ticks)
	assert.NotEqual(t, a.MinuteHand.Polygon, b.MinuteHand.Polygon)
}

func TestRenderTickScene(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Date(2029, time.March, 7, 15, 20, 0, 0, time.UTC)
	s := RenderTick(cfg, now, Sensors{BatteryPercent: 80, BluetoothConnected: true}, rect144)

	assert.Equal(t, HourAngle(15, 20), s.HourAngle)
	assert.Equal(t, MinuteAngle(20), s.MinuteAngle)
	assert.Equal(t, Black, s.Background)
	assert.Equal(t, ChromeYellow, s.HourHand.Fill)
	assert.Equal(t, Black, s.HourHand.Stroke)
	assert.Equal(t, White, s.MinuteHand.Fill)
	assert.Equal(t, White, s.DotColor)
	assert.Equal(t, White, s.TickColor)
	assert.Equal(t, Rect{71, 83, 3, 3}, s.CenterDot)

	assert.Equal(t, "Wednesday", s.Labels.Weekday.Text)
	assert.Equal(t, Rect{10, 31, 124, 30}, s.Labels.Weekday.Rect)
	assert.Equal(t, AlignRight, s.Labels.Day.Align)
	assert.Equal(t, Rect{118, 69, 25, 30}, s.Labels.Day.Rect)
	assert.Equal(t, Rect{10, 105, 124, 30}, s.Labels.Month.Rect)

	assert.False(t, s.Icons.Battery.Visible)
	assert.False(t, s.Icons.Bluetooth.Visible)
	assert.False(t, s.Icons.Quiet.Visible)
	assert.Equal(t, White, s.Icons.Tone)
}

func TestRenderTickBatteryIcon(t *testing.T) {
	now := time.Date(2029, 3, 7, 8, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()
	cfg.LowBatteryThresholdPercent = 20

	s := RenderTick(cfg, now, Sensors{BatteryPercent: 15, BluetoothConnected: true}, rect144)
	assert.True(t, s.Icons.Battery.Visible)
	assert.Equal(t, Rect{6, 4, 13, 6}, s.Icons.Battery.Rect)

	s = RenderTick(cfg, now, Sensors{BatteryPercent: 20, BluetoothConnected: true}, rect144)
	assert.True(t, s.Icons.Battery.Visible)

	s = RenderTick(cfg, now, Sensors{BatteryPercent: 21, BluetoothConnected: true}, rect144)
	assert.False(t, s.Icons.Battery.Visible)

	s = RenderTick(cfg, now, Sensors{BatteryPercent: 15, BluetoothConnected: true, QuietHoursActive: true}, rect144)
	assert.True(t, s.Icons.Quiet.Visible)
	assert.Equal(t, Rect{22, 4, 13, 6}, s.Icons.Battery.Rect)

	round := Display{Width: 180, Height: 180, Round: true}
	s = RenderTick(cfg, now, Sensors{BatteryPercent: 15, QuietHoursActive: true}, round)
	assert.Equal(t, Rect{84, 17, 13, 6}, s.Icons.Battery.Rect)

	cfg.LowBatteryThresholdPercent = 0
	for _, pct := range []int{0, 1, 15, 100} {
		s = RenderTick(cfg, now, Sensors{BatteryPercent: pct}, rect144)
		assert.False(t, s.Icons.Battery.Visible, "battery %d", pct)
	}
}

func TestRenderTickBluetoothIcon(t *testing.T) {
	now := time.Date(2029, 3, 7, 8, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()

	s := RenderTick(cfg, now, Sensors{BluetoothConnected: false}, rect144)
	assert.True(t, s.Icons.Bluetooth.Visible)
	assert.Equal(t, Rect{131, 3, 7, 11}, s.Icons.Bluetooth.Rect)

	s = RenderTick(cfg, now, Sensors{BluetoothConnected: true}, rect144)
	assert.False(t, s.Icons.Bluetooth.Visible)

	cfg.BluetoothAlertEnabled = false
	s = RenderTick(cfg, now, Sensors{BluetoothConnected: false}, rect144)
	assert.False(t, s.Icons.Bluetooth.Visible)
}

func TestRenderTickDisconnectColor(t *testing.T) {
	now := time.Date(2029, 3, 7, 8, 0, 0, 0, time.UTC)
	red := Color(0xFF0000)

	cfg := DefaultConfig()
	cfg.DisconnectColor = red
	cfg.WeekdayTextColor = Unset

	s := RenderTick(cfg, now, Sensors{BluetoothConnected: false}, rect144)
	assert.Equal(t, red, s.Labels.Weekday.Color)
	assert.Equal(t, White, s.Labels.Day.Color)
	assert.Equal(t, White, s.Labels.Month.Color)

	cfg.DisconnectPrecedence = PrecedenceOverride
	s = RenderTick(cfg, now, Sensors{BluetoothConnected: false}, rect144)
	assert.Equal(t, red, s.Labels.Weekday.Color)
	assert.Equal(t, red, s.Labels.Day.Color)
	assert.Equal(t, red, s.Labels.Month.Color)

	s = RenderTick(cfg, now, Sensors{BluetoothConnected: true}, rect144)
	assert.Equal(t, White, s.Labels.Weekday.Color)
	assert.Equal(t, White, s.Labels.Day.Color)
}

func TestRenderTickMono(t *testing.T) {
	now := time.Date(2029, 3, 7, 8, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()
	cfg.BackgroundColor = 0xFFFF00
	cfg.DisconnectColor = 0xFF0000

	s := RenderTick(cfg, now, Sensors{}, Display{Width: 128, Height: 64, Mono: true})
	assert.Equal(t, White, s.Background)
	assert.Equal(t, Black, s.HourHand.Fill)
	assert.Equal(t, Black, s.MinuteHand.Fill)
	assert.Equal(t, Black, s.Labels.Weekday.Color)
	assert.Equal(t, Black, s.Icons.Tone)
}
