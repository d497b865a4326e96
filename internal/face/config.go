package face

import (
	"fmt"
	"strings"
)

// AlertStyle is the haptic pattern played when the companion disconnects.
type AlertStyle int

const (
	AlertNone AlertStyle = iota
	AlertShortPulse
	AlertLongPulse
	AlertDoublePulse
)

// ParseAlertStyle maps a companion selection code to a style. Unknown codes
// fall back to a long pulse.
func ParseAlertStyle(code int) AlertStyle {
	switch code {
	case 0:
		return AlertNone
	case 1:
		return AlertShortPulse
	case 2:
		return AlertLongPulse
	case 3:
		return AlertDoublePulse
	default:
		return AlertLongPulse
	}
}

func (s AlertStyle) String() string {
	switch s {
	case AlertNone:
		return "none"
	case AlertShortPulse:
		return "short"
	case AlertLongPulse:
		return "long"
	case AlertDoublePulse:
		return "double"
	default:
		return fmt.Sprintf("AlertStyle(%d)", int(s))
	}
}

// Precedence decides how the disconnect color interacts with label colors.
type Precedence int

const (
	// PrecedenceFallback recolors only labels that have no configured color.
	PrecedenceFallback Precedence = iota
	// PrecedenceOverride recolors every label.
	PrecedenceOverride
)

func (p Precedence) String() string {
	if p == PrecedenceOverride {
		return "override"
	}
	return "fallback"
}

func (p Precedence) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Precedence) UnmarshalText(text []byte) error {
	parsed, err := ParsePrecedence(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePrecedence accepts the names "fallback" and "override" or the codes
// "0" and "1".
func ParsePrecedence(s string) (Precedence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fallback", "0":
		return PrecedenceFallback, nil
	case "override", "1":
		return PrecedenceOverride, nil
	}
	return PrecedenceFallback, fmt.Errorf("invalid precedence %q", s)
}

// Config is the user-adjustable face configuration.
type Config struct {
	BackgroundColor  Color `json:"background_color"`
	HourHandColor    Color `json:"hour_hand_color"`
	MinuteHandColor  Color `json:"minute_hand_color"`
	WeekdayTextColor Color `json:"weekday_text_color"`
	DateTextColor    Color `json:"date_text_color"`
	MonthTextColor   Color `json:"month_text_color"`

	BluetoothAlertEnabled          bool       `json:"bluetooth_alert_enabled"`
	BluetoothAlertDuringQuietHours bool       `json:"bluetooth_alert_during_quiet_hours"`
	BluetoothAlertStyle            AlertStyle `json:"bluetooth_alert_style"`

	LowBatteryThresholdPercent int `json:"low_battery_threshold_percent"`

	// SuffixEnabled is persisted for the companion app but not rendered.
	SuffixEnabled    bool `json:"suffix_enabled"`
	PowerSaveEnabled bool `json:"power_save_enabled"`

	DisconnectColor      Color      `json:"disconnect_color"`
	DisconnectPrecedence Precedence `json:"disconnect_precedence"`
}

// DefaultConfig is the configuration used before any message arrives.
func DefaultConfig() Config {
	return Config{
		BackgroundColor:       Black,
		HourHandColor:         ChromeYellow,
		MinuteHandColor:       White,
		WeekdayTextColor:      White,
		DateTextColor:         White,
		MonthTextColor:        White,
		BluetoothAlertEnabled: true,
		BluetoothAlertStyle:   AlertLongPulse,
		DisconnectColor:       Unset,
	}
}

// Patch is a partial configuration update. Nil fields are left alone.
type Patch struct {
	BackgroundColor  *Color `json:"background_color,omitempty"`
	HourHandColor    *Color `json:"hour_hand_color,omitempty"`
	MinuteHandColor  *Color `json:"minute_hand_color,omitempty"`
	WeekdayTextColor *Color `json:"weekday_text_color,omitempty"`
	DateTextColor    *Color `json:"date_text_color,omitempty"`
	MonthTextColor   *Color `json:"month_text_color,omitempty"`

	BluetoothAlertEnabled          *bool       `json:"bluetooth_alert_enabled,omitempty"`
	BluetoothAlertDuringQuietHours *bool       `json:"bluetooth_alert_during_quiet_hours,omitempty"`
	BluetoothAlertStyle            *AlertStyle `json:"bluetooth_alert_style,omitempty"`

	LowBatteryThresholdPercent *int `json:"low_battery_threshold_percent,omitempty"`

	SuffixEnabled    *bool `json:"suffix_enabled,omitempty"`
	PowerSaveEnabled *bool `json:"power_save_enabled,omitempty"`

	DisconnectColor      *Color      `json:"disconnect_color,omitempty"`
	DisconnectPrecedence *Precedence `json:"disconnect_precedence,omitempty"`
}

// IsEmpty reports whether p carries no fields.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// OnConfigUpdate merges patch into current and returns the result. Fields
// missing from patch keep their current value.
func OnConfigUpdate(current Config, patch Patch) Config {
	next := current
	setColor(&next.BackgroundColor, patch.BackgroundColor)
	setColor(&next.HourHandColor, patch.HourHandColor)
	setColor(&next.MinuteHandColor, patch.MinuteHandColor)
	setColor(&next.WeekdayTextColor, patch.WeekdayTextColor)
	setColor(&next.DateTextColor, patch.DateTextColor)
	setColor(&next.MonthTextColor, patch.MonthTextColor)
	setColor(&next.DisconnectColor, patch.DisconnectColor)

	setBool(&next.BluetoothAlertEnabled, patch.BluetoothAlertEnabled)
	setBool(&next.BluetoothAlertDuringQuietHours, patch.BluetoothAlertDuringQuietHours)
	setBool(&next.SuffixEnabled, patch.SuffixEnabled)
	setBool(&next.PowerSaveEnabled, patch.PowerSaveEnabled)

	if patch.BluetoothAlertStyle != nil {
		next.BluetoothAlertStyle = *patch.BluetoothAlertStyle
	}
	if patch.LowBatteryThresholdPercent != nil {
		next.LowBatteryThresholdPercent = clampPercent(*patch.LowBatteryThresholdPercent)
	}
	if patch.DisconnectPrecedence != nil {
		next.DisconnectPrecedence = *patch.DisconnectPrecedence
	}
	return next
}

func setColor(dst *Color, v *Color) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func clampPercent(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
