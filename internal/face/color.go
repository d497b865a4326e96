package face

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Color is a 24-bit 0xRRGGBB value. Unset marks a color the user never chose.
type Color uint32

const (
	Unset Color = 0xFFFFFFFF

	Black        Color = 0x000000
	White        Color = 0xFFFFFF
	ChromeYellow Color = 0xFFAA00
)

// IsSet reports whether c holds a real color.
func (c Color) IsSet() bool {
	return c <= 0xFFFFFF
}

// RGBA converts c to an opaque color.RGBA. Unset converts to black.
func (c Color) RGBA() color.RGBA {
	if !c.IsSet() {
		return color.RGBA{0, 0, 0, 255}
	}
	return color.RGBA{uint8(c >> 16), uint8(c >> 8), uint8(c), 255}
}

// Hex returns "#RRGGBB", or "unset".
func (c Color) Hex() string {
	if !c.IsSet() {
		return "unset"
	}
	return fmt.Sprintf("#%06X", uint32(c))
}

func (c Color) String() string { return c.Hex() }

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor accepts "#RRGGBB", "RRGGBB", "0xRRGGBB" and "unset"/"".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "unset", "none":
		return Unset, nil
	}
	hex := strings.TrimPrefix(s, "#")
	hex = strings.TrimPrefix(strings.TrimPrefix(hex, "0x"), "0X")
	if len(hex) != 6 {
		return Unset, fmt.Errorf("invalid color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Unset, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color(v), nil
}

// luminance is the WCAG relative luminance of c in [0, 1].
func luminance(c Color) float64 {
	rgb := c.RGBA()
	channel := func(v uint8) float64 {
		s := float64(v) / 255
		if s <= 0.03928 {
			return s / 12.92
		}
		return math.Pow((s+0.055)/1.055, 2.4)
	}
	return 0.2126*channel(rgb.R) + 0.7152*channel(rgb.G) + 0.0722*channel(rgb.B)
}

// Legible picks black or white, whichever contrasts more with bg.
func Legible(bg Color) Color {
	if !bg.IsSet() {
		bg = Black
	}
	l := luminance(bg)
	againstWhite := 1.05 / (l + 0.05)
	againstBlack := (l + 0.05) / 0.05
	if againstBlack > againstWhite {
		return Black
	}
	return White
}

// Palette holds the concrete colors of every drawn element.
type Palette struct {
	Background Color `json:"background"`
	Markers    Color `json:"markers"`
	HourHand   Color `json:"hour_hand"`
	MinuteHand Color `json:"minute_hand"`
	Weekday    Color `json:"weekday"`
	Date       Color `json:"date"`
	Month      Color `json:"month"`
	// IconTone selects the black or white glyph variant.
	IconTone Color `json:"icon_tone"`
}

// ResolvePalette turns cfg into concrete colors. On mono displays the
// background is quantized and every foreground uses the legible color.
func ResolvePalette(cfg Config, mono bool) Palette {
	bg := cfg.BackgroundColor
	if !bg.IsSet() {
		bg = Black
	}
	fallback := Legible(bg)
	if mono {
		if fallback == White {
			bg = Black
		} else {
			bg = White
		}
		fallback = Legible(bg)
		return Palette{
			Background: bg,
			Markers:    fallback,
			HourHand:   fallback,
			MinuteHand: fallback,
			Weekday:    fallback,
			Date:       fallback,
			Month:      fallback,
			IconTone:   fallback,
		}
	}

	pick := func(c Color) Color {
		if c.IsSet() {
			return c
		}
		return fallback
	}
	return Palette{
		Background: bg,
		Markers:    fallback,
		HourHand:   pick(cfg.HourHandColor),
		MinuteHand: pick(cfg.MinuteHandColor),
		Weekday:    pick(cfg.WeekdayTextColor),
		Date:       pick(cfg.DateTextColor),
		Month:      pick(cfg.MonthTextColor),
		IconTone:   fallback,
	}
}
