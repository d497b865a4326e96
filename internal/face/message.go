package face

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Message keys sent by the companion configuration page.
const (
	KeyColourBackground     = "COLOUR_BACKGROUND"
	KeyColourHour           = "COLOUR_HOUR"
	KeyColourHandHour       = "COLOUR_HAND_HOUR"
	KeyColourMinute         = "COLOUR_MINUTE"
	KeyColourHandMinute     = "COLOUR_HAND_MINUTE"
	KeyColourWeekday        = "COLOUR_WEEKDAY"
	KeyColourDate           = "COLOUR_DATE"
	KeyColourDay            = "COLOUR_DAY"
	KeyColourMonth          = "COLOUR_MONTH"
	KeyColourBluetooth      = "COLOUR_BLUETOOTH"
	KeyToggleBluetooth      = "TOGGLE_BLUETOOTH"
	KeyToggleBluetoothQuiet = "TOGGLE_BLUETOOTH_QUIET_TIME"
	KeySelectBluetooth      = "SELECT_BLUETOOTH"
	KeySelectBatteryPercent = "SELECT_BATTERY_PERCENT"
	KeyTogglePowerSave      = "TOGGLE_POWER_SAVE"
	KeyToggleSuffix         = "TOGGLE_SUFFIX"
	KeySelectPrecedence     = "SELECT_BLUETOOTH_PRECEDENCE"
)

// DecodeMessage turns a companion message into a Patch. Unknown keys are
// skipped; keys whose value cannot be decoded are skipped and returned so the
// caller can log them.
func DecodeMessage(msg map[string]any) (Patch, []string) {
	var p Patch
	var rejected []string

	color := func(key string, dst **Color) {
		v, ok := msg[key]
		if !ok {
			return
		}
		c, err := decodeColor(v)
		if err != nil {
			rejected = append(rejected, key)
			return
		}
		*dst = &c
	}
	flag := func(key string, dst **bool) {
		v, ok := msg[key]
		if !ok {
			return
		}
		b, err := decodeBool(v)
		if err != nil {
			rejected = append(rejected, key)
			return
		}
		*dst = &b
	}
	number := func(key string) (int, bool) {
		v, ok := msg[key]
		if !ok {
			return 0, false
		}
		n, err := decodeInt(v)
		if err != nil {
			rejected = append(rejected, key)
			return 0, false
		}
		return n, true
	}

	color(KeyColourBackground, &p.BackgroundColor)
	color(KeyColourHandHour, &p.HourHandColor)
	color(KeyColourHour, &p.HourHandColor)
	color(KeyColourHandMinute, &p.MinuteHandColor)
	color(KeyColourMinute, &p.MinuteHandColor)
	color(KeyColourWeekday, &p.WeekdayTextColor)
	color(KeyColourDay, &p.DateTextColor)
	color(KeyColourDate, &p.DateTextColor)
	color(KeyColourMonth, &p.MonthTextColor)
	color(KeyColourBluetooth, &p.DisconnectColor)

	flag(KeyToggleBluetooth, &p.BluetoothAlertEnabled)
	flag(KeyToggleBluetoothQuiet, &p.BluetoothAlertDuringQuietHours)
	flag(KeyTogglePowerSave, &p.PowerSaveEnabled)
	flag(KeyToggleSuffix, &p.SuffixEnabled)

	if code, ok := number(KeySelectBluetooth); ok {
		style := ParseAlertStyle(code)
		p.BluetoothAlertStyle = &style
	}
	if pct, ok := number(KeySelectBatteryPercent); ok {
		pct = clampPercent(pct)
		p.LowBatteryThresholdPercent = &pct
	}
	if v, ok := msg[KeySelectPrecedence]; ok {
		prec, err := ParsePrecedence(fmt.Sprint(v))
		if err != nil {
			rejected = append(rejected, KeySelectPrecedence)
		} else {
			p.DisconnectPrecedence = &prec
		}
	}

	sort.Strings(rejected)
	return p, rejected
}

func decodeColor(v any) (Color, error) {
	switch t := v.(type) {
	case string:
		return ParseColor(t)
	default:
		n, err := decodeInt(v)
		if err != nil {
			return Unset, err
		}
		if n < 0 || n > 0xFFFFFF {
			return Unset, fmt.Errorf("color %d out of range", n)
		}
		return Color(n), nil
	}
}

func decodeBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "on", "yes":
			return true, nil
		case "0", "false", "off", "no":
			return false, nil
		}
		return false, fmt.Errorf("invalid boolean %q", t)
	default:
		n, err := decodeInt(v)
		if err != nil {
			return false, err
		}
		return n == 1, nil
	}
}

func decodeInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int32:
		return int(t), nil
	case int64:
		return int(t), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("non-integer number %v", t)
		}
		if math.Abs(t) > math.MaxInt32 {
			return 0, fmt.Errorf("number %v out of range", t)
		}
		return int(t), nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, err
		}
		if n > math.MaxInt32 || n < math.MinInt32 {
			return 0, fmt.Errorf("number %v out of range", n)
		}
		return int(n), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(t))
	}
	return 0, fmt.Errorf("unsupported value type %T", v)
}
