package face

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessage(t *testing.T) {
	var msg map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{
		"COLOUR_BACKGROUND": 255,
		"COLOUR_HAND_HOUR": "#00FF00",
		"COLOUR_DAY": "0xABCDEF",
		"TOGGLE_BLUETOOTH": 0,
		"TOGGLE_BLUETOOTH_QUIET_TIME": "1",
		"SELECT_BLUETOOTH": "3",
		"SELECT_BATTERY_PERCENT": "20",
		"SELECT_BLUETOOTH_PRECEDENCE": 1,
		"SOMETHING_NEW": 42
	}`), &msg))

	p, rejected := DecodeMessage(msg)
	assert.Empty(t, rejected)

	require.NotNil(t, p.BackgroundColor)
	assert.Equal(t, Color(0x0000FF), *p.BackgroundColor)
	require.NotNil(t, p.HourHandColor)
	assert.Equal(t, Color(0x00FF00), *p.HourHandColor)
	require.NotNil(t, p.DateTextColor)
	assert.Equal(t, Color(0xABCDEF), *p.DateTextColor)
	require.NotNil(t, p.BluetoothAlertEnabled)
	assert.False(t, *p.BluetoothAlertEnabled)
	require.NotNil(t, p.BluetoothAlertDuringQuietHours)
	assert.True(t, *p.BluetoothAlertDuringQuietHours)
	require.NotNil(t, p.BluetoothAlertStyle)
	assert.Equal(t, AlertDoublePulse, *p.BluetoothAlertStyle)
	require.NotNil(t, p.LowBatteryThresholdPercent)
	assert.Equal(t, 20, *p.LowBatteryThresholdPercent)
	require.NotNil(t, p.DisconnectPrecedence)
	assert.Equal(t, PrecedenceOverride, *p.DisconnectPrecedence)

	assert.Nil(t, p.MinuteHandColor)
	assert.Nil(t, p.MonthTextColor)
	assert.Nil(t, p.SuffixEnabled)
}

func TestDecodeMessageRejectsMalformed(t *testing.T) {
	p, rejected := DecodeMessage(map[string]any{
		KeyColourBackground:     "purple",
		KeySelectBatteryPercent: "lots",
		KeyToggleSuffix:         []int{1},
		KeyColourMonth:          float64(0x1000000),
		KeyColourMinute:         "FFFFFF",
	})

	assert.Equal(t, []string{KeyColourBackground, KeyColourMonth, KeySelectBatteryPercent, KeyToggleSuffix}, rejected)
	assert.Nil(t, p.BackgroundColor)
	assert.Nil(t, p.LowBatteryThresholdPercent)
	require.NotNil(t, p.MinuteHandColor)
	assert.Equal(t, White, *p.MinuteHandColor)

	current := DefaultConfig()
	next := OnConfigUpdate(current, p)
	assert.Equal(t, current.BackgroundColor, next.BackgroundColor)
}

func TestDecodeMessageOutOfRangeNumbers(t *testing.T) {
	p, rejected := DecodeMessage(map[string]any{
		KeySelectBatteryPercent: float64(1e20),
		KeySelectBluetooth:      json.Number("99999999999"),
		KeyColourBackground:     float64(-1e300),
	})

	assert.Equal(t, []string{KeyColourBackground, KeySelectBatteryPercent, KeySelectBluetooth}, rejected)
	assert.Nil(t, p.LowBatteryThresholdPercent)
	assert.Nil(t, p.BluetoothAlertStyle)
	assert.Nil(t, p.BackgroundColor)
}

func TestDecodeMessageUnknownStyleIsLong(t *testing.T) {
	p, rejected := DecodeMessage(map[string]any{KeySelectBluetooth: 9})
	assert.Empty(t, rejected)
	require.NotNil(t, p.BluetoothAlertStyle)
	assert.Equal(t, AlertLongPulse, *p.BluetoothAlertStyle)
}

func TestDecodeMessageEmpty(t *testing.T) {
	p, rejected := DecodeMessage(map[string]any{})
	assert.Empty(t, rejected)
	assert.True(t, p.IsEmpty())
}
