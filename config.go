package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	PANEL_SSD1306   = "ssd1306"
	PANEL_EPD2IN13  = "waveshare2in13v2"
	PANEL_HEADLESS  = "headless"
	DEFAULT_WIDTH   = 144
	DEFAULT_HEIGHT  = 168
	DEFAULT_LISTEN  = ":8081"
	DEFAULT_SUBJECT = "simplyanalog"
)

// QuietWindow is a daily "HH:MM" to "HH:MM" span; it may wrap midnight.
type QuietWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Config represents the device config JSON.
type Config struct {
	Panel   string `json:"panel"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Round   bool   `json:"round"`
	I2CBus  string `json:"i2c_bus"`
	SPIPort string `json:"spi_port"`

	StoreBackend string `json:"store_backend"`
	StorePath    string `json:"store_path"`

	// Companion is the host pinged to decide whether the phone is reachable.
	Companion          string      `json:"companion"`
	BatteryPath        string      `json:"battery_path"`
	SensorIntervalSecs int         `json:"sensor_interval_secs"`
	QuietHours         QuietWindow `json:"quiet_hours"`

	// BatteryHistoryPath keeps the battery graph across restarts; empty
	// keeps it in memory only.
	BatteryHistoryPath string `json:"battery_history_path"`
	BatteryHistoryMins int    `json:"battery_history_mins"`

	LabelCase string `json:"label_case"`
	Locale    string `json:"locale"`

	HTTPListen string `json:"http_listen"`
	NATSURL    string `json:"nats_url"`
	NATSPrefix string `json:"nats_prefix"`

	VibratorPath  string `json:"vibrator_path"`
	BacklightPath string `json:"backlight_path"`
	BacklightMax  int    `json:"backlight_max"`
	BacklightDim  int    `json:"backlight_dim"`
}

func defaultConfig() Config {
	return Config{
		Panel:              PANEL_HEADLESS,
		Width:              DEFAULT_WIDTH,
		Height:             DEFAULT_HEIGHT,
		I2CBus:             "",
		SPIPort:            "",
		StoreBackend:       "sqlite",
		StorePath:          "/etc/simply-analog/face.db",
		BatteryPath:        "/sys/class/power_supply/battery/capacity",
		SensorIntervalSecs: 10,
		BatteryHistoryPath: "/tmp/simply_analog_battery.json",
		BatteryHistoryMins: DEFAULT_HISTORY_MINS,
		LabelCase:          "upper",
		Locale:             "en",
		HTTPListen:         DEFAULT_LISTEN,
		NATSPrefix:         DEFAULT_SUBJECT,
		VibratorPath:       "/sys/class/timed_output/vibrator/enable",
		BacklightPath:      "/sys/class/backlight/backlight/brightness",
		BacklightMax:       100,
		BacklightDim:       10,
	}
}

// loadConfig reads and unmarshals the config file on top of the defaults.
// A missing file is not an error.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Panel {
	case PANEL_SSD1306, PANEL_EPD2IN13, PANEL_HEADLESS:
	default:
		return fmt.Errorf("unknown panel %q", c.Panel)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid display size %dx%d", c.Width, c.Height)
	}
	switch strings.ToLower(c.LabelCase) {
	case "", "upper", "lower", "title", "none":
	default:
		return fmt.Errorf("unknown label_case %q", c.LabelCase)
	}
	if c.QuietHours.Start != "" || c.QuietHours.End != "" {
		if _, err := parseClock(c.QuietHours.Start); err != nil {
			return fmt.Errorf("quiet_hours.start: %w", err)
		}
		if _, err := parseClock(c.QuietHours.End); err != nil {
			return fmt.Errorf("quiet_hours.end: %w", err)
		}
	}
	return nil
}

func (c Config) sensorInterval() time.Duration {
	if c.SensorIntervalSecs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.SensorIntervalSecs) * time.Second
}

// parseClock parses "HH:MM" into minutes after midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Active reports whether now falls inside the window. An empty or zero-length
// window is never active.
func (q QuietWindow) Active(now time.Time) bool {
	if q.Start == "" || q.End == "" {
		return false
	}
	start, err := parseClock(q.Start)
	if err != nil {
		return false
	}
	end, err := parseClock(q.End)
	if err != nil {
		return false
	}
	m := now.Hour()*60 + now.Minute()
	switch {
	case start == end:
		return false
	case start < end:
		return m >= start && m < end
	default:
		return m >= start || m < end
	}
}
