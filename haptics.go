package main

import (
	"os"
	"strconv"
	"time"

	"github.com/photonicat/simply_analog/internal/face"
	"github.com/photonicat/simply_analog/internal/logger"
)

const (
	SHORT_PULSE = 150 * time.Millisecond
	LONG_PULSE  = 500 * time.Millisecond
	PULSE_GAP   = 150 * time.Millisecond
)

// pulsePattern alternates on and off durations, starting with on.
func pulsePattern(style face.AlertStyle) []time.Duration {
	switch style {
	case face.AlertShortPulse:
		return []time.Duration{SHORT_PULSE}
	case face.AlertLongPulse:
		return []time.Duration{LONG_PULSE}
	case face.AlertDoublePulse:
		return []time.Duration{SHORT_PULSE, PULSE_GAP, SHORT_PULSE}
	}
	return nil
}

// Vibrator drives a timed_output style sysfs node: writing N runs the motor
// for N milliseconds.
type Vibrator struct {
	path  string
	sleep func(time.Duration)
}

func NewVibrator(path string) *Vibrator {
	return &Vibrator{path: path, sleep: time.Sleep}
}

// Play starts the pattern in the background and returns immediately.
func (v *Vibrator) Play(style face.AlertStyle) error {
	pattern := pulsePattern(style)
	if len(pattern) == 0 || v.path == "" {
		return nil
	}
	if _, err := os.Stat(v.path); err != nil {
		return err
	}
	go v.run(pattern)
	return nil
}

func (v *Vibrator) run(pattern []time.Duration) {
	for i, d := range pattern {
		if i%2 == 0 {
			ms := strconv.FormatInt(d.Milliseconds(), 10)
			if err := os.WriteFile(v.path, []byte(ms), 0644); err != nil {
				logger.Warn("vibrator write error", "err", err)
				return
			}
		}
		v.sleep(d)
	}
}
