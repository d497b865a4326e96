package main

import (
	"encoding/json"
	"image"
	"image/color"
	"os"
	"sync"
	"time"

	"github.com/photonicat/simply_analog/internal/face"
	"github.com/photonicat/simply_analog/internal/logger"
)

const (
	DEFAULT_HISTORY_MINS = 60
	MAX_BATTERY_SAMPLES  = 720
	HISTORY_SAVE_EVERY   = 10
	GRAPH_WIDTH          = 120
	GRAPH_HEIGHT         = 40
)

// BatterySample is one state of charge reading.
type BatterySample struct {
	Timestamp time.Time `json:"timestamp"`
	Percent   int       `json:"percent"`
}

// BatteryHistory keeps the readings of the last window, optionally backed by
// a JSON file so the graph survives restarts.
type BatteryHistory struct {
	mu      sync.RWMutex
	samples []BatterySample
	window  time.Duration
	path    string
	unsaved int
}

func NewBatteryHistory(path string, windowMins int) *BatteryHistory {
	if windowMins <= 0 {
		windowMins = DEFAULT_HISTORY_MINS
	}
	return &BatteryHistory{
		samples: make([]BatterySample, 0, 64),
		window:  time.Duration(windowMins) * time.Minute,
		path:    path,
	}
}

// Load reads a previously saved history. A missing file is not an error.
func (h *BatteryHistory) Load(now time.Time) error {
	if h.path == "" {
		return nil
	}
	data, err := os.ReadFile(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var samples []BatterySample
	if err := json.Unmarshal(data, &samples); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples = samples
	h.trimLocked(now)
	logger.Info("loaded battery history", "samples", len(h.samples))
	return nil
}

// Record appends a reading and drops readings outside the window.
func (h *BatteryHistory) Record(percent int, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.samples = append(h.samples, BatterySample{Timestamp: at, Percent: percent})
	h.trimLocked(at)

	// save every few samples to keep flash writes down
	h.unsaved++
	if h.unsaved >= HISTORY_SAVE_EVERY {
		if err := h.saveLocked(); err != nil {
			logger.Warn("failed to save battery history", "err", err)
		}
	}
}

func (h *BatteryHistory) trimLocked(now time.Time) {
	cutoff := now.Add(-h.window)
	start := 0
	for start < len(h.samples) && !h.samples[start].Timestamp.After(cutoff) {
		start++
	}
	if len(h.samples)-start > MAX_BATTERY_SAMPLES {
		start = len(h.samples) - MAX_BATTERY_SAMPLES
	}
	if start > 0 {
		h.samples = append(h.samples[:0], h.samples[start:]...)
	}
}

// Save writes the history now.
func (h *BatteryHistory) Save() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.saveLocked()
}

func (h *BatteryHistory) saveLocked() error {
	h.unsaved = 0
	if h.path == "" {
		return nil
	}
	data, err := json.Marshal(h.samples)
	if err != nil {
		return err
	}
	return os.WriteFile(h.path, data, 0644)
}

// Samples returns a copy of the retained readings, oldest first.
func (h *BatteryHistory) Samples() []BatterySample {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]BatterySample, len(h.samples))
	copy(out, h.samples)
	return out
}

// drawBatteryGraph plots samples over 0..100% inside rect. The dashed line
// marks the low battery threshold; segments below it use the alert color.
func drawBatteryGraph(img *image.RGBA, rect face.Rect, samples []BatterySample, threshold int, fg, alert color.RGBA) {
	if rect.W <= 1 || rect.H <= 1 {
		return
	}
	x, y, width, height := rect.X, rect.Y, rect.W-1, rect.H-1
	level := func(pct int) int {
		return y + height - height*pct/100
	}

	if threshold > 0 {
		ty := level(threshold)
		for dx := 0; dx <= width; dx += 3 {
			img.SetRGBA(x+dx, ty, alert)
		}
	}
	if len(samples) < 2 {
		drawLine(img, x, y+height, x+width, y+height, fg)
		return
	}

	span := samples[len(samples)-1].Timestamp.Sub(samples[0].Timestamp)
	if span <= 0 {
		span = time.Second
	}
	for i := 1; i < len(samples); i++ {
		t1 := samples[i-1].Timestamp.Sub(samples[0].Timestamp)
		t2 := samples[i].Timestamp.Sub(samples[0].Timestamp)
		x1 := x + int(float64(width)*float64(t1)/float64(span))
		x2 := x + int(float64(width)*float64(t2)/float64(span))

		clr := fg
		if face.BatteryVisible(samples[i].Percent, threshold) {
			clr = alert
		}
		drawLine(img, x1, level(samples[i-1].Percent), x2, level(samples[i].Percent), clr)
	}
}

// drawLine draws a line between two points using Bresenham's algorithm
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, clr color.RGBA) {
	dx := abs(x1 - x0)
	dy := abs(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	bounds := img.Bounds()
	for {
		if (image.Point{x0, y0}).In(bounds) {
			img.SetRGBA(x0, y0, clr)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
