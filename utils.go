package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	evdev "github.com/holoplot/go-evdev"
	"go.uber.org/atomic"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"

	"github.com/photonicat/simply_analog/internal/logger"
)

const (
	POWER_KEY_NAME         = "rk805 pwrkey"
	KEYBOARD_DEBOUNCE_TIME = 500 * time.Millisecond
	ZERO_BACKLIGHT_DELAY   = 2 * time.Second
)

var (
	fontMu    sync.Mutex
	fontFaces = make(map[float64]font.Face)
	boldFont  *opentype.Font
)

// getFontFace returns the bold label face at the given size in points.
func getFontFace(size float64) (font.Face, int, error) {
	fontMu.Lock()
	defer fontMu.Unlock()

	if boldFont == nil {
		f, err := opentype.Parse(gobold.TTF)
		if err != nil {
			return nil, 0, fmt.Errorf("error parsing font: %v", err)
		}
		boldFont = f
	}
	face, ok := fontFaces[size]
	if !ok {
		var err error
		face, err = opentype.NewFace(boldFont, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return nil, 0, err
		}
		fontFaces[size] = face
	}

	metrics := face.Metrics()
	fontHeight := metrics.Ascent.Round() + metrics.Descent.Round()
	return face, fontHeight, nil
}

// labelFontSize scales the label face with the display; 18pt on the
// reference 144x168 face.
func labelFontSize(height int) float64 {
	size := float64(height) / 9.3
	switch {
	case size < 8:
		return 8
	case size > 18:
		return 18
	}
	return float64(int(size))
}

func clearFrame(frame *image.RGBA, c color.RGBA) {
	for i := 0; i+3 < len(frame.Pix); i += 4 {
		frame.Pix[i] = c.R
		frame.Pix[i+1] = c.G
		frame.Pix[i+2] = c.B
		frame.Pix[i+3] = 255
	}
}

// Backlight writes brightness levels (0..max) to a sysfs node. A logical
// zero is held at 1 for ZERO_BACKLIGHT_DELAY before the real off.
type Backlight struct {
	mu          sync.Mutex
	path        string
	max         int
	lastLogical int
	offTimer    *time.Timer
}

func NewBacklight(path string, max int) *Backlight {
	if max <= 0 {
		max = 100
	}
	return &Backlight{path: path, max: max, lastLogical: -1}
}

func (b *Backlight) Max() int { return b.max }

func (b *Backlight) Set(brightness int) {
	if b == nil || b.path == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case brightness < 0:
		brightness = 0
	case brightness > b.max:
		brightness = b.max
	}
	if brightness == b.lastLogical {
		return
	}
	b.lastLogical = brightness

	if brightness > 0 && b.offTimer != nil {
		b.offTimer.Stop()
		b.offTimer = nil
	}

	phys := brightness
	if brightness == 0 {
		phys = 1
	}
	if err := b.write(phys); err != nil {
		logger.Warn("backlight write error", "err", err)
	} else {
		logger.Debug("physical backlight", "level", phys)
	}

	if brightness == 0 {
		b.offTimer = time.AfterFunc(ZERO_BACKLIGHT_DELAY, func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if b.lastLogical == 0 {
				if err := b.write(0); err != nil {
					logger.Warn("backlight final-off error", "err", err)
				}
			}
		})
	}
}

func (b *Backlight) write(level int) error {
	return os.WriteFile(b.path, []byte(strconv.Itoa(level)), 0644)
}

// monitorPowerKey toggles override on every long-enough press of the power
// key. It returns when ctx is done or the device cannot be opened.
func monitorPowerKey(ctx context.Context, override *atomic.Bool, onToggle func(bool)) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		logger.Warn("ListDevicePaths error", "err", err)
		return
	}

	var devPath string
	for _, ip := range paths {
		if ip.Name == POWER_KEY_NAME {
			devPath = ip.Path
			break
		}
	}
	if devPath == "" {
		logger.Info("no power key device found, quiet override disabled")
		return
	}

	keyboard, err := evdev.Open(devPath)
	if err != nil {
		logger.Warn("open input device", "path", devPath, "err", err)
		return
	}
	go func() {
		<-ctx.Done()
		keyboard.Close()
	}()

	if err := keyboard.Grab(); err != nil {
		logger.Warn("failed to grab device", "err", err)
	}
	defer keyboard.Ungrab()

	name, _ := keyboard.Name()
	logger.Info("using input device", "path", devPath, "name", name)

	var lastKeyPress time.Time
	for {
		ev, err := keyboard.ReadOne()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Debug("read error", "err", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if ev.Type != evdev.EV_KEY || ev.Code != evdev.KEY_POWER {
			continue
		}

		now := time.Now()
		switch ev.Value {
		case 1:
			lastKeyPress = now
		case 0:
			// quick taps belong to the system power handling
			if now.Sub(lastKeyPress) > KEYBOARD_DEBOUNCE_TIME {
				active := !override.Toggle()
				logger.Info("quiet override toggled", "active", active)
				onToggle(active)
			}
		}
	}
}

func trimLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
