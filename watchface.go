package main

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"
	"time"

	"github.com/sanity-io/litter"

	"github.com/photonicat/simply_analog/internal/face"
	"github.com/photonicat/simply_analog/internal/logger"
	"github.com/photonicat/simply_analog/internal/store"
)

// Haptics plays an alert pattern.
type Haptics interface {
	Play(style face.AlertStyle) error
}

type WatchfaceOpts struct {
	Store   store.Store
	Panel   Panel
	Painter *Painter
	Haptics Haptics
	// Backlight and BacklightDim implement power save; both optional.
	Backlight    *Backlight
	BacklightDim int
	Round        bool
	Now          func() time.Time
	// Quiet reports whether quiet hours are active; OnTick re-evaluates it.
	Quiet func(now time.Time) bool
}

// Watchface owns the face configuration and the sensor state. Every entry
// point takes mu, so a frame is always rendered from a fully merged
// configuration.
type Watchface struct {
	mu sync.Mutex

	cfg      face.Config
	revision string
	savedAt  time.Time
	store    store.Store

	gate    face.AlertGate
	sensors face.Sensors
	display face.Display

	panel     Panel
	painter   *Painter
	haptics   Haptics
	backlight *Backlight
	dimLevel  int
	now       func() time.Time
	quiet     func(time.Time) bool

	frame *image.RGBA
	scene face.Scene
}

// NewWatchface loads the persisted configuration and sizes the frame from the
// panel. Nothing is rendered until the first tick.
func NewWatchface(opts WatchfaceOpts) (*Watchface, error) {
	if opts.Store == nil || opts.Panel == nil {
		return nil, fmt.Errorf("watchface needs a store and a panel")
	}
	rec, found, err := opts.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading face config: %w", err)
	}
	if found {
		logger.Info("loaded face config", "revision", rec.Revision, "saved_at", rec.SavedAt)
	} else {
		logger.Info("no saved face config, using defaults", "store", opts.Store.Path())
	}
	logger.Debug("face config", "config", litter.Sdump(rec.Config))

	w := &Watchface{
		cfg:       rec.Config,
		revision:  rec.Revision,
		savedAt:   rec.SavedAt,
		store:     opts.Store,
		panel:     opts.Panel,
		painter:   opts.Painter,
		haptics:   opts.Haptics,
		backlight: opts.Backlight,
		dimLevel:  opts.BacklightDim,
		now:       opts.Now,
		quiet:     opts.Quiet,
		// assume a healthy device until the first sensor poll
		sensors: face.Sensors{BatteryPercent: 100, BluetoothConnected: true},
	}
	if w.painter == nil {
		w.painter = NewPainter("upper", "en")
	}
	if w.now == nil {
		w.now = time.Now
	}
	b := opts.Panel.Bounds()
	w.resize(b.Dx(), b.Dy(), opts.Round, opts.Panel.Mono())
	return w, nil
}

func (w *Watchface) resize(width, height int, round, mono bool) {
	w.display = face.Display{Width: width, Height: height, Round: round, Mono: mono}
	w.frame = image.NewRGBA(image.Rect(0, 0, width, height))
}

// render must be called with mu held.
func (w *Watchface) render(now time.Time) error {
	w.scene = face.RenderTick(w.cfg, now, w.sensors, w.display)
	if err := w.painter.Paint(w.frame, w.scene); err != nil {
		return fmt.Errorf("paint: %w", err)
	}
	rendersTotal.Inc()
	if err := w.panel.Send(w.frame); err != nil {
		return fmt.Errorf("send frame to %s: %w", w.panel.Name(), err)
	}
	return nil
}

// applyBacklight must be called with mu held.
func (w *Watchface) applyBacklight() {
	if w.backlight == nil {
		return
	}
	if w.cfg.PowerSaveEnabled && w.sensors.QuietHoursActive {
		w.backlight.Set(w.dimLevel)
	} else {
		w.backlight.Set(w.backlight.Max())
	}
}

// OnTick redraws the face for now. Quiet hours are re-evaluated first so a
// window boundary takes effect on the minute it starts.
func (w *Watchface) OnTick(now time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.quiet != nil {
		if active := w.quiet(now); active != w.sensors.QuietHoursActive {
			logger.Info("quiet hours changed", "active", active)
			w.sensors.QuietHoursActive = active
			quietHoursActive.Set(boolGauge(active))
			w.applyBacklight()
		}
	}
	return w.render(now)
}

// OnConfigUpdate merges patch, persists the result and redraws. When the save
// fails the running configuration is left unchanged.
func (w *Watchface) OnConfigUpdate(patch face.Patch) (store.Record, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if patch.IsEmpty() {
		return w.recordLocked(), nil
	}
	next := face.OnConfigUpdate(w.cfg, patch)
	rec := store.NewRecord(next, w.now())
	if err := w.store.Save(rec); err != nil {
		return store.Record{}, fmt.Errorf("saving face config: %w", err)
	}
	w.cfg = next
	w.revision = rec.Revision
	w.savedAt = rec.SavedAt
	configUpdatesTotal.Inc()
	logger.Info("face config updated", "revision", rec.Revision)
	logger.Debug("face config", "config", litter.Sdump(next))

	w.applyBacklight()
	if err := w.render(w.now()); err != nil {
		logger.Warn("render after config change failed", "err", err)
	}
	return rec, nil
}

// ApplyMessage decodes a companion message and applies it. Fields that could
// not be decoded are returned and otherwise ignored.
func (w *Watchface) ApplyMessage(msg map[string]any) (store.Record, []string, error) {
	patch, rejected := face.DecodeMessage(msg)
	if len(rejected) > 0 {
		logger.Warn("ignoring malformed config fields", "keys", rejected)
		configFieldsIgnoredTotal.Add(float64(len(rejected)))
	}
	rec, err := w.OnConfigUpdate(patch)
	return rec, rejected, err
}

// Reset restores and persists the default configuration.
func (w *Watchface) Reset() (store.Record, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec := store.NewRecord(face.DefaultConfig(), w.now())
	if err := w.store.Save(rec); err != nil {
		return store.Record{}, fmt.Errorf("saving face config: %w", err)
	}
	w.cfg = rec.Config
	w.revision = rec.Revision
	w.savedAt = rec.SavedAt
	configUpdatesTotal.Inc()
	logger.Info("face config reset", "revision", rec.Revision)

	w.applyBacklight()
	if err := w.render(w.now()); err != nil {
		logger.Warn("render after config change failed", "err", err)
	}
	return rec, nil
}

// OnConnectivityChange feeds the alert gate and plays the resulting alert.
func (w *Watchface) OnConnectivityChange(connected bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	style, alert := w.gate.Observe(connected, w.sensors.QuietHoursActive, w.cfg)
	w.sensors.BluetoothConnected = connected
	companionConnected.Set(boolGauge(connected))
	if alert {
		logger.Info("companion disconnected, alerting", "style", style)
		alertsTotal.WithLabelValues(style.String()).Inc()
		if w.haptics != nil {
			if err := w.haptics.Play(style); err != nil {
				logger.Warn("haptic alert failed", "err", err)
			}
		}
	}
	return w.render(w.now())
}

func (w *Watchface) OnBatteryChange(percent int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.sensors.BatteryPercent = percent
	batteryPercent.Set(float64(percent))
	return w.render(w.now())
}

func (w *Watchface) OnQuietChange(active bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.sensors.QuietHoursActive = active
	quietHoursActive.Set(boolGauge(active))
	w.applyBacklight()
	return w.render(w.now())
}

// OnBoundsChange resizes the drawing area; every position is derived again
// on the next render.
func (w *Watchface) OnBoundsChange(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid bounds %dx%d", width, height)
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.resize(width, height, w.display.Round, w.display.Mono)
	return w.render(w.now())
}

// SetSurfaceOptions swaps the label painter and the power save dim level and
// redraws.
func (w *Watchface) SetSurfaceOptions(p *Painter, dim int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p != nil {
		w.painter = p
	}
	w.dimLevel = dim
	w.applyBacklight()
	return w.render(w.now())
}

func (w *Watchface) Config() face.Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

func (w *Watchface) Record() store.Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.recordLocked()
}

func (w *Watchface) recordLocked() store.Record {
	return store.Record{
		Version:  store.SchemaVersion,
		Revision: w.revision,
		SavedAt:  w.savedAt,
		Config:   w.cfg,
	}
}

func (w *Watchface) Sensors() face.Sensors {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sensors
}

// GateStarted reports whether a connectivity reading has been observed.
func (w *Watchface) GateStarted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gate.State() == face.Started
}

func (w *Watchface) Display() face.Display {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.display
}

// Scene returns the last rendered scene.
func (w *Watchface) Scene() face.Scene {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scene
}

// FramePNG encodes the last rendered frame.
func (w *Watchface) FramePNG() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var buf bytes.Buffer
	if err := png.Encode(&buf, w.frame); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
