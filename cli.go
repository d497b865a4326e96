package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sanity-io/litter"
	"golang.org/x/sync/errgroup"

	"github.com/photonicat/simply_analog/internal/face"
	"github.com/photonicat/simply_analog/internal/logger"
	"github.com/photonicat/simply_analog/internal/store"
)

// Context is handed to every command.
type Context struct {
	Config     Config
	ConfigPath string
}

func (app *Context) openStore() (store.Store, error) {
	st, err := store.Open(app.Config.StoreBackend, app.Config.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open %s store at %s: %w", app.Config.StoreBackend, app.Config.StorePath, err)
	}
	return st, nil
}

type RunCmd struct {
	NoWatch bool `help:"Do not reload the device config when it changes."`
}

func (c *RunCmd) Run(app *Context) error {
	cfg := app.Config
	logger.Debug("device config", "config", litter.Sdump(cfg))

	st, err := app.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	panel, err := openPanel(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := panel.Halt(); err != nil {
			logger.Warn("panel halt", "err", err)
		}
	}()
	logger.Info("panel ready", "panel", panel.Name(), "bounds", panel.Bounds())

	registerMetrics()
	sensors := NewSensorSource(cfg)
	w, err := NewWatchface(WatchfaceOpts{
		Store:        st,
		Panel:        panel,
		Painter:      NewPainter(cfg.LabelCase, cfg.Locale),
		Haptics:      NewVibrator(cfg.VibratorPath),
		Backlight:    NewBacklight(cfg.BacklightPath, cfg.BacklightMax),
		BacklightDim: cfg.BacklightDim,
		Round:        cfg.Round,
		Quiet:        sensors.QuietActive,
	})
	if err != nil {
		return err
	}
	if err := sensors.History.Load(time.Now()); err != nil {
		logger.Warn("battery history not loaded", "err", err)
	}
	defer func() {
		if err := sensors.History.Save(); err != nil {
			logger.Warn("battery history not saved", "err", err)
		}
	}()

	if err := w.OnTick(time.Now()); err != nil {
		logger.Warn("first render failed", "err", err)
	}

	sched, err := NewScheduler()
	if err != nil {
		return err
	}
	if err := sched.ScheduleMinuteTick(w); err != nil {
		return err
	}
	if err := sched.ScheduleSensorPoll(w, sensors, cfg.sensorInterval()); err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			logger.Warn("scheduler shutdown", "err", err)
		}
	}()

	if cfg.NATSURL != "" {
		bus, err := NewMessageBus(cfg.NATSURL, cfg.NATSPrefix, w)
		if err != nil {
			logger.Warn("NATS message channel disabled", "err", err)
		} else {
			defer bus.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	if cfg.HTTPListen != "" {
		g.Go(func() error {
			return httpServer(gctx, cfg.HTTPListen, w, sensors.History)
		})
	}
	g.Go(func() error {
		monitorPowerKey(gctx, sensors.Override, func(bool) {
			collectData(w, sensors, time.Now())
		})
		return nil
	})
	if !c.NoWatch {
		watcher, err := NewConfigWatcher(app.ConfigPath, func(next Config) {
			applyDeviceConfig(w, sensors, panel, next, time.Now())
		})
		if err != nil {
			logger.Warn("device config watcher disabled", "err", err)
		} else {
			g.Go(func() error {
				if err := watcher.Run(gctx); err != nil {
					logger.Warn("device config watcher stopped", "err", err)
				}
				return nil
			})
		}
	}

	err = g.Wait()
	logger.Info("shutting down")
	return err
}

type RenderCmd struct {
	Output       string `arg:"" optional:"" default:"frame.png" type:"path" help:"PNG file to write."`
	At           string `help:"Time to show, RFC3339 or HH:MM today. Defaults to now."`
	Battery      int    `help:"Battery percent." default:"100"`
	Disconnected bool   `help:"Show the companion as disconnected."`
	Quiet        bool   `help:"Show quiet hours as active."`
	Width        int    `help:"Frame width, defaults to the device config."`
	Height       int    `help:"Frame height, defaults to the device config."`
	Mono         bool   `help:"Render for a two-color panel."`
}

func (c *RenderCmd) Run(app *Context) error {
	st, err := app.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	rec, _, err := st.Load()
	if err != nil {
		return err
	}

	at, err := parseRenderTime(c.At, time.Now())
	if err != nil {
		return err
	}
	d := face.Display{Width: app.Config.Width, Height: app.Config.Height, Round: app.Config.Round, Mono: c.Mono}
	if c.Width > 0 {
		d.Width = c.Width
	}
	if c.Height > 0 {
		d.Height = c.Height
	}
	sensors := face.Sensors{
		BatteryPercent:     c.Battery,
		BluetoothConnected: !c.Disconnected,
		QuietHoursActive:   c.Quiet,
	}

	scene := face.RenderTick(rec.Config, at, sensors, d)
	logger.Debug("scene", "scene", litter.Sdump(scene))

	frame := image.NewRGBA(image.Rect(0, 0, d.Width, d.Height))
	if err := NewPainter(app.Config.LabelCase, app.Config.Locale).Paint(frame, scene); err != nil {
		return err
	}
	if err := saveFrameToPng(frame, c.Output); err != nil {
		return fmt.Errorf("writing %s: %w", c.Output, err)
	}
	fmt.Printf("Frame for %s saved to %s\n", at.Format(time.RFC1123), c.Output)
	return nil
}

// parseRenderTime accepts RFC3339 or a wall clock time on now's date.
func parseRenderTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	minutes, err := parseClock(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: want RFC3339 or HH:MM", s)
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, minutes/60, minutes%60, 0, 0, now.Location()), nil
}

type ConfigShowCmd struct{}

func (c *ConfigShowCmd) Run(app *Context) error {
	st, err := app.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	rec, found, err := st.Load()
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintln(os.Stderr, "No saved configuration, showing defaults.")
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

// ConfigSetCmd edits the store directly; a running daemon picks the change up
// on restart. Use POST /config to change a running face.
type ConfigSetCmd struct {
	Fields []string `arg:"" name:"field" help:"KEY=VALUE pairs, e.g. COLOUR_BACKGROUND=#0055AA TOGGLE_BLUETOOTH=0."`
}

func (c *ConfigSetCmd) Run(app *Context) error {
	msg, err := parseFieldArgs(c.Fields)
	if err != nil {
		return err
	}
	patch, rejected := face.DecodeMessage(msg)
	if len(rejected) > 0 {
		return fmt.Errorf("invalid value for %s", strings.Join(rejected, ", "))
	}
	if patch.IsEmpty() {
		return fmt.Errorf("no known configuration keys given")
	}

	st, err := app.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	rec, _, err := st.Load()
	if err != nil {
		return err
	}
	next := store.NewRecord(face.OnConfigUpdate(rec.Config, patch), time.Now())
	if err := st.Save(next); err != nil {
		return err
	}
	fmt.Printf("Saved revision %s to %s\n", next.Revision, st.Path())
	return nil
}

func parseFieldArgs(fields []string) (map[string]any, error) {
	msg := make(map[string]any, len(fields))
	for _, f := range fields {
		key, value, ok := strings.Cut(f, "=")
		key = strings.ToUpper(strings.TrimSpace(key))
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q, want KEY=VALUE", f)
		}
		msg[key] = strings.TrimSpace(value)
	}
	return msg, nil
}

type ConfigResetCmd struct{}

func (c *ConfigResetCmd) Run(app *Context) error {
	st, err := app.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	rec := store.NewRecord(face.DefaultConfig(), time.Now())
	if err := st.Save(rec); err != nil {
		return err
	}
	fmt.Printf("Restored defaults as revision %s in %s\n", rec.Revision, st.Path())
	return nil
}

// applyDeviceConfig hands a reloaded device config to the running daemon.
// Hardware panels report a fixed size, so only the headless panel follows
// width and height changes.
func applyDeviceConfig(w *Watchface, sensors *SensorSource, panel Panel, next Config, now time.Time) {
	sensors.Reconfigure(next)
	if err := w.SetSurfaceOptions(NewPainter(next.LabelCase, next.Locale), next.BacklightDim); err != nil {
		logger.Warn("render after reload failed", "err", err)
	}
	if _, ok := panel.(*headlessPanel); ok {
		if d := w.Display(); d.Width != next.Width || d.Height != next.Height {
			logger.Info("resizing headless panel", "width", next.Width, "height", next.Height)
			if err := w.OnBoundsChange(next.Width, next.Height); err != nil {
				logger.Warn("resize failed", "err", err)
			}
		}
	}
	collectData(w, sensors, now)
}
