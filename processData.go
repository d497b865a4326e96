package main

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-ping/ping"
	"go.uber.org/atomic"

	"github.com/photonicat/simply_analog/internal/logger"
)

var errNoReply = errors.New("no echo reply")

// SensorSource reads battery, companion reachability and quiet hours.
type SensorSource struct {
	mu          sync.Mutex
	batteryPath string
	companion   string
	quiet       QuietWindow

	// Override flips the quiet window; the power key toggles it.
	Override *atomic.Bool

	// History receives every successful battery reading.
	History *BatteryHistory

	ping func(host string) (int64, error)
}

func NewSensorSource(cfg Config) *SensorSource {
	return &SensorSource{
		batteryPath: cfg.BatteryPath,
		companion:   cfg.Companion,
		quiet:       cfg.QuietHours,
		Override:    atomic.NewBool(false),
		History:     NewBatteryHistory(cfg.BatteryHistoryPath, cfg.BatteryHistoryMins),
		ping:        pingICMP,
	}
}

// Reconfigure picks up a reloaded device config.
func (s *SensorSource) Reconfigure(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batteryPath = cfg.BatteryPath
	s.companion = cfg.Companion
	s.quiet = cfg.QuietHours
}

// Battery returns the state of charge in percent.
func (s *SensorSource) Battery() (int, error) {
	s.mu.Lock()
	path := s.batteryPath
	s.mu.Unlock()
	return getBatterySoc(path)
}

// CompanionConnected pings the companion host. Without a configured
// companion the device counts as connected.
func (s *SensorSource) CompanionConnected() bool {
	s.mu.Lock()
	host := s.companion
	s.mu.Unlock()
	if host == "" {
		return true
	}
	if _, err := s.ping(host); err != nil {
		logger.Debug("companion unreachable", "host", host, "err", err)
		return false
	}
	return true
}

// QuietActive is the quiet window XOR the manual override.
func (s *SensorSource) QuietActive(now time.Time) bool {
	s.mu.Lock()
	q := s.quiet
	s.mu.Unlock()
	return q.Active(now) != s.Override.Load()
}

// collectData reads every sensor and forwards changes to the watchface. The
// first connectivity reading is always forwarded so the alert gate starts.
func collectData(w *Watchface, src *SensorSource, now time.Time) {
	prev := w.Sensors()

	if soc, err := src.Battery(); err != nil {
		logger.Debug("battery read failed", "err", err)
	} else {
		src.History.Record(soc, now)
		if soc != prev.BatteryPercent {
			if err := w.OnBatteryChange(soc); err != nil {
				logger.Warn("render failed", "err", err)
			}
		}
	}

	if quiet := src.QuietActive(now); quiet != prev.QuietHoursActive {
		logger.Info("quiet hours changed", "active", quiet)
		if err := w.OnQuietChange(quiet); err != nil {
			logger.Warn("render failed", "err", err)
		}
	}

	connected := src.CompanionConnected()
	if !w.GateStarted() || connected != prev.BluetoothConnected {
		logger.Info("companion connectivity", "connected", connected)
		if err := w.OnConnectivityChange(connected); err != nil {
			logger.Warn("render failed", "err", err)
		}
	}
}

// pingICMP uses github.com/go-ping/ping to perform an ICMP ping.
// Note: raw ICMP ping usually requires root privileges.
func pingICMP(host string) (int64, error) {
	pinger, err := ping.NewPinger(host)
	if err != nil {
		return 0, err
	}
	pinger.SetPrivileged(true)
	pinger.Count = 1
	pinger.Timeout = 2 * time.Second

	if err := pinger.Run(); err != nil {
		return 0, err
	}
	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return 0, errNoReply
	}
	return int64(stats.AvgRtt / time.Millisecond), nil
}

// getBatterySoc returns the battery soc from a power_supply capacity file.
func getBatterySoc(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return -1, err
	}
	socInt, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return -1, err
	}
	switch {
	case socInt < 0:
		socInt = 0
	case socInt > 100:
		socInt = 100
	}
	return socInt, nil
}
