package face

// ShouldAlert decides whether a disconnect produces a haptic alert and which
// one. wasStarted is false until the first connectivity check completed.
func ShouldAlert(connected, wasStarted, quietHoursActive bool, cfg Config) (AlertStyle, bool) {
	if connected || !wasStarted || !cfg.BluetoothAlertEnabled {
		return AlertNone, false
	}
	if quietHoursActive && !cfg.BluetoothAlertDuringQuietHours {
		return AlertNone, false
	}
	// stored records may carry codes this build does not know
	style := ParseAlertStyle(int(cfg.BluetoothAlertStyle))
	if style == AlertNone {
		return AlertNone, false
	}
	return style, true
}

type GateState int

const (
	NotStarted GateState = iota
	Started
)

func (s GateState) String() string {
	if s == Started {
		return "started"
	}
	return "not-started"
}

// AlertGate fires alerts only on a connected to disconnected transition. The
// first reading establishes the baseline and never alerts.
type AlertGate struct {
	state     GateState
	connected bool
}

func (g *AlertGate) State() GateState { return g.state }

// Connected returns the last observed connectivity.
func (g *AlertGate) Connected() bool { return g.connected }

// Observe records a connectivity reading and returns the alert to play.
func (g *AlertGate) Observe(connected, quietHoursActive bool, cfg Config) (AlertStyle, bool) {
	if g.state == NotStarted {
		g.state = Started
		g.connected = connected
		return AlertNone, false
	}
	was := g.connected
	g.connected = connected
	if !was {
		return AlertNone, false
	}
	return ShouldAlert(connected, true, quietHoursActive, cfg)
}
