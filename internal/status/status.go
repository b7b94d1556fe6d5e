// Package status provides a thread-safe status tracker for the cane-sensor daemon.
// The control loop pushes snapshots in; HTTP handlers and MQTT telemetry read them out.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/cane-sensor/internal/cane"
	"github.com/sweeney/cane-sensor/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	TickMs       int64
	TelemetryMs  int64
	HeartbeatMs  int64
	HighSafetyCm int
	LowSafetyCm  int
	Broker       string
	HTTPAddr     string
	WSBroker     string // Websocket broker URL for browser MQTT (empty = disabled)
	SessionID    string // Random per-boot ID, lets consumers tell restarts apart
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Cane          cane.Snapshot
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
// Distances read -1 until the core exports its first snapshot.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Cane: cane.Snapshot{
				Obstacle: logic.ObstacleSnapshot{UpperDistanceCm: -1, LowerDistanceCm: -1},
			},
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Export stores the latest core snapshot. Called by the core after every tick.
func (t *Tracker) Export(s cane.Snapshot) {
	t.mu.Lock()
	t.snap.Cane = s
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

var _ cane.Exporter = (*Tracker)(nil)
