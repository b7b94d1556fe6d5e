package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/cane-sensor/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string             `json:"event,omitempty"`
	Reason        string             `json:"reason,omitempty"`
	SessionID     string             `json:"session_id,omitempty"`
	Ready         bool               `json:"ready"`
	UptimeSeconds int64              `json:"uptime_seconds"`
	StartTime     string             `json:"start_time"`
	Timestamp     string             `json:"timestamp"`
	Obstacle      ObstacleJSON       `json:"obstacle"`
	Water         WaterJSON          `json:"water"`
	LastObstacle  *ObstacleEventJSON `json:"last_obstacle,omitempty"`
	Alerts        AlertCountsJSON    `json:"alert_counts"`
	Drops         DropsJSON          `json:"drops"`
	MQTT          MQTTStatus         `json:"mqtt"`
	Network       *NetworkJSON       `json:"network,omitempty"`
	Config        ConfigJSON         `json:"config"`
}

// ObstacleJSON is the latest accepted distances. -1 means no reading yet.
type ObstacleJSON struct {
	UpperDistanceCm int `json:"upper_distance_cm"`
	LowerDistanceCm int `json:"lower_distance_cm"`
	ServoAngleDeg   int `json:"servo_angle_deg"`
}

// WaterJSON is the latest moisture reading.
type WaterJSON struct {
	HumidityPercent int    `json:"humidity_percent"`
	RawADC          int    `json:"raw_adc"`
	Level           string `json:"level"`
}

// ObstacleEventJSON is the most recent hazardous detection.
type ObstacleEventJSON struct {
	Source     string `json:"source"`
	Zone       string `json:"zone"`
	DistanceCm int    `json:"distance_cm"`
	AngleDeg   int    `json:"angle_deg"`
	Timestamp  string `json:"timestamp"`
}

// AlertCountsJSON is the JSON representation of alert counts.
type AlertCountsJSON struct {
	High  int `json:"high"`
	Low   int `json:"low"`
	Water int `json:"water"`
}

// DropCountsJSON is the JSON representation of one channel's drop counts.
type DropCountsJSON struct {
	Timeouts   int `json:"timeouts"`
	OutOfRange int `json:"out_of_range"`
	Outliers   int `json:"outliers"`
	WarmingUp  int `json:"warming_up"`
	HWErrors   int `json:"hw_errors"`
}

// DropsJSON groups discarded samples per sensor.
type DropsJSON struct {
	Upper       DropCountsJSON `json:"upper"`
	Lower       DropCountsJSON `json:"lower"`
	WaterErrors int            `json:"water_errors"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs       int64  `json:"tick_ms"`
	TelemetryMs  int64  `json:"telemetry_ms"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
	HighSafetyCm int    `json:"high_safety_cm"`
	LowSafetyCm  int    `json:"low_safety_cm"`
	Broker       string `json:"broker"`
	HTTPAddr     string `json:"http_addr"`
	WSBroker     string `json:"ws_broker,omitempty"`
}

func dropsJSON(d logic.DropCounts) DropCountsJSON {
	return DropCountsJSON{
		Timeouts:   d.Timeouts,
		OutOfRange: d.OutOfRange,
		Outliers:   d.Outliers,
		WarmingUp:  d.WarmingUp,
		HWErrors:   d.HWErrors,
	}
}

func buildInner(snap Snapshot) StatusInner {
	c := snap.Cane

	level := string(c.Water.Level)
	if level == "" {
		level = "UNKNOWN"
	}

	inner := StatusInner{
		Ready:         c.Ready,
		SessionID:     snap.Config.SessionID,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Obstacle: ObstacleJSON{
			UpperDistanceCm: c.Obstacle.UpperDistanceCm,
			LowerDistanceCm: c.Obstacle.LowerDistanceCm,
			ServoAngleDeg:   c.Obstacle.ServoAngleDeg,
		},
		Water: WaterJSON{
			HumidityPercent: c.Water.HumidityPercent,
			RawADC:          c.Water.RawADC,
			Level:           level,
		},
		Alerts: AlertCountsJSON{
			High:  c.Alerts.High,
			Low:   c.Alerts.Low,
			Water: c.Alerts.Water,
		},
		Drops: DropsJSON{
			Upper:       dropsJSON(c.UpperDrops),
			Lower:       dropsJSON(c.LowerDrops),
			WaterErrors: c.WaterErrors,
		},
		MQTT: MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			TickMs:       snap.Config.TickMs,
			TelemetryMs:  snap.Config.TelemetryMs,
			HeartbeatMs:  snap.Config.HeartbeatMs,
			HighSafetyCm: snap.Config.HighSafetyCm,
			LowSafetyCm:  snap.Config.LowSafetyCm,
			Broker:       snap.Config.Broker,
			HTTPAddr:     snap.Config.HTTPAddr,
			WSBroker:     snap.Config.WSBroker,
		},
	}

	if c.HasObstacle {
		ev := c.LastObstacle
		inner.LastObstacle = &ObstacleEventJSON{
			Source:     string(ev.Source),
			Zone:       string(ev.Zone),
			DistanceCm: ev.DistanceCm,
			AngleDeg:   ev.AngleDeg,
			Timestamp:  ev.Time.UTC().Format(time.RFC3339),
		}
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
