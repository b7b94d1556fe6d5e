// Package mqtt publishes cane alerts, telemetry and lifecycle events, with an
// abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/cane-sensor/internal/logic"
)

// Topic names.
const (
	TopicAlerts    = "mobility/cane/sensor/alerts"
	TopicTelemetry = "mobility/cane/sensor/telemetry"
	TopicSystem    = "mobility/cane/sensor/system"
)

// Publisher publishes cane data to MQTT.
// Errors are reported to the caller and must not crash the process.
type Publisher interface {
	// PublishAlert sends one fired alert.
	PublishAlert(alert logic.Alert) error

	// PublishTelemetry sends the latest obstacle and water snapshots.
	PublishTelemetry(t Telemetry) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Telemetry is the periodic sensor view sent on TopicTelemetry.
type Telemetry struct {
	Timestamp time.Time
	Obstacle  logic.ObstacleSnapshot
	Water     logic.WaterSnapshot
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// AlertPayload is the MQTT message for TopicAlerts.
type AlertPayload struct {
	Alert AlertInner `json:"alert"`
}

// AlertInner contains the alert details. Exactly one of Obstacle and Water is set.
type AlertInner struct {
	Timestamp string         `json:"timestamp"`
	Source    string         `json:"source"`
	Kind      string         `json:"kind"`
	Obstacle  *AlertObstacle `json:"obstacle,omitempty"`
	Water     *AlertWater    `json:"water,omitempty"`
}

// AlertObstacle describes an obstacle alert.
type AlertObstacle struct {
	Zone       string `json:"zone"`
	DistanceCm int    `json:"distance_cm"`
	AngleDeg   int    `json:"angle_deg"`
}

// AlertWater describes a water alert.
type AlertWater struct {
	Level string `json:"level"`
}

// FormatAlertPayload creates the JSON payload for an alert.
func FormatAlertPayload(a logic.Alert) ([]byte, error) {
	inner := AlertInner{
		Timestamp: a.Time.UTC().Format(time.RFC3339Nano),
		Source:    string(a.Source),
		Kind:      string(a.Kind),
	}
	if a.Source == logic.SourceWater {
		inner.Water = &AlertWater{Level: string(a.Level)}
	} else {
		inner.Obstacle = &AlertObstacle{
			Zone:       string(a.Zone),
			DistanceCm: a.DistanceCm,
			AngleDeg:   a.AngleDeg,
		}
	}
	return json.Marshal(AlertPayload{Alert: inner})
}

// TelemetryPayload is the MQTT message for TopicTelemetry.
type TelemetryPayload struct {
	Telemetry TelemetryInner `json:"telemetry"`
}

// TelemetryInner contains the snapshot values.
type TelemetryInner struct {
	Timestamp       string `json:"timestamp"`
	UpperDistanceCm int    `json:"upper_distance_cm"`
	LowerDistanceCm int    `json:"lower_distance_cm"`
	ServoAngleDeg   int    `json:"servo_angle_deg"`
	HumidityPercent int    `json:"humidity_percent"`
	RawADC          int    `json:"raw_adc"`
	WaterLevel      string `json:"water_level"`
}

// FormatTelemetryPayload creates the JSON payload for a telemetry sample.
func FormatTelemetryPayload(t Telemetry) ([]byte, error) {
	return json.Marshal(TelemetryPayload{
		Telemetry: TelemetryInner{
			Timestamp:       t.Timestamp.UTC().Format(time.RFC3339Nano),
			UpperDistanceCm: t.Obstacle.UpperDistanceCm,
			LowerDistanceCm: t.Obstacle.LowerDistanceCm,
			ServoAngleDeg:   t.Obstacle.ServoAngleDeg,
			HumidityPercent: t.Water.HumidityPercent,
			RawADC:          t.Water.RawADC,
			WaterLevel:      string(t.Water.Level),
		},
	})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
