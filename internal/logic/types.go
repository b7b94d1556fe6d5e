// Package logic contains the pure hazard-sensing algorithms of the cane.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Source identifies an alert source. Each source has its own cooldown.
type Source string

const (
	SourceHigh  Source = "HIGH"
	SourceLow   Source = "LOW"
	SourceWater Source = "WATER"
)

// Zone is the horizontal position of a detected obstacle.
type Zone string

const (
	ZoneForward Zone = "FORWARD"
	ZoneLeft    Zone = "LEFT"
	ZoneCenter  Zone = "CENTER"
	ZoneRight   Zone = "RIGHT"
)

// Level is the moisture band reported by the water sensor.
type Level string

const (
	LevelDry   Level = "DRY"
	LevelHumid Level = "HUMID"
	LevelFlood Level = "FLOOD"
)

// AlertKind distinguishes why an alert fired.
type AlertKind string

const (
	KindHazard AlertKind = "HAZARD" // obstacle below its safety threshold
	KindEdge   AlertKind = "EDGE"   // water level changed
	KindRepeat AlertKind = "REPEAT" // water level still hazardous
)

// Reading is one validated ultrasonic range sample.
type Reading struct {
	DistanceCm int
	Time       time.Time
}

// ObstacleEvent remembers the most recent hazardous detection.
// It is overwritten on every new detection and never cleared.
type ObstacleEvent struct {
	DistanceCm int
	AngleDeg   int
	Source     Source
	Zone       Zone
	Time       time.Time
}

// Alert is an alert that passed arbitration and was played to the user.
type Alert struct {
	Time       time.Time
	Source     Source
	Kind       AlertKind
	Zone       Zone  // obstacle alerts only
	Level      Level // water alerts only
	DistanceCm int   // obstacle alerts only
	AngleDeg   int   // obstacle alerts only
}

// ObstacleSnapshot is the exported view of the latest accepted distances.
// Distances are -1 until the channel accepts its first sample.
type ObstacleSnapshot struct {
	UpperDistanceCm int
	LowerDistanceCm int
	ServoAngleDeg   int
}

// WaterSnapshot is the exported view of the moisture sensor.
type WaterSnapshot struct {
	HumidityPercent int
	RawADC          int
	Level           Level
}

// DropCounts tracks samples discarded by a channel since startup.
type DropCounts struct {
	Timeouts   int
	OutOfRange int
	Outliers   int
	WarmingUp  int
	HWErrors   int
}

// AlertCounts tracks fired alerts per source since startup.
type AlertCounts struct {
	High  int
	Low   int
	Water int
}

// Add increments the counter for the alert's source.
func (c *AlertCounts) Add(a Alert) {
	switch a.Source {
	case SourceHigh:
		c.High++
	case SourceLow:
		c.Low++
	case SourceWater:
		c.Water++
	}
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    AlertCounts
}
