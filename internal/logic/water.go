package logic

import (
	"time"

	"github.com/sweeney/cane-sensor/internal/config"
)

// WaterDecision is the outcome of one water sample.
type WaterDecision struct {
	Raw      int
	Smoothed int
	Level    Level
	Previous Level
	Changed  bool
	// Want is the alert the monitor asks for: "", KindEdge or KindRepeat.
	// It still has to pass the arbiter.
	Want AlertKind
	// Silence is set when the level dropped back to Dry.
	Silence bool
}

// WaterMonitor samples the moisture sensor on its own cadence, smooths it
// with a moving average and bands it into Dry/Humid/Flood.
//
// Alert policy: a level the user has not been told about yet asks for an
// EDGE alert until one fires; an announced non-Dry level asks for a REPEAT
// alert once RepeatInterval has passed since the last water alert of either
// kind. Returning to Dry never alerts, it silences.
type WaterMonitor struct {
	cfg config.Water

	window []int
	next   int
	count  int

	raw      int
	smoothed int
	level    Level

	announced Level
	lastCheck time.Time
	checked   bool
	lastAlert time.Time
	alerted   bool
}

// NewWaterMonitor creates a monitor in the Dry state.
func NewWaterMonitor(cfg config.Water) *WaterMonitor {
	size := cfg.Window
	if size < 1 {
		size = 1
	}
	return &WaterMonitor{
		cfg:       cfg,
		window:    make([]int, size),
		level:     LevelDry,
		announced: LevelDry,
	}
}

// Due reports whether a new sample should be taken at now.
func (m *WaterMonitor) Due(now time.Time) bool {
	return !m.checked || now.Sub(m.lastCheck) >= m.cfg.CheckInterval
}

// Sample records a raw ADC reading taken at now and evaluates it.
func (m *WaterMonitor) Sample(now time.Time, raw int) WaterDecision {
	m.checked = true
	m.lastCheck = now
	m.raw = raw

	m.window[m.next] = raw
	m.next = (m.next + 1) % len(m.window)
	if m.count < len(m.window) {
		m.count++
	}
	sum := 0
	for i := 0; i < m.count; i++ {
		sum += m.window[i]
	}
	d := m.Evaluate(now, sum/m.count)
	d.Raw = raw
	return d
}

// Evaluate bands an already smoothed value and decides which alert, if any,
// is wanted.
func (m *WaterMonitor) Evaluate(now time.Time, smoothed int) WaterDecision {
	m.smoothed = smoothed
	level := ClassifyWater(smoothed, m.cfg.LowThreshold, m.cfg.HighThreshold)

	d := WaterDecision{
		Raw:      m.raw,
		Smoothed: smoothed,
		Level:    level,
		Previous: m.level,
		Changed:  level != m.level,
	}
	m.level = level

	switch {
	case level == LevelDry:
		if d.Changed {
			d.Silence = true
		}
		m.announced = LevelDry
	case level != m.announced:
		d.Want = KindEdge
	case !m.alerted || now.Sub(m.lastAlert) > m.cfg.RepeatInterval:
		d.Want = KindRepeat
	}
	return d
}

// Alerted records that a water alert for level fired at now. Both the edge
// and repeat timers restart from here.
func (m *WaterMonitor) Alerted(now time.Time, level Level) {
	m.lastAlert = now
	m.alerted = true
	m.announced = level
}

// Level returns the current band.
func (m *WaterMonitor) Level() Level {
	return m.level
}

// Snapshot returns the exported view of the sensor.
func (m *WaterMonitor) Snapshot() WaterSnapshot {
	return WaterSnapshot{
		HumidityPercent: HumidityPercent(m.raw, m.cfg.ADCMax),
		RawADC:          m.raw,
		Level:           m.level,
	}
}

// ClassifyWater bands a smoothed ADC value: Dry below low, Flood at or
// above high, Humid in between.
func ClassifyWater(smoothed, low, high int) Level {
	switch {
	case smoothed < low:
		return LevelDry
	case smoothed >= high:
		return LevelFlood
	default:
		return LevelHumid
	}
}

// HumidityPercent rescales raw from [0, adcMax] to [0, 100], clamped.
func HumidityPercent(raw, adcMax int) int {
	if adcMax <= 0 {
		return 0
	}
	p := raw * 100 / adcMax
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
