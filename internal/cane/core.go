// Package cane wires the sensing algorithms to the hardware capability.
// Core owns all sensing state and is driven by a single goroutine calling
// Tick. Readers get copies through Snapshot or an Exporter.
package cane

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/cane-sensor/internal/config"
	"github.com/sweeney/cane-sensor/internal/hw"
	"github.com/sweeney/cane-sensor/internal/logic"
)

// Snapshot is a copy of everything the core exports.
type Snapshot struct {
	Time         time.Time
	Ready        bool
	Obstacle     logic.ObstacleSnapshot
	Water        logic.WaterSnapshot
	LastObstacle logic.ObstacleEvent
	HasObstacle  bool
	Alerts       logic.AlertCounts
	UpperDrops   logic.DropCounts
	LowerDrops   logic.DropCounts
	WaterErrors  int
}

// Exporter receives a snapshot at the end of every tick.
type Exporter interface {
	Export(Snapshot)
}

// Core is the obstacle and water sensing loop of the cane.
type Core struct {
	cfg      config.Config
	io       hw.IO
	exporter Exporter

	feedback *Feedback
	patterns logic.Patterns
	arbiter  *logic.Arbiter
	scanner  *logic.Scanner
	water    *logic.WaterMonitor
	upper    *channel
	lower    *channel

	obstacle    logic.ObstacleSnapshot
	last        logic.ObstacleEvent
	hasLast     bool
	counts      logic.AlertCounts
	waterErrors int
	ready       bool
}

// New creates a core from a validated config. exporter may be nil.
func New(cfg config.Config, io hw.IO, exporter Exporter) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	scanner := logic.NewScanner(cfg.Scan)
	return &Core{
		cfg:      cfg,
		io:       io,
		exporter: exporter,
		feedback: NewFeedback(io, len(cfg.Pins.Buzzers), cfg.Pins.Vibrator),
		patterns: logic.NewPatterns(cfg),
		arbiter:  logic.NewArbiter(cfg.Cooldown),
		scanner:  scanner,
		water:    logic.NewWaterMonitor(cfg.Water),
		upper:    newChannel("upper", cfg.Pins.TrigHigh, cfg.Pins.EchoHigh, cfg.Filter),
		lower:    newChannel("lower", cfg.Pins.TrigLow, cfg.Pins.EchoLow, cfg.Filter),
		obstacle: logic.ObstacleSnapshot{
			UpperDistanceCm: -1,
			LowerDistanceCm: -1,
			ServoAngleDeg:   scanner.Angle(),
		},
	}, nil
}

// Init centres the servo and plays the startup chirp. Tick does nothing
// until Init succeeds.
func (c *Core) Init() error {
	if err := c.io.SetServoAngle(c.scanner.Angle()); err != nil {
		return fmt.Errorf("servo: %w", err)
	}
	c.io.Sleep(c.cfg.Scan.Settle)

	if err := c.feedback.Play(c.patterns.Startup()); err != nil {
		log.Printf("feedback: startup: %v", err)
	}

	c.ready = true
	c.export()
	return nil
}

// Ready reports whether Init has completed and Stop has not been called.
func (c *Core) Ready() bool {
	return c.ready
}

// Tick runs one control-loop pass: forward channel, servo step, ground
// channel, then the water sensor when it is due. It returns the alerts that
// fired, each already played to the user. Sensor faults never surface here;
// they only stall their own channel.
func (c *Core) Tick() []logic.Alert {
	if !c.ready {
		return nil
	}

	var fired []logic.Alert

	if d, ok := c.sample(c.upper); ok {
		c.obstacle.UpperDistanceCm = d
		if logic.ClassifyForward(d, c.cfg.Safety.HighCm) {
			if a, ok := c.obstacleHazard(logic.SourceHigh, logic.ZoneForward, d, 0); ok {
				fired = append(fired, a)
			}
		}
	}

	angle := c.scanner.Step()
	if err := c.io.SetServoAngle(angle); err != nil {
		log.Printf("servo: %d deg: %v", angle, err)
	}
	c.obstacle.ServoAngleDeg = angle
	c.io.Sleep(c.cfg.Scan.Settle)

	if d, ok := c.sample(c.lower); ok {
		c.obstacle.LowerDistanceCm = d
		if logic.ClassifyGround(d, c.cfg.Safety.LowCm) {
			zone := logic.ZoneForAngle(angle, c.cfg.Scan.LeftBelow, c.cfg.Scan.RightAbove)
			if a, ok := c.obstacleHazard(logic.SourceLow, zone, d, angle); ok {
				fired = append(fired, a)
			}
		}
	}

	if a, ok := c.checkWater(); ok {
		fired = append(fired, a)
	}

	c.export()
	return fired
}

// obstacleHazard records the detection and fires an alert if the source is
// out of cooldown.
func (c *Core) obstacleHazard(source logic.Source, zone logic.Zone, distanceCm, angle int) (logic.Alert, bool) {
	now := c.io.Now()
	c.last = logic.ObstacleEvent{
		DistanceCm: distanceCm,
		AngleDeg:   angle,
		Source:     source,
		Zone:       zone,
		Time:       now,
	}
	c.hasLast = true

	if !c.arbiter.ShouldFire(source, now) {
		return logic.Alert{}, false
	}

	a := logic.Alert{
		Time:       now,
		Source:     source,
		Kind:       logic.KindHazard,
		Zone:       zone,
		DistanceCm: distanceCm,
		AngleDeg:   angle,
	}
	if source == logic.SourceHigh {
		c.fire(a, c.patterns.High(distanceCm))
	} else {
		c.fire(a, c.patterns.Low(zone))
	}
	return a, true
}

func (c *Core) checkWater() (logic.Alert, bool) {
	now := c.io.Now()
	if !c.water.Due(now) {
		return logic.Alert{}, false
	}

	raw, err := c.io.ReadAnalog(c.cfg.Pins.Water)
	if err != nil {
		c.waterErrors++
		log.Printf("water: read: %v", err)
		return logic.Alert{}, false
	}

	d := c.water.Sample(now, raw)
	if d.Changed {
		log.Printf("water: %s -> %s (smoothed %d)", d.Previous, d.Level, d.Smoothed)
	}
	if d.Silence {
		if err := c.feedback.Silence(); err != nil {
			log.Printf("feedback: silence: %v", err)
		}
		return logic.Alert{}, false
	}
	if d.Want == "" || !c.arbiter.ShouldFire(logic.SourceWater, now) {
		return logic.Alert{}, false
	}

	c.water.Alerted(now, d.Level)
	a := logic.Alert{
		Time:   now,
		Source: logic.SourceWater,
		Kind:   d.Want,
		Level:  d.Level,
	}
	c.fire(a, c.patterns.Water(d.Level))
	return a, true
}

func (c *Core) fire(a logic.Alert, p logic.Pattern) {
	c.counts.Add(a)
	log.Printf("alert: %s", Describe(a))
	if err := c.feedback.Play(p); err != nil {
		log.Printf("feedback: %v", err)
	}
}

// Stop silences the actuators, returns the servo to its start angle and
// disables Tick.
func (c *Core) Stop() error {
	c.ready = false
	var errs []error
	if err := c.feedback.Silence(); err != nil {
		errs = append(errs, err)
	}
	if err := c.io.SetServoAngle(c.cfg.Scan.AngleStart); err != nil {
		errs = append(errs, fmt.Errorf("servo: %w", err))
	}
	c.export()
	return errors.Join(errs...)
}

// ObstacleSnapshot returns the latest accepted distances and servo angle.
func (c *Core) ObstacleSnapshot() logic.ObstacleSnapshot {
	return c.obstacle
}

// WaterSnapshot returns the latest water reading.
func (c *Core) WaterSnapshot() logic.WaterSnapshot {
	return c.water.Snapshot()
}

// LastObstacle returns the most recent hazardous detection, if any.
func (c *Core) LastObstacle() (logic.ObstacleEvent, bool) {
	return c.last, c.hasLast
}

// HasObstacleHigh reports whether the last detection was a forward hazard.
func (c *Core) HasObstacleHigh() bool {
	return c.hasLast && c.last.HasHazard(logic.SourceHigh, c.cfg.Safety.HighCm)
}

// HasObstacleLow reports whether the last detection was a ground hazard.
func (c *Core) HasObstacleLow() bool {
	return c.hasLast && c.last.HasHazard(logic.SourceLow, c.cfg.Safety.LowCm)
}

// AlertCounts returns the number of fired alerts per source.
func (c *Core) AlertCounts() logic.AlertCounts {
	return c.counts
}

// Snapshot returns a copy of the exported state.
func (c *Core) Snapshot() Snapshot {
	return Snapshot{
		Time:         c.io.Now(),
		Ready:        c.ready,
		Obstacle:     c.obstacle,
		Water:        c.water.Snapshot(),
		LastObstacle: c.last,
		HasObstacle:  c.hasLast,
		Alerts:       c.counts,
		UpperDrops:   c.upper.drops,
		LowerDrops:   c.lower.drops,
		WaterErrors:  c.waterErrors,
	}
}

func (c *Core) export() {
	if c.exporter != nil {
		c.exporter.Export(c.Snapshot())
	}
}

// Describe formats an alert for logs.
func Describe(a logic.Alert) string {
	if a.Source == logic.SourceWater {
		return fmt.Sprintf("WATER %s %s", a.Kind, a.Level)
	}
	return fmt.Sprintf("%s %s %dcm at %d deg", a.Source, a.Zone, a.DistanceCm, a.AngleDeg)
}
