package cane

import (
	"errors"
	"log"

	"github.com/sweeney/cane-sensor/internal/config"
	"github.com/sweeney/cane-sensor/internal/hw"
	"github.com/sweeney/cane-sensor/internal/logic"
)

// channel is one ultrasonic sensor with its own filter.
type channel struct {
	name   string
	trig   int
	echo   int
	filter *logic.MedianFilter
	drops  logic.DropCounts
}

func newChannel(name string, trig, echo int, cfg config.Filter) *channel {
	return &channel{
		name:   name,
		trig:   trig,
		echo:   echo,
		filter: logic.NewMedianFilter(cfg),
	}
}

// sample measures, validates and filters one reading. It returns false when
// the reading was dropped; the reason is counted and nothing else changes.
func (c *Core) sample(ch *channel) (int, bool) {
	if err := c.io.TriggerPulse(ch.trig); err != nil {
		ch.drop(err)
		return 0, false
	}

	echo, err := c.io.MeasureEcho(ch.echo, c.cfg.Range.EchoTimeout)
	if errors.Is(err, hw.ErrEchoTimeout) {
		err = logic.ErrSensorTimeout
	}
	if err != nil {
		ch.drop(err)
		return 0, false
	}

	cm := logic.EchoToCentimeters(echo)
	if err := logic.ValidateDistance(cm, c.cfg.Range.MinCm, c.cfg.Range.MaxCm); err != nil {
		ch.drop(err)
		return 0, false
	}

	d, err := ch.filter.Filter(cm)
	if err != nil {
		ch.drop(err)
		return 0, false
	}
	return d, true
}

func (ch *channel) drop(err error) {
	switch {
	case errors.Is(err, logic.ErrSensorTimeout):
		ch.drops.Timeouts++
	case errors.Is(err, logic.ErrOutOfRange):
		ch.drops.OutOfRange++
	case errors.Is(err, logic.ErrOutlierRejected):
		ch.drops.Outliers++
	case errors.Is(err, logic.ErrWarmingUp):
		ch.drops.WarmingUp++
	default:
		ch.drops.HWErrors++
		log.Printf("sensor: %s channel: %v", ch.name, err)
	}
}
