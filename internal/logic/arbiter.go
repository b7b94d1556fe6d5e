package logic

import (
	"time"

	"github.com/sweeney/cane-sensor/internal/config"
)

// Arbiter bounds the alert rate per source. Sources are independent: a
// HIGH alert firing never blocks a LOW alert in the same tick.
type Arbiter struct {
	cooldowns map[Source]time.Duration
	lastFired map[Source]time.Time
}

// NewArbiter creates an arbiter with the cooldowns from cfg.
func NewArbiter(cfg config.Cooldown) *Arbiter {
	return &Arbiter{
		cooldowns: map[Source]time.Duration{
			SourceHigh:  cfg.High,
			SourceLow:   cfg.Low,
			SourceWater: cfg.Water,
		},
		lastFired: make(map[Source]time.Time),
	}
}

// ShouldFire reports whether source may alert at now, and if so records now
// as its last firing time. A source that has never fired always may.
func (a *Arbiter) ShouldFire(source Source, now time.Time) bool {
	last, ok := a.lastFired[source]
	if ok && now.Sub(last) <= a.cooldowns[source] {
		return false
	}
	a.lastFired[source] = now
	return true
}

// LastFired returns when source last fired, or the zero time.
func (a *Arbiter) LastFired(source Source) time.Time {
	return a.lastFired[source]
}
