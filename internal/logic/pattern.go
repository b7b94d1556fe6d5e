package logic

import (
	"time"

	"github.com/sweeney/cane-sensor/internal/config"
)

// Step is one segment of a feedback pattern. ToneHz 0 means silence.
// The vibrator holds its state across consecutive steps with Vibrate set.
type Step struct {
	ToneHz   int
	Vibrate  bool
	Duration time.Duration
}

// Pattern is a sequence of steps played back to back on the actuators.
type Pattern []Step

// Duration is the total playback time of the pattern.
func (p Pattern) Duration() time.Duration {
	var d time.Duration
	for _, s := range p {
		d += s.Duration
	}
	return d
}

// Patterns synthesises the audio + haptic pattern for each kind of alert.
type Patterns struct {
	fb            config.Feedback
	vib           config.Vibration
	minCm         int
	thresholdHigh int
}

// NewPatterns builds the pattern table from cfg.
func NewPatterns(cfg config.Config) Patterns {
	return Patterns{
		fb:            cfg.Feedback,
		vib:           cfg.Vibration,
		minCm:         cfg.Range.MinCm,
		thresholdHigh: cfg.Safety.HighCm,
	}
}

// High is the forward-obstacle pattern. Pitch rises and the pulse and pause
// shorten linearly as distanceCm falls from the safety threshold to the
// minimum valid distance. Two short vibrations follow the tone.
func (p Patterns) High(distanceCm int) Pattern {
	t := closeness(distanceCm, p.minCm, p.thresholdHigh)
	hz := lerpInt(p.fb.HighFreqFar, p.fb.HighFreqNear, t)
	pulse := lerpDuration(p.fb.HighPulseFar, p.fb.HighPulseNear, t)
	pause := lerpDuration(p.fb.HighPauseFar, p.fb.HighPauseNear, t)

	pat := Pattern{
		{ToneHz: hz, Duration: pulse},
		{Duration: pause},
	}
	return append(pat, p.shortPulses(2)...)
}

// Low is the ground-obstacle pattern for a zone: a zone-specific tone, then
// one long pulse (Left), one short pulse (Center) or three short pulses (Right).
func (p Patterns) Low(zone Zone) Pattern {
	var hz int
	var haptic Pattern
	switch zone {
	case ZoneLeft:
		hz = p.fb.LowFreqLeft
		haptic = p.longPulse()
	case ZoneRight:
		hz = p.fb.LowFreqRight
		haptic = p.shortPulses(3)
	default:
		hz = p.fb.LowFreqCenter
		haptic = p.shortPulses(1)
	}
	pat := Pattern{
		{ToneHz: hz, Duration: p.fb.LowTone},
		{Duration: p.vib.Pause},
	}
	return append(pat, haptic...)
}

// Water is the moisture pattern. Humid plays the descending melody once
// followed by a short burst; Flood plays it FloodRepeats times with the
// vibrator held on throughout. Dry has no pattern.
func (p Patterns) Water(level Level) Pattern {
	switch level {
	case LevelHumid:
		return append(p.melody(false), p.shortPulses(1)...)
	case LevelFlood:
		var pat Pattern
		for i := 0; i < p.fb.FloodRepeats; i++ {
			pat = append(pat, p.melody(p.vib.Enabled)...)
		}
		return pat
	default:
		return nil
	}
}

// Startup is the power-on chirp: beeps with a short vibration each.
func (p Patterns) Startup() Pattern {
	var pat Pattern
	for i := 0; i < p.fb.StartupBeeps; i++ {
		pat = append(pat,
			Step{ToneHz: p.fb.StartupFreq, Vibrate: p.vib.Enabled, Duration: p.fb.StartupBeep},
			Step{Duration: p.fb.StartupSilent},
		)
	}
	return pat
}

func (p Patterns) melody(vibrate bool) Pattern {
	notes := []int{p.fb.MelodyHigh, p.fb.MelodyMid, p.fb.MelodyLow}
	pat := make(Pattern, 0, 2*len(notes))
	for _, hz := range notes {
		pat = append(pat,
			Step{ToneHz: hz, Vibrate: vibrate, Duration: p.fb.MelodyNote},
			Step{Vibrate: vibrate, Duration: p.fb.MelodyGap},
		)
	}
	return pat
}

func (p Patterns) shortPulses(n int) Pattern {
	if !p.vib.Enabled {
		return nil
	}
	var pat Pattern
	for i := 0; i < n; i++ {
		pat = append(pat, Step{Vibrate: true, Duration: p.vib.Short})
		if i < n-1 {
			pat = append(pat, Step{Duration: p.vib.Pause})
		}
	}
	return pat
}

func (p Patterns) longPulse() Pattern {
	if !p.vib.Enabled {
		return nil
	}
	return Pattern{{Vibrate: true, Duration: p.vib.Long}}
}

// WorstCaseTick bounds the blocking time of one control-loop tick: both
// echo reads time out, the servo settles, and every source fires its
// longest pattern.
func WorstCaseTick(cfg config.Config) time.Duration {
	p := NewPatterns(cfg)

	high := p.High(cfg.Safety.HighCm).Duration()
	if d := p.High(cfg.Range.MinCm).Duration(); d > high {
		high = d
	}
	var low time.Duration
	for _, z := range []Zone{ZoneLeft, ZoneCenter, ZoneRight} {
		if d := p.Low(z).Duration(); d > low {
			low = d
		}
	}
	water := p.Water(LevelFlood).Duration()
	if d := p.Water(LevelHumid).Duration(); d > water {
		water = d
	}
	return cfg.WorstCaseSensing() + high + low + water
}

// closeness maps distanceCm to [0, 1]: 0 at or beyond far, 1 at or below near.
func closeness(distanceCm, near, far int) float64 {
	if far <= near {
		return 1
	}
	t := float64(far-distanceCm) / float64(far-near)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func lerpInt(from, to int, t float64) int {
	return from + int(float64(to-from)*t)
}

func lerpDuration(from, to time.Duration, t float64) time.Duration {
	return from + time.Duration(float64(to-from)*t)
}
