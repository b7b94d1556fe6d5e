package cane

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sweeney/cane-sensor/internal/hw"
	"github.com/sweeney/cane-sensor/internal/logic"
)

// Feedback owns the buzzer channels and the vibrator.
// One pattern runs to completion before the next starts.
type Feedback struct {
	mu       sync.Mutex
	io       hw.IO
	channels int
	vibrator int
}

// NewFeedback drives channels buzzer channels (all at the same frequency)
// and the vibrator on pin vibrator.
func NewFeedback(io hw.IO, channels, vibrator int) *Feedback {
	return &Feedback{io: io, channels: channels, vibrator: vibrator}
}

// Play blocks until the whole pattern has been played. Actuators are only
// written when a step changes their state. Tones and vibrator are off when
// Play returns. Actuator errors do not shorten the pattern.
func (f *Feedback) Play(p logic.Pattern) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	tone := 0
	vibrating := false

	for _, s := range p {
		if s.ToneHz != tone {
			if s.ToneHz == 0 {
				errs = append(errs, f.stopTones()...)
			} else {
				errs = append(errs, f.startTones(s.ToneHz)...)
			}
			tone = s.ToneHz
		}
		if s.Vibrate != vibrating {
			if err := f.io.SetDigital(f.vibrator, s.Vibrate); err != nil {
				errs = append(errs, fmt.Errorf("vibrator: %w", err))
			}
			vibrating = s.Vibrate
		}
		f.io.Sleep(s.Duration)
	}

	if tone != 0 {
		errs = append(errs, f.stopTones()...)
	}
	if vibrating {
		if err := f.io.SetDigital(f.vibrator, false); err != nil {
			errs = append(errs, fmt.Errorf("vibrator: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Silence stops every tone and the vibrator.
func (f *Feedback) Silence() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	errs := f.stopTones()
	if err := f.io.SetDigital(f.vibrator, false); err != nil {
		errs = append(errs, fmt.Errorf("vibrator: %w", err))
	}
	return errors.Join(errs...)
}

func (f *Feedback) startTones(hz int) []error {
	var errs []error
	for ch := 0; ch < f.channels; ch++ {
		if err := f.io.StartTone(ch, hz); err != nil {
			errs = append(errs, fmt.Errorf("buzzer %d: %w", ch, err))
		}
	}
	return errs
}

func (f *Feedback) stopTones() []error {
	var errs []error
	for ch := 0; ch < f.channels; ch++ {
		if err := f.io.StopTone(ch); err != nil {
			errs = append(errs, fmt.Errorf("buzzer %d: %w", ch, err))
		}
	}
	return errs
}
