// Package hw provides the hardware capability used by the sensing core.
// The real implementation uses the Linux GPIO character device, PWM and IIO.
// The fake implementation allows testing without hardware.
package hw

import (
	"errors"
	"time"
)

// ErrEchoTimeout is returned by MeasureEcho when no complete echo pulse was
// seen within the timeout.
var ErrEchoTimeout = errors.New("hw: echo timeout")

// IO is every hardware operation the core performs. All calls block.
type IO interface {
	// TriggerPulse drives pin low for 2µs, high for 10µs, then low.
	TriggerPulse(pin int) error

	// MeasureEcho waits for a high pulse on pin and returns its length.
	// Returns ErrEchoTimeout if none completes within timeout.
	MeasureEcho(pin int, timeout time.Duration) (time.Duration, error)

	// ReadAnalog returns the raw ADC value of channel.
	ReadAnalog(channel int) (int, error)

	// SetDigital drives an output pin.
	SetDigital(pin int, high bool) error

	// SetServoAngle commands the scan servo, in degrees 0..180.
	SetServoAngle(deg int) error

	// StartTone starts a square wave of hz on a buzzer channel.
	StartTone(channel, hz int) error

	// StopTone silences a buzzer channel.
	StopTone(channel int) error

	// Now returns the monotonic clock.
	Now() time.Time

	// Sleep blocks for d.
	Sleep(d time.Duration)

	// Close releases hardware resources.
	Close() error
}

var (
	_ IO = (*RealIO)(nil)
	_ IO = (*FakeIO)(nil)
)
