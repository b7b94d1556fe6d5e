//go:build !linux

package hw

import (
	"errors"
	"time"

	"github.com/sweeney/cane-sensor/internal/config"
)

var errUnsupported = errors.New("hw: not supported on this platform (requires Linux)")

// RealOptions selects the devices RealIO opens.
type RealOptions struct {
	Chip   string
	IIODir string
}

// DefaultRealOptions returns the Raspberry Pi defaults.
func DefaultRealOptions() RealOptions {
	return RealOptions{Chip: "gpiochip0", IIODir: "/sys/bus/iio/devices/iio:device0"}
}

// RealIO is not available on non-Linux platforms.
type RealIO struct{}

// NewRealIO returns an error on non-Linux platforms.
func NewRealIO(pins config.Pins, opts RealOptions) (*RealIO, error) {
	return nil, errUnsupported
}

func (r *RealIO) TriggerPulse(pin int) error { return errUnsupported }

func (r *RealIO) MeasureEcho(pin int, timeout time.Duration) (time.Duration, error) {
	return 0, errUnsupported
}

func (r *RealIO) ReadAnalog(channel int) (int, error) { return 0, errUnsupported }
func (r *RealIO) SetDigital(pin int, high bool) error { return errUnsupported }
func (r *RealIO) SetServoAngle(deg int) error         { return errUnsupported }
func (r *RealIO) StartTone(channel, hz int) error     { return errUnsupported }
func (r *RealIO) StopTone(channel int) error          { return errUnsupported }
func (r *RealIO) Now() time.Time                      { return time.Now() }
func (r *RealIO) Sleep(d time.Duration)               { time.Sleep(d) }

// Close is a no-op on non-Linux platforms.
func (r *RealIO) Close() error {
	return nil
}
