package logic

import (
	"errors"
	"time"
)

var (
	// ErrSensorTimeout means no echo arrived within the timeout.
	ErrSensorTimeout = errors.New("sensor timeout")

	// ErrOutOfRange means the computed distance is outside the valid band.
	ErrOutOfRange = errors.New("reading out of range")
)

// EchoToCentimeters converts a round-trip echo pulse into a one-way distance
// using 0.034 cm/µs for the speed of sound. The result is truncated.
func EchoToCentimeters(echo time.Duration) int {
	us := float64(echo.Microseconds())
	return int(us * 0.034 / 2)
}

// ValidateDistance returns ErrOutOfRange if cm is outside [minCm, maxCm].
func ValidateDistance(cm, minCm, maxCm int) error {
	if cm < minCm || cm > maxCm {
		return ErrOutOfRange
	}
	return nil
}
