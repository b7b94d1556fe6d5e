package logic

import "github.com/sweeney/cane-sensor/internal/config"

// Direction is the current sweep direction of the servo.
type Direction string

const (
	Increasing Direction = "INCREASING"
	Decreasing Direction = "DECREASING"
)

// Scanner drives the ground sensor back and forth between two bounds.
// The angle moves by a fixed step and reverses exactly at the bound it reaches.
type Scanner struct {
	min, max, step int
	angle          int
	dir            Direction
}

// NewScanner creates a scanner at cfg.AngleStart moving in the Increasing
// direction.
func NewScanner(cfg config.Scan) *Scanner {
	return &Scanner{
		min:   cfg.AngleMin,
		max:   cfg.AngleMax,
		step:  cfg.Step,
		angle: cfg.AngleStart,
		dir:   Increasing,
	}
}

// Step advances the sweep by one step and returns the new angle.
func (s *Scanner) Step() int {
	switch s.dir {
	case Increasing:
		s.angle += s.step
		if s.angle >= s.max {
			s.angle = s.max
			s.dir = Decreasing
		}
	case Decreasing:
		s.angle -= s.step
		if s.angle <= s.min {
			s.angle = s.min
			s.dir = Increasing
		}
	}
	return s.angle
}

// Angle returns the current angle in degrees.
func (s *Scanner) Angle() int {
	return s.angle
}

// Direction returns the current sweep direction.
func (s *Scanner) Direction() Direction {
	return s.dir
}
