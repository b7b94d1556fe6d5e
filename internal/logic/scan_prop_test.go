package logic

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/sweeney/cane-sensor/internal/config"
)

// The angle stays in bounds and moves by exactly one step except at a clamp.
func TestPropertyScanBounds(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 100
	props := gopter.NewProperties(params)

	props.Property("angle within bounds, step is exact away from the bounds", prop.ForAll(
		func(step, ticks int) bool {
			cfg := config.Default().Scan
			cfg.Step = step
			s := NewScanner(cfg)

			prev := s.Angle()
			for i := 0; i < ticks; i++ {
				angle := s.Step()
				if angle < cfg.AngleMin || angle > cfg.AngleMax {
					return false
				}
				delta := abs(angle - prev)
				atBound := angle == cfg.AngleMin || angle == cfg.AngleMax
				if atBound && delta > step {
					return false
				}
				if !atBound && delta != step {
					return false
				}
				prev = angle
			}
			return true
		},
		gen.IntRange(1, 90),
		gen.IntRange(0, 500),
	))

	props.TestingRun(t)
}
