package logic

import (
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/sweeney/cane-sensor/internal/config"
)

// Median of the last five samples equals the middle of the sorted 5-tuple.
func TestPropertyMedianCorrectness(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	props := gopter.NewProperties(params)

	props.Property("filtered output is the middle of the sorted window", prop.ForAll(
		func(prefix, window []int) bool {
			f := NewMedianFilter(config.Filter{Size: 5, Seed: 999, VariationThreshold: 1 << 20})

			for _, v := range prefix {
				f.Filter(v)
			}
			var got int
			var err error
			for _, v := range window {
				got, err = f.Filter(v)
			}
			if err != nil {
				return false
			}

			sorted := append([]int(nil), window...)
			sort.Ints(sorted)
			return got == sorted[2] && f.Median() == sorted[2]
		},
		gen.SliceOf(gen.IntRange(2, 400)),
		gen.SliceOfN(5, gen.IntRange(2, 400)),
	))

	props.TestingRun(t)
}

// A rejected candidate never changes the accepted baseline.
func TestPropertyOutlierGate(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	props := gopter.NewProperties(params)

	props.Property("gate accepts iff deviation is within threshold", prop.ForAll(
		func(base, candidate, threshold int) bool {
			g := NewOutlierGate(threshold, 0)
			g.Check(base)

			err := g.Check(candidate)
			last, _ := g.Last()
			if abs(candidate-base) > threshold {
				return err == ErrOutlierRejected && last == base
			}
			return err == nil && last == candidate
		},
		gen.IntRange(2, 400),
		gen.IntRange(2, 400),
		gen.IntRange(0, 100),
	))

	props.TestingRun(t)
}
