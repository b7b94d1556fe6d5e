package logic

import (
	"errors"
	"sort"

	"github.com/sweeney/cane-sensor/internal/config"
)

var (
	// ErrOutlierRejected means the filtered value jumped further than the
	// variation threshold from the last accepted value.
	ErrOutlierRejected = errors.New("outlier rejected")

	// ErrWarmingUp means the median is still the seed value, so there is no
	// physical distance to report yet.
	ErrWarmingUp = errors.New("filter warming up")
)

// OutlierGate rejects filtered values that deviate too far from the last
// accepted one. The first value is always accepted.
type OutlierGate struct {
	threshold  int
	maxRejects int

	last     int
	accepted bool
	rejects  int // consecutive
}

// NewOutlierGate creates a gate with the given variation threshold (cm).
// After maxRejects consecutive rejections the next value is accepted as a new
// baseline; maxRejects <= 0 never re-baselines.
func NewOutlierGate(threshold, maxRejects int) *OutlierGate {
	return &OutlierGate{threshold: threshold, maxRejects: maxRejects}
}

// Check accepts or rejects candidate. On rejection the gate state other than
// the rejection counter is left untouched.
func (g *OutlierGate) Check(candidate int) error {
	if g.accepted && abs(candidate-g.last) > g.threshold {
		if g.maxRejects <= 0 || g.rejects < g.maxRejects {
			g.rejects++
			return ErrOutlierRejected
		}
	}
	g.rejects = 0
	g.last = candidate
	g.accepted = true
	return nil
}

// Last returns the last accepted value and whether one exists.
func (g *OutlierGate) Last() (int, bool) {
	return g.last, g.accepted
}

// MedianFilter smooths one ultrasonic channel with a rolling median over the
// last N raw samples, followed by an OutlierGate.
type MedianFilter struct {
	buf  []int
	next int
	seed int
	gate *OutlierGate
}

// NewMedianFilter creates a filter from cfg. The buffer starts filled with
// cfg.Seed, so the median reads as "far away" until enough real samples
// have arrived.
func NewMedianFilter(cfg config.Filter) *MedianFilter {
	size := cfg.Size
	if size < 1 {
		size = 1
	}
	buf := make([]int, size)
	for i := range buf {
		buf[i] = cfg.Seed
	}
	return &MedianFilter{
		buf:  buf,
		seed: cfg.Seed,
		gate: NewOutlierGate(cfg.VariationThreshold, cfg.MaxConsecutiveRejects),
	}
}

// Filter pushes raw into the window and returns the gated median.
// Errors are ErrWarmingUp and ErrOutlierRejected; both mean "skip this tick".
func (f *MedianFilter) Filter(raw int) (int, error) {
	f.buf[f.next] = raw
	f.next = (f.next + 1) % len(f.buf)

	candidate := f.Median()
	if _, ok := f.gate.Last(); !ok && candidate == f.seed {
		return 0, ErrWarmingUp
	}
	if err := f.gate.Check(candidate); err != nil {
		return 0, err
	}
	return candidate, nil
}

// Median returns the middle element of the sorted window, without
// modifying the window.
func (f *MedianFilter) Median() int {
	sorted := make([]int, len(f.buf))
	copy(sorted, f.buf)
	sort.Ints(sorted)
	return sorted[len(sorted)/2]
}

// LastAccepted returns the last value that passed the gate.
func (f *MedianFilter) LastAccepted() (int, bool) {
	return f.gate.Last()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
