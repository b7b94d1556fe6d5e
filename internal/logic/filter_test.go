package logic

import (
	"errors"
	"testing"

	"github.com/sweeney/cane-sensor/internal/config"
)

func testFilterConfig() config.Filter {
	return config.Filter{Size: 5, Seed: 999, VariationThreshold: 40, MaxConsecutiveRejects: 0}
}

func TestNewMedianFilterSeeded(t *testing.T) {
	f := NewMedianFilter(testFilterConfig())
	if got := f.Median(); got != 999 {
		t.Errorf("expected seeded median 999, got %d", got)
	}
	if _, ok := f.LastAccepted(); ok {
		t.Error("new filter should have no accepted value")
	}
}

func TestFilterDefaultSeedNeverMatchesReading(t *testing.T) {
	cfg := config.Default()
	f := NewMedianFilter(cfg.Filter)

	accepted := false
	for i := 0; i < 10; i++ {
		if v, err := f.Filter(cfg.Range.MaxCm); err == nil {
			accepted = v == cfg.Range.MaxCm
		}
	}
	if !accepted {
		t.Errorf("a steady reading at the maximum distance %dcm should pass warm-up", cfg.Range.MaxCm)
	}
}

func TestFilterWarmUp(t *testing.T) {
	f := NewMedianFilter(testFilterConfig())

	// Two real samples leave the seed as the median
	for i := 0; i < 2; i++ {
		_, err := f.Filter(50)
		if !errors.Is(err, ErrWarmingUp) {
			t.Fatalf("sample %d: expected ErrWarmingUp, got %v", i, err)
		}
	}
	if _, ok := f.LastAccepted(); ok {
		t.Error("seed must not become the accepted baseline")
	}

	// Third sample makes a real value the median
	got, err := f.Filter(50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 50 {
		t.Errorf("expected 50, got %d", got)
	}
}

func TestFilterTrueMedian(t *testing.T) {
	cfg := testFilterConfig()
	cfg.VariationThreshold = 1000
	f := NewMedianFilter(cfg)

	samples := []int{120, 30, 300, 80, 95}
	var got int
	var err error
	for _, s := range samples {
		got, err = f.Filter(s)
	}
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// sorted: 30 80 95 120 300
	if got != 95 {
		t.Errorf("expected median 95, got %d", got)
	}

	// Overwrites the oldest slot (120), not the one just written
	got, err = f.Filter(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// window: 10 30 300 80 95 -> sorted 10 30 80 95 300
	if got != 80 {
		t.Errorf("expected median 80 after wrap, got %d", got)
	}
}

func TestFilterSpikeSuppressedByMedian(t *testing.T) {
	f := NewMedianFilter(testFilterConfig())
	for i := 0; i < 5; i++ {
		f.Filter(100)
	}

	// A single specular spike never reaches the median
	got, err := f.Filter(390)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 100 {
		t.Errorf("expected 100, got %d", got)
	}
}

func TestOutlierGateThreshold(t *testing.T) {
	g := NewOutlierGate(40, 0)
	if err := g.Check(100); err != nil {
		t.Fatalf("first value must be accepted, got %v", err)
	}

	// 145 deviates by 45 > 40
	if err := g.Check(145); !errors.Is(err, ErrOutlierRejected) {
		t.Errorf("expected ErrOutlierRejected for 145, got %v", err)
	}
	if last, _ := g.Last(); last != 100 {
		t.Errorf("rejection must not move baseline, got %d", last)
	}

	// 139 deviates by 39 <= 40
	if err := g.Check(139); err != nil {
		t.Errorf("expected 139 accepted, got %v", err)
	}
	if last, _ := g.Last(); last != 139 {
		t.Errorf("expected baseline 139, got %d", last)
	}
}

func TestOutlierGateExactThresholdAccepted(t *testing.T) {
	g := NewOutlierGate(40, 0)
	g.Check(100)
	if err := g.Check(60); err != nil {
		t.Errorf("deviation equal to threshold should be accepted, got %v", err)
	}
}

func TestOutlierGateRebaseline(t *testing.T) {
	g := NewOutlierGate(40, 3)
	g.Check(50)

	for i := 0; i < 3; i++ {
		if err := g.Check(300); !errors.Is(err, ErrOutlierRejected) {
			t.Fatalf("reject %d: expected ErrOutlierRejected, got %v", i, err)
		}
	}

	if err := g.Check(300); err != nil {
		t.Fatalf("expected re-baseline after 3 rejects, got %v", err)
	}
	if last, _ := g.Last(); last != 300 {
		t.Errorf("expected baseline 300, got %d", last)
	}

	// Counter restarts after an accept
	if err := g.Check(50); !errors.Is(err, ErrOutlierRejected) {
		t.Errorf("expected rejection after re-baseline, got %v", err)
	}
}

func TestOutlierGateNoRebaselineWhenDisabled(t *testing.T) {
	g := NewOutlierGate(40, 0)
	g.Check(50)
	for i := 0; i < 20; i++ {
		if err := g.Check(300); !errors.Is(err, ErrOutlierRejected) {
			t.Fatalf("iteration %d: expected rejection, got %v", i, err)
		}
	}
}

func TestFilterRejectedSampleLeavesBaseline(t *testing.T) {
	f := NewMedianFilter(testFilterConfig())
	for i := 0; i < 5; i++ {
		f.Filter(100)
	}

	// Three far samples move the median to 300
	f.Filter(300)
	f.Filter(300)
	_, err := f.Filter(300)
	if !errors.Is(err, ErrOutlierRejected) {
		t.Fatalf("expected ErrOutlierRejected, got %v", err)
	}
	if last, _ := f.LastAccepted(); last != 100 {
		t.Errorf("expected last accepted 100, got %d", last)
	}
}
