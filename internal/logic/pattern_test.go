package logic

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sweeney/cane-sensor/internal/config"
)

func vibrationPulses(p Pattern) int {
	n := 0
	on := false
	for _, s := range p {
		if s.Vibrate && !on {
			n++
		}
		on = s.Vibrate
	}
	return n
}

func firstTone(p Pattern) int {
	for _, s := range p {
		if s.ToneHz > 0 {
			return s.ToneHz
		}
	}
	return 0
}

func TestHighPatternScalesWithDistance(t *testing.T) {
	p := NewPatterns(config.Default())

	far := p.High(149)
	near := p.High(10)

	if firstTone(near) <= firstTone(far) {
		t.Errorf("closer obstacle should be higher pitch: near=%d far=%d", firstTone(near), firstTone(far))
	}
	if near[0].Duration >= far[0].Duration {
		t.Errorf("closer obstacle should have a shorter pulse: near=%v far=%v", near[0].Duration, far[0].Duration)
	}
	if near[1].Duration >= far[1].Duration {
		t.Errorf("closer obstacle should have a shorter pause: near=%v far=%v", near[1].Duration, far[1].Duration)
	}
	if got := vibrationPulses(far); got != 2 {
		t.Errorf("expected 2 vibration pulses, got %d", got)
	}
}

func TestHighPatternBounds(t *testing.T) {
	cfg := config.Default()
	p := NewPatterns(cfg)

	atThreshold := p.High(cfg.Safety.HighCm)
	if atThreshold[0].ToneHz != cfg.Feedback.HighFreqFar {
		t.Errorf("expected far frequency %d, got %d", cfg.Feedback.HighFreqFar, atThreshold[0].ToneHz)
	}
	if atThreshold[0].Duration != cfg.Feedback.HighPulseFar {
		t.Errorf("expected far pulse %v, got %v", cfg.Feedback.HighPulseFar, atThreshold[0].Duration)
	}

	atMin := p.High(cfg.Range.MinCm)
	if atMin[0].ToneHz != cfg.Feedback.HighFreqNear {
		t.Errorf("expected near frequency %d, got %d", cfg.Feedback.HighFreqNear, atMin[0].ToneHz)
	}
	if atMin[1].Duration != cfg.Feedback.HighPauseNear {
		t.Errorf("expected near pause %v, got %v", cfg.Feedback.HighPauseNear, atMin[1].Duration)
	}

	// Below the minimum clamps to the near bound
	if got := p.High(0)[0].ToneHz; got != cfg.Feedback.HighFreqNear {
		t.Errorf("expected clamp to %d, got %d", cfg.Feedback.HighFreqNear, got)
	}
}

func TestLowPatternByZone(t *testing.T) {
	cfg := config.Default()
	p := NewPatterns(cfg)

	tests := []struct {
		zone       Zone
		wantHz     int
		wantPulses int
		wantLong   bool
	}{
		{ZoneLeft, 1000, 1, true},
		{ZoneCenter, 1200, 1, false},
		{ZoneRight, 1500, 3, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.zone), func(t *testing.T) {
			pat := p.Low(tt.zone)
			if got := firstTone(pat); got != tt.wantHz {
				t.Errorf("expected %dHz, got %d", tt.wantHz, got)
			}
			if got := vibrationPulses(pat); got != tt.wantPulses {
				t.Errorf("expected %d pulses, got %d", tt.wantPulses, got)
			}
			last := pat[len(pat)-1]
			if tt.wantLong && last.Duration != cfg.Vibration.Long {
				t.Errorf("expected long pulse %v, got %v", cfg.Vibration.Long, last.Duration)
			}
			if !tt.wantLong && last.Duration != cfg.Vibration.Short {
				t.Errorf("expected short pulse %v, got %v", cfg.Vibration.Short, last.Duration)
			}
		})
	}
}

func TestWaterPatternHumid(t *testing.T) {
	p := NewPatterns(config.Default())
	ms := time.Millisecond

	want := Pattern{
		{ToneHz: 2000, Duration: 150 * ms},
		{Duration: 50 * ms},
		{ToneHz: 1500, Duration: 150 * ms},
		{Duration: 50 * ms},
		{ToneHz: 1000, Duration: 150 * ms},
		{Duration: 50 * ms},
		{Vibrate: true, Duration: 100 * ms},
	}
	if diff := cmp.Diff(want, p.Water(LevelHumid)); diff != "" {
		t.Errorf("humid pattern mismatch (-want +got):\n%s", diff)
	}
}

func TestWaterPatternFloodEscalates(t *testing.T) {
	p := NewPatterns(config.Default())

	flood := p.Water(LevelFlood)
	humid := p.Water(LevelHumid)

	if flood.Duration() <= humid.Duration() {
		t.Errorf("flood should play longer than humid: %v <= %v", flood.Duration(), humid.Duration())
	}
	if got := vibrationPulses(flood); got != 1 {
		t.Errorf("flood vibration should be one continuous pulse, got %d", got)
	}
	notes := 0
	for _, s := range flood {
		if s.ToneHz > 0 {
			notes++
		}
	}
	if notes != 9 {
		t.Errorf("expected melody played 3 times (9 notes), got %d", notes)
	}
	if p.Water(LevelDry) != nil {
		t.Error("dry has no pattern")
	}
}

func TestPatternsWithoutVibration(t *testing.T) {
	cfg := config.Default()
	cfg.Vibration.Enabled = false
	p := NewPatterns(cfg)

	for _, pat := range []Pattern{p.High(50), p.Low(ZoneRight), p.Water(LevelFlood), p.Startup()} {
		if got := vibrationPulses(pat); got != 0 {
			t.Errorf("expected no vibration, got %d pulses", got)
		}
	}
}

func TestStartupPattern(t *testing.T) {
	p := NewPatterns(config.Default())
	pat := p.Startup()

	if got := vibrationPulses(pat); got != 3 {
		t.Errorf("expected 3 startup vibrations, got %d", got)
	}
	if got := pat.Duration(); got != 900*time.Millisecond {
		t.Errorf("expected 900ms startup, got %v", got)
	}
}

func TestWorstCaseTick(t *testing.T) {
	cfg := config.Default()
	p := NewPatterns(cfg)

	got := WorstCaseTick(cfg)
	if got <= cfg.WorstCaseSensing() {
		t.Fatalf("worst case %v must exceed sensing-only %v", got, cfg.WorstCaseSensing())
	}
	want := cfg.WorstCaseSensing() + p.High(cfg.Safety.HighCm).Duration() +
		p.Low(ZoneRight).Duration() + p.Water(LevelFlood).Duration()
	if got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}
