package cane

import (
	"errors"
	"testing"
	"time"

	"github.com/sweeney/cane-sensor/internal/hw"
	"github.com/sweeney/cane-sensor/internal/logic"
)

func TestFeedbackPlayWritesOnlyChanges(t *testing.T) {
	io := hw.NewFakeIO(testStart)
	f := NewFeedback(io, 2, 26)

	p := logic.Pattern{
		{ToneHz: 2000, Vibrate: true, Duration: 150 * time.Millisecond},
		{Vibrate: true, Duration: 50 * time.Millisecond},
		{ToneHz: 1500, Vibrate: true, Duration: 150 * time.Millisecond},
		{Duration: 50 * time.Millisecond},
	}
	if err := f.Play(p); err != nil {
		t.Fatalf("Play: %v", err)
	}

	// 2000 and 1500 on both channels
	if got := len(io.CallsOf("tone")); got != 4 {
		t.Errorf("expected 4 tone starts, got %d", got)
	}
	// Held vibration is switched on once and off once
	if got := len(io.CallsOf("digital")); got != 2 {
		t.Errorf("expected 2 vibrator writes, got %d", got)
	}
	if io.Slept != p.Duration() {
		t.Errorf("expected to block for %v, got %v", p.Duration(), io.Slept)
	}
}

func TestFeedbackPlayEndsSilent(t *testing.T) {
	io := hw.NewFakeIO(testStart)
	f := NewFeedback(io, 2, 26)

	f.Play(logic.Pattern{{ToneHz: 1200, Vibrate: true, Duration: 100 * time.Millisecond}})

	if len(io.Tones) != 0 {
		t.Errorf("expected no active tones, got %v", io.Tones)
	}
	if io.Digital[26] {
		t.Error("expected vibrator off")
	}
}

func TestFeedbackPlayEmptyPattern(t *testing.T) {
	io := hw.NewFakeIO(testStart)
	f := NewFeedback(io, 2, 26)

	if err := f.Play(nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(io.Calls) != 0 {
		t.Errorf("expected no calls, got %v", io.Calls)
	}
}

func TestFeedbackErrorsDoNotShortenPattern(t *testing.T) {
	io := hw.NewFakeIO(testStart)
	io.ActuatorError = errors.New("pwm busy")
	f := NewFeedback(io, 2, 26)

	p := logic.Pattern{
		{ToneHz: 1000, Duration: 150 * time.Millisecond},
		{Vibrate: true, Duration: 300 * time.Millisecond},
	}
	err := f.Play(p)
	if err == nil {
		t.Fatal("expected joined actuator errors")
	}
	if !errors.Is(err, io.ActuatorError) {
		t.Errorf("expected wrapped actuator error, got %v", err)
	}
	if io.Slept != p.Duration() {
		t.Errorf("expected full pattern duration %v, got %v", p.Duration(), io.Slept)
	}
}

func TestFeedbackSilence(t *testing.T) {
	io := hw.NewFakeIO(testStart)
	io.StartTone(0, 2000)
	io.StartTone(1, 2000)
	io.SetDigital(26, true)
	f := NewFeedback(io, 2, 26)

	if err := f.Silence(); err != nil {
		t.Fatalf("Silence: %v", err)
	}
	if len(io.Tones) != 0 || io.Digital[26] {
		t.Error("expected everything off")
	}
}
