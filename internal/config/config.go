// Package config holds the injected configuration for the cane sensing core.
// Every pin, threshold, interval and frequency lives here; nothing in the
// core reads a package-level constant for hardware behaviour.
package config

import (
	"errors"
	"fmt"
	"time"
)

// TriggerPulseTime is the trigger sequence length: 2µs low + 10µs high.
const TriggerPulseTime = 12 * time.Microsecond

// Pins holds the GPIO line offsets (BCM numbering) and actuator channels.
type Pins struct {
	TrigHigh int
	EchoHigh int
	TrigLow  int
	EchoLow  int
	Servo    int
	Vibrator int
	Water    int   // IIO ADC channel index
	Buzzers  []int // one entry per buzzer channel, driven in sync
}

// Range configures the ultrasonic sampler.
type Range struct {
	EchoTimeout time.Duration
	MinCm       int
	MaxCm       int
}

// Filter configures the per-channel median filter and outlier gate.
type Filter struct {
	Size int
	// Seed is the initial buffer fill. It must lie above Range.MaxCm so no
	// real reading can be mistaken for it.
	Seed               int
	VariationThreshold int // cm
	// MaxConsecutiveRejects re-baselines the gate after this many outlier
	// rejections in a row. 0 disables, so a jump is rejected for as long as
	// it persists.
	MaxConsecutiveRejects int
}

// Scan configures the ground sensor sweep.
type Scan struct {
	AngleMin   int
	AngleMax   int
	AngleStart int
	Step       int
	Settle     time.Duration
	LeftBelow  int // angle < LeftBelow is the Left zone
	RightAbove int // angle > RightAbove is the Right zone
}

// Safety holds the hazard distance thresholds in cm.
type Safety struct {
	HighCm int
	LowCm  int
}

// Cooldown holds the minimum spacing between two alerts of the same source.
type Cooldown struct {
	High  time.Duration
	Low   time.Duration
	Water time.Duration
}

// Water configures the moisture monitor.
type Water struct {
	LowThreshold   int // raw ADC, Dry below
	HighThreshold  int // raw ADC, Flood at or above
	CheckInterval  time.Duration
	RepeatInterval time.Duration
	Window         int
	ADCMax         int
}

// Vibration holds the haptic pulse timings.
type Vibration struct {
	Enabled bool
	Short   time.Duration
	Long    time.Duration
	Pause   time.Duration
}

// Feedback holds tone frequencies and durations per hazard type.
type Feedback struct {
	HighFreqFar   int
	HighFreqNear  int
	HighPulseFar  time.Duration
	HighPulseNear time.Duration
	HighPauseFar  time.Duration
	HighPauseNear time.Duration

	LowFreqLeft   int
	LowFreqCenter int
	LowFreqRight  int
	LowTone       time.Duration

	MelodyHigh    int
	MelodyMid     int
	MelodyLow     int
	MelodyNote    time.Duration
	MelodyGap     time.Duration
	FloodRepeats  int
	StartupFreq   int
	StartupBeeps  int
	StartupBeep   time.Duration
	StartupSilent time.Duration
}

// Config is the complete core configuration.
type Config struct {
	Pins      Pins
	Range     Range
	Filter    Filter
	Scan      Scan
	Safety    Safety
	Cooldown  Cooldown
	Water     Water
	Vibration Vibration
	Feedback  Feedback
}

// Default returns the configuration of the reference cane hardware.
func Default() Config {
	return Config{
		Pins: Pins{
			TrigHigh: 5,
			EchoHigh: 18,
			TrigLow:  19,
			EchoLow:  21,
			Servo:    12,
			Vibrator: 26,
			Water:    0,
			Buzzers:  []int{13, 27},
		},
		Range: Range{
			EchoTimeout: 30 * time.Millisecond,
			MinCm:       2,
			MaxCm:       400,
		},
		Filter: Filter{
			Size:                  5,
			Seed:                  999,
			VariationThreshold:    40,
			MaxConsecutiveRejects: 3,
		},
		Scan: Scan{
			AngleMin:   0,
			AngleMax:   180,
			AngleStart: 90,
			Step:       15,
			Settle:     120 * time.Millisecond,
			LeftBelow:  60,
			RightAbove: 120,
		},
		Safety: Safety{
			HighCm: 150,
			LowCm:  100,
		},
		Cooldown: Cooldown{
			High:  800 * time.Millisecond,
			Low:   800 * time.Millisecond,
			Water: 3 * time.Second,
		},
		Water: Water{
			LowThreshold:   300,
			HighThreshold:  700,
			CheckInterval:  500 * time.Millisecond,
			RepeatInterval: 5 * time.Second,
			Window:         5,
			ADCMax:         4095,
		},
		Vibration: Vibration{
			Enabled: true,
			Short:   100 * time.Millisecond,
			Long:    300 * time.Millisecond,
			Pause:   50 * time.Millisecond,
		},
		Feedback: Feedback{
			HighFreqFar:   1500,
			HighFreqNear:  2500,
			HighPulseFar:  300 * time.Millisecond,
			HighPulseNear: 80 * time.Millisecond,
			HighPauseFar:  150 * time.Millisecond,
			HighPauseNear: 40 * time.Millisecond,

			LowFreqLeft:   1000,
			LowFreqCenter: 1200,
			LowFreqRight:  1500,
			LowTone:       150 * time.Millisecond,

			MelodyHigh:    2000,
			MelodyMid:     1500,
			MelodyLow:     1000,
			MelodyNote:    150 * time.Millisecond,
			MelodyGap:     50 * time.Millisecond,
			FloodRepeats:  3,
			StartupFreq:   1500,
			StartupBeeps:  3,
			StartupBeep:   100 * time.Millisecond,
			StartupSilent: 200 * time.Millisecond,
		},
	}
}

// Validate checks the configuration for values the core cannot run with.
func (c Config) Validate() error {
	var errs []error

	if c.Range.EchoTimeout <= 0 {
		errs = append(errs, errors.New("range: echo timeout must be positive"))
	}
	if c.Range.MinCm < 0 || c.Range.MinCm >= c.Range.MaxCm {
		errs = append(errs, fmt.Errorf("range: invalid bounds [%d, %d]", c.Range.MinCm, c.Range.MaxCm))
	}
	if c.Filter.Size < 1 || c.Filter.Size%2 == 0 {
		errs = append(errs, fmt.Errorf("filter: size %d must be odd and positive", c.Filter.Size))
	}
	if c.Filter.Seed <= c.Range.MaxCm {
		errs = append(errs, fmt.Errorf("filter: seed %d must exceed the maximum valid distance %d",
			c.Filter.Seed, c.Range.MaxCm))
	}
	if c.Filter.VariationThreshold < 0 {
		errs = append(errs, errors.New("filter: variation threshold must not be negative"))
	}
	if c.Scan.AngleMin < 0 || c.Scan.AngleMax > 180 || c.Scan.AngleMin > c.Scan.AngleMax {
		errs = append(errs, fmt.Errorf("scan: invalid bounds [%d, %d]", c.Scan.AngleMin, c.Scan.AngleMax))
	}
	if c.Scan.AngleStart < c.Scan.AngleMin || c.Scan.AngleStart > c.Scan.AngleMax {
		errs = append(errs, fmt.Errorf("scan: start angle %d outside bounds", c.Scan.AngleStart))
	}
	if c.Scan.Step <= 0 {
		errs = append(errs, errors.New("scan: step must be positive"))
	}
	if c.Safety.HighCm <= c.Range.MinCm || c.Safety.LowCm <= c.Range.MinCm {
		errs = append(errs, errors.New("safety: thresholds must exceed the minimum valid distance"))
	}
	if c.Water.LowThreshold >= c.Water.HighThreshold {
		errs = append(errs, fmt.Errorf("water: low threshold %d must be below high threshold %d",
			c.Water.LowThreshold, c.Water.HighThreshold))
	}
	if c.Water.Window < 1 {
		errs = append(errs, errors.New("water: window must be positive"))
	}
	if c.Water.ADCMax <= 0 {
		errs = append(errs, errors.New("water: adc max must be positive"))
	}
	if len(c.Pins.Buzzers) == 0 {
		errs = append(errs, errors.New("pins: at least one buzzer channel is required"))
	}
	if c.Water.CheckInterval > 0 && c.WorstCaseSensing() >= c.Water.CheckInterval {
		errs = append(errs, fmt.Errorf("timing: worst-case sensing time %v starves the water check interval %v",
			c.WorstCaseSensing(), c.Water.CheckInterval))
	}

	return errors.Join(errs...)
}

// WorstCaseSensing is the longest a tick can block without any feedback
// pattern: two timed-out echo reads plus the servo settle.
func (c Config) WorstCaseSensing() time.Duration {
	return 2*(TriggerPulseTime+c.Range.EchoTimeout) + c.Scan.Settle
}
