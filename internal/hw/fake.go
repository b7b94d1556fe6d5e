package hw

import (
	"errors"
	"fmt"
	"time"
)

// Echo is one scripted MeasureEcho result.
type Echo struct {
	Duration time.Duration
	Err      error
}

// EchoCm returns a scripted echo that converts to cm centimetres.
func EchoCm(cm int) Echo {
	return Echo{Duration: EchoForCentimeters(cm)}
}

// EchoTimeout returns a scripted echo that times out.
func EchoTimeout() Echo {
	return Echo{Err: ErrEchoTimeout}
}

// EchoForCentimeters is the echo pulse length that reads back as cm.
// It aims for the middle of the centimetre so truncation is stable.
func EchoForCentimeters(cm int) time.Duration {
	us := (float64(cm) + 0.5) / 0.017
	return time.Duration(us) * time.Microsecond
}

// Call is one recorded actuator operation.
type Call struct {
	Op    string // "trigger", "digital", "servo", "tone", "notone"
	Pin   int    // pin or buzzer channel; unused for servo
	Value int    // level (0/1), angle, or frequency
	At    time.Time
}

func (c Call) String() string {
	return fmt.Sprintf("%s(%d,%d)@%s", c.Op, c.Pin, c.Value, c.At.Format("15:04:05.000"))
}

// FakeIO is a test double with scripted sensor inputs, a fake clock and a
// record of every actuator call.
type FakeIO struct {
	// Echoes holds scripted echo results per echo pin.
	// Each MeasureEcho consumes the next entry; the last one repeats.
	Echoes map[int][]Echo

	// Analog holds scripted ADC values per channel, consumed like Echoes.
	Analog map[int][]int

	// Clock is the current fake time. Sleep advances it.
	Clock time.Time

	// FreezeClock stops Sleep and MeasureEcho from advancing Clock.
	FreezeClock bool

	// Calls records actuator operations in order.
	Calls []Call

	// Digital holds the last level written per pin.
	Digital map[int]bool

	// Tones holds the active frequency per buzzer channel (absent = silent).
	Tones map[int]int

	// Servo is the last commanded angle, -1 before any command.
	Servo int

	// Slept is the total time passed to Sleep.
	Slept time.Duration

	// AnalogError, if set, will be returned by ReadAnalog.
	AnalogError error

	// ActuatorError, if set, will be returned by actuator operations.
	ActuatorError error

	// Closed tracks if Close was called.
	Closed bool

	echoIdx   map[int]int
	analogIdx map[int]int
}

// NewFakeIO creates a FakeIO whose clock starts at start.
func NewFakeIO(start time.Time) *FakeIO {
	return &FakeIO{
		Echoes:    make(map[int][]Echo),
		Analog:    make(map[int][]int),
		Clock:     start,
		Digital:   make(map[int]bool),
		Tones:     make(map[int]int),
		Servo:     -1,
		echoIdx:   make(map[int]int),
		analogIdx: make(map[int]int),
	}
}

func (f *FakeIO) record(op string, pin, value int) {
	f.Calls = append(f.Calls, Call{Op: op, Pin: pin, Value: value, At: f.Clock})
}

func (f *FakeIO) advance(d time.Duration) {
	if !f.FreezeClock {
		f.Clock = f.Clock.Add(d)
	}
}

// TriggerPulse records the trigger.
func (f *FakeIO) TriggerPulse(pin int) error {
	if f.ActuatorError != nil {
		return f.ActuatorError
	}
	f.record("trigger", pin, 1)
	f.advance(12 * time.Microsecond)
	return nil
}

// MeasureEcho returns the next scripted echo for pin. The clock advances by
// the echo length, or by the full timeout when the echo times out.
func (f *FakeIO) MeasureEcho(pin int, timeout time.Duration) (time.Duration, error) {
	script := f.Echoes[pin]
	if len(script) == 0 {
		f.advance(timeout)
		return 0, ErrEchoTimeout
	}

	i := f.echoIdx[pin]
	e := script[i]
	if i < len(script)-1 {
		f.echoIdx[pin] = i + 1
	}

	if e.Err != nil {
		if errors.Is(e.Err, ErrEchoTimeout) {
			f.advance(timeout)
		}
		return 0, e.Err
	}
	if e.Duration > timeout {
		f.advance(timeout)
		return 0, ErrEchoTimeout
	}
	f.advance(e.Duration)
	return e.Duration, nil
}

// ReadAnalog returns the next scripted ADC value for channel.
func (f *FakeIO) ReadAnalog(channel int) (int, error) {
	if f.AnalogError != nil {
		return 0, f.AnalogError
	}
	script := f.Analog[channel]
	if len(script) == 0 {
		return 0, errors.New("no analog samples configured")
	}

	i := f.analogIdx[channel]
	v := script[i]
	if i < len(script)-1 {
		f.analogIdx[channel] = i + 1
	}
	return v, nil
}

// SetDigital records the level of pin.
func (f *FakeIO) SetDigital(pin int, high bool) error {
	if f.ActuatorError != nil {
		return f.ActuatorError
	}
	v := 0
	if high {
		v = 1
	}
	f.Digital[pin] = high
	f.record("digital", pin, v)
	return nil
}

// SetServoAngle records the commanded angle.
func (f *FakeIO) SetServoAngle(deg int) error {
	if f.ActuatorError != nil {
		return f.ActuatorError
	}
	f.Servo = deg
	f.record("servo", 0, deg)
	return nil
}

// StartTone records an active tone on channel.
func (f *FakeIO) StartTone(channel, hz int) error {
	if f.ActuatorError != nil {
		return f.ActuatorError
	}
	f.Tones[channel] = hz
	f.record("tone", channel, hz)
	return nil
}

// StopTone records a silenced channel.
func (f *FakeIO) StopTone(channel int) error {
	if f.ActuatorError != nil {
		return f.ActuatorError
	}
	delete(f.Tones, channel)
	f.record("notone", channel, 0)
	return nil
}

// Now returns the fake clock.
func (f *FakeIO) Now() time.Time {
	return f.Clock
}

// Sleep advances the fake clock by d.
func (f *FakeIO) Sleep(d time.Duration) {
	f.Slept += d
	f.advance(d)
}

// Close marks the IO as closed.
func (f *FakeIO) Close() error {
	f.Closed = true
	return nil
}

// CallsOf returns the recorded calls with the given op.
func (f *FakeIO) CallsOf(op string) []Call {
	var out []Call
	for _, c := range f.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls clears the call record but keeps scripts and clock.
func (f *FakeIO) ResetCalls() {
	f.Calls = nil
	f.Slept = 0
}
