//go:build linux

package hw

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"

	"github.com/sweeney/cane-sensor/internal/config"
)

const (
	servoFrequency = 50 * physic.Hertz
	servoPeriodUs  = 20000
	servoMinUs     = 500
	servoMaxUs     = 2400
)

// RealOptions selects the devices RealIO opens.
type RealOptions struct {
	Chip   string // GPIO character device, e.g. "gpiochip0"
	IIODir string // IIO device directory holding in_voltageN_raw
}

// DefaultRealOptions returns the Raspberry Pi defaults.
func DefaultRealOptions() RealOptions {
	return RealOptions{
		Chip:   "gpiochip0",
		IIODir: "/sys/bus/iio/devices/iio:device0",
	}
}

// RealIO drives the cane hardware.
// Trigger, echo and vibrator lines go through the GPIO character device.
// The servo and buzzers use periph PWM. The water sensor is read from IIO.
type RealIO struct {
	chip    *gpiocdev.Chip
	lines   map[int]*gpiocdev.Line
	echoes  map[int]chan gpiocdev.LineEvent
	servo   gpio.PinIO
	buzzers []gpio.PinIO
	iioDir  string
}

// NewRealIO opens every pin in pins.
func NewRealIO(pins config.Pins, opts RealOptions) (*RealIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	chip, err := gpiocdev.NewChip(opts.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealIO{
		chip:   chip,
		lines:  make(map[int]*gpiocdev.Line),
		echoes: make(map[int]chan gpiocdev.LineEvent),
		iioDir: opts.IIODir,
	}

	for _, pin := range []int{pins.TrigHigh, pins.TrigLow, pins.Vibrator} {
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request output pin %d: %w", pin, err)
		}
		r.lines[pin] = line
	}

	for _, pin := range []int{pins.EchoHigh, pins.EchoLow} {
		events := make(chan gpiocdev.LineEvent, 8)
		handler := func(evt gpiocdev.LineEvent) {
			select {
			case events <- evt:
			default:
			}
		}
		line, err := chip.RequestLine(pin,
			gpiocdev.AsInput,
			gpiocdev.WithPullDown,
			gpiocdev.WithBothEdges,
			gpiocdev.WithEventHandler(handler))
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request echo pin %d: %w", pin, err)
		}
		r.lines[pin] = line
		r.echoes[pin] = events
	}

	r.servo = gpioreg.ByName(strconv.Itoa(pins.Servo))
	if r.servo == nil {
		r.Close()
		return nil, fmt.Errorf("servo pin %d not found", pins.Servo)
	}

	for _, pin := range pins.Buzzers {
		p := gpioreg.ByName(strconv.Itoa(pin))
		if p == nil {
			r.Close()
			return nil, fmt.Errorf("buzzer pin %d not found", pin)
		}
		r.buzzers = append(r.buzzers, p)
	}

	return r, nil
}

// TriggerPulse fires a 10µs trigger on pin.
// Pending edges on every echo line are discarded first.
func (r *RealIO) TriggerPulse(pin int) error {
	line, ok := r.lines[pin]
	if !ok {
		return fmt.Errorf("trigger pin %d not requested", pin)
	}

	for _, events := range r.echoes {
		drain(events)
	}

	if err := line.SetValue(0); err != nil {
		return fmt.Errorf("trigger pin %d: %w", pin, err)
	}
	time.Sleep(2 * time.Microsecond)
	if err := line.SetValue(1); err != nil {
		return fmt.Errorf("trigger pin %d: %w", pin, err)
	}
	time.Sleep(10 * time.Microsecond)
	if err := line.SetValue(0); err != nil {
		return fmt.Errorf("trigger pin %d: %w", pin, err)
	}
	return nil
}

// MeasureEcho waits for a rising then falling edge on pin and returns the
// time between them using kernel event timestamps.
func (r *RealIO) MeasureEcho(pin int, timeout time.Duration) (time.Duration, error) {
	events, ok := r.echoes[pin]
	if !ok {
		return 0, fmt.Errorf("echo pin %d not requested", pin)
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	var rise time.Duration
	seenRise := false
	for {
		select {
		case evt := <-events:
			switch evt.Type {
			case gpiocdev.LineEventRisingEdge:
				rise = evt.Timestamp
				seenRise = true
			case gpiocdev.LineEventFallingEdge:
				if seenRise {
					return evt.Timestamp - rise, nil
				}
			}
		case <-deadline.C:
			return 0, ErrEchoTimeout
		}
	}
}

// ReadAnalog reads in_voltage<channel>_raw from the IIO device.
func (r *RealIO) ReadAnalog(channel int) (int, error) {
	path := filepath.Join(r.iioDir, fmt.Sprintf("in_voltage%d_raw", channel))
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read adc channel %d: %w", channel, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse adc channel %d: %w", channel, err)
	}
	return v, nil
}

// SetDigital drives an output line.
func (r *RealIO) SetDigital(pin int, high bool) error {
	line, ok := r.lines[pin]
	if !ok {
		return fmt.Errorf("output pin %d not requested", pin)
	}
	v := 0
	if high {
		v = 1
	}
	if err := line.SetValue(v); err != nil {
		return fmt.Errorf("set pin %d: %w", pin, err)
	}
	return nil
}

// SetServoAngle maps 0..180 degrees onto a 500..2400µs pulse at 50Hz.
func (r *RealIO) SetServoAngle(deg int) error {
	if deg < 0 {
		deg = 0
	}
	if deg > 180 {
		deg = 180
	}
	pulseUs := servoMinUs + deg*(servoMaxUs-servoMinUs)/180
	duty := gpio.Duty(int64(gpio.DutyMax) * int64(pulseUs) / servoPeriodUs)
	if err := r.servo.PWM(duty, servoFrequency); err != nil {
		return fmt.Errorf("servo %d deg: %w", deg, err)
	}
	return nil
}

// StartTone drives a buzzer channel with a 50% square wave.
func (r *RealIO) StartTone(channel, hz int) error {
	p, err := r.buzzer(channel)
	if err != nil {
		return err
	}
	if err := p.PWM(gpio.DutyHalf, physic.Frequency(hz)*physic.Hertz); err != nil {
		return fmt.Errorf("buzzer %d tone %dHz: %w", channel, hz, err)
	}
	return nil
}

// StopTone drives a buzzer channel low.
func (r *RealIO) StopTone(channel int) error {
	p, err := r.buzzer(channel)
	if err != nil {
		return err
	}
	if err := p.Out(gpio.Low); err != nil {
		return fmt.Errorf("buzzer %d off: %w", channel, err)
	}
	return nil
}

func (r *RealIO) buzzer(channel int) (gpio.PinIO, error) {
	if channel < 0 || channel >= len(r.buzzers) {
		return nil, fmt.Errorf("buzzer channel %d not configured", channel)
	}
	return r.buzzers[channel], nil
}

// Now returns wall time carrying the monotonic reading.
func (r *RealIO) Now() time.Time {
	return time.Now()
}

// Sleep blocks for d.
func (r *RealIO) Sleep(d time.Duration) {
	time.Sleep(d)
}

// Close silences every actuator, detaches the servo and releases lines.
// Lines are reconfigured to input with pull-down, matching Pi boot defaults.
func (r *RealIO) Close() error {
	var errs []error

	for i, p := range r.buzzers {
		if err := p.Out(gpio.Low); err != nil {
			errs = append(errs, fmt.Errorf("buzzer %d off: %w", i, err))
		}
	}
	if r.servo != nil {
		if err := r.servo.Out(gpio.Low); err != nil {
			errs = append(errs, fmt.Errorf("detach servo: %w", err))
		}
	}

	for pin, line := range r.lines {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", pin, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
	}
	r.lines = nil

	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		r.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func drain(events chan gpiocdev.LineEvent) {
	for {
		select {
		case <-events:
		default:
			return
		}
	}
}
