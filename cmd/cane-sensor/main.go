// Command cane-sensor runs the smart-cane hazard sensing loop and publishes
// alerts, telemetry and lifecycle events to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/cane-sensor/internal/cane"
	"github.com/sweeney/cane-sensor/internal/config"
	"github.com/sweeney/cane-sensor/internal/hw"
	"github.com/sweeney/cane-sensor/internal/logic"
	"github.com/sweeney/cane-sensor/internal/mqtt"
	"github.com/sweeney/cane-sensor/internal/status"
	"github.com/sweeney/cane-sensor/internal/web"
)

// options holds everything main reads from the command line.
type options struct {
	cfg        config.Config
	hwOpts     hw.RealOptions
	tick       time.Duration
	telemetry  time.Duration
	heartbeat  time.Duration
	broker     string
	clientID   string
	httpAddr   string
	wsBroker   string
	printState bool
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// parseFlags overlays the command line on config.Default and validates the
// result.
func parseFlags(args []string) (options, error) {
	def := config.Default()
	opts := options{cfg: def, hwOpts: hw.DefaultRealOptions()}

	fs := flag.NewFlagSet("cane-sensor", flag.ContinueOnError)
	fs.DurationVar(&opts.tick, "tick", 200*time.Millisecond, "Control loop interval (at least the worst-case sensing time)")
	fs.DurationVar(&opts.telemetry, "telemetry", 500*time.Millisecond, "Telemetry interval (0 to disable)")
	fs.DurationVar(&opts.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	fs.StringVar(&opts.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	fs.StringVar(&opts.clientID, "client-id", "cane-sensor", "MQTT client ID")
	fs.StringVar(&opts.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	ws := fs.String("ws-broker", "=broker", `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)
	fs.BoolVar(&opts.printState, "print-state", false, "Print one reading per sensor and exit")

	fs.IntVar(&opts.cfg.Pins.TrigHigh, "pin-trig-high", def.Pins.TrigHigh, "BCM pin for the forward sensor trigger")
	fs.IntVar(&opts.cfg.Pins.EchoHigh, "pin-echo-high", def.Pins.EchoHigh, "BCM pin for the forward sensor echo")
	fs.IntVar(&opts.cfg.Pins.TrigLow, "pin-trig-low", def.Pins.TrigLow, "BCM pin for the ground sensor trigger")
	fs.IntVar(&opts.cfg.Pins.EchoLow, "pin-echo-low", def.Pins.EchoLow, "BCM pin for the ground sensor echo")
	fs.IntVar(&opts.cfg.Pins.Servo, "pin-servo", def.Pins.Servo, "BCM pin for the servo PWM")
	fs.IntVar(&opts.cfg.Pins.Vibrator, "pin-vibrator", def.Pins.Vibrator, "BCM pin for the vibration motor")
	fs.IntVar(&opts.cfg.Pins.Water, "water-channel", def.Pins.Water, "IIO ADC channel of the moisture probe")
	buzzers := fs.String("pin-buzzers", joinInts(def.Pins.Buzzers), "Comma-separated BCM pins of the buzzers")
	fs.StringVar(&opts.hwOpts.Chip, "gpio-chip", opts.hwOpts.Chip, "GPIO character device")
	fs.StringVar(&opts.hwOpts.IIODir, "iio-dir", opts.hwOpts.IIODir, "IIO device directory of the ADC")

	fs.IntVar(&opts.cfg.Safety.HighCm, "high-cm", def.Safety.HighCm, "Forward hazard distance in cm")
	fs.IntVar(&opts.cfg.Safety.LowCm, "low-cm", def.Safety.LowCm, "Ground hazard distance in cm")
	fs.IntVar(&opts.cfg.Water.LowThreshold, "water-low", def.Water.LowThreshold, "Raw ADC value below which the probe is dry")
	fs.IntVar(&opts.cfg.Water.HighThreshold, "water-high", def.Water.HighThreshold, "Raw ADC value at which the probe is flooded")
	fs.BoolVar(&opts.cfg.Vibration.Enabled, "vibration", def.Vibration.Enabled, "Drive the vibration motor with alerts")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	pins, err := parseInts(*buzzers)
	if err != nil {
		return options{}, fmt.Errorf("pin-buzzers: %w", err)
	}
	opts.cfg.Pins.Buzzers = pins
	opts.wsBroker = resolveWSBroker(*ws, opts.broker)

	if err := opts.cfg.Validate(); err != nil {
		return options{}, fmt.Errorf("invalid config: %w", err)
	}
	if floor := opts.cfg.WorstCaseSensing(); opts.tick < floor {
		return options{}, fmt.Errorf("tick %v is shorter than the worst-case sensing time %v", opts.tick, floor)
	}
	return opts, nil
}

func run(opts options) error {
	// Initialize hardware
	rio, err := hw.NewRealIO(opts.cfg.Pins, opts.hwOpts)
	if err != nil {
		return fmt.Errorf("init hardware: %w", err)
	}
	defer rio.Close()

	if opts.printState {
		return printReadings(os.Stdout, rio, opts.cfg)
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:       opts.tick.Milliseconds(),
		TelemetryMs:  opts.telemetry.Milliseconds(),
		HeartbeatMs:  opts.heartbeat.Milliseconds(),
		HighSafetyCm: opts.cfg.Safety.HighCm,
		LowSafetyCm:  opts.cfg.Safety.LowCm,
		Broker:       opts.broker,
		HTTPAddr:     opts.httpAddr,
		WSBroker:     opts.wsBroker,
		SessionID:    uuid.NewString(),
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	core, err := cane.New(opts.cfg, rio, tracker)
	if err != nil {
		return err
	}
	if err := core.Init(); err != nil {
		return fmt.Errorf("init core: %w", err)
	}

	// Initialize MQTT
	publisher := mqtt.NewRealPublisher(opts.broker, opts.clientID)
	defer publisher.Close()

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", opts.httpAddr)
	}

	log.Printf("started: session=%s tick=%v telemetry=%v broker=%s heartbeat=%v high=%dcm low=%dcm",
		snap.Config.SessionID, opts.tick, opts.telemetry, opts.broker, opts.heartbeat, opts.cfg.Safety.HighCm, opts.cfg.Safety.LowCm)
	log.Printf("worst-case sensing %v, %v with alert playback", opts.cfg.WorstCaseSensing(), logic.WorstCaseTick(opts.cfg))

	ticker := time.NewTicker(opts.tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(core, publisher, publisher, tracker, opts.telemetry, opts.heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(core *cane.Core, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, telemetry, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	hb := logic.NewHeartbeat(startTime)
	lastTelemetry := startTime

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}

			if err := core.Stop(); err != nil {
				log.Printf("stop: %v", err)
			}

			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			for _, alert := range core.Tick() {
				if err := publisher.PublishAlert(alert); err != nil {
					log.Printf("publish error: %v", err)
				}
			}

			t := now()
			if mqttStatus != nil && tracker != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

			if telemetry > 0 && t.Sub(lastTelemetry) >= telemetry {
				lastTelemetry = t
				err := publisher.PublishTelemetry(mqtt.Telemetry{
					Timestamp: t,
					Obstacle:  core.ObstacleSnapshot(),
					Water:     core.WaterSnapshot(),
				})
				if err != nil {
					log.Printf("telemetry publish error: %v", err)
				}
			}

			if !core.Ready() {
				continue
			}

			// Check for heartbeat
			if hbData := hb.Check(t, heartbeat, core.AlertCounts()); hbData != nil {
				log.Printf("heartbeat: uptime=%v high=%d low=%d water=%d",
					hbData.Uptime, hbData.Counts.High, hbData.Counts.Low, hbData.Counts.Water)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

// printReadings takes one unfiltered sample from each sensor.
func printReadings(w io.Writer, dev hw.IO, cfg config.Config) error {
	read := func(trig, echo int) string {
		if err := dev.TriggerPulse(trig); err != nil {
			return err.Error()
		}
		d, err := dev.MeasureEcho(echo, cfg.Range.EchoTimeout)
		if err != nil {
			return err.Error()
		}
		return fmt.Sprintf("%dcm", logic.EchoToCentimeters(d))
	}

	upper := read(cfg.Pins.TrigHigh, cfg.Pins.EchoHigh)
	lower := read(cfg.Pins.TrigLow, cfg.Pins.EchoLow)

	raw, err := dev.ReadAnalog(cfg.Pins.Water)
	if err != nil {
		return fmt.Errorf("read water: %w", err)
	}
	level := logic.ClassifyWater(raw, cfg.Water.LowThreshold, cfg.Water.HighThreshold)

	fmt.Fprintf(w, "upper: %s, lower: %s, water: %d (%d%%, %s)\n",
		upper, lower, raw, logic.HumidityPercent(raw, cfg.Water.ADCMax), level)
	return nil
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// resolveWSBroker converts the --ws-broker flag value into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; "off" disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Printf("ws-broker: cannot parse --broker %q: %v", broker, err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
