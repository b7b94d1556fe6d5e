package status

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/cane-sensor/internal/logic"
)

var (
	descReady = prometheus.NewDesc("cane_ready",
		"1 once the sensing core has started.", nil, nil)
	descUptime = prometheus.NewDesc("cane_uptime_seconds",
		"Seconds since the daemon started.", nil, nil)
	descDistance = prometheus.NewDesc("cane_distance_cm",
		"Latest accepted distance per ultrasonic sensor, -1 before the first reading.", []string{"sensor"}, nil)
	descServo = prometheus.NewDesc("cane_servo_angle_degrees",
		"Current ground sensor servo angle.", nil, nil)
	descWaterRaw = prometheus.NewDesc("cane_water_raw",
		"Latest raw ADC value of the moisture probe.", nil, nil)
	descWaterLevel = prometheus.NewDesc("cane_water_level",
		"1 for the current moisture band.", []string{"level"}, nil)
	descAlerts = prometheus.NewDesc("cane_alerts_total",
		"Alerts fired since startup.", []string{"source"}, nil)
	descDrops = prometheus.NewDesc("cane_dropped_samples_total",
		"Ultrasonic samples discarded since startup.", []string{"sensor", "reason"}, nil)
	descWaterErrors = prometheus.NewDesc("cane_water_read_errors_total",
		"Failed moisture probe reads since startup.", nil, nil)
	descMQTT = prometheus.NewDesc("cane_mqtt_connected",
		"1 while the MQTT broker connection is up.", nil, nil)
)

// Collector exposes the tracker's latest snapshot as Prometheus metrics.
// Values are read at scrape time, so nothing has to be updated on the
// control loop.
type Collector struct {
	tracker *Tracker
}

// NewCollector creates a collector over tracker.
func NewCollector(tracker *Tracker) *Collector {
	return &Collector{tracker: tracker}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		descReady, descUptime, descDistance, descServo, descWaterRaw,
		descWaterLevel, descAlerts, descDrops, descWaterErrors, descMQTT,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.tracker.Snapshot()
	s := snap.Cane

	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	counter := func(d *prometheus.Desc, v int, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}

	gauge(descReady, boolFloat(s.Ready))
	gauge(descUptime, snap.Uptime().Seconds())
	gauge(descDistance, float64(s.Obstacle.UpperDistanceCm), "upper")
	gauge(descDistance, float64(s.Obstacle.LowerDistanceCm), "lower")
	gauge(descServo, float64(s.Obstacle.ServoAngleDeg))
	gauge(descWaterRaw, float64(s.Water.RawADC))
	for _, l := range []logic.Level{logic.LevelDry, logic.LevelHumid, logic.LevelFlood} {
		gauge(descWaterLevel, boolFloat(s.Water.Level == l), string(l))
	}
	gauge(descMQTT, boolFloat(snap.MQTTConnected))

	counter(descAlerts, s.Alerts.High, "high")
	counter(descAlerts, s.Alerts.Low, "low")
	counter(descAlerts, s.Alerts.Water, "water")
	collectDrops(counter, "upper", s.UpperDrops)
	collectDrops(counter, "lower", s.LowerDrops)
	counter(descWaterErrors, s.WaterErrors)
}

func collectDrops(counter func(*prometheus.Desc, int, ...string), sensor string, d logic.DropCounts) {
	counter(descDrops, d.Timeouts, sensor, "timeout")
	counter(descDrops, d.OutOfRange, sensor, "out_of_range")
	counter(descDrops, d.Outliers, sensor, "outlier")
	counter(descDrops, d.WarmingUp, sensor, "warming_up")
	counter(descDrops, d.HWErrors, sensor, "hw_error")
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var _ prometheus.Collector = (*Collector)(nil)
