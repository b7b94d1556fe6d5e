package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/cane-sensor/internal/mqtt"
	"github.com/sweeney/cane-sensor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"distance": func(cm int) string {
		if cm < 0 {
			return "-"
		}
		return fmt.Sprintf("%dcm", cm)
	},
	"levelOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Cane Sensor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.DRY { color: green; }
.HUMID { color: orange; }
.FLOOD { color: red; font-weight: bold; }
.UNKNOWN { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Cane Sensor{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Obstacles</h2>
<table>
<tr><th>Upper (forward)</th><td id="upper">{{distance .Cane.Obstacle.UpperDistanceCm}}</td></tr>
<tr><th>Lower (ground)</th><td id="lower">{{distance .Cane.Obstacle.LowerDistanceCm}}</td></tr>
<tr><th>Servo</th><td id="angle">{{.Cane.Obstacle.ServoAngleDeg}}&deg;</td></tr>
<tr><th>Last hazard</th><td id="last">{{if .Cane.HasObstacle}}{{with .Cane.LastObstacle}}{{.Source}} {{.Zone}} {{.DistanceCm}}cm at {{.AngleDeg}}&deg;{{end}}{{else}}none{{end}}</td></tr>
<tr><th>Ready</th><td>{{if .Cane.Ready}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Water</h2>
<table>
<tr><th>Level</th><td id="water-level" class="{{levelOrUnknown (printf "%s" .Cane.Water.Level)}}">{{levelOrUnknown (printf "%s" .Cane.Water.Level)}}</td></tr>
<tr><th>Humidity</th><td id="humidity">{{.Cane.Water.HumidityPercent}}%</td></tr>
<tr><th>Raw ADC</th><td id="raw">{{.Cane.Water.RawADC}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Alerts</h2>
<table>
<tr><th>High</th><td>{{.Cane.Alerts.High}}</td></tr>
<tr><th>Low</th><td>{{.Cane.Alerts.Low}}</td></tr>
<tr><th>Water</th><td>{{.Cane.Alerts.Water}}</td></tr>
</table>

<h2>Dropped Samples</h2>
<table>
<tr><th></th><th>Upper</th><th>Lower</th></tr>
<tr><td>Timeouts</td><td>{{.Cane.UpperDrops.Timeouts}}</td><td>{{.Cane.LowerDrops.Timeouts}}</td></tr>
<tr><td>Out of range</td><td>{{.Cane.UpperDrops.OutOfRange}}</td><td>{{.Cane.LowerDrops.OutOfRange}}</td></tr>
<tr><td>Outliers</td><td>{{.Cane.UpperDrops.Outliers}}</td><td>{{.Cane.LowerDrops.Outliers}}</td></tr>
<tr><td>Warming up</td><td>{{.Cane.UpperDrops.WarmingUp}}</td><td>{{.Cane.LowerDrops.WarmingUp}}</td></tr>
<tr><td>Hardware</td><td>{{.Cane.UpperDrops.HWErrors}}</td><td>{{.Cane.LowerDrops.HWErrors}}</td></tr>
<tr><td>Water reads</td><td colspan="2">{{.Cane.WaterErrors}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Telemetry</th><td>{{if eq .Config.TelemetryMs 0}}disabled{{else}}{{.Config.TelemetryMs}}ms{{end}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Safety distances</th><td>high {{.Config.HighSafetyCm}}cm, low {{.Config.LowSafetyCm}}cm</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
{{if .Config.SessionID}}<tr><th>Session</th><td>{{.Config.SessionID}}</td></tr>{{end}}
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
{{if .Config.WSBroker}}
<script src="/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var alertsTopic = "{{.AlertsTopic}}";
  var telemetryTopic = "{{.TelemetryTopic}}";
  var dot = document.getElementById("live-dot");

  function setText(id, text) {
    document.getElementById(id).textContent = text;
  }

  function cm(v) {
    return v < 0 ? "-" : v + "cm";
  }

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  var client = mqtt.connect(broker, { reconnectPeriod: 5000 });

  client.on("connect", function() {
    setDot("ok", "live");
    client.subscribe([alertsTopic, telemetryTopic]);
  });

  client.on("reconnect", function() {
    setDot("pending", "reconnecting");
  });

  client.on("offline", function() {
    setDot("err", "offline");
  });

  client.on("error", function() {
    setDot("err", "error");
  });

  client.on("message", function(t, payload) {
    try {
      var msg = JSON.parse(payload.toString());
      if (t === telemetryTopic && msg.telemetry) {
        var tm = msg.telemetry;
        setText("upper", cm(tm.upper_distance_cm));
        setText("lower", cm(tm.lower_distance_cm));
        setText("angle", tm.servo_angle_deg + "°");
        setText("humidity", tm.humidity_percent + "%");
        setText("raw", tm.raw_adc);
        var lvl = document.getElementById("water-level");
        lvl.textContent = tm.water_level;
        lvl.className = tm.water_level;
      }
      if (t === alertsTopic && msg.alert && msg.alert.obstacle) {
        var o = msg.alert.obstacle;
        setText("last", msg.alert.source + " " + o.zone + " " + o.distance_cm + "cm at " + o.angle_deg + "°");
      }
    } catch (e) {}
  });
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	data := struct {
		status.Snapshot
		Uptime         time.Duration
		AlertsTopic    string
		TelemetryTopic string
	}{
		Snapshot:       snap,
		Uptime:         snap.Uptime(),
		AlertsTopic:    mqtt.TopicAlerts,
		TelemetryTopic: mqtt.TopicTelemetry,
	}
	return indexTmpl.Execute(w, data)
}
