package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sweeney/cane-sensor/internal/cane"
	"github.com/sweeney/cane-sensor/internal/logic"
	"github.com/sweeney/cane-sensor/internal/status"
)

func newTestServer(t *testing.T, wsBroker string) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		TickMs:       200,
		TelemetryMs:  1000,
		HeartbeatMs:  900000,
		HighSafetyCm: 100,
		LowSafetyCm:  80,
		Broker:       "tcp://192.168.1.200:1883",
		HTTPAddr:     ":80",
		WSBroker:     wsBroker,
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr
}

func readyCane() cane.Snapshot {
	return cane.Snapshot{
		Ready:    true,
		Obstacle: logic.ObstacleSnapshot{UpperDistanceCm: 150, LowerDistanceCm: 42, ServoAngleDeg: 30},
		Water:    logic.WaterSnapshot{HumidityPercent: 97, RawADC: 4000, Level: logic.LevelFlood},
		LastObstacle: logic.ObstacleEvent{
			DistanceCm: 42,
			AngleDeg:   30,
			Source:     logic.SourceLow,
			Zone:       logic.ZoneLeft,
			Time:       time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC),
		},
		HasObstacle: true,
		Alerts:      logic.AlertCounts{High: 1, Low: 5, Water: 2},
		UpperDrops:  logic.DropCounts{Timeouts: 3},
	}
}

func getJSON(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func getBody(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(b)
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t, "")
	tr.Export(readyCane())
	tr.SetMQTTConnected(true)

	sj := getJSON(t, ts.URL+"/index.json")

	if !sj.Status.Ready {
		t.Error("expected Ready=true")
	}
	wantObstacle := status.ObstacleJSON{UpperDistanceCm: 150, LowerDistanceCm: 42, ServoAngleDeg: 30}
	if diff := cmp.Diff(wantObstacle, sj.Status.Obstacle); diff != "" {
		t.Errorf("obstacle mismatch (-want +got):\n%s", diff)
	}
	wantWater := status.WaterJSON{HumidityPercent: 97, RawADC: 4000, Level: "FLOOD"}
	if diff := cmp.Diff(wantWater, sj.Status.Water); diff != "" {
		t.Errorf("water mismatch (-want +got):\n%s", diff)
	}
	if sj.Status.LastObstacle == nil || sj.Status.LastObstacle.Zone != "LEFT" {
		t.Errorf("LastObstacle: got %+v, want LEFT", sj.Status.LastObstacle)
	}
	if diff := cmp.Diff(status.AlertCountsJSON{High: 1, Low: 5, Water: 2}, sj.Status.Alerts); diff != "" {
		t.Errorf("alert counts mismatch (-want +got):\n%s", diff)
	}
	if sj.Status.Drops.Upper.Timeouts != 3 {
		t.Errorf("Drops.Upper.Timeouts: got %d, want 3", sj.Status.Drops.Upper.Timeouts)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q", sj.Status.MQTT.Broker)
	}
	if sj.Status.Config.TickMs != 200 {
		t.Errorf("Config.TickMs: got %d, want 200", sj.Status.Config.TickMs)
	}
	if sj.Status.Event != "" {
		t.Errorf("web JSON should carry no event, got %q", sj.Status.Event)
	}
}

func TestJSONBeforeFirstTick(t *testing.T) {
	ts, _ := newTestServer(t, "")

	sj := getJSON(t, ts.URL+"/index.json")

	if sj.Status.Ready {
		t.Error("expected Ready=false before startup")
	}
	if sj.Status.Water.Level != "UNKNOWN" {
		t.Errorf("Water.Level: got %q, want UNKNOWN", sj.Status.Water.Level)
	}
	if sj.Status.LastObstacle != nil {
		t.Errorf("expected no last obstacle, got %+v", sj.Status.LastObstacle)
	}
}

func TestJSONNetworkInfo(t *testing.T) {
	ts, tr := newTestServer(t, "")
	tr.SetNetwork(&status.NetworkInfo{
		Type:   "wifi",
		IP:     "192.168.1.42",
		Status: "connected",
		SSID:   "MyNet",
	})

	sj := getJSON(t, ts.URL+"/index.json")

	if sj.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if sj.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", sj.Status.Network.IP)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t, "")
	tr.Export(readyCane())

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
	b, _ := io.ReadAll(resp.Body)
	body := string(b)
	for _, want := range []string{"150cm", "42cm", "FLOOD", "LOW LEFT 42cm"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(body, "mqtt.connect") {
		t.Error("live script rendered without a websocket broker")
	}
}

func TestHTMLShowsDashForMissingReading(t *testing.T) {
	ts, _ := newTestServer(t, "")

	_, body := getBody(t, ts.URL+"/index.html")

	if !strings.Contains(body, `<td id="upper">-</td>`) {
		t.Error("expected dash for upper distance before first reading")
	}
	if !strings.Contains(body, "UNKNOWN") {
		t.Error("expected UNKNOWN water level before first reading")
	}
}

func TestHTMLLiveScriptRenderedWithBroker(t *testing.T) {
	ts, _ := newTestServer(t, "ws://192.168.1.200:9001")

	_, body := getBody(t, ts.URL+"/")

	for _, want := range []string{"mqtt.connect", "192.168.1.200:9001", "alertsTopic", "telemetryTopic"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t, "")

	code, _ := getBody(t, ts.URL+"/nonexistent")
	if code != 404 {
		t.Errorf("status: got %d, want 404", code)
	}
}

func TestHealthz(t *testing.T) {
	ts, tr := newTestServer(t, "")

	code, _ := getBody(t, ts.URL+"/healthz")
	if code != http.StatusServiceUnavailable {
		t.Errorf("before ready: got %d, want 503", code)
	}

	tr.Export(readyCane())
	code, body := getBody(t, ts.URL+"/healthz")
	if code != 200 || body != "ok\n" {
		t.Errorf("after ready: got %d %q, want 200 ok", code, body)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t, "")

	sj1 := getJSON(t, ts.URL+"/index.json")
	if sj1.Status.Ready {
		t.Error("expected Ready=false initially")
	}

	tr.Export(readyCane())
	tr.SetMQTTConnected(true)

	sj2 := getJSON(t, ts.URL+"/index.json")
	if !sj2.Status.Ready {
		t.Error("expected Ready=true after export")
	}
	if sj2.Status.Obstacle.LowerDistanceCm != 42 {
		t.Errorf("LowerDistanceCm: got %d, want 42", sj2.Status.Obstacle.LowerDistanceCm)
	}
	if !sj2.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, tr := newTestServer(t, "")
	tr.Export(readyCane())

	code, body := getBody(t, ts.URL+"/metrics")
	if code != 200 {
		t.Fatalf("status: got %d, want 200", code)
	}
	for _, want := range []string{
		"cane_ready 1",
		`cane_alerts_total{source="low"} 5`,
		`cane_distance_cm{sensor="lower"} 42`,
		`cane_dropped_samples_total{reason="timeout",sensor="upper"} 3`,
		`cane_water_level{level="FLOOD"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}
