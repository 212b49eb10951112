package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/dwhitmore/meshgate-core/internal/infrastructure/influxdb"
	"github.com/dwhitmore/meshgate-core/internal/mesh"
)

func testRepeaterTelemetry() *mesh.RepeaterTelemetry {
	return &mesh.RepeaterTelemetry{
		ContactName: "Summit Repeater",
		PublicKey:   "10101010101010101010101010101010",
		Status: mesh.DeviceStatus{
			BatteryMillivolts: 3930,
			UptimeSeconds:     261000,
			NoiseFloor:        -97,
			LastRSSI:          -85,
			LastSNR:           7.5,
			SentTotal:         1234,
			RecvTotal:         5678,
		},
	}
}

func TestTelemetry(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{telemetry: testRepeaterTelemetry()})

	rec := env.request(t, http.MethodGet, "/api/telemetry?name=Summit+Repeater", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/telemetry = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var resp telemetryResponse
	decodeBody(t, rec, &resp)
	if resp.Telemetry.ContactName != "Summit Repeater" {
		t.Errorf("contact_name = %q", resp.Telemetry.ContactName)
	}
	if resp.Telemetry.Battery.Millivolts != 3930 {
		t.Errorf("battery mv = %d, want 3930", resp.Telemetry.Battery.Millivolts)
	}
	if resp.Telemetry.Uptime.Days != 3 {
		t.Errorf("uptime days = %d, want 3", resp.Telemetry.Uptime.Days)
	}
	if resp.Telemetry.Radio.LastSNR != 7.5 {
		t.Errorf("last snr = %v, want 7.5", resp.Telemetry.Radio.LastSNR)
	}
}

func TestTelemetryErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		err   error
		want  int
	}{
		{"no selector", "", nil, http.StatusBadRequest},
		{"unknown repeater", "?name=ghost", mesh.ErrContactNotFound, http.StatusNotFound},
		{"device unreachable", "?name=summit", mesh.ErrConnectionFailed, http.StatusBadGateway},
		{"silent repeater", "?public_key=1010", mesh.ErrDeviceTimeout, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, &fakeGateway{telemetryErr: tt.err})

			rec := env.request(t, http.MethodGet, "/api/telemetry"+tt.query, nil)
			if rec.Code != tt.want {
				t.Errorf("GET /api/telemetry%s = %d, want %d", tt.query, rec.Code, tt.want)
			}
		})
	}
}

func TestTelemetryHistory(t *testing.T) {
	store := &fakeHistory{
		result: map[string][]influxdb.HistoryPoint{
			"battery_voltage": {
				{Date: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), Value: 3.93},
				{Date: time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC), Value: 3.91},
			},
			"last_rssi": {},
		},
	}

	env := newTestEnv(t, nil)
	env.srv.history = store

	rec := env.request(t, http.MethodGet,
		"/api/telemetry/history/aabbcc?keys=battery_voltage,last_rssi&from=2026-08-01&to=2026-08-02", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET history = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var resp historyResponse
	decodeBody(t, rec, &resp)
	if resp.RepeaterID != "aabbcc" {
		t.Errorf("repeater_id = %q, want aabbcc", resp.RepeaterID)
	}
	if len(resp.History["battery_voltage"]) != 2 {
		t.Errorf("battery_voltage points = %d, want 2", len(resp.History["battery_voltage"]))
	}
	if points, ok := resp.History["last_rssi"]; !ok || points == nil {
		// Unknown or empty keys still appear as empty series.
		t.Errorf("last_rssi series missing or null: %v", resp.History)
	}

	if store.lastRepeaterID != "aabbcc" {
		t.Errorf("store queried with %q, want aabbcc", store.lastRepeaterID)
	}
	if len(store.lastKeys) != 2 {
		t.Errorf("store queried with keys %v", store.lastKeys)
	}
}

func TestTelemetryHistoryBadRequests(t *testing.T) {
	env := newTestEnv(t, nil)
	env.srv.history = &fakeHistory{result: map[string][]influxdb.HistoryPoint{}}

	tests := []struct {
		name  string
		query string
	}{
		{"missing keys", "?from=2026-08-01"},
		{"blank keys", "?keys=,,&from=2026-08-01"},
		{"missing from", "?keys=battery_voltage"},
		{"bad from", "?keys=battery_voltage&from=yesterday"},
		{"bad to", "?keys=battery_voltage&from=2026-08-01&to=later"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.request(t, http.MethodGet, "/api/telemetry/history/aabbcc"+tt.query, nil)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("GET history%s = %d, want 400", tt.query, rec.Code)
			}
		})
	}
}

func TestTelemetryHistoryDatetimeFormats(t *testing.T) {
	store := &fakeHistory{result: map[string][]influxdb.HistoryPoint{"battery_voltage": {}}}
	env := newTestEnv(t, nil)
	env.srv.history = store

	tests := []struct {
		name  string
		query string
	}{
		{"rfc3339", "?keys=battery_voltage&from=2026-08-01T00:00:00Z&to=2026-08-02T00:00:00Z"},
		{"no zone", "?keys=battery_voltage&from=2026-08-01T00:00:00"},
		{"space separated", "?keys=battery_voltage&from=2026-08-01+00:00:00&to=2026-08-02+00:00:00"},
		{"date only", "?keys=battery_voltage&from=2026-08-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.request(t, http.MethodGet, "/api/telemetry/history/aabbcc"+tt.query, nil)
			if rec.Code != http.StatusOK {
				t.Errorf("GET history%s = %d, want 200; body %s", tt.query, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestTelemetryHistoryInvertedWindow(t *testing.T) {
	store := &fakeHistory{result: map[string][]influxdb.HistoryPoint{"battery_voltage": {}}}
	env := newTestEnv(t, nil)
	env.srv.history = store

	rec := env.request(t, http.MethodGet,
		"/api/telemetry/history/aabbcc?keys=battery_voltage&from=2026-08-02&to=2026-08-01", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET history with inverted window = %d, want 200", rec.Code)
	}

	var resp historyResponse
	decodeBody(t, rec, &resp)
	if len(resp.History["battery_voltage"]) != 0 {
		t.Errorf("inverted window returned points: %v", resp.History)
	}
}

func TestTelemetryHistoryUnavailable(t *testing.T) {
	env := newTestEnv(t, nil) // no history store configured

	rec := env.request(t, http.MethodGet,
		"/api/telemetry/history/aabbcc?keys=battery_voltage&from=2026-08-01", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("GET history without store = %d, want 503", rec.Code)
	}

	env.srv.history = &fakeHistory{err: influxdb.ErrNotConnected}
	rec = env.request(t, http.MethodGet,
		"/api/telemetry/history/aabbcc?keys=battery_voltage&from=2026-08-01", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("GET history with disconnected store = %d, want 503", rec.Code)
	}
}
