package influxdb_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dwhitmore/meshgate-core/internal/infrastructure/config"
	"github.com/dwhitmore/meshgate-core/internal/infrastructure/influxdb"
)

// testConfig returns a configuration for the local dev InfluxDB.
// These values match docker-compose.yml.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "meshgate-dev-token",
		Org:           "meshgate",
		Bucket:        "telemetry",
		BatchSize:     100,
		FlushInterval: 1, // 1 second for faster test feedback
	}
}

// skipIfNoInfluxDB skips the test if InfluxDB is not running.
func skipIfNoInfluxDB(t *testing.T) *influxdb.Client {
	t.Helper()
	client, err := influxdb.Connect(testConfig())
	if err != nil {
		t.Skip("InfluxDB not available, skipping integration test")
	}
	return client
}

func TestConnectDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnectAndHealthCheck(t *testing.T) {
	client := skipIfNoInfluxDB(t)
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after successful Connect")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestWriteAndQueryRepeaterMetrics(t *testing.T) {
	client := skipIfNoInfluxDB(t)
	defer client.Close()

	repeaterID := "test-repeater-history"
	client.WriteRepeaterMetrics(repeaterID, "Repeater-Alpha", map[string]float64{
		"battery_voltage":    3.85,
		"battery_percentage": 72.0,
	})
	client.Flush()

	series, err := client.QueryHistory(
		context.Background(),
		repeaterID,
		[]string{"battery_voltage", "battery_percentage", "missing_metric"},
		time.Now().Add(-time.Hour),
		time.Time{},
	)
	if err != nil {
		t.Fatalf("QueryHistory() error = %v", err)
	}

	if len(series["battery_voltage"]) == 0 {
		t.Error("battery_voltage series is empty")
	}
	if got, ok := series["missing_metric"]; !ok || len(got) != 0 {
		t.Errorf("missing metric key should map to an empty series, got %v", got)
	}
}

func TestQueryHistoryRejectsBadIdentifiers(t *testing.T) {
	client := skipIfNoInfluxDB(t)
	defer client.Close()

	_, err := client.QueryHistory(context.Background(), `x") |> yield()`, []string{"battery_voltage"}, time.Now().Add(-time.Hour), time.Time{})
	if !errors.Is(err, influxdb.ErrQueryFailed) {
		t.Errorf("bad repeater id: error = %v, want ErrQueryFailed", err)
	}

	_, err = client.QueryHistory(context.Background(), "repeater-1", []string{`bad"key`}, time.Now().Add(-time.Hour), time.Time{})
	if !errors.Is(err, influxdb.ErrQueryFailed) {
		t.Errorf("bad metric key: error = %v, want ErrQueryFailed", err)
	}
}

func TestCloseStopsWrites(t *testing.T) {
	client := skipIfNoInfluxDB(t)

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
	// Writes and flushes after Close must be safe no-ops.
	client.WriteRepeaterMetrics("r", "n", map[string]float64{"v": 1})
	client.Flush()
}
