package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// telemetryMeasurement is the measurement all repeater snapshots land in.
const telemetryMeasurement = "repeater_telemetry"

// WriteRepeaterMetrics records one telemetry snapshot for a repeater.
//
// Each metric becomes a field on a single point so the history API can
// select arbitrary subsets by field key. The write is non-blocking;
// data is batched and sent asynchronously.
func (c *Client) WriteRepeaterMetrics(repeaterID, contactName string, metrics map[string]float64) {
	if len(metrics) == 0 {
		return
	}

	fields := make(map[string]interface{}, len(metrics))
	for k, v := range metrics {
		fields[k] = v
	}

	c.WritePoint(telemetryMeasurement, map[string]string{
		"repeater_id":  repeaterID,
		"contact_name": contactName,
	}, fields)
}

// WritePoint writes a custom point with full control over tags and fields.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
