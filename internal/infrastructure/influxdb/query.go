package influxdb

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// HistoryPoint is one sampled value in a telemetry series.
type HistoryPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// identPattern limits tag values and field keys that get interpolated
// into Flux source.
var identPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// QueryHistory returns the recorded series for each requested metric key
// of one repeater, grouped by key. Keys with no samples map to empty
// slices so callers can tell "no data" from "not asked".
func (c *Client) QueryHistory(ctx context.Context, repeaterID string, keys []string, from, to time.Time) (map[string][]HistoryPoint, error) {
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}
	if !identPattern.MatchString(repeaterID) {
		return nil, fmt.Errorf("%w: invalid repeater id %q", ErrQueryFailed, repeaterID)
	}

	fieldFilters := make([]string, 0, len(keys))
	out := make(map[string][]HistoryPoint, len(keys))
	for _, key := range keys {
		if !identPattern.MatchString(key) {
			return nil, fmt.Errorf("%w: invalid metric key %q", ErrQueryFailed, key)
		}
		out[key] = []HistoryPoint{}
		fieldFilters = append(fieldFilters, fmt.Sprintf(`r._field == %q`, key))
	}
	if len(fieldFilters) == 0 {
		return out, nil
	}

	stop := "now()"
	if !to.IsZero() {
		stop = to.UTC().Format(time.RFC3339)
	}

	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == %q)
  |> filter(fn: (r) => r.repeater_id == %q)
  |> filter(fn: (r) => %s)
  |> sort(columns: ["_time"])`,
		c.cfg.Bucket,
		from.UTC().Format(time.RFC3339),
		stop,
		telemetryMeasurement,
		repeaterID,
		strings.Join(fieldFilters, " or "),
	)

	queryCtx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	result, err := c.queryAPI.Query(queryCtx, flux)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer result.Close()

	for result.Next() {
		record := result.Record()
		value, ok := record.Value().(float64)
		if !ok {
			continue
		}
		key := record.Field()
		out[key] = append(out[key], HistoryPoint{
			Date:  record.Time().UTC(),
			Value: value,
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	return out, nil
}
