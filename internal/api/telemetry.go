package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dwhitmore/meshgate-core/internal/infrastructure/influxdb"
	"github.com/dwhitmore/meshgate-core/internal/telemetry"
)

// telemetryResponse is the response body for GET /api/telemetry.
type telemetryResponse struct {
	Status    string           `json:"status"`
	Telemetry telemetry.Report `json:"telemetry"`
}

// historyResponse is the response body for GET /api/telemetry/history/{repeater_id}.
type historyResponse struct {
	Status     string                             `json:"status"`
	RepeaterID string                             `json:"repeater_id"`
	History    map[string][]influxdb.HistoryPoint `json:"history"`
}

// handleTelemetry requests a live status snapshot from a named repeater.
//
// The repeater is selected by ?name= (exact contact name) or ?public_key=
// (case-insensitive hex prefix). At least one selector is required. A
// reachable device whose target repeater stays silent is reported as 504.
func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	publicKey := strings.TrimSpace(r.URL.Query().Get("public_key"))
	if name == "" && publicKey == "" {
		writeBadRequest(w, "name or public_key query parameter is required")
		return
	}

	t, err := s.gateway.RepeaterTelemetry(r.Context(), name, publicKey)
	if err != nil {
		writeMeshError(w, err, http.StatusBadGateway)
		return
	}

	report := telemetry.BuildReport(t)
	s.events.RepeaterTelemetry(report.PublicKey, report)

	writeJSON(w, http.StatusOK, telemetryResponse{Status: "ok", Telemetry: report})
}

// maxHistoryKeys bounds the number of metric series one request may ask for.
const maxHistoryKeys = 16

// handleTelemetryHistory returns stored metric series for one repeater.
//
// Query parameters:
//   - keys: comma-separated metric names (required)
//   - from: start of the window, RFC 3339 or YYYY-MM-DD (required)
//   - to:   end of the window, same formats (optional, defaults to now)
//
// Unknown keys come back as empty series rather than errors, and a
// window whose end precedes its start simply matches nothing.
func (s *Server) handleTelemetryHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "telemetry history is not configured")
		return
	}

	repeaterID := chi.URLParam(r, "repeater_id")

	keys := splitKeys(r.URL.Query().Get("keys"))
	if len(keys) == 0 {
		writeBadRequest(w, "keys query parameter is required")
		return
	}
	if len(keys) > maxHistoryKeys {
		writeBadRequest(w, "too many keys requested")
		return
	}

	from, err := parseHistoryTime(r.URL.Query().Get("from"))
	if err != nil {
		writeBadRequest(w, "invalid from datetime")
		return
	}
	if from.IsZero() {
		writeBadRequest(w, "from query parameter is required")
		return
	}

	to, err := parseHistoryTime(r.URL.Query().Get("to"))
	if err != nil {
		writeBadRequest(w, "invalid to datetime")
		return
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}

	history, err := s.history.QueryHistory(r.Context(), repeaterID, keys, from, to)
	if err != nil {
		switch {
		case errors.Is(err, influxdb.ErrQueryFailed):
			writeBadRequest(w, err.Error())
		case errors.Is(err, influxdb.ErrNotConnected), errors.Is(err, influxdb.ErrDisabled):
			writeError(w, http.StatusServiceUnavailable, "telemetry history is unavailable")
		default:
			s.logger.Error("querying telemetry history", "error", err, "repeater_id", repeaterID)
			writeError(w, http.StatusServiceUnavailable, "telemetry history is unavailable")
		}
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{
		Status:     "ok",
		RepeaterID: repeaterID,
		History:    history,
	})
}

// splitKeys parses the comma-separated keys parameter, dropping blanks.
func splitKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// historyTimeFormats are the accepted from/to layouts, tried in order.
var historyTimeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseHistoryTime parses a from/to query value. Empty input returns the
// zero time with no error so callers can apply defaults.
func parseHistoryTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range historyTimeFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognised datetime")
}
