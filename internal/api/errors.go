package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dwhitmore/meshgate-core/internal/mesh"
)

// errorResponse is the envelope returned for every failed request.
type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{
		Status:  "error",
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, message)
}

// writeMeshError maps a gateway error to an HTTP response.
//
// rejectedStatus controls how a device-answered rejection is reported:
// a refused channel write means the write may not have stuck (504), while
// a refused message send is a device-side failure (502).
func writeMeshError(w http.ResponseWriter, err error, rejectedStatus int) {
	switch {
	case errors.Is(err, mesh.ErrInvalidArgument),
		errors.Is(err, mesh.ErrNoFreeSlot):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, mesh.ErrChannelNotFound),
		errors.Is(err, mesh.ErrContactNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, mesh.ErrChannelExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, mesh.ErrConnectionFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, mesh.ErrDeviceRejected):
		writeError(w, rejectedStatus, err.Error())
	case errors.Is(err, mesh.ErrDeviceTimeout):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		writeInternalError(w, "internal server error")
	}
}
