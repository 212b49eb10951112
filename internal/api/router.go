package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Gateway status (no auth required)
	r.Get("/status", s.handleStatus)

	r.Route("/api", func(r chi.Router) {
		// Login (no auth required)
		r.Post("/login", s.handleLogin)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/logout", s.handleLogout)
			r.Get("/me", s.handleMe)

			r.Route("/channels", func(r chi.Router) {
				r.Get("/", s.handleListChannels)
				r.Post("/", s.handleCreateChannel)
			})

			r.Post("/messages", s.handleSendMessage)

			r.Route("/telemetry", func(r chi.Router) {
				r.Get("/", s.handleTelemetry)
				r.Get("/history/{repeater_id}", s.handleTelemetryHistory)
			})

			// Account management (admin only, except own password)
			r.Route("/users", func(r chi.Router) {
				r.Get("/", s.handleListUsers)
				r.Post("/", s.handleCreateUser)
				r.Post("/password", s.handleChangePassword)
				r.Delete("/{email}", s.handleDeleteUser)
			})
		})
	})

	return r
}

// statusPingTimeout bounds the event-store ping issued by /status.
const statusPingTimeout = 2 * time.Second

// eventStoreStatus reports telemetry history store connectivity.
type eventStoreStatus struct {
	Connected bool  `json:"connected"`
	LatencyMs int64 `json:"latency_ms"`
}

// statusResponse is the body of GET /status.
type statusResponse struct {
	Status        string           `json:"status"`
	Version       string           `json:"version"`
	EventStore    eventStoreStatus `json:"eventstore"`
	Authenticated bool             `json:"authenticated"`
}

// handleStatus returns the gateway health status.
//
// The endpoint never requires a token, but reports whether the one the
// caller presented (if any) is valid. "degraded" means the telemetry
// history store is configured and unreachable.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:  "ok",
		Version: s.version,
	}

	if s.history != nil {
		ctx, cancel := context.WithTimeout(r.Context(), statusPingTimeout)
		defer cancel()

		start := time.Now()
		if err := s.history.HealthCheck(ctx); err != nil {
			resp.Status = "degraded"
		} else {
			resp.EventStore.Connected = true
		}
		resp.EventStore.LatencyMs = time.Since(start).Milliseconds()
	}

	if raw := extractToken(r); raw != "" {
		if _, err := s.tokens.Validate(r.Context(), raw, s.tokenTTL()); err == nil {
			resp.Authenticated = true
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
