// Package api provides the HTTP REST API for the mesh gateway.
//
// It exposes channel management, message dispatch, and repeater telemetry
// over a small authenticated surface. The server follows the same lifecycle
// pattern as the other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dwhitmore/meshgate-core/internal/auth"
	"github.com/dwhitmore/meshgate-core/internal/events"
	"github.com/dwhitmore/meshgate-core/internal/infrastructure/config"
	"github.com/dwhitmore/meshgate-core/internal/infrastructure/influxdb"
	"github.com/dwhitmore/meshgate-core/internal/infrastructure/logging"
	"github.com/dwhitmore/meshgate-core/internal/mesh"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// MeshGateway is the device-facing surface the API depends on.
// *mesh.Gateway satisfies it; tests substitute a fake.
type MeshGateway interface {
	ListChannels(ctx context.Context) ([]mesh.ChannelInfo, error)
	CreateChannel(ctx context.Context, name string) ([]mesh.ChannelInfo, error)
	SendMessage(ctx context.Context, channel, text string) (mesh.ChannelRef, error)
	DeviceInfo(ctx context.Context) (*mesh.DeviceInfo, error)
	RepeaterTelemetry(ctx context.Context, name, publicKey string) (*mesh.RepeaterTelemetry, error)
}

// HistoryStore is the telemetry history surface the API depends on.
// *influxdb.Client satisfies it.
type HistoryStore interface {
	QueryHistory(ctx context.Context, repeaterID string, keys []string, from, to time.Time) (map[string][]influxdb.HistoryPoint, error)
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Gateway  MeshGateway
	Users    auth.UserRepository
	Tokens   auth.TokenRepository
	History  HistoryStore     // optional: history endpoint returns 503 when nil
	Events   *events.Publisher // optional: nil drops events
	Version  string
}

// Server is the HTTP API server for the mesh gateway.
//
// It manages the HTTP listener, routes, and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg     config.APIConfig
	secCfg  config.SecurityConfig
	logger  *logging.Logger
	gateway MeshGateway
	users   auth.UserRepository
	tokens  auth.TokenRepository
	history HistoryStore
	events  *events.Publisher
	version string
	server  *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Gateway == nil {
		return nil, fmt.Errorf("mesh gateway is required")
	}
	if deps.Users == nil || deps.Tokens == nil {
		return nil, fmt.Errorf("user and token repositories are required")
	}

	return &Server{
		cfg:     deps.Config,
		secCfg:  deps.Security,
		logger:  deps.Logger,
		gateway: deps.Gateway,
		users:   deps.Users,
		tokens:  deps.Tokens,
		history: deps.History,
		events:  deps.Events,
		version: deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the HTTP listener in a background
// goroutine. The server is stopped with Close().
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}

// tokenTTL returns the sliding session expiry window.
func (s *Server) tokenTTL() time.Duration {
	days := s.secCfg.TokenTTLDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}
