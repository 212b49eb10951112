// meshgate - HTTP gateway for a MeshCore companion radio.
//
// This is the main entry point for the gateway. It bridges a single
// mesh-radio companion device to a small authenticated HTTP API:
// channel management, message dispatch, and repeater telemetry.
//
// The device holds all channel state; the gateway keeps only accounts,
// session tokens, and (optionally) telemetry history.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/dwhitmore/meshgate-core/migrations"

	"github.com/dwhitmore/meshgate-core/internal/api"
	"github.com/dwhitmore/meshgate-core/internal/auth"
	"github.com/dwhitmore/meshgate-core/internal/events"
	"github.com/dwhitmore/meshgate-core/internal/infrastructure/config"
	"github.com/dwhitmore/meshgate-core/internal/infrastructure/database"
	"github.com/dwhitmore/meshgate-core/internal/infrastructure/influxdb"
	"github.com/dwhitmore/meshgate-core/internal/infrastructure/logging"
	"github.com/dwhitmore/meshgate-core/internal/infrastructure/mqtt"
	"github.com/dwhitmore/meshgate-core/internal/mesh"
	"github.com/dwhitmore/meshgate-core/internal/mesh/link"
	"github.com/dwhitmore/meshgate-core/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// tokenCleanupInterval is how often expired session tokens are purged.
const tokenCleanupInterval = time.Hour

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting meshgate",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Account and session stores
	userRepo := auth.NewUserRepository(db.DB)
	tokenRepo := auth.NewTokenRepository(db.DB)

	// Seed the bootstrap admin account on first run
	seed := cfg.Security.Seed
	if password, seedErr := auth.SeedAdmin(ctx, userRepo, seed.Email, seed.Username, seed.Password, log.Logger); seedErr != nil {
		return fmt.Errorf("seeding admin account: %w", seedErr)
	} else if password != "" {
		// Generated password is printed once; it is not recoverable later.
		fmt.Printf("Initial admin account created:\n  email:    %s\n  password: %s\n", seed.Email, password)
	}

	// Periodically purge expired session tokens
	go tokenCleanupLoop(ctx, tokenRepo, log)

	// Device gateway: fresh session per operation, serialised internally
	provider := link.NewProvider(cfg.Device)
	gateway := mesh.New(provider, mesh.Config{
		ProbeTimeout:      cfg.Device.GetCommandTimeout(),
		CommandTimeout:    cfg.Device.GetCommandTimeout(),
		SendAckTimeout:    cfg.Device.GetSendAckTimeout(),
		DisconnectTimeout: cfg.Device.GetDisconnectTimeout(),
	}, log)
	log.Info("mesh gateway initialised",
		"transport", cfg.Device.Transport,
		"send_ack_timeout", cfg.Device.GetSendAckTimeout(),
	)

	// Connect to MQTT broker (optional event fan-out)
	var mqttClient *mqtt.Client
	var publisher *events.Publisher
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		publisher = events.NewPublisher(mqttClient, byte(cfg.MQTT.QoS), log)

		// Inbound command topics drive the gateway like HTTP callers do.
		listener := events.NewListener(mqttClient, gateway, publisher, log)
		if err := listener.Start(byte(cfg.MQTT.QoS)); err != nil {
			return fmt.Errorf("subscribing to command topics: %w", err)
		}
		defer func() {
			if closeErr := listener.Close(); closeErr != nil {
				log.Warn("error unsubscribing command topics", "error", closeErr)
			}
		}()
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional telemetry history)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Background telemetry sampler (needs a recorder and targets)
	if influxClient != nil && len(cfg.Device.Repeaters) > 0 {
		sampler := telemetry.NewSampler(gateway, influxClient, cfg.Device.Repeaters, cfg.Device.GetStatusInterval(), log)
		go sampler.Run(ctx)
		log.Info("telemetry sampler started",
			"repeaters", len(cfg.Device.Repeaters),
			"interval", cfg.Device.GetStatusInterval(),
		)
	}

	// HTTP API server
	var history api.HistoryStore
	if influxClient != nil {
		history = influxClient
	}
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Security: cfg.Security,
		Logger:   log,
		Gateway:  gateway,
		Users:    userRepo,
		Tokens:   tokenRepo,
		History:  history,
		Events:   publisher,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. Database

	log.Info("meshgate stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses MESHGATE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("MESHGATE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// tokenCleanupLoop purges expired session tokens until the context is cancelled.
func tokenCleanupLoop(ctx context.Context, tokens auth.TokenRepository, log *logging.Logger) {
	ticker := time.NewTicker(tokenCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := tokens.DeleteExpired(ctx)
			if err != nil {
				log.Warn("purging expired tokens", "error", err)
				continue
			}
			if n > 0 {
				log.Info("purged expired tokens", "count", n)
			}
		}
	}
}

// healthCheck verifies all infrastructure connections are healthy.
// mqttClient and influxClient may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	// The companion device is intentionally not probed here: it may be
	// powered off at startup, and every API operation opens a fresh
	// session anyway.

	return nil
}
