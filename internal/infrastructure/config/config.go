package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the mesh gateway.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Logging  LoggingConfig  `yaml:"logging"`
	Security SecurityConfig `yaml:"security"`
}

// Device transport selectors.
const (
	TransportTCP    = "tcp"
	TransportSerial = "serial"
)

// DeviceConfig describes how to reach the companion radio device.
//
// Exactly one physical device is addressed; the gateway opens a fresh
// session per operation and serialises access internally.
type DeviceConfig struct {
	// Transport selects the link type: "tcp" or "serial".
	Transport string `yaml:"transport"`

	// Host and Port are used when Transport is "tcp".
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// SerialPort and BaudRate are used when Transport is "serial".
	SerialPort string `yaml:"serial_port"`
	BaudRate   int    `yaml:"baud_rate"`

	// ConnectTimeout is the maximum time to establish a session (seconds).
	ConnectTimeout int `yaml:"connect_timeout"`

	// CommandTimeout bounds each per-slot probe and command round trip (seconds).
	CommandTimeout int `yaml:"command_timeout"`

	// SendAckTimeout bounds the wait for a send acknowledgement (seconds).
	SendAckTimeout int `yaml:"send_ack_timeout"`

	// DisconnectTimeout bounds the best-effort disconnect (seconds).
	DisconnectTimeout int `yaml:"disconnect_timeout"`

	// StatusInterval is how often the telemetry sampler polls device
	// status (seconds). 0 disables background sampling.
	StatusInterval int `yaml:"status_interval"`

	// Repeaters lists the contact names the telemetry sampler polls.
	Repeaters []string `yaml:"repeaters"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// InfluxDBConfig contains settings for the analytical event store.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// MQTTConfig contains MQTT broker connection settings for event fan-out.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains rotating file log settings.
// When Path is set, log output is written to the file instead of stdout/stderr.
type FileLoggingConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`    // megabytes per file
	MaxBackups int    `yaml:"max_backups"` // rotated files to keep
	MaxAge     int    `yaml:"max_age"`     // days to retain
	Compress   bool   `yaml:"compress"`
}

// SecurityConfig contains authentication settings.
type SecurityConfig struct {
	// TokenTTLDays is the sliding expiry window for session tokens.
	// Tokens are refreshed on every authenticated request; a token unused
	// for this many days is rejected.
	TokenTTLDays int `yaml:"token_ttl_days"`

	// Seed describes the initial admin account created on first run.
	Seed SeedConfig `yaml:"seed"`
}

// SeedConfig describes the bootstrap admin account.
// Password should be supplied via MESHGATE_SEED_PASSWORD rather than YAML.
type SeedConfig struct {
	Email    string `yaml:"email"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: MESHGATE_SECTION_KEY
// For example: MESHGATE_DATABASE_PATH, MESHGATE_INFLUXDB_TOKEN
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Transport:         TransportTCP,
			Host:              "localhost",
			Port:              5000,
			BaudRate:          115200,
			ConnectTimeout:    10,
			CommandTimeout:    5,
			SendAckTimeout:    10,
			DisconnectTimeout: 5,
			StatusInterval:    0,
		},
		Database: DatabaseConfig{
			Path:        "./data/meshgate.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "meshgate",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			TokenTTLDays: 7,
			Seed: SeedConfig{
				Email:    "admin@localhost",
				Username: "admin",
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: MESHGATE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("MESHGATE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Device
	if v := os.Getenv("MESHGATE_DEVICE_HOST"); v != "" {
		cfg.Device.Host = v
	}
	if v := os.Getenv("MESHGATE_DEVICE_SERIAL_PORT"); v != "" {
		cfg.Device.SerialPort = v
	}

	// API
	if v := os.Getenv("MESHGATE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("MESHGATE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// MQTT
	if v := os.Getenv("MESHGATE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("MESHGATE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Seed password for the bootstrap admin account
	if v := os.Getenv("MESHGATE_SEED_PASSWORD"); v != "" {
		cfg.Security.Seed.Password = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	switch c.Device.Transport {
	case TransportTCP:
		if c.Device.Host == "" {
			errs = append(errs, "device.host is required for tcp transport")
		}
		if c.Device.Port < 1 || c.Device.Port > 65535 {
			errs = append(errs, "device.port must be between 1 and 65535")
		}
	case TransportSerial:
		if c.Device.SerialPort == "" {
			errs = append(errs, "device.serial_port is required for serial transport")
		}
		if c.Device.BaudRate <= 0 {
			errs = append(errs, "device.baud_rate must be positive")
		}
	default:
		errs = append(errs, "device.transport must be \"tcp\" or \"serial\"")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Security.TokenTTLDays <= 0 {
		errs = append(errs, "security.token_ttl_days must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetConnectTimeout returns the device connect timeout as a Duration.
func (d DeviceConfig) GetConnectTimeout() time.Duration {
	return time.Duration(d.ConnectTimeout) * time.Second
}

// GetCommandTimeout returns the per-command timeout as a Duration.
func (d DeviceConfig) GetCommandTimeout() time.Duration {
	return time.Duration(d.CommandTimeout) * time.Second
}

// GetSendAckTimeout returns the send acknowledgement timeout as a Duration.
func (d DeviceConfig) GetSendAckTimeout() time.Duration {
	return time.Duration(d.SendAckTimeout) * time.Second
}

// GetDisconnectTimeout returns the disconnect timeout as a Duration.
func (d DeviceConfig) GetDisconnectTimeout() time.Duration {
	return time.Duration(d.DisconnectTimeout) * time.Second
}

// GetStatusInterval returns the telemetry sampling interval as a Duration.
func (d DeviceConfig) GetStatusInterval() time.Duration {
	return time.Duration(d.StatusInterval) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
