package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the DMX bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Universe UniverseConfig `yaml:"universe"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	ArtNet   ArtNetConfig   `yaml:"artnet"`
	Scenes   ScenesConfig   `yaml:"scenes"`
	History  HistoryConfig  `yaml:"history"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// UniverseConfig describes the DMX universe the engine drives.
type UniverseConfig struct {
	// Size is the number of channels, 1 to 512.
	Size int `yaml:"size"`

	// TickPeriodMS is the frame emission period in milliseconds.
	TickPeriodMS int `yaml:"tick_period_ms"`

	// DefaultCurve names the fade curve used when commands omit one.
	DefaultCurve string `yaml:"default_curve"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
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

// ArtNetConfig contains Art-Net output settings.
type ArtNetConfig struct {
	// Controller is the IP address or hostname of the Art-Net node.
	Controller string `yaml:"controller"`

	// Port overrides the standard Art-Net UDP port when non-zero.
	Port int `yaml:"port"`

	// Net, Subnet and Universe select the Art-Net port address (0-15
	// each for subnet and universe).
	Net      int `yaml:"net"`
	Subnet   int `yaml:"subnet"`
	Universe int `yaml:"universe"`

	// KeepaliveFrames is how many unchanged frames are skipped before
	// the universe is retransmitted anyway.
	KeepaliveFrames int `yaml:"keepalive_frames"`

	// DisableSend runs the full pipeline without touching the network.
	DisableSend bool `yaml:"disable_send"`
}

// ScenesConfig contains scene library settings.
type ScenesConfig struct {
	// Path is the YAML scene file loaded at startup. Empty disables
	// file loading; scenes can still arrive over the bus.
	Path string `yaml:"path"`
}

// HistoryConfig contains the SQLite command audit trail settings.
type HistoryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// RetentionDays is how many days of history are kept. Zero keeps
	// everything.
	RetentionDays int `yaml:"retention_days"`
}

// InfluxDBConfig contains InfluxDB telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// BridgeConfig contains MQTT-facing bridge behaviour settings.
type BridgeConfig struct {
	// HealthIntervalSeconds is how often health reports are published.
	HealthIntervalSeconds int `yaml:"health_interval"`

	// FrameEchoMS enables the diagnostics frame echo topic when positive.
	// Zero disables it.
	FrameEchoMS int `yaml:"frame_echo_ms"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: DMXBRIDGE_SECTION_KEY
// For example: DMXBRIDGE_MQTT_HOST, DMXBRIDGE_ARTNET_CONTROLLER
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Universe: UniverseConfig{
			Size:         512,
			TickPeriodMS: 25,
			DefaultCurve: "linear",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "dmxbridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		ArtNet: ArtNetConfig{
			KeepaliveFrames: 160,
		},
		History: HistoryConfig{
			Path:          "./data/dmxbridge.db",
			WALMode:       true,
			BusyTimeout:   5,
			RetentionDays: 30,
		},
		Bridge: BridgeConfig{
			HealthIntervalSeconds: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: DMXBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Universe
	if v := os.Getenv("DMXBRIDGE_UNIVERSE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Universe.Size = n
		}
	}

	// MQTT
	if v := os.Getenv("DMXBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("DMXBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("DMXBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Art-Net
	if v := os.Getenv("DMXBRIDGE_ARTNET_CONTROLLER"); v != "" {
		cfg.ArtNet.Controller = v
	}

	// History
	if v := os.Getenv("DMXBRIDGE_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}

	// InfluxDB
	if v := os.Getenv("DMXBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Universe validation
	if c.Universe.Size < 1 || c.Universe.Size > 512 {
		errs = append(errs, "universe.size must be between 1 and 512")
	}
	if c.Universe.TickPeriodMS < 1 {
		errs = append(errs, "universe.tick_period_ms must be at least 1")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}

	// Art-Net validation
	if c.ArtNet.Controller == "" && !c.ArtNet.DisableSend {
		errs = append(errs, "artnet.controller is required unless artnet.disable_send is set")
	}
	if c.ArtNet.Subnet < 0 || c.ArtNet.Subnet > 15 {
		errs = append(errs, "artnet.subnet must be between 0 and 15")
	}
	if c.ArtNet.Universe < 0 || c.ArtNet.Universe > 15 {
		errs = append(errs, "artnet.universe must be between 0 and 15")
	}
	if c.ArtNet.Net < 0 || c.ArtNet.Net > 127 {
		errs = append(errs, "artnet.net must be between 0 and 127")
	}

	// History validation
	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, "history.path is required when history.enabled is set")
	}
	if c.History.RetentionDays < 0 {
		errs = append(errs, "history.retention_days must not be negative")
	}

	// Bridge validation
	if c.Bridge.HealthIntervalSeconds < 1 {
		errs = append(errs, "bridge.health_interval must be at least 1 second")
	}
	if c.Bridge.FrameEchoMS < 0 {
		errs = append(errs, "bridge.frame_echo_ms must not be negative")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb.enabled is set")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb.enabled is set (set DMXBRIDGE_INFLUXDB_TOKEN)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// TickPeriod returns the frame emission period as a Duration.
func (c *Config) TickPeriod() time.Duration {
	return time.Duration(c.Universe.TickPeriodMS) * time.Millisecond
}

// HealthInterval returns the health report period as a Duration.
func (c *Config) HealthInterval() time.Duration {
	return time.Duration(c.Bridge.HealthIntervalSeconds) * time.Second
}

// FrameEchoInterval returns the frame echo period as a Duration, zero when
// the echo is disabled.
func (c *Config) FrameEchoInterval() time.Duration {
	return time.Duration(c.Bridge.FrameEchoMS) * time.Millisecond
}

// HistoryRetention returns the history retention window as a Duration,
// zero when entries are kept forever.
func (c *Config) HistoryRetention() time.Duration {
	return time.Duration(c.History.RetentionDays) * 24 * time.Hour
}
