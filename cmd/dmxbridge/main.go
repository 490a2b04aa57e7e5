// DMX Bridge - MQTT to Art-Net lighting gateway
//
// This is the main entry point for the DMX bridge. The bridge accepts
// lighting commands over MQTT, runs them through a fixed-rate fade engine,
// and transmits the resulting DMX universe to an Art-Net node over UDP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/openlux/dmxbridge/migrations"

	"github.com/openlux/dmxbridge/internal/artnet"
	"github.com/openlux/dmxbridge/internal/bridge"
	"github.com/openlux/dmxbridge/internal/effects"
	"github.com/openlux/dmxbridge/internal/engine"
	"github.com/openlux/dmxbridge/internal/history"
	"github.com/openlux/dmxbridge/internal/infrastructure/config"
	"github.com/openlux/dmxbridge/internal/infrastructure/database"
	"github.com/openlux/dmxbridge/internal/infrastructure/influxdb"
	"github.com/openlux/dmxbridge/internal/infrastructure/logging"
	"github.com/openlux/dmxbridge/internal/infrastructure/mqtt"
	"github.com/openlux/dmxbridge/internal/scene"
	"github.com/openlux/dmxbridge/internal/telemetry"
	"github.com/openlux/dmxbridge/internal/universe"
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
	log.Info("starting DMX bridge",
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

	// Open the command history database (optional)
	var db *database.DB
	var recorder *history.SQLiteRepository
	if cfg.History.Enabled {
		db, err = database.Open(database.Config{
			Path:        cfg.History.Path,
			WALMode:     cfg.History.WALMode,
			BusyTimeout: cfg.History.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening history database: %w", err)
		}
		defer func() {
			log.Info("closing history database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing history database", "error", closeErr)
			}
		}()

		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		recorder = history.NewSQLiteRepository(db.DB)
		log.Info("command history enabled", "path", cfg.History.Path)

		if cfg.History.RetentionDays > 0 {
			pruner, pruneErr := history.NewPruner(history.PrunerOptions{
				Store:     recorder,
				Retention: cfg.HistoryRetention(),
				Logger:    log,
			})
			if pruneErr != nil {
				return fmt.Errorf("creating history pruner: %w", pruneErr)
			}
			pruner.Start(ctx)
			defer func() {
				log.Info("stopping history pruner")
				pruner.Stop()
			}()
			log.Info("history retention enabled", "days", cfg.History.RetentionDays)
		}
	} else {
		log.Info("command history disabled")
	}

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
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

	// Connect to InfluxDB (optional)
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
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Open the Art-Net output
	sink, err := startArtNet(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("starting Art-Net output: %w", err)
	}
	defer func() {
		log.Info("stopping Art-Net output")
		sink.Stop()
	}()

	// Start the engine. Command outcomes fan out to the history database
	// and the telemetry backend, whichever are enabled.
	// A nil *SQLiteRepository must not become a non-nil interface value.
	var recorders []engine.CommandRecorder
	if recorder != nil {
		recorders = append(recorders, recorder)
	}
	if influxClient != nil {
		outcomes, recErr := telemetry.NewCommandRecorder(influxClient)
		if recErr != nil {
			return fmt.Errorf("creating outcome recorder: %w", recErr)
		}
		recorders = append(recorders, outcomes)
	}

	eng, err := startEngine(ctx, cfg, sink, recorders, log)
	if err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}
	defer func() {
		log.Info("stopping engine")
		eng.Stop()
	}()

	// Start the effects runner at the engine's frame period
	runner, err := effects.NewRunner(effects.Options{
		Engine:     eng,
		TickPeriod: cfg.TickPeriod(),
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("creating effects runner: %w", err)
	}
	runner.Start(ctx)
	defer func() {
		log.Info("stopping effects runner")
		runner.Stop()
	}()

	// Load the scene library
	scenes := scene.NewRegistry(cfg.Universe.Size)
	if cfg.Scenes.Path != "" {
		count, loadErr := scene.LoadInto(scenes, cfg.Scenes.Path)
		if loadErr != nil {
			return fmt.Errorf("loading scenes: %w", loadErr)
		}
		log.Info("scene library loaded", "path", cfg.Scenes.Path, "scenes", count)
	}

	// Start the MQTT bridge
	bridgeOpts := bridge.Options{
		Engine:         eng,
		MQTT:           mqttClient,
		Scenes:         scenes,
		Effects:        runner,
		Version:        version,
		HealthInterval: cfg.HealthInterval(),
		FrameInterval:  cfg.FrameEchoInterval(),
		Logger:         log,
	}
	if recorder != nil {
		bridgeOpts.History = recorder
	}
	if influxClient != nil {
		bridgeOpts.Sampler = influxClient
	}
	b, err := bridge.New(bridgeOpts)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	log.Info("bridge started", "subscriptions", mqttClient.SubscriptionCount())
	defer func() {
		log.Info("stopping bridge")
		b.Stop()
	}()

	// Start telemetry reporting (requires InfluxDB)
	if influxClient != nil {
		reporter, telErr := telemetry.New(telemetry.Options{
			Writer: influxClient,
			Source: eng,
			Logger: log,
		})
		if telErr != nil {
			return fmt.Errorf("creating telemetry reporter: %w", telErr)
		}
		reporter.Start(ctx)
		defer func() {
			log.Info("stopping telemetry")
			reporter.Stop()
		}()
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses DMXBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("DMXBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// startArtNet opens the UDP socket (unless sending is disabled) and starts
// the frame sink.
func startArtNet(ctx context.Context, cfg *config.Config, log *logging.Logger) (*artnet.Sink, error) {
	var sender artnet.Sender
	if cfg.ArtNet.DisableSend {
		log.Warn("Art-Net transmission disabled, frames will be built but not sent")
	} else {
		controller, err := artnet.NewController(cfg.ArtNet.Controller, cfg.ArtNet.Port)
		if err != nil {
			return nil, fmt.Errorf("connecting to controller: %w", err)
		}
		sender = controller
		log.Info("Art-Net controller resolved",
			"controller", cfg.ArtNet.Controller,
			"net", cfg.ArtNet.Net,
			"subnet", cfg.ArtNet.Subnet,
			"universe", cfg.ArtNet.Universe,
		)
	}

	sink, err := artnet.NewSink(sender, artnet.Config{
		Channels:        cfg.Universe.Size,
		Net:             uint8(cfg.ArtNet.Net),
		Subnet:          uint8(cfg.ArtNet.Subnet),
		Universe:        uint8(cfg.ArtNet.Universe),
		KeepaliveFrames: cfg.ArtNet.KeepaliveFrames,
		DisableSend:     cfg.ArtNet.DisableSend,
		Logger:          log,
	})
	if err != nil {
		return nil, err
	}

	sink.Start(ctx)
	return sink, nil
}

// startEngine builds and launches the fade engine against the given sink.
func startEngine(ctx context.Context, cfg *config.Config, sink *artnet.Sink, recorders []engine.CommandRecorder, log *logging.Logger) (*engine.Engine, error) {
	curve, err := universe.ParseCurve(cfg.Universe.DefaultCurve)
	if err != nil {
		return nil, fmt.Errorf("parsing default curve: %w", err)
	}

	opts := engine.Options{
		UniverseSize: cfg.Universe.Size,
		TickPeriod:   cfg.TickPeriod(),
		DefaultCurve: curve,
		Sink:         sink,
		Logger:       log,
	}
	switch len(recorders) {
	case 0:
	case 1:
		opts.Recorder = recorders[0]
	default:
		opts.Recorder = engine.FanoutRecorder(recorders...)
	}

	eng, err := engine.New(opts)
	if err != nil {
		return nil, err
	}
	if err := eng.Start(ctx); err != nil {
		return nil, err
	}

	log.Info("engine started",
		"universe_size", cfg.Universe.Size,
		"tick_period", cfg.TickPeriod(),
		"default_curve", curve.String(),
	)
	return eng, nil
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: History database to check (may be nil if disabled)
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
