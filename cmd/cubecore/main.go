// Cube Core - IoT telemetry backend
//
// This is the main entry point for the Cube Core application: field
// devices ("cubes") publish sensor readings over MQTT; the backend
// registers devices, persists readings, drives an air-quality LED
// feedback loop, and serves the dashboard over HTTP and WebSocket.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/cube-core/migrations"

	"github.com/nerrad567/cube-core/internal/api"
	"github.com/nerrad567/cube-core/internal/cube"
	"github.com/nerrad567/cube-core/internal/feedback"
	"github.com/nerrad567/cube-core/internal/infrastructure/config"
	"github.com/nerrad567/cube-core/internal/infrastructure/database"
	"github.com/nerrad567/cube-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/cube-core/internal/infrastructure/logging"
	"github.com/nerrad567/cube-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/cube-core/internal/ingest"
	"github.com/nerrad567/cube-core/internal/sensordata"
	"github.com/nerrad567/cube-core/internal/token"
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
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Cube Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database and apply migrations
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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", db.Path())

	// Repositories and registry
	cubeRepo := cube.NewSQLiteRepository(db.DB)
	registry := cube.NewRegistry(cubeRepo)
	registry.SetLogger(log)
	if refreshErr := registry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading cube registry: %w", refreshErr)
	}
	log.Info("cube registry initialised", "cubes", registry.Count())

	store := sensordata.NewSQLiteStore(db.DB)
	tokens := token.NewSQLiteRepository(db.DB)

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

	// Air-quality feedback loop
	loop, err := feedback.NewLoop(mqttClient, cfg.Feedback.Thresholds, cfg.Feedback.Colors, byte(cfg.MQTT.QoS))
	if err != nil {
		return fmt.Errorf("creating feedback loop: %w", err)
	}
	loop.SetLogger(log)

	// Ingestion pipeline ties registry, store, and loop to the broker
	pipeline := ingest.NewPipeline(ingest.Config{
		Broker:   mqttClient,
		QoS:      byte(cfg.MQTT.QoS),
		Registry: registry,
		Store:    store,
		Tokens:   tokens,
		Loop:     loop,
		Logger:   log,
	})
	mqttClient.SetOnConnect(pipeline.OnConnect)
	mqttClient.SetOnDisconnect(pipeline.OnDisconnect)

	if startErr := pipeline.Start(ctx); startErr != nil {
		return fmt.Errorf("starting ingestion pipeline: %w", startErr)
	}
	defer pipeline.Stop()

	// The client connected before the callbacks were wired, so fire the
	// initial transition by hand.
	if mqttClient.IsConnected() {
		pipeline.OnConnect()
	}

	// Connect to InfluxDB (optional readings mirror)
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
		pipeline.AddSink(func(r sensordata.Reading, sensorType, location string) {
			influxClient.WriteReading(r.CubeID, sensorType, location, r.Value)
		})
		log.Info("InfluxDB mirror connected",
			"url", cfg.InfluxDB.URL,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// HTTP API and WebSocket server
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log,
		Registry: registry,
		Store:    store,
		Tokens:   tokens,
		Pipeline: pipeline,
		Loop:     loop,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. Pipeline, then MQTT
	// 4. Database

	log.Info("Cube Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses CUBECORE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("CUBECORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
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
