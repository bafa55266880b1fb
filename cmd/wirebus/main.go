// Wirebus - Wirenboard MQTT home gateway
//
// This is the main entry point for the Wirebus gateway. Wirebus listens
// to a Wirenboard-style MQTT topic tree, reconciles retained device
// metadata and values into a typed device model, and drives lighting
// relays from persisted groups and declarative macros.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/avdeenkov/wirebus/migrations"

	"github.com/avdeenkov/wirebus/internal/bus"
	"github.com/avdeenkov/wirebus/internal/device"
	"github.com/avdeenkov/wirebus/internal/gateway"
	"github.com/avdeenkov/wirebus/internal/infrastructure/config"
	"github.com/avdeenkov/wirebus/internal/infrastructure/database"
	"github.com/avdeenkov/wirebus/internal/infrastructure/influxdb"
	"github.com/avdeenkov/wirebus/internal/infrastructure/logging"
	"github.com/avdeenkov/wirebus/internal/infrastructure/mqtt"
	"github.com/avdeenkov/wirebus/internal/lighting"
	"github.com/avdeenkov/wirebus/internal/macros"
	"github.com/avdeenkov/wirebus/internal/watchdog"
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
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Wirebus",
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

	// Initialise macro registry
	macroRepo := macros.NewSQLiteRepository(db.DB)
	macroRegistry := macros.NewRegistry(macroRepo)
	macroRegistry.SetLogger(log)

	if refreshErr := macroRegistry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading macro registry: %w", refreshErr)
	}
	log.Info("macro registry initialised", "macros", len(macroRegistry.ListMacros(ctx)))

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

	// Assemble the core
	eventBus := bus.New()
	eventBus.SetLogger(log)

	store := device.NewStore()
	reconciler := device.NewReconciler(store)
	reconciler.SetLogger(log)

	groupRepo := lighting.NewSQLiteRepository(db.DB)
	switcher := lighting.NewSwitcher(mqttClient, cfg.Lighting.Relays)
	switcher.SetLogger(log)
	log.Info("relay table loaded", "relays", switcher.RelayCount())

	svc, err := newGatewayService(eventBus, reconciler, groupRepo, switcher, macroRegistry, mqttClient, influxClient, log)
	if err != nil {
		return fmt.Errorf("creating gateway service: %w", err)
	}
	if startErr := svc.Start(ctx); startErr != nil {
		return fmt.Errorf("starting gateway service: %w", startErr)
	}
	defer func() {
		log.Info("stopping gateway service")
		svc.Stop()
	}()

	// Start watchdog (optional)
	if cfg.Watchdog.Enabled {
		wd := watchdog.New(cfg.Watchdog)
		wd.SetLogger(log)
		go func() {
			if runErr := wd.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
				log.Error("watchdog exited", "error", runErr)
			}
		}()
		log.Info("watchdog started", "command", cfg.Watchdog.Command)
	} else {
		log.Info("watchdog disabled")
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

	// Deferred Close() calls run in reverse order:
	// 1. Gateway service
	// 2. InfluxDB (if enabled)
	// 3. MQTT
	// 4. Database

	log.Info("Wirebus stopped")
	return nil
}

// newGatewayService builds the gateway service from its parts. The influx
// client is passed through an interface value that stays nil when history
// is disabled.
func newGatewayService(
	eventBus *bus.Bus,
	reconciler *device.Reconciler,
	groupRepo lighting.Repository,
	switcher *lighting.Switcher,
	macroRegistry *macros.Registry,
	mqttClient *mqtt.Client,
	influxClient *influxdb.Client,
	log gateway.Logger,
) (*gateway.Service, error) {
	opts := gateway.Options{
		MQTTClient: mqttClient,
		Bus:        eventBus,
		Reconciler: reconciler,
		Groups:     groupRepo,
		Switcher:   switcher,
		Macros:     macroRegistry,
		Logger:     log,
	}
	// A typed nil *influxdb.Client inside a non-nil interface would pass
	// the service's nil checks and then panic on use.
	if influxClient != nil {
		opts.History = influxClient
	}
	return gateway.NewService(opts)
}

// getConfigPath returns the configuration file path.
// Uses WIREBUS_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("WIREBUS_CONFIG"); path != "" {
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
