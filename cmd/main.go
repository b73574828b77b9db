package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pet-tracker/internal/config"
	"pet-tracker/internal/configsync"
	domainPet "pet-tracker/internal/domain/pet"
	"pet-tracker/internal/infrastructure/database/postgres"
	"pet-tracker/internal/infrastructure/influxdb"
	"pet-tracker/internal/ingestion"
	"pet-tracker/internal/logger"
	"pet-tracker/internal/metrics"
	"pet-tracker/internal/routes"
	pkgmqtt "pet-tracker/pkg/mqtt"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", env),
	)

	if cfg.Database.Host == "" || cfg.Database.DBName == "" {
		logger.Fatal("Database configuration is missing. Please set DB_HOST and DB_NAME environment variables.")
	}
	if cfg.JWT.Secret == "" {
		logger.Fatal("JWT secret is missing. Please set JWT_SECRET environment variable.")
	}

	db, err := postgres.NewDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	limits := domainPet.Limits{WarnThreshold: cfg.SafeZone.WarnThreshold, MaxZones: cfg.SafeZone.MaxZones}
	topics := pkgmqtt.Topics{Prefix: cfg.MQTT.TopicPrefix}

	broker := pkgmqtt.NewClient(pkgmqtt.Config{
		Broker:            cfg.MQTT.BrokerURL(),
		ClientID:          cfg.MQTT.ClientID,
		Username:          cfg.MQTT.Username,
		Password:          cfg.MQTT.Password,
		QoS:               cfg.MQTT.QoS,
		ConnectTimeout:    cfg.MQTT.ConnectTimeout,
		ReconnectInterval: cfg.MQTT.ReconnectInterval,
		KeepAlive:         cfg.MQTT.KeepAlive,
		Logger:            logger.Logger,
	})
	broker.OnStateChange(func(from, to pkgmqtt.State) {
		metrics.SetConnectionState(int(to))
	})

	var mirror configsync.TelemetryMirror
	var influx *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influx, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			logger.Warn("InfluxDB unavailable, telemetry mirror disabled", zap.Error(err))
		} else {
			influx.SetOnError(func(err error) {
				logger.Warn("InfluxDB write failed", zap.Error(err))
			})
			mirror = influx
		}
	}

	devices := postgres.NewDeviceRepository(db)
	pets := postgres.NewPetRepository(db, limits)
	users := postgres.NewUserRepository(db)
	samples := postgres.NewTelemetryRepository(db)

	assembler := configsync.NewAssembler(devices, pets, users, configsync.Settings{
		ServerURL:        cfg.Device.ServerURL,
		UpdateIntervalMs: cfg.Device.UpdateIntervalMs,
		BrokerHost:       cfg.Device.MQTTHost,
		BrokerPort:       cfg.Device.MQTTPort,
		Username:         cfg.Device.MQTTUsername,
		Password:         cfg.Device.MQTTPassword,
		Topics:           topics,
	})

	stats := ingestion.NewStatsTracker()
	coordinator := configsync.NewCoordinator(devices, samples, assembler, broker, configsync.Options{
		DispatchDelay: cfg.Sync.DispatchDelay,
		Topics:        topics,
		Stats:         stats,
		Mirror:        mirror,
	})

	processor := ingestion.NewProcessor(coordinator, stats, cfg.Sync.Workers, cfg.Sync.BufferSize)
	processor.Start()

	subscriber, err := ingestion.NewSubscriber(broker, topics, processor)
	if err != nil {
		logger.Fatal("Failed to create MQTT subscriber", zap.Error(err))
	}
	if err := subscriber.Start(); err != nil {
		logger.Fatal("Failed to register MQTT subscriptions", zap.Error(err))
	}

	// A broker that is down at boot is retried in the background.
	if err := broker.Connect(); err != nil {
		logger.Warn("MQTT broker unavailable at startup, retrying in background",
			zap.String("broker", cfg.MQTT.BrokerURL()),
			zap.Error(err),
		)
	}

	routesCtx, stopRoutes := context.WithCancel(context.Background())
	defer stopRoutes()
	router := routes.SetupRoutes(routesCtx, cfg, routes.Dependencies{
		DB:          db,
		Broker:      broker,
		Coordinator: coordinator,
		Limits:      limits,
	})

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	addr := net.JoinHostPort(host, port)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", zap.Error(err))
	}
	stopRoutes()

	// Stop intake first, then drain, then drop anything still scheduled.
	subscriber.Stop()
	processor.Stop()
	coordinator.Close()
	if err := broker.Close(); err != nil {
		logger.Warn("Failed to close MQTT client", zap.Error(err))
	}
	if influx != nil {
		_ = influx.Close()
	}

	logger.Info("Server exited properly")
}
