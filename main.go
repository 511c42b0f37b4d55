// main.go
package main

import (
	"context"
	"log"
	"time"

	"travel-booking/cmd"
	"travel-booking/internal/adaptor"
	"travel-booking/internal/cache"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/event"
	"travel-booking/internal/usecase"
	"travel-booking/internal/wire"
	"travel-booking/pkg/database"
	"travel-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.Migrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
		logger.Info("Schema applied")
	}

	repos := repository.NewRepository(db, logger)

	infra := usecase.Infra{
		Settler: usecase.NewRandomSettler(config.Payment.SuccessRate, config.Payment.RandomSeed),
	}
	checks := map[string]adaptor.HealthCheck{
		"database": db.Ping,
	}

	// Redis is optional: without it searches hit postgres and duplicate
	// bookings are stopped by the unique indexes alone.
	if config.Redis.Addr != "" {
		rdb := cache.NewRedisClient(config.Redis)
		defer func() { _ = rdb.Close() }()

		infra.Cache = cache.NewSearchCache(rdb, time.Duration(config.Redis.CacheTTLSeconds)*time.Second, logger)
		infra.Claims = cache.NewClaims(rdb, time.Duration(config.Redis.ClaimTTLSeconds)*time.Second)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		logger.Info("Redis enabled", zap.String("addr", config.Redis.Addr))
	}

	if len(config.Kafka.Brokers) > 0 {
		producer := event.NewProducer(config.Kafka.Brokers, config.Kafka.BookingTopic, logger)
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Warn("Failed to close event producer", zap.Error(err))
			}
		}()

		infra.Events = producer
		logger.Info("Kafka events enabled",
			zap.Strings("brokers", config.Kafka.Brokers),
			zap.String("topic", config.Kafka.BookingTopic),
		)
	}

	// Wire all dependencies
	app := wire.Wiring(repos, infra, checks, config, logger)

	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))
	if err := cmd.APIServer(app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped", zap.Error(err))
	}
}
