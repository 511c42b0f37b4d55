// Command worker consumes booking events for customer notifications and
// sweeps expired sessions.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"travel-booking/internal/data/repository"
	"travel-booking/internal/event"
	"travel-booking/pkg/database"
	"travel-booking/pkg/utils"

	"go.uber.org/zap"
)

const sessionSweepInterval = 10 * time.Minute

func main() {
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name+"-worker", config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repos := repository.NewRepository(db, logger)
	go sweepSessions(ctx, repos.Session, logger)

	if len(config.Kafka.Brokers) == 0 {
		logger.Warn("KAFKA_BROKERS not set, running session sweeper only")
		<-ctx.Done()
		return
	}

	consumer := event.NewConsumer(config.Kafka.Brokers, config.Kafka.GroupID, config.Kafka.BookingTopic, logger)
	defer func() { _ = consumer.Close() }()

	notifier := event.NewNotifier(logger)

	logger.Info("Worker started",
		zap.Strings("brokers", config.Kafka.Brokers),
		zap.String("topic", config.Kafka.BookingTopic),
		zap.String("group", config.Kafka.GroupID),
	)
	if err := consumer.Consume(ctx, notifier.Handle); err != nil {
		logger.Error("Consumer stopped", zap.Error(err))
	}
	logger.Info("Worker stopped")
}

func sweepSessions(ctx context.Context, sessions repository.SessionRepository, logger *zap.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.CleanExpiredSessions(ctx)
			if err != nil {
				logger.Error("Session sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("Expired sessions removed", zap.Int64("count", n))
			}
		}
	}
}
