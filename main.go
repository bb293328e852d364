// main.go
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"fitness-booking/cmd"
	"fitness-booking/internal/usecase"
	"fitness-booking/internal/wire"
	"fitness-booking/pkg/cache"
	"fitness-booking/pkg/mq"
	"fitness-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.Name, config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("storage", config.Storage.Driver),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := cmd.OpenRepository(ctx, config, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer closeStore()

	var opts []usecase.Option

	// Slot cache
	if config.Redis.Addr != "" {
		redisCache := cache.NewRedis(config.Redis.Addr, config.Redis.Password, config.Redis.DB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("Redis unavailable, slot cache disabled", zap.Error(err))
		} else {
			defer redisCache.Close()
			opts = append(opts, usecase.WithCache(redisCache))
			logger.Info("Redis slot cache enabled", zap.String("addr", config.Redis.Addr))
		}
	}

	// Lifecycle events
	if config.MQ.URL != "" {
		publisher, err := mq.NewPublisher(config.MQ.URL, config.MQ.Exchange)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, booking events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			opts = append(opts, usecase.WithEventPublisher(publisher))
			logger.Info("Publishing booking events", zap.String("exchange", config.MQ.Exchange))
		}
	}

	// Wire all dependencies
	app := wire.Wiring(repos, config, logger, opts...)
	defer app.Service.Notification.Close()

	// Load persisted state before serving
	owners, err := repos.Snapshot.Owners(ctx)
	if err != nil {
		logger.Fatal("Failed to list snapshot owners", zap.Error(err))
	}
	for _, owner := range owners {
		if err := app.Service.Booking.Hydrate(ctx, owner); err != nil {
			logger.Error("Failed to hydrate snapshot", zap.Error(err), zap.String("owner_id", owner))
		}
	}
	logger.Info("State hydrated", zap.Int("owners", len(owners)))

	interval := time.Duration(config.Notification.SweepIntervalSeconds) * time.Second
	go cmd.RunSweeper(ctx, app.Service, interval, logger)

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server error", zap.Error(err))
	}
	logger.Info("Server stopped")
}
