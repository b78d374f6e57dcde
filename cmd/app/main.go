package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coachslot/internal/availability"
	"coachslot/internal/cache"
	"coachslot/internal/config"
	"coachslot/internal/db"
	"coachslot/internal/deadline"
	"coachslot/internal/events"
	"coachslot/internal/logger"
	"coachslot/internal/reservation"
	"coachslot/internal/server"
	"coachslot/internal/user"
)

// @title CoachSlot API
// @version 1.0
// @description Personal trainer availability and reservation service.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.InitWithLevel(cfg.LogLevel)
	defer logger.Sync()
	logger.Info("Starting CoachSlot", "port", cfg.Port, "timezone", cfg.Timezone)

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	checks := map[string]server.Pinger{"postgres": server.PingFunc(database.PingContext)}

	var slotCache availability.Cache = availability.NopCache{}
	redisCache := cache.NewRedis(cfg.RedisAddr, cfg.CacheTTL)
	defer redisCache.Close()
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisCache.Ping(pingCtx); err != nil {
		logger.Warn("Redis unavailable, availability cache disabled", "addr", cfg.RedisAddr, "error", err)
	} else {
		slotCache = redisCache
		checks["redis"] = redisCache
	}
	pingCancel()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Fatalf("Failed to connect to message broker: %v", err)
		}
		publisher = amqpPublisher
		logger.Info("Publishing reservation events", "exchange", cfg.AMQPExchange)
	}
	defer publisher.Close()

	slotRepo := availability.NewRepository(database)
	userService := user.NewService(user.NewRepository(database), cfg.JWTSecret)
	availabilityService := availability.NewService(slotRepo, slotCache, cfg.Location)
	reservationService := reservation.NewService(reservation.Deps{
		Repo:      reservation.NewRepository(database),
		Tx:        db.NewTxRunner(database),
		Allocator: availability.NewAllocator(slotRepo, cfg.Location),
		Policy:    deadline.NewPolicy(cfg.Location, nil),
		Users:     userService,
		Cache:     slotCache,
		Events:    publisher,
	})

	srv := server.New(cfg, server.Handlers{
		User:         user.NewHandler(userService),
		Availability: availability.NewHandler(availabilityService),
		Reservation:  reservation.NewHandler(reservationService),
	}, checks)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server listening on :%s", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
