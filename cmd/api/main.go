package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"widgetboard/infrastructure/config"
	"widgetboard/infrastructure/di"
	"widgetboard/interfaces/http/rest"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	logger := container.Logger

	// Load the snapshot and run the initial reconciliation pass before
	// serving: the API refuses writes until the board is loaded.
	if err := container.BoardService.Start(ctx); err != nil {
		logger.Fatal("Board startup failed", zap.Error(err))
	}

	// Optional periodic re-sync against the backend.
	var scheduler *cron.Cron
	if cfg.SyncSchedule != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.SyncSchedule, func() {
			syncCtx, syncCancel := context.WithTimeout(ctx, time.Minute)
			defer syncCancel()
			if err := container.BoardService.Sync(syncCtx); err != nil {
				logger.Warn("scheduled sync failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Fatal("Invalid sync schedule",
				zap.String("schedule", cfg.SyncSchedule),
				zap.Error(err),
			)
		}
		scheduler.Start()
		logger.Info("Scheduled background sync", zap.String("schedule", cfg.SyncSchedule))
	}

	router := rest.NewRouter(
		cfg,
		container.CommandBus,
		container.QueryBus,
		container.WidgetService,
		container.BoardService,
		container.EdgeService,
		container.RateLimiter,
		container.Registry,
		string(container.ClientID),
		logger,
	)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("client_id", string(container.ClientID)),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	container.RateLimiter.Close()
	container.Cache.Close()

	if err := logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Server stopped")
}
