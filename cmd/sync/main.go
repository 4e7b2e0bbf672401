// Command sync runs a single load-reconcile-save pass and exits. It is
// useful for refreshing the persisted board from cron or before taking
// the board offline.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"widgetboard/infrastructure/config"
	"widgetboard/infrastructure/di"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

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
	defer logger.Sync()

	if err := container.BoardService.Start(ctx); err != nil {
		logger.Fatal("Reconciliation pass failed", zap.Error(err))
	}

	logger.Info("Board reconciled and saved")
}
