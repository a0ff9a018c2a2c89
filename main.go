package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sift_server/config"
	"sift_server/internal/bootstrap"
	"sift_server/pkg/logger"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Initialize logger early
	logger.Init(logger.Config{
		Level:   logger.LevelInfo,
		Service: "mailsift",
	})

	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	app, cleanup, err := bootstrap.NewAPI(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize API: %v", err)
	}
	defer cleanup()

	// Graceful shutdown with timeout. A trigger run in flight gets a chance
	// to finish its persist before connections close.
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down (timeout: %v)...", shutdownTimeout)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- app.Shutdown()
		}()

		select {
		case err := <-done:
			if err != nil {
				logger.Error("Shutdown error: %v", err)
			}
		case <-ctx.Done():
			logger.Warn("Shutdown timed out, forcing exit")
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("Listening on %s", addr)
	if err := app.Listen(addr); err != nil {
		logger.Fatal("Server error: %v", err)
	}
}
