package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pgx-interpreter-mcp-server/internal/api"
	"github.com/pgx-interpreter-mcp-server/internal/app"
	"github.com/pgx-interpreter-mcp-server/internal/config"
	"github.com/pgx-interpreter-mcp-server/internal/metrics"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := config.NewLogger(cfg.Logging)
	logger.WithField("addr", cfg.Server.Host).WithField("port", cfg.Server.Port).Info("Starting pharmacogenomic interpretation server")

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	backend, err := app.OpenBackend(ctx, configManager, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open reference store")
	}
	defer backend.Close()

	interpreter, err := app.NewInterpreter(backend.Store, cfg.Store.MatchPolicy, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create interpreter")
	}

	// Create server
	server := api.NewServer(configManager, interpreter,
		api.WithLogger(logger),
		api.WithHealthChecker(backend.Health),
		api.WithMetrics(metrics.NewCollector("pgx")),
	)

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("Server failed")
		return
	}

	logger.Info("Server stopped")
}
