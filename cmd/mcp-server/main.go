package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pgx-interpreter-mcp-server/internal/app"
	"github.com/pgx-interpreter-mcp-server/internal/config"
	"github.com/pgx-interpreter-mcp-server/internal/mcp"
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
	logging := cfg.Logging
	if cfg.MCP.TransportType == "stdio" {
		// stdout carries the protocol stream
		logging.Output = "stderr"
	}
	logger := config.NewLogger(logging)
	logger.WithField("transport", cfg.MCP.TransportType).Info("Starting pharmacogenomic interpretation MCP server")

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down MCP server...")
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

	opts := []mcp.Option{
		mcp.WithLogger(logger),
		mcp.WithImplementation(cfg.MCP.ServerName, cfg.MCP.ServerVersion),
	}
	if cfg.Server.MetricsEnabled {
		opts = append(opts, mcp.WithMetrics(metrics.NewCollector("pgx")))
	}
	mcpServer := mcp.NewServer(interpreter, opts...)

	// Start MCP server
	if err := mcpServer.Serve(ctx, cfg.MCP); err != nil {
		logger.WithError(err).Error("MCP server failed")
		return
	}

	logger.Info("MCP server stopped")
}
