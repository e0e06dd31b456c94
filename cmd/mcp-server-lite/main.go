// Package main provides the lightweight entry point for the interpretation MCP server.
// This version requires no external database: reference data lives in SQLite.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/pgx-interpreter-mcp-server/internal/app"
	"github.com/pgx-interpreter-mcp-server/internal/config"
	"github.com/pgx-interpreter-mcp-server/internal/domain"
	"github.com/pgx-interpreter-mcp-server/internal/mcp"
)

func main() {
	// Load lightweight configuration
	cfg := config.LoadLiteConfig()
	logger := config.NewLogger(cfg.Logging())

	logger.WithFields(logrus.Fields{
		"transport": cfg.Transport,
		"data_dir":  cfg.DataDir,
	}).Info("Starting pharmacogenomic interpretation MCP server (lite)")

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

	backend, err := app.OpenLiteBackend(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open reference store")
	}
	defer backend.Close()

	interpreter, err := app.NewInterpreter(backend.Store, cfg.MatchPolicy, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create interpreter")
	}

	server := mcp.NewServer(interpreter,
		mcp.WithLogger(logger),
		mcp.WithImplementation("pgx-interpreter-mcp-server-lite", ""),
	)

	// Start MCP server
	if err := server.Serve(ctx, domain.MCPConfig{TransportType: cfg.Transport, HTTPPort: cfg.HTTPPort}); err != nil {
		logger.WithError(err).Error("MCP server failed")
		return
	}

	logger.Info("MCP server (lite) stopped")
}
