// Package mcp exposes the interpretation pipeline as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
	"github.com/pgx-interpreter-mcp-server/internal/metrics"
)

const (
	defaultServerName    = "pgx-interpreter-mcp-server"
	defaultServerVersion = "v0.1.0"
)

// Server is an MCP server backed by an Interpreter.
type Server struct {
	interpreter domain.Interpreter
	metrics     *metrics.Collector
	logger      *logrus.Logger
	name        string
	version     string
	mcp         *sdk.Server
}

// Option is a functional option for Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records tool calls on the collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = collector
	}
}

// WithImplementation overrides the name and version reported during initialization.
func WithImplementation(name, version string) Option {
	return func(s *Server) {
		if name != "" {
			s.name = name
		}
		if version != "" {
			s.version = version
		}
	}
}

// NewServer creates an MCP server with every interpretation tool registered.
func NewServer(interpreter domain.Interpreter, opts ...Option) *Server {
	s := &Server{
		interpreter: interpreter,
		logger:      logrus.New(),
		name:        defaultServerName,
		version:     defaultServerVersion,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = sdk.NewServer(&sdk.Implementation{
		Name:    s.name,
		Version: s.version,
	}, nil)
	s.registerTools()

	return s
}

// Run serves a single session on transport until it closes or ctx is cancelled.
func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}

// HTTPHandler returns a streamable HTTP handler serving this server.
func (s *Server) HTTPHandler() http.Handler {
	return sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server {
		return s.mcp
	}, nil)
}

// Serve runs the transport selected by cfg: stdio, or streamable HTTP on HTTPHost:HTTPPort.
func (s *Server) Serve(ctx context.Context, cfg domain.MCPConfig) error {
	switch cfg.TransportType {
	case "", "stdio":
		s.logger.Info("Serving MCP over stdio")
		return s.Run(ctx, &sdk.StdioTransport{})
	case "http":
		return s.serveHTTP(ctx, fmt.Sprintf("%s:%d", cfg.HTTPHost, cfg.HTTPPort))
	default:
		return fmt.Errorf("unsupported MCP transport: %s", cfg.TransportType)
	}
}

func (s *Server) serveHTTP(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", s.HTTPHandler())
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.WithField("addr", addr).Info("Serving MCP over streamable HTTP")

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start MCP HTTP transport: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
