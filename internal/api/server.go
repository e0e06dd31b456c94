package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
	"github.com/pgx-interpreter-mcp-server/internal/metrics"
	"github.com/pgx-interpreter-mcp-server/internal/middleware"
)

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	interpreter   domain.Interpreter
	health        domain.HealthChecker
	metrics       *metrics.Collector
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// Option configures optional server collaborators.
type Option func(*Server)

// WithLogger sets the logger for the server.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithHealthChecker sets the dependency pinged by the health endpoint.
func WithHealthChecker(hc domain.HealthChecker) Option {
	return func(s *Server) {
		s.health = hc
	}
}

// WithMetrics enables request metrics and the /metrics endpoint.
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = collector
	}
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, interpreter domain.Interpreter, opts ...Option) *Server {
	cfg := configManager.GetConfig()

	s := &Server{
		configManager: configManager,
		interpreter:   interpreter,
		logger:        logrus.New(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Set Gin mode based on environment
	if gin.Mode() != gin.TestMode {
		if cfg.Logging.Level == "debug" {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger())
	router.Use(middleware.SecurityHeaders())
	router.Use(corsMiddleware())
	if s.metrics != nil {
		router.Use(middleware.Metrics(s.metrics))
	}
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.NewClientLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)))
	}
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))

	s.router = router
	s.setupRoutes()

	return s
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.TLSEnabled {
			err = s.server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.WithFields(logrus.Fields{
		"addr": addr,
		"tls":  cfg.TLSEnabled,
	}).Info("HTTP server listening")

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/health", s.handleHealth)

		interpret := api.Group("/interpret")
		interpret.POST("/full", s.handleInterpretFull)
		interpret.POST("/genotype", s.handleInterpretGenotype)
		interpret.POST("/phenoconversion", s.handlePhenoconversion)
		interpret.POST("/recommendation", s.handleRecommendation)
	}

	if s.metrics != nil && s.configManager.GetServerConfig().MetricsEnabled {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Correlation-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
