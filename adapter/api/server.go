// Package api exposes timeline recalculation over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/eventline/pkg/observability"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CorrelationHeader carries the caller's correlation ID in both directions.
const CorrelationHeader = "X-Correlation-ID"

// Server is the HTTP API server.
type Server struct {
	engine  *gin.Engine
	server  *http.Server
	logger  *slog.Logger
	handler *TimelineHandler
	health  *observability.HealthRegistry
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "127.0.0.1:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new API server. health may be nil.
func NewServer(cfg ServerConfig, handler *TimelineHandler, health *observability.HealthRegistry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if health == nil {
		health = observability.NewHealthRegistry()
	}

	engine := gin.New()
	s := &Server{
		engine:  engine,
		logger:  logger,
		handler: handler,
		health:  health,
	}

	engine.Use(s.requestContext(), gin.CustomRecovery(s.recover))
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)

	v1 := s.engine.Group("/api/v1/timelines/:id")
	v1.POST("/recalculate", s.handler.Recalculate)
	v1.POST("/preview", s.handler.Preview)
	v1.GET("/recalculations/last", s.handler.LastRecalculation)

	s.engine.NoRoute(func(c *gin.Context) {
		writeError(c, ErrRouteNotFound)
	})
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// requestContext starts a request scope with a correlation ID and logs the
// request once it completes.
func (s *Server) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(CorrelationHeader)
		if _, err := uuid.Parse(correlationID); err != nil {
			correlationID = uuid.NewString()
		}
		ctx := observability.NewRequestContext(c.Request.Context(), correlationID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(CorrelationHeader, correlationID)

		start := time.Now()
		c.Next()

		s.logger.InfoContext(ctx, "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			observability.DurationKey, time.Since(start).Milliseconds(),
		)
	}
}

func (s *Server) recover(c *gin.Context, recovered any) {
	s.logger.ErrorContext(c.Request.Context(), "panic while serving request", "panic", recovered)
	writeError(c, &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: fmt.Sprint(recovered),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	health := s.health.Check(c.Request.Context())
	status := http.StatusOK
	if health.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}
