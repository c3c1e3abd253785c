// Package http provides the HTTP adapter over the application services.
// It translates requests into service calls and guard failures into
// status codes; no workflow rules live here.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coopec/missions-backend/internal/application/port"
	"github.com/coopec/missions-backend/pkg/utils"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	tokenMgr   *utils.TokenManager
	userRepo   port.UserRepository
	logger     Logger
}

// NewServer creates a new HTTP server with the given handlers
func NewServer(
	config ServerConfig,
	handlers *Handlers,
	tokenMgr *utils.TokenManager,
	userRepo port.UserRepository,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: handlers,
		tokenMgr: tokenMgr,
		userRepo: userRepo,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.HealthCheck)

	auth := s.router.Group("/api/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
	}

	api := s.router.Group("/api")
	api.Use(authMiddleware(s.tokenMgr, s.userRepo, s.logger))
	{
		api.POST("/missions", h.CreateMission)
		api.GET("/missions", h.ListMissions)
		api.GET("/missions/:id", h.GetMission)
		api.POST("/missions/:id/submit", h.SubmitMission)
		api.POST("/missions/:id/depart", h.DeclareDeparture)
		api.POST("/missions/:id/return", h.DeclareReturn)

		api.GET("/missions/:id/validations", h.ListValidations)
		api.POST("/validations/:id/decision", h.ProcessValidation)

		api.GET("/missions/:id/signatures", h.ListSignatures)
		api.POST("/signatures/:id/sign", h.ProcessSignature)
		api.POST("/signatures/:id/refuse", h.RefuseSignature)

		api.POST("/missions/:id/justificatifs", h.AddJustificatif)
		api.GET("/missions/:id/justificatifs", h.ListJustificatifs)
		api.POST("/missions/:id/justificatifs/submit", h.SubmitJustificatifs)
		api.POST("/missions/:id/justificatifs/verify", h.VerifyJustificatifs)
		api.POST("/justificatifs/:id/review", h.ReviewJustificatif)

		api.POST("/missions/:id/depenses", h.AddDepense)
		api.GET("/missions/:id/depenses", h.ListDepenses)
		api.POST("/missions/:id/avances", h.CreateAvance)
		api.GET("/missions/:id/avances", h.ListAvances)
		api.POST("/avances/:id/disburse", h.DisburseAvance)
		api.POST("/missions/:id/ticket", h.EmitTicket)

		api.GET("/notifications", h.ListNotifications)
		api.GET("/notifications/unread", h.CountUnreadNotifications)
		api.POST("/notifications/:id/read", h.MarkNotificationRead)

		api.GET("/stats", h.Statistics)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
