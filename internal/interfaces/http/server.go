// Package http exposes the workflow engine over a JSON API. This is a thin
// adapter layer; all transition rules live in the workflow package.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/billerops/onboarding-workflow/internal/auth"
	"github.com/billerops/onboarding-workflow/internal/report"
	"github.com/billerops/onboarding-workflow/internal/storage"
	"github.com/billerops/onboarding-workflow/internal/workflow"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	EnforceAuth  bool
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

// Server is the HTTP adapter over the workflow services.
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	tokens     *auth.TokenIssuer
	logger     *zap.Logger
}

// NewServer creates a new HTTP server wired to the given services.
func NewServer(
	config ServerConfig,
	engine *workflow.Engine,
	lifecycle *workflow.Lifecycle,
	authenticator auth.Authenticator,
	tokens *auth.TokenIssuer,
	store storage.AttachmentStore,
	summaries *report.SummaryWriter,
	logger *zap.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: NewHandlers(engine, lifecycle, authenticator, tokens, store, summaries, logger),
		tokens:   tokens,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.String("latency", time.Since(start).String()),
			zap.String("client_ip", c.ClientIP()))
	}
}

// authMiddleware resolves the caller identity from a bearer token. When
// EnforceAuth is set, requests without a valid token are rejected; otherwise
// the token is optional and only used to attribute actions.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if s.config.EnforceAuth {
				c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
					Success: false,
					Error:   "missing authorization header",
				})
			}
			return
		}

		const prefix = "Bearer "
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "malformed authorization header",
			})
			return
		}

		claims, err := s.tokens.Parse(header[len(prefix):])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "invalid token",
			})
			return
		}

		c.Set(ctxUsername, claims.Subject)
		c.Set(ctxRole, claims.Role)
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.HealthCheck)
	s.router.POST("/login", s.handlers.Login)

	api := s.router.Group("/api")
	api.Use(s.authMiddleware())
	{
		api.POST("/workflows", s.handlers.CreateWorkflow)
		api.GET("/workflows", s.handlers.ListWorkflows)
		api.GET("/workflows/:id", s.handlers.GetWorkflow)
		api.PUT("/workflows/:id", s.handlers.UpdateWorkflow)
		api.POST("/workflows/:id/steps/:step/signoff", s.handlers.Signoff)
		api.GET("/workflows/:id/history", s.handlers.GetHistory)
		api.GET("/workflows/:id/rejection-history", s.handlers.GetRejectionHistory)
		api.GET("/workflows/:id/edit-history", s.handlers.GetEditHistory)
		api.GET("/workflows/:id/summary", s.handlers.DownloadSummary)
		api.POST("/workflows/:id/attachments", s.handlers.UploadAttachment)
		api.GET("/attachments/:id", s.handlers.DownloadAttachment)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", addr))

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
		s.logger.Error("HTTP server error", zap.Error(err))
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
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
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
