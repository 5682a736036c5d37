// Package http provides the HTTP server: the claim form, the JSON scoring API
// and the live scoring websocket
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server HTTP server
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

// ServerConfig server configuration
type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// DefaultServerConfig default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:         8501,
		Timeout:      15 * time.Second,
		MaxBodyBytes: 1 << 20,
	}
}

// NewServer creates the HTTP server
func NewServer(config ServerConfig, h *Handlers, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      NewRouter(config, h, logger),
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
			IdleTimeout:  120 * time.Second,
		},
		config: config,
		logger: logger,
	}
}

// NewRouter registers all handlers and wraps them in the middleware chain
func NewRouter(config ServerConfig, h *Handlers, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	h.Register(mux)

	// Build the middleware chain
	chain := Chain(
		RecoveryMiddleware(logger),                 // 1. recovery (runs first, catches panics)
		LoggerMiddleware(logger),                   // 2. request logging
		SecurityHeadersMiddleware,                  // 3. security headers
		CORSMiddleware(config.AllowedOrigins),      // 4. CORS
		RequestSizeMiddleware(config.MaxBodyBytes), // 5. request size limit
	)
	return chain(mux)
}

// Start starts the server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		zap.String("addr", s.server.Addr),
		zap.String("live_scoring", fmt.Sprintf("ws://localhost%s/api/ws/score", s.server.Addr)))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Addr returns the server address
func (s *Server) Addr() string {
	return s.server.Addr
}
