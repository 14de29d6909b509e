package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/qj0r9j0vc2/modmail/internal/domain/logger"
	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/config"
)

// Server represents the HTTP server.
type Server struct {
	server *http.Server
	logger logger.Logger
	cfg    config.ServerConfig
}

// New creates a new HTTP server.
func New(cfg config.ServerConfig, handler http.Handler, log logger.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		logger: log,
		cfg:    cfg,
	}
}

// Run listens on the configured port and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln and shuts down gracefully when ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"addr", ln.Addr().String(),
		)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down server",
		"timeout", s.cfg.ShutdownTimeout,
	)

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped gracefully")
	return nil
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.server.Addr
}
