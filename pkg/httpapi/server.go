package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mladen4o/ClovaLink/internal/logger"
	"github.com/mladen4o/ClovaLink/pkg/config"
	corevaultauth "github.com/mladen4o/ClovaLink/pkg/httpapi/auth"
	"github.com/mladen4o/ClovaLink/pkg/orchestrator"
	"github.com/mladen4o/ClovaLink/pkg/share"
)

// Server wraps an *http.Server with graceful start/stop, grounded on the
// a standard serve-in-goroutine, context-driven shutdown lifecycle.
type Server struct {
	server          *http.Server
	shutdownTimeout time.Duration
	shutdownOnce    sync.Once
}

// NewServer builds the router and wraps it in an *http.Server using cfg's
// listen address and timeouts.
func NewServer(cfg config.HTTPConfig, shutdownTimeout time.Duration, orch *orchestrator.Orchestrator, shareGW *share.Gateway) (*Server, error) {
	verifier, err := corevaultauth.NewVerifier(cfg.JWTPublicKeyPath, "corevault")
	if err != nil {
		return nil, fmt.Errorf("httpapi: %w", err)
	}

	router := NewRouter(orch, shareGW, verifier, RouterConfig{
		SchemaEndpointEnabled: cfg.SchemaEndpointEnabled,
	})

	if shutdownTimeout == 0 {
		shutdownTimeout = 5 * time.Second
	}

	return &Server{
		server: &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		shutdownTimeout: shutdownTimeout,
	}, nil
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("http server shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("http server failed: %w", err)
	}
}

// Stop is safe to call multiple times and concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("http server shutdown: %w", err)
			logger.Error("http server shutdown error", logger.Err(err))
		} else {
			logger.Info("http server stopped gracefully")
		}
	})
	return shutdownErr
}
