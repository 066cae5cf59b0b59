// Package httpapi exposes spec §6's external interface over HTTP: a chi
// router wiring JWT-verified requests to the orchestrator and share
// gateway, plus the graceful-lifecycle Server wrapping it.
package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mladen4o/ClovaLink/internal/logger"
	corevaultauth "github.com/mladen4o/ClovaLink/pkg/httpapi/auth"
	"github.com/mladen4o/ClovaLink/pkg/httpapi/handlers"
	corevaultmw "github.com/mladen4o/ClovaLink/pkg/httpapi/middleware"
	"github.com/mladen4o/ClovaLink/pkg/orchestrator"
	"github.com/mladen4o/ClovaLink/pkg/share"
)

// RouterConfig carries everything NewRouter needs beyond the orchestrator
// and share gateway.
type RouterConfig struct {
	RequestTimeout        time.Duration
	SchemaEndpointEnabled bool
}

// NewRouter builds the full CoreVault HTTP surface.
func NewRouter(orch *orchestrator.Orchestrator, shareGW *share.Gateway, verifier *corevaultauth.Verifier, cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	healthHandler := handlers.NewHealthHandler()
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	if cfg.SchemaEndpointEnabled {
		r.Get("/api/v1/schema", handlers.Schema)
	}

	fileHandler := handlers.NewFileHandler(orch)
	shareHandler := handlers.NewShareHandler(shareGW)

	r.Route("/api/v1", func(r chi.Router) {
		// Share redemption runs with optional auth: is-public shares need
		// no credentials, tenant-wide/permissioned shares need whatever
		// the caller presents (spec §4.7).
		r.Route("/shares", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(corevaultmw.OptionalJWTAuth(verifier))
				r.Get("/redeem/{token}", shareHandler.Redeem)
				r.Post("/redeem/{token}", shareHandler.Redeem)
			})
			r.Group(func(r chi.Router) {
				r.Use(corevaultmw.JWTAuth(verifier))
				r.Post("/", shareHandler.Create)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(corevaultmw.JWTAuth(verifier))

			r.Route("/files", func(r chi.Router) {
				r.Post("/", fileHandler.Create)
				r.Get("/", fileHandler.List)
				r.Get("/{recordID}", fileHandler.GetStream)
				r.Patch("/{recordID}/rename", fileHandler.Rename)
				r.Patch("/{recordID}/move", fileHandler.Move)
				r.Delete("/{recordID}", fileHandler.SoftDelete)
				r.Post("/{recordID}/restore", fileHandler.Restore)
				r.Delete("/{recordID}/permanent", fileHandler.PermanentDelete)
				r.Post("/{recordID}/lock", fileHandler.Lock)
				r.Post("/{recordID}/unlock", fileHandler.Unlock)
			})
		})
	})

	return r
}

// requestLogger logs every request using the internal logger, at DEBUG for
// health probes and INFO otherwise, following the
// pkg/controlplane/api/router.go requestLogger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		attrs := []slog.Attr{
			slog.String("request_id", requestID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.String("duration", duration.String()),
		}
		if strings.HasPrefix(r.URL.Path, "/health") {
			logger.Debug("http request", attrs...)
		} else {
			logger.Info("http request", attrs...)
		}
	})
}
