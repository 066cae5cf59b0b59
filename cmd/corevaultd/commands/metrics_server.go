package commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricsHTTPServer exposes registry's collectors on /metrics, started and
// stopped the same way httpapi.Server handles the main listener: serve in a
// goroutine, tear down on context cancellation.
type metricsHTTPServer struct {
	server *http.Server
}

func newMetricsServer(port int, registry *prometheus.Registry) *metricsHTTPServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return &metricsHTTPServer{
		server: &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux},
	}
}

func (m *metricsHTTPServer) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		return m.server.Shutdown(context.Background())
	case err := <-errChan:
		return fmt.Errorf("metrics server failed: %w", err)
	}
}
