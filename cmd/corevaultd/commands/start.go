package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mladen4o/ClovaLink/internal/logger"
	"github.com/mladen4o/ClovaLink/internal/telemetry"
	"github.com/mladen4o/ClovaLink/pkg/backend"
	"github.com/mladen4o/ClovaLink/pkg/backend/localdir"
	"github.com/mladen4o/ClovaLink/pkg/backend/s3"
	"github.com/mladen4o/ClovaLink/pkg/cas"
	"github.com/mladen4o/ClovaLink/pkg/catalog"
	"github.com/mladen4o/ClovaLink/pkg/catalog/memory"
	"github.com/mladen4o/ClovaLink/pkg/catalog/postgres"
	"github.com/mladen4o/ClovaLink/pkg/config"
	"github.com/mladen4o/ClovaLink/pkg/httpapi"
	"github.com/mladen4o/ClovaLink/pkg/metrics"
	"github.com/mladen4o/ClovaLink/pkg/orchestrator"
	"github.com/mladen4o/ClovaLink/pkg/scheduler"
	"github.com/mladen4o/ClovaLink/pkg/share"
	"github.com/mladen4o/ClovaLink/pkg/tenantconfig"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the CoreVault server in the foreground",
	Long: `Start the CoreVault server: the content-addressed store, metadata
catalog, access decision engine, transfer scheduler, request orchestrator,
and share gateway behind one HTTP surface.

Runs in the foreground until interrupted (SIGINT/SIGTERM), then drains
in-flight requests before exiting.`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output}); err != nil {
		return fmt.Errorf("start: init logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "corevault",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("start: init telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}()
	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", slog.String("endpoint", cfg.Telemetry.Endpoint))
	}

	cat, shares, closeCatalog, err := openCatalog(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("start: open catalog: %w", err)
	}
	defer closeCatalog()

	be, err := openBackend(ctx, cfg.Backend)
	if err != nil {
		return fmt.Errorf("start: open backend: %w", err)
	}

	tenants, err := tenantconfig.Open(cfg.TenantCache.Path)
	if err != nil {
		return fmt.Errorf("start: open tenant cache: %w", err)
	}
	defer tenants.Close()

	sched := scheduler.New(scheduler.Config{
		SmallThreshold:  uint64(cfg.Scheduler.SmallThreshold),
		MediumThreshold: uint64(cfg.Scheduler.MediumThreshold),
		SmallCapacity:   cfg.Scheduler.SmallCapacity,
		MediumCapacity:  cfg.Scheduler.MediumCapacity,
		LargeCapacity:   cfg.Scheduler.LargeCapacity,
	})

	casStore := cas.New(be, cat, sched, cfg.Backend.ScratchDir)

	orch := orchestrator.New(orchestrator.Config{
		PresignedURLsEnabled: cfg.Orchestrator.PresignedURLsEnabled,
		PresignTTL:           cfg.Orchestrator.PresignTTL,
		CDNHost:              cfg.Orchestrator.CDNHost,
		MaxPackSizeBytes:     uint64(cfg.Orchestrator.MaxPackSize),
		MaxAutoRenameProbes:  cfg.Orchestrator.MaxAutoRenameProbes,
	}, cat, shares, be, casStore, sched, tenants, nil, nil)

	shareGW := share.New(shares, cat, orch)

	var registry *prometheus.Registry
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		m := metrics.New(registry)
		sched.SetMetrics(m)
		casStore.SetMetrics(m)
		orch.SetMetrics(m)
		shareGW.SetMetrics(m)
	}

	httpServer, err := httpapi.NewServer(cfg.HTTP, cfg.ShutdownTimeout, orch, shareGW)
	if err != nil {
		return fmt.Errorf("start: build http server: %w", err)
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- httpServer.Start(ctx)
	}()

	var metricsDone chan error
	if registry != nil {
		metricsServer := newMetricsServer(cfg.Metrics.Port, registry)
		metricsDone = make(chan error, 1)
		go func() {
			metricsDone <- metricsServer.Start(ctx)
		}()
		logger.Info("metrics server listening", slog.Int("port", cfg.Metrics.Port))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("corevaultd is running", slog.String("addr", cfg.HTTP.ListenAddr))

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, draining in-flight requests")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("http server shutdown error", slog.String("error", err.Error()))
			return err
		}
		if metricsDone != nil {
			if err := <-metricsDone; err != nil {
				logger.Error("metrics server shutdown error", slog.String("error", err.Error()))
			}
		}
		logger.Info("corevaultd stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		cancel()
		if metricsDone != nil {
			<-metricsDone
		}
		if err != nil {
			logger.Error("http server exited", slog.String("error", err.Error()))
			return err
		}
		logger.Info("corevaultd stopped")
	}

	return nil
}

func openCatalog(cfg config.CatalogConfig) (catalog.Catalog, catalog.ShareStore, func(), error) {
	if cfg.Dialect == "postgres" {
		store, err := postgres.New(postgres.Config{
			Dialect: postgres.DialectPostgres, Host: cfg.Host, Port: cfg.Port,
			Database: cfg.Database, User: cfg.User, Password: cfg.Password,
			SSLMode: cfg.SSLMode, MaxOpenConns: cfg.MaxOpenConns, MaxIdleConns: cfg.MaxIdleConns,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		return store, store, func() {}, nil
	}
	if cfg.SQLitePath != "" {
		store, err := postgres.New(postgres.Config{Dialect: postgres.DialectSQLite, SQLitePath: cfg.SQLitePath})
		if err != nil {
			return nil, nil, nil, err
		}
		return store, store, func() {}, nil
	}
	store := memory.New()
	return store, store, func() {}, nil
}

func openBackend(ctx context.Context, cfg config.BackendConfig) (backend.Backend, error) {
	if cfg.Kind == "s3" {
		return s3.New(ctx, s3.Config{
			Bucket: cfg.Bucket, Region: cfg.Region, Endpoint: cfg.Endpoint,
			AccessKeyID: cfg.AccessKeyID, SecretAccessKey: cfg.SecretAccessKey,
			UsePathStyle: cfg.UsePathStyle,
		})
	}
	return localdir.New(cfg.BasePath)
}
