package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mladen4o/ClovaLink/internal/cli/prompt"
	"github.com/mladen4o/ClovaLink/pkg/config"
	"github.com/mladen4o/ClovaLink/pkg/tenantconfig"
)

var (
	initForce       bool
	initNonInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively create a CoreVault configuration file",
	Long: `Walk through the backend, catalog, and HTTP settings needed to run
CoreVault, then write them to a config file.

Use --non-interactive to accept every default without prompting (useful in
scripted environments), or --force to overwrite an existing file.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "accept defaults without prompting")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.DefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		overwrite := initForce
		if !initNonInteractive {
			var err error
			overwrite, err = prompt.Confirm(fmt.Sprintf("%s already exists. Overwrite?", path), false)
			if err != nil {
				if errors.Is(err, prompt.ErrAborted) {
					fmt.Println("Aborted.")
					return nil
				}
				return err
			}
		}
		if !overwrite {
			return fmt.Errorf("refusing to overwrite %s without --force", path)
		}
	}

	cfg := config.Config{
		Logging:         config.LoggingConfig{Level: "info", Format: "text", Output: "stdout"},
		ShutdownTimeout: 30 * time.Second,
		Catalog:         config.CatalogConfig{Dialect: "sqlite", SQLitePath: "./corevault-catalog.db"},
		Backend:         config.BackendConfig{Kind: "localdir", BasePath: "./corevault-objects", ScratchDir: "./corevault-scratch"},
		TenantCache:     config.TenantCacheConfig{Path: "./corevault-tenant-cache"},
		Orchestrator:    config.OrchestratorConfig{PresignTTL: 15 * time.Minute, MaxAutoRenameProbes: 20},
		HTTP:            config.HTTPConfig{ListenAddr: ":8080", ReadTimeout: 30 * time.Second, WriteTimeout: 5 * time.Minute},
		Metrics:         config.MetricsConfig{Enabled: true, Port: 9090},
	}

	if !initNonInteractive {
		if err := promptForConfig(&cfg); err != nil {
			if errors.Is(err, prompt.ErrAborted) {
				fmt.Println("Aborted.")
				return nil
			}
			return err
		}
	}

	if err := config.Save(&cfg, path); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	fmt.Printf("Configuration written to: %s\n", path)

	if cfg.Admin.TenantID != "" {
		if err := seedAdminTenant(cfg); err != nil {
			return fmt.Errorf("init: seed admin tenant: %w", err)
		}
		fmt.Printf("Seeded tenant-config entry for tenant %q\n", cfg.Admin.TenantID)
	}

	fmt.Println("\nNext steps:")
	fmt.Println("  1. Point http.jwt_public_key_path at the RSA public key your identity provider signs tokens with")
	fmt.Println("  2. corevaultd migrate   # provision the catalog schema")
	fmt.Println("  3. corevaultd start")
	return nil
}

// seedAdminTenant writes an unrestricted tenantconfig.Entry for the admin
// tenant named during init, so the first deploy has at least one tenant
// the access engine and upload path recognize before an operator wires up
// real tenant provisioning.
func seedAdminTenant(cfg config.Config) error {
	store, err := tenantconfig.Open(cfg.TenantCache.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Put(context.Background(), tenantconfig.Entry{TenantID: cfg.Admin.TenantID})
}

func promptForConfig(cfg *config.Config) error {
	listenAddr, err := prompt.Input("HTTP listen address", cfg.HTTP.ListenAddr)
	if err != nil {
		return err
	}
	cfg.HTTP.ListenAddr = listenAddr

	jwtKeyPath, err := prompt.Input("Path to the JWT verification public key (PEM)", "")
	if err != nil {
		return err
	}
	cfg.HTTP.JWTPublicKeyPath = jwtKeyPath

	backendKind, err := prompt.SelectString("Object backend", []string{"localdir", "s3"})
	if err != nil {
		return err
	}
	cfg.Backend.Kind = backendKind
	if backendKind == "s3" {
		bucket, err := prompt.Input("S3 bucket", "")
		if err != nil {
			return err
		}
		region, err := prompt.Input("S3 region", "us-east-1")
		if err != nil {
			return err
		}
		cfg.Backend.Bucket, cfg.Backend.Region = bucket, region
	} else {
		basePath, err := prompt.Input("Local object directory", cfg.Backend.BasePath)
		if err != nil {
			return err
		}
		cfg.Backend.BasePath = basePath
	}

	catalogDialect, err := prompt.SelectString("Catalog database", []string{"sqlite", "postgres"})
	if err != nil {
		return err
	}
	cfg.Catalog.Dialect = catalogDialect
	if catalogDialect == "postgres" {
		host, err := prompt.Input("Postgres host", "localhost")
		if err != nil {
			return err
		}
		port, err := prompt.InputInt("Postgres port", 5432)
		if err != nil {
			return err
		}
		database, err := prompt.Input("Postgres database", "corevault")
		if err != nil {
			return err
		}
		user, err := prompt.Input("Postgres user", "corevault")
		if err != nil {
			return err
		}
		password, err := prompt.Input("Postgres password", "")
		if err != nil {
			return err
		}
		cfg.Catalog.Host, cfg.Catalog.Port, cfg.Catalog.Database = host, port, database
		cfg.Catalog.User, cfg.Catalog.Password = user, password
	}

	enableMetrics, err := prompt.Confirm("Enable Prometheus metrics endpoint", true)
	if err != nil {
		return err
	}
	cfg.Metrics.Enabled = enableMetrics

	seedAdmin, err := prompt.Confirm("Seed an initial admin tenant", true)
	if err != nil {
		return err
	}
	if seedAdmin {
		tenantID, err := prompt.Input("Admin tenant ID", "admin")
		if err != nil {
			return err
		}
		actorID, err := prompt.Input("Admin actor ID", "admin")
		if err != nil {
			return err
		}
		cfg.Admin.TenantID, cfg.Admin.ActorID = tenantID, actorID
	}

	return nil
}
