package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mladen4o/ClovaLink/pkg/catalog/postgres"
	"github.com/mladen4o/ClovaLink/pkg/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Provision the catalog database schema",
	Long: `Connect to the configured catalog database and run its GORM
auto-migration, creating or updating the tables the metadata catalog needs.

A sqlite catalog has no separate migration step (postgres.New already
migrates on every startup) — this command exists mainly for postgres
deployments where an operator wants schema changes applied ahead of a
rolling restart.`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if cfg.Catalog.Dialect != "postgres" && cfg.Catalog.SQLitePath == "" {
		fmt.Println("catalog is in-memory; nothing to migrate")
		return nil
	}

	dialect := postgres.DialectSQLite
	if cfg.Catalog.Dialect == "postgres" {
		dialect = postgres.DialectPostgres
	}

	if _, err := postgres.New(postgres.Config{
		Dialect: dialect, SQLitePath: cfg.Catalog.SQLitePath,
		Host: cfg.Catalog.Host, Port: cfg.Catalog.Port, Database: cfg.Catalog.Database,
		User: cfg.Catalog.User, Password: cfg.Catalog.Password, SSLMode: cfg.Catalog.SSLMode,
		MaxOpenConns: cfg.Catalog.MaxOpenConns, MaxIdleConns: cfg.Catalog.MaxIdleConns,
	}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	fmt.Printf("Catalog schema up to date (%s)\n", cfg.Catalog.Dialect)
	return nil
}
