// Package commands implements the corevaultd CLI: a cobra root command
// wiring init/start/migrate/status as subcommands of a single daemon
// binary.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time by main.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "corevaultd",
	Short: "CoreVault - content-addressed, multi-tenant file storage core",
	Long: `corevaultd runs the CoreVault storage core: a content-addressed store,
metadata catalog, access decision engine, transfer scheduler, request
orchestrator, and share gateway behind one HTTP surface.

Use "corevaultd [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/corevault/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the --config flag value, empty if unset.
func GetConfigFile() string { return cfgFile }
