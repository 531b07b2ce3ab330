// Package cmd implements the tourism-update command line interface.
package cmd

import (
	"os"

	"github.com/KunevinnDokus/tourism-database-system/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfg config.Config

	configDir  string
	dbHost     string
	dbPort     int
	dbUser     string
	dbPassword string
	dbName     string
)

var rootCmd = &cobra.Command{
	Use:   "tourism-update",
	Short: "Incremental updates for the Flemish tourism database",
	Long: `tourism-update keeps a PostgreSQL copy of the Flemish tourism dataset
in sync with the published TTL export. It detects changes against the live
tables, applies them transactionally and keeps a full audit ledger.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configDir)
		if err != nil {
			return err
		}
		cfg = loaded

		if cmd.Flags().Changed("db-host") {
			cfg.Database.Host = dbHost
		}
		if cmd.Flags().Changed("db-port") {
			cfg.Database.Port = dbPort
		}
		if cmd.Flags().Changed("db-user") {
			cfg.Database.User = dbUser
		}
		if cmd.Flags().Changed("db-password") {
			cfg.Database.Password = dbPassword
		}
		if cmd.Flags().Changed("db-name") {
			cfg.Database.DBName = dbName
		}
		return nil
	},
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "directory containing config.yaml")
	rootCmd.PersistentFlags().StringVar(&dbHost, "db-host", "", "database host override")
	rootCmd.PersistentFlags().IntVar(&dbPort, "db-port", 0, "database port override")
	rootCmd.PersistentFlags().StringVar(&dbUser, "db-user", "", "database user override")
	rootCmd.PersistentFlags().StringVar(&dbPassword, "db-password", "", "database password override")
	rootCmd.PersistentFlags().StringVar(&dbName, "db-name", "", "database name override")
}
