package cmd

import (
	"fmt"

	"github.com/KunevinnDokus/tourism-database-system/internal/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations to the configured database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		conn, err := db.NewConnection(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := db.RunMigrations(ctx, conn.Pool, cfg.MigrationsPath); err != nil {
			return err
		}
		fmt.Printf("Migrations applied to %s\n", cfg.Database.DBName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
