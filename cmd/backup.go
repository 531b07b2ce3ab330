package cmd

import (
	"fmt"

	"github.com/KunevinnDokus/tourism-database-system/internal/backup"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a pg_dump backup and prune old dump files",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager := backup.New(cfg.Database, cfg.Backup.Directory, cfg.Backup.RetentionDays)

		path, err := manager.Create(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Backup written to %s\n", path)

		pruned, err := manager.Prune()
		if err != nil {
			return err
		}
		if pruned > 0 {
			fmt.Printf("Pruned %d old backups\n", pruned)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
}
