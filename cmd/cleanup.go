package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupDays int

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Purge changelog entries past the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sys, err := newSystem(ctx)
		if err != nil {
			return err
		}
		defer sys.close()

		days := cfg.Changelog.RetentionDays
		if cmd.Flags().Changed("days") {
			days = cleanupDays
		}

		deleted, err := sys.tracker.CleanupOldEntries(ctx, days)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d changelog entries older than %d days\n", deleted, days)
		return nil
	},
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 0, "retention window override in days")
	rootCmd.AddCommand(cleanupCmd)
}
