package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusDays int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database health and recent update runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sys, err := newSystem(ctx)
		if err != nil {
			return err
		}
		defer sys.close()

		status := sys.orch.Status(ctx)
		if !status.DatabaseHealthy {
			return fmt.Errorf("database unreachable: %s", status.DatabaseError)
		}
		fmt.Printf("Database %s: healthy\n", cfg.Database.DBName)

		runs, err := sys.tracker.RecentRuns(ctx, statusDays, 20)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Printf("No runs in the last %d days.\n", statusDays)
			return nil
		}

		fmt.Printf("%-38s %-20s %-10s %7s %7s %7s\n", "RUN", "STARTED", "STATUS", "ADDED", "UPDATED", "DELETED")
		for _, run := range runs {
			fmt.Printf("%-38s %-20s %-10s %7d %7d %7d\n",
				run.RunID, run.StartedAt.Format(time.RFC3339), run.Status,
				run.Counts.Added, run.Counts.Updated, run.Counts.Deleted)
			if run.ErrorMsg != "" {
				fmt.Printf("    %s\n", run.ErrorMsg)
			}
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusDays, "days", 30, "history window in days")
	rootCmd.AddCommand(statusCmd)
}
