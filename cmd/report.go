package cmd

import (
	"fmt"

	"github.com/KunevinnDokus/tourism-database-system/internal/report"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	reportOutput string
	reportDays   int
	reportRun    string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export run history or one run's changes to XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sys, err := newSystem(ctx)
		if err != nil {
			return err
		}
		defer sys.close()

		writer := report.NewWriter(sys.tracker)

		if reportRun != "" {
			runID, err := uuid.Parse(reportRun)
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", reportRun, err)
			}
			if err := writer.WriteRunDetail(ctx, reportOutput, runID); err != nil {
				return err
			}
		} else {
			if err := writer.WriteRunHistory(ctx, reportOutput, reportDays); err != nil {
				return err
			}
		}

		fmt.Printf("Report written to %s\n", reportOutput)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "update-report.xlsx", "output file path")
	reportCmd.Flags().IntVar(&reportDays, "days", 30, "history window in days")
	reportCmd.Flags().StringVar(&reportRun, "run", "", "export one run's full changelog instead of history")
	rootCmd.AddCommand(reportCmd)
}
