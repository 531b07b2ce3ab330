package cmd

import (
	"fmt"
	"time"

	"github.com/KunevinnDokus/tourism-database-system/internal/backup"
	"github.com/KunevinnDokus/tourism-database-system/internal/orchestrator"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	updateDryRun     bool
	updateForce      bool
	updateSkipBackup bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Download the source file, detect changes and apply them",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		applySourceFlags(cmd)
		if updateForce {
			cfg.Update.ForceUpdate = true
		}

		sys, err := newSystem(ctx)
		if err != nil {
			return err
		}
		defer sys.close()

		if cfg.Backup.Enabled && !updateDryRun && !updateSkipBackup {
			path, err := backup.New(cfg.Database, cfg.Backup.Directory, cfg.Backup.RetentionDays).Create(ctx)
			if err != nil {
				return fmt.Errorf("pre-update backup failed: %w", err)
			}
			fmt.Printf("Backup written to %s\n", path)
		}

		result, err := sys.orch.RunUpdate(ctx, updateDryRun)
		printUpdateResult(result)
		return err
	},
}

func printUpdateResult(result *orchestrator.Result) {
	switch result.Outcome {
	case orchestrator.OutcomeNoChanges:
		fmt.Println("Source is unchanged, no update needed.")
		return
	case orchestrator.OutcomeFailed:
		fmt.Printf("Update failed: %s\n", result.Error)
	}

	if result.Detection != nil {
		printDetection(result.Detection)
	}
	if result.DryRun != nil {
		printApply("Dry run", result.DryRun)
	}
	if result.Apply != nil {
		printApply("Apply", result.Apply)
	}
	if result.RunID != uuid.Nil {
		fmt.Printf("Run %s finished as %s in %s\n", result.RunID, result.Outcome, result.Duration.Round(time.Millisecond))
	}
}

func init() {
	updateCmd.Flags().BoolVar(&updateDryRun, "dry-run", false, "rehearse the update and roll everything back")
	updateCmd.Flags().BoolVar(&updateForce, "force", false, "run even if the source file is unchanged")
	updateCmd.Flags().BoolVar(&updateSkipBackup, "skip-backup", false, "skip the pre-update backup")
	addSourceFlags(updateCmd)
	rootCmd.AddCommand(updateCmd)
}
