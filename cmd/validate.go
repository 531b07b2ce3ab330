package cmd

import (
	"fmt"

	"github.com/KunevinnDokus/tourism-database-system/internal/source"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Analyze the current source file without touching any data",
	Long: `validate downloads the source file, runs the full change detection
pipeline against the live database and rehearses the apply inside a
transaction that is rolled back. The attempt is recorded as a DRY_RUN
run; no table row survives it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		applySourceFlags(cmd)

		sys, err := newSystem(ctx)
		if err != nil {
			return err
		}
		defer sys.close()

		result, err := sys.orch.RunValidation(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Source: %s\n", source.Describe(result.Source))
		printDetection(result.Detection)
		if result.DryRun != nil {
			printApply("Dry run", result.DryRun)
		}
		if !result.Detection.HasChanges() {
			fmt.Println("Database already matches the source file.")
		}
		return nil
	},
}

func init() {
	addSourceFlags(validateCmd)
	rootCmd.AddCommand(validateCmd)
}
