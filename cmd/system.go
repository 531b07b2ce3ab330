package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/KunevinnDokus/tourism-database-system/internal/db"
	"github.com/KunevinnDokus/tourism-database-system/internal/detector"
	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
	"github.com/KunevinnDokus/tourism-database-system/internal/ledger"
	"github.com/KunevinnDokus/tourism-database-system/internal/orchestrator"
	"github.com/KunevinnDokus/tourism-database-system/internal/snapshot"
	"github.com/KunevinnDokus/tourism-database-system/internal/source"
	"github.com/KunevinnDokus/tourism-database-system/internal/updater"
	"github.com/spf13/cobra"
)

var (
	sourceURL  string
	sourceFile string
)

// addSourceFlags registers the source overrides on commands that fetch
// the TTL export.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sourceURL, "source-url", "", "source file URL override")
	cmd.Flags().StringVar(&sourceFile, "source-file", "", "use a local TTL file instead of downloading")
}

func applySourceFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("source-url") {
		cfg.Source.URL = sourceURL
	}
	if cmd.Flags().Changed("source-file") {
		cfg.Source.LocalFile = sourceFile
	}
}

// system bundles the wired components every command draws from.
type system struct {
	conn    *db.Connection
	tracker *ledger.Tracker
	orch    *orchestrator.Orchestrator
}

func newSystem(ctx context.Context) (*system, error) {
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Database.DBName, err)
	}

	tracker := ledger.NewTracker(conn.Pool)

	engine := detector.NewEngine(
		snapshot.New(cfg.Database, cfg.MigrationsPath),
		cfg.Database.DBName,
		detector.PgRowSource{Q: conn.Pool},
	)

	processor := updater.NewProcessor(
		updater.PoolBeginner{Pool: conn.Pool},
		tracker,
		cfg.Update.BatchSize,
	)

	var acquirer orchestrator.Acquirer
	if cfg.Source.LocalFile != "" {
		acquirer = source.NewLocal(cfg.Source.LocalFile)
	} else {
		acquirer = source.New(
			cfg.Source.URL,
			time.Duration(cfg.Source.DownloadTimeout)*time.Second,
			cfg.Source.MaxRetries,
			time.Duration(cfg.Source.RetryDelay)*time.Second,
		)
	}

	orch := orchestrator.New(acquirer, engine, processor, tracker, orchestrator.Options{
		DryRunFirst: cfg.Update.DryRunFirst,
		ForceUpdate: cfg.Update.ForceUpdate,
	})

	return &system{conn: conn, tracker: tracker, orch: orch}, nil
}

func (s *system) close() {
	s.conn.Close()
}

func printDetection(detection *domain.ChangeDetectionResult) {
	fmt.Printf("Detected %d changes (%s):\n", detection.TotalChanges, detection.DetectionTime.Round(time.Millisecond))
	for _, table := range domain.CoreTables {
		summary := detection.Summary[table]
		if summary.Total() == 0 {
			continue
		}
		fmt.Printf("  %-20s +%d ~%d -%d\n", table,
			summary[domain.OpInsert], summary[domain.OpUpdate], summary[domain.OpDelete])
	}
}

func printApply(label string, result *domain.UpdateResult) {
	fmt.Printf("%s: %d processed, %d applied, %d failed in %s\n",
		label, result.RecordsProcessed, result.RecordsApplied, result.RecordsFailed,
		result.ProcessingTime.Round(time.Millisecond))
	for _, msg := range result.ErrorMessages {
		fmt.Printf("  error: %s\n", msg)
	}
}
