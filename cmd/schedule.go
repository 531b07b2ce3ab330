package cmd

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/KunevinnDokus/tourism-database-system/internal/backup"
	"github.com/KunevinnDokus/tourism-database-system/internal/scheduler"
	"github.com/spf13/cobra"
)

var scheduleCron string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run updates on a cron cadence until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sys, err := newSystem(ctx)
		if err != nil {
			return err
		}
		defer sys.close()

		spec := cfg.Schedule.Cron
		if cmd.Flags().Changed("cron") {
			spec = scheduleCron
		}

		sched := scheduler.New()
		err = sched.Add(spec, "scheduled update", func(jobCtx context.Context) error {
			if cfg.Backup.Enabled {
				if _, err := backup.New(cfg.Database, cfg.Backup.Directory, cfg.Backup.RetentionDays).Create(jobCtx); err != nil {
					return fmt.Errorf("pre-update backup failed: %w", err)
				}
			}
			_, err := sys.orch.RunUpdate(jobCtx, false)
			return err
		})
		if err != nil {
			return fmt.Errorf("invalid cron spec %q: %w", spec, err)
		}

		log.Printf("scheduling updates with spec %q", spec)
		sched.Start()
		<-ctx.Done()
		sched.Stop()
		log.Println("scheduler stopped")
		return nil
	},
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "cron spec override")
	rootCmd.AddCommand(scheduleCmd)
}
