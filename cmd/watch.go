package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/hourly-hadith/hadith-inspect/scheduler"
	"github.com/spf13/cobra"
)

const watchJobName = "inspect"

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	opts := &inspectOptions{}
	var schedule string
	var count int
	var now bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the inspection on a cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts, schedule, count, now)
		},
	}
	addInspectFlags(cmd, opts)
	cmd.Flags().StringVar(&schedule, "schedule", "@hourly", "Cron schedule (five fields or a descriptor such as @every 30m)")
	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many runs, 0 to run until interrupted")
	cmd.Flags().BoolVar(&now, "now", false, "Run once immediately before waiting for the schedule")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *inspectOptions, schedule string, count int, now bool) error {
	if err := scheduler.ValidateSchedule(schedule); err != nil {
		return err
	}
	if count < 0 {
		return fmt.Errorf("count must not be negative, got %d", count)
	}
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	collector := newCollector(opts)
	insp := newInspector(cmd, cfg, collector)

	var mu sync.Mutex
	runs := 0
	job := &scheduler.FuncJob{
		JobName: watchJobName,
		Fn: func() error {
			mu.Lock()
			defer mu.Unlock()
			if count > 0 && runs >= count {
				return nil
			}
			runs++
			fmt.Fprintf(cmd.OutOrStdout(), "\n=== Run %d at %s ===\n", runs, time.Now().UTC().Format(time.RFC3339))
			insp.Run(ctx)
			writeMetrics(opts, collector)
			if count > 0 && runs >= count {
				cancel()
			}
			return nil
		},
	}

	if now {
		if err := job.Execute(); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}

	cron := scheduler.NewCronScheduler()
	if err := cron.AddJob(schedule, job); err != nil {
		return err
	}
	cron.Start()
	log.Infof("Watching %s on schedule %q", cfg.BaseURL, schedule)

	<-ctx.Done()
	cron.Stop()

	mu.Lock()
	defer mu.Unlock()
	log.Infof("Stopped watching after %d runs", runs)
	return nil
}
