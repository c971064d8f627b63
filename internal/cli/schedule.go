package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"flightwatch/internal/config"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Keep running and check prices on a cron schedule",
	Long: `schedule runs the price check on the cron expression from --spec or
SCHEDULE (default "0 8,20 * * *"), evaluated in the configured timezone.
A run that is still in progress when the next one is due is skipped.`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().String("spec", "", "Cron expression, overrides SCHEDULE")
	scheduleCmd.Flags().Bool("now", false, "Run once immediately before waiting for the schedule")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	if spec, _ := cmd.Flags().GetString("spec"); spec != "" {
		cfg.Schedule = spec
	}

	tr, err := newTracker(cfg, logger, false, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	check := func() {
		if _, err := tr.Run(ctx); err != nil {
			logger.Error("run failed", "err", err)
		}
	}

	cronLogger := cron.PrintfLogger(logger.StandardLog())
	c := cron.New(
		cron.WithLocation(cfg.Location),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	if _, err := c.AddFunc(cfg.Schedule, check); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}

	if now, _ := cmd.Flags().GetBool("now"); now {
		check()
	}

	c.Start()
	logger.Info("scheduler started", "spec", cfg.Schedule, "tz", cfg.Location.String())

	<-ctx.Done()
	logger.Info("stopping scheduler")
	<-c.Stop().Done()
	return nil
}
