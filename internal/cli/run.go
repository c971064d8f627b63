package cli

import (
	"github.com/spf13/cobra"

	"flightwatch/internal/config"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Check prices once, update the history and send the report",
	RunE:  runOnce,
}

func init() {
	runCmd.Flags().Bool("dry-run", false, "Print the report without sending it or writing the history file")
}

func runOnce(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := config.New()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	tr, err := newTracker(cfg, logger, dryRun, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	res, err := tr.Run(cmd.Context())
	if err != nil {
		return err
	}

	logger.Info("done", "run", res.RunID, "checked", len(res.Entries), "history", len(res.History))
	return nil
}
