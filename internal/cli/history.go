package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"flightwatch/internal/config"
	"flightwatch/internal/history"
	"flightwatch/internal/report"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the stored price history",
	Long: `history renders the history file exactly as it would be sent.
It needs no credentials and makes no network calls.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("file", "", "History file (default HISTORY_FILE or history.json)")
	historyCmd.Flags().String("tz", "", "Timezone for timestamps (default TZ or Europe/Warsaw)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	config.LoadDotEnv()

	path, _ := cmd.Flags().GetString("file")
	path = firstNonEmpty(path, config.HistoryFileFromEnv())

	tz, _ := cmd.Flags().GetString("tz")
	tz = firstNonEmpty(tz, config.TimezoneFromEnv())
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", tz, err)
	}

	entries, err := history.NewStore(path).Load()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.Format(entries, loc))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
