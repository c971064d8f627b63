package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"flightwatch/internal/amadeus"
	"flightwatch/internal/bot"
	"flightwatch/internal/config"
	"flightwatch/internal/history"
	"flightwatch/internal/persist"
	"flightwatch/internal/tracker"
)

var (
	verbose bool
	rootCmd *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "flightwatch",
		Short: "Track flight prices and post them to Telegram",
		Long: `flightwatch checks the cheapest fare for each configured route and
departure date, keeps a short rolling history in a JSON file and posts
the history to a Telegram chat.

Routes and dates are read from flights.yaml (see FLIGHTS_CONFIG); secrets
come from the environment or a .env file.`,
		RunE:          runOnce, // по умолчанию один запуск
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().Bool("dry-run", false, "Print the report without sending it or writing the history file")
}

// Execute запускает корневую команду.
func Execute(version string) error {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(historyCmd)

	rootCmd.Version = version
	return rootCmd.Execute()
}

func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "flightwatch",
	})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	if verbose {
		lvl = log.DebugLevel
	}
	logger.SetLevel(lvl)
	log.SetDefault(logger)

	return logger
}

// printNotifier печатает отчёт в w вместо отправки.
type printNotifier struct {
	w io.Writer
}

func (p printNotifier) Notify(_ context.Context, text string) error {
	_, err := fmt.Fprintln(p.w, text)
	return err
}

// newTracker собирает трекер из конкретных адаптеров.
func newTracker(cfg *config.Config, logger *log.Logger, dryRun bool, out io.Writer) (*tracker.Tracker, error) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	client, err := amadeus.NewClient(httpClient, amadeus.Options{
		BaseURL:   cfg.AmadeusBaseURL,
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		Location:  cfg.Location,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	deps := tracker.Deps{
		Client: client,
		Store:  history.NewStore(cfg.HistoryFile),
		Logger: logger,
	}

	if dryRun {
		deps.Store = history.NewReadOnlyStore(cfg.HistoryFile)
		deps.Notifier = printNotifier{w: out}
		deps.Sink = persist.NopSink{}
		return tracker.New(cfg, deps), nil
	}

	telegram, err := bot.New(cfg.BotToken, cfg.ChatID, bot.Options{
		Endpoint:   cfg.TelegramEndpoint,
		HTTPClient: httpClient,
		Debug:      cfg.Debug,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	var mirrors []bot.Notifier
	if cfg.SlackWebhookURL != "" {
		mirrors = append(mirrors, bot.NewSlack(cfg.SlackWebhookURL, httpClient))
	}
	deps.Notifier = bot.NewFanout(logger, telegram, mirrors...)

	if cfg.CommitHistory {
		deps.Sink = persist.NewGitSink(cfg.RepoDir)
	}

	return tracker.New(cfg, deps), nil
}
