package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

const (
	DefaultTimezone       = "Europe/Warsaw"
	defaultAmadeusBaseURL = "https://test.api.amadeus.com"
	DefaultHistoryFile    = "history.json"
	defaultSearchFile     = "flights.yaml"
	defaultSchedule       = "0 8,20 * * *"
	defaultHTTPTimeout    = 30 * time.Second
)

type Config struct {
	BotToken  string
	ChatID    string
	APIKey    string
	APISecret string

	AmadeusBaseURL   string
	TelegramEndpoint string
	SlackWebhookURL  string

	HistoryFile string
	// Сколько записей держим в файле истории
	HistorySize int
	Timezone    string
	Location    *time.Location
	Search      Search

	CommitHistory bool
	RepoDir       string
	Schedule      string
	HTTPTimeout   time.Duration
	Debug         bool
	LogLevel      string
}

// New читает окружение (с .env, если он есть) и файл маршрутов.
func New() (*Config, error) {
	LoadDotEnv()

	var missing []string
	required := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := &Config{
		BotToken:  required("BOT_TOKEN"),
		ChatID:    required("CHAT_ID"),
		APIKey:    required("AMADEUS_API_KEY"),
		APISecret: required("AMADEUS_API_SECRET"),

		AmadeusBaseURL:   getEnv("AMADEUS_BASE_URL", defaultAmadeusBaseURL),
		TelegramEndpoint: os.Getenv("TELEGRAM_API_ENDPOINT"),
		SlackWebhookURL:  os.Getenv("SLACK_WEBHOOK_URL"),

		HistoryFile: getEnv("HISTORY_FILE", DefaultHistoryFile),
		Timezone:    getEnv("TZ", DefaultTimezone),

		CommitHistory: getEnvAsBool("COMMIT_HISTORY", false),
		RepoDir:       getEnv("GIT_REPO_DIR", "."),
		Schedule:      getEnv("SCHEDULE", defaultSchedule),
		HTTPTimeout:   getEnvAsDuration("HTTP_TIMEOUT", defaultHTTPTimeout),
		Debug:         getEnvAsBool("BOT_DEBUG", false),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	search, err := LoadSearch(getEnv("FLIGHTS_CONFIG", defaultSearchFile))
	if err != nil {
		return nil, err
	}
	cfg.Search = search

	cfg.HistorySize = search.HistorySize
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = len(search.Routes) * len(search.Dates)
	}
	if v := os.Getenv("HISTORY_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid HISTORY_SIZE %q: must be a positive integer", v)
		}
		cfg.HistorySize = n
	}

	return cfg, nil
}

// LoadDotEnv подгружает .env, если он есть. Уже заданные переменные не
// перезаписываются.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file loaded", "err", err)
	}
}

// HistoryFileFromEnv и TimezoneFromEnv используют те же значения по
// умолчанию, что и New, но не требуют секретов.
func HistoryFileFromEnv() string {
	return getEnv("HISTORY_FILE", DefaultHistoryFile)
}

func TimezoneFromEnv() string {
	return getEnv("TZ", DefaultTimezone)
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
