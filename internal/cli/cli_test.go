package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"flightwatch/internal/config"
	"flightwatch/internal/history"
)

type fakeAmadeus struct {
	searches atomic.Int32
}

func (f *fakeAmadeus) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/security/oauth2/token":
			io.WriteString(w, `{"access_token":"tok"}`)
		case "/v2/shopping/flight-offers":
			f.searches.Add(1)
			io.WriteString(w, `{"data":[{"price":{"total":"123.45","currency":"EUR"},"itineraries":[]}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}
}

func testConfig(t *testing.T, amadeusURL string) *config.Config {
	t.Helper()
	return &config.Config{
		BotToken:       "123:abc",
		ChatID:         "1",
		APIKey:         "key",
		APISecret:      "secret",
		AmadeusBaseURL: amadeusURL,
		HistoryFile:    filepath.Join(t.TempDir(), "history.json"),
		HistorySize:    6,
		Location:       time.UTC,
		HTTPTimeout:    5 * time.Second,
		Search: config.Search{
			Routes:     []config.Route{{Origin: "WAW", Destination: "BCN"}},
			Dates:      []string{"2026-12-01"},
			Adults:     1,
			MaxResults: 1,
			Currency:   "EUR",
		},
	}
}

func TestDryRunPrintsReport(t *testing.T) {
	fake := &fakeAmadeus{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)

	var out bytes.Buffer
	tr, err := newTracker(cfg, log.New(io.Discard), true, &out)
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	if _, err := tr.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if !strings.Contains(out.String(), "WAW → BCN | 2026-12-01 | 123.45 €") {
		t.Fatalf("unexpected report:\n%s", out.String())
	}
}

func TestDryRunLeavesHistoryUnchanged(t *testing.T) {
	fake := &fakeAmadeus{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	err := history.NewStore(cfg.HistoryFile).Save([]history.Entry{{
		Timestamp: time.Date(2026, 10, 18, 6, 0, 0, 0, time.UTC),
		Route:     "WAW-BCN",
		RouteName: "WAW → BCN",
		Date:      "2026-12-01",
		Details:   []string{},
	}})
	if err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(cfg.HistoryFile)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	tr, err := newTracker(cfg, log.New(io.Discard), true, &out)
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	res, err := tr.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.History) != 2 {
		t.Fatalf("report history = %d entries, want 2", len(res.History))
	}

	after, err := os.ReadFile(cfg.HistoryFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(after) != string(before) {
		t.Fatalf("dry run rewrote the history file:\n%s", after)
	}
}

func TestRejectedTelegramTokenStillRecordsPrices(t *testing.T) {
	fake := &fakeAmadeus{}
	amadeusSrv := httptest.NewServer(fake.handler(t))
	defer amadeusSrv.Close()

	var telegramCalls atomic.Int32
	telegramSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		telegramCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
	}))
	defer telegramSrv.Close()

	cfg := testConfig(t, amadeusSrv.URL)
	cfg.TelegramEndpoint = telegramSrv.URL + "/bot%s/%s"

	tr, err := newTracker(cfg, log.New(io.Discard), false, io.Discard)
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	if telegramCalls.Load() != 0 {
		t.Fatalf("telegram called %d times before the run", telegramCalls.Load())
	}

	if _, err := tr.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if fake.searches.Load() != 1 {
		t.Fatalf("searches = %d, want 1", fake.searches.Load())
	}
	if telegramCalls.Load() != 1 {
		t.Fatalf("telegram calls = %d, want 1 sendMessage", telegramCalls.Load())
	}

	entries, err := history.NewStore(cfg.HistoryFile).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 1 || !entries[0].HasPrice() {
		t.Fatalf("history = %+v", entries)
	}
}

func TestHistoryCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	err := history.NewStore(path).Save([]history.Entry{{
		Timestamp: time.Date(2026, 10, 19, 6, 0, 0, 0, time.UTC),
		Route:     "WAW-LIS",
		RouteName: "WAW → LIS",
		Date:      "2026-12-08",
		Details:   []string{"⚠️ error: no offers found"},
	}})
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	historyCmd.SetOut(&out)
	t.Cleanup(resetHistoryCmd)
	if err := historyCmd.Flags().Set("file", path); err != nil {
		t.Fatal(err)
	}
	if err := historyCmd.Flags().Set("tz", "UTC"); err != nil {
		t.Fatal(err)
	}

	if err := runHistory(historyCmd, nil); err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out.String(), "🕒 2026-10-19 06:00 | WAW → LIS | 2026-12-08 | no price") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestHistoryCommandEnvDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.json")
	err := history.NewStore(path).Save([]history.Entry{{
		Timestamp: time.Date(2026, 10, 19, 6, 0, 0, 0, time.UTC),
		Route:     "WAW-BCN",
		RouteName: "WAW → BCN",
		Date:      "2026-12-01",
		Details:   []string{},
	}})
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("HISTORY_FILE", path)
	t.Setenv("TZ", "")

	var out bytes.Buffer
	historyCmd.SetOut(&out)
	t.Cleanup(resetHistoryCmd)

	if err := runHistory(historyCmd, nil); err != nil {
		t.Fatalf("history: %v", err)
	}
	// 06:00 UTC - это 08:00 по Варшаве в октябре
	if !strings.Contains(out.String(), "🕒 2026-10-19 08:00 | WAW → BCN | 2026-12-01") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func resetHistoryCmd() {
	historyCmd.SetOut(nil)
	historyCmd.Flags().Set("file", "")
	historyCmd.Flags().Set("tz", "")
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "b", "c"); got != "b" {
		t.Fatalf("got %q", got)
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Fatalf("got %q", got)
	}
}
