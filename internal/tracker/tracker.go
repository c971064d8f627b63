package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"flightwatch/internal/amadeus"
	"flightwatch/internal/config"
	"flightwatch/internal/history"
	"flightwatch/internal/obs"
	"flightwatch/internal/persist"
	"flightwatch/internal/report"
)

type Searcher interface {
	Token(ctx context.Context) (string, error)
	SearchOffers(ctx context.Context, token string, q amadeus.Query) (amadeus.Result, error)
}

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type Deps struct {
	Client   Searcher
	Store    *history.Store
	Notifier Notifier
	// по умолчанию persist.NopSink
	Sink persist.Sink
	// по умолчанию time.Now
	Clock  func() time.Time
	Logger *log.Logger
}

// Tracker выполняет проверку цен: авторизация, поиск по всем маршрутам
// и датам, обновление истории, отчёт и сохранение.
type Tracker struct {
	deps   Deps
	search config.Search
	limit  int
	loc    *time.Location
}

// RunResult - итог запуска.
type RunResult struct {
	RunID string
	// только записи этого запуска
	Entries []history.Entry
	// обрезанная история в том виде, в каком она записана
	History []history.Entry
	Message string
}

func New(cfg *config.Config, deps Deps) *Tracker {
	if deps.Sink == nil {
		deps.Sink = persist.NopSink{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	return &Tracker{
		deps:   deps,
		search: cfg.Search,
		limit:  cfg.HistorySize,
		loc:    loc,
	}
}

// Run выполняет одну полную проверку. Ошибки авторизации, поиска, записи
// истории и отправки фатальны. Непонятный ответ записывается без цены,
// ошибка сохранения только логируется.
func (t *Tracker) Run(ctx context.Context) (RunResult, error) {
	result := RunResult{RunID: uuid.NewString()}
	ctx = obs.WithRunID(ctx, result.RunID)
	logger := t.deps.Logger.With("run", result.RunID)

	logger.Info("run started", "routes", len(t.search.Routes), "dates", len(t.search.Dates), "keep", t.limit)

	token, err := t.deps.Client.Token(ctx)
	if err != nil {
		return result, fmt.Errorf("authenticate: %w", err)
	}

	for _, route := range t.search.Routes {
		for _, date := range t.search.Dates {
			res, err := t.deps.Client.SearchOffers(ctx, token, amadeus.Query{
				Origin:      route.Origin,
				Destination: route.Destination,
				Date:        date,
				Adults:      t.search.Adults,
				Max:         t.search.MaxResults,
				Currency:    t.search.Currency,
			})
			if err != nil {
				return result, err
			}

			e := t.entry(route, date, res)
			if e.HasPrice() {
				logger.Info("price found", "route", e.Route, "date", date, "price", report.Price(e))
			} else {
				logger.Warn("no price", "route", e.Route, "date", date, "detail", e.Details[0])
			}
			result.Entries = append(result.Entries, e)
		}
	}

	old, err := t.deps.Store.Load()
	if err != nil {
		logger.Warn("history unreadable, starting from empty", "path", t.deps.Store.Path(), "err", err)
		old = nil
	}

	result.History = history.Append(old, result.Entries, t.limit)
	if err := t.deps.Store.Save(result.History); err != nil {
		return result, fmt.Errorf("save history: %w", err)
	}
	if t.deps.Store.ReadOnly() {
		logger.Info("history left unchanged", "path", t.deps.Store.Path(), "entries", len(result.History))
	} else {
		logger.Info("history saved", "path", t.deps.Store.Path(), "entries", len(result.History))
	}

	result.Message = report.Format(result.History, t.loc)
	if err := t.deps.Notifier.Notify(ctx, result.Message); err != nil {
		return result, fmt.Errorf("notify: %w", err)
	}

	if err := t.deps.Sink.Persist(ctx, t.deps.Store.Path()); err != nil {
		logger.Warn("failed to persist history", "err", err)
	}

	logger.Info("run finished", "new", len(result.Entries))
	return result, nil
}

func (t *Tracker) entry(route config.Route, date string, res amadeus.Result) history.Entry {
	e := history.Entry{
		Timestamp: t.deps.Clock().In(t.loc),
		Route:     route.ID(),
		RouteName: route.DisplayName(),
		Date:      date,
		Details:   []string{},
	}

	switch r := res.(type) {
	case amadeus.Quote:
		e.Price = decimal.NewNullDecimal(r.Price)
		e.Currency = r.Currency
		if e.Currency == "" {
			e.Currency = t.search.Currency
		}
		for _, s := range r.Segments {
			e.Details = append(e.Details, report.SegmentLine(s))
		}
	case amadeus.Failure:
		e.Details = append(e.Details, report.ErrorLine(r))
	default:
		e.Details = append(e.Details, report.ErrorLine(fmt.Errorf("unexpected result %T", res)))
	}

	return e
}
