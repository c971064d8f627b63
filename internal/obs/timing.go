package obs

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

type ctxKey string

const runIDKey ctxKey = "run_id"

func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// Time пишет в лог длительность операции, когда вызвана возвращённая
// функция. Обычно через defer с указателем на именованную ошибку.
func Time(ctx context.Context, logger *log.Logger, name string) func(errp *error) {
	start := time.Now()
	runID := RunID(ctx)

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			logger.Warn("operation failed", "run", runID, "op", name, "dur", dur.Round(time.Millisecond), "err", *errp)
			return
		}
		logger.Debug("operation done", "run", runID, "op", name, "dur", dur.Round(time.Millisecond))
	}
}
