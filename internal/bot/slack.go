package bot

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/slack-go/slack"
)

// Slack отправляет отчёт во входящий вебхук.
type Slack struct {
	webhookURL string
	client     *http.Client
}

func NewSlack(webhookURL string, client *http.Client) *Slack {
	if client == nil {
		client = http.DefaultClient
	}
	return &Slack{webhookURL: webhookURL, client: client}
}

func (s *Slack) Notify(ctx context.Context, text string) error {
	msg := &slack.WebhookMessage{Text: text}
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.client, msg); err != nil {
		return fmt.Errorf("failed to post slack webhook: %w", err)
	}
	return nil
}

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Fanout отправляет в основной канал и дублирует в остальные.
// Возвращается только ошибка основного, ошибки зеркал пишутся в лог.
type Fanout struct {
	Primary Notifier
	Mirrors []Notifier
	Logger  *log.Logger
}

func NewFanout(logger *log.Logger, primary Notifier, mirrors ...Notifier) *Fanout {
	return &Fanout{Primary: primary, Mirrors: mirrors, Logger: logger}
}

func (f *Fanout) Notify(ctx context.Context, text string) error {
	if err := f.Primary.Notify(ctx, text); err != nil {
		return err
	}

	for _, m := range f.Mirrors {
		if err := m.Notify(ctx, text); err != nil {
			f.Logger.Warn("mirror notification failed", "err", err)
		}
	}
	return nil
}
