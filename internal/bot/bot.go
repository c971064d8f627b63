package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Лимит Telegram на длину текста
const maxMessageLength = 4096

// Telegram отправляет отчёты в один чат.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
	// для чатов вида "@name" вместо chatID
	channel string
	logger  *log.Logger
}

type Options struct {
	// Endpoint заменяет tgbotapi.APIEndpoint, например для локального Bot API
	Endpoint   string
	HTTPClient tgbotapi.HTTPClient
	Debug      bool
	Logger     *log.Logger
}

func New(token, chatID string, opts Options) (*Telegram, error) {
	if opts.Endpoint == "" {
		opts.Endpoint = tgbotapi.APIEndpoint
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	if token == "" {
		return nil, errors.New("failed to create bot: empty token")
	}

	// Без getMe: отказ Telegram не должен останавливать проверку цен.
	api := &tgbotapi.BotAPI{
		Token:  token,
		Debug:  opts.Debug,
		Buffer: 100,
		Client: opts.HTTPClient,
	}
	api.SetAPIEndpoint(opts.Endpoint)

	t := &Telegram{api: api, logger: opts.Logger}
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		t.chatID = id
	} else {
		t.channel = chatID
	}

	return t, nil
}

func (t *Telegram) message(text string) tgbotapi.MessageConfig {
	var msg tgbotapi.MessageConfig
	if t.channel != "" {
		msg = tgbotapi.NewMessageToChannel(t.channel, text)
	} else {
		msg = tgbotapi.NewMessage(t.chatID, text)
	}
	msg.DisableWebPagePreview = true
	return msg
}

// Notify отправляет текст, при необходимости несколькими сообщениями.
// Отказ Bot API только логируется, ошибкой считается сбой транспорта.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	for _, part := range splitMessage(text, maxMessageLength) {
		if err := ctx.Err(); err != nil {
			return err
		}

		resp, err := t.api.Request(t.message(part))

		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) {
			t.logger.Error("telegram rejected message", "code", apiErr.Code, "description", apiErr.Message)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}

		t.logger.Info("telegram message sent", "ok", resp.Ok, "body", string(resp.Result))
	}

	return nil
}

// splitMessage режет текст по строкам так, чтобы каждая часть укладывалась
// в limit UTF-16 символов (так считает Telegram). Слишком длинная строка
// режется посередине.
func splitMessage(text string, limit int) []string {
	if utf16Len(text) <= limit {
		return []string{text}
	}

	var (
		parts   []string
		cur     strings.Builder
		n       int
		started bool
	)
	flush := func() {
		if started && cur.Len() > 0 {
			parts = append(parts, cur.String())
		}
		cur.Reset()
		n = 0
		started = false
	}

	for _, line := range strings.Split(text, "\n") {
		for utf16Len(line) > limit {
			flush()
			head, tail := cutUTF16(line, limit)
			parts = append(parts, head)
			line = tail
		}

		ln := utf16Len(line)
		if started && n+1+ln > limit {
			flush()
		}
		if started {
			cur.WriteByte('\n')
			n++
		}
		cur.WriteString(line)
		n += ln
		started = true
	}
	flush()

	return parts
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

func runeUnits(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}

// cutUTF16 возвращает самый длинный префикс s не длиннее limit единиц.
func cutUTF16(s string, limit int) (string, string) {
	n := 0
	for i, r := range s {
		u := runeUnits(r)
		if n+u > limit {
			return s[:i], s[i:]
		}
		n += u
	}
	return s, ""
}
