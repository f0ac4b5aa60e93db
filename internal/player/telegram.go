package player

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	logx "adhan/pkg/logx"
)

type TelegramConfig struct {
	Token    string
	ChatID   int64
	ThreadID int
	// Template is a fmt format receiving the prayer name and "HH:MM".
	Template string
}

const defaultTelegramTemplate = "It's time for %s (%s)"

// sender is the subset of *tele.Bot used here.
type sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Telegram posts a notice to a chat or forum thread.
type Telegram struct {
	bot      sender
	chatID   int64
	threadID int
	template string
	log      logx.Logger
}

func NewTelegram(cfg TelegramConfig, log logx.Logger) (*Telegram, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat_id is required")
	}
	// Offline skips getMe at construction; the daemon only sends.
	b, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	return newTelegram(b, cfg, log), nil
}

func newTelegram(bot sender, cfg TelegramConfig, log logx.Logger) *Telegram {
	if log.IsZero() {
		log = logx.Nop()
	}
	tpl := cfg.Template
	if strings.TrimSpace(tpl) == "" {
		tpl = defaultTelegramTemplate
	}
	return &Telegram{
		bot:      bot,
		chatID:   cfg.ChatID,
		threadID: cfg.ThreadID,
		template: tpl,
		log:      log.With(logx.String("comp", "player.telegram")),
	}
}

func (t *Telegram) Text(sig Signal) string {
	return fmt.Sprintf(t.template, sig.Prayer, sig.At.Format("15:04"))
}

func (t *Telegram) Play(ctx context.Context, sig Signal) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPlayback, err)
	}
	start := time.Now()
	msg, err := t.bot.Send(&tele.Chat{ID: t.chatID}, t.Text(sig), &tele.SendOptions{ThreadID: t.threadID})
	if err != nil {
		return fmt.Errorf("%w: telegram: %v", ErrPlayback, err)
	}
	fields := []logx.Field{
		logx.Int64("chat_id", t.chatID),
		logx.Stringer("prayer", sig.Prayer),
		logx.Duration("took", time.Since(start)),
	}
	if msg != nil {
		fields = append(fields, logx.Int("message_id", msg.ID))
	}
	t.log.Debug("telegram notice sent", fields...)
	return nil
}
