package notify

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"github.com/Kuzmenkoav1982/famcal/internal/reminder"
)

// MessageSender is the slice of the bot API the sink needs.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSink posts intents into a single household chat.
type TelegramSink struct {
	bot    MessageSender
	chatID int64
}

func NewTelegramSink(token string, chatID int64) (*TelegramSink, error) {
	if token == "" {
		return nil, errors.New("notify: telegram token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	bot.Debug = false
	return NewTelegramSinkWithSender(bot, chatID), nil
}

func NewTelegramSinkWithSender(bot MessageSender, chatID int64) *TelegramSink {
	return &TelegramSink{bot: bot, chatID: chatID}
}

func (t *TelegramSink) Notify(ctx context.Context, in reminder.Intent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	title, body := Message(in)
	text := title
	if body != "" {
		text += "\n" + body
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
