package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Telegram posts notifications to one chat, typically an organizers' group.
type Telegram struct {
	sender messageSender
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Telegram{sender: b, chatID: chatID}, nil
}

func (t *Telegram) Notify(ctx context.Context, n Notification) error {
	_, err := t.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   n.Title() + "\n" + n.Text(),
	})
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
