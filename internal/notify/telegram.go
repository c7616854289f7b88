package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramPublisher sends notifications to a Telegram chat.
type TelegramPublisher struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramPublisher(token string, chatID int64) (*TelegramPublisher, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	return &TelegramPublisher{bot: bot, chatID: chatID}, nil
}

func (p *TelegramPublisher) Name() string { return "telegram" }

func (p *TelegramPublisher) Publish(_ context.Context, subject, message string) error {
	m := tgbotapi.NewMessage(p.chatID, subject+"\n\n"+message)
	if _, err := p.bot.Send(m); err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}
