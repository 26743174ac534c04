package notifier

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"golang.org/x/time/rate"
	"tcu-monitor/internal/logging"
)

// Sender delivers one message to one chat. Satisfied by TelegramSender;
// tests substitute their own.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// TelegramSender sends messages through the Telegram bot API with a global
// rate limiter so bulk batches keep an inter-message delay.
type TelegramSender struct {
	bot     *bot.Bot
	limiter *rate.Limiter
	logger  *logging.Logger
}

// NewTelegramSender initializes the bot client once at startup; a bad token
// surfaces here as a startup error.
func NewTelegramSender(token string, ratePerMinute int, logger *logging.Logger) (*TelegramSender, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	return &TelegramSender{
		bot:     b,
		limiter: rate.NewLimiter(rate.Limit(float64(ratePerMinute)/60.0), 1),
		logger:  logger,
	}, nil
}

// Send waits for the rate limiter, then delivers the message.
func (t *TelegramSender) Send(ctx context.Context, chatID int64, text string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit wait failed: %w", err)
	}
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "Markdown",
	}
	if _, err := t.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send Telegram message to chat_id %d: %w", chatID, err)
	}
	return nil
}
