package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/example/ebbinghausbot/internal/scheduler"
	"github.com/example/ebbinghausbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrUpdatesClosed is returned by Run when Telegram stops delivering updates
var ErrUpdatesClosed = errors.New("updates channel closed")

// Bot represents the Telegram side of the application: it receives user
// messages and delivers replies and reminders.
type Bot struct {
	token   string
	config  *BotConfig
	sender  *tgbotapi.BotAPI
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewBot creates the outgoing client. Polling connections are opened by Run.
func NewBot(token string, config *BotConfig, logger *zap.Logger) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("bot token is not set")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = DefaultConfig().SendTimeout
	}
	if config.SendRatePerSecond <= 0 {
		config.SendRatePerSecond = DefaultConfig().SendRatePerSecond
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.APIEndpoint == "" {
		config.APIEndpoint = tgbotapi.APIEndpoint
	}

	client := &http.Client{Timeout: config.SendTimeout}
	sender, err := tgbotapi.NewBotAPIWithClient(token, config.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	logger.Info("authorized on account", zap.String("username", sender.Self.UserName))

	return &Bot{
		token:   token,
		config:  config,
		sender:  sender,
		limiter: rate.NewLimiter(rate.Limit(config.SendRatePerSecond), 1),
		logger:  logger,
	}, nil
}

// Run polls Telegram for updates and answers them through dialog until ctx is
// cancelled. Every call opens a fresh polling connection so a supervisor can
// call Run again after a failure.
func (b *Bot) Run(ctx context.Context, dialog *Dialog) error {
	poller, err := tgbotapi.NewBotAPIWithAPIEndpoint(b.token, b.config.APIEndpoint)
	if err != nil {
		return fmt.Errorf("unable to start polling: %w", err)
	}

	// Updates queued while the bot was down are stale by now
	if _, err := poller.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		b.logger.Warn("failed to drop pending updates", zap.Error(err))
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.PollTimeout
	updates := poller.GetUpdatesChan(updateConfig)
	defer poller.StopReceivingUpdates()

	b.logger.Info("polling for updates")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return ErrUpdatesClosed
			}
			go b.handleUpdate(ctx, dialog, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, dialog *Dialog, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic while handling update", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	message := update.Message
	if message == nil || message.From == nil || message.Chat == nil || message.Text == "" {
		return
	}

	reply := dialog.Handle(ctx, models.UserID(message.From.ID), message.Text)
	if err := b.send(ctx, tgbotapi.NewMessage(message.Chat.ID, reply)); err != nil {
		b.logger.Error("failed to send reply",
			zap.Int64("chat_id", message.Chat.ID),
			zap.Error(err))
	}
}

// SendReminder implements the scheduler.Notifier interface
func (b *Bot) SendReminder(ctx context.Context, reminder scheduler.Reminder) error {
	// In private chats the user ID is the chat ID
	msg := tgbotapi.NewMessage(int64(reminder.UserID), formatReminder(reminder, b.config.Location))
	return b.send(ctx, msg)
}

func (b *Bot) send(ctx context.Context, msg tgbotapi.Chattable) error {
	ctx, cancel := context.WithTimeout(ctx, b.config.SendTimeout)
	defer cancel()

	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("send rate limit: %w", err)
	}
	if _, err := b.sender.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

var _ scheduler.Notifier = (*Bot)(nil)
