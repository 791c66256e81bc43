package bot

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Long polling timeout in seconds
	PollTimeout int
	// Upper bound for a single outgoing message
	SendTimeout time.Duration
	// Outgoing messages per second, Telegram allows about 30
	SendRatePerSecond float64
	// Time zone for reading and showing dates
	Location *time.Location
	// Bot API URL template, token and method are substituted in
	APIEndpoint string
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		PollTimeout:       30,
		SendTimeout:       10 * time.Second,
		SendRatePerSecond: 25,
		Location:          time.Local,
		APIEndpoint:       tgbotapi.APIEndpoint,
	}
}
