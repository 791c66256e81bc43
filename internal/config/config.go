package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file named by APP_ENV_FILE (or .env by default).
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("APP_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing env file is fine, the process environment still applies
	_ = godotenv.Load(envFile)
	return nil
}

// BotToken returns the Telegram bot token
func BotToken() string {
	if token := os.Getenv("BOT_TOKEN"); token != "" {
		return token
	}
	return os.Getenv("TELEGRAM_BOT_TOKEN")
}

// DataFile returns the path of the JSON data file.
// Defaults to "user_data.json" if not set.
func DataFile() string {
	p := os.Getenv("DATA_FILE")
	if p == "" {
		return "user_data.json"
	}
	return p
}

// StorageDriver returns the persistence backend.
// Valid values: json, sqlite3, postgres
func StorageDriver() string {
	d := os.Getenv("STORAGE_DRIVER")
	if d == "" {
		return "json"
	}
	return d
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func HTTPPort() int {
	port, err := strconv.Atoi(os.Getenv("HTTP_PORT"))
	if err != nil || port <= 0 {
		return 5000
	}
	return port
}

func HTTPAddr() string {
	return fmt.Sprintf(":%d", HTTPPort())
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// LogFile returns the rotated log file path, empty for console only
func LogFile() string {
	return os.Getenv("LOG_FILE")
}

func IsProduction() bool {
	return os.Getenv("APP_ENV") == "production"
}

func ResyncInterval() time.Duration {
	return durationOr("RESYNC_INTERVAL", 6*time.Hour)
}

// SendRatePerSecond returns how many messages per second may go to Telegram.
// Defaults to 25 if not set.
func SendRatePerSecond() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("SEND_RATE_PER_SEC"), 64)
	if err != nil || rps <= 0 {
		return 25
	}
	return rps
}

func SendTimeout() time.Duration {
	return durationOr("SEND_TIMEOUT", 10*time.Second)
}

// DialogIdleTimeout returns how long an unfinished dialog is kept.
// Zero keeps dialogs for the process lifetime.
func DialogIdleTimeout() time.Duration {
	return durationOr("DIALOG_IDLE_TIMEOUT", 0)
}

func RestartDelay() time.Duration {
	return durationOr("RESTART_DELAY", 30*time.Second)
}

func durationOr(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
