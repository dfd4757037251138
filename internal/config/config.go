package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	ServerAddr    string
	JWTSecret     string
	AdminEmail    string
	AdminPassword string

	// StoreBackend picks the record-store adapter: airtable, postgres or
	// memory.
	StoreBackend    string
	AirtableBaseURL string
	AirtableAPIKey  string
	PostgresDSN     string

	WebhookURL     string
	TelegramToken  string
	TelegramChatID int64
}

// Load reads configuration from the environment, with .env supported for
// local development.
func Load() Config {
	godotenv.Load()

	chatID, _ := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64)

	return Config{
		ServerAddr:      getEnv("SERVER_ADDR", "0.0.0.0:8080"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AdminEmail:      os.Getenv("ADMIN_EMAIL"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
		StoreBackend:    getEnv("STORE_BACKEND", "airtable"),
		AirtableBaseURL: os.Getenv("AIRTABLE_BASE_URL"),
		AirtableAPIKey:  os.Getenv("AIRTABLE_API_KEY"),
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		WebhookURL:      os.Getenv("WEBHOOK_URL"),
		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:  chatID,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewLogger builds the process-wide sugared logger.
func NewLogger() *zap.SugaredLogger {
	return zap.Must(zap.NewProduction()).Sugar()
}
