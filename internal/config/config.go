package config

import (
	"os"
)

// Config holds all process-wide settings. It is populated once at
// startup and treated as read-only afterwards.
type Config struct {
	AppPort    string
	AppBaseURL string

	SessionSecret string

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string

	// ResendAPIKey empty means no real email delivery; magic links
	// are written to the log instead.
	ResendAPIKey string
	EmailFrom    string

	BackendAPIURL string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	WhoopClientID    string
	WhoopRedirectURL string
}

func Load() Config {

	cfg := Config{

		AppPort:    getenv("APP_PORT", "8080"),
		AppBaseURL: getenv("APP_BASE_URL", "http://localhost:8080"),

		SessionSecret: os.Getenv("SESSION_SECRET"),

		DatabaseDSN: os.Getenv("DATABASE_DSN"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		EmailFrom:    getenv("EMAIL_FROM", "login@localhost"),

		BackendAPIURL: os.Getenv("BACKEND_API_URL"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),

		WhoopClientID:    os.Getenv("WHOOP_CLIENT_ID"),
		WhoopRedirectURL: os.Getenv("WHOOP_REDIRECT_URL"),
	}

	return cfg

}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
