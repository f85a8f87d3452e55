package config

import (
	"log"
	"os"
)

type Config struct {
	Port string

	// Model hosting runtime serving the CLIP forward pass.
	HubURL   string
	HubToken string

	// Ordered model candidates: specialized Arabic CLIP first, generic
	// CLIP as fallback.
	PrimaryModel  string
	FallbackModel string

	// Optional Gemini feedback enricher.
	GeminiAPIKey string
	GeminiModel  string

	// Optional Postgres audit log.
	DatabaseURL string

	LogLevel  string
	LogFormat string

	// Telegram frontend (cmd/bot only).
	TelegramBotToken string
	WebhookURL       string
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8000"),

		HubURL:   mustEnv("CLIP_HUB_URL"),
		HubToken: getEnv("CLIP_HUB_TOKEN", ""),

		PrimaryModel:  getEnv("PRIMARY_MODEL", "Arabic-Clip/araclip"),
		FallbackModel: getEnv("FALLBACK_MODEL", "openai/clip-vit-base-patch32"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
	}
}
