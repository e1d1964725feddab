// Package config loads client settings from the environment; a .env file is
// honored when present.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL string // request/response calls
	ChannelURL string // persistent push channel
}

func Load() Config {
	_ = godotenv.Load() // a missing .env is fine
	return Config{
		APIBaseURL: getenv("WORDCHAIN_API_URL", "http://localhost:8080"),
		ChannelURL: getenv("WORDCHAIN_CHANNEL_URL", "ws://localhost:8080/channel"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
