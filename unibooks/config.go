package unibooks

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds client configuration loaded from environment variables.
type Config struct {
	BaseURL     string
	HTTPTimeout time.Duration
	LogLevel    string
}

// LoadConfig reads .env if present (ok if missing) and builds Config from
// environment with defaults.
func LoadConfig() *Config {
	_ = godotenv.Load()
	return &Config{
		BaseURL:     getenv("UNIBOOKS_API_URL", "http://localhost:3000"),
		HTTPTimeout: time.Duration(getenvInt("UNIBOOKS_HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		LogLevel:    getenv("UNIBOOKS_LOG_LEVEL", "info"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
