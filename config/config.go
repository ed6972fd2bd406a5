package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds process configuration. It is read once at startup and never
// mutated afterwards.
type Config struct {
	DatabaseURL        string
	OpenRouterAPIKey   string
	OpenRouterBaseURL  string
	ChatModel          string
	AuthSecret         string
	ClerkSigningSecret string
	Port               string

	// Deployment-level completion constants, not user-controllable.
	Temperature float32
	MaxTokens   int

	// RequestTimeout bounds one chat request end to end.
	RequestTimeout time.Duration
}

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "deepseek/deepseek-r1-0528:free"
)

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		OpenRouterAPIKey:   os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL:  getenv("OPENROUTER_BASE_URL", defaultBaseURL),
		ChatModel:          getenv("CHAT_MODEL", defaultModel),
		AuthSecret:         os.Getenv("AUTH_SECRET"),
		ClerkSigningSecret: os.Getenv("CLERK_SIGNING_SECRET"),
		Port:               getenv("PORT", "8080"),
		Temperature:        0.7,
		MaxTokens:          1024,
		RequestTimeout:     60 * time.Second,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY environment variable is required")
	}
	if cfg.AuthSecret == "" {
		return nil, fmt.Errorf("AUTH_SECRET environment variable is required")
	}
	if cfg.ClerkSigningSecret == "" {
		return nil, fmt.Errorf("CLERK_SIGNING_SECRET environment variable is required")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
