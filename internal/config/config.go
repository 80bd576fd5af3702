package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultRecipeAPIURL  = "https://api.edamam.com/search"
	DefaultDatabasePath  = "data/meal-calendar.db"
	DefaultPort          = "8080"
	DefaultLogLevel      = "info"
	DefaultSearchTimeout = 15 * time.Second
)

// Config holds the configuration for the application.
type Config struct {
	RecipeAPIURL  string
	RecipeAppID   string
	RecipeAppKey  string
	SearchTimeout time.Duration

	DatabasePath string
	Port         string
	LogLevel     string

	// Signs bearer tokens for the HTTP API. Empty disables auth.
	APISigningKey string

	GhostURL      string
	GhostAdminKey string

	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	LLMCachePath string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	appID := os.Getenv("RECIPE_APP_ID")
	if appID == "" {
		return nil, fmt.Errorf("RECIPE_APP_ID environment variable not set")
	}

	appKey := os.Getenv("RECIPE_APP_KEY")
	if appKey == "" {
		return nil, fmt.Errorf("RECIPE_APP_KEY environment variable not set")
	}

	searchTimeout := DefaultSearchTimeout
	if v := os.Getenv("SEARCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid SEARCH_TIMEOUT %q: must be a positive duration", v)
		}
		searchTimeout = d
	}

	allowed, err := parseIDList(os.Getenv("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS: %w", err)
	}

	var adminID int64
	if v := os.Getenv("ADMIN_TELEGRAM_ID"); v != "" {
		adminID, err = strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	return &Config{
		RecipeAPIURL:           getEnv("RECIPE_API_URL", DefaultRecipeAPIURL),
		RecipeAppID:            appID,
		RecipeAppKey:           appKey,
		SearchTimeout:          searchTimeout,
		DatabasePath:           getEnv("DATABASE_PATH", DefaultDatabasePath),
		Port:                   getEnv("PORT", DefaultPort),
		LogLevel:               getEnv("LOG_LEVEL", DefaultLogLevel),
		APISigningKey:          os.Getenv("API_SIGNING_KEY"),
		GhostURL:               os.Getenv("GHOST_API_URL"),
		GhostAdminKey:          os.Getenv("GHOST_ADMIN_API_KEY"),
		GeminiAPIKey:           os.Getenv("GEMINI_API_KEY"),
		GeminiModel:            os.Getenv("GEMINI_MODEL"),
		GroqAPIKey:             os.Getenv("GROQ_API_KEY"),
		LLMCachePath:           os.Getenv("LLM_CACHE_PATH"),
		TelegramBotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:     os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowedUserIDs: allowed,
		AdminTelegramID:        adminID,
	}, nil
}

// IsTelegramUserAllowed reports whether id may talk to the bot. An empty
// allow list lets everyone in.
func (c *Config) IsTelegramUserAllowed(id int64) bool {
	if len(c.TelegramAllowedUserIDs) == 0 {
		return true
	}
	for _, allowed := range c.TelegramAllowedUserIDs {
		if allowed == id {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
