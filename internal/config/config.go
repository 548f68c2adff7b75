package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/yesworId/BuyOrderBot/internal/budget"
)

var ErrMissingCredentials = errors.New("missing credentials in configuration")

// Config is the account and run configuration. Credentials live in a JSON
// file, with BOT_* environment variables (optionally from a .env file)
// overriding individual fields.
type Config struct {
	APIKey   string `json:"api_key"`
	Username string `json:"username"`
	Password string `json:"password"`
	Currency string `json:"currency"`

	BaseURL     string `json:"base_url"`
	ProxyURL    string `json:"proxy_url"`
	CatalogPath string `json:"catalog_path"`
	SessionPath string `json:"session_path"`
	JournalPath string `json:"journal_path"`

	LimitMultiplier int `json:"limit_multiplier"`

	MaxPasses       int `json:"max_passes"`
	MaxItemAttempts int `json:"max_item_attempts"`

	AttemptDelay      time.Duration `json:"-"`
	BalanceRetries    int           `json:"balance_retries"`
	BalanceRetryDelay time.Duration `json:"-"`
}

// Load reads the JSON config file and applies environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BaseURL:           "http://localhost:8080",
		CatalogPath:       "items.csv",
		SessionPath:       "session.json",
		JournalPath:       "placements.db",
		LimitMultiplier:   budget.DefaultLimitMultiplier,
		MaxPasses:         10,
		MaxItemAttempts:   3,
		AttemptDelay:      time.Second,
		BalanceRetries:    3,
		BalanceRetryDelay: 5 * time.Second,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.APIKey = envStr("BOT_API_KEY", cfg.APIKey)
	cfg.Username = envStr("BOT_USERNAME", cfg.Username)
	cfg.Password = envStr("BOT_PASSWORD", cfg.Password)
	cfg.Currency = envStr("BOT_CURRENCY", cfg.Currency)
	cfg.BaseURL = envStr("BOT_BASE_URL", cfg.BaseURL)
	cfg.ProxyURL = envStr("BOT_PROXY_URL", cfg.ProxyURL)
	cfg.CatalogPath = envStr("BOT_CATALOG_PATH", cfg.CatalogPath)
	cfg.SessionPath = envStr("BOT_SESSION_PATH", cfg.SessionPath)
	cfg.JournalPath = envStr("BOT_JOURNAL_PATH", cfg.JournalPath)
	cfg.LimitMultiplier = envInt("BOT_LIMIT_MULTIPLIER", cfg.LimitMultiplier)
	cfg.MaxPasses = envInt("BOT_MAX_PASSES", cfg.MaxPasses)
	cfg.MaxItemAttempts = envInt("BOT_MAX_ITEM_ATTEMPTS", cfg.MaxItemAttempts)

	return cfg, nil
}

// Validate rejects a configuration with any empty credential field. The run
// must abort before any network activity when credentials are incomplete.
func (c *Config) Validate() error {
	for field, value := range map[string]string{
		"api_key":  c.APIKey,
		"username": c.Username,
		"password": c.Password,
		"currency": c.Currency,
	} {
		if value == "" {
			return fmt.Errorf("%w: %s is empty", ErrMissingCredentials, field)
		}
	}
	if c.LimitMultiplier <= 0 {
		return fmt.Errorf("limit_multiplier must be positive, got %d", c.LimitMultiplier)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
