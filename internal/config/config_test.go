package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `{"api_key":"k","username":"u","password":"p","currency":"USD"}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.LimitMultiplier != 10 {
		t.Errorf("LimitMultiplier = %d, want 10", cfg.LimitMultiplier)
	}
	if cfg.CatalogPath != "items.csv" || cfg.MaxPasses != 10 || cfg.MaxItemAttempts != 3 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `{"api_key":"k","username":"u","password":"p","currency":"USD"}`)
	t.Setenv("BOT_CURRENCY", "EUR")
	t.Setenv("BOT_LIMIT_MULTIPLIER", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Currency != "EUR" {
		t.Errorf("Currency = %s, want EUR", cfg.Currency)
	}
	if cfg.LimitMultiplier != 5 {
		t.Errorf("LimitMultiplier = %d, want 5", cfg.LimitMultiplier)
	}
}

func TestValidateRejectsMissingCredentials(t *testing.T) {
	path := writeConfig(t, `{"api_key":"k","username":"u","password":"","currency":"USD"}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("want ErrMissingCredentials, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("want error for missing config file")
	}
}
