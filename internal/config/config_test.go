package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/go-entulho/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORAGE_DRIVER", "STORAGE_SLOT", "WEBHOOK_URL", "HIGHLIGHT_TTL", "OTEL_EXPORTER_OTLP_ENDPOINT"} {
		t.Setenv(k, "")
	}

	cfg := config.Load()

	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.StorageDriver != config.DriverFile {
		t.Errorf("expected file driver, got %s", cfg.StorageDriver)
	}
	if cfg.StorageSlot != "clients" {
		t.Errorf("expected slot clients, got %s", cfg.StorageSlot)
	}
	if cfg.WebhookURL != "" {
		t.Error("webhook must be disabled by default")
	}
	if cfg.HighlightTTL != 3*time.Second {
		t.Errorf("expected 3s highlight, got %v", cfg.HighlightTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("MAX_RETRIES", "not-a-number")
	t.Setenv("INITIAL_BACKOFF", "1s")

	cfg := config.Load()

	if cfg.Port != 9090 {
		t.Errorf("expected 9090, got %d", cfg.Port)
	}
	if cfg.StorageDriver != config.DriverSQLite {
		t.Errorf("expected sqlite, got %s", cfg.StorageDriver)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("invalid int should fall back to 3, got %d", cfg.MaxRetries)
	}
	if cfg.InitialBackoff != time.Second {
		t.Errorf("expected 1s, got %v", cfg.InitialBackoff)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")

	if err := config.Load().Validate(); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# local overrides\nSTORAGE_SLOT=from_file\nWEBHOOK_URL=\"http://hooks.local/entulho\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STORAGE_SLOT", "from_env")
	t.Setenv("WEBHOOK_URL", "")
	os.Unsetenv("WEBHOOK_URL")

	if err := config.LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	if got := os.Getenv("STORAGE_SLOT"); got != "from_env" {
		t.Errorf("environment must win, got %s", got)
	}
	if got := os.Getenv("WEBHOOK_URL"); got != "http://hooks.local/entulho" {
		t.Errorf("expected value from file, got %q", got)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := config.LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}
