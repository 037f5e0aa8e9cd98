package config

import (
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	"ENV", "HTTP_ADDR", "LOG_LEVEL", "STORE_BACKEND", "DB_DSN", "SQLITE_PATH", "MIGRATIONS_ENABLED",
	"SCHEDULER_TIMEZONE", "SESSION_BATCH_SIZE", "RESCHEDULE_INTERVAL",
	"AUTH_ISSUER_URL", "AUTH_CLIENT_ID", "AUTH_REQUIRED",
	"TELEGRAM_TOKEN", "TELEGRAM_OPERATOR_IDS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "postgres://localhost/therapy")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("expected development env, got %q", cfg.Environment)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected :8080, got %q", cfg.HTTPAddr)
	}
	if cfg.StoreBackend != BackendPostgres {
		t.Errorf("expected postgres backend, got %q", cfg.StoreBackend)
	}
	if !cfg.MigrationsEnabled {
		t.Error("expected migrations enabled by default")
	}
	if cfg.Timezone != time.UTC {
		t.Errorf("expected UTC, got %s", cfg.Timezone)
	}
	if cfg.SessionBatchSize != 500 {
		t.Errorf("expected batch size 500, got %d", cfg.SessionBatchSize)
	}
	if cfg.RescheduleInterval != 0 {
		t.Errorf("expected reschedule disabled, got %s", cfg.RescheduleInterval)
	}
	if cfg.AuthEnabled() {
		t.Error("expected auth disabled")
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("SESSION_BATCH_SIZE", "100")
	t.Setenv("RESCHEDULE_INTERVAL", "6h")
	t.Setenv("AUTH_ISSUER_URL", "https://issuer.example.com")
	t.Setenv("AUTH_CLIENT_ID", "scheduler")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("TELEGRAM_OPERATOR_IDS", "42, 1001,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.StoreBackend != BackendSQLite || cfg.SQLitePath != "/tmp/x.db" {
		t.Errorf("unexpected sqlite config %q %q", cfg.StoreBackend, cfg.SQLitePath)
	}
	if cfg.SessionBatchSize != 100 {
		t.Errorf("expected batch size 100, got %d", cfg.SessionBatchSize)
	}
	if cfg.RescheduleInterval != 6*time.Hour {
		t.Errorf("expected 6h, got %s", cfg.RescheduleInterval)
	}
	if !cfg.AuthEnabled() || !cfg.AuthRequired {
		t.Error("expected auth enabled and required")
	}
	if len(cfg.TelegramOperatorIDs) != 2 || cfg.TelegramOperatorIDs[0] != 42 || cfg.TelegramOperatorIDs[1] != 1001 {
		t.Errorf("unexpected operator ids %v", cfg.TelegramOperatorIDs)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"postgres without dsn", map[string]string{}, "DB_DSN is required"},
		{"unknown backend", map[string]string{"STORE_BACKEND": "mongo"}, "unknown STORE_BACKEND"},
		{"bad timezone", map[string]string{"STORE_BACKEND": "memory", "SCHEDULER_TIMEZONE": "Mars/Olympus"}, "SCHEDULER_TIMEZONE"},
		{"zero batch", map[string]string{"STORE_BACKEND": "memory", "SESSION_BATCH_SIZE": "0"}, "SESSION_BATCH_SIZE"},
		{"bad interval", map[string]string{"STORE_BACKEND": "memory", "RESCHEDULE_INTERVAL": "daily"}, "RESCHEDULE_INTERVAL"},
		{"half auth", map[string]string{"STORE_BACKEND": "memory", "AUTH_ISSUER_URL": "https://x"}, "must be set together"},
		{"required auth without issuer", map[string]string{"STORE_BACKEND": "memory", "AUTH_REQUIRED": "1"}, "AUTH_REQUIRED"},
		{"bad log level", map[string]string{"STORE_BACKEND": "memory", "LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"bad operator id", map[string]string{"STORE_BACKEND": "memory", "TELEGRAM_OPERATOR_IDS": "abc"}, "TELEGRAM_OPERATOR_IDS"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
