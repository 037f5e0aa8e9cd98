package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Бэкенды хранилища
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

type Config struct {
	Environment string `mapstructure:"ENV"`
	HTTPAddr    string `mapstructure:"HTTP_ADDR"`
	LogLevel    string `mapstructure:"LOG_LEVEL"` // пусто - уровень по окружению

	StoreBackend      string `mapstructure:"STORE_BACKEND"`
	DBDSN             string `mapstructure:"DB_DSN"`
	SQLitePath        string `mapstructure:"SQLITE_PATH"`
	MigrationsEnabled bool   `mapstructure:"MIGRATIONS_ENABLED"`

	Timezone           *time.Location `mapstructure:"SCHEDULER_TIMEZONE"`
	SessionBatchSize   int            `mapstructure:"SESSION_BATCH_SIZE"`
	RescheduleInterval time.Duration  `mapstructure:"RESCHEDULE_INTERVAL"` // 0 - не запускать

	AuthIssuerURL string `mapstructure:"AUTH_ISSUER_URL"`
	AuthClientID  string `mapstructure:"AUTH_CLIENT_ID"`
	AuthRequired  bool   `mapstructure:"AUTH_REQUIRED"`

	TelegramToken       string  `mapstructure:"TELEGRAM_TOKEN"`
	TelegramOperatorIDs []int64 `mapstructure:"TELEGRAM_OPERATOR_IDS"`
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	// Читаем напрямую из переменных окружения (после godotenv.Load они там)
	cfg := &Config{
		Environment:   getenv("ENV", "development"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		LogLevel:      strings.ToLower(os.Getenv("LOG_LEVEL")),
		StoreBackend:  strings.ToLower(getenv("STORE_BACKEND", BackendPostgres)),
		DBDSN:         os.Getenv("DB_DSN"),
		SQLitePath:    getenv("SQLITE_PATH", "therapy_scheduler.db"),
		AuthIssuerURL: os.Getenv("AUTH_ISSUER_URL"),
		AuthClientID:  os.Getenv("AUTH_CLIENT_ID"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
	}

	var err error

	if cfg.LogLevel != "" {
		if _, err = zapcore.ParseLevel(cfg.LogLevel); err != nil {
			return nil, fmt.Errorf("LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
	}

	if cfg.MigrationsEnabled, err = parseBool("MIGRATIONS_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.AuthRequired, err = parseBool("AUTH_REQUIRED", false); err != nil {
		return nil, err
	}

	tz := getenv("SCHEDULER_TIMEZONE", "UTC")
	if cfg.Timezone, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("SCHEDULER_TIMEZONE %q: %w", tz, err)
	}

	if cfg.SessionBatchSize, err = parseInt("SESSION_BATCH_SIZE", 500); err != nil {
		return nil, err
	}
	if cfg.SessionBatchSize <= 0 {
		return nil, fmt.Errorf("SESSION_BATCH_SIZE must be positive, got %d", cfg.SessionBatchSize)
	}

	if raw := os.Getenv("RESCHEDULE_INTERVAL"); raw != "" {
		if cfg.RescheduleInterval, err = time.ParseDuration(raw); err != nil {
			return nil, fmt.Errorf("RESCHEDULE_INTERVAL %q: %w", raw, err)
		}
	}

	if cfg.TelegramOperatorIDs, err = parseIDs("TELEGRAM_OPERATOR_IDS"); err != nil {
		return nil, err
	}

	// Проверяем обязательные поля
	switch cfg.StoreBackend {
	case BackendPostgres:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required but not set")
		}
	case BackendSQLite, BackendMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	if (cfg.AuthIssuerURL == "") != (cfg.AuthClientID == "") {
		return nil, fmt.Errorf("AUTH_ISSUER_URL and AUTH_CLIENT_ID must be set together")
	}
	if cfg.AuthRequired && cfg.AuthIssuerURL == "" {
		return nil, fmt.Errorf("AUTH_REQUIRED needs AUTH_ISSUER_URL and AUTH_CLIENT_ID")
	}

	log.Printf("Config loaded\n")

	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

// AuthEnabled включена ли проверка bearer-токенов
func (c *Config) AuthEnabled() bool {
	return c.AuthIssuerURL != "" && c.AuthClientID != ""
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBool(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s %q: %w", key, raw, err)
	}
	return v, nil
}

func parseInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", key, raw, err)
	}
	return v, nil
}

// parseIDs разбирает список telegram ID через запятую
func parseIDs(key string) ([]int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return nil, nil
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid id %q: %w", key, part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
