package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppEnv  string
	Port    string
	SiteURL string

	// Database
	DBDriver    string // "postgres" or "sqlite"
	DatabaseURL string

	// Security
	SessionSecret string
	JWTSecret     string
	JWTExpiry     time.Duration
	CORSOrigins   []string

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// Generative text
	LLMBaseURL string
	LLMToken   string
	LLMModel   string
	LLMTimeout time.Duration

	// Feed cache
	RedisAddr    string
	FeedCacheTTL time.Duration

	// Observability
	SentryDSN string
	LogFile   string

	// Day rollover
	DailyResetEnabled bool
	DailyResetHour    int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppEnv:  envString("APP_ENV", "development"),
		Port:    envString("PORT", "8080"),
		SiteURL: envString("SITE_URL", "http://localhost:8080"),

		DBDriver:    envString("DB_DRIVER", "postgres"),
		DatabaseURL: envString("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=streaksync port=5432 sslmode=disable"),

		SessionSecret: envString("SESSION_SECRET", "secret_key_change_me"),
		JWTSecret:     envString("JWT_SECRET", "jwt_secret_change_me"),
		JWTExpiry:     envDuration("JWT_EXPIRY", 168*time.Hour),
		CORSOrigins:   envList("CORS_ORIGINS", []string{"http://localhost:3000"}),

		GoogleClientID:     envString("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: envString("GOOGLE_CLIENT_SECRET", ""),

		LLMBaseURL: envString("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMToken:   envString("LLM_TOKEN", ""),
		LLMModel:   envString("LLM_MODEL", "gpt-4o-mini"),
		LLMTimeout: envDuration("LLM_TIMEOUT", 20*time.Second),

		RedisAddr:    envString("REDIS_ADDR", ""),
		FeedCacheTTL: envDuration("FEED_CACHE_TTL", 30*time.Second),

		SentryDSN: envString("SENTRY_DSN", ""),
		LogFile:   envString("LOG_FILE", ""),

		DailyResetEnabled: envBool("DAILY_RESET_ENABLED", false),
		DailyResetHour:    envInt("DAILY_RESET_HOUR", 0),
	}

	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction refuses to start with the development secrets.
func validateProduction(cfg *Config) {
	if cfg.SessionSecret == "secret_key_change_me" || cfg.JWTSecret == "jwt_secret_change_me" {
		slog.Error("production deployment requires SESSION_SECRET and JWT_SECRET")
		os.Exit(1)
	}
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		slog.Error("production deployment requires GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList splits a comma separated value, dropping empty entries.
func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
