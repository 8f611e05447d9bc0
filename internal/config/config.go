package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Receipt sequence backends
const (
	SequenceBackendPostgres = "postgres"
	SequenceBackendRedis    = "redis"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	DatabaseURL string
	AutoMigrate bool

	// JWT
	JWTSecret string

	// Storage
	StoragePath string

	// Background Workers
	WorkerCount int

	// CORS
	AllowedOrigins []string

	// Email (Resend)
	ResendAPIKey     string
	FromEmail        string
	ReportRecipients []string

	// Sentry
	SentryDSN string

	// Finance
	BusinessTimezone     string
	Location             *time.Location
	ReceiptSequence      string
	RedisAddr            string
	ReceiptMaxRetries    int
	SummaryCacheTTL      time.Duration
	ReceiptBusinessName  string
	ReceiptBusinessTaxID string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Environment:          getEnv("ENVIRONMENT", "development"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		AutoMigrate:          getEnvAsBool("AUTO_MIGRATE", false),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		StoragePath:          getEnv("STORAGE_PATH", "./storage"),
		WorkerCount:          getEnvAsInt("WORKER_COUNT", 5),
		AllowedOrigins:       getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		ResendAPIKey:         getEnv("RESEND_API_KEY", ""),
		FromEmail:            getEnv("FROM_EMAIL", ""),
		ReportRecipients:     getEnvAsSlice("REPORT_RECIPIENTS", nil),
		SentryDSN:            getEnv("SENTRY_DSN", ""),
		BusinessTimezone:     getEnv("BUSINESS_TIMEZONE", "Asia/Bangkok"),
		ReceiptSequence:      strings.ToLower(getEnv("RECEIPT_SEQUENCE_BACKEND", SequenceBackendPostgres)),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		ReceiptMaxRetries:    getEnvAsInt("RECEIPT_MAX_RETRIES", 5),
		SummaryCacheTTL:      time.Duration(getEnvAsInt("SUMMARY_CACHE_TTL_MINUTES", 60)) * time.Minute,
		ReceiptBusinessName:  getEnv("RECEIPT_BUSINESS_NAME", "Studio"),
		ReceiptBusinessTaxID: getEnv("RECEIPT_BUSINESS_TAX_ID", ""),
	}

	// Validate required configuration
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// finalize validates the derived settings shared by every entrypoint
func (cfg *Config) finalize() error {
	if cfg.JWTSecret == "" && cfg.Environment == "production" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-in-production"
	}

	loc, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		return fmt.Errorf("invalid BUSINESS_TIMEZONE %q: %w", cfg.BusinessTimezone, err)
	}
	cfg.Location = loc

	switch cfg.ReceiptSequence {
	case SequenceBackendPostgres:
	case SequenceBackendRedis:
		if cfg.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when RECEIPT_SEQUENCE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown RECEIPT_SEQUENCE_BACKEND %q", cfg.ReceiptSequence)
	}

	if cfg.ReceiptMaxRetries < 1 {
		cfg.ReceiptMaxRetries = 1
	}

	return nil
}

// EmailEnabled reports whether monthly summary mails can be sent
func (cfg *Config) EmailEnabled() bool {
	return cfg.ResendAPIKey != "" && cfg.FromEmail != "" && len(cfg.ReportRecipients) > 0
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as integer
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool reads an environment variable as boolean
func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice reads an environment variable as comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
