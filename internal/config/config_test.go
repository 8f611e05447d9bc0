package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/studio")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("BUSINESS_TIMEZONE", "Asia/Bangkok")
	t.Setenv("RECEIPT_SEQUENCE_BACKEND", "")
	t.Setenv("REPORT_RECIPIENTS", " owner@studio.test , ,books@studio.test")
	t.Setenv("SUMMARY_CACHE_TTL_MINUTES", "15")
	t.Setenv("AUTO_MIGRATE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev-secret-change-in-production", cfg.JWTSecret)
	assert.Equal(t, "Asia/Bangkok", cfg.Location.String())
	assert.Equal(t, SequenceBackendPostgres, cfg.ReceiptSequence)
	assert.Equal(t, []string{"owner@studio.test", "books@studio.test"}, cfg.ReportRecipients)
	assert.Equal(t, 15*time.Minute, cfg.SummaryCacheTTL)
	assert.True(t, cfg.AutoMigrate)
	assert.False(t, cfg.EmailEnabled())
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.EqualError(t, err, "DATABASE_URL is required")
}

func TestFinalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "production requires jwt secret",
			cfg:     Config{Environment: "production", BusinessTimezone: "UTC", ReceiptSequence: SequenceBackendPostgres},
			wantErr: "JWT_SECRET is required in production",
		},
		{
			name:    "invalid timezone",
			cfg:     Config{JWTSecret: "s", BusinessTimezone: "Mars/Olympus", ReceiptSequence: SequenceBackendPostgres},
			wantErr: `invalid BUSINESS_TIMEZONE "Mars/Olympus"`,
		},
		{
			name:    "redis backend requires address",
			cfg:     Config{JWTSecret: "s", BusinessTimezone: "UTC", ReceiptSequence: SequenceBackendRedis},
			wantErr: "REDIS_ADDR is required when RECEIPT_SEQUENCE_BACKEND=redis",
		},
		{
			name:    "unknown backend",
			cfg:     Config{JWTSecret: "s", BusinessTimezone: "UTC", ReceiptSequence: "etcd"},
			wantErr: `unknown RECEIPT_SEQUENCE_BACKEND "etcd"`,
		},
		{
			name: "redis with address",
			cfg:  Config{JWTSecret: "s", BusinessTimezone: "UTC", ReceiptSequence: SequenceBackendRedis, RedisAddr: "localhost:6379"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.finalize()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.NotNil(t, tt.cfg.Location)
				assert.Equal(t, 1, tt.cfg.ReceiptMaxRetries)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "abc")
	t.Setenv("TEST_BOOL", "nope")

	assert.Equal(t, 7, getEnvAsInt("TEST_INT", 7))
	assert.True(t, getEnvAsBool("TEST_BOOL", true))
	assert.Equal(t, []string{"*"}, getEnvAsSlice("TEST_UNSET_SLICE", []string{"*"}))
}
