package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_PORT", "STORAGE_BACKEND", "SQLITE_PATH", "RECOGNITION_PROVIDER",
		"OPENROUTER_API_KEY", "OPENROUTER_BASE_URL", "OPENROUTER_MODEL", "APP_REFERER",
		"GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_BASE_URL", "ANTHROPIC_API_KEY", "ANTHROPIC_MODEL", "MAX_IMAGE_BYTES", "RECOGNITION_TIMEOUT",
		"GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID",
		"REPORT_CRON_SCHEDULE", "TIMEZONE", "MONGODB_URI", "MONGODB_DB_NAME", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "caltrack.db", cfg.Storage.SQLitePath)
	assert.Equal(t, ProviderOpenRouter, cfg.Recognition.Provider)
	assert.Equal(t, "anthropic/claude-3-haiku", cfg.Recognition.Model)
	assert.Equal(t, int64(5*1024*1024), cfg.Recognition.MaxImageBytes)
	assert.Equal(t, 60*time.Second, cfg.Recognition.Timeout)
	assert.Equal(t, "5 0 * * *", cfg.Reporting.CronSchedule)
	assert.False(t, cfg.Sheets.Enabled())
	assert.Empty(t, cfg.Recognition.APIKey())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BACKEND", "MongoDB")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("RECOGNITION_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("GEMINI_BASE_URL", "http://localhost:9090")
	t.Setenv("MAX_IMAGE_BYTES", "1024")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, BackendMongoDB, cfg.Storage.Backend)
	assert.Equal(t, "g-key", cfg.Recognition.APIKey())
	assert.Equal(t, "http://localhost:9090", cfg.Recognition.GeminiBaseURL)
	assert.Equal(t, int64(1024), cfg.Recognition.MaxImageBytes)

	loc, err := cfg.Reporting.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown backend":      {"STORAGE_BACKEND": "redis"},
		"mongo without uri":    {"STORAGE_BACKEND": "mongodb"},
		"unknown provider":     {"RECOGNITION_PROVIDER": "clip"},
		"bad image limit":      {"MAX_IMAGE_BYTES": "lots"},
		"negative image limit": {"MAX_IMAGE_BYTES": "-1"},
		"bad timeout":          {"RECOGNITION_TIMEOUT": "soon"},
		"half sheets config":   {"GOOGLE_SHEET_DATABASE_ID": "sheet-id"},
		"bad timezone":         {"TIMEZONE": "Mars/Olympus"},
		"bad cron":             {"REPORT_CRON_SCHEDULE": "every night"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load(missingEnvFile(t))
			assert.Error(t, err)
		})
	}
}

func TestAPIKeyFollowsProvider(t *testing.T) {
	rc := RecognitionConfig{OpenRouterKey: "or", GeminiKey: "gm", AnthropicKey: "an"}

	rc.Provider = ProviderOpenRouter
	assert.Equal(t, "or", rc.APIKey())
	rc.Provider = ProviderGemini
	assert.Equal(t, "gm", rc.APIKey())
	rc.Provider = ProviderAnthropic
	assert.Equal(t, "an", rc.APIKey())
}
