package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Storage backends.
const (
	BackendSQLite  = "sqlite"
	BackendMongoDB = "mongodb"
	BackendMemory  = "memory"
)

// Recognition providers.
const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderAnthropic  = "anthropic"
)

// Config represents the full application configuration surface.
type Config struct {
	Server      ServerConfig
	Storage     StorageConfig
	Recognition RecognitionConfig
	Sheets      SheetsConfig
	Reporting   ReportingConfig
	MongoDB     MongoDBConfig
	LogLevel    string
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// StorageConfig selects where the profile and ledger snapshots live.
type StorageConfig struct {
	Backend    string
	SQLitePath string
}

// RecognitionConfig holds settings for the food image analysis provider.
type RecognitionConfig struct {
	Provider       string
	OpenRouterKey  string
	BaseURL        string
	Model          string
	Referer        string
	GeminiKey      string
	GeminiModel    string
	GeminiBaseURL  string
	AnthropicKey   string
	AnthropicModel string
	MaxImageBytes  int64
	Timeout        time.Duration
}

// APIKey returns the credential for the selected provider.
func (r RecognitionConfig) APIKey() string {
	switch r.Provider {
	case ProviderGemini:
		return r.GeminiKey
	case ProviderAnthropic:
		return r.AnthropicKey
	default:
		return r.OpenRouterKey
	}
}

// SheetsConfig contains configuration required to export summaries to Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether both sheet settings are present.
func (s SheetsConfig) Enabled() bool {
	return s.CredentialsPath != "" && s.SpreadsheetID != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// Location resolves the configured timezone.
func (r ReportingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(r.Timezone)
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	maxImage, err := getenvInt64("MAX_IMAGE_BYTES", 5*1024*1024)
	if err != nil {
		return nil, err
	}
	timeout, err := getenvDuration("RECOGNITION_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Storage: StorageConfig{
			Backend:    strings.ToLower(getenvWithDefault("STORAGE_BACKEND", BackendSQLite)),
			SQLitePath: getenvWithDefault("SQLITE_PATH", "caltrack.db"),
		},
		Recognition: RecognitionConfig{
			Provider:       strings.ToLower(getenvWithDefault("RECOGNITION_PROVIDER", ProviderOpenRouter)),
			OpenRouterKey:  os.Getenv("OPENROUTER_API_KEY"),
			BaseURL:        getenvWithDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Model:          getenvWithDefault("OPENROUTER_MODEL", "anthropic/claude-3-haiku"),
			Referer:        getenvWithDefault("APP_REFERER", "http://localhost:8080"),
			GeminiKey:      os.Getenv("GEMINI_API_KEY"),
			GeminiModel:    getenvWithDefault("GEMINI_MODEL", "gemini-2.5-flash"),
			GeminiBaseURL:  os.Getenv("GEMINI_BASE_URL"),
			AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
			AnthropicModel: getenvWithDefault("ANTHROPIC_MODEL", "claude-3-haiku-20240307"),
			MaxImageBytes:  maxImage,
			Timeout:        timeout,
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "5 0 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Local"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "caltrack"),
		},
		LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
// A missing recognition key is not an error: the analysis call reports it instead.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Storage.Backend {
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("SQLITE_PATH must not be empty")
		}
	case BackendMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided when STORAGE_BACKEND=mongodb")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.Storage.Backend)
	}

	switch c.Recognition.Provider {
	case ProviderOpenRouter:
		if c.Recognition.BaseURL == "" {
			return errors.New("OPENROUTER_BASE_URL must not be empty")
		}
	case ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported RECOGNITION_PROVIDER %q", c.Recognition.Provider)
	}

	if c.Recognition.MaxImageBytes <= 0 {
		return errors.New("MAX_IMAGE_BYTES must be positive")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be set together")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}
	if _, err := cron.ParseStandard(c.Reporting.CronSchedule); err != nil {
		return fmt.Errorf("invalid REPORT_CRON_SCHEDULE %q: %w", c.Reporting.CronSchedule, err)
	}

	if _, err := c.Reporting.Location(); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Reporting.Timezone, err)
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt64(key string, fallback int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
