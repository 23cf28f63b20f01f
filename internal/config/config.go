package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Sheets    SheetsConfig
	Webhook   WebhookConfig
	MongoDB   MongoDBConfig
	Yield     YieldConfig
	Reporting ReportingConfig
	AI        AIConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// SheetsConfig contains configuration required to read reference data and
// history ranges from Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// WebhookConfig points at the Apps Script endpoint that owns shift writes.
// An empty URL disables remote persistence; the service then runs against
// local history alone.
type WebhookConfig struct {
	URL   string
	Token string
}

// MongoDBConfig holds settings for the local history store.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// YieldConfig describes the optional save gate on yield percentage.
type YieldConfig struct {
	GateEnabled bool
	MinPercent  int
	MaxPercent  int
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// AIConfig holds settings for the optional commentary provider.
type AIConfig struct {
	AnthropicKey string
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
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	gateEnabled, err := getenvBool("YIELD_GATE_ENABLED", false)
	if err != nil {
		return nil, err
	}
	minPercent, err := getenvInt("YIELD_MIN_PERCENT", 0)
	if err != nil {
		return nil, err
	}
	maxPercent, err := getenvInt("YIELD_MAX_PERCENT", 100)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Webhook: WebhookConfig{
			URL:   os.Getenv("APPS_SCRIPT_WEBHOOK_URL"),
			Token: os.Getenv("APPS_SCRIPT_TOKEN"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "sawshift"),
		},
		Yield: YieldConfig{
			GateEnabled: gateEnabled,
			MinPercent:  minPercent,
			MaxPercent:  maxPercent,
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "10 0 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Europe/Chisinau"),
		},
		AI: AIConfig{
			AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided")
	}

	if c.Sheets.SpreadsheetID == "" {
		return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided")
	}

	if c.Yield.GateEnabled && c.Yield.MinPercent > c.Yield.MaxPercent {
		return fmt.Errorf("YIELD_MIN_PERCENT %d exceeds YIELD_MAX_PERCENT %d", c.Yield.MinPercent, c.Yield.MaxPercent)
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, value)
	}
	return parsed, nil
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return parsed, nil
}
