package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Storage drivers understood by repository.Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongoDB  = "mongodb"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Storage  StorageConfig
	Reminder ReminderConfig
	WhatsApp WhatsAppConfig
	Sheets   SheetsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig selects the zap level.
type LogConfig struct {
	Level string
}

// StorageConfig selects and addresses the session store backend.
type StorageConfig struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
	MongoDB     MongoDBConfig
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// ReminderConfig drives the daily digest job. Timezone also decides which
// calendar date counts as "today".
type ReminderConfig struct {
	CronSchedule string
	Timezone     string
	Recipient    string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	BaseURL       string
	APIVersion    string
}

// Enabled reports whether WhatsApp credentials were provided.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != ""
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	ExportRange     string
}

// Enabled reports whether the Google Sheets export is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" || c.SpreadsheetID != ""
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

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			Driver:      getenvWithDefault("STORAGE_DRIVER", DriverSQLite),
			SQLitePath:  getenvWithDefault("SQLITE_PATH", "incubator_sessions.db"),
			PostgresDSN: os.Getenv("POSTGRES_DSN"),
			MongoDB: MongoDBConfig{
				URI:    os.Getenv("MONGODB_URI"),
				DBName: getenvWithDefault("MONGODB_DB_NAME", "incubator"),
			},
		},
		Reminder: ReminderConfig{
			CronSchedule: getenvWithDefault("REMINDER_CRON_SCHEDULE", "0 7 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "UTC"),
			Recipient:    os.Getenv("REMINDER_RECIPIENT"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:   os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			ExportRange:     getenvWithDefault("SHEETS_EXPORT_RANGE", "Sessions!A:F"),
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

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("SQLITE_PATH must be provided")
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN must be provided when STORAGE_DRIVER=postgres")
		}
	case DriverMongoDB:
		if c.Storage.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided when STORAGE_DRIVER=mongodb")
		}
		if c.Storage.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must not be empty")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}

	if _, err := c.Reminder.Location(); err != nil {
		return err
	}
	if _, err := cron.ParseStandard(c.Reminder.CronSchedule); err != nil {
		return fmt.Errorf("invalid REMINDER_CRON_SCHEDULE %q: %w", c.Reminder.CronSchedule, err)
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
		case c.WhatsApp.VerifyToken == "":
			return errors.New("META_VERIFY_TOKEN must be provided")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if c.Sheets.Enabled() {
		if c.Sheets.CredentialsPath == "" {
			return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided")
		}
		if c.Sheets.SpreadsheetID == "" {
			return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided")
		}
		if c.Sheets.ExportRange == "" {
			return errors.New("SHEETS_EXPORT_RANGE must not be empty")
		}
	}

	return nil
}

// Location resolves the configured timezone.
func (c ReminderConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return nil, errors.New("TIMEZONE must be provided")
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
