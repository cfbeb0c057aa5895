package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var managedKeys = []string{
	"APP_PORT", "LOG_LEVEL", "STORAGE_DRIVER", "SQLITE_PATH", "POSTGRES_DSN",
	"MONGODB_URI", "MONGODB_DB_NAME", "REMINDER_CRON_SCHEDULE", "TIMEZONE",
	"REMINDER_RECIPIENT", "WHATSAPP_TOKEN", "WHATSAPP_PHONE_NUMBER_ID",
	"META_VERIFY_TOKEN", "WHATSAPP_BASE_URL", "WHATSAPP_API_VERSION",
	"GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID", "SHEETS_EXPORT_RANGE",
}

// clearEnv blanks every variable Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedKeys {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("unexpected port %s", cfg.Server.Port)
	}
	if cfg.Storage.Driver != DriverSQLite || cfg.Storage.SQLitePath != "incubator_sessions.db" {
		t.Fatalf("unexpected storage %+v", cfg.Storage)
	}
	if cfg.Reminder.CronSchedule != "0 7 * * *" || cfg.Reminder.Timezone != "UTC" {
		t.Fatalf("unexpected reminder %+v", cfg.Reminder)
	}
	if cfg.WhatsApp.Enabled() || cfg.Sheets.Enabled() {
		t.Fatal("optional integrations must be disabled by default")
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	for _, key := range managedKeys {
		_ = os.Unsetenv(key)
	}

	path := filepath.Join(t.TempDir(), "test.env")
	content := strings.Join([]string{
		"APP_PORT=9090",
		"STORAGE_DRIVER=postgres",
		"POSTGRES_DSN=postgres://localhost/incubator?sslmode=disable",
		"TIMEZONE=Europe/Rome",
		"WHATSAPP_TOKEN=token",
		"WHATSAPP_PHONE_NUMBER_ID=123",
		"META_VERIFY_TOKEN=verify",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Storage.Driver != DriverPostgres {
		t.Fatalf("env file not applied: %+v", cfg)
	}
	if !cfg.WhatsApp.Enabled() || cfg.WhatsApp.APIVersion != "v20.0" {
		t.Fatalf("unexpected whatsapp config %+v", cfg.WhatsApp)
	}
	loc, err := cfg.Reminder.Location()
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	if loc.String() != "Europe/Rome" {
		t.Fatalf("unexpected location %s", loc)
	}
}

func TestLoadMissingEnvFileIsTolerated(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("expected missing env file to be ignored, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080"},
			Storage:  StorageConfig{Driver: DriverSQLite, SQLitePath: "x.db"},
			Reminder: ReminderConfig{CronSchedule: "0 7 * * *", Timezone: "UTC"},
			WhatsApp: WhatsAppConfig{BaseURL: "https://graph.facebook.com", APIVersion: "v20.0"},
			Sheets:   SheetsConfig{ExportRange: "Sessions!A:F"},
		}
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: "APP_PORT"},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "redis" }, wantErr: "STORAGE_DRIVER"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Storage.Driver = DriverPostgres }, wantErr: "POSTGRES_DSN"},
		{name: "mongo without uri", mutate: func(c *Config) { c.Storage.Driver = DriverMongoDB }, wantErr: "MONGODB_URI"},
		{name: "bad cron", mutate: func(c *Config) { c.Reminder.CronSchedule = "every day" }, wantErr: "REMINDER_CRON_SCHEDULE"},
		{name: "bad timezone", mutate: func(c *Config) { c.Reminder.Timezone = "Mars/Olympus" }, wantErr: "TIMEZONE"},
		{name: "whatsapp partial", mutate: func(c *Config) { c.WhatsApp.AccessToken = "t" }, wantErr: "WHATSAPP_PHONE_NUMBER_ID"},
		{name: "sheets partial", mutate: func(c *Config) { c.Sheets.SpreadsheetID = "sheet" }, wantErr: "GOOGLE_SHEETS_CREDENTIALS_PATH"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error mentioning %s, got %v", tc.wantErr, err)
			}
		})
	}

	var nilCfg *Config
	if err := nilCfg.Validate(); err == nil {
		t.Fatal("expected error for nil config")
	}
}
