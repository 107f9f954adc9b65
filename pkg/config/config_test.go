package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Files{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store != StoreJSONFile {
		t.Errorf("store: got %q, want %q", cfg.Store, StoreJSONFile)
	}
	if !cfg.Notifications {
		t.Error("notifications should default to enabled")
	}
	if cfg.Postgres.Port != 5432 {
		t.Errorf("postgres port: got %d, want 5432", cfg.Postgres.Port)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PAYSMS_STORE", "postgres")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("POSTGRES_DB", "ledger")
	t.Setenv("POSTGRES_USER", "u")
	t.Setenv("PAYSMS_NOTIFICATIONS", "false")
	t.Setenv("PAYSMS_CATEGORIES", "Rent, Food,,")
	t.Setenv("GMAIL_INTERVAL", "90s")
	t.Setenv("GMAIL_MARK_READ", "true")
	t.Setenv("PAYSMS_TIMEZONE", "Asia/Kolkata")

	cfg, err := Load(Files{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Postgres.Host != "db" || cfg.Postgres.Port != 6543 {
		t.Errorf("postgres: got %+v", cfg.Postgres)
	}
	if cfg.Notifications {
		t.Error("PAYSMS_NOTIFICATIONS=false not applied")
	}
	if got := strings.Join(cfg.Categories, "|"); got != "Rent|Food" {
		t.Errorf("categories: got %q, want Rent|Food", got)
	}
	if cfg.Gmail.Interval != 90*time.Second || !cfg.Gmail.MarkRead {
		t.Errorf("gmail: got %+v", cfg.Gmail)
	}

	loc, err := cfg.Location()
	if err != nil || loc.String() != "Asia/Kolkata" {
		t.Errorf("location: got %v, %v", loc, err)
	}
}

func TestLoad_FilePrecedence(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "config.json")
	if err := os.WriteFile(jsonPath, []byte(`{"PAYSMS_STORE":"memory","PAYSMS_INBOX_DIR":"from-json"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("PAYSMS_EXPORT_DIR=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PAYSMS_INBOX_DIR", "from-env")
	// Registered so the value godotenv sets is restored after the test.
	t.Setenv("PAYSMS_EXPORT_DIR", "")
	os.Unsetenv("PAYSMS_EXPORT_DIR")

	cfg, err := Load(Files{DotEnv: envPath, JSON: jsonPath})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Store != StoreMemory {
		t.Errorf("store: got %q, want memory from JSON", cfg.Store)
	}
	if cfg.InboxDir != "from-env" {
		t.Errorf("inbox: got %q, want environment to win", cfg.InboxDir)
	}
	if cfg.ExportDir != "from-dotenv" {
		t.Errorf("export: got %q, want value from .env", cfg.ExportDir)
	}
}

func TestLoad_MissingFiles(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(Files{DotEnv: filepath.Join(dir, ".env")}); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
	if _, err := Load(Files{JSON: filepath.Join(dir, "absent.json")}); err == nil {
		t.Error("missing JSON config should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown store", func(c *Config) { c.Store = "redis" }, "unknown PAYSMS_STORE"},
		{"unknown source", func(c *Config) { c.Source = "imap" }, "unknown PAYSMS_SOURCE"},
		{"postgres without host", func(c *Config) { c.Store = StorePostgres }, "POSTGRES_HOST"},
		{"mongo without uri", func(c *Config) { c.Store = StoreMongo }, "MONGO_URI"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "PAYSMS_TIMEZONE"},
		{"negative interval", func(c *Config) { c.Gmail.Interval = -time.Second }, "GMAIL_INTERVAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
