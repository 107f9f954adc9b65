// Package config loads paysms settings from a .env file, an optional JSON
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	kJson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ClientSecretFile is the default path to the Google OAuth credentials JSON file.
const ClientSecretFile = "data/client_secret.json"

// Store backends.
const (
	StoreMemory   = "memory"
	StoreJSONFile = "jsonfile"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// Message sources.
const (
	SourceJSONL = "jsonl"
	SourceMbox  = "mbox"
	SourceGmail = "gmail"
)

// Config holds the application configuration.
type Config struct {
	// Store selects the record store backend.
	// Environment variable: PAYSMS_STORE
	Store string `koanf:"PAYSMS_STORE"`

	// DataFile is the jsonfile store path.
	// Environment variable: PAYSMS_DATA_FILE
	DataFile string `koanf:"PAYSMS_DATA_FILE"`

	// Source selects where the daemon reads messages from.
	// Environment variable: PAYSMS_SOURCE
	Source string `koanf:"PAYSMS_SOURCE"`

	// SourcePath is the input file for the jsonl and mbox sources.
	// Environment variable: PAYSMS_SOURCE_PATH
	SourcePath string `koanf:"PAYSMS_SOURCE_PATH"`

	// InboxDir holds pending review payloads.
	// Environment variable: PAYSMS_INBOX_DIR
	InboxDir string `koanf:"PAYSMS_INBOX_DIR"`

	// Notifications gates delivery into the inbox.
	// Environment variable: PAYSMS_NOTIFICATIONS
	Notifications bool `koanf:"PAYSMS_NOTIFICATIONS"`

	// ExportDir receives CSV exports.
	// Environment variable: PAYSMS_EXPORT_DIR
	ExportDir string `koanf:"PAYSMS_EXPORT_DIR"`

	// Timezone is an IANA name used to interpret message dates.
	// Environment variable: PAYSMS_TIMEZONE
	Timezone string `koanf:"PAYSMS_TIMEZONE"`

	// Categories overrides the category suggestions (comma separated).
	// Environment variable: PAYSMS_CATEGORIES
	Categories []string `koanf:"PAYSMS_CATEGORIES"`

	// SecretsFile is the Google OAuth client secret.
	// Environment variable: PAYSMS_CLIENT_SECRET
	SecretsFile string `koanf:"PAYSMS_CLIENT_SECRET"`

	Postgres PostgresConfig `koanf:",squash"`
	Mongo    MongoConfig    `koanf:",squash"`
	Gmail    GmailConfig    `koanf:",squash"`
	Sheets   SheetsConfig   `koanf:",squash"`
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	Host        string `koanf:"POSTGRES_HOST"`
	Port        int    `koanf:"POSTGRES_PORT"`
	Database    string `koanf:"POSTGRES_DB"`
	User        string `koanf:"POSTGRES_USER"`
	Password    string `koanf:"POSTGRES_PASSWORD"`
	SSLMode     string `koanf:"POSTGRES_SSLMODE"`
	MaxPoolSize int    `koanf:"POSTGRES_MAX_POOL_SIZE"`
}

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI      string `koanf:"MONGO_URI"`
	Database string `koanf:"MONGO_DB"`
}

// GmailConfig holds Gmail source configuration.
type GmailConfig struct {
	Query    string        `koanf:"GMAIL_QUERY"`
	Interval time.Duration `koanf:"GMAIL_INTERVAL"`
	MarkRead bool          `koanf:"GMAIL_MARK_READ"`
}

// SheetsConfig holds Google Sheets export configuration.
type SheetsConfig struct {
	ID    string `koanf:"GSHEETS_ID"`
	Title string `koanf:"GSHEETS_TITLE"`
	Name  string `koanf:"GSHEETS_NAME"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Store:         StoreJSONFile,
		DataFile:      "data/transactions.json",
		Source:        SourceJSONL,
		InboxDir:      "data/inbox",
		Notifications: true,
		ExportDir:     "data/export",
		Timezone:      "Local",
		SecretsFile:   ClientSecretFile,
		Postgres: PostgresConfig{
			Port:    5432,
			SSLMode: "disable",
		},
		Mongo: MongoConfig{
			Database: "paysms",
		},
		Sheets: SheetsConfig{
			Title: "paysms transactions",
			Name:  "Sheet1",
		},
	}
}

// Files names the optional files Load reads before the environment.
type Files struct {
	// DotEnv is loaded into the process environment when it exists.
	DotEnv string
	// JSON is a flat JSON object keyed like the environment variables.
	// When set, the file must exist.
	JSON string
}

// DefaultFiles reads .env from the working directory and no JSON file.
func DefaultFiles() Files {
	return Files{DotEnv: ".env"}
}

// Load builds a Config from defaults, files and the environment, then
// validates it.
func Load(files Files) (Config, error) {
	if files.DotEnv != "" {
		if err := godotenv.Load(files.DotEnv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", files.DotEnv, err)
		}
	}

	k := koanf.New(".")

	if files.JSON != "" {
		if err := k.Load(file.Provider(files.JSON), kJson.Parser()); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", files.JSON, err)
		}
	}

	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return Config{}, fmt.Errorf("loading config from environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Categories = cleanList(cfg.Categories)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerations and the settings the selected backends need.
func (c Config) Validate() error {
	var errs []error

	switch c.Store {
	case StoreMemory:
	case StoreJSONFile:
		if c.DataFile == "" {
			errs = append(errs, errors.New("PAYSMS_DATA_FILE is required for the jsonfile store"))
		}
	case StorePostgres:
		if c.Postgres.Host == "" || c.Postgres.Database == "" || c.Postgres.User == "" {
			errs = append(errs, errors.New("POSTGRES_HOST, POSTGRES_DB and POSTGRES_USER are required for the postgres store"))
		}
	case StoreMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PAYSMS_STORE %q", c.Store))
	}

	switch c.Source {
	case SourceJSONL, SourceMbox, SourceGmail:
	default:
		errs = append(errs, fmt.Errorf("unknown PAYSMS_SOURCE %q", c.Source))
	}

	if c.Gmail.Interval < 0 {
		errs = append(errs, errors.New("GMAIL_INTERVAL must not be negative"))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Location resolves Timezone. An empty value means the local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading PAYSMS_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// NeedsSourcePath reports whether the selected source reads a file.
func (c Config) NeedsSourcePath() bool {
	return c.Source == SourceJSONL || c.Source == SourceMbox
}

// SecretsAvailable reports whether the OAuth client secret file exists.
func (c Config) SecretsAvailable() bool {
	_, err := os.Stat(c.SecretsFile)
	return err == nil
}

// cleanList splits comma separated entries and drops blanks.
func cleanList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, s := range strings.Split(item, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
