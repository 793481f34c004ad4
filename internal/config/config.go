package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends selectable at startup.
const (
	StorageMongo  = "mongodb"
	StorageMemory = "memory"
)

// Config represents the full application configuration surface.
type Config struct {
	Server     ServerConfig
	MongoDB    MongoDBConfig
	Auth       AuthConfig
	Admin      AdminConfig
	Cloudinary CloudinaryConfig
	Sheets     SheetsConfig
	Reporting  ReportingConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port     string
	Storage  string
	LogLevel string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// AuthConfig carries token signing secrets and lifetimes.
type AuthConfig struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

// AdminConfig describes the bootstrap admin account guaranteed to exist at
// process start.
type AdminConfig struct {
	UserName string
	FullName string
	Email    string
	Password string
}

// CloudinaryConfig contains credentials for the image storage collaborator.
// An empty CloudName disables image handling entirely.
type CloudinaryConfig struct {
	BaseURL   string
	CloudName string
	APIKey    string
	APISecret string
}

// SheetsConfig contains configuration for the spreadsheet report export.
// An empty SpreadsheetID disables the export.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	ReportRange     string
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule     string
	ExpiryWindowDays int
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

	expiryWindow, err := strconv.Atoi(getenvWithDefault("REPORT_EXPIRY_WINDOW_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_EXPIRY_WINDOW_DAYS: %w", err)
	}

	accessTTL, err := time.ParseDuration(getenvWithDefault("ACCESS_TOKEN_TTL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACCESS_TOKEN_TTL: %w", err)
	}

	refreshTTL, err := time.ParseDuration(getenvWithDefault("REFRESH_TOKEN_TTL", "240h"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_TOKEN_TTL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getenvWithDefault("APP_PORT", "8080"),
			Storage:  getenvWithDefault("APP_STORAGE", StorageMongo),
			LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "biostorex"),
		},
		Auth: AuthConfig{
			AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
			RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
			AccessTokenTTL:     accessTTL,
			RefreshTokenTTL:    refreshTTL,
		},
		Admin: AdminConfig{
			UserName: getenvWithDefault("ADMIN_USERNAME", "admin"),
			FullName: getenvWithDefault("ADMIN_FULLNAME", "System Administrator"),
			Email:    getenvWithDefault("ADMIN_EMAIL", "admin@biostorex.com"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
		Cloudinary: CloudinaryConfig{
			BaseURL:   getenvWithDefault("CLOUDINARY_BASE_URL", "https://api.cloudinary.com"),
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_REPORT_ID"),
			ReportRange:     getenvWithDefault("GOOGLE_SHEET_REPORT_RANGE", "Inventory!A:G"),
		},
		Reporting: ReportingConfig{
			CronSchedule:     getenvWithDefault("REPORT_CRON_SCHEDULE", "0 8 * * 1"),
			ExpiryWindowDays: expiryWindow,
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

	switch c.Server.Storage {
	case StorageMongo, StorageMemory:
	default:
		return fmt.Errorf("APP_STORAGE must be %q or %q", StorageMongo, StorageMemory)
	}

	if c.Server.Storage == StorageMongo && c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}

	switch {
	case c.Auth.AccessTokenSecret == "":
		return errors.New("ACCESS_TOKEN_SECRET must be provided")
	case c.Auth.RefreshTokenSecret == "":
		return errors.New("REFRESH_TOKEN_SECRET must be provided")
	}

	if c.Admin.Password == "" {
		return errors.New("ADMIN_PASSWORD must be provided")
	}

	if c.Cloudinary.CloudName != "" {
		switch {
		case c.Cloudinary.APIKey == "":
			return errors.New("CLOUDINARY_API_KEY must be provided when CLOUDINARY_CLOUD_NAME is set")
		case c.Cloudinary.APISecret == "":
			return errors.New("CLOUDINARY_API_SECRET must be provided when CLOUDINARY_CLOUD_NAME is set")
		}
	}

	if c.Sheets.SpreadsheetID != "" && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when GOOGLE_SHEET_REPORT_ID is set")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if c.Reporting.ExpiryWindowDays <= 0 {
		return errors.New("REPORT_EXPIRY_WINDOW_DAYS must be positive")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
