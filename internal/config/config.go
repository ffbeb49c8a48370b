package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	S3       S3Config
	Storage  StorageConfig
	Mail     MailConfig
	Import   ImportConfig
	Realtime RealtimeConfig
	Jobs     JobsConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
	AutoMigrate     bool
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"

	// File, when set, receives a rotated copy of every log line.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// APIKey guards the administrative endpoints.
	APIKey    string
	JWTSecret string
	TokenTTL  time.Duration
	LinkTTL   time.Duration
	SiteURL   string
}

// S3Config holds AWS S3 configuration for product images and export snapshots.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "stockroom/")
}

// StorageConfig holds local file storage configuration.
type StorageConfig struct {
	Dir     string
	BaseURL string
}

// MailConfig holds SMTP configuration. Mail is disabled when Host is empty.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// ImportConfig holds CSV import and export limits.
type ImportConfig struct {
	ChunkSize   int
	ExportLimit int
	MaxUploadMB int
}

// RealtimeConfig controls the PostgreSQL change listener.
type RealtimeConfig struct {
	Enabled bool
	Channel string
}

// JobsConfig holds scheduled job configuration.
type JobsConfig struct {
	// SnapshotSchedule is a cron expression for the export snapshot job.
	// Empty disables the job.
	SnapshotSchedule string
	// DriftSchedule is a cron expression for the ledger drift check.
	// Empty disables the job.
	DriftSchedule string
	Timezone      string
}

// Load loads configuration from environment variables, reading a .env file
// first when one is present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "stockroom"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
			AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Logger: LoggerConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_FILE_MAX_SIZE_MB", 100),
			MaxBackups: getEnvAsInt("LOG_FILE_MAX_BACKUPS", 5),
		},
		Auth: AuthConfig{
			APIKey:    getEnv("API_KEY", ""),
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvAsDuration("JWT_TTL", 12*time.Hour),
			LinkTTL:   getEnvAsDuration("AUTH_LINK_TTL", 24*time.Hour),
			SiteURL:   getEnv("SITE_URL", "http://localhost:3000"),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "us-east-1"),
			Prefix:  getEnv("S3_PREFIX", "stockroom/"),
		},
		Storage: StorageConfig{
			Dir:     getEnv("STORAGE_DIR", "data/files"),
			BaseURL: getEnv("STORAGE_BASE_URL", "/files/"),
		},
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@stockroom.local"),
		},
		Import: ImportConfig{
			ChunkSize:   getEnvAsInt("IMPORT_CHUNK_SIZE", 200),
			ExportLimit: getEnvAsInt("EXPORT_LIMIT", 50000),
			MaxUploadMB: getEnvAsInt("IMPORT_MAX_UPLOAD_MB", 32),
		},
		Realtime: RealtimeConfig{
			Enabled: getEnvAsBool("REALTIME_ENABLED", true),
			Channel: getEnv("REALTIME_CHANNEL", "products_changed"),
		},
		Jobs: JobsConfig{
			SnapshotSchedule: getEnv("EXPORT_SNAPSHOT_SCHEDULE", ""),
			DriftSchedule:    getEnv("LEDGER_DRIFT_SCHEDULE", ""),
			Timezone:         getEnv("JOBS_TIMEZONE", "UTC"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT secret is required and must be at least 32 characters")
	}

	if c.Auth.TokenTTL <= 0 || c.Auth.LinkTTL <= 0 {
		return fmt.Errorf("token and link TTLs must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if c.Storage.Dir == "" {
		return fmt.Errorf("storage directory is required")
	}

	if c.Mail.Host != "" && (c.Mail.Port < 1 || c.Mail.Port > 65535) {
		return fmt.Errorf("invalid SMTP port: %d", c.Mail.Port)
	}

	if c.Import.ChunkSize < 1 {
		return fmt.Errorf("import chunk size must be at least 1")
	}

	if c.Import.ExportLimit < 1 {
		return fmt.Errorf("export limit must be at least 1")
	}

	if c.Import.MaxUploadMB < 1 {
		return fmt.Errorf("import max upload size must be at least 1 MB")
	}

	if c.Realtime.Enabled && c.Realtime.Channel == "" {
		return fmt.Errorf("realtime channel is required when realtime is enabled")
	}

	if _, err := time.LoadLocation(c.Jobs.Timezone); err != nil {
		return fmt.Errorf("invalid jobs timezone: %s", c.Jobs.Timezone)
	}

	return nil
}

// MailEnabled reports whether outgoing mail is configured.
func (c *MailConfig) MailEnabled() bool {
	return c.Host != ""
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a duration ("90m", "12h").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
