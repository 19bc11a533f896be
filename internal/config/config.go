// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for databases and backups (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	// Timezone used for evaluation timestamps. Evaluation history rows are
	// keyed by local wall-clock time, so this must match the operator's zone.
	Timezone string
	Location *time.Location

	// History retention for the cleanup job, in days. Zero disables pruning.
	HistoryRetentionDays int

	// Idle sessions older than this are pruned.
	SessionTTL time.Duration

	// Backup settings
	BackupEnabled  bool
	BackupKeep     int // snapshots kept per database
	BackupS3Bucket string
	BackupS3Region string
	// Static S3 credentials; when empty the default AWS credential chain is used
	BackupS3AccessKey string
	BackupS3SecretKey string
}

// Load reads configuration from environment variables.
// A .env file in the working directory is honoured when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("INNOVA_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	tzName := getEnv("INNOVA_TZ", "America/Santiago")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tzName, err)
	}

	cfg := &Config{
		DataDir:              absDataDir,
		Port:                 getEnvAsInt("GO_PORT", 8001),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DevMode:              getEnvAsBool("DEV_MODE", false),
		Timezone:             tzName,
		Location:             loc,
		HistoryRetentionDays: getEnvAsInt("INNOVA_HISTORY_RETENTION_DAYS", 0),
		SessionTTL:           time.Duration(getEnvAsInt("INNOVA_SESSION_TTL_HOURS", 12)) * time.Hour,
		BackupEnabled:        getEnvAsBool("INNOVA_BACKUP_ENABLED", true),
		BackupKeep:           getEnvAsInt("INNOVA_BACKUP_KEEP", 7),
		BackupS3Bucket:       getEnv("INNOVA_BACKUP_S3_BUCKET", ""),
		BackupS3Region:       getEnv("INNOVA_BACKUP_S3_REGION", ""),
		BackupS3AccessKey:    getEnv("INNOVA_BACKUP_S3_ACCESS_KEY", ""),
		BackupS3SecretKey:    getEnv("INNOVA_BACKUP_S3_SECRET_KEY", ""),
	}

	return cfg, nil
}

// DatabasePath returns the absolute path for a named database file.
func (c *Config) DatabasePath(name string) string {
	return filepath.Join(c.DataDir, name)
}

// Now returns the current time in the configured timezone.
func (c *Config) Now() time.Time {
	return time.Now().In(c.Location)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
