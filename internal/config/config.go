package config

import (
	"os"
	"strconv"

	"mcnemar/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Ledger   LedgerConfig
	Batch    BatchConfig
}

// DatabaseConfig holds database connection settings. URL may be empty, in
// which case the service falls back to the file-based ledger.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// LedgerConfig holds settings for the file-based result ledger
type LedgerConfig struct {
	Dir string
}

// BatchConfig holds batch engine settings
type BatchConfig struct {
	MaxConcurrency int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL:     getEnvOrDefault("DATABASE_URL", ""),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "debug"),
		},
		Ledger: LedgerConfig{
			Dir: getEnvOrDefault("LEDGER_DIR", "./results"),
		},
		Batch: BatchConfig{
			MaxConcurrency: getEnvIntOrDefault("BATCH_MAX_CONCURRENCY", 4),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Batch.MaxConcurrency < 1 {
		return errors.ConfigInvalid("BATCH_MAX_CONCURRENCY must be at least 1")
	}
	if config.Database.URL == "" && config.Ledger.Dir == "" {
		return errors.ConfigInvalid("either DATABASE_URL or LEDGER_DIR must be set")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
