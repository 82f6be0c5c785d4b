// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig
	Cache      CacheConfig
	DocDB      DocDBConfig
	Vault      VaultConfig
	Tutor      TutorConfig
	Engagement EngagementConfig
	Sync       SyncConfig
	Log        LogConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host    string
	Port    int
	GinMode string
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheConfig holds cache-related configuration.
type CacheConfig struct {
	Type     string
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

// DocDBConfig holds document database configuration.
type DocDBConfig struct {
	Type     string
	URI      string
	Database string
}

// VaultConfig holds vault configuration.
type VaultConfig struct {
	Type          string
	EncryptionKey string
}

// TutorConfig holds tutor backend configuration.
type TutorConfig struct {
	URL     string
	Timeout time.Duration
}

// EngagementConfig holds engagement-tracking configuration.
type EngagementConfig struct {
	Threshold         float64
	ScrollDebounce    time.Duration
	InteractDebounce  time.Duration
	TimeBonusInterval time.Duration
}

// SyncConfig holds cross-tab sync bus configuration.
type SyncConfig struct {
	Channel string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvAsInt("SERVER_PORT", 8086),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Cache: CacheConfig{
			Type:     getEnv("CACHE_TYPE", "redis"),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 86400)) * time.Second,
		},
		DocDB: DocDBConfig{
			Type:     getEnv("DOCDB_TYPE", "mongodb"),
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "javatutor"),
		},
		Vault: VaultConfig{
			Type:          getEnv("VAULT_TYPE", "dotenv"),
			EncryptionKey: getEnv("CONVERSATION_ENCRYPTION_KEY", ""),
		},
		Tutor: TutorConfig{
			URL:     getEnv("TUTOR_BACKEND_URL", "http://localhost:8081"),
			Timeout: time.Duration(getEnvAsInt("TUTOR_BACKEND_TIMEOUT_SECONDS", 60)) * time.Second,
		},
		Engagement: EngagementConfig{
			Threshold:         getEnvAsFloat("ENGAGEMENT_THRESHOLD", 10),
			ScrollDebounce:    time.Duration(getEnvAsInt("ENGAGEMENT_SCROLL_DEBOUNCE_MS", 3000)) * time.Millisecond,
			InteractDebounce:  time.Duration(getEnvAsInt("ENGAGEMENT_INTERACT_DEBOUNCE_MS", 2000)) * time.Millisecond,
			TimeBonusInterval: time.Duration(getEnvAsInt("ENGAGEMENT_TIME_BONUS_SECONDS", 300)) * time.Second,
		},
		Sync: SyncConfig{
			Channel: getEnv("SYNC_CHANNEL", "tutor:sync"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as a float with a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
