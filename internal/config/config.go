// Package config provides configuration management for the application.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application.
type Config struct {
	// AWS
	AWSRegion string
	S3Bucket  string
	S3Key     string

	// Catalog
	CatalogPath  string
	WatchCatalog bool

	// Matching
	WeightProfile   string
	DefaultMinScore int
	DefaultMaxItems int

	// SES
	SESSenderEmail string

	// Application
	Stage    string
	Port     int
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	_ = godotenv.Load()

	cfg := &Config{
		// AWS
		AWSRegion: getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:  getEnv("S3_BUCKET", ""),
		S3Key:     getEnv("S3_SCHEMES_KEY", "schemes.json"),

		// Catalog
		CatalogPath:  getEnv("SCHEMES_PATH", "data/schemes.json"),
		WatchCatalog: getEnvBool("WATCH_SCHEMES", false),

		// Matching
		WeightProfile:   getEnv("WEIGHT_PROFILE", "balanced"),
		DefaultMinScore: getEnvInt("DEFAULT_MIN_SCORE", 30),
		DefaultMaxItems: getEnvInt("DEFAULT_MAX_RESULTS", 20),

		// SES
		SESSenderEmail: getEnv("SES_SENDER_EMAIL", ""),

		// Application
		Stage:    getEnv("STAGE", "dev"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as int or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as bool or returns a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
