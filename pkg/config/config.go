// Package config loads runtime configuration from the environment and the
// optional YAML calibration file.
package config

import (
	"os"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	Environment     string
	LogLevel        string
	LogFormat       string
	DatabasePath    string
	OpenAIAPIKey    string
	OpenAIModel     string
	WorkerSchedule  string
	WorkerBatchSize int
	CalibrationPath string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		DatabasePath:    getEnv("DATABASE_PATH", "pdplab.db"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o"),
		WorkerSchedule:  getEnv("WORKER_SCHEDULE", "* * * * *"),
		WorkerBatchSize: getEnvAsInt("WORKER_BATCH_SIZE", 1),
		CalibrationPath: getEnv("CALIBRATION_PATH", ""),
	}
	return config, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
