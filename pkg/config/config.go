// Package config loads tool settings from the environment.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	Port       int    // API server port
	LogLevel   string // debug, info, warn, error
	LogFile    string // empty disables file logging
	Difficulty string // difficulty receiving timing markers
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// Load reads configuration from a .env file (if present) and environment
// variables, falling back to defaults.
func Load() *Config {
	// Does not override variables already set in the environment.
	_ = godotenv.Load()

	return &Config{
		Port:       getEnvInt("M2S_PORT", 8080),
		LogLevel:   getEnv("M2S_LOG_LEVEL", "error"),
		LogFile:    getEnv("M2S_LOG_FILE", ""),
		Difficulty: getEnv("M2S_DIFFICULTY", "Expert"),
	}
}
