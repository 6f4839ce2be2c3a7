package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	DBPath        string
	RecordingsDir string
	APIPort       string
	LogLevel      slog.Level
	LogFormat     string
	Calendar      *time.Location // user's calendar timezone for day grouping
	AudioCapture  bool           // capture capability granted at process start
}

// Load reads configuration from environment variables and returns a Config
// struct. It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory it is loaded automatically;
// environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:        getEnv("DB_PATH", "./data/oncohelper.db"),
		RecordingsDir: getEnv("RECORDINGS_DIR", "./data/recordings"),
		APIPort:       getEnv("API_PORT", "9000"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
	}

	switch level := getEnv("LOG_LEVEL", "info"); level {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "info":
		cfg.LogLevel = slog.LevelInfo
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", level)
	}

	// Calendar day boundaries follow the user's timezone, not UTC.
	tzName := getEnv("CALENDAR_TZ", "Local")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("CALENDAR_TZ is not a valid timezone: %w", err)
	}
	cfg.Calendar = loc

	capture, err := strconv.ParseBool(getEnv("AUDIO_CAPTURE", "true"))
	if err != nil {
		return nil, fmt.Errorf("AUDIO_CAPTURE must be a boolean: %w", err)
	}
	cfg.AudioCapture = capture

	// Create the data directories up front.
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.RecordingsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create recordings directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
