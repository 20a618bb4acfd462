// Package config reads environment configuration and sets up logging.
package config

import (
	"log/slog"
	"os"
	"strings"
)

// Config holds all configuration values. Flags override these at the CLI
// layer; the environment only supplies defaults.
type Config struct {
	// ProvDir is the provenance directory.
	ProvDir string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		ProvDir: getEnv("PROV_DIR", ".prov"),

		// No log file unless asked for; the default level keeps normal
		// command output free of log lines.
		LogFile:  getEnv("PROV_LOG_FILE", ""),
		LogLevel: parseLogLevel(getEnv("PROV_LOG_LEVEL", "WARN")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
