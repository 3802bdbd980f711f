/*
Package config loads service configuration from the environment.

PURPOSE:
  Centralizes every environment variable the server reads. A .env file in
  the working directory is loaded first (convenient in development); real
  environment variables win over it.

VARIABLES:
  PORT               HTTP listen port            (default 8080)
  DATABASE_PATH      SQLite database file        (default ./data/staffhub.db)
  LOG_LEVEL          logrus level                (default info)
  HR_REVIEWER_EMAIL  reviewer allowed to update accepted absence requests

SEE ALSO:
  - cmd/server/main.go: the only consumer
*/
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is the resolved server configuration.
type Config struct {
	Port            int
	DatabasePath    string
	LogLevel        logrus.Level
	HRReviewerEmail string
}

// Load reads .env (when present) and the environment.
func Load() (*Config, error) {
	// Missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := &Config{
		Port:            8080,
		DatabasePath:    "./data/staffhub.db",
		LogLevel:        logrus.InfoLevel,
		HRReviewerEmail: getEnv("HR_REVIEWER_EMAIL", "hr@staffhub.local"),
	}

	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid PORT %q", raw)
		}
		cfg.Port = port
	}
	if raw := os.Getenv("DATABASE_PATH"); raw != "" {
		cfg.DatabasePath = raw
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		level, err := logrus.ParseLevel(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q", raw)
		}
		cfg.LogLevel = level
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
