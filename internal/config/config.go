package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/hray3182/lifeledger/internal/recurrence"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	StoreDriver   string
	DatabaseURI   string
	SQLitePath    string
	TelegramToken string
	CatchUpLimit  int
	Timezone      string
	LogLevel      string
	LogFormat     string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	limit, err := getEnvInt("CATCH_UP_LIMIT", recurrence.DefaultCatchUpLimit)
	if err != nil {
		return nil, err
	}

	return &Config{
		StoreDriver:   getEnvOrDefault("STORE_DRIVER", DriverSQLite),
		DatabaseURI:   os.Getenv("DATABASE_URI"),
		SQLitePath:    getEnvOrDefault("SQLITE_PATH", "lifeledger.db"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		CatchUpLimit:  limit,
		Timezone:      os.Getenv("TIMEZONE"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:     getEnvOrDefault("LOG_FORMAT", "console"),
	}, nil
}

// Validate checks the settings required by the selected store.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURI == "" {
			return fmt.Errorf("DATABASE_URI is required for the %s store", DriverPostgres)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the %s store", DriverSQLite)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.CatchUpLimit < 1 {
		return fmt.Errorf("CATCH_UP_LIMIT must be positive, got %d", c.CatchUpLimit)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves TIMEZONE; empty means the process's local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}
