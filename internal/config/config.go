// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the process needs to start. It is constructed
// once in main and passed down by reference; there is no global instance.
type Config struct {
	HTTPAddr string
	LogLevel string

	DBConnStr string

	AccrualSchedule string
	AccrualWorkers  int
	QuoteTimeout    time.Duration

	NotifyBufferSize int
}

// Load reads configuration from the environment, pulling in a local .env
// file when present.
func Load() *Config {
	// Missing .env is fine; environment variables win either way.
	_ = godotenv.Load()

	return &Config{
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DBConnStr:        databaseConnStr(),
		AccrualSchedule:  getEnv("ACCRUAL_SCHEDULE", "@daily"),
		AccrualWorkers:   getEnvInt("ACCRUAL_WORKERS", 4),
		QuoteTimeout:     getEnvDuration("QUOTE_TIMEOUT", 10*time.Second),
		NotifyBufferSize: getEnvInt("NOTIFY_BUFFER_SIZE", 256),
	}
}

// databaseConnStr honors an explicit DB_CONN_STR and otherwise assembles one
// from individual vars (Docker friendly).
func databaseConnStr() string {
	if s := os.Getenv("DB_CONN_STR"); s != "" {
		return s
	}

	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "postgres")
	dbname := getEnv("DB_NAME", "investportal")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
