package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the environment configuration shared by the CLIs and the
// server. Empty DSNs select the in-memory stores.
type Config struct {
	PostgresDSN   string
	ClickhouseDSN string
	HTTPAddr      string
	DataDir       string
	SweepWorkers  int
	SweepSchedule string // cron expression, empty disables the scheduled sweep
	SweepSpecPath string // JSON sweep spec consumed by the scheduled sweep
	LogLevel      string
	LogPretty     bool
}

// Load reads configuration from the environment, after loading a .env file
// if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		ClickhouseDSN: getEnv("CLICKHOUSE_DSN", ""),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		DataDir:       getEnv("DATA_DIR", "./data"),
		SweepWorkers:  getEnvAsInt("SWEEP_WORKERS", 0), // 0 means NumCPU
		SweepSchedule: getEnv("SWEEP_SCHEDULE", ""),
		SweepSpecPath: getEnv("SWEEP_SPEC_PATH", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogPretty:     getEnvAsBool("LOG_PRETTY", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	if c.SweepWorkers < 0 {
		return fmt.Errorf("SWEEP_WORKERS must not be negative")
	}
	if c.SweepSchedule != "" && c.SweepSpecPath == "" {
		return fmt.Errorf("SWEEP_SCHEDULE requires SWEEP_SPEC_PATH")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
