package config

import (
	"os"
	"strconv"
	"strings"

	"veritas/internal/errors"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Harness  HarnessConfig
	Clean    CleanConfig
	Output   OutputConfig
	Database DatabaseConfig
	Server   ServerConfig
	Log      LogConfig
}

// HarnessConfig holds the repeated evaluation settings
type HarnessConfig struct {
	Rounds        int
	TrainFraction float64
	Seed          int64
	Workers       int
	FailFast      bool
	InnerRounds   int
	InnerFraction float64
}

// CleanConfig holds preprocessing thresholds
type CleanConfig struct {
	FreqCut          float64
	UniqueCut        float64
	CorrelationCut   float64
	SkewThreshold    float64
	DisableSkew      bool
	DisableNZV       bool
	DisableCollinear bool
}

// OutputConfig holds report destinations
type OutputConfig struct {
	Dir string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// Load reads an optional .env file and the environment, then validates
func Load() (*Config, error) {
	// A missing .env is normal outside development
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only
func FromEnv() (*Config, error) {
	cfg := &Config{
		Harness: HarnessConfig{
			Rounds:        getEnvIntOrDefault("VERITAS_ROUNDS", 10),
			TrainFraction: getEnvFloatOrDefault("VERITAS_TRAIN_FRACTION", 0.75),
			Seed:          getEnvInt64OrDefault("VERITAS_SEED", 42),
			Workers:       getEnvIntOrDefault("VERITAS_WORKERS", 1),
			FailFast:      getEnvBoolOrDefault("VERITAS_FAIL_FAST", false),
			InnerRounds:   getEnvIntOrDefault("VERITAS_INNER_ROUNDS", 3),
			InnerFraction: getEnvFloatOrDefault("VERITAS_INNER_FRACTION", 0.5),
		},
		Clean: CleanConfig{
			FreqCut:          getEnvFloatOrDefault("VERITAS_NZV_FREQ_CUT", 95.0/5.0),
			UniqueCut:        getEnvFloatOrDefault("VERITAS_NZV_UNIQUE_CUT", 10),
			CorrelationCut:   getEnvFloatOrDefault("VERITAS_CORRELATION_CUT", 0.9),
			SkewThreshold:    getEnvFloatOrDefault("VERITAS_SKEW_THRESHOLD", 1),
			DisableSkew:      getEnvBoolOrDefault("VERITAS_DISABLE_SKEW", false),
			DisableNZV:       getEnvBoolOrDefault("VERITAS_DISABLE_NZV", false),
			DisableCollinear: getEnvBoolOrDefault("VERITAS_DISABLE_COLLINEAR", false),
		},
		Output: OutputConfig{
			Dir: getEnvOrDefault("VERITAS_OUTPUT_DIR", "./out"),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "INFO"),
			Format: getEnvOrDefault("LOG_FORMAT", "console"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise fail deep inside a run
func (c *Config) Validate() error {
	h := c.Harness
	if h.Rounds <= 0 {
		return errors.ConfigInvalid("rounds must be positive")
	}
	if h.TrainFraction <= 0 || h.TrainFraction >= 1 {
		return errors.ConfigInvalid("train fraction must be within (0, 1)")
	}
	if h.InnerFraction <= 0 || h.InnerFraction >= 1 {
		return errors.ConfigInvalid("inner fraction must be within (0, 1)")
	}
	if h.InnerRounds <= 0 {
		return errors.ConfigInvalid("inner rounds must be positive")
	}
	if h.Workers <= 0 {
		return errors.ConfigInvalid("workers must be positive")
	}
	if c.Clean.CorrelationCut <= 0 || c.Clean.CorrelationCut > 1 {
		return errors.ConfigInvalid("correlation cutoff must be within (0, 1]")
	}
	if f := strings.ToLower(c.Log.Format); f != "console" && f != "json" {
		return errors.ConfigInvalid("LOG_FORMAT must be console or json")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
