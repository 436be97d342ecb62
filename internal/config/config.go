// Package config provides configuration loading and validation for the
// ranking engine daemon. It uses koanf to merge environment variables
// with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the ranking engine daemon.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database
	DatabaseURL string `koanf:"database_url"`

	// Redis (trust weight resolution); empty disables the Redis
	// resolver and the corrector falls back to default trust weights.
	RedisURL string `koanf:"redis_url"`

	// Scoring calibration file (optional JSON overrides)
	ScoringCalibrationPath string `koanf:"scoring_calibration_path"`

	// Batch ranking correction job
	CorrectionInterval time.Duration `koanf:"correction_interval"`
	CorrectionWindow   time.Duration `koanf:"correction_window"`
	CorrectionPageSize int           `koanf:"correction_page_size"`
	CorrectionTimeout  time.Duration `koanf:"correction_timeout"`

	// Trust weight resolution
	TrustResolveTimeout time.Duration `koanf:"trust_resolve_timeout"`
	TrustCacheSize      int           `koanf:"trust_cache_size"`

	// Tracing
	TracingEnabled      bool    `koanf:"tracing_enabled"`
	TracingOTLPEndpoint string  `koanf:"tracing_otlp_endpoint"`
	TracingSamplingRate float64 `koanf:"tracing_sampling_rate"`
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL      = errors.New("DATABASE_URL is required")
	ErrInvalidPort             = errors.New("PORT must be a valid integer")
	ErrInvalidCorrectionWindow = errors.New("CORRECTION_WINDOW must be a positive duration")
	ErrInvalidPageSize         = errors.New("CORRECTION_PAGE_SIZE must be > 0")
)

// Default values for non-secret configuration.
const (
	DefaultPort                = 8080
	DefaultEnv                 = "development"
	DefaultCorrectionInterval  = 24 * time.Hour
	DefaultCorrectionWindow    = 24 * time.Hour
	DefaultCorrectionPageSize  = 1000
	DefaultCorrectionTimeout   = 10 * time.Minute
	DefaultTrustResolveTimeout = 2 * time.Second
	DefaultTrustCacheSize      = 4096
	DefaultTracingSamplingRate = 0.1
)

// Load reads configuration from environment variables and an optional
// YAML config file. Environment variables take precedence over file
// values. Returns the loaded config and a slice of validation errors
// (empty if valid). If a config file path is provided and the file
// cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	port, portErr := envInt("PORT", k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, fmt.Errorf("%w: %v", ErrInvalidPort, portErr))
	}

	pageSize, pageSizeErr := envInt("CORRECTION_PAGE_SIZE", k.Int("correction_page_size"), DefaultCorrectionPageSize)
	if pageSizeErr != nil {
		loadErrs = append(loadErrs, pageSizeErr)
	}

	cacheSize, cacheSizeErr := envInt("TRUST_CACHE_SIZE", k.Int("trust_cache_size"), DefaultTrustCacheSize)
	if cacheSizeErr != nil {
		loadErrs = append(loadErrs, cacheSizeErr)
	}

	interval, intervalErr := envDuration("CORRECTION_INTERVAL", k.Duration("correction_interval"), DefaultCorrectionInterval)
	if intervalErr != nil {
		loadErrs = append(loadErrs, intervalErr)
	}

	window, windowErr := envDuration("CORRECTION_WINDOW", k.Duration("correction_window"), DefaultCorrectionWindow)
	if windowErr != nil {
		loadErrs = append(loadErrs, windowErr)
	}

	timeout, timeoutErr := envDuration("CORRECTION_TIMEOUT", k.Duration("correction_timeout"), DefaultCorrectionTimeout)
	if timeoutErr != nil {
		loadErrs = append(loadErrs, timeoutErr)
	}

	resolveTimeout, resolveErr := envDuration("TRUST_RESOLVE_TIMEOUT", k.Duration("trust_resolve_timeout"), DefaultTrustResolveTimeout)
	if resolveErr != nil {
		loadErrs = append(loadErrs, resolveErr)
	}

	samplingRate := DefaultTracingSamplingRate
	if k.Exists("tracing_sampling_rate") {
		samplingRate = k.Float64("tracing_sampling_rate")
	}
	if val := os.Getenv("TRACING_SAMPLING_RATE"); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			loadErrs = append(loadErrs, fmt.Errorf("TRACING_SAMPLING_RATE must be a valid float: %w", err))
		} else {
			samplingRate = parsed
		}
	}

	tracingEnabled := k.Bool("tracing_enabled")
	if val := os.Getenv("TRACING_ENABLED"); val != "" {
		tracingEnabled = val == "true" || val == "1"
	}

	cfg := &Config{
		Port:                   port,
		Env:                    envString("LODESTONE_ENV", k.String("env"), DefaultEnv),
		DatabaseURL:            envString("DATABASE_URL", k.String("database_url"), ""),
		RedisURL:               envString("REDIS_URL", k.String("redis_url"), ""),
		ScoringCalibrationPath: envString("SCORING_CALIBRATION_PATH", k.String("scoring_calibration_path"), ""),
		CorrectionInterval:     interval,
		CorrectionWindow:       window,
		CorrectionPageSize:     pageSize,
		CorrectionTimeout:      timeout,
		TrustResolveTimeout:    resolveTimeout,
		TrustCacheSize:         cacheSize,
		TracingEnabled:         tracingEnabled,
		TracingOTLPEndpoint:    envString("TRACING_OTLP_ENDPOINT", k.String("tracing_otlp_endpoint"), ""),
		TracingSamplingRate:    samplingRate,
	}

	loadErrs = append(loadErrs, cfg.Validate()...)
	return cfg, loadErrs
}

// Validate checks required fields and value ranges, returning one
// error per problem so operators see everything at once.
func (c *Config) Validate() []error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if c.CorrectionWindow <= 0 {
		errs = append(errs, ErrInvalidCorrectionWindow)
	}
	if c.CorrectionPageSize <= 0 {
		errs = append(errs, ErrInvalidPageSize)
	}
	return errs
}

// envString returns the environment value, then the file value, then
// the default, in that precedence order.
func envString(envKey, fileValue, defaultValue string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// envInt parses an integer environment variable with file and default
// fallbacks. An unparseable value is reported as an error.
func envInt(envKey string, fileValue, defaultValue int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return defaultValue, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}
		return parsed, nil
	}
	if fileValue != 0 {
		return fileValue, nil
	}
	return defaultValue, nil
}

// envDuration parses a duration environment variable (Go duration
// syntax, e.g. "24h") with file and default fallbacks.
func envDuration(envKey string, fileValue, defaultValue time.Duration) (time.Duration, error) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return defaultValue, fmt.Errorf("%s must be a valid duration: %w", envKey, err)
		}
		return parsed, nil
	}
	if fileValue != 0 {
		return fileValue, nil
	}
	return defaultValue, nil
}
