package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"

	EnvLocal       = "local"
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds the service settings read from the environment.
type Config struct {
	Env              string
	Port             string
	StoreDriver      string
	DatabaseURL      string
	BoltPath         string
	JWTSecret        string
	RequestTimeout   time.Duration
	HearingSweepSpec string
}

// New reads the configuration from environment variables, applying defaults.
func New() (*Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, which behaves like os.LookupEnv.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	timeout, err := time.ParseDuration(get("REQUEST_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("config: REQUEST_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Env:              strings.ToLower(get("APP_ENV", EnvLocal)),
		Port:             get("PORT", "8080"),
		StoreDriver:      strings.ToLower(get("STORE_DRIVER", DriverPostgres)),
		DatabaseURL:      get("DATABASE_URL", ""),
		BoltPath:         get("BOLT_PATH", "blotter.db"),
		JWTSecret:        get("JWT_SECRET", ""),
		RequestTimeout:   timeout,
		HearingSweepSpec: get("HEARING_SWEEP_SPEC", "@hourly"),
	}
	return cfg, nil
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Env {
	case EnvLocal, EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("APP_ENV %q is not one of local, development, production", c.Env))
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT %q is not a number", c.Port))
	}
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverBolt:
		if c.BoltPath == "" {
			errs = append(errs, errors.New("BOLT_PATH is required for the bolt driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not one of postgres, bolt", c.StoreDriver))
	}
	if c.JWTSecret == "" && c.Env != EnvLocal {
		errs = append(errs, errors.New("JWT_SECRET is required outside local"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if _, err := cron.ParseStandard(c.HearingSweepSpec); err != nil {
		errs = append(errs, fmt.Errorf("HEARING_SWEEP_SPEC: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// NewLogger builds the zap logger for env and installs it as the global
// logger used through zap.S().
func NewLogger(env string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	switch env {
	case EnvProduction:
		logger, err = zap.NewProduction()
	default:
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("config: build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
