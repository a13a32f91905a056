package ecs

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Config holds the environment driven settings of an EntityManager.
type Config struct {
	// Workers is the default parallelism of parallel processors. 0 means GOMAXPROCS.
	Workers int `env:"ECS_WORKERS" envDefault:"0"`

	// Log level ("trace", "debug", "info", "warn", "error").
	LogLevel string `env:"ECS_LOG_LEVEL" envDefault:"info"`

	// Log format ("json", "pretty").
	LogFormat string `env:"ECS_LOG_FORMAT" envDefault:"json"`
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() (Config, error) {
	cfg := Config{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse ecs config")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate ecs config")
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.Workers < 0 {
		return eris.Errorf("invalid worker count: %d (must be >= 0)", cfg.Workers)
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil {
		return eris.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	switch strings.ToLower(cfg.LogFormat) {
	case "json", "pretty":
	default:
		return eris.Errorf("invalid log format: %s (must be 'json' or 'pretty')", cfg.LogFormat)
	}

	return nil
}

// NewLogger builds a logger from cfg writing to w, or to stdout if w is nil.
func NewLogger(cfg Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}

	if w == nil {
		w = os.Stdout
	}
	if strings.EqualFold(cfg.LogFormat, "pretty") {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}
