package main

import (
	"errors"
	"io/fs"

	"github.com/23skdu/tracearena/internal/core"
	"github.com/23skdu/tracearena/internal/memory"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every environment variable read by argerr.
const EnvPrefix = "TRACEARENA"

// Config validation errors
var (
	ErrInvalidArenaClass = errors.New("arena_class must be 'vm' or 'client'")
	ErrInvalidArenaSize  = errors.New("arena_size must be positive")
	ErrInvalidSlabSize   = errors.New("arena_slab_size must be between 0 and 1GiB")
	ErrClientBlockSize   = errors.New("arena_size of a client arena must not exceed 1GiB")
	ErrInvalidStress     = errors.New("stress must not be negative")
	ErrInvalidLogFormat  = errors.New("log_format must be 'json' or 'console'")
	ErrInvalidLogLevel   = errors.New("log_level must be debug, info, warn, or error")
)

// Config is the argerr runtime configuration, read from TRACEARENA_*
// variables and overridden by flags.
type Config struct {
	memory.Config

	Case        string `envconfig:"CASE"`
	Stress      int    `envconfig:"STRESS" default:"0"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"console"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Config:    memory.DefaultConfig(),
		LogFormat: "console",
		LogLevel:  "info",
	}
}

// LoadConfig reads envFile into the environment when it exists, then
// processes TRACEARENA_* variables. Variables already set take precedence
// over the file.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidateConfig validates the configuration and returns an error if invalid
func ValidateConfig(cfg *Config) error {
	if _, err := core.ParseArenaClass(string(cfg.Class)); err != nil {
		return ErrInvalidArenaClass
	}
	if cfg.SizeLimit <= 0 {
		return ErrInvalidArenaSize
	}
	if cfg.SlabSize < 0 || cfg.SlabSize > memory.MaxSlabSize {
		return ErrInvalidSlabSize
	}
	if cfg.Class == core.ClassClient && cfg.SizeLimit > memory.MaxClientBlock {
		return ErrClientBlockSize
	}
	if cfg.Stress < 0 {
		return ErrInvalidStress
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return ErrInvalidLogFormat
	}
	if cfg.LogLevel != "debug" && cfg.LogLevel != "info" && cfg.LogLevel != "warn" && cfg.LogLevel != "error" {
		return ErrInvalidLogLevel
	}
	return nil
}
