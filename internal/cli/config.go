package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ChuLiYu/aoc-runner/internal/cache"
	"github.com/ChuLiYu/aoc-runner/internal/remote"
)

// SessionEnv overrides the session cookie from the config file.
const SessionEnv = "AOC_SESSION"

// Config represents the complete runner configuration
// Maps config file fields through YAML tags
type Config struct {
	Session   string        `yaml:"session"`
	BaseURL   string        `yaml:"base_url" validate:"required,url"`
	UserAgent string        `yaml:"user_agent" validate:"required"`
	Timeout   time.Duration `yaml:"timeout" validate:"gte=0"`

	Cache struct {
		Dir string `yaml:"dir" validate:"required"`
	} `yaml:"cache"`

	Worker struct {
		WorkerCount int `yaml:"worker_count" validate:"gte=1,lte=256"`
	} `yaml:"worker"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port" validate:"gte=0,lte=65535"`
	} `yaml:"metrics"`

	Log struct {
		Level string `yaml:"level" validate:"oneof=debug info warn error"`
	} `yaml:"log"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	cfg := &Config{
		BaseURL:   remote.DefaultBaseURL,
		UserAgent: "github.com/ChuLiYu/aoc-runner",
		Timeout:   30 * time.Second,
	}
	cfg.Cache.Dir = cache.DefaultDir()
	cfg.Worker.WorkerCount = runtime.NumCPU()
	cfg.Metrics.Port = 9090
	cfg.Log.Level = "info"
	return cfg
}

// loadConfig reads path over the defaults. A missing file is an error only
// when required is set.
func loadConfig(path string, required bool) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if session := strings.TrimSpace(os.Getenv(SessionEnv)); session != "" {
		cfg.Session = session
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// logLevel maps the config level onto slog.
func logLevel(level string, verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
