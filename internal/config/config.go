package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPort is used when no config file is supplied.
	DefaultPort = 8080

	// DefaultTimeoutSeconds bounds provider request execution when the
	// caller does not pass an explicit timeout.
	DefaultTimeoutSeconds = 30
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Config represents the application configuration parsed from YAML.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Engine EngineConfig `yaml:"engine"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig defines listener configuration.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// EngineConfig tunes the translation and execution pipeline.
type EngineConfig struct {
	DefaultTimeoutSeconds int `yaml:"default_timeout_seconds"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: DefaultPort},
		Engine: EngineConfig{DefaultTimeoutSeconds: DefaultTimeoutSeconds},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads YAML configuration from disk and validates the result. Absent
// fields fall back to defaults before validation.
func Load(path string) (Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %q: %w", absPath, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %q: %w", absPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate performs strict sanity checks on the configuration.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port, got %d", c.Server.Port)
	}

	if c.Engine.DefaultTimeoutSeconds <= 0 {
		return fmt.Errorf("engine.default_timeout_seconds must be positive, got %d", c.Engine.DefaultTimeoutSeconds)
	}

	if level := strings.ToLower(strings.TrimSpace(c.Log.Level)); !validLogLevels[level] {
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}

	return nil
}

// SlogLevel maps the configured level name onto a slog level.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
