// Package config provides configuration for the dbon command.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration of the dbon command.
type Config struct {
	// DataDir is the directory holding <name>.dbon.json database files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	Log     LogConfig     `json:"log" yaml:"log"`
	Server  ServerConfig  `json:"server" yaml:"server"`
	Storage StorageConfig `json:"storage" yaml:"storage"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `json:"level" yaml:"level"`

	// SeqURL enables the Seq sink when non-empty
	SeqURL string `json:"seq_url" yaml:"seq_url"`

	AddSource bool `json:"add_source" yaml:"add_source"`
}

// ServerConfig holds TCP server configuration.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// StorageConfig holds snapshot configuration.
type StorageConfig struct {
	// Indent pretty-prints saved snapshots
	Indent bool `json:"indent" yaml:"indent"`
}

// DefaultConfig returns the default configuration for local use.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data/dbon",
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr: ":4040",
		},
	}
}

// Resolve fills in defaults for empty fields.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/dbon"
	}
	c.DataDir = filepath.Clean(c.DataDir)
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	if c.Server.Addr == "" {
		c.Server.Addr = ":4040"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.SeqURL != "" && !strings.HasPrefix(c.Log.SeqURL, "http://") && !strings.HasPrefix(c.Log.SeqURL, "https://") {
		return fmt.Errorf("log.seq_url must be an http(s) URL, got %q", c.Log.SeqURL)
	}
	return nil
}

// SlogLevel returns the configured level; call Validate first.
func (c *Config) SlogLevel() slog.Level {
	level, _ := ParseLevel(c.Log.Level)
	return level
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", s)
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the DBON_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("DBON_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Log configuration
	if v := os.Getenv("DBON_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("DBON_LOG_SEQ_URL"); v != "" {
		cfg.Log.SeqURL = v
	}
	if v := os.Getenv("DBON_LOG_ADD_SOURCE"); v != "" {
		cfg.Log.AddSource = v == "true" || v == "1"
	}

	if v := os.Getenv("DBON_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DBON_STORAGE_INDENT"); v != "" {
		cfg.Storage.Indent = v == "true" || v == "1"
	}
}
