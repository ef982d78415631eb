// Package config loads runtime configuration for the CLI and the HTTP server.
// Values come from defaults, then an optional YAML or TOML file, then EJAR_*
// environment variables (a .env file in the working directory is honored).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/coolbeans/ejar/pkg/document"
	"github.com/coolbeans/ejar/pkg/logging"
	"github.com/coolbeans/ejar/pkg/template"
)

// Config holds all configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Templates  TemplatesConfig  `yaml:"templates"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"`

	// RateLimit is the allowed requests per second per client IP; 0 disables
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ExtractionConfig holds pipeline settings shared by the CLI and the server.
type ExtractionConfig struct {
	Backend    string `yaml:"backend"`
	Workers    int    `yaml:"workers"`
	OutputDir  string `yaml:"output_dir"`
	DatePolicy string `yaml:"date_policy"`
	Debug      bool   `yaml:"debug"`
}

// TemplatesConfig selects where templates come from.
type TemplatesConfig struct {
	// Dir holds extra YAML templates; they override embedded ones by format ID
	Dir string `yaml:"dir"`

	// Watch reloads Dir on change
	Watch bool `yaml:"watch"`

	// Format pins a format ID; empty means detect per document
	Format string `yaml:"format"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from a YAML file (or TOML, by .toml extension)
// and applies environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	// a missing .env is not an error
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// decode unmarshals data into cfg. TOML is decoded generically and then read
// through the YAML decoder so both formats accept durations like "30s".
func decode(path string, data []byte, cfg *Config) error {
	if !strings.EqualFold(filepath.Ext(path), ".toml") {
		return yaml.Unmarshal(data, cfg)
	}
	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return err
	}
	converted, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(converted, cfg)
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8081,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     90 * time.Second,
			RequestTimeout:   60 * time.Second,
			GracefulShutdown: 10 * time.Second,
			MaxUploadBytes:   20 << 20,
			RateBurst:        5,
		},
		Extraction: ExtractionConfig{
			Backend:    document.BackendAuto,
			Workers:    4,
			DatePolicy: template.DatePolicyGregorian,
		},
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatConsole,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		return fmt.Errorf("rate_burst must be at least 1 when rate_limit is set")
	}

	if !validBackend(c.Extraction.Backend) {
		return fmt.Errorf("invalid backend: %s", c.Extraction.Backend)
	}
	if c.Extraction.Workers < 1 || c.Extraction.Workers > 64 {
		return fmt.Errorf("workers must be between 1 and 64")
	}
	switch c.Extraction.DatePolicy {
	case "", template.DatePolicyGregorian, template.DatePolicyHijri:
	default:
		return fmt.Errorf("invalid date policy: %s", c.Extraction.DatePolicy)
	}

	if c.Templates.Watch && c.Templates.Dir == "" {
		return fmt.Errorf("templates.watch requires templates.dir")
	}

	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if c.Log.Format != logging.FormatJSON && c.Log.Format != logging.FormatConsole {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}
	return nil
}

func validBackend(b string) bool {
	if b == "" || b == document.BackendAuto {
		return true
	}
	for _, known := range document.Backends {
		if b == known {
			return true
		}
	}
	return false
}

// applyEnvOverrides applies EJAR_* environment variables to cfg.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("EJAR_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("EJAR_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("EJAR_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("EJAR_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("EJAR_REQUEST_TIMEOUT: %w", err)
		}
		cfg.Server.RequestTimeout = d
	}
	if v := os.Getenv("EJAR_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("EJAR_MAX_UPLOAD_BYTES: %w", err)
		}
		cfg.Server.MaxUploadBytes = n
	}
	if v := os.Getenv("EJAR_RATE_LIMIT"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("EJAR_RATE_LIMIT: %w", err)
		}
		cfg.Server.RateLimit = r
	}

	if v := os.Getenv("EJAR_BACKEND"); v != "" {
		cfg.Extraction.Backend = v
	}
	if v := os.Getenv("EJAR_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("EJAR_WORKERS: %w", err)
		}
		cfg.Extraction.Workers = n
	}
	if v := os.Getenv("EJAR_OUTPUT_DIR"); v != "" {
		cfg.Extraction.OutputDir = v
	}
	if v := os.Getenv("EJAR_DATE_POLICY"); v != "" {
		cfg.Extraction.DatePolicy = v
	}
	if v := os.Getenv("EJAR_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("EJAR_DEBUG: %w", err)
		}
		cfg.Extraction.Debug = b
	}

	if v := os.Getenv("EJAR_TEMPLATES_DIR"); v != "" {
		cfg.Templates.Dir = v
	}
	if v := os.Getenv("EJAR_TEMPLATE"); v != "" {
		cfg.Templates.Format = v
	}

	if v := os.Getenv("EJAR_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("EJAR_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}
