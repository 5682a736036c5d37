// Package config loads the service configuration from a YAML file, an
// optional .env file and CLAIMGUARD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	DefaultPath      = "config.yaml"
	DefaultModelPath = "insurance_fraud_model.json"
	EnvPrefix        = "CLAIMGUARD"
)

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	Timeout        time.Duration `yaml:"timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	RateLimit      float64       `yaml:"rate_limit"`
	RateBurst      int           `yaml:"rate_burst"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
}

type ModelConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type UIConfig struct {
	Locale          string `yaml:"locale"`
	SessionCapacity int    `yaml:"session_capacity"`
}

type Config struct {
	HTTP  HTTPConfig  `yaml:"http"`
	Model ModelConfig `yaml:"model"`
	Log   LogConfig   `yaml:"log"`
	UI    UIConfig    `yaml:"ui"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads path (skipped when it does not exist and is the default path),
// then .env, then environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{}
	if path == "" {
		path = DefaultPath
	}
	if err := decodeFile(path, cfg); err != nil {
		if !(errors.Is(err, fs.ErrNotExist) && path == DefaultPath) {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays CLAIMGUARD_<SECTION>_<KEY> variables, e.g.
// CLAIMGUARD_HTTP_PORT or CLAIMGUARD_MODEL_PATH.
func applyEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	keys := []string{
		"http.port", "http.timeout", "http.allowed_origins", "http.rate_limit", "http.rate_burst", "http.max_body_bytes",
		"model.path", "model.watch",
		"log.level", "log.format", "log.file", "log.max_size_mb", "log.max_backups", "log.max_age_days",
		"ui.locale", "ui.session_capacity",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return err
		}
	}

	set := func(key string, apply func()) {
		if v.IsSet(key) {
			apply()
		}
	}
	set("http.port", func() { cfg.HTTP.Port = v.GetInt("http.port") })
	set("http.timeout", func() { cfg.HTTP.Timeout = v.GetDuration("http.timeout") })
	set("http.allowed_origins", func() { cfg.HTTP.AllowedOrigins = splitList(v.GetString("http.allowed_origins")) })
	set("http.rate_limit", func() { cfg.HTTP.RateLimit = v.GetFloat64("http.rate_limit") })
	set("http.rate_burst", func() { cfg.HTTP.RateBurst = v.GetInt("http.rate_burst") })
	set("http.max_body_bytes", func() { cfg.HTTP.MaxBodyBytes = v.GetInt64("http.max_body_bytes") })
	set("model.path", func() { cfg.Model.Path = v.GetString("model.path") })
	set("model.watch", func() { cfg.Model.Watch = v.GetBool("model.watch") })
	set("log.level", func() { cfg.Log.Level = v.GetString("log.level") })
	set("log.format", func() { cfg.Log.Format = v.GetString("log.format") })
	set("log.file", func() { cfg.Log.File = v.GetString("log.file") })
	set("log.max_size_mb", func() { cfg.Log.MaxSizeMB = v.GetInt("log.max_size_mb") })
	set("log.max_backups", func() { cfg.Log.MaxBackups = v.GetInt("log.max_backups") })
	set("log.max_age_days", func() { cfg.Log.MaxAgeDays = v.GetInt("log.max_age_days") })
	set("ui.locale", func() { cfg.UI.Locale = v.GetString("ui.locale") })
	set("ui.session_capacity", func() { cfg.UI.SessionCapacity = v.GetInt("ui.session_capacity") })
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8501
	}
	if cfg.HTTP.Timeout == 0 {
		cfg.HTTP.Timeout = 15 * time.Second
	}
	if cfg.HTTP.RateLimit == 0 {
		cfg.HTTP.RateLimit = 10
	}
	if cfg.HTTP.RateBurst == 0 {
		cfg.HTTP.RateBurst = 20
	}
	if cfg.HTTP.MaxBodyBytes == 0 {
		cfg.HTTP.MaxBodyBytes = 1 << 20
	}
	if cfg.Model.Path == "" {
		cfg.Model.Path = DefaultModelPath
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 50
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 3
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = 28
	}
	if cfg.UI.Locale == "" {
		cfg.UI.Locale = "en"
	}
	if cfg.UI.SessionCapacity == 0 {
		cfg.UI.SessionCapacity = 1024
	}
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d is out of range", c.HTTP.Port)
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must be positive")
	}
	if c.HTTP.RateLimit < 0 || c.HTTP.RateBurst < 0 {
		return fmt.Errorf("http.rate_limit and http.rate_burst must not be negative")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	if c.UI.SessionCapacity < 0 {
		return fmt.Errorf("ui.session_capacity must not be negative")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
