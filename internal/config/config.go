package config

import (
	"errors"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrMissingBridge = errors.New("hue.bridge is required")
	ErrMissingToken  = errors.New("hue.token is required")

	ErrNegativeRetention = errors.New("ledger.retention_days must not be negative")
)

// Config represents the application configuration
type Config struct {
	Hue      HueConfig      `yaml:"hue"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Script   string         `yaml:"script"`
}

// HueConfig contains Hue bridge connection settings
type HueConfig struct {
	Bridge       string   `yaml:"bridge"`
	Token        string   `yaml:"token"`
	Timeout      Duration `yaml:"timeout"`        // HTTP timeout for bridge requests
	RateLimitRPS float64  `yaml:"rate_limit_rps"` // 0 = unlimited
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	Colors  bool   `yaml:"colors"`
	UseJSON bool   `yaml:"use_json"`
}

// LedgerConfig contains apply history settings
type LedgerConfig struct {
	Enabled       *bool `yaml:"enabled"` // default: true
	RetentionDays int   `yaml:"retention_days"`
}

// IsEnabled returns whether apply history is recorded
func (c *LedgerConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Retention returns the history retention period
func (c *LedgerConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// FromEnv builds a configuration from HUE_BRIDGE and HUE_TOKEN, for running
// without a config file.
func FromEnv() (*Config, error) {
	cfg := Config{
		Hue: HueConfig{
			Bridge: os.Getenv("HUE_BRIDGE"),
			Token:  os.Getenv("HUE_TOKEN"),
		},
	}
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the required settings are present
func (c *Config) Validate() error {
	if c.Hue.Bridge == "" {
		return ErrMissingBridge
	}
	if c.Hue.Token == "" {
		return ErrMissingToken
	}
	if c.Ledger.RetentionDays < 0 {
		return ErrNegativeRetention
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./huepreset.sqlite"
	}
	if c.Script == "" {
		c.Script = "presets.lua"
	}

	// Hue defaults
	if c.Hue.Timeout == 0 {
		c.Hue.Timeout = Duration(10 * time.Second)
	}
	// RateLimitRPS defaults to 0 (unlimited), no need to set

	// Ledger defaults
	if c.Ledger.RetentionDays == 0 {
		c.Ledger.RetentionDays = 30
	}
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
