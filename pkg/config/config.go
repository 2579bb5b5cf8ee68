// Package config provides configuration management for perf-annotate.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. PERF_ANNOTATE_DISPLAY_MIN_PERCENT.
const EnvPrefix = "PERF_ANNOTATE"

// Config holds all configuration for the application.
type Config struct {
	Display    DisplayConfig    `mapstructure:"display"`
	Profile    ProfileConfig    `mapstructure:"profile"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	Log        LogConfig        `mapstructure:"log"`
}

// DisplayConfig controls which table rows are shown and how counts render.
type DisplayConfig struct {
	MinPercent float64 `mapstructure:"min_percent"`
	Format     string  `mapstructure:"format"` // percent, count or both
	Limit      int     `mapstructure:"limit"`  // 0 means unlimited
	// MaxSymbolWidth truncates longer symbol names; 0 keeps them whole.
	MaxSymbolWidth int `mapstructure:"max_symbol_width"`
}

// ProfileConfig holds profile loading configuration.
type ProfileConfig struct {
	DefaultEvent string `mapstructure:"default_event"`
	Source       string `mapstructure:"source"` // local or cos
	// PathPrefix is stripped from canonical source paths before they are
	// looked up in the profile.
	PathPrefix string `mapstructure:"path_prefix"`
}

// StorageConfig holds object storage configuration.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // cos or local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`     // e.g., "myqcloud.com"
	Scheme    string `mapstructure:"scheme"`     // e.g., "https" or "http"
	LocalPath string `mapstructure:"local_path"` // for local storage
	Endpoint  string `mapstructure:"endpoint"`   // overrides the COS bucket URL
}

// NavigationConfig configures how a chosen entry is opened.
type NavigationConfig struct {
	// Editor is a command template with {file} and {line} placeholders.
	// Empty means print the location instead of opening it.
	Editor string `mapstructure:"editor"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from the specified file path. A missing file is
// not an error; defaults and environment overrides still apply.
func Load(configPath string) (*Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("perf-annotate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/perf-annotate")
		}
		v.AddConfigPath("/etc/perf-annotate")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromReader loads configuration from content (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := newViper()

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return unmarshal(v)
}

// Default returns the configuration made of defaults and environment only.
func Default() *Config {
	cfg, err := unmarshal(newViper())
	if err != nil {
		cfg = &Config{}
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("display.min_percent", 1.0)
	v.SetDefault("display.format", "percent")
	v.SetDefault("display.limit", 0)
	v.SetDefault("display.max_symbol_width", 0)

	v.SetDefault("profile.default_event", "")
	v.SetDefault("profile.source", "local")
	v.SetDefault("profile.path_prefix", "")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.secret_id", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.domain", "")
	v.SetDefault("storage.scheme", "")
	v.SetDefault("storage.endpoint", "")

	v.SetDefault("navigation.editor", "")

	v.SetDefault("log.level", "warn")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Display.MinPercent < 0 || c.Display.MinPercent > 100 {
		return fmt.Errorf("display.min_percent must be within [0, 100], got %g", c.Display.MinPercent)
	}
	switch c.Display.Format {
	case "percent", "count", "both":
	default:
		return fmt.Errorf("unsupported display.format: %s", c.Display.Format)
	}
	if c.Display.Limit < 0 {
		return fmt.Errorf("display.limit must not be negative")
	}
	if c.Display.MaxSymbolWidth < 0 {
		return fmt.Errorf("display.max_symbol_width must not be negative")
	}

	switch c.Profile.Source {
	case "local", "cos":
	default:
		return fmt.Errorf("unsupported profile.source: %s", c.Profile.Source)
	}

	// Storage config validation is delegated to storage package

	return nil
}
