package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Audio capture settings
	Audio struct {
		WindowSeconds  int      `yaml:"window_seconds"`
		Device         string   `yaml:"device"`
		Backend        string   `yaml:"backend"`
		CaptureCommand []string `yaml:"capture_command"`
	} `yaml:"audio"`

	// Device routing settings
	Routing struct {
		Source   string `yaml:"source"`
		SettleMs int    `yaml:"settle_ms"`
		Disabled bool   `yaml:"disabled"`
	} `yaml:"routing"`

	// Song recognition settings
	Recognition struct {
		Endpoint       string `yaml:"endpoint"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"recognition"`

	// Video search settings
	Video struct {
		Enabled         bool   `yaml:"enabled"`
		MaxResults      int    `yaml:"max_results"`
		Region          string `yaml:"region"`
		CacheTTLMinutes int    `yaml:"cache_ttl_minutes"`
	} `yaml:"video"`

	// Trigger settings
	Trigger struct {
		Hotkey string `yaml:"hotkey"`
	} `yaml:"trigger"`

	// Output settings
	Output struct {
		Format  string `yaml:"format"`
		File    string `yaml:"file"`
		SaveDir string `yaml:"save_dir"`
	} `yaml:"output"`

	// Server settings
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	// Log settings
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Audio defaults
	cfg.Audio.WindowSeconds = 12
	cfg.Audio.Device = ""
	cfg.Audio.Backend = "pipe"

	// Routing defaults
	cfg.Routing.Source = ""
	cfg.Routing.SettleMs = 1500
	cfg.Routing.Disabled = false

	// Recognition defaults
	cfg.Recognition.Endpoint = ""
	cfg.Recognition.TimeoutSeconds = 15

	// Video defaults
	cfg.Video.Enabled = true
	cfg.Video.MaxResults = 3
	cfg.Video.Region = ""
	cfg.Video.CacheTTLMinutes = 15

	// Trigger defaults
	cfg.Trigger.Hotkey = "ctrl+shift+s"

	// Output defaults
	cfg.Output.Format = "text"
	cfg.Output.File = ""
	cfg.Output.SaveDir = ""

	// Server defaults
	cfg.Server.Port = 50051
	cfg.Server.Host = "localhost"

	// Log defaults
	cfg.Log.Level = "info"

	return cfg
}

// Validate checks the configuration for values that cannot work
func (c *Config) Validate() error {
	if c.Audio.WindowSeconds <= 0 {
		return fmt.Errorf("audio.window_seconds must be positive, got %d", c.Audio.WindowSeconds)
	}
	if c.Routing.SettleMs < 0 {
		return fmt.Errorf("routing.settle_ms cannot be negative, got %d", c.Routing.SettleMs)
	}
	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("output.format must be text or json, got %q", c.Output.Format)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadWithFallback attempts to load configuration from multiple locations
// Priority: explicit path > ~/.rewindrc > /etc/rewind/config.yaml
func LoadWithFallback(explicitPath string) (*Config, error) {
	// If explicit path is provided, use it
	if explicitPath != "" {
		return Load(explicitPath)
	}

	// Try user config (~/.rewindrc)
	homeDir, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(homeDir, ".rewindrc")
		if _, err := os.Stat(userConfigPath); err == nil {
			cfg, err := Load(userConfigPath)
			if err == nil {
				return cfg, nil
			}
		}
	}

	// Try system config (/etc/rewind/config.yaml)
	systemConfigPath := "/etc/rewind/config.yaml"
	if _, err := os.Stat(systemConfigPath); err == nil {
		cfg, err := Load(systemConfigPath)
		if err == nil {
			return cfg, nil
		}
	}

	// No config file found, return defaults
	return DefaultConfig(), nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
