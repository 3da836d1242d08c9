package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hession/datakit/internal/logger"
	"github.com/hession/datakit/internal/paths"
)

var (
	// configDir is the configuration directory path
	// Can be set via SetConfigDir before loading config
	configDir     string
	configDirInit bool
)

// SetConfigDir sets a custom configuration directory
// Must be called before any config loading functions
func SetConfigDir(dir string) {
	configDir = dir
	configDirInit = true
}

// GetConfigDir returns the configuration directory
// Priority: 1. Manually set via SetConfigDir, 2. ~/.datakit
func GetConfigDir() string {
	if !configDirInit {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			configDir = filepath.Join(homeDir, ".datakit")
		}
		configDirInit = true
	}
	return configDir
}

// Config application configuration structure
type Config struct {
	History   HistoryConfig `yaml:"history"`
	Log       LogConfig     `yaml:"log"`
	OriginMap []OriginRule  `yaml:"origin_map"`
}

// HistoryConfig run-history storage configuration
type HistoryConfig struct {
	DBPath string `yaml:"db_path"`
	Limit  int    `yaml:"limit"` // default number of runs shown by `datakit history`
}

// LogConfig logging configuration
type LogConfig struct {
	Dir     string `yaml:"dir"`
	Level   string `yaml:"level"`
	MaxDays int    `yaml:"max_days"`
}

// OriginRule is one default working-to-origin prefix rewrite, applied after any
// rules given on the command line.
type OriginRule struct {
	Local string `yaml:"local"`
	Real  string `yaml:"real"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	dir := GetConfigDir()
	return &Config{
		History: HistoryConfig{
			DBPath: filepath.Join(dir, "history.db"),
			Limit:  20,
		},
		Log: LogConfig{
			Dir:     filepath.Join(dir, "logs"),
			Level:   logger.DefaultLevelName,
			MaxDays: 7,
		},
	}
}

// ConfigPath returns the configuration file path
func ConfigPath() (string, error) {
	dir := GetConfigDir()
	if dir == "" {
		return "", fmt.Errorf("failed to determine config directory")
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from file, creating a default one on first run
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := Save(cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Use default values as base
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves configuration to file
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	content := "# datakit configuration file\n\n" + string(data)

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.History.DBPath == "" {
		return fmt.Errorf("config error: history.db_path cannot be empty")
	}
	if c.History.Limit <= 0 {
		return fmt.Errorf("config error: history.limit must be greater than 0")
	}
	if c.Log.Dir == "" {
		return fmt.Errorf("config error: log.dir cannot be empty")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config error: log.level: %w", err)
	}
	if c.Log.MaxDays <= 0 {
		return fmt.Errorf("config error: log.max_days must be greater than 0")
	}
	for i, rule := range c.OriginMap {
		if rule.Local == "" || rule.Real == "" {
			return fmt.Errorf("config error: origin_map[%d] needs both local and real", i)
		}
	}
	return nil
}

// Rules converts the configured default origin-map entries into resolver
// rules, expanding environment variables the same way --origin-map does.
func (c *Config) Rules() []paths.Rule {
	rules := make([]paths.Rule, 0, len(c.OriginMap))
	for _, r := range c.OriginMap {
		rules = append(rules, paths.Rule{
			LocalPrefix: paths.ExpandEnv(r.Local),
			RealPrefix:  paths.ExpandEnv(r.Real),
		})
	}
	return rules
}

// String returns string representation of config
func (c *Config) String() string {
	s := fmt.Sprintf(`datakit configuration:
  History:
    DB Path: %s
    Limit: %d
  Log:
    Dir: %s
    Level: %s
    Max Days: %d`,
		c.History.DBPath,
		c.History.Limit,
		c.Log.Dir,
		c.Log.Level,
		c.Log.MaxDays,
	)
	if len(c.OriginMap) > 0 {
		s += "\n  Origin Map:"
		for _, r := range c.OriginMap {
			s += fmt.Sprintf("\n    %s => %s", r.Local, r.Real)
		}
	}
	return s
}
