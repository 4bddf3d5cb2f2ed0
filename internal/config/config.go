package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	serr "mergemaster/internal/errors"
	"mergemaster/internal/log"
	"mergemaster/pkg/types"

	"gopkg.in/yaml.v3"
)

// Progress display modes accepted in the config file and on the command line.
const (
	ProgressAuto  = "auto"
	ProgressBar   = "bar"
	ProgressPlain = "plain"
	ProgressNone  = "none"
)

// DefaultSettleMillis is how long watch mode waits after the last write to
// a new file before copying it.
const DefaultSettleMillis = 1000

// Config represents the persisted application configuration.
// Defaults pre-fill merge options, Categories extends the built-in type table.
type Config struct {
	Defaults struct {
		Destination string   `yaml:"destination"` // Destination used when -o is absent
		Types       []string `yaml:"types"`       // Type categories to include
		Extensions  []string `yaml:"extensions"`  // Explicit extensions to include
		Exclude     []string `yaml:"exclude"`     // Extensions never copied
		Skip        []string `yaml:"skip"`        // Directory name keywords to prune
		Ignore      []string `yaml:"ignore"`      // File name globs never copied
		Flatten     bool     `yaml:"flatten"`     // Copy everything into the destination root
	} `yaml:"defaults"`
	Categories types.CategoryTable `yaml:"categories"` // Extra or overriding type categories
	Log        struct {
		Level string `yaml:"level"` // trace, debug, info, warn, error
		JSON  bool   `yaml:"json"`  // Emit JSON log lines
	} `yaml:"log"`
	Progress string `yaml:"progress"` // auto, bar, plain or none
	Watch    struct {
		SettleMillis int `yaml:"settle_ms"` // Quiet period before a new file is copied
	} `yaml:"watch"`
}

// DefaultPath returns ~/.config/mergemaster/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "mergemaster", "config.yaml"), nil
}

// LoadConfig loads configuration from the default location.
func LoadConfig() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(path)
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("No config file at %s, using defaults", path)
			return cfg, nil
		}
		return nil, serr.NewConfigError("error reading config file", path, serr.ConfigNotFound, err)
	}

	// Unmarshal into a temporary config to preserve defaults for unset fields
	var tempCfg Config
	if err := yaml.Unmarshal(data, &tempCfg); err != nil {
		return nil, serr.NewConfigError("error parsing config file", path, serr.InvalidConfig, err)
	}

	cfg.Defaults = tempCfg.Defaults
	if len(tempCfg.Categories) > 0 {
		cfg.Categories = make(types.CategoryTable, len(tempCfg.Categories))
		for name, exts := range tempCfg.Categories {
			cfg.Categories[strings.ToLower(strings.TrimSpace(name))] = NormalizeExtensions(exts)
		}
	}
	if tempCfg.Log.Level != "" {
		cfg.Log.Level = tempCfg.Log.Level
	}
	cfg.Log.JSON = tempCfg.Log.JSON
	if tempCfg.Progress != "" {
		cfg.Progress = strings.ToLower(tempCfg.Progress)
	}
	if tempCfg.Watch.SettleMillis != 0 {
		cfg.Watch.SettleMillis = tempCfg.Watch.SettleMillis
	}

	if err := cfg.Validate(); err != nil {
		return nil, serr.Wrapf(err, "invalid configuration in %s", path)
	}

	return cfg, nil
}

// defaultConfig returns the default configuration.
func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Defaults.Skip = []string{}
	cfg.Categories = types.CategoryTable{}
	cfg.Log.Level = "info"
	cfg.Progress = ProgressAuto
	cfg.Watch.SettleMillis = DefaultSettleMillis
	return cfg
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return serr.NewFileError("failed to create config directory", dir, serr.FileKind(err, serr.FileCreateFailed), err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return serr.NewFileError("failed to write config file", path, serr.FileKind(err, serr.FileCreateFailed), err)
	}

	return nil
}

// CategoryTable returns the built-in categories overlaid with the ones
// defined in the config file.
func (c *Config) CategoryTable() types.CategoryTable {
	return types.DefaultCategories().Merge(c.Categories)
}

// DefaultInput returns a merge Input pre-filled from the defaults section.
func (c *Config) DefaultInput() Input {
	return Input{
		Destination:    c.Defaults.Destination,
		Types:          append([]string(nil), c.Defaults.Types...),
		Extensions:     append([]string(nil), c.Defaults.Extensions...),
		Exclude:        append([]string(nil), c.Defaults.Exclude...),
		SkipKeywords:   append([]string(nil), c.Defaults.Skip...),
		IgnorePatterns: append([]string(nil), c.Defaults.Ignore...),
		Flatten:        c.Defaults.Flatten,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return serr.NewConfigError("nil config", "", serr.InvalidConfig, nil)
	}

	if err := ValidateProgress(c.Progress); err != nil {
		return err
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return serr.NewConfigError("invalid log level", c.Log.Level, serr.InvalidConfig, err)
	}

	if c.Watch.SettleMillis < 0 {
		return serr.NewConfigError("watch settle period must be >= 0", "watch.settle_ms", serr.InvalidConfig, nil)
	}

	for name, exts := range c.Categories {
		if name == "" {
			return serr.NewConfigError("category name cannot be empty", "categories", serr.InvalidConfig, nil)
		}
		if len(exts) == 0 {
			return serr.NewConfigError("category has no extensions", "categories."+name, serr.InvalidConfig, nil)
		}
	}

	table := c.CategoryTable()
	for _, name := range c.Defaults.Types {
		if !table.Has(strings.TrimSpace(name)) {
			return serr.NewConfigError("unknown type category", name, serr.InvalidConfig, nil)
		}
	}

	return nil
}

// ValidateProgress checks a progress display setting.
func ValidateProgress(kind string) error {
	switch kind {
	case ProgressAuto, ProgressBar, ProgressPlain, ProgressNone:
		return nil
	}
	return serr.NewConfigError("invalid progress setting", kind, serr.InvalidConfig, nil)
}
