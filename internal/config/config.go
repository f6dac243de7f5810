// Package config handles configuration loading and validation for namesync.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"namesync/internal/atomicfile"
	"namesync/internal/logging"
	"namesync/internal/messages"
	"namesync/internal/watcher"
)

// DefaultFileName is the configuration file looked up in the workspace root.
const DefaultFileName = "namesync.yaml"

// ConfigErrorType represents the type of configuration error.
type ConfigErrorType string

const (
	FileNotFound    ConfigErrorType = "FILE_NOT_FOUND"
	InvalidYAML     ConfigErrorType = "INVALID_YAML"
	ValidationError ConfigErrorType = "VALIDATION_ERROR"
)

// ConfigError represents an error that occurred during configuration loading.
type ConfigError struct {
	Type    ConfigErrorType
	Path    string
	Message string
}

func (e *ConfigError) Error() string {
	switch e.Type {
	case FileNotFound:
		return fmt.Sprintf("configuration file not found: %s", e.Path)
	case InvalidYAML:
		return fmt.Sprintf("invalid YAML in configuration file: %s", e.Message)
	case ValidationError:
		return fmt.Sprintf("configuration validation error: %s", e.Message)
	default:
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
}

// LinkedProject is a project outside the workspace root. Location is a path or a URI.
type LinkedProject struct {
	Name     string `yaml:"name,omitempty"`
	Location string `yaml:"location"`
}

// WatchConfig tunes the filesystem watcher.
type WatchConfig struct {
	DebounceMillis        int      `yaml:"debounceMillis"`
	StableThresholdMillis int      `yaml:"stableThresholdMillis"`
	IgnorePatterns        []string `yaml:"ignorePatterns,omitempty"`
}

// PromptConfig controls the rename warning prompt.
type PromptConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Style   string `yaml:"style,omitempty"` // auto, form or line
}

// JournalConfig controls the validation history file.
type JournalConfig struct {
	Enabled    *bool `yaml:"enabled,omitempty"`
	MaxSizeMB  int   `yaml:"maxSizeMB,omitempty"`
	MaxBackups int   `yaml:"maxBackups,omitempty"`
}

// Configuration holds all settings for namesync.
type Configuration struct {
	Workspace      string          `yaml:"workspace"`
	StateDirectory string          `yaml:"stateDirectory,omitempty"`
	LinkedProjects []LinkedProject `yaml:"linkedProjects,omitempty"`
	Language       string          `yaml:"language,omitempty"`
	MessagesFile   string          `yaml:"messagesFile,omitempty"`
	Watch          *WatchConfig    `yaml:"watch,omitempty"`
	Prompt         *PromptConfig   `yaml:"prompt,omitempty"`
	Journal        *JournalConfig  `yaml:"journal,omitempty"`
	Logging        logging.Config  `yaml:"logging,omitempty"`
}

// Validate checks the fields Load cannot work without. ValidateConfig does the full check.
func (c *Configuration) Validate() error {
	if c.Workspace == "" {
		return &ConfigError{
			Type:    ValidationError,
			Message: "workspace cannot be empty",
		}
	}
	for i, link := range c.LinkedProjects {
		if link.Location == "" {
			return &ConfigError{
				Type:    ValidationError,
				Message: fmt.Sprintf("linkedProjects[%d].location cannot be empty", i),
			}
		}
	}
	if err := c.Logging.Validate(); err != nil {
		return &ConfigError{Type: ValidationError, Message: err.Error()}
	}
	return nil
}

// ApplyDefaults fills zero values. StateDirectory defaults to .metadata/.namesync
// below the workspace, so it needs Workspace to be set first.
func (c *Configuration) ApplyDefaults() {
	if c.StateDirectory == "" && c.Workspace != "" {
		c.StateDirectory = filepath.Join(c.Workspace, ".metadata", ".namesync")
	}
	if c.Language == "" {
		c.Language = messages.DefaultLanguage
	}

	if c.Watch == nil {
		c.Watch = &WatchConfig{}
	}
	defaults := watcher.DefaultConfig()
	if c.Watch.DebounceMillis == 0 {
		c.Watch.DebounceMillis = int(defaults.Debounce / time.Millisecond)
	}
	if c.Watch.StableThresholdMillis == 0 {
		c.Watch.StableThresholdMillis = int(defaults.StableThreshold / time.Millisecond)
	}
	if len(c.Watch.IgnorePatterns) == 0 {
		c.Watch.IgnorePatterns = defaults.IgnorePatterns
	}

	if c.Prompt == nil {
		c.Prompt = &PromptConfig{}
	}
	if c.Prompt.Enabled == nil {
		enabled := true
		c.Prompt.Enabled = &enabled
	}
	if c.Prompt.Style == "" {
		c.Prompt.Style = "auto"
	}

	if c.Journal == nil {
		c.Journal = &JournalConfig{}
	}
	if c.Journal.Enabled == nil {
		enabled := true
		c.Journal.Enabled = &enabled
	}
	if c.Journal.MaxSizeMB == 0 {
		c.Journal.MaxSizeMB = 10
	}
	if c.Journal.MaxBackups == 0 {
		c.Journal.MaxBackups = 3
	}
}

// PromptEnabled reports whether newly added mismatched projects may prompt.
func (c *Configuration) PromptEnabled() bool {
	return c.Prompt == nil || c.Prompt.Enabled == nil || *c.Prompt.Enabled
}

// JournalEnabled reports whether outcomes are written to the journal.
func (c *Configuration) JournalEnabled() bool {
	return c.Journal == nil || c.Journal.Enabled == nil || *c.Journal.Enabled
}

// WatcherConfig converts the watch section for the watcher package.
func (c *Configuration) WatcherConfig() *watcher.Config {
	cfg := watcher.DefaultConfig()
	if c.Watch == nil {
		return cfg
	}
	cfg.Debounce = time.Duration(c.Watch.DebounceMillis) * time.Millisecond
	cfg.StableThreshold = time.Duration(c.Watch.StableThresholdMillis) * time.Millisecond
	if len(c.Watch.IgnorePatterns) > 0 {
		cfg.IgnorePatterns = c.Watch.IgnorePatterns
	}
	return cfg
}

// HasLinkedProject checks if a location is already linked.
func (c *Configuration) HasLinkedProject(location string) bool {
	for _, link := range c.LinkedProjects {
		if link.Location == location {
			return true
		}
	}
	return false
}

// AddLinkedProject adds a link if its location is not linked yet.
// Returns true if the link was added, false if it was a duplicate.
func (c *Configuration) AddLinkedProject(link LinkedProject) bool {
	if c.HasLinkedProject(link.Location) {
		return false
	}
	c.LinkedProjects = append(c.LinkedProjects, link)
	return true
}

// Load reads, defaults and validates a configuration file.
func Load(filePath string) (*Configuration, error) {
	config, err := read(filePath)
	if err != nil {
		return nil, err
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadOrCreate loads config if it exists, or returns an empty configuration for
// workspace if the file doesn't exist. The result has defaults applied but is not
// validated.
func LoadOrCreate(filePath, workspace string) (*Configuration, error) {
	config, err := read(filePath)
	if err != nil {
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) || cfgErr.Type != FileNotFound || cfgErr.Message != "" {
			return nil, err
		}
		config = &Configuration{}
	}
	if config.Workspace == "" {
		config.Workspace = workspace
	}
	config.ApplyDefaults()
	return config, nil
}

func read(filePath string) (*Configuration, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ConfigError{
				Type: FileNotFound,
				Path: filePath,
			}
		}
		return nil, &ConfigError{
			Type:    FileNotFound,
			Path:    filePath,
			Message: err.Error(),
		}
	}

	var config Configuration
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, &ConfigError{
			Type:    InvalidYAML,
			Path:    filePath,
			Message: err.Error(),
		}
	}
	return &config, nil
}

// Save serializes and writes a configuration to the given path.
func Save(config *Configuration, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return &ConfigError{
			Type:    InvalidYAML,
			Message: err.Error(),
		}
	}

	if err := atomicfile.Save(filePath, data, 0o644); err != nil {
		return &ConfigError{
			Type:    ValidationError,
			Message: fmt.Sprintf("failed to write configuration file: %s", err.Error()),
		}
	}
	return nil
}
