package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"namesync/internal/messages"
)

// ValidationSeverity represents the severity of a validation issue.
type ValidationSeverity string

const (
	SeverityError   ValidationSeverity = "error"
	SeverityWarning ValidationSeverity = "warning"
)

// ConfigValidationError represents a single validation issue.
type ConfigValidationError struct {
	Field    string // e.g. "linkedProjects[0].location"
	Message  string
	Severity ValidationSeverity
}

// ValidationResult contains all validation findings.
type ValidationResult struct {
	Errors   []ConfigValidationError
	Warnings []ConfigValidationError
	Valid    bool // True if no errors (warnings OK)
}

// ValidateConfig checks the configuration and returns all findings, not just the first.
func ValidateConfig(cfg *Configuration) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ConfigValidationError{},
		Warnings: []ConfigValidationError{},
	}

	var findings []ConfigValidationError
	findings = append(findings, ValidatePaths(cfg)...)
	findings = append(findings, ValidateLinkedProjects(cfg)...)
	findings = append(findings, ValidateSettings(cfg)...)

	for _, f := range findings {
		if f.Severity == SeverityError {
			result.Errors = append(result.Errors, f)
		} else {
			result.Warnings = append(result.Warnings, f)
		}
	}
	result.Valid = len(result.Errors) == 0
	return result
}

// ValidatePaths checks the workspace, the state directory and local linked locations.
func ValidatePaths(cfg *Configuration) []ConfigValidationError {
	var errors []ConfigValidationError

	if cfg.Workspace == "" {
		errors = append(errors, ConfigValidationError{
			Field:    "workspace",
			Message:  "workspace cannot be empty",
			Severity: SeverityError,
		})
	} else if msg := checkDirectory(cfg.Workspace); msg != "" {
		errors = append(errors, ConfigValidationError{
			Field:    "workspace",
			Message:  msg,
			Severity: SeverityError,
		})
	}

	if cfg.StateDirectory != "" {
		if info, err := os.Stat(cfg.StateDirectory); err == nil {
			if !info.IsDir() {
				errors = append(errors, ConfigValidationError{
					Field:    "stateDirectory",
					Message:  "path exists but is not a directory: " + cfg.StateDirectory,
					Severity: SeverityError,
				})
			}
		} else if !os.IsNotExist(err) {
			errors = append(errors, ConfigValidationError{
				Field:    "stateDirectory",
				Message:  "error accessing directory: " + err.Error(),
				Severity: SeverityError,
			})
		}
	}

	for i, link := range cfg.LinkedProjects {
		location := link.Location
		if strings.Contains(location, "://") {
			if !strings.HasPrefix(location, "file://") {
				continue
			}
			location = strings.TrimPrefix(location, "file://")
		}
		if location == "" {
			continue
		}
		if !filepath.IsAbs(location) && cfg.Workspace != "" {
			location = filepath.Join(cfg.Workspace, location)
		}
		if msg := checkDirectory(location); msg != "" {
			errors = append(errors, ConfigValidationError{
				Field:    formatField("linkedProjects", i) + ".location",
				Message:  msg,
				Severity: SeverityWarning,
			})
		}
	}

	return errors
}

// ValidateLinkedProjects checks for incomplete and duplicate links.
func ValidateLinkedProjects(cfg *Configuration) []ConfigValidationError {
	var errors []ConfigValidationError

	names := make(map[string]int)
	locations := make(map[string]int)
	for i, link := range cfg.LinkedProjects {
		field := formatField("linkedProjects", i)
		if link.Location == "" {
			errors = append(errors, ConfigValidationError{
				Field:    field + ".location",
				Message:  "location cannot be empty",
				Severity: SeverityError,
			})
			continue
		}
		if strings.Contains(link.Location, "://") && !strings.HasPrefix(link.Location, "file://") && link.Name == "" {
			errors = append(errors, ConfigValidationError{
				Field:    field + ".name",
				Message:  "a link to a non-local location needs a name: " + link.Location,
				Severity: SeverityError,
			})
		}
		if first, exists := locations[link.Location]; exists {
			errors = append(errors, ConfigValidationError{
				Field:    field + ".location",
				Message:  "duplicate location \"" + link.Location + "\" conflicts with link at index " + strconv.Itoa(first),
				Severity: SeverityError,
			})
		} else {
			locations[link.Location] = i
		}
		if link.Name == "" {
			continue
		}
		if first, exists := names[link.Name]; exists {
			errors = append(errors, ConfigValidationError{
				Field:    field + ".name",
				Message:  "duplicate name \"" + link.Name + "\"; the link at index " + strconv.Itoa(first) + " wins",
				Severity: SeverityWarning,
			})
		} else {
			names[link.Name] = i
		}
	}

	return errors
}

// ValidateSettings checks language, prompt, watch, journal and logging values.
func ValidateSettings(cfg *Configuration) []ConfigValidationError {
	var errors []ConfigValidationError
	add := func(field, message string) {
		errors = append(errors, ConfigValidationError{Field: field, Message: message, Severity: SeverityError})
	}

	if cfg.Language != "" && !contains(messages.Languages(), cfg.Language) {
		add("language", "unsupported language \""+cfg.Language+"\". Must be one of: "+strings.Join(messages.Languages(), ", "))
	}
	if cfg.MessagesFile != "" {
		if _, err := os.Stat(cfg.MessagesFile); err != nil {
			add("messagesFile", "cannot read messages file: "+cfg.MessagesFile)
		}
	}

	if cfg.Prompt != nil {
		switch cfg.Prompt.Style {
		case "", "auto", "form", "line":
		default:
			add("prompt.style", "invalid prompt style: \""+cfg.Prompt.Style+"\". Must be \"auto\", \"form\", or \"line\"")
		}
	}

	if cfg.Watch != nil {
		if cfg.Watch.DebounceMillis < 0 {
			add("watch.debounceMillis", "debounceMillis must be a non-negative integer")
		}
		if cfg.Watch.StableThresholdMillis < 0 {
			add("watch.stableThresholdMillis", "stableThresholdMillis must be a non-negative integer")
		}
		for i, pattern := range cfg.Watch.IgnorePatterns {
			if _, err := filepath.Match(pattern, ""); err != nil {
				add(formatField("watch.ignorePatterns", i), "invalid glob pattern: \""+pattern+"\"")
			}
		}
	}

	if cfg.Journal != nil {
		if cfg.Journal.MaxSizeMB < 0 {
			add("journal.maxSizeMB", "maxSizeMB must be a non-negative integer")
		}
		if cfg.Journal.MaxBackups < 0 {
			add("journal.maxBackups", "maxBackups must be a non-negative integer")
		}
	}

	if _, err := cfg.Logging.Normalize(); err != nil {
		add("logging", err.Error())
	}

	return errors
}

func checkDirectory(dir string) string {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return "directory does not exist: " + dir
	case os.IsPermission(err):
		return "directory is not accessible: " + dir
	case err != nil:
		return "error accessing directory: " + err.Error()
	case !info.IsDir():
		return "path is not a directory: " + dir
	}
	return ""
}

// formatField creates a field reference string for validation errors.
func formatField(name string, index int) string {
	return name + "[" + strconv.Itoa(index) + "]"
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
