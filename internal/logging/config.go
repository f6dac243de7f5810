package logging

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type Sink string

const (
	SinkStderr Sink = "stderr"
	SinkFile   Sink = "file"
	SinkNone   Sink = "none"
)

const (
	EnvLogLevel      = "NAMESYNC_LOG_LEVEL"
	EnvLogFormat     = "NAMESYNC_LOG_FORMAT"
	EnvLogSink       = "NAMESYNC_LOG_SINK"
	EnvLogFile       = "NAMESYNC_LOG_FILE"
	EnvLogAddSource  = "NAMESYNC_LOG_ADD_SOURCE"
	EnvLogMaxSizeMB  = "NAMESYNC_LOG_MAX_SIZE_MB"
	EnvLogMaxBackups = "NAMESYNC_LOG_MAX_BACKUPS"
	EnvLogMaxAgeDays = "NAMESYNC_LOG_MAX_AGE_DAYS"
	EnvLogCompress   = "NAMESYNC_LOG_COMPRESS"
)

// Config is the logging section of the configuration file. Nil fields take the
// defaults of the run mode.
type Config struct {
	Level     *string `yaml:"level,omitempty"`
	Format    *string `yaml:"format,omitempty"`
	Sink      *string `yaml:"sink,omitempty"`
	File      *string `yaml:"file,omitempty"`
	AddSource *bool   `yaml:"addSource,omitempty"`

	MaxSizeMB  *int  `yaml:"maxSizeMB,omitempty"`
	MaxBackups *int  `yaml:"maxBackups,omitempty"`
	MaxAgeDays *int  `yaml:"maxAgeDays,omitempty"`
	Compress   *bool `yaml:"compress,omitempty"`
}

func DefaultConfig(mode Mode) Config {
	// one-shot commands only log errors; the long-running watcher logs progress to a file
	level := "error"
	sink := string(SinkStderr)
	format := string(FormatText)
	addSource := false

	if mode == ModeWatch {
		level = "info"
		sink = string(SinkFile)
		format = string(FormatJSON)
	}

	maxSizeMB := 10
	maxBackups := 3
	maxAgeDays := 14
	compress := true

	return Config{
		Level:      &level,
		Format:     &format,
		Sink:       &sink,
		AddSource:  &addSource,
		MaxSizeMB:  &maxSizeMB,
		MaxBackups: &maxBackups,
		MaxAgeDays: &maxAgeDays,
		Compress:   &compress,
	}
}

// WithEnv applies NAMESYNC_LOG_* overrides. Unparseable numbers are ignored.
func (c Config) WithEnv() Config {
	applyString := func(dst **string, env string) {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = &v
		}
	}
	applyBool := func(dst **bool, env string) {
		raw := strings.TrimSpace(os.Getenv(env))
		if raw == "" {
			return
		}
		v := !isDisabledString(raw)
		*dst = &v
	}
	applyInt := func(dst **int, env string) {
		raw := strings.TrimSpace(os.Getenv(env))
		if raw == "" {
			return
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return
		}
		*dst = &n
	}

	applyString(&c.Level, EnvLogLevel)
	applyString(&c.Format, EnvLogFormat)
	applyString(&c.Sink, EnvLogSink)
	applyString(&c.File, EnvLogFile)
	applyBool(&c.AddSource, EnvLogAddSource)
	applyInt(&c.MaxSizeMB, EnvLogMaxSizeMB)
	applyInt(&c.MaxBackups, EnvLogMaxBackups)
	applyInt(&c.MaxAgeDays, EnvLogMaxAgeDays)
	applyBool(&c.Compress, EnvLogCompress)
	return c
}

// Normalize lowercases enumerations, drops blank strings, clamps negative sizes and
// validates the result.
func (c Config) Normalize() (Config, error) {
	normalizeString := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.ToLower(strings.TrimSpace(*s))
		if v == "" {
			return nil
		}
		return &v
	}
	clamp := func(n *int) *int {
		if n != nil && *n < 0 {
			zero := 0
			return &zero
		}
		return n
	}
	c.Level = normalizeString(c.Level)
	c.Format = normalizeString(c.Format)
	c.Sink = normalizeString(c.Sink)
	if c.File != nil {
		v := strings.TrimSpace(*c.File)
		if v == "" {
			c.File = nil
		} else {
			c.File = &v
		}
	}
	c.MaxSizeMB = clamp(c.MaxSizeMB)
	c.MaxBackups = clamp(c.MaxBackups)
	c.MaxAgeDays = clamp(c.MaxAgeDays)
	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.Level != nil {
		switch *c.Level {
		case "debug", "info", "warn", "warning", "error":
		default:
			return fmt.Errorf("logging.level: invalid %q", *c.Level)
		}
	}
	if c.Format != nil {
		switch Format(*c.Format) {
		case FormatText, FormatJSON:
		default:
			return fmt.Errorf("logging.format: invalid %q", *c.Format)
		}
	}
	if c.Sink != nil {
		switch Sink(*c.Sink) {
		case SinkStderr, SinkFile, SinkNone:
		default:
			return fmt.Errorf("logging.sink: invalid %q", *c.Sink)
		}
	}
	return nil
}

func isDisabledString(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "0", "false", "no", "off":
		return true
	default:
		return false
	}
}
