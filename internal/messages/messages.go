// Package messages holds the localized user-facing texts.
//
// Catalogs are YAML maps from message key to text. The built-in catalogs are embedded;
// an override file may replace individual entries.
package messages

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Message keys.
const (
	MarkerCreationFailed = "exception.marker.creation"
	MarkerDeletionFailed = "exception.marker.deletion"
	MarkerMessage        = "marker.message"
	WarningDialog        = "dialog.warning"
	PropertyPageText     = "property.page.text"
)

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "en"

//go:embed catalogs/*.yaml
var catalogs embed.FS

// Messages maps message keys to localized text. Texts may contain positional
// placeholders {0}, {1}, ...
type Messages map[string]string

// Load returns the built-in catalog for language, falling back to DefaultLanguage for
// keys the language does not define.
func Load(language string) (Messages, error) {
	if language == "" {
		language = DefaultLanguage
	}
	base, err := loadEmbedded(DefaultLanguage)
	if err != nil {
		return nil, err
	}
	if language == DefaultLanguage {
		return base, nil
	}
	localized, err := loadEmbedded(language)
	if err != nil {
		return nil, err
	}
	return base.Merge(localized), nil
}

// LoadWithOverride loads language and then applies entries from the YAML file at path.
// An empty path means no override.
func LoadWithOverride(language, path string) (Messages, error) {
	m, err := Load(language)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return m, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read messages file: %w", err)
	}
	override, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse messages file %s: %w", path, err)
	}
	return m.Merge(override), nil
}

// Languages lists the embedded catalogs.
func Languages() []string {
	entries, err := catalogs.ReadDir("catalogs")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return out
}

func loadEmbedded(language string) (Messages, error) {
	data, err := catalogs.ReadFile("catalogs/" + language + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown language %q", language)
	}
	return parse(data)
}

func parse(data []byte) (Messages, error) {
	m := make(Messages)
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Merge returns a copy of m with entries from other applied on top.
func (m Messages) Merge(other Messages) Messages {
	out := make(Messages, len(m)+len(other))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Get returns the text for key with placeholders replaced by args.
// Unknown keys return the key itself so a missing entry is visible rather than blank.
func (m Messages) Get(key string, args ...string) string {
	text, ok := m[key]
	if !ok {
		return key
	}
	for i, arg := range args {
		text = strings.ReplaceAll(text, fmt.Sprintf("{%d}", i), arg)
	}
	return text
}
