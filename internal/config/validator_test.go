package config

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestValidationReportsAllErrors(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("every duplicate location and nameless remote link is reported", prop.ForAll(
		func(numDuplicates int, numNameless int) bool {
			cfg := &Configuration{Workspace: t.TempDir()}
			for i := 0; i < numDuplicates; i++ {
				location := "sftp://host/dup" + strconv.Itoa(i)
				cfg.LinkedProjects = append(cfg.LinkedProjects,
					LinkedProject{Name: "a" + strconv.Itoa(i), Location: location},
					LinkedProject{Name: "b" + strconv.Itoa(i), Location: location})
			}
			for i := 0; i < numNameless; i++ {
				cfg.LinkedProjects = append(cfg.LinkedProjects,
					LinkedProject{Location: "https://host/nameless" + strconv.Itoa(i)})
			}

			result := ValidateConfig(cfg)
			if len(result.Errors) != numDuplicates+numNameless {
				t.Logf("expected %d errors, got %+v", numDuplicates+numNameless, result.Errors)
				return false
			}
			return result.Valid == (numDuplicates+numNameless == 0)
		},
		gen.IntRange(0, 4),
		gen.IntRange(0, 4),
	))

	properties.TestingRun(t)
}

func TestValidatePaths(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		cfg      Configuration
		errors   int
		warnings int
	}{
		{"valid", Configuration{Workspace: dir}, 0, 0},
		{"missing workspace", Configuration{Workspace: filepath.Join(dir, "nope")}, 1, 0},
		{"workspace is file", Configuration{Workspace: file}, 1, 0},
		{"empty workspace", Configuration{}, 1, 0},
		{"state dir is file", Configuration{Workspace: dir, StateDirectory: file}, 1, 0},
		{"missing local link", Configuration{Workspace: dir, LinkedProjects: []LinkedProject{{Location: "gone"}}}, 0, 1},
		{"missing file link", Configuration{Workspace: dir, LinkedProjects: []LinkedProject{{Location: "file:///definitely/not/here"}}}, 0, 1},
		{"remote link not checked", Configuration{Workspace: dir, LinkedProjects: []LinkedProject{{Name: "r", Location: "sftp://h/x"}}}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := ValidatePaths(&tt.cfg)
			var errs, warns int
			for _, f := range findings {
				if f.Severity == SeverityError {
					errs++
				} else {
					warns++
				}
			}
			if errs != tt.errors || warns != tt.warnings {
				t.Errorf("got %d errors %d warnings, want %d/%d: %+v", errs, warns, tt.errors, tt.warnings, findings)
			}
		})
	}
}

func TestValidateSettings(t *testing.T) {
	level := "chatty"
	negative := -1
	cfg := &Configuration{
		Workspace:    t.TempDir(),
		Language:     "xx",
		MessagesFile: filepath.Join(t.TempDir(), "missing.yaml"),
		Prompt:       &PromptConfig{Style: "popup"},
		Watch:        &WatchConfig{DebounceMillis: negative, StableThresholdMillis: negative, IgnorePatterns: []string{"[unclosed"}},
		Journal:      &JournalConfig{MaxSizeMB: negative, MaxBackups: negative},
	}
	cfg.Logging.Level = &level

	findings := ValidateSettings(cfg)
	want := map[string]bool{
		"language":                    true,
		"messagesFile":                true,
		"prompt.style":                true,
		"watch.debounceMillis":        true,
		"watch.stableThresholdMillis": true,
		"watch.ignorePatterns[0]":     true,
		"journal.maxSizeMB":           true,
		"journal.maxBackups":          true,
		"logging":                     true,
	}
	for _, f := range findings {
		delete(want, f.Field)
	}
	if len(want) != 0 {
		t.Errorf("missing findings for %v", want)
	}
}

func TestValidateLinkedProjects_DuplicateNameIsWarning(t *testing.T) {
	cfg := &Configuration{LinkedProjects: []LinkedProject{
		{Name: "lib", Location: "/a"},
		{Name: "lib", Location: "/b"},
	}}
	findings := ValidateLinkedProjects(cfg)
	if len(findings) != 1 || findings[0].Severity != SeverityWarning {
		t.Errorf("expected one warning, got %+v", findings)
	}
}
