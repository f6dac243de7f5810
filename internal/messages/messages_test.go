package messages

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

func TestLoad_DefaultLanguageHasAllKeys(t *testing.T) {
	m, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for _, key := range []string{MarkerCreationFailed, MarkerDeletionFailed, MarkerMessage, WarningDialog, PropertyPageText} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing key %s", key)
		}
	}
}

func TestLoad_Russian(t *testing.T) {
	m, err := Load("ru")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !strings.Contains(m.Get(WarningDialog, "lib-core-old"), "lib-core-old") {
		t.Errorf("placeholder not substituted: %q", m.Get(WarningDialog, "lib-core-old"))
	}
}

func TestLoad_UnknownLanguage(t *testing.T) {
	if _, err := Load("xx"); err == nil {
		t.Error("expected error for unknown language")
	}
}

func TestLoadWithOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.yaml")
	if err := os.WriteFile(path, []byte(`marker.message: "custom {0}"`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadWithOverride("en", path)
	if err != nil {
		t.Fatalf("LoadWithOverride failed: %v", err)
	}
	if got := m.Get(MarkerMessage, "x"); got != "custom x" {
		t.Errorf("override not applied: %q", got)
	}
	if m.Get(MarkerCreationFailed) == MarkerCreationFailed {
		t.Error("non-overridden keys must keep built-in text")
	}
}

func TestGet_UnknownKeyReturnsKey(t *testing.T) {
	if got := (Messages{}).Get("nope"); got != "nope" {
		t.Errorf("expected key echo, got %q", got)
	}
}

func TestLanguages(t *testing.T) {
	langs := Languages()
	sort.Strings(langs)
	if len(langs) != 2 || langs[0] != "en" || langs[1] != "ru" {
		t.Errorf("unexpected languages %v", langs)
	}
}
