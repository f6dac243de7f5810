package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFolderName(t *testing.T) {
	tests := []struct {
		name     string
		location string
		want     string
		wantOK   bool
	}{
		{"simple", "/ws/lib-core", "lib-core", true},
		{"trailing slash", "/ws/lib-core/", "lib-core", true},
		{"unresolvable", "", "", false},
		{"root", "/", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Project{Name: "x", Location: tt.location}.FolderName()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("FolderName(%q) = (%q, %v), want (%q, %v)", tt.location, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestMismatched(t *testing.T) {
	if (Project{Name: "lib-core", Location: "/ws/lib-core"}).Mismatched() {
		t.Error("matching names reported as mismatched")
	}
	if !(Project{Name: "lib-core", Location: "/ws/lib-core-old"}).Mismatched() {
		t.Error("differing names not reported as mismatched")
	}
	if !(Project{Name: "Lib", Location: "/ws/lib"}).Mismatched() {
		t.Error("comparison must be case-sensitive")
	}
	if (Project{Name: "lib-core"}).Mismatched() {
		t.Error("unresolvable location must not be mismatched")
	}
}

func TestResourcePath(t *testing.T) {
	if got := (Project{Name: "lib-core"}).ResourcePath(); got != "/lib-core" {
		t.Errorf("ResourcePath = %q", got)
	}
}

func TestDescriptor_RoundTripThroughFolder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "lib-core-old")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if HasDescriptor(dir) {
		t.Fatal("empty folder should not have a descriptor")
	}
	if _, err := ReadDescriptor(dir); !errors.Is(err, ErrNoDescriptor) {
		t.Fatalf("expected ErrNoDescriptor, got %v", err)
	}

	if err := WriteDescriptor(dir, "lib-core"); err != nil {
		t.Fatalf("WriteDescriptor failed: %v", err)
	}
	d, err := ReadDescriptor(dir)
	if err != nil {
		t.Fatalf("ReadDescriptor failed: %v", err)
	}
	if d.Name != "lib-core" {
		t.Errorf("expected declared name lib-core, got %q", d.Name)
	}
}

func TestReadDescriptor_Invalid(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(DescriptorPath(dir), []byte("<projectDescription><name> </name></projectDescription>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadDescriptor(dir); err == nil {
		t.Error("expected error for empty name")
	}

	if err := os.WriteFile(DescriptorPath(dir), []byte("not xml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadDescriptor(dir); err == nil {
		t.Error("expected error for malformed descriptor")
	}
}
