package project

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DescriptorFile is the name of the project descriptor inside a project folder.
const DescriptorFile = ".project"

// ErrNoDescriptor is returned when a folder has no project descriptor.
var ErrNoDescriptor = errors.New("project descriptor not found")

// Descriptor is the subset of the project descriptor namesync reads.
type Descriptor struct {
	XMLName xml.Name `xml:"projectDescription"`
	Name    string   `xml:"name"`
	Comment string   `xml:"comment,omitempty"`
}

// DescriptorPath returns the descriptor path for a project folder.
func DescriptorPath(dir string) string {
	return filepath.Join(dir, DescriptorFile)
}

// HasDescriptor reports whether dir contains a project descriptor.
func HasDescriptor(dir string) bool {
	info, err := os.Stat(DescriptorPath(dir))
	return err == nil && !info.IsDir()
}

// ReadDescriptor parses the descriptor in dir.
func ReadDescriptor(dir string) (*Descriptor, error) {
	data, err := os.ReadFile(DescriptorPath(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoDescriptor
		}
		return nil, fmt.Errorf("read descriptor: %w", err)
	}
	var d Descriptor
	if err := xml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse descriptor %s: %w", DescriptorPath(dir), err)
	}
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return nil, fmt.Errorf("descriptor %s has an empty name", DescriptorPath(dir))
	}
	return &d, nil
}

// WriteDescriptor writes a minimal descriptor declaring name into dir.
func WriteDescriptor(dir, name string) error {
	data, err := xml.MarshalIndent(Descriptor{Name: name}, "", "\t")
	if err != nil {
		return err
	}
	data = append([]byte(xml.Header), data...)
	data = append(data, '\n')
	return os.WriteFile(DescriptorPath(dir), data, 0o644)
}
