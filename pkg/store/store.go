// Package store persists the permanent highlights and the global enabled flag
// as a single yaml document.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/highlight/pkg/highlight"
	"github.com/Veraticus/highlight/pkg/types"
)

// ErrCorrupt is returned when the data file exists but cannot be decoded
var ErrCorrupt = errors.New("corrupt highlight data file")

// Record is the persisted form of one highlight
type Record struct {
	Pattern     string      `yaml:"pattern"`
	Regex       bool        `yaml:"regex"`
	IgnoreCase  bool        `yaml:"ignoreCase"`
	Color       types.Color `yaml:"color"`
	Scope       types.Scope `yaml:"scope"`
	Enabled     bool        `yaml:"enabled"`
	Subsequence bool        `yaml:"subsequence,omitempty"`
}

// Document is the whole data file
type Document struct {
	Enabled    bool     `yaml:"enabled"`
	Highlights []Record `yaml:"highlights"`
}

// FromHighlight captures the persisted fields of h
func FromHighlight(h *highlight.Highlight) Record {
	return Record{
		Pattern:     h.Pattern(),
		Regex:       h.IsRegex(),
		IgnoreCase:  h.IgnoreCase(),
		Color:       h.Color(),
		Scope:       h.Scope(),
		Enabled:     h.Enabled(),
		Subsequence: h.Subsequence(),
	}
}

// Highlight rebuilds a highlight from the record
func (r Record) Highlight() (*highlight.Highlight, error) {
	h, err := highlight.New(r.Pattern, r.Regex, r.IgnoreCase, r.Color)
	if err != nil {
		return nil, err
	}
	h.SetScope(r.Scope)
	h.SetEnabled(r.Enabled)
	h.SetSubsequence(r.Subsequence)
	return h, nil
}

// File reads and writes a Document at a fixed path
type File struct {
	path string
}

// NewFile returns a store backed by path
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the data file path
func (f *File) Path() string {
	return f.path
}

// Load reads the document. A missing file yields an enabled, empty document.
// A file that cannot be decoded is copied to path+".bak", left in place, and
// reported as ErrCorrupt along with an enabled, empty document.
func (f *File) Load() (*Document, error) {
	empty := &Document{Enabled: true}

	// #nosec G304 - The data file path comes from the user's configuration
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return empty, nil
		}
		return empty, fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	doc := &Document{Enabled: true}
	if err := yaml.Unmarshal(data, doc); err != nil {
		backup := f.path + ".bak"
		if werr := os.WriteFile(backup, data, 0o600); werr != nil {
			return empty, fmt.Errorf("%w: %v (backup failed: %v)", ErrCorrupt, err, werr)
		}
		return empty, fmt.Errorf("%w: %v (copied to %s)", ErrCorrupt, err, backup)
	}
	return doc, nil
}

// Save atomically replaces the data file with doc
func (f *File) Save(doc *Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode highlights: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return nil
}
