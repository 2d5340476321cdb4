package manager

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Veraticus/highlight/pkg/highlight"
	"github.com/Veraticus/highlight/pkg/store"
	"github.com/Veraticus/highlight/pkg/types"
)

// ExportToString serializes every user highlight, one record per line, in
// catalog order
func (m *Manager) ExportToString() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var b strings.Builder
	for _, h := range m.rules {
		b.WriteString(h.Serialize())
		b.WriteByte('\n')
	}
	return b.String()
}

// ImportFromString merges the records of s into the catalog. Blank lines and
// lines starting with '#' are skipped. Every valid record is imported; the
// failures are joined into the returned error. Buffer-scoped records become
// session-scoped since their buffer is unknown. One change event fires when
// anything was imported.
func (m *Manager) ImportFromString(s string) (int, error) {
	var (
		parsed []*highlight.Highlight
		errs   []error
	)

	scanner := bufio.NewScanner(strings.NewReader(s))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}
		h, err := highlight.Parse(text)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if h.Scope() == types.ScopeBuffer {
			h.SetScope(types.ScopeSession)
		}
		parsed = append(parsed, h)
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
	}

	imported := 0
	m.mu.Lock()
	for _, h := range parsed {
		if err := m.addLocked(h); err != nil {
			errs = append(errs, fmt.Errorf("%q: %w", h.Pattern(), err))
			continue
		}
		imported++
	}
	m.mu.Unlock()

	if imported > 0 {
		m.fireHighlightChangeListener()
	}
	return imported, errors.Join(errs...)
}

// ExportToFile writes ExportToString to path
func (m *Manager) ExportToFile(path string) error {
	if err := os.WriteFile(path, []byte(m.ExportToString()), 0o600); err != nil {
		m.logger.Error("Failed to export highlights", "path", path, "error", err)
		return fmt.Errorf("failed to export highlights: %w", err)
	}
	return nil
}

// ImportFromFile merges the records of the file at path into the catalog
func (m *Manager) ImportFromFile(path string) (int, error) {
	// #nosec G304 - The import path is chosen by the user
	data, err := os.ReadFile(path)
	if err != nil {
		m.logger.Error("Failed to import highlights", "path", path, "error", err)
		return 0, fmt.Errorf("failed to import highlights: %w", err)
	}
	n, err := m.ImportFromString(string(data))
	if err != nil {
		m.logger.Warn("Some highlights were not imported", "path", path, "imported", n, "error", err)
	}
	return n, err
}

// Load replaces the catalog with the persisted permanent highlights and the
// persisted enabled flag. A corrupt or unreadable file leaves the catalog
// empty and is logged; the in-memory catalog stays usable.
func (m *Manager) Load() error {
	if m.store == nil {
		return nil
	}

	doc, loadErr := m.store.Load()
	if doc == nil {
		doc = &store.Document{Enabled: true}
	}
	if loadErr != nil {
		if errors.Is(loadErr, store.ErrCorrupt) {
			m.logger.Warn("Highlight data file is corrupt, starting empty", "error", loadErr)
		} else {
			m.logger.Error("Failed to load highlights", "error", loadErr)
		}
	}

	var (
		rules []*highlight.Highlight
		errs  []error
	)
	for _, rec := range doc.Highlights {
		h, err := rec.Highlight()
		if err != nil {
			errs = append(errs, fmt.Errorf("%q: %w", rec.Pattern, err))
			continue
		}
		h.SetScope(types.ScopePermanent)
		rules = append(rules, h)
	}
	if len(errs) > 0 {
		m.logger.Warn("Skipped persisted highlights", "error", errors.Join(errs...))
	}

	m.mu.Lock()
	for _, h := range rules {
		h.SetMatchTimeout(m.cfg.MatchTimeout)
	}
	m.rules = rules
	m.enabled = doc.Enabled
	m.mu.Unlock()

	m.fireHighlightChangeListener()
	return loadErr
}

// Save persists the permanent highlights and the enabled flag. Failures are
// logged and returned; the in-memory catalog is unaffected.
func (m *Manager) Save() error {
	if m.store == nil {
		return nil
	}

	m.mu.RLock()
	doc := &store.Document{Enabled: m.enabled}
	for _, h := range m.rules {
		if h.Scope() == types.ScopePermanent {
			doc.Highlights = append(doc.Highlights, store.FromHighlight(h))
		}
	}
	m.mu.RUnlock()

	if err := m.store.Save(doc); err != nil {
		m.logger.Error("Failed to save highlights", "error", err)
		return err
	}
	return nil
}
