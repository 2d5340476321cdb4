// Package manager holds the highlight catalog: the ordered user highlights, the
// two implicit highlights that follow the caret and the selection, and the
// change listeners that repaint when any of them change.
package manager

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/Veraticus/highlight/pkg/config"
	"github.com/Veraticus/highlight/pkg/highlight"
	"github.com/Veraticus/highlight/pkg/interfaces"
	"github.com/Veraticus/highlight/pkg/store"
	"github.com/Veraticus/highlight/pkg/types"
)

// ErrIndexOutOfRange is returned for a row index outside the catalog
var ErrIndexOutOfRange = errors.New("highlight index out of range")

// Store persists the catalog
type Store interface {
	Load() (*store.Document, error)
	Save(doc *store.Document) error
}

// Implicit describes the wanted state of an implicit highlight
type Implicit struct {
	Pattern    string
	Regex      bool
	IgnoreCase bool
	Enabled    bool
}

// Manager is the highlight catalog.
//
// Readers that iterate with Len and At must hold ReadLock. Mutations take the
// write lock and notify listeners after releasing it, on the calling goroutine.
type Manager struct {
	mu          sync.RWMutex
	rules       []*highlight.Highlight
	enabled     bool
	cfg         config.Config
	palette     *highlight.Palette
	currentWord *highlight.Highlight
	selection   *highlight.Highlight

	listenersMu sync.Mutex
	listeners   []interfaces.ChangeListener

	store  Store
	logger *slog.Logger
}

// New creates an empty, enabled catalog. st may be nil to disable persistence.
func New(cfg *config.Config, st Store, logger *slog.Logger) *Manager {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		enabled:     true,
		cfg:         *cfg,
		palette:     highlight.NewPalette(),
		currentWord: highlight.NewImplicit(cfg.CaretHighlightColor),
		selection:   highlight.NewImplicit(cfg.CaretHighlightColor),
		store:       st,
		logger:      logger,
	}
	m.currentWord.SetMatchTimeout(cfg.MatchTimeout)
	m.selection.SetMatchTimeout(cfg.MatchTimeout)
	return m
}

// Config returns a copy of the preferences in effect
func (m *Manager) Config() config.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// ReadLock acquires the catalog read lock
func (m *Manager) ReadLock() {
	m.mu.RLock()
}

// ReleaseLock releases the catalog read lock
func (m *Manager) ReleaseLock() {
	m.mu.RUnlock()
}

// Len returns the number of user highlights. Hold ReadLock while iterating.
func (m *Manager) Len() int {
	return len(m.rules)
}

// At returns the highlight at row i. Hold ReadLock while iterating.
func (m *Manager) At(i int) *highlight.Highlight {
	return m.rules[i]
}

// Snapshot returns a copy of the user highlight list
func (m *Manager) Snapshot() []*highlight.Highlight {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*highlight.Highlight, len(m.rules))
	copy(out, m.rules)
	return out
}

// CurrentWord returns the implicit highlight following the word at the caret
func (m *Manager) CurrentWord() *highlight.Highlight {
	return m.currentWord
}

// Selection returns the implicit highlight following the selected text
func (m *Manager) Selection() *highlight.Highlight {
	return m.selection
}

// NextColor returns the color for a new highlight: the next palette color when
// cycleColor is set, otherwise defaultColor
func (m *Manager) NextColor() types.Color {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.palette.Pick(m.cfg.CycleColor, m.cfg.DefaultColor)
}

// Create builds a highlight with the next color. It is not added.
func (m *Manager) Create(pattern string, regex, ignoreCase bool, scope types.Scope, buffer types.BufferID) (*highlight.Highlight, error) {
	h, err := highlight.New(pattern, regex, ignoreCase, m.NextColor())
	if err != nil {
		return nil, err
	}
	h.SetScope(scope)
	if scope == types.ScopeBuffer {
		h.SetBuffer(buffer)
	}
	return h, nil
}

// Add appends h. When appendHighlight is off and a highlight matching the same
// way already exists, h replaces it in place. Adding a highlight that is
// already in the catalog does nothing. A pattern that does not compile is
// rejected with search.ErrInvalidPattern.
func (m *Manager) Add(h *highlight.Highlight) error {
	if h.Pattern() == "" {
		return highlight.ErrEmptyPattern
	}

	m.mu.Lock()
	if slices.Contains(m.rules, h) {
		m.mu.Unlock()
		return nil
	}
	if err := m.addLocked(h); err != nil {
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()

	m.fireHighlightChangeListener()
	return nil
}

// addLocked inserts h, which must not be in the catalog yet
func (m *Manager) addLocked(h *highlight.Highlight) error {
	h.SetMatchTimeout(m.cfg.MatchTimeout)
	if _, err := h.SearchMatcher(); err != nil {
		return err
	}

	if !m.cfg.AppendHighlight {
		for i, existing := range m.rules {
			if existing.SameMatch(h) {
				m.rules[i] = h
				return nil
			}
		}
	}
	m.rules = append(m.rules, h)
	return nil
}

// RemoveRow removes the highlight at row i
func (m *Manager) RemoveRow(i int) error {
	m.mu.Lock()
	if i < 0 || i >= len(m.rules) {
		n := len(m.rules)
		m.mu.Unlock()
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, n)
	}
	m.rules = append(m.rules[:i:i], m.rules[i+1:]...)
	m.mu.Unlock()

	m.fireHighlightChangeListener()
	return nil
}

// RemoveAll removes every user highlight
func (m *Manager) RemoveAll() {
	m.mu.Lock()
	m.rules = nil
	m.mu.Unlock()

	m.fireHighlightChangeListener()
}

// Update runs fn on the highlight at row i under the write lock and fires one
// change event when fn succeeds
func (m *Manager) Update(i int, fn func(h *highlight.Highlight) error) error {
	m.mu.Lock()
	if i < 0 || i >= len(m.rules) {
		n := len(m.rules)
		m.mu.Unlock()
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, n)
	}
	if err := fn(m.rules[i]); err != nil {
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()

	m.fireHighlightChangeListener()
	return nil
}

// SetRuleEnabled enables or disables the highlight at row i
func (m *Manager) SetRuleEnabled(i int, enabled bool) error {
	return m.Update(i, func(h *highlight.Highlight) error {
		h.SetEnabled(enabled)
		return nil
	})
}

// SetEnabled turns highlighting on or off globally
func (m *Manager) SetEnabled(enabled bool) {
	m.mu.Lock()
	m.enabled = enabled
	m.mu.Unlock()

	m.fireHighlightChangeListener()
}

// Enabled reports whether highlighting is on
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// Toggle flips the global enabled flag and returns the new value
func (m *Manager) Toggle() bool {
	m.mu.Lock()
	m.enabled = !m.enabled
	enabled := m.enabled
	m.mu.Unlock()

	m.fireHighlightChangeListener()
	return enabled
}

// BufferClosed removes every buffer-scoped highlight bound to id. One change
// event fires.
func (m *Manager) BufferClosed(id types.BufferID) {
	m.mu.Lock()
	kept := m.rules[:0:0]
	for _, h := range m.rules {
		if h.Scope() == types.ScopeBuffer && h.Buffer() == id {
			continue
		}
		kept = append(kept, h)
	}
	removed := len(m.rules) - len(kept)
	m.rules = kept
	m.mu.Unlock()

	if removed > 0 {
		m.logger.Debug("Removed buffer highlights", "buffer", id, "count", removed)
	}
	m.fireHighlightChangeListener()
}

// PropertiesChanged applies new preferences. Implicit highlights take the new
// caret color and are switched off when their preference is; invalid user
// highlights whose pattern compiles again become valid. A change event fires
// when anything observable changed.
func (m *Manager) PropertiesChanged(cfg *config.Config) {
	m.mu.Lock()
	old := m.cfg
	m.cfg = *cfg
	changed := old != m.cfg

	for _, implicit := range []*highlight.Highlight{m.currentWord, m.selection} {
		implicit.SetColor(cfg.CaretHighlightColor)
		implicit.SetMatchTimeout(cfg.MatchTimeout)
	}
	if !cfg.CaretHighlight && m.currentWord.Enabled() {
		m.currentWord.SetEnabled(false)
		changed = true
	}
	if !cfg.HighlightSelection && m.selection.Enabled() {
		m.selection.SetEnabled(false)
		changed = true
	}

	for _, h := range m.rules {
		h.SetMatchTimeout(cfg.MatchTimeout)
		if h.Valid() {
			continue
		}
		if _, err := h.SearchMatcher(); err == nil {
			h.SetValid(true)
			changed = true
		}
	}
	m.mu.Unlock()

	if changed {
		m.fireHighlightChangeListener()
	}
}

// SetImplicit updates both implicit highlights. Nothing fires when neither
// changes, so moving the caret within a word does not repaint.
func (m *Manager) SetImplicit(word, selection Implicit) bool {
	m.mu.Lock()
	changed := applyImplicit(m.currentWord, word)
	changed = applyImplicit(m.selection, selection) || changed
	m.mu.Unlock()

	if changed {
		m.fireHighlightChangeListener()
	}
	return changed
}

func applyImplicit(h *highlight.Highlight, want Implicit) bool {
	if !want.Enabled {
		if !h.Enabled() {
			return false
		}
		h.SetEnabled(false)
		return true
	}
	if h.Enabled() && h.Pattern() == want.Pattern && h.IsRegex() == want.Regex && h.IgnoreCase() == want.IgnoreCase {
		return false
	}
	h.SetPattern(want.Pattern, want.Regex, want.IgnoreCase)
	h.SetEnabled(true)
	return true
}

// AddHighlightChangeListener registers l
func (m *Manager) AddHighlightChangeListener(l interfaces.ChangeListener) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	for _, existing := range m.listeners {
		if existing == l {
			return
		}
	}
	m.listeners = append(m.listeners, l)
}

// RemoveHighlightChangeListener unregisters l
func (m *Manager) RemoveHighlightChangeListener(l interfaces.ChangeListener) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	for i, existing := range m.listeners {
		if existing == l {
			m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
			return
		}
	}
}

// ListenerCount returns the number of registered listeners
func (m *Manager) ListenerCount() int {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	return len(m.listeners)
}

// fireHighlightChangeListener notifies a snapshot of the listeners, so a
// handler may register or unregister listeners
func (m *Manager) fireHighlightChangeListener() {
	enabled := m.Enabled()

	m.listenersMu.Lock()
	snapshot := make([]interfaces.ChangeListener, len(m.listeners))
	copy(snapshot, m.listeners)
	m.listenersMu.Unlock()

	for _, l := range snapshot {
		l.HighlightUpdated(enabled)
	}
}

// Dispose drops every listener
func (m *Manager) Dispose() {
	m.listenersMu.Lock()
	m.listeners = nil
	m.listenersMu.Unlock()
}
