// Package highlight holds the highlight rule entity: a pattern with a color, a
// scope and the lazily compiled matcher used to find it.
package highlight

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Veraticus/highlight/pkg/search"
	"github.com/Veraticus/highlight/pkg/types"
)

// ErrEmptyPattern is returned when a highlight is given an empty pattern
var ErrEmptyPattern = errors.New("pattern cannot be empty")

// DefaultMatchTimeout bounds one regex match attempt
const DefaultMatchTimeout = 100 * time.Millisecond

// Highlight is one highlight rule.
//
// Fields are guarded by the highlight's own lock so that painters can read a
// rule while the tracker rewrites it; edits of catalog rules must still go
// through the catalog so that a change event fires.
type Highlight struct {
	mu          sync.RWMutex
	pattern     string
	regex       bool
	ignoreCase  bool
	subsequence bool
	color       types.Color
	scope       types.Scope
	buffer      types.BufferID
	enabled     bool
	valid       bool
	timeout     time.Duration
	matcher     search.Matcher

	lastSeen atomic.Int64
}

// New creates an enabled, valid highlight
func New(pattern string, regex, ignoreCase bool, color types.Color) (*Highlight, error) {
	h := &Highlight{timeout: DefaultMatchTimeout}
	if err := h.Init(pattern, regex, ignoreCase, color); err != nil {
		return nil, err
	}
	return h, nil
}

// NewImplicit creates a disabled highlight whose pattern is rewritten later.
// It starts with an empty pattern, which Init would reject.
func NewImplicit(color types.Color) *Highlight {
	return &Highlight{
		color:   color,
		scope:   types.ScopeSession,
		valid:   true,
		timeout: DefaultMatchTimeout,
	}
}

// Init assigns the matching fields, marks the highlight enabled and valid and
// drops the cached matcher. Regex patterns are compiled immediately so that a
// syntax error is reported here.
func (h *Highlight) Init(pattern string, regex, ignoreCase bool, color types.Color) error {
	if pattern == "" {
		return ErrEmptyPattern
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var matcher search.Matcher
	if regex {
		m, err := search.New(pattern, regex, ignoreCase, h.timeout)
		if err != nil {
			return err
		}
		matcher = m
	}

	h.pattern = pattern
	h.regex = regex
	h.ignoreCase = ignoreCase
	h.color = color
	h.enabled = true
	h.valid = true
	h.matcher = matcher
	return nil
}

// SetPattern rewrites the matching fields without touching color or scope.
// Used for the implicit highlights, whose pattern may be empty.
func (h *Highlight) SetPattern(pattern string, regex, ignoreCase bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pattern == pattern && h.regex == regex && h.ignoreCase == ignoreCase {
		return
	}
	h.pattern = pattern
	h.regex = regex
	h.ignoreCase = ignoreCase
	h.valid = true
	h.matcher = nil
}

// SearchMatcher returns the matcher for the current pattern, building it on
// first use. It is cached until the next change of a matching field.
func (h *Highlight) SearchMatcher() (search.Matcher, error) {
	h.mu.RLock()
	m := h.matcher
	h.mu.RUnlock()
	if m != nil {
		return m, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.matcher != nil {
		return h.matcher, nil
	}
	m, err := search.New(h.pattern, h.regex, h.ignoreCase, h.timeout)
	if err != nil {
		return nil, err
	}
	h.matcher = m
	return m, nil
}

// SetMatchTimeout sets the bound on one regex match attempt and drops the
// cached matcher
func (h *Highlight) SetMatchTimeout(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.timeout != d {
		h.timeout = d
		h.matcher = nil
	}
}

// Pattern returns the pattern as entered
func (h *Highlight) Pattern() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.pattern
}

// IsRegex reports whether the pattern is a regular expression
func (h *Highlight) IsRegex() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.regex
}

// IgnoreCase reports whether matching ignores case
func (h *Highlight) IgnoreCase() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ignoreCase
}

// Subsequence reports whether successive matches may overlap
func (h *Highlight) Subsequence() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.subsequence
}

// SetSubsequence sets whether successive matches may overlap
func (h *Highlight) SetSubsequence(subsequence bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subsequence = subsequence
}

// Enabled reports whether the highlight paints
func (h *Highlight) Enabled() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.enabled
}

// SetEnabled enables or disables the highlight
func (h *Highlight) SetEnabled(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enabled = enabled
}

// Valid reports whether the pattern compiled and matched without failure
func (h *Highlight) Valid() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.valid
}

// SetValid marks the highlight valid or invalid
func (h *Highlight) SetValid(valid bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.valid = valid
}

// Color returns the highlight color
func (h *Highlight) Color() types.Color {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.color
}

// SetColor sets the highlight color
func (h *Highlight) SetColor(c types.Color) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.color = c
}

// Scope returns the highlight scope
func (h *Highlight) Scope() types.Scope {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.scope
}

// SetScope sets the highlight scope
func (h *Highlight) SetScope(s types.Scope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scope = s
}

// Buffer returns the buffer a ScopeBuffer highlight is bound to
func (h *Highlight) Buffer() types.BufferID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.buffer
}

// SetBuffer binds the highlight to a buffer
func (h *Highlight) SetBuffer(id types.BufferID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buffer = id
}

// AppliesTo reports whether the highlight may paint in the given buffer
func (h *Highlight) AppliesTo(id types.BufferID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.scope != types.ScopeBuffer || h.buffer == id
}

// UpdateLastSeen records that a match was just rendered or listed
func (h *Highlight) UpdateLastSeen() {
	h.lastSeen.Store(time.Now().UnixNano())
}

// LastSeen returns when a match was last rendered, or the zero time
func (h *Highlight) LastSeen() time.Time {
	ns := h.lastSeen.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// SameMatch reports whether both highlights match the same text the same way
func (h *Highlight) SameMatch(other *Highlight) bool {
	if h == other {
		return true
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	other.mu.RLock()
	defer other.mu.RUnlock()
	return h.pattern == other.pattern && h.regex == other.regex && h.ignoreCase == other.ignoreCase
}

// Clone copies the persistent fields into a new highlight
func (h *Highlight) Clone() *Highlight {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return &Highlight{
		pattern:     h.pattern,
		regex:       h.regex,
		ignoreCase:  h.ignoreCase,
		subsequence: h.subsequence,
		color:       h.color,
		scope:       h.scope,
		buffer:      h.buffer,
		enabled:     h.enabled,
		valid:       true,
		timeout:     h.timeout,
	}
}

// String returns the pattern
func (h *Highlight) String() string {
	return h.Pattern()
}

// GoString is used by %#v in test failures
func (h *Highlight) GoString() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return fmt.Sprintf("Highlight{%q regex=%v ignoreCase=%v color=%s scope=%s enabled=%v}",
		h.pattern, h.regex, h.ignoreCase, h.color, h.scope, h.enabled)
}
