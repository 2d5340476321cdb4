package plugin

import (
	"errors"

	"github.com/dlclark/regexp2"

	"github.com/Veraticus/highlight/pkg/highlight"
	"github.com/Veraticus/highlight/pkg/interfaces"
	"github.com/Veraticus/highlight/pkg/tracker"
	"github.com/Veraticus/highlight/pkg/types"
)

// ErrNoWord is returned when an action needs a word and there is neither a
// selection nor a word at the caret
var ErrNoWord = errors.New("no word at caret")

// WordSelector is implemented by text areas that can select a range. The
// word actions select the word they highlight.
type WordSelector interface {
	Select(start, end int)
}

// CurrentWord returns the selected text, or else the word at the caret,
// selecting it when ta can select
func CurrentWord(ta interfaces.TextArea) (string, bool) {
	if ta.SelectionCount() > 0 {
		if text := ta.SelectedText(); text != "" {
			return text, true
		}
	}

	buffer := ta.Buffer()
	line := ta.CaretLine()
	lineStart := buffer.LineStartOffset(line)
	text := buffer.Segment(lineStart, buffer.LineLength(line))
	start, end, ok := tracker.WordBounds(text, ta.CaretPosition()-lineStart)
	if !ok {
		return "", false
	}
	if s, ok := ta.(WordSelector); ok {
		s.Select(lineStart+start, lineStart+end)
	}
	return string(text[start:end]), true
}

// HighlightThis highlights the current word of ta literally
func (p *Plugin) HighlightThis(ta interfaces.TextArea, scope types.Scope) error {
	word, ok := CurrentWord(ta)
	if !ok {
		return ErrNoWord
	}
	return p.HighlightString(word, false, false, scope, ta.Buffer().ID())
}

// HighlightEntireWord highlights the current word of ta only where it stands
// as a whole word
func (p *Plugin) HighlightEntireWord(ta interfaces.TextArea, scope types.Scope) error {
	word, ok := CurrentWord(ta)
	if !ok {
		return ErrNoWord
	}
	return p.HighlightString(`\b`+regexp2.Escape(word)+`\b`, true, false, scope, ta.Buffer().ID())
}

// HighlightCurrentSearch highlights the host's current search
func (p *Plugin) HighlightCurrentSearch(ss interfaces.SearchState, buffer types.BufferID, scope types.Scope) error {
	return p.HighlightString(ss.SearchString(), ss.Regexp(), ss.IgnoreCase(), scope, buffer)
}

// HighlightString adds a highlight with the next color. buffer is only kept
// for buffer scope.
func (p *Plugin) HighlightString(pattern string, regex, ignoreCase bool, scope types.Scope, buffer types.BufferID) error {
	h, err := p.manager.Create(pattern, regex, ignoreCase, scope, buffer)
	if err != nil {
		return err
	}
	return p.AddHighlight(h)
}

// AddHighlight adds h to the catalog
func (p *Plugin) AddHighlight(h *highlight.Highlight) error {
	if err := p.manager.Add(h); err != nil {
		p.logger.Warn("Highlight rejected", "pattern", h.Pattern(), "error", err)
		return err
	}
	return nil
}

// RemoveAllHighlights empties the catalog
func (p *Plugin) RemoveAllHighlights() {
	p.manager.RemoveAll()
}

// EnableHighlights turns highlighting on
func (p *Plugin) EnableHighlights() {
	p.manager.SetEnabled(true)
}

// DisableHighlights turns highlighting off
func (p *Plugin) DisableHighlights() {
	p.manager.SetEnabled(false)
}

// ToggleHighlights flips highlighting and returns the new state
func (p *Plugin) ToggleHighlights() bool {
	return p.manager.Toggle()
}

// IsHighlightEnabled reports whether highlighting is on
func (p *Plugin) IsHighlightEnabled() bool {
	return p.manager.Enabled()
}

// ExportToFile writes the catalog to path as text records
func (p *Plugin) ExportToFile(path string) error {
	return p.manager.ExportToFile(path)
}

// ImportFromFile merges the text records at path into the catalog
func (p *Plugin) ImportFromFile(path string) (int, error) {
	return p.manager.ImportFromFile(path)
}
