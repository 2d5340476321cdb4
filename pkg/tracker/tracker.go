// Package tracker keeps the implicit highlights in step with the caret and the
// selection of a text area.
package tracker

import (
	"unicode"

	"github.com/Veraticus/highlight/pkg/config"
	"github.com/Veraticus/highlight/pkg/interfaces"
	"github.com/Veraticus/highlight/pkg/manager"
)

// Catalog is the part of the highlight catalog the tracker drives
type Catalog interface {
	Config() config.Config
	SetImplicit(word, selection manager.Implicit) bool
}

// Tracker derives the current-word and selection highlights from caret events
type Tracker struct {
	catalog Catalog
}

// New creates a tracker driving catalog
func New(catalog Catalog) *Tracker {
	return &Tracker{catalog: catalog}
}

// CaretUpdate recomputes the implicit highlights for ta. It reports whether
// they changed; an unchanged word or selection fires nothing.
func (t *Tracker) CaretUpdate(ta interfaces.TextArea) bool {
	word, selection := Derive(ta, t.catalog.Config())
	return t.catalog.SetImplicit(word, selection)
}

// Derive computes the wanted implicit highlights. A non-empty selection wins
// over the word at the caret, so at most one of them is enabled.
func Derive(ta interfaces.TextArea, cfg config.Config) (word, selection manager.Implicit) {
	if ta.SelectionCount() > 0 {
		if text := ta.SelectedText(); text != "" {
			selection = manager.Implicit{Pattern: text, Enabled: cfg.HighlightSelection}
			return word, selection
		}
	}

	if !cfg.CaretHighlight {
		return word, selection
	}

	buffer := ta.Buffer()
	line := ta.CaretLine()
	start := buffer.LineStartOffset(line)
	text := buffer.Segment(start, buffer.LineLength(line))

	w, ok := WordAt(text, ta.CaretPosition()-start)
	if !ok {
		return word, selection
	}
	word = manager.Implicit{Pattern: w, IgnoreCase: cfg.CaretHighlightIgnoreCase, Enabled: true}
	if cfg.CaretHighlightEntireWord {
		word.Pattern = `\b` + w + `\b`
		word.Regex = true
	}
	return word, selection
}

// IsWordChar reports whether r belongs to a word
func IsWordChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// WordAt returns the word of line under col. A caret just past the last
// character of a word is still on it.
func WordAt(line []rune, col int) (string, bool) {
	start, end, ok := WordBounds(line, col)
	if !ok {
		return "", false
	}
	return string(line[start:end]), true
}

// WordBounds returns the [start, end) columns of the word under col
func WordBounds(line []rune, col int) (int, int, bool) {
	if col < 0 || col > len(line) {
		return 0, 0, false
	}
	if col == len(line) || !IsWordChar(line[col]) {
		if col == 0 || !IsWordChar(line[col-1]) {
			return 0, 0, false
		}
		col--
	}

	start := col
	for start > 0 && IsWordChar(line[start-1]) {
		start--
	}
	end := col + 1
	for end < len(line) && IsWordChar(line[end]) {
		end++
	}
	return start, end, true
}
