// Package search provides the matchers used to find highlight occurrences in text.
package search

import (
	"errors"
	"time"
)

var (
	// ErrInvalidPattern is returned when a pattern does not compile
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrInterrupted is returned when a match is abandoned before completion
	ErrInterrupted = errors.New("match interrupted")
)

// Match is a match range [Start, End) relative to the searched text
type Match struct {
	Start int
	End   int
}

// Empty reports whether the match is zero-width
func (m Match) Empty() bool {
	return m.End == m.Start
}

// Matcher finds matches in a character sequence.
//
// startOfLine and endOfLine tell the matcher whether the text begins and ends on
// a line boundary, so that anchors only match there. firstTime is true on the
// first call of an iteration. reverse returns the last match instead of the first.
type Matcher interface {
	NextMatch(text []rune, startOfLine, endOfLine, firstTime, reverse bool) (Match, bool, error)
}

// New returns a matcher for the pattern. Regex patterns are compiled eagerly so
// that syntax errors surface here as ErrInvalidPattern.
func New(pattern string, regex, ignoreCase bool, timeout time.Duration) (Matcher, error) {
	if regex {
		return NewRegexMatcher(pattern, ignoreCase, timeout)
	}
	return NewLiteralMatcher(pattern, ignoreCase), nil
}
