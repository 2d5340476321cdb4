package search

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
)

// sentinel stands in for the characters outside the searched window, so that
// anchors do not match at a window edge that is not a line edge.
const sentinel = '\x00'

// RegexMatcher matches a regular expression
type RegexMatcher struct {
	re *regexp2.Regexp
}

// NewRegexMatcher compiles pattern. A positive timeout bounds every single match
// attempt; a match that runs out of time fails with ErrInterrupted.
func NewRegexMatcher(pattern string, ignoreCase bool, timeout time.Duration) (*RegexMatcher, error) {
	opts := regexp2.None
	if ignoreCase {
		opts |= regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	if timeout > 0 {
		re.MatchTimeout = timeout
	}
	return &RegexMatcher{re: re}, nil
}

// NextMatch implements Matcher
func (m *RegexMatcher) NextMatch(text []rune, startOfLine, endOfLine, _, reverse bool) (Match, bool, error) {
	input := text
	startAt := 0
	if !startOfLine || !endOfLine {
		input = make([]rune, 0, len(text)+2)
		if !startOfLine {
			input = append(input, sentinel)
			startAt = 1
		}
		input = append(input, text...)
		if !endOfLine {
			input = append(input, sentinel)
		}
	}

	found, err := m.re.FindRunesMatchStartingAt(input, startAt)
	if err != nil {
		return Match{}, false, fmt.Errorf("%w: %v", ErrInterrupted, err)
	}

	var (
		result Match
		ok     bool
	)
	for found != nil {
		start := found.Index - startAt
		end := start + found.Length
		if start < 0 || end > len(text) {
			break
		}
		result, ok = Match{Start: start, End: end}, true
		if !reverse {
			break
		}
		found, err = m.re.FindNextMatch(found)
		if err != nil {
			return Match{}, false, fmt.Errorf("%w: %v", ErrInterrupted, err)
		}
	}
	return result, ok, nil
}
