package search

import "unicode"

// LiteralMatcher matches a fixed string
type LiteralMatcher struct {
	pattern    []rune
	ignoreCase bool
}

// NewLiteralMatcher creates a matcher for a fixed string
func NewLiteralMatcher(pattern string, ignoreCase bool) *LiteralMatcher {
	return &LiteralMatcher{
		pattern:    []rune(pattern),
		ignoreCase: ignoreCase,
	}
}

// NextMatch implements Matcher
func (m *LiteralMatcher) NextMatch(text []rune, _, _, _, reverse bool) (Match, bool, error) {
	n := len(m.pattern)
	if n == 0 {
		// An empty pattern matches the empty string at the start
		return Match{}, true, nil
	}
	if n > len(text) {
		return Match{}, false, nil
	}

	if reverse {
		for i := len(text) - n; i >= 0; i-- {
			if m.matchesAt(text, i) {
				return Match{Start: i, End: i + n}, true, nil
			}
		}
		return Match{}, false, nil
	}

	for i := 0; i+n <= len(text); i++ {
		if m.matchesAt(text, i) {
			return Match{Start: i, End: i + n}, true, nil
		}
	}
	return Match{}, false, nil
}

func (m *LiteralMatcher) matchesAt(text []rune, i int) bool {
	for j, p := range m.pattern {
		c := text[i+j]
		if c == p {
			continue
		}
		if !m.ignoreCase || !equalFold(c, p) {
			return false
		}
	}
	return true
}

// equalFold reports whether a and b are equal under simple Unicode case folding
func equalFold(a, b rune) bool {
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}
