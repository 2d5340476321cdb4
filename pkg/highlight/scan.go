package highlight

import (
	"errors"

	"github.com/Veraticus/highlight/pkg/search"
)

// Scan calls fn for every match of the highlight in text, in order. Offsets
// passed to fn are relative to the start of text. Iteration stops at the first
// zero-width match, when fn returns false, or when the matcher fails; a matcher
// failure marks the highlight invalid and is returned.
//
// startOfLine and endOfLine report whether text begins and ends on a line
// boundary. Once the scan has advanced past the first character, anchors no
// longer see a line start.
func (h *Highlight) Scan(text []rune, startOfLine, endOfLine bool, fn func(search.Match) bool) error {
	matcher, err := h.SearchMatcher()
	if err != nil {
		h.invalidate(err)
		return err
	}
	subsequence := h.Subsequence()

	consumed := 0
	rest := text
	for len(rest) > 0 || consumed == 0 {
		match, ok, err := matcher.NextMatch(rest, startOfLine && consumed == 0, endOfLine, consumed == 0, false)
		if err != nil {
			h.invalidate(err)
			return err
		}
		if !ok || match.Empty() {
			return nil
		}

		abs := search.Match{Start: match.Start + consumed, End: match.End + consumed}
		if !fn(abs) {
			return nil
		}

		advance := match.End
		if subsequence {
			advance = match.Start + 1
		}
		consumed += advance
		rest = rest[advance:]
	}
	return nil
}

func (h *Highlight) invalidate(err error) {
	if errors.Is(err, search.ErrInvalidPattern) || errors.Is(err, search.ErrInterrupted) {
		h.SetValid(false)
	}
}
