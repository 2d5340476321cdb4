package highlight

import (
	"fmt"
	"strings"

	"github.com/Veraticus/highlight/pkg/types"
)

const recordSeparator = ";"

// Serialize returns the one-line textual record of the highlight:
//
//	FLAGS;#rrggbb;scope;pattern
//
// FLAGS holds E (enabled), R (regex), I (ignore case) and S (subsequence) in
// that order, or "-" when none is set. The pattern is last so it may contain
// the separator; backslashes, newlines and carriage returns in it are
// escaped.
func (h *Highlight) Serialize() string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var flags strings.Builder
	if h.enabled {
		flags.WriteByte('E')
	}
	if h.regex {
		flags.WriteByte('R')
	}
	if h.ignoreCase {
		flags.WriteByte('I')
	}
	if h.subsequence {
		flags.WriteByte('S')
	}
	if flags.Len() == 0 {
		flags.WriteByte('-')
	}

	return strings.Join([]string{
		flags.String(),
		h.color.Hex(),
		h.scope.String(),
		escapePattern(h.pattern),
	}, recordSeparator)
}

// Parse reads a record written by Serialize. Regex patterns are compiled, so a
// bad pattern fails with search.ErrInvalidPattern.
func Parse(record string) (*Highlight, error) {
	record = strings.TrimRight(record, "\r\n")
	fields := strings.SplitN(record, recordSeparator, 4)
	if len(fields) != 4 {
		return nil, fmt.Errorf("malformed record %q: expected 4 fields", record)
	}

	var enabled, regex, ignoreCase, subsequence bool
	if fields[0] != "-" {
		for _, f := range fields[0] {
			switch f {
			case 'E':
				enabled = true
			case 'R':
				regex = true
			case 'I':
				ignoreCase = true
			case 'S':
				subsequence = true
			default:
				return nil, fmt.Errorf("malformed record %q: unknown flag %q", record, f)
			}
		}
	}

	color, err := types.ParseColor(fields[1])
	if err != nil {
		return nil, fmt.Errorf("malformed record %q: %w", record, err)
	}
	scope, err := types.ParseScope(fields[2])
	if err != nil {
		return nil, fmt.Errorf("malformed record %q: %w", record, err)
	}
	pattern, err := unescapePattern(fields[3])
	if err != nil {
		return nil, fmt.Errorf("malformed record %q: %w", record, err)
	}

	h, err := New(pattern, regex, ignoreCase, color)
	if err != nil {
		return nil, err
	}
	h.scope = scope
	h.subsequence = subsequence
	h.enabled = enabled
	return h, nil
}

func escapePattern(p string) string {
	if !strings.ContainsAny(p, "\\\n\r") {
		return p
	}
	var b strings.Builder
	for _, r := range p {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func unescapePattern(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if !escaped {
			if r == '\\' {
				escaped = true
			} else {
				b.WriteRune(r)
			}
			continue
		}
		switch r {
		case '\\':
			b.WriteByte('\\')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		default:
			return "", fmt.Errorf("unknown escape \\%c", r)
		}
		escaped = false
	}
	if escaped {
		return "", fmt.Errorf("dangling escape")
	}
	return b.String(), nil
}
