package search

import (
	"errors"
	"testing"
	"time"
)

func TestLiteralMatcher_NextMatch(t *testing.T) {
	tests := []struct {
		name       string
		pattern    string
		ignoreCase bool
		text       string
		reverse    bool
		wantOK     bool
		want       Match
	}{
		{name: "first occurrence", pattern: "o", text: "hello world", wantOK: true, want: Match{Start: 4, End: 5}},
		{name: "last occurrence", pattern: "o", text: "hello world", reverse: true, wantOK: true, want: Match{Start: 7, End: 8}},
		{name: "case sensitive miss", pattern: "foo", text: "FOO", wantOK: false},
		{name: "ignore case", pattern: "foo", ignoreCase: true, text: "xFoO", wantOK: true, want: Match{Start: 1, End: 4}},
		{name: "unicode fold", pattern: "straße", ignoreCase: true, text: "STRAßE", wantOK: true, want: Match{Start: 0, End: 6}},
		{name: "pattern longer than text", pattern: "abcdef", text: "abc", wantOK: false},
		{name: "empty pattern is zero-width", pattern: "", text: "abc", wantOK: true, want: Match{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewLiteralMatcher(tt.pattern, tt.ignoreCase)
			got, ok, err := m.NextMatch([]rune(tt.text), true, true, true, tt.reverse)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v but got %v", tt.wantOK, ok)
			}
			if ok && got != tt.want {
				t.Errorf("expected match %+v but got %+v", tt.want, got)
			}
		})
	}
}

func TestRegexMatcher_NextMatch(t *testing.T) {
	tests := []struct {
		name        string
		pattern     string
		ignoreCase  bool
		text        string
		startOfLine bool
		wantOK      bool
		want        Match
	}{
		{name: "digits", pattern: `\d+`, text: "Found 123 items", startOfLine: true, wantOK: true, want: Match{Start: 6, End: 9}},
		{name: "word boundary", pattern: `\btest\b`, text: "attest test", startOfLine: true, wantOK: true, want: Match{Start: 7, End: 11}},
		{name: "ignore case", pattern: `error`, ignoreCase: true, text: "an ERROR", startOfLine: true, wantOK: true, want: Match{Start: 3, End: 8}},
		{name: "anchor at line start", pattern: `^ab`, text: "abab", startOfLine: true, wantOK: true, want: Match{Start: 0, End: 2}},
		{name: "anchor inside line", pattern: `^ab`, text: "abab", startOfLine: false, wantOK: false},
		{name: "zero width", pattern: `x*`, text: "abc", startOfLine: true, wantOK: true, want: Match{Start: 0, End: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewRegexMatcher(tt.pattern, tt.ignoreCase, 0)
			if err != nil {
				t.Fatalf("failed to compile %q: %v", tt.pattern, err)
			}
			got, ok, err := m.NextMatch([]rune(tt.text), tt.startOfLine, true, true, false)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v but got %v", tt.wantOK, ok)
			}
			if ok && got != tt.want {
				t.Errorf("expected match %+v but got %+v", tt.want, got)
			}
		})
	}
}

func TestRegexMatcher_Reverse(t *testing.T) {
	m, err := NewRegexMatcher(`a.`, false, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok, err := m.NextMatch([]rune("ab ac ad"), true, true, true, true)
	if err != nil || !ok {
		t.Fatalf("expected a match, got ok=%v err=%v", ok, err)
	}
	if got != (Match{Start: 6, End: 8}) {
		t.Errorf("expected last match at 6 but got %+v", got)
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New("(unclosed", true, false, 0)
	if !errors.Is(err, ErrInvalidPattern) {
		t.Fatalf("expected ErrInvalidPattern but got %v", err)
	}

	// Literal patterns never fail to compile
	if _, err := New("(unclosed", false, false, 0); err != nil {
		t.Fatalf("unexpected error for literal pattern: %v", err)
	}
}

func TestRegexMatcher_Timeout(t *testing.T) {
	m, err := NewRegexMatcher(`(a+)+$`, false, time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := make([]rune, 0, 64)
	for i := 0; i < 40; i++ {
		text = append(text, 'a')
	}
	text = append(text, '!')

	_, _, err = m.NextMatch(text, true, true, true, false)
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted but got %v", err)
	}
}
