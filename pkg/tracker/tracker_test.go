package tracker

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/highlight/pkg/config"
	"github.com/Veraticus/highlight/pkg/manager"
	"github.com/Veraticus/highlight/pkg/testutil"
)

func TestWordAt(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		col    int
		want   string
		wantOK bool
	}{
		{name: "inside", line: "test test", col: 2, want: "test", wantOK: true},
		{name: "at start", line: "foo bar", col: 4, want: "bar", wantOK: true},
		{name: "just past end", line: "foo bar", col: 3, want: "foo", wantOK: true},
		{name: "end of line", line: "foo bar", col: 7, want: "bar", wantOK: true},
		{name: "between spaces", line: "a  b", col: 2, wantOK: false},
		{name: "underscore and digits", line: "x my_var2.y", col: 5, want: "my_var2", wantOK: true},
		{name: "unicode letters", line: "été là", col: 1, want: "été", wantOK: true},
		{name: "empty line", line: "", col: 0, wantOK: false},
		{name: "out of range", line: "abc", col: 9, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := WordAt([]rune(tt.line), tt.col)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTracker(mutate func(*config.Config)) (*Tracker, *manager.Manager, *testutil.CountingListener) {
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	m := manager.New(cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	l := testutil.NewCountingListener(nil)
	m.AddHighlightChangeListener(l)
	return New(m), m, l
}

func TestTracker_CurrentWord(t *testing.T) {
	tr, m, l := newTracker(func(c *config.Config) { c.CaretHighlightEntireWord = false })
	ta := testutil.NewMockTextArea(testutil.NewMockBuffer("a", "test test test\nother"))

	ta.SetCaret(2)
	assert.True(t, tr.CaretUpdate(ta))
	assert.True(t, m.CurrentWord().Enabled())
	assert.Equal(t, "test", m.CurrentWord().Pattern())
	assert.False(t, m.CurrentWord().IsRegex())
	assert.False(t, m.Selection().Enabled())
	assert.Equal(t, 1, l.GetCount())

	// Moving within the same word fires nothing
	ta.SetCaret(6)
	assert.False(t, tr.CaretUpdate(ta))
	assert.Equal(t, 1, l.GetCount())

	// Caret on another line
	ta.SetCaret(17)
	assert.True(t, tr.CaretUpdate(ta))
	assert.Equal(t, "other", m.CurrentWord().Pattern())

	// Just past a word still counts as on it
	ta.SetCaret(4)
	assert.True(t, tr.CaretUpdate(ta))
	assert.Equal(t, "test", m.CurrentWord().Pattern())
	assert.Equal(t, 3, l.GetCount())
}

func TestTracker_CaretOnWhitespace(t *testing.T) {
	tr, m, l := newTracker(nil)
	ta := testutil.NewMockTextArea(testutil.NewMockBuffer("a", "a  b"))

	ta.SetCaret(0)
	tr.CaretUpdate(ta)
	assert.True(t, m.CurrentWord().Enabled())

	ta.SetCaret(2)
	assert.True(t, tr.CaretUpdate(ta))
	assert.False(t, m.CurrentWord().Enabled())
	assert.Equal(t, 2, l.GetCount())
}

func TestTracker_EntireWordAndIgnoreCase(t *testing.T) {
	tr, m, _ := newTracker(func(c *config.Config) {
		c.CaretHighlightEntireWord = true
		c.CaretHighlightIgnoreCase = true
	})
	ta := testutil.NewMockTextArea(testutil.NewMockBuffer("a", "Foo bar"))
	ta.SetCaret(1)

	tr.CaretUpdate(ta)
	assert.Equal(t, `\bFoo\b`, m.CurrentWord().Pattern())
	assert.True(t, m.CurrentWord().IsRegex())
	assert.True(t, m.CurrentWord().IgnoreCase())
}

func TestTracker_Selection(t *testing.T) {
	tr, m, l := newTracker(nil)
	ta := testutil.NewMockTextArea(testutil.NewMockBuffer("a", "foo bar foo"))

	ta.SetCaret(1)
	tr.CaretUpdate(ta)
	assert.True(t, m.CurrentWord().Enabled())

	ta.Select(4, 7)
	assert.True(t, tr.CaretUpdate(ta))
	assert.True(t, m.Selection().Enabled())
	assert.Equal(t, "bar", m.Selection().Pattern())
	assert.False(t, m.Selection().IsRegex())
	assert.False(t, m.CurrentWord().Enabled(), "only one implicit highlight is active")
	assert.Equal(t, 2, l.GetCount())
}

func TestTracker_Disabled(t *testing.T) {
	tr, m, l := newTracker(func(c *config.Config) {
		c.CaretHighlight = false
		c.HighlightSelection = false
	})
	ta := testutil.NewMockTextArea(testutil.NewMockBuffer("a", "foo bar"))

	ta.SetCaret(1)
	assert.False(t, tr.CaretUpdate(ta))
	ta.Select(0, 3)
	assert.False(t, tr.CaretUpdate(ta))

	assert.False(t, m.CurrentWord().Enabled())
	assert.False(t, m.Selection().Enabled())
	assert.Zero(t, l.GetCount())
}
