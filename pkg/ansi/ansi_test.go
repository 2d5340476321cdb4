package ansi

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/highlight/pkg/config"
	"github.com/Veraticus/highlight/pkg/highlight"
	"github.com/Veraticus/highlight/pkg/logging"
	"github.com/Veraticus/highlight/pkg/manager"
	"github.com/Veraticus/highlight/pkg/painter"
	"github.com/Veraticus/highlight/pkg/types"
)

var red = types.MustParseColor("#ff0000")

func setup(t *testing.T, alpha int) (*Renderer, *manager.Manager) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Alpha = alpha
	m := manager.New(cfg, nil, logging.Discard())
	out := termenv.NewOutput(&bytes.Buffer{}, termenv.WithProfile(termenv.TrueColor))
	return NewRenderer(out, m, painter.OptionsFromConfig(cfg), Dark), m
}

func add(t *testing.T, m *manager.Manager, pattern string) {
	t.Helper()
	h, err := highlight.New(pattern, false, false, red)
	require.NoError(t, err)
	require.NoError(t, m.Add(h))
}

func TestRender_NoHighlights(t *testing.T) {
	r, _ := setup(t, 100)
	assert.Equal(t, "foo bar", r.Render("foo bar"))
	assert.Equal(t, "", r.Render(""))
}

func TestRender_OpaqueFill(t *testing.T) {
	r, m := setup(t, 100)
	add(t, m, "foo")

	assert.Equal(t, "\x1b[48;2;255;0;0mfoo\x1b[0m bar \x1b[48;2;255;0;0mfoo\x1b[0m", r.Render("foo bar foo"))
}

func TestRender_BlendsOverBackground(t *testing.T) {
	r, m := setup(t, 50)
	add(t, m, "b")

	assert.Equal(t, "a\x1b[48;2;128;0;0mb\x1b[0mc", r.Render("abc"))
}

func TestRender_OverlapsBlendTwice(t *testing.T) {
	r, m := setup(t, 50)
	add(t, m, "ab")
	add(t, m, "bc")

	out := r.Render("abc")
	assert.Equal(t, 3, strings.Count(out, "\x1b[48;2;"), "a, b and c end up with different backgrounds")
	assert.True(t, strings.HasPrefix(out, "\x1b[48;2;128;0;0ma"))
}

func TestRender_StripsIncomingEscapes(t *testing.T) {
	r, m := setup(t, 100)
	add(t, m, "foo")

	assert.Equal(t, "x \x1b[48;2;255;0;0mfoo\x1b[0m", r.Render("x \x1b[1mf\x1b[0moo"))
}

func TestRender_SquareUnderlines(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Alpha = 100
	cfg.Square = true
	m := manager.New(cfg, nil, logging.Discard())
	out := termenv.NewOutput(&bytes.Buffer{}, termenv.WithProfile(termenv.TrueColor))
	r := NewRenderer(out, m, painter.OptionsFromConfig(cfg), Dark)
	add(t, m, "o")

	assert.Equal(t, "f\x1b[48;2;255;0;0;4mo\x1b[0m", r.Render("fo"))
}

func TestRender_BufferScope(t *testing.T) {
	r, m := setup(t, 100)
	h, err := m.Create("x", false, false, types.ScopeBuffer, "other")
	require.NoError(t, err)
	require.NoError(t, m.Add(h))
	assert.Equal(t, "x", r.Render("x"))

	h, err = m.Create("y", false, false, types.ScopeBuffer, r.BufferID())
	require.NoError(t, err)
	require.NoError(t, m.Add(h))
	assert.NotEqual(t, "y", r.Render("y"))
}

func TestRender_AsciiProfile(t *testing.T) {
	cfg := config.DefaultConfig()
	m := manager.New(cfg, nil, logging.Discard())
	out := termenv.NewOutput(&bytes.Buffer{}, termenv.WithProfile(termenv.Ascii))
	r := NewRenderer(out, m, painter.OptionsFromConfig(cfg), Light)
	add(t, m, "a")

	assert.Equal(t, "abc", r.Render("abc"))
}

func TestLineWriter(t *testing.T) {
	var out bytes.Buffer
	w := NewLineWriter(&out, strings.ToUpper)

	n, err := w.Write([]byte("ab\ncd"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "AB\n", out.String())

	_, err = w.Write([]byte("e\r\nf"))
	require.NoError(t, err)
	assert.Equal(t, "AB\nCDE\r\n", out.String())

	require.NoError(t, w.Flush())
	assert.Equal(t, "AB\nCDE\r\nF", out.String())
	require.NoError(t, w.Flush())
	assert.Equal(t, "AB\nCDE\r\nF", out.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

func TestLineWriter_Error(t *testing.T) {
	w := NewLineWriter(failingWriter{}, func(s string) string { return s })
	_, err := w.Write([]byte("a\nb\n"))
	assert.EqualError(t, err, "closed")
}
