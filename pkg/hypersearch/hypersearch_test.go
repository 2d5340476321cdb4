package hypersearch

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Veraticus/highlight/pkg/config"
	"github.com/Veraticus/highlight/pkg/highlight"
	"github.com/Veraticus/highlight/pkg/manager"
	"github.com/Veraticus/highlight/pkg/types"
)

var (
	red  = types.MustParseColor("#ff0000")
	blue = types.MustParseColor("#0000ff")
)

func newManager(mutate func(*config.Config)) *manager.Manager {
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	return manager.New(cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func add(t require.TestingT, m *manager.Manager, pattern string, regex bool, c types.Color) {
	h, err := highlight.New(pattern, regex, false, c)
	require.NoError(t, err)
	require.NoError(t, m.Add(h))
}

func TestAnnotate(t *testing.T) {
	m := newManager(nil)
	a := New(m)

	assert.Equal(t, "<html><body>foo bar</body></html>", a.Annotate("foo bar"))

	add(t, m, "foo", false, red)
	assert.Equal(t,
		`<html><body><font style bgcolor="#ff0000">foo</font> bar <font style bgcolor="#ff0000">foo</font></body></html>`,
		a.Annotate("foo bar foo"))
}

func TestAnnotate_Escaping(t *testing.T) {
	m := newManager(nil)
	a := New(m)
	add(t, m, "<b>", false, red)

	assert.Equal(t,
		`<html><body>&quot;a&quot; &amp; <font style bgcolor="#ff0000">&lt;b&gt;</font></body></html>`,
		a.Annotate(`"a" & <b>`))
}

func TestAnnotate_OverlapLastWriterWins(t *testing.T) {
	m := newManager(nil)
	a := New(m)
	add(t, m, "abcd", false, red)
	add(t, m, "bc", false, blue)

	assert.Equal(t,
		`<html><body>`+
			`<font style bgcolor="#ff0000">a</font>`+
			`<font style bgcolor="#0000ff">bc</font>`+
			`<font style bgcolor="#ff0000">d</font>`+
			`</body></html>`,
		a.Annotate("abcd"))
}

func TestAnnotate_AdjacentSameColorMerges(t *testing.T) {
	m := newManager(nil)
	a := New(m)
	add(t, m, "a", false, red)

	assert.Equal(t, `<html><body><font style bgcolor="#ff0000">aa</font>b</body></html>`, a.Annotate("aab"))
}

func TestAnnotate_ImplicitRules(t *testing.T) {
	m := newManager(nil)
	a := New(m)
	m.SetImplicit(manager.Implicit{Pattern: "x", Enabled: true}, manager.Implicit{})

	caret := m.Config().CaretHighlightColor.Hex()
	assert.Equal(t, `<html><body><font style bgcolor="`+caret+`">x</font>y</body></html>`, a.Annotate("xy"))

	m.PropertiesChanged(func() *config.Config {
		cfg := m.Config()
		cfg.CaretHighlight = false
		return &cfg
	}())
	assert.Equal(t, "<html><body>xy</body></html>", a.Annotate("xy"))
}

func TestAnnotate_Disabled(t *testing.T) {
	m := newManager(func(c *config.Config) { c.HypersearchResults = false })
	a := New(m)
	add(t, m, "a", false, red)

	assert.Equal(t, "a &lt; b", a.Annotate("a < b"))
}

func TestAnnotate_GlobalDisable(t *testing.T) {
	m := newManager(nil)
	a := New(m)
	add(t, m, "a", false, red)
	m.SetEnabled(false)

	assert.Equal(t, "<html><body>a</body></html>", a.Annotate("a"))
}

func TestAnnotate_OnChange(t *testing.T) {
	m := newManager(nil)
	a := New(m)
	calls := 0
	a.SetOnChange(func() { calls++ })
	m.AddHighlightChangeListener(a)

	add(t, m, "a", false, red)
	m.RemoveAll()
	assert.Equal(t, 2, calls)
}

func TestAnnotate_TextPreserved(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := newManager(nil)
		a := New(m)
		add(t, m, rapid.StringMatching(`[ab]{1,3}`).Draw(t, "pattern"), false, red)
		line := rapid.StringMatching(`[ab<&" ]{0,30}`).Draw(t, "line")

		out := a.Annotate(line)
		require.True(t, strings.HasPrefix(out, "<html><body>"))
		require.True(t, strings.HasSuffix(out, "</body></html>"))
		body := strings.TrimSuffix(strings.TrimPrefix(out, "<html><body>"), "</body></html>")

		assert.Equal(t, strings.Count(body, "<font "), strings.Count(body, "</font>"))
		stripped := strings.ReplaceAll(body, `<font style bgcolor="#ff0000">`, "")
		stripped = strings.ReplaceAll(stripped, "</font>", "")
		assert.Equal(t, EscapeHTML(line), stripped)
	})
}
