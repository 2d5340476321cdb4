// Package hypersearch annotates search result lines with the colors of the
// highlights matching in them, as HTML.
package hypersearch

import (
	"strings"
	"sync"

	"github.com/Veraticus/highlight/pkg/config"
	"github.com/Veraticus/highlight/pkg/highlight"
	"github.com/Veraticus/highlight/pkg/painter"
	"github.com/Veraticus/highlight/pkg/search"
	"github.com/Veraticus/highlight/pkg/types"
)

// Catalog is the part of the highlight catalog the annotator reads
type Catalog interface {
	painter.Catalog
	Config() config.Config
}

// Annotator renders result lines. It is a change listener so that a results
// view can repaint when the catalog changes.
type Annotator struct {
	catalog Catalog

	mu       sync.Mutex
	onChange func()
}

// New creates an annotator over catalog
func New(catalog Catalog) *Annotator {
	return &Annotator{catalog: catalog}
}

// SetOnChange sets the function asked to repaint the results
func (a *Annotator) SetOnChange(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onChange = fn
}

// HighlightUpdated implements interfaces.ChangeListener
func (a *Annotator) HighlightUpdated(bool) {
	a.mu.Lock()
	fn := a.onChange
	a.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Annotate wraps every highlighted run of line in a <font bgcolor> span. When
// several highlights cover a character the last one wins: catalog rules in
// order, then the current word, then the selection. With result annotation
// switched off the line is only escaped.
func (a *Annotator) Annotate(line string) string {
	cfg := a.catalog.Config()
	if !cfg.HypersearchResults {
		return EscapeHTML(line)
	}

	text := []rune(line)
	colors := make([]*types.Color, len(text))
	for _, h := range a.rules(&cfg) {
		if !h.Enabled() || !h.Valid() {
			continue
		}
		c := h.Color()
		_ = h.Scan(text, true, true, func(m search.Match) bool {
			for i := m.Start; i < m.End; i++ {
				colors[i] = &c
			}
			return true
		})
	}

	var sb strings.Builder
	sb.WriteString("<html><body>")
	var open *types.Color
	for i, r := range text {
		if !sameColor(open, colors[i]) {
			if open != nil {
				sb.WriteString("</font>")
			}
			if colors[i] != nil {
				sb.WriteString(`<font style bgcolor="`)
				sb.WriteString(colors[i].Hex())
				sb.WriteString(`">`)
			}
			open = colors[i]
		}
		writeEscaped(&sb, r)
	}
	if open != nil {
		sb.WriteString("</font>")
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

func (a *Annotator) rules(cfg *config.Config) []*highlight.Highlight {
	var rules []*highlight.Highlight
	if a.catalog.Enabled() {
		a.catalog.ReadLock()
		for i := 0; i < a.catalog.Len(); i++ {
			rules = append(rules, a.catalog.At(i))
		}
		a.catalog.ReleaseLock()
	}
	if cfg.CaretHighlight {
		rules = append(rules, a.catalog.CurrentWord())
	}
	if cfg.HighlightSelection {
		rules = append(rules, a.catalog.Selection())
	}
	return rules
}

func sameColor(a, b *types.Color) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// EscapeHTML escapes the characters " & < and >
func EscapeHTML(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		writeEscaped(&sb, r)
	}
	return sb.String()
}

func writeEscaped(sb *strings.Builder, r rune) {
	switch r {
	case '"':
		sb.WriteString("&quot;")
	case '&':
		sb.WriteString("&amp;")
	case '<':
		sb.WriteString("&lt;")
	case '>':
		sb.WriteString("&gt;")
	default:
		sb.WriteRune(r)
	}
}
