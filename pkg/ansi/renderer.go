// Package ansi renders highlighted text lines as ANSI escape sequences, for
// output that goes to a terminal line by line.
package ansi

import (
	"io"
	"strings"
	"sync"

	xansi "github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"
	"github.com/muesli/termenv"

	"github.com/Veraticus/highlight/pkg/interfaces"
	"github.com/Veraticus/highlight/pkg/painter"
	"github.com/Veraticus/highlight/pkg/types"
)

// Dark and Light are the assumed terminal backgrounds highlights blend over
var (
	Dark  = types.RGB(0, 0, 0)
	Light = types.RGB(255, 255, 255)
)

// Renderer paints lines with the highlights of a catalog. Each rendered line
// is a one-line buffer that never has a caret or a selection.
type Renderer struct {
	mu      sync.Mutex
	output  *termenv.Output
	area    *lineArea
	painter *painter.Painter
	base    types.Color
}

// NewRenderer creates a renderer writing escape sequences for the color
// profile of output. base is the terminal background highlights blend over.
func NewRenderer(output *termenv.Output, catalog painter.Catalog, opts painter.Options, base types.Color) *Renderer {
	area := &lineArea{buffer: &lineBuffer{id: types.BufferID(uuid.NewString())}}
	return &Renderer{
		output:  output,
		area:    area,
		painter: painter.New(area, catalog, opts),
		base:    base,
	}
}

// NewOutput returns a termenv output for w, with the color profile detected
// from w
func NewOutput(w io.Writer) *termenv.Output {
	return termenv.NewOutput(w)
}

// BackgroundFor picks Dark or Light after the background of output
func BackgroundFor(output *termenv.Output) types.Color {
	if output.HasDarkBackground() {
		return Dark
	}
	return Light
}

// BufferID returns the id of the rendered one-line buffer, for buffer-scoped
// highlights
func (r *Renderer) BufferID() types.BufferID {
	return r.area.buffer.id
}

// Painter returns the painter, which should be registered as change listener
// only when the renderer is long lived
func (r *Renderer) Painter() *painter.Painter {
	return r.painter
}

// Render returns line with its matches highlighted. Escape sequences already
// in line are removed first so that they neither hide matches nor shift
// columns.
func (r *Renderer) Render(line string) string {
	plain := xansi.Strip(line)

	r.mu.Lock()
	defer r.mu.Unlock()

	text := []rune(plain)
	r.area.buffer.text = text
	g := newCellGraphics(len(text), r.base)
	r.painter.PaintValidLine(g, 0, 0, 0, len(text)+1, 0)

	return r.encode(text, g.cells)
}

func (r *Renderer) encode(text []rune, cells []cell) string {
	var sb strings.Builder
	for start := 0; start < len(text); {
		end := start + 1
		for end < len(text) && sameCell(cells[start], cells[end]) {
			end++
		}
		sb.WriteString(r.style(string(text[start:end]), cells[start]))
		start = end
	}
	return sb.String()
}

func (r *Renderer) style(s string, c cell) string {
	if c.bg == nil && !c.underline {
		return s
	}
	st := r.output.String(s)
	if c.bg != nil {
		st = st.Background(r.output.Color(c.bg.Hex()))
	}
	if c.underline {
		st = st.Underline()
	}
	return st.String()
}

func sameCell(a, b cell) bool {
	if a.underline != b.underline {
		return false
	}
	if a.bg == nil || b.bg == nil {
		return a.bg == b.bg
	}
	return *a.bg == *b.bg
}

// interface checks
var (
	_ interfaces.Buffer   = (*lineBuffer)(nil)
	_ interfaces.TextArea = (*lineArea)(nil)
	_ interfaces.Graphics = (*cellGraphics)(nil)
)
