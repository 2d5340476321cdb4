package ansi

import (
	"github.com/Veraticus/highlight/pkg/interfaces"
	"github.com/Veraticus/highlight/pkg/types"
)

// lineBuffer is a buffer holding a single line
type lineBuffer struct {
	id   types.BufferID
	text []rune
}

func (b *lineBuffer) ID() types.BufferID { return b.id }
func (b *lineBuffer) LineCount() int { return 1 }
func (b *lineBuffer) LineStartOffset(int) int { return 0 }
func (b *lineBuffer) LineEndOffset(int) int { return len(b.text) + 1 }
func (b *lineBuffer) LineLength(int) int { return len(b.text) }
func (b *lineBuffer) Length() int { return len(b.text) }
func (b *lineBuffer) Segment(offset, length int) []rune {
	if offset < 0 || offset >= len(b.text) || length <= 0 {
		return nil
	}
	end := min(offset+length, len(b.text))
	return b.text[offset:end]
}

// lineArea shows a lineBuffer one cell per character. It has no caret and no
// selection.
type lineArea struct {
	buffer *lineBuffer
}

func (a *lineArea) Buffer() interfaces.Buffer { return a.buffer }

func (a *lineArea) OffsetToXY(_, offsetInLine int) (types.Point, bool) {
	return types.Point{X: offsetInLine}, true
}

func (a *lineArea) CaretPosition() int { return -1 }
func (a *lineArea) CaretLine() int { return 0 }

func (a *lineArea) SelectionAtOffset(int) (interfaces.Selection, bool) {
	return interfaces.Selection{}, false
}

func (a *lineArea) SelectionCount() int { return 0 }
func (a *lineArea) SelectedText() string { return "" }
func (a *lineArea) LineStartOffset(int) int { return 0 }
func (a *lineArea) InvalidateLineRange(_, _ int) {}
func (a *lineArea) FirstPhysicalLine() int { return 0 }
func (a *lineArea) LastPhysicalLine() int { return 0 }
func (a *lineArea) Metrics() interfaces.PainterMetrics {
	return interfaces.PainterMetrics{LineHeight: 1, FontHeight: 1}
}

// cell is the paint state of one character
type cell struct {
	bg        *types.Color
	underline bool
}

// cellGraphics paints rectangles onto the cells of one line. A filled rect
// blends the background of its cells; an outline underlines them.
type cellGraphics struct {
	cells     []cell
	base      types.Color
	color     types.Color
	composite interfaces.Composite
}

func newCellGraphics(n int, base types.Color) *cellGraphics {
	return &cellGraphics{cells: make([]cell, n), base: base, composite: interfaces.Opaque}
}

func (g *cellGraphics) Color() types.Color { return g.color }
func (g *cellGraphics) SetColor(c types.Color) { g.color = c }
func (g *cellGraphics) Composite() interfaces.Composite { return g.composite }
func (g *cellGraphics) SetComposite(c interfaces.Composite) { g.composite = c }
func (g *cellGraphics) FillRoundRect(r types.Rect, _, _ int) { g.FillRect(r) }
func (g *cellGraphics) DrawRoundRect(r types.Rect, _, _ int) { g.DrawRect(r) }

func (g *cellGraphics) FillRect(r types.Rect) {
	for x := max(r.X, 0); x < r.X+r.W && x < len(g.cells); x++ {
		under := g.base
		if g.cells[x].bg != nil {
			under = *g.cells[x].bg
		}
		c := g.color.Over(under, g.composite.Alpha)
		g.cells[x].bg = &c
	}
}

func (g *cellGraphics) DrawRect(r types.Rect) {
	for x := max(r.X, 0); x < r.X+r.W && x < len(g.cells); x++ {
		g.cells[x].underline = true
	}
}
