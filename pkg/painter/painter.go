// Package painter draws highlight matches behind the text of each screen line.
package painter

import (
	"sync"

	"github.com/Veraticus/highlight/pkg/config"
	"github.com/Veraticus/highlight/pkg/highlight"
	"github.com/Veraticus/highlight/pkg/interfaces"
	"github.com/Veraticus/highlight/pkg/search"
	"github.com/Veraticus/highlight/pkg/types"
)

// MaxLineLength caps the characters of one screen line that are searched
const MaxLineLength = 10000

// cornerArc is the arc size of rounded highlight rectangles
const cornerArc = 5

// Catalog is the read side of the highlight catalog
type Catalog interface {
	ReadLock()
	ReleaseLock()
	Len() int
	At(i int) *highlight.Highlight
	Enabled() bool
	CurrentWord() *highlight.Highlight
	Selection() *highlight.Highlight
}

// Options are the per-painter drawing settings
type Options struct {
	Alpha       float64
	RoundCorner bool
	Square      bool
	SquareColor types.Color
}

// OptionsFromConfig extracts the drawing settings of cfg
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Alpha:       cfg.AlphaFraction(),
		RoundCorner: cfg.RoundCorner,
		Square:      cfg.Square,
		SquareColor: cfg.SquareColor,
	}
}

// Painter is the text area extension painting highlights for one text area
type Painter struct {
	textArea interfaces.TextArea
	catalog  Catalog

	mu   sync.RWMutex
	opts Options

	blend interfaces.Composite
}

// New creates a painter for ta
func New(ta interfaces.TextArea, catalog Catalog, opts Options) *Painter {
	p := &Painter{textArea: ta, catalog: catalog}
	p.SetOptions(opts)
	return p
}

// TextArea returns the painted text area
func (p *Painter) TextArea() interfaces.TextArea {
	return p.textArea
}

// SetOptions replaces the drawing settings
func (p *Painter) SetOptions(opts Options) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opts = opts
	p.blend = interfaces.Composite{Rule: interfaces.SrcOver, Alpha: opts.Alpha}
}

// SetAlphaComposite sets the fill alpha, 0..1
func (p *Painter) SetAlphaComposite(alpha float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.opts.Alpha != alpha {
		p.opts.Alpha = alpha
		p.blend = interfaces.Composite{Rule: interfaces.SrcOver, Alpha: alpha}
	}
}

// SetRoundCorner sets whether rectangles get rounded corners
func (p *Painter) SetRoundCorner(roundCorner bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opts.RoundCorner = roundCorner
}

// Options returns the drawing settings
func (p *Painter) Options() Options {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.opts
}

// HighlightUpdated repaints the visible lines
func (p *Painter) HighlightUpdated(bool) {
	p.textArea.InvalidateLineRange(p.textArea.FirstPhysicalLine(), p.textArea.LastPhysicalLine())
}

// Active reports whether anything may paint: the catalog is enabled and not
// empty, or an implicit highlight is enabled
func (p *Painter) Active() bool {
	if p.catalog.CurrentWord().Enabled() || p.catalog.Selection().Enabled() {
		return true
	}
	if !p.catalog.Enabled() {
		return false
	}
	p.catalog.ReadLock()
	defer p.catalog.ReleaseLock()
	return p.catalog.Len() != 0
}

// PaintScreenLineRange paints screen lines firstLine..lastLine. Entry i of
// physicalLines, start and end describes screen line firstLine+i; a negative
// physical line is past the end of the buffer.
func (p *Painter) PaintScreenLineRange(g interfaces.Graphics, firstLine, lastLine int, physicalLines, start, end []int, y, lineHeight int) {
	if !p.Active() {
		return
	}
	n := lastLine - firstLine + 1
	n = min(n, len(physicalLines), len(start), len(end))
	for i := 0; i < n; i++ {
		if physicalLines[i] >= 0 {
			p.PaintValidLine(g, firstLine+i, physicalLines[i], start[i], end[i], y+i*lineHeight)
		}
	}
}

// PaintValidLine paints one screen line. start and end are the buffer offsets
// of the screen line, which may be a slice of its physical line under soft wrap.
func (p *Painter) PaintValidLine(g interfaces.Graphics, _ int, physicalLine, start, end, y int) {
	buffer := p.textArea.Buffer()
	lineStart := buffer.LineStartOffset(physicalLine)
	lineEnd := buffer.LineEndOffset(physicalLine)
	length := buffer.LineLength(physicalLine)

	screenToPhysical := start - lineStart
	if screenToPhysical < 0 {
		return
	}
	l := length - screenToPhysical - lineEnd + end
	if l > MaxLineLength {
		l = MaxLineLength
	}
	if l <= 0 {
		return
	}
	text := buffer.Segment(lineStart+screenToPhysical, l)
	if len(text) == 0 {
		return
	}

	p.mu.RLock()
	opts, blend := p.opts, p.blend
	p.mu.RUnlock()

	line := lineContext{
		buffer:           buffer,
		physicalLine:     physicalLine,
		lineStart:        lineStart,
		screenToPhysical: screenToPhysical,
		y:                y,
		text:             text,
		opts:             opts,
		blend:            blend,
	}

	if p.catalog.Enabled() {
		p.paintCatalog(g, &line)
	}

	if p.textArea.SelectionCount() == 0 {
		p.paintHighlight(g, &line, p.catalog.CurrentWord())
	} else {
		p.paintHighlight(g, &line, p.catalog.Selection())
	}
}

// paintCatalog paints the user highlights in catalog order. The list is copied
// under the read lock so that no graphics call happens while it is held.
func (p *Painter) paintCatalog(g interfaces.Graphics, line *lineContext) {
	for _, h := range p.snapshot() {
		p.paintHighlight(g, line, h)
	}
}

func (p *Painter) snapshot() []*highlight.Highlight {
	p.catalog.ReadLock()
	defer p.catalog.ReleaseLock()
	rules := make([]*highlight.Highlight, p.catalog.Len())
	for i := range rules {
		rules[i] = p.catalog.At(i)
	}
	return rules
}

type lineContext struct {
	buffer           interfaces.Buffer
	physicalLine     int
	lineStart        int
	screenToPhysical int
	y                int
	text             []rune
	opts             Options
	blend            interfaces.Composite
}

func (p *Painter) paintHighlight(g interfaces.Graphics, line *lineContext, h *highlight.Highlight) {
	if !h.Enabled() || !h.Valid() || !h.AppliesTo(line.buffer.ID()) {
		return
	}

	currentWord := h == p.catalog.CurrentWord()
	caretLine := p.textArea.CaretLine()
	caretInLine := p.textArea.CaretPosition() - p.textArea.LineStartOffset(caretLine)
	color := h.Color()

	// Scan failures mark the highlight invalid; nothing else to do here
	_ = h.Scan(line.text, line.screenToPhysical == 0, true, func(m search.Match) bool {
		startOffset := m.Start + line.screenToPhysical
		endOffset := m.End + line.screenToPhysical
		if _, selected := p.textArea.SelectionAtOffset(startOffset + line.lineStart); !selected {
			filled := !currentWord ||
				caretLine != line.physicalLine ||
				caretInLine < startOffset || caretInLine > endOffset
			p.paintMatch(g, line, color, startOffset, endOffset, filled)
		}
		h.UpdateLastSeen()
		return true
	})
}

func (p *Painter) paintMatch(g interfaces.Graphics, line *lineContext, color types.Color, startOffset, endOffset int, filled bool) {
	startXY, ok := p.textArea.OffsetToXY(line.physicalLine, startOffset)
	if !ok {
		return
	}
	endXY, ok := p.textArea.OffsetToXY(line.physicalLine, endOffset)
	if !ok {
		return
	}

	metrics := p.textArea.Metrics()
	charHeight := min(metrics.LineHeight, metrics.FontHeight)
	charOffset := max(metrics.LineHeight-charHeight, 0)
	r := types.Rect{X: startXY.X, Y: line.y + charOffset, W: endXY.X - startXY.X, H: charHeight - 1}

	oldColor, oldComposite := g.Color(), g.Composite()
	g.SetColor(color)
	g.SetComposite(line.blend)

	if filled {
		if line.opts.RoundCorner {
			g.FillRoundRect(r, cornerArc, cornerArc)
		} else {
			g.FillRect(r)
		}
	}

	if line.opts.Square {
		g.SetColor(line.opts.SquareColor)
		g.SetComposite(interfaces.Opaque)
		drawOutline(g, r, line.opts.RoundCorner)
	} else if !filled {
		drawOutline(g, r, line.opts.RoundCorner)
	}

	g.SetColor(oldColor)
	g.SetComposite(oldComposite)
}

func drawOutline(g interfaces.Graphics, r types.Rect, roundCorner bool) {
	if roundCorner {
		g.DrawRoundRect(r, cornerArc, cornerArc)
	} else {
		g.DrawRect(r)
	}
}
