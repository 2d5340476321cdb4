// Package overview computes the scrollbar-side strip marking every line of a
// buffer that holds a highlight match.
package overview

import (
	"sync"

	"github.com/Veraticus/highlight/pkg/highlight"
	"github.com/Veraticus/highlight/pkg/interfaces"
	"github.com/Veraticus/highlight/pkg/painter"
	"github.com/Veraticus/highlight/pkg/search"
	"github.com/Veraticus/highlight/pkg/types"
)

// Mark is one colored tick of the strip
type Mark struct {
	Line  int
	Y     int
	Color types.Color
}

// Overview is the match strip of one text area. Marks are cached until the
// next change event or Invalidate.
type Overview struct {
	textArea interfaces.TextArea
	catalog  painter.Catalog

	mu          sync.Mutex
	color       *types.Color
	onChange    func()
	cache       []Mark
	cacheValid  bool
	cacheHeight int
	cacheBuffer types.BufferID
}

// New creates the strip for ta
func New(ta interfaces.TextArea, catalog painter.Catalog) *Overview {
	return &Overview{textArea: ta, catalog: catalog}
}

// SetOverviewColor paints every mark in c; nil uses each highlight's color
func (o *Overview) SetOverviewColor(c *types.Color) {
	o.mu.Lock()
	if c != nil {
		cc := *c
		c = &cc
	}
	o.color = c
	o.cacheValid = false
	o.mu.Unlock()
}

// SetOnChange sets the function asked to repaint the strip
func (o *Overview) SetOnChange(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onChange = fn
}

// HighlightUpdated drops the cache and asks for a repaint
func (o *Overview) HighlightUpdated(bool) {
	o.Invalidate()
	o.mu.Lock()
	fn := o.onChange
	o.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Invalidate drops the cached marks, e.g. after the buffer was edited
func (o *Overview) Invalidate() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cacheValid = false
}

// Marks returns the marks for a strip height pixels tall, one per line and
// highlight with at least one match on that line
func (o *Overview) Marks(height int) []Mark {
	buffer := o.textArea.Buffer()

	o.mu.Lock()
	if o.cacheValid && o.cacheHeight == height && o.cacheBuffer == buffer.ID() {
		marks := o.cache
		o.mu.Unlock()
		return marks
	}
	override := o.color
	o.mu.Unlock()

	marks := o.compute(buffer, height, override)

	o.mu.Lock()
	o.cache = marks
	o.cacheValid = true
	o.cacheHeight = height
	o.cacheBuffer = buffer.ID()
	o.mu.Unlock()
	return marks
}

func (o *Overview) rules() []*highlight.Highlight {
	var rules []*highlight.Highlight
	if o.catalog.Enabled() {
		o.catalog.ReadLock()
		for i := 0; i < o.catalog.Len(); i++ {
			rules = append(rules, o.catalog.At(i))
		}
		o.catalog.ReleaseLock()
	}
	if o.textArea.SelectionCount() == 0 {
		rules = append(rules, o.catalog.CurrentWord())
	} else {
		rules = append(rules, o.catalog.Selection())
	}
	return rules
}

func (o *Overview) compute(buffer interfaces.Buffer, height int, override *types.Color) []Mark {
	lineCount := buffer.LineCount()
	if lineCount == 0 || height <= 0 {
		return nil
	}

	var active []*highlight.Highlight
	for _, h := range o.rules() {
		if h.Enabled() && h.Valid() && h.AppliesTo(buffer.ID()) {
			active = append(active, h)
		}
	}
	if len(active) == 0 {
		return nil
	}

	var marks []Mark
	for line := 0; line < lineCount; line++ {
		length := min(buffer.LineLength(line), painter.MaxLineLength)
		if length == 0 {
			continue
		}
		text := buffer.Segment(buffer.LineStartOffset(line), length)
		y := line * height / lineCount
		for _, h := range active {
			found := false
			_ = h.Scan(text, true, true, func(search.Match) bool {
				found = true
				return false
			})
			if !found {
				continue
			}
			c := h.Color()
			if override != nil {
				c = *override
			}
			marks = append(marks, Mark{Line: line, Y: y, Color: c})
		}
	}
	return marks
}

// Paint draws the marks of a strip at column x, width wide and height tall
func (o *Overview) Paint(g interfaces.Graphics, x, width, height int) {
	lineCount := o.textArea.Buffer().LineCount()
	if lineCount == 0 {
		return
	}
	markHeight := max(height/lineCount, 1)

	oldColor := g.Color()
	for _, m := range o.Marks(height) {
		g.SetColor(m.Color)
		g.FillRect(types.Rect{X: x, Y: m.Y, W: width, H: markHeight})
	}
	g.SetColor(oldColor)
}
