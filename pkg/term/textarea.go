package term

import (
	"sync"

	"github.com/mattn/go-runewidth"

	"github.com/Veraticus/highlight/pkg/interfaces"
	"github.com/Veraticus/highlight/pkg/types"
)

// TabWidth is the number of columns between tab stops
const TabWidth = 4

// cellWidth returns the columns taken by r when it starts at column col
func cellWidth(r rune, col int) int {
	if r == '\t' {
		return TabWidth - col%TabWidth
	}
	if w := runewidth.RuneWidth(r); w > 0 {
		return w
	}
	return 1
}

// Columns returns the display width of text
func Columns(text []rune) int {
	col := 0
	for _, r := range text {
		col += cellWidth(r, col)
	}
	return col
}

// TextArea is a scrolling window of height rows over a Buffer, one cell per
// column. The text starts at screen column X.
type TextArea struct {
	mu     sync.Mutex
	buffer *Buffer
	caret  int
	anchor int
	top    int
	left   int
	x      int
	width  int
	height int
	dirty  bool
}

var _ interfaces.TextArea = (*TextArea)(nil)

// NewTextArea creates a text area over buffer with the caret at the start
func NewTextArea(buffer *Buffer) *TextArea {
	return &TextArea{buffer: buffer, anchor: -1, dirty: true}
}

// SetBounds places the text area on screen
func (t *TextArea) SetBounds(x, width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.x != x || t.width != width || t.height != height {
		t.x, t.width, t.height = x, width, height
		t.dirty = true
	}
	t.scrollToCaret()
}

// Bounds returns the screen column and size of the text area
func (t *TextArea) Bounds() (x, width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.x, t.width, t.height
}

// Left returns the first visible text column
func (t *TextArea) Left() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.left
}

// Buffer implements interfaces.TextArea
func (t *TextArea) Buffer() interfaces.Buffer {
	return t.buffer
}

// TextBuffer returns the concrete buffer
func (t *TextArea) TextBuffer() *Buffer {
	return t.buffer
}

// OffsetToXY implements interfaces.TextArea. X may fall outside the visible
// columns; graphics clip it.
func (t *TextArea) OffsetToXY(physicalLine, offsetInLine int) (types.Point, bool) {
	t.mu.Lock()
	top, left, x, height := t.top, t.left, t.x, t.height
	t.mu.Unlock()

	if physicalLine < top || physicalLine >= top+height {
		return types.Point{}, false
	}
	line := t.buffer.Line(physicalLine)
	offsetInLine = max(min(offsetInLine, len(line)), 0)
	col := Columns(line[:offsetInLine])
	// Offsets past the line end sit one column each past its last character
	col += max(offsetInLine-len(line), 0)
	return types.Point{X: x + col - left, Y: physicalLine - top}, true
}

// CaretPosition implements interfaces.TextArea
func (t *TextArea) CaretPosition() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.caret
}

// CaretLine implements interfaces.TextArea
func (t *TextArea) CaretLine() int {
	return t.buffer.LineOfOffset(t.CaretPosition())
}

func (t *TextArea) selection() (interfaces.Selection, bool) {
	if t.anchor < 0 || t.anchor == t.caret {
		return interfaces.Selection{}, false
	}
	return interfaces.Selection{Start: min(t.anchor, t.caret), End: max(t.anchor, t.caret)}, true
}

// SelectionAtOffset implements interfaces.TextArea
func (t *TextArea) SelectionAtOffset(offset int) (interfaces.Selection, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.selection()
	if !ok || offset < s.Start || offset >= s.End {
		return interfaces.Selection{}, false
	}
	return s, true
}

// SelectionCount implements interfaces.TextArea
func (t *TextArea) SelectionCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.selection(); ok {
		return 1
	}
	return 0
}

// SelectedText implements interfaces.TextArea
func (t *TextArea) SelectedText() string {
	t.mu.Lock()
	s, ok := t.selection()
	t.mu.Unlock()
	if !ok {
		return ""
	}
	return string(t.buffer.Segment(s.Start, s.Len()))
}

// LineStartOffset implements interfaces.TextArea
func (t *TextArea) LineStartOffset(line int) int {
	return t.buffer.LineStartOffset(line)
}

// InvalidateLineRange implements interfaces.TextArea. The terminal repaints
// whole screens, so any range marks the area dirty.
func (t *TextArea) InvalidateLineRange(_, _ int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirty = true
}

// TakeDirty reports whether a repaint was asked for since the last call
func (t *TextArea) TakeDirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	dirty := t.dirty
	t.dirty = false
	return dirty
}

// FirstPhysicalLine implements interfaces.TextArea
func (t *TextArea) FirstPhysicalLine() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.top
}

// LastPhysicalLine implements interfaces.TextArea
func (t *TextArea) LastPhysicalLine() int {
	t.mu.Lock()
	top, height := t.top, t.height
	t.mu.Unlock()
	return max(min(top+height, t.buffer.LineCount())-1, top)
}

// Metrics implements interfaces.TextArea
func (t *TextArea) Metrics() interfaces.PainterMetrics {
	return interfaces.PainterMetrics{LineHeight: 1, FontHeight: 1}
}

// MoveCaret puts the caret at offset. With extend the selection grows from
// where the caret was; otherwise the selection is dropped.
func (t *TextArea) MoveCaret(offset int, extend bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if extend {
		if t.anchor < 0 {
			t.anchor = t.caret
		}
	} else {
		t.anchor = -1
	}
	t.caret = max(min(offset, t.buffer.Length()), 0)
	t.dirty = true
	t.scrollToCaret()
}

// Select selects [start, end) and puts the caret at end
func (t *TextArea) Select(start, end int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	length := t.buffer.Length()
	t.anchor = max(min(start, length), 0)
	t.caret = max(min(end, length), 0)
	t.dirty = true
	t.scrollToCaret()
}

// ClearSelection drops the selection and keeps the caret
func (t *TextArea) ClearSelection() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.anchor >= 0 {
		t.anchor = -1
		t.dirty = true
	}
}

// MoveLines moves the caret n lines down, or up when n is negative, keeping
// its column where the target line is long enough
func (t *TextArea) MoveLines(n int, extend bool) {
	caret := t.CaretPosition()
	line := t.buffer.LineOfOffset(caret)
	col := caret - t.buffer.LineStartOffset(line)
	target := max(min(line+n, t.buffer.LineCount()-1), 0)
	col = min(col, t.buffer.LineLength(target))
	t.MoveCaret(t.buffer.LineStartOffset(target)+col, extend)
}

// MoveToLineStart moves the caret to the start of its line
func (t *TextArea) MoveToLineStart(extend bool) {
	t.MoveCaret(t.buffer.LineStartOffset(t.CaretLine()), extend)
}

// MoveToLineEnd moves the caret past the last character of its line
func (t *TextArea) MoveToLineEnd(extend bool) {
	line := t.CaretLine()
	t.MoveCaret(t.buffer.LineStartOffset(line)+t.buffer.LineLength(line), extend)
}

// PageSize returns the number of visible rows
func (t *TextArea) PageSize() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return max(t.height, 1)
}

func (t *TextArea) scrollToCaret() {
	if t.height <= 0 || t.width <= 0 {
		return
	}
	line := t.buffer.LineOfOffset(t.caret)
	if line < t.top {
		t.top = line
		t.dirty = true
	} else if line >= t.top+t.height {
		t.top = line - t.height + 1
		t.dirty = true
	}

	text := t.buffer.Line(line)
	offset := t.caret - t.buffer.LineStartOffset(line)
	col := Columns(text[:max(min(offset, len(text)), 0)])
	if col < t.left {
		t.left = col
		t.dirty = true
	} else if col >= t.left+t.width {
		t.left = col - t.width + 1
		t.dirty = true
	}
}
