// Package interfaces defines the editor host surface consumed by the highlight engine.
package interfaces

import (
	"github.com/Veraticus/highlight/pkg/types"
)

// Buffer is the host text model. Offsets are character (rune) offsets from the
// start of the buffer.
type Buffer interface {
	ID() types.BufferID
	LineCount() int
	// LineStartOffset returns the offset of the first character of the line.
	LineStartOffset(line int) int
	// LineEndOffset returns the offset just past the line terminator.
	LineEndOffset(line int) int
	// LineLength returns the line length without its terminator.
	LineLength(line int) int
	// Segment returns length characters starting at offset, clipped to the buffer.
	Segment(offset, length int) []rune
	Length() int
}

// Selection is a selected range [Start, End)
type Selection struct {
	Start, End int
}

// Len returns the selection length
func (s Selection) Len() int {
	return s.End - s.Start
}

// PainterMetrics describes the text area font geometry
type PainterMetrics struct {
	LineHeight int
	FontHeight int
}

// TextArea is the host view over a buffer
type TextArea interface {
	Buffer() Buffer
	// OffsetToXY resolves an offset within a physical line to a position;
	// ok is false when the offset is not visible.
	OffsetToXY(physicalLine, offsetInLine int) (p types.Point, ok bool)
	CaretPosition() int
	CaretLine() int
	SelectionAtOffset(offset int) (Selection, bool)
	SelectionCount() int
	SelectedText() string
	LineStartOffset(line int) int
	InvalidateLineRange(first, last int)
	FirstPhysicalLine() int
	LastPhysicalLine() int
	Metrics() PainterMetrics
}

// CompositeRule is a Porter-Duff rule
type CompositeRule int

const (
	// SrcOver draws the source over the destination
	SrcOver CompositeRule = iota
)

// Composite is an alpha composite. Alpha 1 is opaque.
type Composite struct {
	Rule  CompositeRule
	Alpha float64
}

// Opaque is the default composite
var Opaque = Composite{Rule: SrcOver, Alpha: 1}

// Graphics is the paint surface handed to painter extensions
type Graphics interface {
	Color() types.Color
	SetColor(c types.Color)
	Composite() Composite
	SetComposite(c Composite)
	FillRect(r types.Rect)
	DrawRect(r types.Rect)
	FillRoundRect(r types.Rect, arcWidth, arcHeight int)
	DrawRoundRect(r types.Rect, arcWidth, arcHeight int)
}

// SearchState is the host's current search settings
type SearchState interface {
	SearchString() string
	Regexp() bool
	IgnoreCase() bool
}

// ChangeListener is notified after the highlight catalog or its enabled state changes.
// Listeners are compared by identity on removal, so implementations should be pointers.
type ChangeListener interface {
	HighlightUpdated(enabled bool)
}
