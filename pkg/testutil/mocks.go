package testutil

import (
	"strings"
	"sync"

	"github.com/Veraticus/highlight/pkg/interfaces"
	"github.com/Veraticus/highlight/pkg/store"
	"github.com/Veraticus/highlight/pkg/types"
)

// MockBuffer is an in-memory implementation of interfaces.Buffer. Lines are
// separated by '\n'; every line, the last included, ends one past a terminator.
type MockBuffer struct {
	mu     sync.Mutex
	id     types.BufferID
	text   []rune
	starts []int
}

// NewMockBuffer creates a buffer holding text
func NewMockBuffer(id types.BufferID, text string) *MockBuffer {
	b := &MockBuffer{id: id}
	b.SetText(text)
	return b
}

// SetText replaces the buffer contents
func (b *MockBuffer) SetText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = []rune(text)
	b.starts = []int{0}
	for i, r := range b.text {
		if r == '\n' {
			b.starts = append(b.starts, i+1)
		}
	}
}

// ID implements interfaces.Buffer
func (b *MockBuffer) ID() types.BufferID {
	return b.id
}

// LineCount implements interfaces.Buffer
func (b *MockBuffer) LineCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.starts)
}

// LineStartOffset implements interfaces.Buffer
func (b *MockBuffer) LineStartOffset(line int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if line < 0 || line >= len(b.starts) {
		return len(b.text)
	}
	return b.starts[line]
}

// LineEndOffset implements interfaces.Buffer
func (b *MockBuffer) LineEndOffset(line int) int {
	return b.LineStartOffset(line) + b.LineLength(line) + 1
}

// LineLength implements interfaces.Buffer
func (b *MockBuffer) LineLength(line int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if line < 0 || line >= len(b.starts) {
		return 0
	}
	end := len(b.text)
	if line+1 < len(b.starts) {
		end = b.starts[line+1] - 1
	}
	return end - b.starts[line]
}

// Segment implements interfaces.Buffer
func (b *MockBuffer) Segment(offset, length int) []rune {
	b.mu.Lock()
	defer b.mu.Unlock()
	if offset < 0 {
		offset = 0
	}
	end := offset + length
	if end > len(b.text) {
		end = len(b.text)
	}
	if offset >= end {
		return nil
	}
	out := make([]rune, end-offset)
	copy(out, b.text[offset:end])
	return out
}

// Length implements interfaces.Buffer
func (b *MockBuffer) Length() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.text)
}

// Line returns the text of one line
func (b *MockBuffer) Line(line int) string {
	return string(b.Segment(b.LineStartOffset(line), b.LineLength(line)))
}

// LineOfOffset returns the line holding offset
func (b *MockBuffer) LineOfOffset(offset int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	line := 0
	for i, start := range b.starts {
		if start > offset {
			break
		}
		line = i
	}
	return line
}

// MockTextArea is a fixed-pitch implementation of interfaces.TextArea. Column
// c of line l is at x = c*CharWidth, y = l*LineHeight.
type MockTextArea struct {
	mu             sync.Mutex
	buffer         *MockBuffer
	caret          int
	selections     []interfaces.Selection
	metrics        interfaces.PainterMetrics
	charWidth      int
	visibleColumns int
	firstLine      int
	lastLine       int
	invalidations  [][2]int
}

// NewMockTextArea creates a text area over buffer with 10x20 cells
func NewMockTextArea(buffer *MockBuffer) *MockTextArea {
	return &MockTextArea{
		buffer:    buffer,
		metrics:   interfaces.PainterMetrics{LineHeight: 20, FontHeight: 20},
		charWidth: 10,
		lastLine:  buffer.LineCount() - 1,
	}
}

// Buffer implements interfaces.TextArea
func (t *MockTextArea) Buffer() interfaces.Buffer {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buffer
}

// SetBuffer switches the displayed buffer
func (t *MockTextArea) SetBuffer(b *MockBuffer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buffer = b
	t.caret = 0
	t.selections = nil
	t.lastLine = b.LineCount() - 1
}

// OffsetToXY implements interfaces.TextArea. Offsets past VisibleColumns are
// not visible.
func (t *MockTextArea) OffsetToXY(physicalLine, offsetInLine int) (types.Point, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.visibleColumns > 0 && offsetInLine > t.visibleColumns {
		return types.Point{}, false
	}
	return types.Point{X: offsetInLine * t.charWidth, Y: physicalLine * t.metrics.LineHeight}, true
}

// CaretPosition implements interfaces.TextArea
func (t *MockTextArea) CaretPosition() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.caret
}

// CaretLine implements interfaces.TextArea
func (t *MockTextArea) CaretLine() int {
	return t.buffer.LineOfOffset(t.CaretPosition())
}

// SelectionAtOffset implements interfaces.TextArea
func (t *MockTextArea) SelectionAtOffset(offset int) (interfaces.Selection, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.selections {
		if offset >= s.Start && offset < s.End {
			return s, true
		}
	}
	return interfaces.Selection{}, false
}

// SelectionCount implements interfaces.TextArea
func (t *MockTextArea) SelectionCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.selections)
}

// SelectedText implements interfaces.TextArea
func (t *MockTextArea) SelectedText() string {
	t.mu.Lock()
	sels := append([]interfaces.Selection(nil), t.selections...)
	t.mu.Unlock()

	parts := make([]string, 0, len(sels))
	for _, s := range sels {
		parts = append(parts, string(t.buffer.Segment(s.Start, s.Len())))
	}
	return strings.Join(parts, "\n")
}

// LineStartOffset implements interfaces.TextArea
func (t *MockTextArea) LineStartOffset(line int) int {
	return t.buffer.LineStartOffset(line)
}

// InvalidateLineRange implements interfaces.TextArea
func (t *MockTextArea) InvalidateLineRange(first, last int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.invalidations = append(t.invalidations, [2]int{first, last})
}

// FirstPhysicalLine implements interfaces.TextArea
func (t *MockTextArea) FirstPhysicalLine() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.firstLine
}

// LastPhysicalLine implements interfaces.TextArea
func (t *MockTextArea) LastPhysicalLine() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastLine
}

// Metrics implements interfaces.TextArea
func (t *MockTextArea) Metrics() interfaces.PainterMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.metrics
}

// SetCaret moves the caret and clears the selection
func (t *MockTextArea) SetCaret(offset int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.caret = offset
	t.selections = nil
}

// Select replaces the selection with [start, end) and puts the caret at end
func (t *MockTextArea) Select(start, end int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selections = []interfaces.Selection{{Start: start, End: end}}
	t.caret = end
}

// SetMetrics sets the font geometry
func (t *MockTextArea) SetMetrics(m interfaces.PainterMetrics) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics = m
}

// SetVisibleColumns limits OffsetToXY to the first n columns; 0 means no limit
func (t *MockTextArea) SetVisibleColumns(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.visibleColumns = n
}

// GetInvalidations returns every InvalidateLineRange call
func (t *MockTextArea) GetInvalidations() [][2]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	result := make([][2]int, len(t.invalidations))
	copy(result, t.invalidations)
	return result
}

// Op is one recorded drawing call
type Op struct {
	Kind  string
	Rect  types.Rect
	Color types.Color
	Alpha float64
	Arc   int
}

// RecordingGraphics is an interfaces.Graphics that records drawing calls
type RecordingGraphics struct {
	mu        sync.Mutex
	color     types.Color
	composite interfaces.Composite
	ops       []Op
}

// NewRecordingGraphics creates an opaque black graphics
func NewRecordingGraphics() *RecordingGraphics {
	return &RecordingGraphics{composite: interfaces.Opaque}
}

// Color implements interfaces.Graphics
func (g *RecordingGraphics) Color() types.Color {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.color
}

// SetColor implements interfaces.Graphics
func (g *RecordingGraphics) SetColor(c types.Color) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.color = c
}

// Composite implements interfaces.Graphics
func (g *RecordingGraphics) Composite() interfaces.Composite {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.composite
}

// SetComposite implements interfaces.Graphics
func (g *RecordingGraphics) SetComposite(c interfaces.Composite) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.composite = c
}

// FillRect implements interfaces.Graphics
func (g *RecordingGraphics) FillRect(r types.Rect) {
	g.record("fillRect", r, 0)
}

// DrawRect implements interfaces.Graphics
func (g *RecordingGraphics) DrawRect(r types.Rect) {
	g.record("drawRect", r, 0)
}

// FillRoundRect implements interfaces.Graphics
func (g *RecordingGraphics) FillRoundRect(r types.Rect, arcWidth, _ int) {
	g.record("fillRoundRect", r, arcWidth)
}

// DrawRoundRect implements interfaces.Graphics
func (g *RecordingGraphics) DrawRoundRect(r types.Rect, arcWidth, _ int) {
	g.record("drawRoundRect", r, arcWidth)
}

func (g *RecordingGraphics) record(kind string, r types.Rect, arc int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ops = append(g.ops, Op{Kind: kind, Rect: r, Color: g.color, Alpha: g.composite.Alpha, Arc: arc})
}

// GetOps returns a copy of the recorded calls
func (g *RecordingGraphics) GetOps() []Op {
	g.mu.Lock()
	defer g.mu.Unlock()
	result := make([]Op, len(g.ops))
	copy(result, g.ops)
	return result
}

// Filled returns the recorded fills
func (g *RecordingGraphics) Filled() []Op {
	return g.filter("fillRect", "fillRoundRect")
}

// Outlined returns the recorded outlines
func (g *RecordingGraphics) Outlined() []Op {
	return g.filter("drawRect", "drawRoundRect")
}

func (g *RecordingGraphics) filter(kinds ...string) []Op {
	var out []Op
	for _, op := range g.GetOps() {
		for _, k := range kinds {
			if op.Kind == k {
				out = append(out, op)
			}
		}
	}
	return out
}

// Clear drops the recorded calls
func (g *RecordingGraphics) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ops = nil
}

// CountingListener is an interfaces.ChangeListener that counts events
type CountingListener struct {
	mu          sync.Mutex
	count       int
	lastEnabled bool
	onUpdate    func(enabled bool)
}

// NewCountingListener creates a listener; onUpdate may be nil
func NewCountingListener(onUpdate func(enabled bool)) *CountingListener {
	return &CountingListener{onUpdate: onUpdate}
}

// HighlightUpdated implements interfaces.ChangeListener
func (l *CountingListener) HighlightUpdated(enabled bool) {
	l.mu.Lock()
	l.count++
	l.lastEnabled = enabled
	fn := l.onUpdate
	l.mu.Unlock()

	if fn != nil {
		fn(enabled)
	}
}

// GetCount returns how many events were received
func (l *CountingListener) GetCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// LastEnabled returns the enabled flag of the last event
func (l *CountingListener) LastEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastEnabled
}

// Reset zeroes the counter
func (l *CountingListener) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count = 0
}

// MockStore is an in-memory catalog store
type MockStore struct {
	mu      sync.Mutex
	doc     *store.Document
	loadErr error
	saveErr error
	saves   int
}

// NewMockStore creates a store that loads doc; doc may be nil
func NewMockStore(doc *store.Document) *MockStore {
	return &MockStore{doc: doc}
}

// Load implements manager.Store
func (s *MockStore) Load() (*store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return &store.Document{Enabled: true}, s.loadErr
	}
	doc := *s.doc
	doc.Highlights = append([]store.Record(nil), s.doc.Highlights...)
	return &doc, s.loadErr
}

// Save implements manager.Store
func (s *MockStore) Save(doc *store.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.doc = doc
	return nil
}

// SetLoadError sets the error returned by Load
func (s *MockStore) SetLoadError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

// SetSaveError sets the error returned by Save
func (s *MockStore) SetSaveError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// GetDocument returns the last saved document
func (s *MockStore) GetDocument() *store.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// GetSaveCount returns how many times Save was called
func (s *MockStore) GetSaveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// MockSearchState is a fixed interfaces.SearchState
type MockSearchState struct {
	Search string
	Regex  bool
	Fold   bool
}

// SearchString implements interfaces.SearchState
func (s *MockSearchState) SearchString() string { return s.Search }

// Regexp implements interfaces.SearchState
func (s *MockSearchState) Regexp() bool { return s.Regex }

// IgnoreCase implements interfaces.SearchState
func (s *MockSearchState) IgnoreCase() bool { return s.Fold }
