// Package term hosts the highlight engine in a terminal: a text model, a
// tcell-backed text area and graphics surface, and an interactive viewer.
package term

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Veraticus/highlight/pkg/types"
)

// Buffer is an in-memory text model split into lines. Every line, the last
// included, is followed by one terminator offset.
type Buffer struct {
	id   types.BufferID
	path string

	mu     sync.RWMutex
	lines  [][]rune
	starts []int
}

// NewBuffer creates a buffer holding text
func NewBuffer(text string) *Buffer {
	b := &Buffer{id: types.BufferID(uuid.NewString())}
	b.SetLines(strings.Split(text, "\n"))
	return b
}

// LoadFile reads path into a new buffer
func LoadFile(path string) (*Buffer, error) {
	// #nosec G304 - The path is the file the user asked to view
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	b := &Buffer{id: types.BufferID(uuid.NewString()), path: path}
	b.SetLines(lines)
	return b, nil
}

// SetLines replaces the contents
func (b *Buffer) SetLines(lines []string) {
	if len(lines) == 0 {
		lines = []string{""}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = make([][]rune, len(lines))
	b.starts = make([]int, len(lines))
	offset := 0
	for i, l := range lines {
		b.lines[i] = []rune(l)
		b.starts[i] = offset
		offset += len(b.lines[i]) + 1
	}
}

// Path returns the file the buffer was loaded from, if any
func (b *Buffer) Path() string {
	return b.path
}

// ID implements interfaces.Buffer
func (b *Buffer) ID() types.BufferID {
	return b.id
}

// LineCount implements interfaces.Buffer
func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// LineStartOffset implements interfaces.Buffer
func (b *Buffer) LineStartOffset(line int) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if line < 0 {
		return 0
	}
	if line >= len(b.lines) {
		return b.length()
	}
	return b.starts[line]
}

// LineEndOffset implements interfaces.Buffer
func (b *Buffer) LineEndOffset(line int) int {
	return b.LineStartOffset(line) + b.LineLength(line) + 1
}

// LineLength implements interfaces.Buffer
func (b *Buffer) LineLength(line int) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if line < 0 || line >= len(b.lines) {
		return 0
	}
	return len(b.lines[line])
}

// Line returns the characters of one line. The slice must not be modified.
func (b *Buffer) Line(line int) []rune {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if line < 0 || line >= len(b.lines) {
		return nil
	}
	return b.lines[line]
}

// LineOfOffset returns the line holding offset
func (b *Buffer) LineOfOffset(offset int) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	lo, hi := 0, len(b.starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if b.starts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// Segment implements interfaces.Buffer. Line terminators read as '\n'.
func (b *Buffer) Segment(offset, length int) []rune {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if offset < 0 || length <= 0 || offset >= b.length() {
		return nil
	}

	out := make([]rune, 0, length)
	line := 0
	for line+1 < len(b.starts) && b.starts[line+1] <= offset {
		line++
	}
	col := offset - b.starts[line]
	for len(out) < length && line < len(b.lines) {
		text := b.lines[line]
		if col < len(text) {
			n := min(len(text)-col, length-len(out))
			out = append(out, text[col:col+n]...)
			col += n
			continue
		}
		if line == len(b.lines)-1 {
			break
		}
		out = append(out, '\n')
		line++
		col = 0
	}
	return out
}

// Length implements interfaces.Buffer
func (b *Buffer) Length() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.length()
}

func (b *Buffer) length() int {
	last := len(b.lines) - 1
	return b.starts[last] + len(b.lines[last])
}
