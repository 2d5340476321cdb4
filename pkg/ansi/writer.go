package ansi

import (
	"bytes"
	"io"
	"strings"
	"sync"
)

// LineWriter collects written data into lines and writes each complete line,
// transformed, to an underlying writer
type LineWriter struct {
	out       io.Writer
	transform func(line string) string

	mu         sync.Mutex
	lineBuffer bytes.Buffer
}

// NewLineWriter creates a writer passing every line through transform
func NewLineWriter(out io.Writer, transform func(line string) string) *LineWriter {
	return &LineWriter{out: out, transform: transform}
}

// Write implements io.Writer. Incomplete trailing data waits for the next
// newline or Flush.
func (w *LineWriter) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.lineBuffer.Write(data)
	buffer := w.lineBuffer.Bytes()

	start := 0
	for i := 0; i < len(buffer); i++ {
		if buffer[i] == '\n' {
			if err := w.writeLine(string(buffer[start:i]), true); err != nil {
				w.keep(buffer[i+1:])
				return len(data), err
			}
			start = i + 1
		}
	}
	w.keep(buffer[start:])
	return len(data), nil
}

func (w *LineWriter) keep(rest []byte) {
	tail := append([]byte(nil), rest...)
	w.lineBuffer.Reset()
	w.lineBuffer.Write(tail)
}

func (w *LineWriter) writeLine(line string, newline bool) error {
	cr := strings.HasSuffix(line, "\r")
	line = w.transform(strings.TrimSuffix(line, "\r"))
	if cr {
		line += "\r"
	}
	if newline {
		line += "\n"
	}
	_, err := io.WriteString(w.out, line)
	return err
}

// Flush writes any incomplete last line
func (w *LineWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.lineBuffer.Len() == 0 {
		return nil
	}
	line := w.lineBuffer.String()
	w.lineBuffer.Reset()
	return w.writeLine(line, false)
}
