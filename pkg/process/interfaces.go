package process

import (
	"io"
	"os"
)

// PTY defines the interface for PTY operations
type PTY interface {
	Start(command string, args []string, env []string) error
	// CopyIO forwards stdin to the child and copies the child's output to
	// stdout until the output ends.
	CopyIO(stdin io.Reader, stdout io.Writer) error
	Wait() error
	Close() error
	Process() *os.Process
	ExitCode() int
}
