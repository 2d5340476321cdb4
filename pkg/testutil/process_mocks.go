package testutil

import (
	"bytes"
	"io"
	"os"
	"sync"
)

// MockPTY is a mock implementation of process.PTY. CopyIO consumes stdin and
// writes the configured output chunks to stdout.
type MockPTY struct {
	mu       sync.Mutex
	started  bool
	closed   bool
	command  string
	args     []string
	exitCode int
	startErr error
	waitErr  error
	copyErr  error
	output   [][]byte
	input    bytes.Buffer
}

// NewMockPTY creates a mock whose child writes the given output chunks
func NewMockPTY(output ...string) *MockPTY {
	m := &MockPTY{}
	for _, o := range output {
		m.output = append(m.output, []byte(o))
	}
	return m
}

// Start implements process.PTY
func (m *MockPTY) Start(command string, args []string, _ []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.startErr != nil {
		return m.startErr
	}
	m.started = true
	m.command = command
	m.args = append([]string(nil), args...)
	return nil
}

// CopyIO implements process.PTY
func (m *MockPTY) CopyIO(stdin io.Reader, stdout io.Writer) error {
	if stdin != nil {
		data, _ := io.ReadAll(stdin)
		m.mu.Lock()
		m.input.Write(data)
		m.mu.Unlock()
	}

	m.mu.Lock()
	chunks := m.output
	copyErr := m.copyErr
	m.mu.Unlock()

	for _, chunk := range chunks {
		if _, err := stdout.Write(chunk); err != nil {
			return err
		}
	}
	return copyErr
}

// Wait implements process.PTY
func (m *MockPTY) Wait() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waitErr
}

// Close implements process.PTY
func (m *MockPTY) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Process implements process.PTY; the mock has no real process
func (m *MockPTY) Process() *os.Process {
	return nil
}

// ExitCode implements process.PTY
func (m *MockPTY) ExitCode() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exitCode
}

// SetStartError sets the error to return from Start
func (m *MockPTY) SetStartError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startErr = err
}

// SetWaitError sets the error to return from Wait
func (m *MockPTY) SetWaitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waitErr = err
}

// SetCopyError sets the error to return from CopyIO
func (m *MockPTY) SetCopyError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.copyErr = err
}

// SetExitCode sets the exit code
func (m *MockPTY) SetExitCode(code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exitCode = code
}

// IsStarted returns whether Start succeeded
func (m *MockPTY) IsStarted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// IsClosed returns whether Close was called
func (m *MockPTY) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// GetCommand returns the started command and its arguments
func (m *MockPTY) GetCommand() (string, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.command, append([]string(nil), m.args...)
}

// GetInput returns everything forwarded from stdin
func (m *MockPTY) GetInput() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.input.String()
}
