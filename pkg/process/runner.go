// Package process runs a command in a pseudo terminal and streams its output
// to a writer, so that the output of programs expecting a terminal can be
// highlighted line by line.
package process

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Flusher is implemented by output writers holding an incomplete last line
type Flusher interface {
	Flush() error
}

// Runner manages one wrapped process
type Runner struct {
	pty      PTY
	stdin    io.Reader
	output   io.Writer
	logger   *slog.Logger
	exitCode int
	started  bool
	mu       sync.Mutex
	sigChan  chan os.Signal
	copyDone chan error
	done     chan struct{}
}

// NewRunner creates a runner with a real PTY, reading os.Stdin
func NewRunner(output io.Writer, logger *slog.Logger) *Runner {
	return NewRunnerWithPTY(NewPTYManager(logger), os.Stdin, output, logger)
}

// NewRunnerWithPTY creates a runner over p
func NewRunnerWithPTY(p PTY, stdin io.Reader, output io.Writer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		pty:      p,
		stdin:    stdin,
		output:   output,
		logger:   logger,
		copyDone: make(chan error, 1),
		done:     make(chan struct{}),
	}
}

// Start starts command and begins copying its output
func (r *Runner) Start(command string, args []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.pty.Start(command, args, os.Environ()); err != nil {
		return fmt.Errorf("failed to start process: %w", err)
	}
	r.started = true
	r.logger.Debug("Started process", "command", command, "args", args)

	go func() {
		r.copyDone <- r.pty.CopyIO(r.stdin, r.output)
	}()

	r.setupSignalForwarding()
	return nil
}

// Wait waits for the process to exit and for its output to be written
func (r *Runner) Wait() error {
	r.mu.Lock()
	started := r.started
	r.mu.Unlock()
	if !started {
		return fmt.Errorf("process not started")
	}

	waitErr := r.pty.Wait()

	copyErr := <-r.copyDone
	if f, ok := r.output.(Flusher); ok {
		copyErr = errors.Join(copyErr, f.Flush())
	}
	closeErr := r.pty.Close()

	r.mu.Lock()
	r.exitCode = r.pty.ExitCode()
	r.mu.Unlock()

	close(r.done)
	r.cleanupSignals()

	if copyErr != nil {
		r.logger.Error("Output copy failed", "error", copyErr)
	}
	if closeErr != nil {
		r.logger.Debug("Closing PTY failed", "error", closeErr)
	}
	return waitErr
}

// ExitCode returns the exit code of the process
func (r *Runner) ExitCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exitCode
}

func (r *Runner) setupSignalForwarding() {
	r.sigChan = make(chan os.Signal, 1)
	signal.Notify(r.sigChan,
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGHUP,
		syscall.SIGQUIT,
		syscall.SIGUSR1,
		syscall.SIGUSR2,
	)

	go r.forwardSignals(r.sigChan)
}

func (r *Runner) forwardSignals(sigChan <-chan os.Signal) {
	for {
		select {
		case sig := <-sigChan:
			if proc := r.pty.Process(); proc != nil {
				if err := proc.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
					r.logger.Warn("Signal forward failed", "signal", sig, "error", err)
				}
			}
		case <-r.done:
			return
		}
	}
}

func (r *Runner) cleanupSignals() {
	if r.sigChan != nil {
		signal.Stop(r.sigChan)
	}
}

// Stop asks the process to terminate, killing it if that fails
func (r *Runner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	proc := r.pty.Process()
	if proc == nil {
		return nil
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return proc.Kill()
	}
	return nil
}
