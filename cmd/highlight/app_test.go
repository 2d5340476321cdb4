package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/Veraticus/highlight/pkg/config"
	"github.com/Veraticus/highlight/pkg/logging"
	"github.com/Veraticus/highlight/pkg/process"
	"github.com/Veraticus/highlight/pkg/testutil"
)

type harness struct {
	t      *testing.T
	dir    string
	cfg    *config.Config
	stdin  string
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataFile = filepath.Join(dir, "highlights.yaml")
	cfg.CycleColor = false
	return &harness{t: t, dir: dir, cfg: cfg}
}

// run executes one command with fresh dependencies, the way main does
func (h *harness) run(command string, args ...string) int {
	return h.runWith(nil, command, args...)
}

func (h *harness) runWith(setup func(*Dependencies), command string, args ...string) int {
	h.t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()

	deps, err := NewDependencies(h.cfg, filepath.Join(h.dir, "config.yaml"), logging.Discard())
	if err != nil {
		h.t.Fatalf("unexpected error: %v", err)
	}
	if setup != nil {
		setup(deps)
	}

	app := NewApplication(deps, strings.NewReader(h.stdin), &h.stdout, &h.stderr)
	code := app.Run(context.Background(), command, args)
	if err := deps.Close(); err != nil {
		h.t.Fatalf("unexpected close error: %v", err)
	}
	return code
}

func TestNewDependencies(t *testing.T) {
	h := newHarness(t)

	deps, err := NewDependencies(h.cfg, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deps.Config != h.cfg {
		t.Error("expected config to be set")
	}
	if deps.Plugin == nil {
		t.Error("expected plugin to be created")
	}
	if deps.NewScreen == nil || deps.NewPTY == nil {
		t.Error("expected terminal factories to be set")
	}
	if err := deps.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}

	if _, err := NewDependencies(nil, "", nil); err == nil {
		t.Error("expected error without config")
	}
}

func TestNewDependenciesWithoutDataFile(t *testing.T) {
	h := newHarness(t)
	h.cfg.DataFile = ""

	if code := h.run("add", "foo"); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, h.stderr.String())
	}
	if code := h.run("list"); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if strings.Contains(h.stdout.String(), "foo") {
		t.Errorf("expected nothing to be saved, got %q", h.stdout.String())
	}
}

func TestAddListRemove(t *testing.T) {
	h := newHarness(t)

	for _, args := range [][]string{
		{"foo"},
		{"-r", "ba[rz]"},
		{"-i", "--color", "#00ff00", "Qux"},
	} {
		if code := h.run("add", args...); code != 0 {
			t.Fatalf("add %v: expected exit code 0, got %d: %s", args, code, h.stderr.String())
		}
	}

	if code := h.run("list"); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	lines := strings.Split(strings.TrimSpace(h.stdout.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 highlights, got %q", h.stdout.String())
	}
	if !strings.HasPrefix(lines[0], "0\t") || !strings.Contains(lines[0], "foo") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[2], "00ff00") {
		t.Errorf("expected color in %q", lines[2])
	}

	if code := h.run("remove", "0", "2"); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, h.stderr.String())
	}
	h.run("list")
	lines = strings.Split(strings.TrimSpace(h.stdout.String()), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], "ba[rz]") {
		t.Errorf("expected only the regex to remain, got %q", h.stdout.String())
	}

	if code := h.run("remove", "5"); code != 1 {
		t.Errorf("expected exit code 1 for a missing index, got %d", code)
	}
	if code := h.run("remove", "x"); code != 2 {
		t.Errorf("expected exit code 2 for a bad index, got %d", code)
	}

	if code := h.run("clear"); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	h.run("list")
	if strings.TrimSpace(h.stdout.String()) != "" {
		t.Errorf("expected no highlights, got %q", h.stdout.String())
	}
}

func TestAddErrors(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"invalid regex", []string{"-r", "("}, 1},
		{"buffer scope", []string{"--scope", "buffer", "foo"}, 2},
		{"unknown scope", []string{"--scope", "forever", "foo"}, 2},
		{"bad color", []string{"--color", "green", "foo"}, 2},
		{"no pattern", nil, 2},
		{"unknown flag", []string{"--nope", "foo"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := h.run("add", tt.args...); code != tt.code {
				t.Errorf("expected exit code %d, got %d: %s", tt.code, code, h.stderr.String())
			}
			if h.stderr.Len() == 0 {
				t.Error("expected an error message")
			}
		})
	}
}

func TestEnableDisable(t *testing.T) {
	h := newHarness(t)
	h.run("add", "foo")

	if code := h.run("disable", "0"); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, h.stderr.String())
	}
	h.stdin = "a foo b\n"
	h.run("cat", "--html")
	if strings.Contains(h.stdout.String(), "bgcolor") {
		t.Errorf("expected disabled rule not to match, got %q", h.stdout.String())
	}

	if code := h.run("enable", "0"); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	h.run("cat", "--html")
	if !strings.Contains(h.stdout.String(), "bgcolor") {
		t.Errorf("expected enabled rule to match, got %q", h.stdout.String())
	}
}

func TestToggle(t *testing.T) {
	h := newHarness(t)

	if code := h.run("toggle"); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if got := strings.TrimSpace(h.stdout.String()); got != "highlights disabled" {
		t.Errorf("unexpected output %q", got)
	}

	h.run("list")
	if !strings.Contains(h.stdout.String(), "disabled") {
		t.Errorf("expected disabled state to be saved, got %q", h.stdout.String())
	}

	h.run("toggle")
	if got := strings.TrimSpace(h.stdout.String()); got != "highlights enabled" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestExportImport(t *testing.T) {
	h := newHarness(t)
	h.run("add", "foo")
	h.run("add", "-r", "b.r")

	path := filepath.Join(h.dir, "export.txt")
	if code := h.run("export", path); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, h.stderr.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), "foo") {
		t.Errorf("expected export to contain foo, got %q", data)
	}

	h.run("clear")
	if code := h.run("import", path); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, h.stderr.String())
	}
	if got := strings.TrimSpace(h.stdout.String()); got != "imported 2 highlights" {
		t.Errorf("unexpected output %q", got)
	}

	if code := h.run("import", filepath.Join(h.dir, "missing.txt")); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if code := h.run("export"); code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
}

func TestCat(t *testing.T) {
	h := newHarness(t)
	h.run("add", "foo")

	// Output to a buffer has no color profile so lines pass through
	h.stdin = "one foo\ntwo"
	if code := h.run("cat"); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, h.stderr.String())
	}
	if got := h.stdout.String(); got != "one foo\ntwo" {
		t.Errorf("unexpected output %q", got)
	}

	path := filepath.Join(h.dir, "input.txt")
	if err := os.WriteFile(path, []byte("<foo>\n"), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code := h.run("cat", "--html", path); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, h.stderr.String())
	}
	got := h.stdout.String()
	if !strings.Contains(got, "bgcolor") || !strings.Contains(got, "&lt;") {
		t.Errorf("expected escaped html with a highlight, got %q", got)
	}

	if code := h.run("cat", filepath.Join(h.dir, "missing.txt")); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}

func TestRun(t *testing.T) {
	h := newHarness(t)
	h.run("add", "foo")

	mock := testutil.NewMockPTY("hello foo\n")
	mock.SetExitCode(3)
	h.stdin = "input"

	code := h.runWith(func(d *Dependencies) {
		d.NewPTY = func() process.PTY { return mock }
	}, "run", "echo", "hello")

	if code != 3 {
		t.Errorf("expected exit code 3, got %d", code)
	}
	if got := h.stdout.String(); got != "hello foo\n" {
		t.Errorf("unexpected output %q", got)
	}
	command, args := mock.GetCommand()
	if command != "echo" || len(args) != 1 || args[0] != "hello" {
		t.Errorf("unexpected command %s %v", command, args)
	}
	if mock.GetInput() != "input" {
		t.Errorf("expected stdin to be forwarded, got %q", mock.GetInput())
	}
	if !mock.IsClosed() {
		t.Error("expected pty to be closed")
	}

	if code := h.run("run"); code != 2 {
		t.Errorf("expected exit code 2 without a command, got %d", code)
	}
}

func TestRunStartError(t *testing.T) {
	h := newHarness(t)
	mock := testutil.NewMockPTY()
	mock.SetStartError(os.ErrNotExist)

	code := h.runWith(func(d *Dependencies) {
		d.NewPTY = func() process.PTY { return mock }
	}, "run", "nope")

	if code != 127 {
		t.Errorf("expected exit code 127, got %d", code)
	}
	if !strings.Contains(h.stderr.String(), "failed to start process") {
		t.Errorf("unexpected error output %q", h.stderr.String())
	}
}

func TestView(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.dir, "view.txt")
	if err := os.WriteFile(path, []byte("foo bar\nbaz\n"), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	deps, err := NewDependencies(h.cfg, filepath.Join(h.dir, "config.yaml"), logging.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	deps.NewScreen = func() (tcell.Screen, error) {
		s := tcell.NewSimulationScreen("")
		return s, nil
	}
	app := NewApplication(deps, strings.NewReader(""), &h.stdout, &h.stderr)

	if code := app.Run(ctx, "view", []string{path}); code != 0 {
		t.Errorf("expected exit code 0, got %d: %s", code, h.stderr.String())
	}
	if code := app.Run(ctx, "view", []string{filepath.Join(h.dir, "missing.txt")}); code != 1 {
		t.Errorf("expected exit code 1 for a missing file, got %d", code)
	}
	if code := app.Run(ctx, "view", nil); code != 2 {
		t.Errorf("expected exit code 2 without a file, got %d", code)
	}
	if err := deps.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}

func TestConfigCommand(t *testing.T) {
	h := newHarness(t)

	if code := h.run("config"); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, h.stderr.String())
	}
	if !strings.Contains(h.stdout.String(), "alpha: 50") {
		t.Errorf("expected alpha in config output, got %q", h.stdout.String())
	}

	if code := h.run("config", "--write"); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, h.stderr.String())
	}
	cfg, err := config.LoadFrom(filepath.Join(h.dir, "config.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CycleColor {
		t.Error("expected written config to keep cycleColor off")
	}
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)

	if code := h.run("frobnicate"); code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(h.stderr.String(), "unknown command") {
		t.Errorf("unexpected error output %q", h.stderr.String())
	}
}

func TestMainRun(t *testing.T) {
	if code := run(nil); code != 2 {
		t.Errorf("expected exit code 2 without a command, got %d", code)
	}
	if code := run([]string{"--help"}); code != 0 {
		t.Errorf("expected exit code 0 for help, got %d", code)
	}
	if code := run([]string{"--bogus"}); code != 2 {
		t.Errorf("expected exit code 2 for a bad flag, got %d", code)
	}
}
