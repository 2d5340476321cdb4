package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"

	"github.com/gdamore/tcell/v2"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/highlight/pkg/ansi"
	"github.com/Veraticus/highlight/pkg/config"
	"github.com/Veraticus/highlight/pkg/manager"
	"github.com/Veraticus/highlight/pkg/painter"
	"github.com/Veraticus/highlight/pkg/plugin"
	"github.com/Veraticus/highlight/pkg/process"
	"github.com/Veraticus/highlight/pkg/store"
	"github.com/Veraticus/highlight/pkg/term"
	"github.com/Veraticus/highlight/pkg/types"
)

// errUsage marks errors caused by bad arguments
var errUsage = errors.New("usage")

// Dependencies holds all the dependencies for the application
type Dependencies struct {
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger
	Plugin     *plugin.Plugin

	// NewScreen opens the terminal for the viewer
	NewScreen func() (tcell.Screen, error)
	// NewPTY creates the pseudo terminal for run
	NewPTY func() process.PTY
}

// NewDependencies creates all dependencies with the given configuration and
// loads the highlight catalog. A catalog that cannot be read is logged and
// replaced by an empty one.
func NewDependencies(cfg *config.Config, configPath string, logger *slog.Logger) (*Dependencies, error) {
	if cfg == nil {
		return nil, fmt.Errorf("no configuration")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var st manager.Store
	if cfg.DataFile != "" {
		st = store.NewFile(cfg.DataFile)
	} else {
		logger.Warn("No data file configured, highlights will not be saved")
	}

	deps := &Dependencies{
		Config:     cfg,
		ConfigPath: configPath,
		Logger:     logger,
		Plugin:     plugin.New(cfg, st, logger),
		NewScreen:  tcell.NewScreen,
		NewPTY:     func() process.PTY { return process.NewPTYManager(logger) },
	}

	if err := deps.Plugin.Start(); err != nil {
		logger.Warn("Starting with an empty highlight catalog", "path", cfg.DataFile, "error", err)
	}
	return deps, nil
}

// Close saves the catalog
func (d *Dependencies) Close() error {
	return d.Plugin.Stop()
}

// Application represents the main application
type Application struct {
	deps   *Dependencies
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewApplication creates a new application with the given dependencies
func NewApplication(deps *Dependencies, stdin io.Reader, stdout, stderr io.Writer) *Application {
	return &Application{
		deps:   deps,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
}

// Run executes one command and returns the process exit code
func (a *Application) Run(ctx context.Context, command string, args []string) int {
	var err error
	switch command {
	case "view":
		err = a.view(ctx, args)
	case "cat":
		err = a.cat(args)
	case "run":
		return a.run(args)
	case "add":
		err = a.add(args)
	case "list":
		err = a.list()
	case "remove":
		err = a.eachIndex(args, a.deps.Plugin.Manager().RemoveRow)
	case "enable":
		err = a.eachIndex(args, func(i int) error { return a.deps.Plugin.Manager().SetRuleEnabled(i, true) })
	case "disable":
		err = a.eachIndex(args, func(i int) error { return a.deps.Plugin.Manager().SetRuleEnabled(i, false) })
	case "clear":
		a.deps.Plugin.RemoveAllHighlights()
	case "toggle":
		if a.deps.Plugin.ToggleHighlights() {
			fmt.Fprintln(a.stdout, "highlights enabled")
		} else {
			fmt.Fprintln(a.stdout, "highlights disabled")
		}
	case "export":
		err = a.export(args)
	case "import":
		err = a.importFile(args)
	case "config":
		err = a.config(args)
	default:
		err = fmt.Errorf("%w: unknown command %q", errUsage, command)
	}

	if err == nil {
		return 0
	}
	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	if errors.Is(err, errUsage) {
		return 2
	}
	return 1
}

func (a *Application) flagSet(name string) *flag.FlagSet {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(a.stderr)
	return flags
}

// parseFlags marks flag errors as usage errors
func parseFlags(flags *flag.FlagSet, args []string) error {
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	return nil
}

// view browses a file in the terminal viewer
func (a *Application) view(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: view FILE", errUsage)
	}
	buffer, err := term.LoadFile(args[0])
	if err != nil {
		return err
	}
	base := ansi.BackgroundFor(ansi.NewOutput(a.stdout))

	screen, err := a.deps.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer screen.Fini()

	viewer := term.NewViewer(screen, a.deps.Plugin, buffer, a.deps.Logger)
	viewer.SetBackground(base)

	if a.deps.ConfigPath != "" {
		stop, err := viewer.WatchPreferences(a.deps.ConfigPath)
		if err != nil {
			a.deps.Logger.Warn("Preferences will not be reloaded", "path", a.deps.ConfigPath, "error", err)
		} else {
			defer stop()
		}
	}

	return viewer.Run(ctx)
}

// transform returns the per-line rendering for output
func (a *Application) transform(html bool) func(string) string {
	if html {
		return a.deps.Plugin.Annotator().Annotate
	}
	output := ansi.NewOutput(a.stdout)
	renderer := ansi.NewRenderer(output, a.deps.Plugin.Manager(), painter.OptionsFromConfig(a.deps.Config), ansi.BackgroundFor(output))
	return renderer.Render
}

// cat prints files, or stdin, with highlights
func (a *Application) cat(args []string) error {
	flags := a.flagSet("cat")
	html := flags.Bool("html", false, "Write search-result HTML instead of escape sequences")
	if err := parseFlags(flags, args); err != nil {
		return err
	}

	w := ansi.NewLineWriter(a.stdout, a.transform(*html))
	if flags.NArg() == 0 {
		if _, err := io.Copy(w, a.stdin); err != nil {
			return err
		}
		return w.Flush()
	}

	for _, path := range flags.Args() {
		if err := a.catFile(w, path); err != nil {
			return err
		}
	}
	return nil
}

func (a *Application) catFile(w *ansi.LineWriter, path string) error {
	// #nosec G304 - The path is a file the user asked to print
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return w.Flush()
}

// run starts a command in a pty and highlights its output. The exit code is
// the command's.
func (a *Application) run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(a.stderr, "Error: usage: run COMMAND [ARGS...]")
		return 2
	}

	w := ansi.NewLineWriter(a.stdout, a.transform(false))
	runner := process.NewRunnerWithPTY(a.deps.NewPTY(), a.stdin, w, a.deps.Logger)
	if err := runner.Start(args[0], args[1:]); err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 127
	}

	if err := runner.Wait(); err != nil {
		var exitErr interface{ ExitCode() int }
		if !errors.As(err, &exitErr) {
			fmt.Fprintf(a.stderr, "Error running %s: %v\n", args[0], err)
		}
	}
	return runner.ExitCode()
}

// add creates one highlight from the command line
func (a *Application) add(args []string) error {
	flags := a.flagSet("add")
	regex := flags.BoolP("regex", "r", false, "Pattern is a regular expression")
	ignoreCase := flags.BoolP("ignore-case", "i", false, "Match case-insensitively")
	scopeName := flags.String("scope", types.ScopePermanent.String(), "permanent or session")
	colorName := flags.String("color", "", "Highlight color as #rrggbb (default: next palette color)")
	if err := parseFlags(flags, args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("%w: add [flags] PATTERN", errUsage)
	}

	scope, err := types.ParseScope(*scopeName)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if scope == types.ScopeBuffer {
		return fmt.Errorf("%w: buffer scope needs an open buffer", errUsage)
	}

	m := a.deps.Plugin.Manager()
	h, err := m.Create(flags.Arg(0), *regex, *ignoreCase, scope, "")
	if err != nil {
		return err
	}
	if *colorName != "" {
		c, err := types.ParseColor(*colorName)
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		h.SetColor(c)
	}
	return a.deps.Plugin.AddHighlight(h)
}

// list prints one record per highlight, prefixed with its index
func (a *Application) list() error {
	if !a.deps.Plugin.IsHighlightEnabled() {
		fmt.Fprintln(a.stdout, "# highlights disabled")
	}
	for i, h := range a.deps.Plugin.Manager().Snapshot() {
		fmt.Fprintf(a.stdout, "%d\t%s\n", i, h.Serialize())
	}
	return nil
}

// eachIndex applies fn to every index argument, highest first so that
// removals do not shift the indexes still to come
func (a *Application) eachIndex(args []string, fn func(int) error) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: INDEX...", errUsage)
	}
	indexes := make([]int, 0, len(args))
	for _, arg := range args {
		i, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("%w: invalid index %q", errUsage, arg)
		}
		indexes = append(indexes, i)
	}
	slices.Sort(indexes)
	indexes = slices.Compact(indexes)
	slices.Reverse(indexes)

	for _, i := range indexes {
		if err := fn(i); err != nil {
			return fmt.Errorf("highlight %d: %w", i, err)
		}
	}
	return nil
}

func (a *Application) export(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: export FILE", errUsage)
	}
	return a.deps.Plugin.ExportToFile(args[0])
}

func (a *Application) importFile(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: import FILE", errUsage)
	}
	n, err := a.deps.Plugin.ImportFromFile(args[0])
	fmt.Fprintf(a.stdout, "imported %d highlights\n", n)
	return err
}

// config prints the effective configuration and optionally saves it as the
// config file
func (a *Application) config(args []string) error {
	flags := a.flagSet("config")
	write := flags.Bool("write", false, "Save the effective configuration to the config file")
	if err := parseFlags(flags, args); err != nil {
		return err
	}

	if *write {
		if a.deps.ConfigPath == "" {
			return fmt.Errorf("no config file path")
		}
		if err := config.Save(a.deps.Config, a.deps.ConfigPath); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "wrote %s\n", a.deps.ConfigPath)
		return nil
	}

	data, err := yaml.Marshal(a.deps.Config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = a.stdout.Write(data)
	return err
}
