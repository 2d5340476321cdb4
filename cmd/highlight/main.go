package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/Veraticus/highlight/pkg/config"
	"github.com/Veraticus/highlight/pkg/logging"
)

// LogFileEnv names the file the interactive viewer logs to
const LogFileEnv = "HIGHLIGHT_LOG"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		configPath string
		dataFile   string
		debug      bool
		help       bool
	)

	// Flags end at the command name so that `run` passes its arguments through
	flags := flag.NewFlagSet("highlight", flag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.StringVar(&configPath, "config", "", "Path to config file")
	flags.StringVar(&dataFile, "data", "", "Path to the highlight catalog")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")
	flags.BoolVarP(&help, "help", "h", false, "Show help message")
	flags.Usage = func() { printUsage(os.Stderr, flags) }

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	rest := flags.Args()
	if help {
		printUsage(os.Stdout, flags)
		return 0
	}
	if len(rest) == 0 {
		printUsage(os.Stderr, flags)
		return 2
	}

	if configPath == "" {
		configPath = config.Path()
	}
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}
	if dataFile != "" {
		cfg.DataFile = dataFile
	}

	logger, closeLog, err := newLogger(rest[0], debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
		return 1
	}
	defer func() { _ = closeLog() }()

	deps, err := NewDependencies(cfg, configPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating dependencies: %v\n", err)
		return 1
	}

	app := NewApplication(deps, os.Stdin, os.Stdout, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("Running command", "command", rest[0], "args", rest[1:], "config", configPath, "data", cfg.DataFile)
	code := app.Run(ctx, rest[0], rest[1:])

	if err := deps.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if code == 0 {
			code = 1
		}
	}
	return code
}

// newLogger logs to stderr, except for the viewer which owns the terminal and
// logs to HIGHLIGHT_LOG or nowhere
func newLogger(command string, debug bool) (*slog.Logger, func() error, error) {
	if command != "view" {
		return logging.Setup(os.Stderr, debug), func() error { return nil }, nil
	}
	return logging.OpenFile(os.Getenv(LogFileEnv), debug)
}

func printUsage(w io.Writer, flags *flag.FlagSet) {
	fmt.Fprintln(w, "highlight - persistent text highlighting for files, pipes and commands")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: highlight [OPTIONS] COMMAND [ARGS...]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  view FILE                 Browse FILE with highlights")
	fmt.Fprintln(w, "  cat [--html] [FILE...]    Print files or stdin with highlights")
	fmt.Fprintln(w, "  run COMMAND [ARGS...]     Run COMMAND in a pty, highlighting its output")
	fmt.Fprintln(w, "  add [-r] [-i] [--scope S] [--color C] PATTERN")
	fmt.Fprintln(w, "                            Add a highlight")
	fmt.Fprintln(w, "  list                      List highlights")
	fmt.Fprintln(w, "  remove INDEX...           Remove highlights")
	fmt.Fprintln(w, "  enable INDEX...           Enable highlights")
	fmt.Fprintln(w, "  disable INDEX...          Disable highlights")
	fmt.Fprintln(w, "  clear                     Remove all highlights")
	fmt.Fprintln(w, "  toggle                    Turn highlighting on or off")
	fmt.Fprintln(w, "  export FILE               Write highlights to FILE")
	fmt.Fprintln(w, "  import FILE               Add highlights from FILE")
	fmt.Fprintln(w, "  config [--write]          Print the effective configuration")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprint(w, flags.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment Variables:")
	fmt.Fprintln(w, "  HIGHLIGHT_CONFIG          Path to config file")
	fmt.Fprintln(w, "  HIGHLIGHT_DATA            Path to the highlight catalog")
	fmt.Fprintln(w, "  HIGHLIGHT_ALPHA           Fill opacity, 0-100")
	fmt.Fprintln(w, "  HIGHLIGHT_DEBUG           Enable debug logging (1)")
	fmt.Fprintln(w, "  HIGHLIGHT_LOG             Log file for the viewer")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration file: ~/.config/highlight/config.yaml")
}
