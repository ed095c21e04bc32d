// Package cli parses the command line into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vk/krakengo/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("krakengo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
krakengo - a task-orchestration build system.

Usage:
  krakengo [options] [SELECTOR...]

Selectors:
  :            root project's default tasks
  :a:b:c       absolute task or project path
  a:b          path relative to the root project
  name         every task of that name, anywhere
  ^name        exclude matches from the selection

With no selectors, every task marked default runs.

Options:
`)
		flagSet.PrintDefaults()
	}

	manifestFlag := flagSet.String("manifest", "", "Path to the build manifest file or directory.")
	mFlag := flagSet.String("m", "", "Path to the build manifest (shorthand).")
	buildDirFlag := flagSet.String("build-dir", "", "Directory for build outputs.")
	configFlag := flagSet.String("config", "", "Path to an optional kraken.yaml config file.")
	keepGoingFlag := flagSet.Bool("keep-going", false, "Continue scheduling tasks whose dependencies did not fail.")
	workersFlag := flagSet.Int("j", 0, "Number of tasks to run concurrently.")
	verboseFlag := flagSet.Bool("v", false, "Verbose output; disables task output capture.")
	logFormatFlag := flagSet.String("log-format", "", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	cfg := app.Config{
		Manifest:  *manifestFlag,
		BuildDir:  *buildDirFlag,
		Selectors: flagSet.Args(),
		Workers:   *workersFlag,
		KeepGoing: *keepGoingFlag,
		Verbose:   *verboseFlag,
		LogFormat: strings.ToLower(*logFormatFlag),
		LogLevel:  strings.ToLower(*logLevelFlag),
	}
	if cfg.Manifest == "" {
		cfg.Manifest = *mFlag
	}

	// An explicit --config must exist; the conventional kraken.yaml is
	// merged only when present.
	configPath := *configFlag
	if configPath == "" {
		if _, err := os.Stat("kraken.yaml"); err == nil {
			configPath = "kraken.yaml"
		}
	}
	if configPath != "" {
		fc, err := app.LoadFileConfig(configPath)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		fc.Merge(&cfg)
	}

	if cfg.Manifest == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	validated, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return validated, false, nil
}
