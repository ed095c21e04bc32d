package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/vk/krakengo/internal/app"
	"github.com/vk/krakengo/internal/cli"
)

// main is the entrypoint for the krakengo application. Exit codes: 0 on
// success, 1 on task failure, 2 on configuration or selection errors.
func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		if errors.Is(err, app.ErrBuildFailed) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling.
func run(outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// Interrupts stop scheduling new tasks and let in-flight tasks drain.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return app.NewApp(outW, appConfig).Run(ctx)
}
