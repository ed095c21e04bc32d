// Package app wires one invocation together: logger, registry, manifest
// loading, finalization, selection, graph construction, execution, and the
// final summary.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vk/krakengo/internal/core"
	"github.com/vk/krakengo/internal/ctxlog"
	"github.com/vk/krakengo/internal/executor"
	"github.com/vk/krakengo/internal/graph"
	"github.com/vk/krakengo/internal/manifest"
	"github.com/vk/krakengo/internal/registry"
	"github.com/vk/krakengo/internal/selector"
	"github.com/vk/krakengo/internal/tasks"
)

// ErrBuildFailed is returned from Run when at least one task failed. The
// per-task detail is in the printed summary.
var ErrBuildFailed = errors.New("build failed")

// App is one configured invocation.
type App struct {
	out io.Writer
	cfg *Config
}

// NewApp creates an application writing human-facing output to outW.
func NewApp(outW io.Writer, cfg *Config) *App {
	return &App{out: outW, cfg: cfg}
}

// Run loads the manifest, finalizes the context, builds the graph for the
// configured selectors, executes it, and prints the summary.
func (a *App) Run(ctx context.Context) error {
	logger := newLogger(a.cfg.LogLevel, a.cfg.LogFormat, a.out)
	ctx = ctxlog.WithLogger(ctx, logger)

	reg := registry.New()
	tasks.RegisterAll(reg)

	build := core.New(a.cfg.BuildDir)
	ctx = ctxlog.With(ctx, "invocation", build.ID().String())

	if err := manifest.Load(ctx, build, reg, a.cfg.Manifest); err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}
	if err := build.Finalize(ctx); err != nil {
		return err
	}

	goals, err := selector.Select(build, a.cfg.Selectors)
	if err != nil {
		return err
	}

	g, err := graph.Build(ctx, goals)
	if err != nil {
		return err
	}

	results, err := executor.Run(ctx, build, g, executor.Options{
		Workers:   a.cfg.Workers,
		KeepGoing: a.cfg.KeepGoing,
		Verbose:   a.cfg.Verbose,
	})
	if err != nil {
		return err
	}

	a.printSummary(build, g, results)
	if !results.OK() {
		return ErrBuildFailed
	}
	return nil
}
