package executor

import (
	"context"

	"github.com/vk/krakengo/internal/core"
	"github.com/vk/krakengo/internal/graph"
	"github.com/vk/krakengo/internal/selector"
)

// Execute is the one-call pipeline for embedders: finalize the context,
// resolve the selectors (defaults when empty), build and trim the graph,
// and run it.
func Execute(ctx context.Context, build *core.Context, selectors []string, opts Options) (Results, error) {
	if err := build.Finalize(ctx); err != nil {
		return nil, err
	}
	goals, err := selector.Select(build, selectors)
	if err != nil {
		return nil, err
	}
	g, err := graph.Build(ctx, goals)
	if err != nil {
		return nil, err
	}
	return Run(ctx, build, g, opts)
}
