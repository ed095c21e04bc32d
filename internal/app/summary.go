package app

import (
	"fmt"
	"time"

	"github.com/vk/krakengo/internal/core"
	"github.com/vk/krakengo/internal/executor"
	"github.com/vk/krakengo/internal/graph"
)

// printSummary writes the per-task outcome list, in execution order, and a
// closing line for failed tasks with their root cause.
func (a *App) printSummary(build *core.Context, g *graph.Graph, results executor.Results) {
	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "Build summary (invocation %s)\n", build.ID())
	fmt.Fprintln(a.out)

	for _, t := range g.ExecutionOrder() {
		res, ok := results[t.Path()]
		if !ok {
			continue
		}
		line := fmt.Sprintf("> %s %s", t.Path(), res.Status)
		if res.Duration > 0 {
			line += fmt.Sprintf(" [%s]", res.Duration.Round(time.Microsecond))
		}
		fmt.Fprintln(a.out, line)
		if res.Status.IsFailed() && res.Output != "" {
			fmt.Fprintln(a.out, res.Output)
		}
	}

	if failed := results.Failed(); len(failed) > 0 {
		fmt.Fprintln(a.out)
		for _, path := range failed {
			res := results[path]
			cause := res.Status.Message
			if res.Err != nil {
				cause = res.Err.Error()
			}
			fmt.Fprintf(a.out, "task %s failed: %s\n", path, cause)
		}
	}
}
