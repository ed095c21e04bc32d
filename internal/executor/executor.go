package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/vk/krakengo/internal/core"
	"github.com/vk/krakengo/internal/ctxlog"
	"github.com/vk/krakengo/internal/graph"
)

// Options configures a run.
type Options struct {
	// Workers is the number of tasks executed concurrently. Values below
	// one run the graph sequentially.
	Workers int
	// KeepGoing continues scheduling tasks whose strict predecessors are
	// all non-failed after a failure; the default halts instead.
	KeepGoing bool
	// Verbose disables output capture for capturing tasks.
	Verbose bool
	// Stdout and Stderr are the writers handed to non-capturing tasks.
	// They default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Result is the recorded outcome of one task.
type Result struct {
	Status   core.Status
	Err      error
	Output   string
	Duration time.Duration
}

// Results maps task paths to their outcome.
type Results map[string]Result

// OK reports whether no task failed.
func (r Results) OK() bool {
	for _, res := range r {
		if res.Status.IsFailed() {
			return false
		}
	}
	return true
}

// Failed returns the paths of failed tasks, sorted.
func (r Results) Failed() []string {
	var out []string
	for path, res := range r {
		if res.Status.IsFailed() {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// Paths returns all recorded task paths, sorted.
func (r Results) Paths() []string {
	out := make([]string, 0, len(r))
	for path := range r {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

type completion struct {
	task *core.Task
	res  Result
}

// Run executes the graph. Task failures are recorded in the results, not
// returned as an error; the returned error reports cancellation or misuse
// of the graph.
func Run(ctx context.Context, build *core.Context, g *graph.Graph, opts Options) (Results, error) {
	logger := ctxlog.FromContext(ctx)
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	results := make(Results, g.Len())
	inflight := make(map[string]bool)
	done := make(chan completion)
	running := 0
	halted := false

	logger.Debug("Executor starting.", "tasks", g.Len(), "workers", workers, "keep_going", opts.KeepGoing)

	for {
		if !halted && ctx.Err() == nil {
			for _, t := range g.Ready() {
				if running >= workers {
					break
				}
				if inflight[t.Path()] {
					continue
				}
				inflight[t.Path()] = true
				running++
				go func(t *core.Task) {
					done <- completion{task: t, res: runTask(ctx, build, t, opts)}
				}(t)
			}
		}
		if running == 0 {
			break
		}

		c := <-done
		running--
		delete(inflight, c.task.Path())

		if err := g.SetStatus(c.task, c.res.Status); err != nil {
			return results, err
		}
		results[c.task.Path()] = c.res
		logger.Debug("Task settled.", "task", c.task.Path(), "status", c.res.Status.String())

		if c.res.Status.IsFailed() {
			skipDependents(ctx, g, c.task, c.task, results)
			if !opts.KeepGoing {
				halted = true
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return results, err
	}
	logger.Debug("Executor finished.", "settled", len(results))
	return results, nil
}

// skipDependents transitively settles every strict dependent of a failed
// task as skipped, annotated with the upstream that caused the skip.
func skipDependents(ctx context.Context, g *graph.Graph, failed, cause *core.Task, results Results) {
	logger := ctxlog.FromContext(ctx)
	for _, dep := range g.Successors(failed) {
		edge, ok := g.EdgeBetween(failed, dep)
		if !ok || !edge.Strict {
			continue
		}
		if _, settled := g.Status(dep); settled {
			continue
		}
		status := core.Skipped("upstream failed: " + cause.Path())
		if err := g.SetStatus(dep, status); err != nil {
			continue
		}
		logger.Warn("Skipping task due to upstream failure.", "task", dep.Path(), "upstream", cause.Path())
		results[dep.Path()] = Result{Status: status}
		skipDependents(ctx, g, dep, cause, results)
	}
}

// runTask executes a single task and converts every outcome, including
// panics, into a Result.
func runTask(ctx context.Context, build *core.Context, t *core.Task, opts Options) (res Result) {
	logger := ctxlog.FromContext(ctx).With("task", t.Path())
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			res.Status = core.Failedf("panic: %v", r)
			res.Err = &core.TaskError{TaskPath: t.Path(), Err: err}
		}
	}()

	if st, settled := t.Prepare(); settled {
		return Result{Status: st}
	}

	stdout, stderr := opts.Stdout, opts.Stderr
	var buf *bytes.Buffer
	if t.Capture && !opts.Verbose {
		buf = &bytes.Buffer{}
		stdout, stderr = buf, buf
	}

	logger.Info("Executing task.")
	st, err := t.Execute(&core.ExecContext{
		Ctx:    ctx,
		Build:  build,
		Task:   t,
		Stdout: stdout,
		Stderr: stderr,
		Log:    logger,
	})
	if err != nil {
		res.Status = core.Failed(err.Error())
		res.Err = &core.TaskError{TaskPath: t.Path(), Err: err}
	} else if !st.IsTerminal() {
		res.Status = core.Succeeded()
	} else {
		res.Status = st
	}
	if buf != nil {
		res.Output = buf.String()
	}
	return res
}
