package graph

import (
	"context"
	"fmt"

	"github.com/vk/krakengo/internal/core"
	"github.com/vk/krakengo/internal/ctxlog"
)

// Edge labels a dependency between two tasks. Implicit edges were inferred
// from property data flow or group structure.
type Edge struct {
	Strict   bool
	Implicit bool
}

type node struct {
	task  *core.Task
	preds map[string]*Edge
	succs map[string]*Edge
}

// Graph is the materialized DAG for one selection. Nodes are tasks keyed by
// path; the mutable status map is owned by the executor driving the graph.
type Graph struct {
	nodes   map[string]*node
	order   []string
	results map[string]core.Status
}

// Build constructs, trims, and validates the graph for the given goal tasks.
func Build(ctx context.Context, goals []*core.Task) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	g := &Graph{
		nodes:   make(map[string]*node),
		results: make(map[string]core.Status),
	}

	for _, goal := range goals {
		if err := g.addTask(goal); err != nil {
			return nil, err
		}
	}
	logger.Debug("Graph populated.", "nodes", len(g.nodes))

	required := g.requiredSet(goals)

	// Groups are structural: promote their dependencies onto their
	// dependents, then drop them.
	for _, path := range append([]string(nil), g.order...) {
		if n, ok := g.nodes[path]; ok && n.task.IsGroup() {
			g.removeKeepTransitive(path)
		}
	}

	// Drop everything that is not strictly required by the selection.
	for _, path := range append([]string(nil), g.order...) {
		if _, ok := g.nodes[path]; ok && !required[path] {
			g.removeKeepTransitive(path)
		}
	}
	logger.Debug("Graph trimmed.", "nodes", len(g.nodes))

	if err := g.detectCycle(); err != nil {
		return nil, err
	}
	return g, nil
}

// addTask inserts the task and, recursively, every relationship target.
func (g *Graph) addTask(t *core.Task) error {
	path := t.Path()
	if _, ok := g.nodes[path]; ok {
		return nil
	}
	g.nodes[path] = &node{
		task:  t,
		preds: make(map[string]*Edge),
		succs: make(map[string]*Edge),
	}
	g.order = append(g.order, path)

	rels, err := t.Relationships()
	if err != nil {
		return err
	}
	for _, rel := range rels {
		if err := g.addTask(rel.Target); err != nil {
			return err
		}
		g.addEdge(rel.Target.Path(), path, rel.Strict, rel.Implicit)

		// A group depending on another group orders every member of the
		// downstream group after the upstream group.
		if t.IsGroup() && rel.Target.IsGroup() {
			for _, member := range t.Members() {
				if err := g.addTask(member); err != nil {
					return err
				}
				g.addEdge(rel.Target.Path(), member.Path(), rel.Strict, true)
			}
		}
	}
	return nil
}

// addEdge records pred -> succ; duplicates merge keeping the strictest.
func (g *Graph) addEdge(pred, succ string, strict, implicit bool) {
	if pred == succ {
		return
	}
	pn, sn := g.nodes[pred], g.nodes[succ]
	if e := sn.preds[pred]; e != nil {
		e.Strict = e.Strict || strict
		e.Implicit = e.Implicit && implicit
		return
	}
	e := &Edge{Strict: strict, Implicit: implicit}
	sn.preds[pred] = e
	pn.succs[succ] = e
}

// requiredSet returns the paths transitively strictly required by the goals.
func (g *Graph) requiredSet(goals []*core.Task) map[string]bool {
	required := make(map[string]bool)
	var visit func(path string)
	visit = func(path string) {
		if required[path] {
			return
		}
		required[path] = true
		for pred, e := range g.nodes[path].preds {
			if e.Strict {
				visit(pred)
			}
		}
	}
	for _, goal := range goals {
		if _, ok := g.nodes[goal.Path()]; ok {
			visit(goal.Path())
		}
	}
	// Members of a required group are required through the group's strict
	// member edges; the group itself stays only until trimming.
	return required
}

// removeKeepTransitive removes a node, bridging each predecessor to each
// successor so ordering constraints survive the removal.
func (g *Graph) removeKeepTransitive(path string) {
	n := g.nodes[path]
	for pred, in := range n.preds {
		for succ, out := range n.succs {
			g.addEdge(pred, succ, in.Strict || out.Strict, in.Implicit && out.Implicit)
		}
	}
	for pred := range n.preds {
		delete(g.nodes[pred].succs, path)
	}
	for succ := range n.succs {
		delete(g.nodes[succ].preds, path)
	}
	delete(g.nodes, path)
	for i, p := range g.order {
		if p == path {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// detectCycle runs a three-color depth-first search and reports the first
// cycle found, listing the participating task paths.
func (g *Graph) detectCycle() error {
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)
	var stack []string

	var visit func(path string) error
	visit = func(path string) error {
		if permanent[path] {
			return nil
		}
		if temporary[path] {
			// Unwind the stack back to the first occurrence of path.
			cycle := []string{path}
			for i := len(stack) - 1; i >= 0 && stack[i] != path; i-- {
				cycle = append([]string{stack[i]}, cycle...)
			}
			cycle = append([]string{path}, cycle...)
			return &core.CycleError{Paths: cycle}
		}
		temporary[path] = true
		stack = append(stack, path)
		for succ := range g.nodes[path].succs {
			if err := visit(succ); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		delete(temporary, path)
		permanent[path] = true
		return nil
	}

	for _, path := range g.order {
		if !permanent[path] {
			if err := visit(path); err != nil {
				return err
			}
		}
	}
	return nil
}

// Len returns the number of tasks in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// Contains reports whether the task is part of the graph.
func (g *Graph) Contains(t *core.Task) bool {
	_, ok := g.nodes[t.Path()]
	return ok
}

// Tasks returns the graph's tasks in insertion order.
func (g *Graph) Tasks() []*core.Task {
	out := make([]*core.Task, 0, len(g.order))
	for _, path := range g.order {
		out = append(out, g.nodes[path].task)
	}
	return out
}

// Task returns the graph's task under the given path.
func (g *Graph) Task(path string) (*core.Task, bool) {
	n, ok := g.nodes[path]
	if !ok {
		return nil, false
	}
	return n.task, true
}

// Predecessors returns the direct predecessors of the task in insertion
// order.
func (g *Graph) Predecessors(t *core.Task) []*core.Task {
	return g.neighbors(t, true, false)
}

// StrictPredecessors returns the direct strict predecessors of the task.
func (g *Graph) StrictPredecessors(t *core.Task) []*core.Task {
	return g.neighbors(t, true, true)
}

// Successors returns the direct successors of the task in insertion order.
func (g *Graph) Successors(t *core.Task) []*core.Task {
	return g.neighbors(t, false, false)
}

func (g *Graph) neighbors(t *core.Task, preds, strictOnly bool) []*core.Task {
	n, ok := g.nodes[t.Path()]
	if !ok {
		return nil
	}
	edges := n.succs
	if preds {
		edges = n.preds
	}
	var out []*core.Task
	for _, path := range g.order {
		e, ok := edges[path]
		if !ok || (strictOnly && !e.Strict) {
			continue
		}
		out = append(out, g.nodes[path].task)
	}
	return out
}

// EdgeBetween returns the edge from pred to succ.
func (g *Graph) EdgeBetween(pred, succ *core.Task) (Edge, bool) {
	n, ok := g.nodes[succ.Path()]
	if !ok {
		return Edge{}, false
	}
	e, ok := n.preds[pred.Path()]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// Ready returns the tasks whose predecessors are all settled and that have
// no result yet. A failed strict predecessor keeps the dependent out of the
// ready set; the executor skips it instead.
func (g *Graph) Ready() []*core.Task {
	var out []*core.Task
	for _, path := range g.order {
		n := g.nodes[path]
		if _, done := g.results[path]; done {
			continue
		}
		ready := true
		for pred, e := range n.preds {
			st, ok := g.results[pred]
			if !ok || !st.IsTerminal() {
				ready = false
				break
			}
			if e.Strict && !st.Satisfies() {
				ready = false
				break
			}
		}
		if ready {
			out = append(out, n.task)
		}
	}
	return out
}

// SetStatus records a task's result. A terminal result can only be set once.
func (g *Graph) SetStatus(t *core.Task, status core.Status) error {
	path := t.Path()
	if _, ok := g.nodes[path]; !ok {
		return fmt.Errorf("task %s is not part of the graph", path)
	}
	if have, ok := g.results[path]; ok && have.IsTerminal() {
		return fmt.Errorf("task %s already has status %s", path, have)
	}
	g.results[path] = status
	return nil
}

// Status returns the task's recorded result.
func (g *Graph) Status(t *core.Task) (core.Status, bool) {
	st, ok := g.results[t.Path()]
	return st, ok
}

// Results returns a copy of the recorded results keyed by task path.
func (g *Graph) Results() map[string]core.Status {
	out := make(map[string]core.Status, len(g.results))
	for path, st := range g.results {
		out[path] = st
	}
	return out
}

// IsComplete reports whether every task has a terminal, non-failed result.
func (g *Graph) IsComplete() bool {
	for _, path := range g.order {
		st, ok := g.results[path]
		if !ok || !st.Satisfies() {
			return false
		}
	}
	return true
}

// ExecutionOrder returns the tasks in a valid topological order.
func (g *Graph) ExecutionOrder() []*core.Task {
	indegree := make(map[string]int, len(g.nodes))
	for _, path := range g.order {
		indegree[path] = len(g.nodes[path].preds)
	}
	queue := make([]string, 0, len(g.order))
	for _, path := range g.order {
		if indegree[path] == 0 {
			queue = append(queue, path)
		}
	}
	var out []*core.Task
	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		out = append(out, g.nodes[path].task)
		for _, succ := range g.order {
			if _, ok := g.nodes[path].succs[succ]; ok {
				indegree[succ]--
				if indegree[succ] == 0 {
					queue = append(queue, succ)
				}
			}
		}
	}
	return out
}
