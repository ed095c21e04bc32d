package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// TaskType bundles the schema and behavior of a task kind. Task types are
// registered once and instantiated per task.
type TaskType struct {
	Name        string
	Description string
	Schema      *Schema
	New         func() Action
}

// ExecContext is handed to a task's action while it executes.
type ExecContext struct {
	Ctx    context.Context
	Build  *Context
	Task   *Task
	Stdout io.Writer
	Stderr io.Writer
	Log    *slog.Logger
}

// Action implements the work of a task. The returned status must not be
// StatusStarted; returning the zero Status with a nil error counts as
// Succeeded.
type Action interface {
	Execute(ec *ExecContext) (Status, error)
}

// Preparer is an optional Action extension. Prepare runs before execution
// and may settle the task without running it, e.g. as Skipped or UpToDate.
type Preparer interface {
	Prepare(t *Task) (Status, bool)
}

// Finalizer is an optional Action extension invoked exactly once by
// Context.Finalize. It may still mutate properties and add relationships.
type Finalizer interface {
	Finalize(t *Task) error
}

// relationship is a pending, possibly unresolved relationship declaration.
type relationship struct {
	target   *Task
	selector string
	strict   bool
}

// Relationship is a resolved relationship of a task. Implicit marks edges
// inferred from property data flow or group membership rather than declared
// explicitly.
type Relationship struct {
	Target   *Task
	Strict   bool
	Implicit bool
}

// Task is a named unit of work owning typed properties and declaring
// relationships to other tasks.
type Task struct {
	name     string
	project  *Project
	taskType *TaskType
	action   Action

	// Default includes the task when no explicit selection is given.
	Default bool
	// Capture buffers the task's stdout/stderr during execution.
	Capture bool
	// Description is an optional human-readable summary.
	Description string

	group   bool
	members []*Task

	props     map[string]*Property
	propOrder []string

	rels      []relationship
	finalized bool
	executing bool
}

func newTask(project *Project, name string, tt *TaskType) *Task {
	t := &Task{
		name:     name,
		project:  project,
		taskType: tt,
		props:    make(map[string]*Property),
	}
	if tt != nil {
		t.Description = tt.Description
		if tt.New != nil {
			t.action = tt.New()
		}
		if tt.Schema != nil {
			for _, e := range tt.Schema.Entries() {
				p := newProperty(t, e.Name, e.Kind, e.Type)
				t.props[e.Name] = p
				t.propOrder = append(t.propOrder, e.Name)
				if e.HasDefault {
					if err := p.SetDefault(e.Default); err != nil {
						panic(fmt.Sprintf("task type %q: bad default for property %q: %v", tt.Name, e.Name, err))
					}
				}
			}
		}
	}
	return t
}

func newGroupTask(project *Project, name string) *Task {
	t := newTask(project, name, nil)
	t.group = true
	return t
}

// Name returns the task's local name.
func (t *Task) Name() string { return t.name }

// Project returns the owning project.
func (t *Task) Project() *Project { return t.project }

// Type returns the task's type, or nil for group tasks.
func (t *Task) Type() *TaskType { return t.taskType }

// Path returns the colon-joined address of the task from the root project.
func (t *Task) Path() string {
	pp := t.project.Path()
	if pp == ":" {
		return ":" + t.name
	}
	return pp + ":" + t.name
}

func (t *Task) String() string { return t.Path() }

// IsGroup reports whether the task is a structural group.
func (t *Task) IsGroup() bool { return t.group }

// Members returns the tasks grouped under a group task.
func (t *Task) Members() []*Task { return t.members }

// Add appends members to a group task, ignoring duplicates.
func (t *Task) Add(members ...*Task) {
	if !t.group {
		panic(fmt.Sprintf("task %s is not a group", t.Path()))
	}
	for _, m := range members {
		dup := false
		for _, have := range t.members {
			if have == m {
				dup = true
				break
			}
		}
		if !dup {
			t.members = append(t.members, m)
		}
	}
}

// Property returns the property declared under name, or nil.
func (t *Task) Property(name string) *Property { return t.props[name] }

// Properties returns all properties in declaration order.
func (t *Task) Properties() []*Property {
	out := make([]*Property, 0, len(t.propOrder))
	for _, name := range t.propOrder {
		out = append(out, t.props[name])
	}
	return out
}

// Outputs returns the task's output properties in declaration order.
func (t *Task) Outputs() []*Property {
	var out []*Property
	for _, p := range t.Properties() {
		if p.kind == Output {
			out = append(out, p)
		}
	}
	return out
}

// SetProperties routes each named value through Property.Set. Unknown names
// are an error.
func (t *Task) SetProperties(values map[string]any) error {
	for name, raw := range values {
		p := t.props[name]
		if p == nil {
			return fmt.Errorf("task %s has no property %q", t.Path(), name)
		}
		if err := p.Set(raw); err != nil {
			return err
		}
	}
	return nil
}

// AddRelationship records a relationship to another task.
func (t *Task) AddRelationship(target *Task, strict bool) {
	t.rels = append(t.rels, relationship{target: target, strict: strict})
}

// AddRelationshipSelector records a relationship to a selector string that
// is resolved against the surrounding project when the graph is built.
func (t *Task) AddRelationshipSelector(selector string, strict bool) {
	t.rels = append(t.rels, relationship{selector: selector, strict: strict})
}

// DependsOn adds strict relationships to the given tasks.
func (t *Task) DependsOn(targets ...*Task) {
	for _, target := range targets {
		t.AddRelationship(target, true)
	}
}

// RequiredBy adds the symmetric inverse: each given task gains a strict
// relationship to this one.
func (t *Task) RequiredBy(dependents ...*Task) {
	for _, d := range dependents {
		d.AddRelationship(t, true)
	}
}

// Relationships resolves and returns the task's relationships: strict edges
// inferred from every property's upstream data flow, group membership edges,
// and the explicitly declared ones. Duplicates collapse keeping the
// strictest edge, and an explicit declaration wins over an inferred or
// string-resolved one targeting the same task.
func (t *Task) Relationships() ([]Relationship, error) {
	var order []*Task
	byTarget := make(map[*Task]*Relationship)

	merge := func(r Relationship) {
		have, ok := byTarget[r.Target]
		if !ok {
			order = append(order, r.Target)
			byTarget[r.Target] = &r
			return
		}
		have.Strict = have.Strict || r.Strict
		have.Implicit = have.Implicit && r.Implicit
	}

	// Data-flow edges: any property deriving from another task's property
	// implies a strict dependency on that task.
	for _, name := range t.propOrder {
		for _, up := range t.props[name].Upstream() {
			if up.owner != nil && up.owner != t {
				merge(Relationship{Target: up.owner, Strict: true, Implicit: true})
			}
		}
	}

	// Group membership edges.
	for _, m := range t.members {
		merge(Relationship{Target: m, Strict: true, Implicit: true})
	}

	// Declared edges, resolving selector strings against the surrounding
	// project.
	for _, rel := range t.rels {
		if rel.target != nil {
			merge(Relationship{Target: rel.target, Strict: rel.strict})
			continue
		}
		resolved, err := t.project.context.ResolveTasks([]string{rel.selector}, t.project)
		if err != nil {
			return nil, fmt.Errorf("in task %s: %w", t.Path(), err)
		}
		for _, target := range resolved {
			if target == t {
				continue
			}
			merge(Relationship{Target: target, Strict: rel.strict})
		}
	}

	out := make([]Relationship, 0, len(order))
	for _, target := range order {
		out = append(out, *byTarget[target])
	}
	return out, nil
}

// Finalize runs the action's finalizer once and freezes the task's shape.
func (t *Task) Finalize() error {
	if t.finalized {
		return nil
	}
	if f, ok := t.action.(Finalizer); ok {
		if err := f.Finalize(t); err != nil {
			return fmt.Errorf("finalizing task %s: %w", t.Path(), err)
		}
	}
	t.finalized = true
	return nil
}

// Finalized reports whether the task has been finalized.
func (t *Task) Finalized() bool { return t.finalized }

// Prepare gives the action a chance to settle the task without executing.
func (t *Task) Prepare() (Status, bool) {
	if p, ok := t.action.(Preparer); ok {
		return p.Prepare(t)
	}
	return Status{}, false
}

// Execute runs the task's action. Output properties are writable only for
// the duration of this call.
func (t *Task) Execute(ec *ExecContext) (Status, error) {
	if t.group {
		return Failed("group task cannot be executed"), fmt.Errorf("group task %s cannot be executed", t.Path())
	}
	if t.action == nil {
		return SucceededNoop("no action"), nil
	}
	t.executing = true
	defer func() { t.executing = false }()
	return t.action.Execute(ec)
}
