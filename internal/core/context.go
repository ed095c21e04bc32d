package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vk/krakengo/internal/ctxlog"
)

// Context is the root object of one build invocation. It owns the project
// tree, the build directory, and the metadata store, and it orchestrates
// finalization.
type Context struct {
	id             uuid.UUID
	BuildDirectory string

	root      *Project
	metadata  *MetadataStore
	finalized bool
}

// New creates a context for a single invocation.
func New(buildDirectory string) *Context {
	return &Context{
		id:             uuid.New(),
		BuildDirectory: buildDirectory,
		metadata:       &MetadataStore{entries: make(map[any]any)},
	}
}

// ID returns the invocation's unique identifier.
func (c *Context) ID() uuid.UUID { return c.id }

// Metadata returns the invocation's metadata store.
func (c *Context) Metadata() *MetadataStore { return c.metadata }

// Sealed reports whether Finalize has completed.
func (c *Context) Sealed() bool { return c.finalized }

// RootProject returns the root project, creating it on first access.
func (c *Context) RootProject() *Project {
	if c.root == nil {
		root, err := newProject(c, "", ".", nil)
		if err != nil {
			panic(fmt.Sprintf("creating root project: %v", err))
		}
		c.root = root
	}
	return c.root
}

// Projects returns all projects depth-first, root first.
func (c *Context) Projects() []*Project {
	var out []*Project
	var walk func(p *Project)
	walk = func(p *Project) {
		out = append(out, p)
		for _, child := range p.Children() {
			walk(child)
		}
	}
	walk(c.RootProject())
	return out
}

// Tasks returns every task in the project tree, including groups.
func (c *Context) Tasks() []*Task {
	var out []*Task
	for _, p := range c.Projects() {
		out = append(out, p.Tasks()...)
	}
	return out
}

// DefaultTasks returns every task marked default across all projects.
func (c *Context) DefaultTasks() []*Task {
	var out []*Task
	for _, p := range c.Projects() {
		out = append(out, p.DefaultTasks()...)
	}
	return out
}

// Finalize walks all projects depth-first and finalizes every task exactly
// once, then seals the context: adding or removing members afterwards fails
// with ErrContextSealed. Calling Finalize again is a no-op.
func (c *Context) Finalize(ctx context.Context) error {
	if c.finalized {
		return nil
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Finalizing context.", "invocation", c.id.String())
	for _, p := range c.Projects() {
		for _, t := range p.Tasks() {
			if err := t.Finalize(); err != nil {
				return err
			}
		}
	}
	c.finalized = true
	logger.Debug("Context sealed.")
	return nil
}

// ResolveTasks resolves selector strings to tasks relative to the given
// project (the root when nil). A bare name matches every task of that name
// anywhere in the tree; a path resolving to a project yields that project's
// default tasks. A selector matching nothing is an error.
func (c *Context) ResolveTasks(selectors []string, relativeTo *Project) ([]*Task, error) {
	if relativeTo == nil {
		relativeTo = c.RootProject()
	}

	var tasks []*Task
	seen := make(map[*Task]bool)
	add := func(t *Task) bool {
		if seen[t] {
			return false
		}
		seen[t] = true
		tasks = append(tasks, t)
		return true
	}

	for _, sel := range selectors {
		matched := false

		if !strings.Contains(sel, ":") {
			// A bare name matches all tasks of that name anywhere.
			for _, t := range c.Tasks() {
				if t.name == sel {
					add(t)
					matched = true
				}
			}
			if !matched {
				return nil, &UnknownTaskError{Selector: sel}
			}
			continue
		}

		m, err := relativeTo.Resolve(sel)
		if err != nil {
			return nil, &UnknownTaskError{Selector: sel}
		}
		switch target := m.(type) {
		case *Task:
			add(target)
			matched = true
		case *Project:
			for _, t := range target.DefaultTasks() {
				add(t)
				matched = true
			}
		}
		if !matched {
			return nil, &UnknownTaskError{Selector: sel}
		}
	}

	return tasks, nil
}

// MetadataStore maps opaque caller-chosen keys to user objects. It is
// written during script loading and read during execution; concurrent
// writes during execution are not supported.
type MetadataStore struct {
	entries map[any]any
}

// Put stores a value under key.
func (m *MetadataStore) Put(key, value any) {
	m.entries[key] = value
}

// Get returns the value stored under key.
func (m *MetadataStore) Get(key any) (any, bool) {
	v, ok := m.entries[key]
	return v, ok
}
