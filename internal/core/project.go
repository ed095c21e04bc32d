package core

import (
	"fmt"
	"strings"
)

// defaultGroups are created on every project at construction.
var defaultGroups = []string{"fmt", "lint", "build", "test"}

// Project is a directory-scoped namespace of tasks and child projects.
// Members of both kinds share a single name space.
type Project struct {
	name      string
	directory string
	parent    *Project
	context   *Context

	members map[string]any
	order   []string
}

func newProject(context *Context, name, directory string, parent *Project) (*Project, error) {
	if parent != nil {
		if name == "" {
			return nil, fmt.Errorf("project name must not be empty")
		}
		if strings.Contains(name, ":") {
			return nil, fmt.Errorf("project name %q must not contain colons", name)
		}
	}
	p := &Project{
		name:      name,
		directory: directory,
		parent:    parent,
		context:   context,
		members:   make(map[string]any),
	}
	for _, g := range defaultGroups {
		if _, err := p.Group(g); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Name returns the project's local name. The root project's name is empty.
func (p *Project) Name() string { return p.name }

// Directory returns the project's filesystem directory.
func (p *Project) Directory() string { return p.directory }

// SetDirectory updates the project's filesystem directory.
func (p *Project) SetDirectory(dir string) { p.directory = dir }

// Parent returns the parent project, or nil for the root.
func (p *Project) Parent() *Project { return p.parent }

// Context returns the owning build context.
func (p *Project) Context() *Context { return p.context }

// Path returns the colon-joined address of the project; the root's path is
// ":".
func (p *Project) Path() string {
	if p.parent == nil {
		return ":"
	}
	if p.parent.parent == nil {
		return ":" + p.name
	}
	return p.parent.Path() + ":" + p.name
}

func (p *Project) String() string { return fmt.Sprintf("Project(%s)", p.Path()) }

func (p *Project) addMember(name string, m any) error {
	if p.context.finalized {
		return ErrContextSealed
	}
	if name == "" {
		return fmt.Errorf("member name must not be empty")
	}
	if strings.Contains(name, ":") {
		return fmt.Errorf("member name %q must not contain colons", name)
	}
	if _, taken := p.members[name]; taken {
		return &NameCollisionError{Project: p.Path(), Name: name}
	}
	p.members[name] = m
	p.order = append(p.order, name)
	return nil
}

// NewTask creates a task of the given type and registers it.
func (p *Project) NewTask(name string, tt *TaskType) (*Task, error) {
	t := newTask(p, name, tt)
	if err := p.addMember(name, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Do is the factory shortcut: it instantiates the task, routes every given
// property value through Property.Set, and registers it.
func (p *Project) Do(name string, tt *TaskType, properties map[string]any) (*Task, error) {
	t, err := p.NewTask(name, tt)
	if err != nil {
		return nil, err
	}
	if err := t.SetProperties(properties); err != nil {
		return nil, err
	}
	return t, nil
}

// NewChild creates and registers a child project.
func (p *Project) NewChild(name, directory string) (*Project, error) {
	child, err := newProject(p.context, name, directory, p)
	if err != nil {
		return nil, err
	}
	if err := p.addMember(name, child); err != nil {
		return nil, err
	}
	return child, nil
}

// Group returns the named group task, creating it if necessary. A non-group
// member under the same name is a collision.
func (p *Project) Group(name string) (*Task, error) {
	if m, ok := p.members[name]; ok {
		if t, isTask := m.(*Task); isTask && t.group {
			return t, nil
		}
		return nil, &NameCollisionError{Project: p.Path(), Name: name}
	}
	g := newGroupTask(p, name)
	if err := p.addMember(name, g); err != nil {
		return nil, err
	}
	return g, nil
}

// Task returns the member task under name.
func (p *Project) Task(name string) (*Task, bool) {
	t, ok := p.members[name].(*Task)
	return t, ok
}

// Child returns the member project under name.
func (p *Project) Child(name string) (*Project, bool) {
	c, ok := p.members[name].(*Project)
	return c, ok
}

// Tasks returns the project's tasks, including groups, in insertion order.
func (p *Project) Tasks() []*Task {
	var out []*Task
	for _, name := range p.order {
		if t, ok := p.members[name].(*Task); ok {
			out = append(out, t)
		}
	}
	return out
}

// Children returns the project's child projects in insertion order.
func (p *Project) Children() []*Project {
	var out []*Project
	for _, name := range p.order {
		if c, ok := p.members[name].(*Project); ok {
			out = append(out, c)
		}
	}
	return out
}

// Resolve looks up a member by path. Paths are relative (`foo:bar`) or
// absolute (`:foo:bar`); the result is a *Project or a *Task.
func (p *Project) Resolve(path string) (any, error) {
	if path == ":" {
		return p.context.RootProject(), nil
	}
	current := p
	rest := path
	if strings.HasPrefix(path, ":") {
		current = p.context.RootProject()
		rest = path[1:]
	}
	if rest == "" {
		return current, nil
	}
	segments := strings.Split(rest, ":")
	for i, seg := range segments {
		if seg == "" {
			return nil, &UnknownPathError{Path: path}
		}
		m, ok := current.members[seg]
		if !ok {
			return nil, &UnknownPathError{Path: path}
		}
		if i == len(segments)-1 {
			return m, nil
		}
		next, isProject := m.(*Project)
		if !isProject {
			return nil, &UnknownPathError{Path: path}
		}
		current = next
	}
	return current, nil
}

// DefaultTasks returns the project's own tasks marked default.
func (p *Project) DefaultTasks() []*Task {
	var out []*Task
	for _, t := range p.Tasks() {
		if t.Default {
			out = append(out, t)
		}
	}
	return out
}
