// Package registry maps task type names to their schema and factory. The
// manifest loader and embedders instantiate tasks through it.
package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/krakengo/internal/core"
)

// Registry holds the task types known to a single application instance.
type Registry struct {
	types map[string]*core.TaskType
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{types: make(map[string]*core.TaskType)}
}

// Register adds a task type. Registering the same name twice is a
// programming error.
func (r *Registry) Register(tt *core.TaskType) {
	if _, exists := r.types[tt.Name]; exists {
		panic(fmt.Sprintf("task type %q already registered", tt.Name))
	}
	slog.Debug("Registering task type.", "name", tt.Name)
	r.types[tt.Name] = tt
}

// Lookup returns the task type registered under name.
func (r *Registry) Lookup(name string) (*core.TaskType, bool) {
	tt, ok := r.types[name]
	return tt, ok
}

// Names returns the registered type names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.types))
	for name := range r.types {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
