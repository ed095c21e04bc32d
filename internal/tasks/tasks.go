// Package tasks provides the built-in task types: exec, write_file,
// render_file, and noop.
package tasks

import "github.com/vk/krakengo/internal/registry"

// RegisterAll registers every built-in task type.
func RegisterAll(r *registry.Registry) {
	r.Register(ExecType())
	r.Register(WriteFileType())
	r.Register(RenderFileType())
	r.Register(NoopType())
}
