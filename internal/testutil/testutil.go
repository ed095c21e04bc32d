// Package testutil provides small helpers shared by the test suites.
package testutil

import (
	"bytes"
	"sync"

	"github.com/vk/krakengo/internal/core"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Recorder collects the order in which tasks executed, across goroutines.
type Recorder struct {
	mu    sync.Mutex
	order []string
}

// Record appends a task path to the log.
func (r *Recorder) Record(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, path)
}

// Order returns the recorded paths in execution order.
func (r *Recorder) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

type funcAction struct {
	fn func(ec *core.ExecContext) (core.Status, error)
}

func (a *funcAction) Execute(ec *core.ExecContext) (core.Status, error) {
	if a.fn == nil {
		return core.Succeeded(), nil
	}
	return a.fn(ec)
}

// NewTaskType builds a task type whose action runs fn. A nil fn succeeds
// without doing anything.
func NewTaskType(name string, schema *core.Schema, fn func(ec *core.ExecContext) (core.Status, error)) *core.TaskType {
	if schema == nil {
		schema = core.NewSchema()
	}
	return &core.TaskType{
		Name:   name,
		Schema: schema,
		New:    func() core.Action { return &funcAction{fn: fn} },
	}
}

// RecordingType builds a task type that records its path on rec and
// succeeds.
func RecordingType(name string, rec *Recorder) *core.TaskType {
	return NewTaskType(name, nil, func(ec *core.ExecContext) (core.Status, error) {
		rec.Record(ec.Task.Path())
		return core.Succeeded(), nil
	})
}
