package tasks

import (
	"github.com/vk/krakengo/internal/core"
	"github.com/vk/krakengo/internal/proptype"
)

// NoopType does nothing. It is skipped by default and mainly useful as a
// placeholder or an always-satisfied dependency.
func NoopType() *core.TaskType {
	return &core.TaskType{
		Name:        "noop",
		Description: "do nothing",
		Schema: core.NewSchema().
			InputDefault("skip", proptype.Bool(), true).
			InputDefault("message", proptype.String(), "nothing to do"),
		New: func() core.Action { return &noopAction{} },
	}
}

type noopAction struct{}

func (a *noopAction) Prepare(t *core.Task) (core.Status, bool) {
	skip, err := t.Property("skip").BoolVal()
	if err != nil {
		return core.Failed(err.Error()), true
	}
	if skip {
		msg, _ := t.Property("message").StringVal()
		return core.Skipped(msg), true
	}
	return core.Status{}, false
}

func (a *noopAction) Execute(ec *core.ExecContext) (core.Status, error) {
	msg, _ := ec.Task.Property("message").StringVal()
	return core.SucceededNoop(msg), nil
}
