package tasks

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/vk/krakengo/internal/core"
	"github.com/vk/krakengo/internal/proptype"
	"github.com/zclconf/go-cty/cty"
)

// ExecType runs a command. The command is either a shell string or an argv
// list; the exit code is exposed as an output property.
func ExecType() *core.TaskType {
	return &core.TaskType{
		Name:        "exec",
		Description: "run a command",
		Schema: core.NewSchema().
			Input("command", proptype.Union(proptype.String(), proptype.List(proptype.String()))).
			InputDefault("env", proptype.Map(proptype.String()), map[string]string{}).
			Input("cwd", proptype.Union(proptype.String(), proptype.Path())).
			Output("exit_code", proptype.Int()),
		New: func() core.Action { return &execAction{} },
	}
}

type execAction struct{}

func (a *execAction) Execute(ec *core.ExecContext) (core.Status, error) {
	t := ec.Task

	cv, err := t.Property("command").Get()
	if err != nil {
		return core.Status{}, err
	}
	var argv []string
	if cv.Type().Equals(cty.String) {
		argv = []string{"sh", "-c", cv.AsString()}
	} else {
		argv, err = proptype.AsStringSlice(cv)
		if err != nil {
			return core.Status{}, err
		}
		if len(argv) == 0 {
			return core.Status{}, errors.New("command list is empty")
		}
	}

	cwd := t.Project().Directory()
	if p := t.Property("cwd"); p.IsSet() {
		cwd, err = p.PathVal()
		if err != nil {
			return core.Status{}, err
		}
	}
	env, err := t.Property("env").StringMapVal()
	if err != nil {
		return core.Status{}, err
	}

	cmd := exec.CommandContext(ec.Ctx, argv[0], argv[1:]...)
	cmd.Dir = cwd
	cmd.Stdout = ec.Stdout
	cmd.Stderr = ec.Stderr
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	ec.Log.Debug("Running command.", "argv", argv, "cwd", cwd)
	runErr := cmd.Run()

	code := 0
	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
	case errors.As(runErr, &exitErr):
		code = exitErr.ExitCode()
	default:
		return core.Status{}, runErr
	}
	if err := t.Property("exit_code").Set(code); err != nil {
		return core.Status{}, err
	}
	if code != 0 {
		return core.Failedf("command exited with code %d", code), nil
	}
	return core.Succeeded(), nil
}

func (a *execAction) Prepare(t *core.Task) (core.Status, bool) {
	if !t.Property("command").IsSet() {
		return core.Failed(fmt.Sprintf("task %s has no command", t.Path())), true
	}
	return core.Status{}, false
}
