package tasks

import (
	"bytes"
	"os"
	"path/filepath"
	"text/template"

	"github.com/vk/krakengo/internal/core"
	"github.com/vk/krakengo/internal/proptype"
)

// RenderFileType renders a text/template with string variables into a file.
func RenderFileType() *core.TaskType {
	return &core.TaskType{
		Name:        "render_file",
		Description: "render a template to a file",
		Schema: core.NewSchema().
			Input("template", proptype.String()).
			InputDefault("vars", proptype.Map(proptype.String()), map[string]string{}).
			Input("dest", proptype.Union(proptype.String(), proptype.Path())).
			Output("rendered_path", proptype.Path()),
		New: func() core.Action { return &renderFileAction{} },
	}
}

type renderFileAction struct{}

func (a *renderFileAction) Execute(ec *core.ExecContext) (core.Status, error) {
	t := ec.Task
	tmplSrc, err := t.Property("template").StringVal()
	if err != nil {
		return core.Status{}, err
	}
	vars, err := t.Property("vars").StringMapVal()
	if err != nil {
		return core.Status{}, err
	}
	destPath, err := t.Property("dest").PathVal()
	if err != nil {
		return core.Status{}, err
	}
	dest := resolvePath(t, destPath)

	tmpl, err := template.New(t.Name()).Parse(tmplSrc)
	if err != nil {
		return core.Status{}, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return core.Status{}, err
	}

	if err := t.Property("rendered_path").Set(proptype.PathVal(dest)); err != nil {
		return core.Status{}, err
	}
	if have, err := os.ReadFile(dest); err == nil && bytes.Equal(have, buf.Bytes()) {
		return core.UpToDate("rendered output unchanged"), nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return core.Status{}, err
	}
	if err := os.WriteFile(dest, buf.Bytes(), 0o644); err != nil {
		return core.Status{}, err
	}
	return core.Succeeded(), nil
}
