package tasks

import (
	"os"
	"path/filepath"

	"github.com/vk/krakengo/internal/core"
	"github.com/vk/krakengo/internal/proptype"
)

// WriteFileType writes content to a file. The task reports up-to-date when
// the file already holds the exact content.
func WriteFileType() *core.TaskType {
	return &core.TaskType{
		Name:        "write_file",
		Description: "write content to a file",
		Schema: core.NewSchema().
			Input("path", proptype.Union(proptype.String(), proptype.Path())).
			Input("content", proptype.String()).
			Output("written_path", proptype.Path()),
		New: func() core.Action { return &writeFileAction{} },
	}
}

type writeFileAction struct{}

// resolvePath anchors relative paths at the owning project's directory.
func resolvePath(t *core.Task, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(t.Project().Directory(), p)
}

func (a *writeFileAction) Execute(ec *core.ExecContext) (core.Status, error) {
	t := ec.Task
	path, err := t.Property("path").PathVal()
	if err != nil {
		return core.Status{}, err
	}
	content, err := t.Property("content").StringVal()
	if err != nil {
		return core.Status{}, err
	}
	dest := resolvePath(t, path)

	if err := t.Property("written_path").Set(proptype.PathVal(dest)); err != nil {
		return core.Status{}, err
	}

	if have, err := os.ReadFile(dest); err == nil && string(have) == content {
		return core.UpToDate("content unchanged"), nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return core.Status{}, err
	}
	if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
		return core.Status{}, err
	}
	ec.Log.Debug("Wrote file.", "path", dest, "bytes", len(content))
	return core.Succeeded(), nil
}
