// Package manifest loads HCL build manifests. It is the concrete form of
// the script-loading collaborator: a manifest declares projects, tasks, and
// groups, and the loader populates a core.Context through the same
// registration API a Go embedder would use.
package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/krakengo/internal/core"
	"github.com/vk/krakengo/internal/ctxlog"
	"github.com/vk/krakengo/internal/registry"
)

// File is the top level of a manifest. Blocks outside a project attach to
// the root project.
type File struct {
	Projects []*ProjectBlock `hcl:"project,block"`
	Tasks    []*TaskBlock    `hcl:"task,block"`
	Groups   []*GroupBlock   `hcl:"group,block"`
}

// ProjectBlock declares a child project.
type ProjectBlock struct {
	Name      string          `hcl:"name,label"`
	Directory *string         `hcl:"directory,optional"`
	Projects  []*ProjectBlock `hcl:"project,block"`
	Tasks     []*TaskBlock    `hcl:"task,block"`
	Groups    []*GroupBlock   `hcl:"group,block"`
}

// TaskBlock declares a task of a registered type.
type TaskBlock struct {
	Name        string     `hcl:"name,label"`
	Type        string     `hcl:"type"`
	Default     *bool      `hcl:"default,optional"`
	Capture     *bool      `hcl:"capture,optional"`
	Description *string    `hcl:"description,optional"`
	DependsOn   []string   `hcl:"depends_on,optional"`
	OrderAfter  []string   `hcl:"order_after,optional"`
	Arguments   *ArgsBlock `hcl:"arguments,block"`
}

// ArgsBlock carries the free-form property assignments of a task.
type ArgsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// GroupBlock declares a group, or extends one of the default groups.
type GroupBlock struct {
	Name    string   `hcl:"name,label"`
	Members []string `hcl:"members"`
	Default *bool    `hcl:"default,optional"`
}

// Load parses the manifest at path, a single .hcl file or a directory of
// them, and populates the context.
func Load(ctx context.Context, build *core.Context, reg *registry.Registry, path string) error {
	logger := ctxlog.FromContext(ctx)
	files, err := findFiles(path)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .hcl manifest files found at %q", path)
	}

	parser := hclparse.NewParser()
	for _, name := range files {
		logger.Debug("Loading manifest file.", "file", name)
		hclFile, diags := parser.ParseHCLFile(name)
		if diags.HasErrors() {
			return diags
		}
		var file File
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &file); diags.HasErrors() {
			return diags
		}
		root := build.RootProject()
		if err := apply(root, file.Projects, file.Tasks, file.Groups, reg); err != nil {
			return fmt.Errorf("manifest %s: %w", name, err)
		}
	}
	return nil
}

// findFiles resolves a manifest path into a sorted list of .hcl files.
func findFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".hcl") {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// apply registers the declared members on the project: tasks first, then
// groups (so members can be referenced by local name), then child projects.
func apply(p *core.Project, projects []*ProjectBlock, taskBlocks []*TaskBlock, groups []*GroupBlock, reg *registry.Registry) error {
	for _, tb := range taskBlocks {
		if err := applyTask(p, tb, reg); err != nil {
			return err
		}
	}

	for _, gb := range groups {
		g, err := p.Group(gb.Name)
		if err != nil {
			return err
		}
		if gb.Default != nil {
			g.Default = *gb.Default
		}
		for _, member := range gb.Members {
			t, ok := p.Task(member)
			if !ok {
				return fmt.Errorf("group %q: project %s has no task %q", gb.Name, p.Path(), member)
			}
			g.Add(t)
		}
	}

	for _, pb := range projects {
		dir := pb.Name
		if pb.Directory != nil {
			dir = *pb.Directory
		}
		child, err := p.NewChild(pb.Name, filepath.Join(p.Directory(), dir))
		if err != nil {
			return err
		}
		if err := apply(child, pb.Projects, pb.Tasks, pb.Groups, reg); err != nil {
			return err
		}
	}
	return nil
}

func applyTask(p *core.Project, tb *TaskBlock, reg *registry.Registry) error {
	tt, ok := reg.Lookup(tb.Type)
	if !ok {
		return fmt.Errorf("task %q: unknown task type %q", tb.Name, tb.Type)
	}
	t, err := p.NewTask(tb.Name, tt)
	if err != nil {
		return err
	}
	if tb.Default != nil {
		t.Default = *tb.Default
	}
	if tb.Capture != nil {
		t.Capture = *tb.Capture
	}
	if tb.Description != nil {
		t.Description = *tb.Description
	}
	for _, sel := range tb.DependsOn {
		t.AddRelationshipSelector(sel, true)
	}
	for _, sel := range tb.OrderAfter {
		t.AddRelationshipSelector(sel, false)
	}

	if tb.Arguments != nil {
		attrs, diags := tb.Arguments.Body.JustAttributes()
		if diags.HasErrors() {
			return diags
		}
		// Deterministic assignment order for reproducible error messages.
		names := make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			val, diags := attrs[name].Expr.Value(nil)
			if diags.HasErrors() {
				return diags
			}
			prop := t.Property(name)
			if prop == nil {
				return fmt.Errorf("task %s: type %q declares no property %q", t.Path(), tb.Type, name)
			}
			if err := prop.Set(val); err != nil {
				return err
			}
		}
	}
	return nil
}
