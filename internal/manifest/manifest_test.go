package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/krakengo/internal/core"
	"github.com/vk/krakengo/internal/registry"
	"github.com/vk/krakengo/internal/tasks"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "build.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func load(t *testing.T, content string) (*core.Context, error) {
	t.Helper()
	reg := registry.New()
	tasks.RegisterAll(reg)
	build := core.New(t.TempDir())
	err := Load(context.Background(), build, reg, writeManifest(t, content))
	return build, err
}

func TestLoadBasicManifest(t *testing.T) {
	build, err := load(t, `
task "hello" {
  type    = "write_file"
  default = true
  arguments {
    path    = "hello.txt"
    content = "hi"
  }
}

project "backend" {
  directory = "services/backend"

  task "compile" {
    type = "exec"
    arguments {
      command = "go build ./..."
    }
    depends_on = ["lint"]
  }

  group "build" {
    members = ["compile"]
    default = true
  }
}
`)
	require.NoError(t, err)
	root := build.RootProject()

	hello, ok := root.Task("hello")
	require.True(t, ok)
	assert.True(t, hello.Default)
	v, err := hello.Property("path").PathVal()
	require.NoError(t, err)
	assert.Equal(t, "hello.txt", v)

	backend, ok := root.Child("backend")
	require.True(t, ok)
	assert.Contains(t, backend.Directory(), "services/backend")

	compile, ok := backend.Task("compile")
	require.True(t, ok)
	cmd, err := compile.Property("command").StringVal()
	require.NoError(t, err)
	assert.Equal(t, "go build ./...", cmd)

	grp, ok := backend.Task("build")
	require.True(t, ok)
	require.True(t, grp.IsGroup())
	assert.True(t, grp.Default)
	assert.Equal(t, []*core.Task{compile}, grp.Members())

	t.Run("depends_on resolves lazily at graph time", func(t *testing.T) {
		rels, err := compile.Relationships()
		require.NoError(t, err)
		lint, _ := backend.Task("lint")
		found := false
		for _, r := range rels {
			if r.Target == lint {
				found = true
				assert.True(t, r.Strict)
			}
		}
		assert.True(t, found)
	})
}

func TestLoadOrderAfterIsNonStrict(t *testing.T) {
	build, err := load(t, `
task "a" {
  type = "noop"
}

task "b" {
  type        = "noop"
  order_after = ["a"]
}
`)
	require.NoError(t, err)
	root := build.RootProject()
	a, _ := root.Task("a")
	b, _ := root.Task("b")

	rels, err := b.Relationships()
	require.NoError(t, err)
	for _, r := range rels {
		if r.Target == a {
			assert.False(t, r.Strict)
			return
		}
	}
	t.Fatal("expected a relationship from b to a")
}

func TestLoadErrors(t *testing.T) {
	t.Run("unknown task type", func(t *testing.T) {
		_, err := load(t, `
task "x" {
  type = "does_not_exist"
}
`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does_not_exist")
	})

	t.Run("unknown property", func(t *testing.T) {
		_, err := load(t, `
task "x" {
  type = "noop"
  arguments {
    bogus = 1
  }
}
`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bogus")
	})

	t.Run("unknown group member", func(t *testing.T) {
		_, err := load(t, `
group "docs" {
  members = ["missing"]
}
`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing")
	})

	t.Run("invalid hcl", func(t *testing.T) {
		_, err := load(t, `task "x" {`)
		assert.Error(t, err)
	})

	t.Run("duplicate task name", func(t *testing.T) {
		_, err := load(t, `
task "x" {
  type = "noop"
}
task "x" {
  type = "noop"
}
`)
		var collision *core.NameCollisionError
		assert.ErrorAs(t, err, &collision)
	})
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.hcl"), []byte(`
task "a" {
  type = "noop"
}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.hcl"), []byte(`
task "b" {
  type = "noop"
}
`), 0o644))

	reg := registry.New()
	tasks.RegisterAll(reg)
	build := core.New(t.TempDir())
	require.NoError(t, Load(context.Background(), build, reg, dir))

	_, ok := build.RootProject().Task("a")
	assert.True(t, ok)
	_, ok = build.RootProject().Task("b")
	assert.True(t, ok)
}
