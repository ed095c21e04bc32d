package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/krakengo/internal/testutil"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "build.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestApp(t *testing.T, manifest string, selectors ...string) (*App, *testutil.SafeBuffer) {
	t.Helper()
	cfg, err := NewConfig(Config{
		Manifest:  manifest,
		BuildDir:  t.TempDir(),
		Selectors: selectors,
		LogLevel:  "error",
	})
	require.NoError(t, err)
	out := &testutil.SafeBuffer{}
	return NewApp(out, cfg), out
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	manifest := writeManifest(t, `
task "greet" {
  type    = "write_file"
  default = true
  arguments {
    path    = "`+filepath.ToSlash(filepath.Join(dir, "greet.txt"))+`"
    content = "hello"
  }
}
`)
	a, out := newTestApp(t, manifest)
	require.NoError(t, a.Run(context.Background()))

	data, err := os.ReadFile(filepath.Join(dir, "greet.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Contains(t, out.String(), "Build summary")
	assert.Contains(t, out.String(), ":greet SUCCEEDED")
}

func TestRunReportsFailure(t *testing.T) {
	manifest := writeManifest(t, `
task "boom" {
  type    = "exec"
  default = true
  arguments {
    command = "exit 7"
  }
}

task "after" {
  type       = "noop"
  default    = true
  depends_on = ["boom"]
  arguments {
    skip = false
  }
}
`)
	a, out := newTestApp(t, manifest)
	err := a.Run(context.Background())
	assert.ErrorIs(t, err, ErrBuildFailed)
	assert.Contains(t, out.String(), ":boom FAILED")
	assert.Contains(t, out.String(), ":after SKIPPED (upstream failed: :boom)")
}

func TestRunSelectionErrors(t *testing.T) {
	manifest := writeManifest(t, `
task "a" {
  type = "noop"
}
`)

	t.Run("unknown selector", func(t *testing.T) {
		a, _ := newTestApp(t, manifest, ":missing")
		err := a.Run(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrBuildFailed)
	})

	t.Run("nothing selected", func(t *testing.T) {
		// No defaults declared and no selectors given.
		a, _ := newTestApp(t, manifest)
		err := a.Run(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrBuildFailed)
	})
}

func TestRunCycleIsFatalBeforeExecution(t *testing.T) {
	dir := t.TempDir()
	probe := filepath.ToSlash(filepath.Join(dir, "ran.txt"))
	manifest := writeManifest(t, `
task "a" {
  type       = "write_file"
  default    = true
  depends_on = ["b"]
  arguments {
    path    = "`+probe+`"
    content = "ran"
  }
}

task "b" {
  type       = "noop"
  depends_on = ["a"]
}
`)
	a, _ := newTestApp(t, manifest)
	err := a.Run(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBuildFailed)
	_, statErr := os.Stat(probe)
	assert.True(t, os.IsNotExist(statErr), "no task may run when the graph has a cycle")
}
