package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/krakengo/internal/app"
	"github.com/vk/krakengo/internal/cli"
)

func TestRunShowsUsageWithoutManifest(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
}

func TestRunRejectsBadFlags(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"--log-level", "loud", "-m", "x.hcl"})
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestRunExecutesManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "build.hcl")
	target := filepath.ToSlash(filepath.Join(dir, "out.txt"))
	require.NoError(t, os.WriteFile(manifest, []byte(`
task "hello" {
  type    = "write_file"
  default = true
  arguments {
    path    = "`+target+`"
    content = "done"
  }
}
`), 0o644))

	var out bytes.Buffer
	err := run(&out, []string{"-m", manifest, "--build-dir", dir, "--log-level", "error"})
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "done", string(data))
}

func TestRunReportsTaskFailure(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "build.hcl")
	require.NoError(t, os.WriteFile(manifest, []byte(`
task "boom" {
  type    = "exec"
  default = true
  arguments {
    command = "exit 1"
  }
}
`), 0o644))

	var out bytes.Buffer
	err := run(&out, []string{"-m", manifest, "--build-dir", dir, "--log-level", "error"})
	assert.ErrorIs(t, err, app.ErrBuildFailed)
}
