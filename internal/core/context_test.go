package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextSeal(t *testing.T) {
	build := New("build")
	root := build.RootProject()
	_, err := root.NewTask("a", nil)
	require.NoError(t, err)

	require.NoError(t, build.Finalize(context.Background()))
	assert.True(t, build.Sealed())

	_, err = root.NewTask("late", nil)
	assert.ErrorIs(t, err, ErrContextSealed)

	_, err = root.NewChild("late", "late")
	assert.ErrorIs(t, err, ErrContextSealed)

	// Finalize is idempotent.
	assert.NoError(t, build.Finalize(context.Background()))
}

func TestContextMetadata(t *testing.T) {
	build := New("build")
	type key struct{}
	build.Metadata().Put(key{}, "payload")
	v, ok := build.Metadata().Get(key{})
	require.True(t, ok)
	assert.Equal(t, "payload", v)

	_, ok = build.Metadata().Get("absent")
	assert.False(t, ok)
}

func TestContextID(t *testing.T) {
	a := New("build")
	b := New("build")
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestResolveTasks(t *testing.T) {
	build := New("build")
	root := build.RootProject()
	rootTask, err := root.NewTask("compile", nil)
	require.NoError(t, err)
	rootTask.Default = true

	sub, err := root.NewChild("sub", "sub")
	require.NoError(t, err)
	subTask, err := sub.NewTask("compile", nil)
	require.NoError(t, err)
	other, err := sub.NewTask("docs", nil)
	require.NoError(t, err)
	other.Default = true

	t.Run("bare name matches everywhere", func(t *testing.T) {
		tasks, err := build.ResolveTasks([]string{"compile"}, nil)
		require.NoError(t, err)
		assert.ElementsMatch(t, []*Task{rootTask, subTask}, tasks)
	})

	t.Run("absolute path selects one task", func(t *testing.T) {
		tasks, err := build.ResolveTasks([]string{":sub:compile"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []*Task{subTask}, tasks)
	})

	t.Run("project path selects its default tasks", func(t *testing.T) {
		tasks, err := build.ResolveTasks([]string{":sub"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []*Task{other}, tasks)
	})

	t.Run("root selector selects root defaults", func(t *testing.T) {
		tasks, err := build.ResolveTasks([]string{":"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []*Task{rootTask}, tasks)
	})

	t.Run("absolute path ignores relativeTo", func(t *testing.T) {
		tasks, err := build.ResolveTasks([]string{":sub:compile"}, sub)
		require.NoError(t, err)
		assert.Equal(t, []*Task{subTask}, tasks)
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		tasks, err := build.ResolveTasks([]string{":compile", ":compile"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []*Task{rootTask}, tasks)
	})

	t.Run("unknown selector errors", func(t *testing.T) {
		_, err := build.ResolveTasks([]string{"missing"}, nil)
		var unknown *UnknownTaskError
		assert.ErrorAs(t, err, &unknown)
	})

	t.Run("default tasks span all projects", func(t *testing.T) {
		assert.ElementsMatch(t, []*Task{rootTask, other}, build.DefaultTasks())
	})
}
