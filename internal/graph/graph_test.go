package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/krakengo/internal/core"
	"github.com/vk/krakengo/internal/proptype"
	"github.com/vk/krakengo/internal/testutil"
)

func wireSchema() *core.Schema {
	return core.NewSchema().
		Input("src", proptype.String()).
		Output("dst", proptype.String())
}

func addTask(t *testing.T, p *core.Project, name string) *core.Task {
	t.Helper()
	task, err := p.NewTask(name, testutil.NewTaskType("probe_"+name, nil, nil))
	require.NoError(t, err)
	return task
}

func paths(tasks []*core.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Path())
	}
	return out
}

func TestBuildLinear(t *testing.T) {
	build := core.New("build")
	root := build.RootProject()
	a := addTask(t, root, "a")
	b := addTask(t, root, "b")
	b.DependsOn(a)

	g, err := Build(context.Background(), []*core.Task{b})
	require.NoError(t, err)

	assert.Equal(t, 2, g.Len())
	assert.True(t, g.Contains(a))
	assert.True(t, g.Contains(b))
	assert.Equal(t, []string{":a", ":b"}, paths(g.ExecutionOrder()))
}

func TestOptionalPruning(t *testing.T) {
	build := core.New("build")
	root := build.RootProject()
	a := addTask(t, root, "a")
	b := addTask(t, root, "b")
	a.AddRelationship(b, false)

	g, err := Build(context.Background(), []*core.Task{a})
	require.NoError(t, err)

	assert.True(t, g.Contains(a))
	assert.False(t, g.Contains(b), "non-strict dependency must be pruned when not otherwise required")
	assert.Equal(t, 1, g.Len())
}

func TestOptionalKeptWhenRequired(t *testing.T) {
	build := core.New("build")
	root := build.RootProject()
	a := addTask(t, root, "a")
	b := addTask(t, root, "b")
	a.AddRelationship(b, false)

	g, err := Build(context.Background(), []*core.Task{a, b})
	require.NoError(t, err)

	require.True(t, g.Contains(b))
	// The non-strict edge orders b before a.
	assert.Equal(t, []string{":b", ":a"}, paths(g.ExecutionOrder()))
	edge, ok := g.EdgeBetween(b, a)
	require.True(t, ok)
	assert.False(t, edge.Strict)
}

func TestGroupTrimming(t *testing.T) {
	build := core.New("build")
	root := build.RootProject()
	compile := addTask(t, root, "compile")
	link := addTask(t, root, "link")
	compile.DependsOn(link)

	grp, err := root.Group("build")
	require.NoError(t, err)
	grp.Add(compile, link)

	g, err := Build(context.Background(), []*core.Task{grp})
	require.NoError(t, err)

	assert.False(t, g.Contains(grp), "group tasks must not survive trimming")
	for _, task := range g.Tasks() {
		assert.False(t, task.IsGroup())
	}
	assert.Equal(t, []string{":link", ":compile"}, paths(g.ExecutionOrder()))
}

func TestGroupPromotionKeepsDependents(t *testing.T) {
	// d depends on the group; after trimming d must depend on the members.
	build := core.New("build")
	root := build.RootProject()
	m1 := addTask(t, root, "m1")
	m2 := addTask(t, root, "m2")
	grp, err := root.Group("stage")
	require.NoError(t, err)
	grp.Add(m1, m2)
	d := addTask(t, root, "d")
	d.DependsOn(grp)

	g, err := Build(context.Background(), []*core.Task{d})
	require.NoError(t, err)

	require.False(t, g.Contains(grp))
	preds := paths(g.StrictPredecessors(d))
	assert.ElementsMatch(t, []string{":m1", ":m2"}, preds)
}

func TestGroupToGroupOrdersMembers(t *testing.T) {
	build := core.New("build")
	root := build.RootProject()
	up := addTask(t, root, "up")
	down := addTask(t, root, "down")

	gUp, err := root.Group("first")
	require.NoError(t, err)
	gUp.Add(up)
	gDown, err := root.Group("second")
	require.NoError(t, err)
	gDown.Add(down)
	gDown.DependsOn(gUp)

	g, err := Build(context.Background(), []*core.Task{gDown})
	require.NoError(t, err)

	order := paths(g.ExecutionOrder())
	assert.Equal(t, []string{":up", ":down"}, order)
}

func TestCycleDetection(t *testing.T) {
	build := core.New("build")
	root := build.RootProject()
	a := addTask(t, root, "a")
	b := addTask(t, root, "b")
	a.DependsOn(b)
	b.DependsOn(a)

	_, err := Build(context.Background(), []*core.Task{a})
	var cycle *core.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Contains(t, cycle.Paths, ":a")
	assert.Contains(t, cycle.Paths, ":b")
}

func TestPropertyFlowEdges(t *testing.T) {
	build := core.New("build")
	root := build.RootProject()

	tt := testutil.NewTaskType("wired", wireSchema(), nil)
	a, err := root.NewTask("a", tt)
	require.NoError(t, err)
	b, err := root.NewTask("b", tt)
	require.NoError(t, err)
	require.NoError(t, b.Property("src").Set(a.Property("dst")))

	g, err := Build(context.Background(), []*core.Task{b})
	require.NoError(t, err)

	require.True(t, g.Contains(a))
	edge, ok := g.EdgeBetween(a, b)
	require.True(t, ok)
	assert.True(t, edge.Strict)
	assert.True(t, edge.Implicit)
}

func TestReadyAndStatus(t *testing.T) {
	build := core.New("build")
	root := build.RootProject()
	a := addTask(t, root, "a")
	b := addTask(t, root, "b")
	b.DependsOn(a)

	g, err := Build(context.Background(), []*core.Task{b})
	require.NoError(t, err)

	ready := g.Ready()
	require.Len(t, ready, 1)
	assert.Equal(t, ":a", ready[0].Path())

	require.NoError(t, g.SetStatus(a, core.Succeeded()))
	ready = g.Ready()
	require.Len(t, ready, 1)
	assert.Equal(t, ":b", ready[0].Path())

	t.Run("terminal status cannot be replaced", func(t *testing.T) {
		assert.Error(t, g.SetStatus(a, core.Succeeded()))
	})

	require.NoError(t, g.SetStatus(b, core.UpToDate("")))
	assert.Empty(t, g.Ready())
	assert.True(t, g.IsComplete())
}

func TestFailedStrictPredecessorBlocksReady(t *testing.T) {
	build := core.New("build")
	root := build.RootProject()
	a := addTask(t, root, "a")
	b := addTask(t, root, "b")
	b.DependsOn(a)

	g, err := Build(context.Background(), []*core.Task{b})
	require.NoError(t, err)

	require.NoError(t, g.SetStatus(a, core.Failed("boom")))
	assert.Empty(t, g.Ready())
	assert.False(t, g.IsComplete())
}

func TestTransitiveEdgePreservedOverTrimmedNode(t *testing.T) {
	// c (goal) is non-strictly ordered after b, and b strictly after a.
	// With a also a goal and b pruned, the a-before-c ordering survives.
	build := core.New("build")
	root := build.RootProject()
	a := addTask(t, root, "a")
	b := addTask(t, root, "b")
	c := addTask(t, root, "c")
	b.DependsOn(a)
	c.AddRelationship(b, false)

	g, err := Build(context.Background(), []*core.Task{c, a})
	require.NoError(t, err)

	assert.False(t, g.Contains(b))
	_, ok := g.EdgeBetween(a, c)
	assert.True(t, ok)
	assert.Equal(t, []string{":a", ":c"}, paths(g.ExecutionOrder()))
}
