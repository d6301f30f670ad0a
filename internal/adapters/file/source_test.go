package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialflow/dialflow/internal/adapters/file"
	"github.com/dialflow/dialflow/pkg/domain"
)

const greeterYAML = `
name: Greeter
nodes:
  - id: start
    kind: start
  - id: ask
    kind: gather
    data:
      prompt: "What's your name?"
      save_to: name
  - id: bye
    kind: end
    data:
      message: "Goodbye {{name}}"
edges:
  - from: start
    to: ask
  - from: ask
    to: bye
`

func writeWorkflow(t *testing.T, dir, id, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".yaml"), []byte(content), 0o644))
}

func TestSource_LoadsAndValidates(t *testing.T) {
	dir := t.TempDir()
	writeWorkflow(t, dir, "greeter", greeterYAML)
	src := file.NewSource(dir)

	g, err := src.Graph(context.Background(), "greeter")
	require.NoError(t, err)

	assert.Equal(t, "greeter", g.ID, "id defaults to the workflow file name")
	assert.Equal(t, "Greeter", g.Name)
	assert.Equal(t, "start", g.Entry())

	ask := g.NodeByID("ask")
	require.NotNil(t, ask)
	var cfg domain.GatherConfig
	require.NoError(t, ask.DecodeConfig(&cfg))
	assert.Equal(t, "name", cfg.SaveTo)
}

func TestSource_CachesGraphs(t *testing.T) {
	dir := t.TempDir()
	writeWorkflow(t, dir, "greeter", greeterYAML)
	src := file.NewSource(dir)

	first, err := src.Graph(context.Background(), "greeter")
	require.NoError(t, err)

	// The file disappearing does not affect the cached graph.
	require.NoError(t, os.Remove(filepath.Join(dir, "greeter.yaml")))

	second, err := src.Graph(context.Background(), "greeter")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestSource_MissingWorkflow(t *testing.T) {
	src := file.NewSource(t.TempDir())

	_, err := src.Graph(context.Background(), "nope")
	assert.Error(t, err)
}

func TestSource_RejectsPathTraversal(t *testing.T) {
	src := file.NewSource(t.TempDir())

	_, err := src.Graph(context.Background(), "../etc/passwd")
	assert.Error(t, err)

	_, err = src.Graph(context.Background(), "")
	assert.Error(t, err)
}

func TestSource_RejectsInvalidGraph(t *testing.T) {
	dir := t.TempDir()
	writeWorkflow(t, dir, "broken", `
nodes:
  - id: lonely
    kind: end
edges: []
`)
	src := file.NewSource(dir)

	_, err := src.Graph(context.Background(), "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no start node")
}

func TestParse_RejectsBadYAML(t *testing.T) {
	_, err := file.Parse([]byte("nodes: [unclosed"))
	assert.Error(t, err)
}
