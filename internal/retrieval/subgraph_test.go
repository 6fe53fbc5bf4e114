package retrieval

import (
	"testing"

	"sigtrace/internal/git"
	"sigtrace/internal/graph"

	"github.com/stretchr/testify/assert"
)

// chain builds count <- double <- quad <- logger, each reader linked to the
// signal it reads.
func chain() *graph.Graph {
	g := graph.NewGraph()
	g.AddNode(&graph.Symbol{ID: "A", Filepath: "a.ts", StartLine: 1, EndLine: 1, Name: "count"}, nil)
	g.AddNode(&graph.Symbol{ID: "B", Filepath: "a.ts", StartLine: 2, EndLine: 2, Name: "double"}, nil)
	g.AddNode(&graph.Symbol{ID: "C", Filepath: "b.ts", StartLine: 1, EndLine: 3, Name: "quad"}, nil)
	g.AddNode(&graph.Symbol{ID: "D", Filepath: "b.ts", StartLine: 5, EndLine: 8, Callee: "watchEffect"}, nil)
	g.Link("B", "A", graph.EdgeReads)
	g.Link("C", "B", graph.EdgeReads)
	g.Link("D", "C", graph.EdgeReads)
	return g
}

func TestExtractFromChanges_BasicHopTraversal(t *testing.T) {
	changes := []git.ChangedFile{{Path: "a.ts", ChangedLines: []int{1}}}
	sg := ExtractFromChanges(chain(), changes, Config{MaxHops: 1})

	assert.Equal(t, []string{"A"}, sg.SeedIDs)
	assert.Equal(t, []string{"A", "B"}, sg.NodeIDs)
	assert.Len(t, sg.Edges, 1)
	assert.Equal(t, "B", sg.Edges[0].From)
	assert.Equal(t, "A", sg.Edges[0].To)
	assert.Equal(t, 1, sg.Depth["B"])
}

func TestExtractFromChanges_NoSeeds(t *testing.T) {
	sg := ExtractFromChanges(chain(), []git.ChangedFile{{Path: "c.ts", ChangedLines: []int{1}}}, DefaultConfig())
	assert.Empty(t, sg.SeedIDs)
	assert.Empty(t, sg.NodeIDs)
	assert.Empty(t, sg.Edges)
}

func TestExtract_Direction(t *testing.T) {
	g := chain()

	down := Extract(g, []string{"B"}, Config{MaxHops: 5, Direction: Downstream})
	assert.Equal(t, []string{"B", "C", "D"}, down.NodeIDs)

	up := Extract(g, []string{"B"}, Config{MaxHops: 5, Direction: Upstream})
	assert.Equal(t, []string{"A", "B"}, up.NodeIDs)

	both := Extract(g, []string{"B"}, Config{MaxHops: 1, Direction: Both})
	assert.Equal(t, []string{"A", "B", "C"}, both.NodeIDs)
	assert.Len(t, both.Edges, 2)
}

func TestExtractByName_Graph(t *testing.T) {
	g := chain()
	sg := ExtractByName(g, "watchEffect", Config{MaxHops: 2, Direction: Upstream})
	assert.Equal(t, []string{"D"}, sg.SeedIDs)

	sub := sg.Graph(g)
	var labels []string
	for _, n := range sub.Ordered() {
		labels = append(labels, n.Symbol.Label())
	}
	assert.Equal(t, []string{"double", "quad", "watchEffect"}, labels)
	assert.Len(t, sub.Edges, 2)
	assert.Len(t, sub.GetDependencies("D"), 1)
}
