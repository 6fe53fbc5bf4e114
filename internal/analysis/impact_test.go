package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigtrace/internal/git"
	"sigtrace/internal/graph"
)

func names(nodes []*graph.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Symbol.Name)
	}
	return out
}

func TestAnalyzer_AnalyzeImpact(t *testing.T) {
	g := graph.NewGraph()
	add := func(id, name string, start, end int) {
		g.AddNode(&graph.Symbol{ID: id, Filepath: "store.ts", Name: name, StartLine: start, EndLine: end}, nil)
	}
	add("count", "count", 1, 1)
	add("double", "double", 2, 2)
	add("quad", "quad", 3, 5)
	add("logger", "logger", 7, 9)
	add("other", "other", 11, 11)

	g.Link("double", "count", graph.EdgeReads)
	g.Link("quad", "double", graph.EdgeReads)
	g.Link("logger", "quad", graph.EdgeReads)
	g.Link("logger", "count", graph.EdgeReads)

	a := NewAnalyzer(g)

	t.Run("Transitive readers", func(t *testing.T) {
		report, err := a.AnalyzeImpact([]git.ChangedFile{{Path: "store.ts", ChangedLines: []int{1}}})
		require.NoError(t, err)
		assert.Equal(t, []string{"count"}, names(report.DirectlyAffected))
		assert.Equal(t, []string{"double", "logger", "quad"}, names(report.IndirectlyAffected))
	})

	t.Run("Direct impacts are not repeated", func(t *testing.T) {
		report, err := a.AnalyzeImpact([]git.ChangedFile{{Path: "store.ts", ChangedLines: []int{2, 4, 8}}})
		require.NoError(t, err)
		assert.Equal(t, []string{"double", "quad", "logger"}, names(report.DirectlyAffected))
		assert.Empty(t, report.IndirectlyAffected)
	})

	t.Run("Other files are ignored", func(t *testing.T) {
		report, err := a.AnalyzeImpact([]git.ChangedFile{{Path: "other.ts", ChangedLines: []int{1}}})
		require.NoError(t, err)
		assert.Empty(t, report.DirectlyAffected)
		assert.Empty(t, report.IndirectlyAffected)
	})
}
