package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigtrace/internal/reactive"
	"sigtrace/internal/rules/vue"
	"sigtrace/internal/symbols"
	"sigtrace/internal/syntax"
)

const source = `const count = ref(0);
const double = computed(() => count.value * 2);
watchEffect(() => {
  log(double.value);
});
function reset() { count.value = 0 }
`

func build(t *testing.T) *Graph {
	t.Helper()
	u, err := syntax.Parse(context.Background(), "counter.ts", []byte(source))
	require.NoError(t, err)
	t.Cleanup(u.Close)

	a, err := reactive.NewAnalyzer(reactive.Options{Rules: vue.Rules()})
	require.NoError(t, err)
	return Build(u, a, reactive.TableServices(symbols.Build(u)))
}

func byName(t *testing.T, g *Graph, label string) *Node {
	t.Helper()
	for _, n := range g.Ordered() {
		if n.Symbol.Label() == label {
			return n
		}
	}
	t.Fatalf("node %s not found", label)
	return nil
}

func TestGraph_Build(t *testing.T) {
	g := build(t)

	t.Run("Nodes in document order", func(t *testing.T) {
		var labels []string
		for _, n := range g.Ordered() {
			labels = append(labels, n.Symbol.Label())
		}
		assert.Equal(t, []string{"count", "double", "watchEffect", "reset"}, labels)

		assert.Equal(t, "counter.ts:1:7", byName(t, g, "count").Symbol.ID)
		assert.Equal(t, KindDerived, byName(t, g, "double").Symbol.Kind)
		assert.Equal(t, KindFunction, byName(t, g, "reset").Symbol.Kind)

		effect := byName(t, g, "watchEffect").Symbol
		assert.Equal(t, KindEffect, effect.Kind)
		assert.Equal(t, 3, effect.StartLine)
		assert.Equal(t, 5, effect.EndLine)
	})

	t.Run("Dependency lookup", func(t *testing.T) {
		deps := g.GetDependencies(byName(t, g, "double").Symbol.ID)
		require.Len(t, deps, 1)
		assert.Equal(t, "count", deps[0].Symbol.Name)

		deps = g.GetDependencies(byName(t, g, "watchEffect").Symbol.ID)
		require.Len(t, deps, 1)
		assert.Equal(t, "double", deps[0].Symbol.Name)
	})

	t.Run("Dependent lookup", func(t *testing.T) {
		dependents := g.GetDependents(byName(t, g, "count").Symbol.ID)
		require.Len(t, dependents, 2)
		assert.Equal(t, "double", dependents[0].Symbol.Name)
		assert.Equal(t, "reset", dependents[1].Symbol.Name)

		assert.Empty(t, g.GetDependents(byName(t, g, "watchEffect").Symbol.ID))
	})

	t.Run("Kind counts", func(t *testing.T) {
		assert.Equal(t, map[NodeKind]int{
			KindSignal:   1,
			KindDerived:  1,
			KindEffect:   1,
			KindFunction: 1,
		}, g.KindCounts())
	})
}

func TestGraph_Mermaid(t *testing.T) {
	out := build(t).Mermaid()

	assert.True(t, strings.HasPrefix(out, "```mermaid\nflowchart LR\n"))
	assert.Contains(t, out, `n0_count["count<br/>signal L1"]`)
	assert.Contains(t, out, `n2_watcheffect(["watchEffect<br/>effect L3"])`)
	assert.Contains(t, out, "n0_count --> n1_double\n")
	assert.Contains(t, out, "n1_double --> n2_watcheffect\n")
	assert.Contains(t, out, "n0_count --> n3_reset\n")
	assert.Contains(t, out, `n3_reset[/"reset<br/>function L6"/]`)
}

func TestGraph_LinkIgnoresDuplicates(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Symbol{ID: "a", Name: "a"}, nil)
	g.AddNode(&Symbol{ID: "b", Name: "b"}, nil)
	g.AddNode(&Symbol{Name: "no id"}, nil)

	g.Link("b", "a", EdgeReads)
	g.Link("b", "a", EdgeReads)

	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Edges, 1)
	assert.Equal(t, "b", g.GetDependents("a")[0].Symbol.ID)
}
