package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"sigtrace/internal/graph"
	"sigtrace/internal/reactive"
	"sigtrace/internal/rules"
	"sigtrace/internal/syntax"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func signal(path, name string, line int) (*graph.Symbol, *reactive.Node) {
	sym := &graph.Symbol{
		ID:        path + ":" + name,
		Filepath:  path,
		Name:      name,
		Callee:    "ref",
		Kind:      graph.KindSignal,
		StartLine: line,
		EndLine:   line,
	}
	n := &reactive.Node{
		IsDependency: true,
		Name:         name,
		Callee:       "ref",
		Binding: &reactive.Binding{
			Span:        reactive.Span{Range: syntax.Range{Start: line * 10, End: line*10 + len(name)}},
			AccessTypes: []rules.AccessType{rules.Property("value")},
		},
	}
	return sym, n
}

func unitGraph(path string, names ...string) *graph.Graph {
	g := graph.NewGraph()
	for i, name := range names {
		sym, n := signal(path, name, i+1)
		g.AddNode(sym, n)
	}
	return g
}

func TestSQLiteStore_SaveUnit_RoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	g := unitGraph("a.ts", "count", "double")
	g.Link("a.ts:double", "a.ts:count", graph.EdgeReads)
	scanned := time.Unix(1700000000, 0)
	require.NoError(t, store.SaveUnit(ctx, UnitRecord{Path: "a.ts", Key: "a.ts@1", Language: "typescript", ScannedAt: scanned}, g))

	rec, loaded, err := store.LoadUnit(ctx, "a.ts")
	require.NoError(t, err)
	assert.Equal(t, "a.ts@1", rec.Key)
	assert.Equal(t, "typescript", rec.Language)
	assert.True(t, scanned.Equal(rec.ScannedAt))

	nodes := loaded.Ordered()
	require.Len(t, nodes, 2)
	assert.Equal(t, "count", nodes[0].Symbol.Name)
	assert.Equal(t, graph.KindSignal, nodes[0].Symbol.Kind)
	assert.Equal(t, "double", nodes[1].Symbol.Name)

	require.NotNil(t, nodes[0].Source)
	require.NotNil(t, nodes[0].Source.Binding)
	assert.Equal(t, syntax.Range{Start: 10, End: 15}, nodes[0].Source.Binding.Range)
	assert.Equal(t, []rules.AccessType{".value"}, nodes[0].Source.Binding.AccessTypes)
	assert.True(t, nodes[0].Source.IsDependency)

	deps := loaded.GetDependencies("a.ts:double")
	require.Len(t, deps, 1)
	assert.Equal(t, "count", deps[0].Symbol.Name)
}

func TestSQLiteStore_SaveUnit_SnapshotSync(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	g1 := unitGraph("a.ts", "count", "double")
	g1.Link("a.ts:double", "a.ts:count", graph.EdgeReads)
	require.NoError(t, store.SaveUnit(ctx, UnitRecord{Path: "a.ts", Key: "a.ts@1"}, g1))

	// New snapshot: double removed, total added, no edges.
	g2 := unitGraph("a.ts", "count", "total")
	require.NoError(t, store.SaveUnit(ctx, UnitRecord{Path: "a.ts", Key: "a.ts@2"}, g2))

	rec, loaded, err := store.LoadUnit(ctx, "a.ts")
	require.NoError(t, err)
	assert.Equal(t, "a.ts@2", rec.Key)
	assert.Len(t, loaded.Nodes, 2)
	_, hasDouble := loaded.Nodes["a.ts:double"]
	assert.False(t, hasDouble)
	_, hasTotal := loaded.Nodes["a.ts:total"]
	assert.True(t, hasTotal)
	assert.Empty(t, loaded.Edges)
}

func TestSQLiteStore_ListAndDelete(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUnit(ctx, UnitRecord{Path: "b.ts", Key: "b"}, unitGraph("b.ts", "y")))
	require.NoError(t, store.SaveUnit(ctx, UnitRecord{Path: "a.ts", Key: "a"}, unitGraph("a.ts", "x")))

	units, err := store.ListUnits(ctx)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "a.ts", units[0].Path)
	assert.Equal(t, "b.ts", units[1].Path)

	project, err := store.LoadGraph(ctx)
	require.NoError(t, err)
	assert.Len(t, project.Nodes, 2)

	require.NoError(t, store.DeleteUnit(ctx, "a.ts"))
	require.NoError(t, store.DeleteUnit(ctx, "missing.ts"))

	_, _, err = store.LoadUnit(ctx, "a.ts")
	assert.ErrorIs(t, err, ErrUnitNotFound)

	project, err = store.LoadGraph(ctx)
	require.NoError(t, err)
	assert.Len(t, project.Nodes, 1)
	_, hasY := project.Nodes["b.ts:y"]
	assert.True(t, hasY)
}

func TestSQLiteStore_EmptySnapshotClearsNodes(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUnit(ctx, UnitRecord{Path: "x.ts", Key: "x@1"}, unitGraph("x.ts", "x")))
	require.NoError(t, store.SaveUnit(ctx, UnitRecord{Path: "x.ts", Key: "x@2"}, graph.NewGraph()))

	rec, loaded, err := store.LoadUnit(ctx, "x.ts")
	require.NoError(t, err)
	assert.Equal(t, "x@2", rec.Key)
	assert.Empty(t, loaded.Nodes)
	assert.Empty(t, loaded.Edges)
}
