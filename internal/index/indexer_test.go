package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigtrace/internal/crawler"
	"sigtrace/internal/reactive"
	"sigtrace/internal/rules/vue"
	"sigtrace/internal/storage"
	"sigtrace/internal/symbols"
)

const counter = `const count = ref(0);
const double = computed(() => count.value * 2);
`

func newIndexer(t *testing.T) (*Indexer, *storage.SQLiteStore) {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	a, err := reactive.NewAnalyzer(reactive.Options{Rules: vue.Rules()})
	require.NoError(t, err)
	svc, err := symbols.NewService(0)
	require.NoError(t, err)
	return NewIndexer(crawler.NewCrawler(), a, svc, store), store
}

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestIndexer_IndexProject(t *testing.T) {
	idx, store := newIndexer(t)
	ctx := context.Background()
	root := t.TempDir()
	a := filepath.Join(root, "src", "counter.ts")
	b := filepath.Join(root, "src", "other.js")
	write(t, a, counter)
	write(t, b, "const x = ref(1);\n")
	write(t, filepath.Join(root, "node_modules", "dep", "index.js"), "const y = ref(2);\n")

	stats, err := idx.IndexProject(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, &Stats{Saved: 2}, stats)

	_, g, err := store.LoadUnit(ctx, a)
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Edges, 1)

	t.Run("Unchanged files are skipped", func(t *testing.T) {
		stats, err := idx.IndexProject(ctx, root)
		require.NoError(t, err)
		assert.Equal(t, &Stats{Unchanged: 2}, stats)
	})

	t.Run("Changed and removed files", func(t *testing.T) {
		write(t, a, counter+"watchEffect(() => log(double.value));\n")
		require.NoError(t, os.Remove(b))

		stats, err := idx.IndexProject(ctx, root)
		require.NoError(t, err)
		assert.Equal(t, &Stats{Saved: 1, Removed: 1}, stats)

		_, g, err := store.LoadUnit(ctx, a)
		require.NoError(t, err)
		assert.Len(t, g.Nodes, 3)

		_, _, err = store.LoadUnit(ctx, b)
		assert.ErrorIs(t, err, storage.ErrUnitNotFound)
	})
}

func TestIndexer_RefreshFile(t *testing.T) {
	idx, store := newIndexer(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "counter.ts")
	write(t, path, counter)

	deleted, err := idx.RefreshFile(ctx, path)
	require.NoError(t, err)
	assert.False(t, deleted)

	units, err := store.ListUnits(ctx)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "typescript", units[0].Language)

	require.NoError(t, os.Remove(path))
	deleted, err = idx.RefreshFile(ctx, path)
	require.NoError(t, err)
	assert.True(t, deleted)

	units, err = store.ListUnits(ctx)
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestWithin(t *testing.T) {
	assert.True(t, Within("src", "src/a.ts"))
	assert.True(t, Within(".", "src/a.ts"))
	assert.False(t, Within("src", "lib/a.ts"))
	assert.False(t, Within("src/app", "src/a.ts"))
}
