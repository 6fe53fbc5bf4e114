package crawler

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigtrace/internal/syntax"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCrawler_ScanProject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/store.ts", "const count = ref(0);\n")
	writeFile(t, root, "src/view.jsx", "const el = <div>{count.value}</div>;\n")
	writeFile(t, root, "src/types.d.ts", "declare const x: number;\n")
	writeFile(t, root, "src/vendor.min.js", "var a=1;\n")
	writeFile(t, root, "src/readme.md", "# docs\n")
	writeFile(t, root, "node_modules/vue/index.js", "export {};\n")
	writeFile(t, root, "generated/out.js", "export {};\n")

	c := NewCrawler("generated")

	var found []string
	err := c.ScanProject(context.Background(), root, func(u *syntax.Unit) error {
		rel, err := filepath.Rel(root, u.Path)
		require.NoError(t, err)
		found = append(found, filepath.ToSlash(rel))
		assert.NotNil(t, u.Root())
		return nil
	})
	require.NoError(t, err)

	sort.Strings(found)
	assert.Equal(t, []string{"src/store.ts", "src/view.jsx"}, found)
}

func TestCrawler_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "const a = 1;\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewCrawler().ScanProject(ctx, root, func(*syntax.Unit) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
