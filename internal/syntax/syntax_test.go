package syntax

import (
	"context"
	"errors"
	"strings"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, path, src string) *Unit {
	t.Helper()
	u, err := Parse(context.Background(), path, []byte(src))
	require.NoError(t, err)
	t.Cleanup(u.Close)
	return u
}

func find(u *Unit, typ, text string) *sitter.Node {
	var found *sitter.Node
	Walk(u.Root(), func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.Type() == typ && u.Content(n) == text {
			found = n
			return false
		}
		return true
	})
	return found
}

func TestDetectLanguage(t *testing.T) {
	cases := map[string]Language{
		"a.js":  JavaScript,
		"a.mjs": JavaScript,
		"a.ts":  TypeScript,
		"a.tsx": TSX,
	}
	for path, want := range cases {
		got, err := DetectLanguage(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := DetectLanguage("a.go")
	assert.True(t, errors.Is(err, ErrUnsupportedLanguage))
	assert.False(t, IsSource("README.md"))
}

func TestUnit_KeyChangesWithContent(t *testing.T) {
	a := parse(t, "a.js", "const a = 1;")
	b := parse(t, "a.js", "const a = 1;")
	c := parse(t, "a.js", "const a = 2;")

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.True(t, strings.HasPrefix(a.Key(), "a.js@"))
}

func TestUnit_PositionRoundTrip(t *testing.T) {
	u := parse(t, "a.js", "const a = 1;\nconst b = a;\n")
	off := strings.Index(string(u.Source), "b =")

	line, col := u.Position(off)
	assert.Equal(t, 2, line)
	assert.Equal(t, 7, col)

	back, ok := u.Offset(line, col)
	require.True(t, ok)
	assert.Equal(t, off, back)

	_, ok = u.Offset(10, 1)
	assert.False(t, ok)
}

func TestCaptures(t *testing.T) {
	src := `const { count, name: alias, size = 1 } = toRefs(state);
const total = state["total"] + state[key] + state.other;
const obj = { get() { return 1 }, set: (v) => v };`
	u := parse(t, "a.js", src)

	t.Run("Call", func(t *testing.T) {
		call, ok := AsCall(find(u, "call_expression", "toRefs(state)"))
		require.True(t, ok)
		name, ok := call.CalleeName(u.Source)
		require.True(t, ok)
		assert.Equal(t, "toRefs", name)
		require.Len(t, call.Args, 1)
		assert.Equal(t, "state", u.Content(call.Arg(0)))
		assert.Nil(t, call.Arg(3))
	})

	t.Run("ObjectPattern", func(t *testing.T) {
		var pattern *sitter.Node
		Walk(u.Root(), func(n *sitter.Node) bool {
			if pattern == nil && n.Type() == "object_pattern" {
				pattern = n
			}
			return pattern == nil
		})
		p, ok := AsObjectPattern(pattern, u.Source)
		require.True(t, ok)
		require.Len(t, p.Elements, 3)
		assert.Equal(t, "count", p.Elements[0].Key)
		assert.Equal(t, "name", p.Elements[1].Key)
		assert.Equal(t, "alias", u.Content(p.Elements[1].Local))
		assert.Equal(t, "size", u.Content(p.Elements[2].Local))
		assert.Equal(t, "alias", u.Content(DeclaredIdentifier(p.Elements[1].Node)))
	})

	t.Run("Element", func(t *testing.T) {
		lit, ok := AsElement(find(u, "subscript_expression", `state["total"]`))
		require.True(t, ok)
		key, ok := lit.Key(u.Source)
		require.True(t, ok)
		assert.Equal(t, "total", key)

		dyn, ok := AsElement(find(u, "subscript_expression", "state[key]"))
		require.True(t, ok)
		_, ok = dyn.Key(u.Source)
		assert.False(t, ok)
	})

	t.Run("Member", func(t *testing.T) {
		m, ok := AsMember(find(u, "member_expression", "state.other"))
		require.True(t, ok)
		assert.Equal(t, "other", m.Name(u.Source))
		assert.Equal(t, ShapeIdentifier, Classify(m.Object))
	})

	t.Run("Object", func(t *testing.T) {
		var lit *sitter.Node
		Walk(u.Root(), func(n *sitter.Node) bool {
			if lit == nil && n.Type() == "object" {
				lit = n
			}
			return lit == nil
		})
		o, ok := AsObject(lit, u.Source)
		require.True(t, ok)
		get, ok := o.Lookup("get")
		require.True(t, ok)
		fn, ok := AsFunction(get)
		require.True(t, ok)
		assert.Equal(t, ShapeBlock, Classify(fn.Body))
		assert.Len(t, BlockStatements(fn.Body), 1)

		set, ok := o.Lookup("set")
		require.True(t, ok)
		assert.Equal(t, ShapeFunction, Classify(set))
	})
}

func TestUnwrap(t *testing.T) {
	u := parse(t, "a.ts", "const a = (b!).value;")
	m, ok := AsMember(find(u, "member_expression", "(b!).value"))
	require.True(t, ok)
	assert.Equal(t, "b", u.Content(Unwrap(m.Object)))
}

func TestRange(t *testing.T) {
	r := Range{Start: 2, End: 5}
	assert.True(t, r.Contains(2))
	assert.True(t, r.Contains(5))
	assert.False(t, r.Contains(6))
	assert.Equal(t, 3, r.Len())
}
