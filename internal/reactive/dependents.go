package reactive

import (
	sitter "github.com/smacker/go-tree-sitter"

	"sigtrace/internal/syntax"
)

// dependentWalk is the traversal context of a backward query.
type dependentWalk struct {
	g       *graph
	visited map[*Node]bool
}

func newDependentWalk(g *graph) *dependentWalk {
	return &dependentWalk{g: g, visited: make(map[*Node]bool)}
}

// dependents returns every effect transitively reading n. Intermediate nodes
// are kept only when they run something or lead to something that does.
func (w *dependentWalk) dependents(n *Node) []*Node {
	if n.Binding == nil || w.visited[n] {
		return nil
	}
	w.visited[n] = true

	var out []*Node
	for _, owner := range w.g.readers(n) {
		nested := w.dependents(owner)
		out = append(out, nested...)
		if owner.IsDependent || len(nested) > 0 {
			out = append(out, owner)
		}
	}
	return out
}

// readers returns, once per matching reference and in reference order, the
// innermost node whose accessor reads n in a form n's binding permits.
func (g *graph) readers(n *Node) []*Node {
	if n.Binding == nil || g.services.Finder == nil {
		return nil
	}
	var out []*Node
	for _, ref := range g.services.Finder.FindReferences(g.unit.Path, declarationOffset(n)) {
		if ref.Path != g.unit.Path {
			continue
		}
		r, ok := g.mapper(ref.Offset, ref.Offset+ref.Length)
		if !ok {
			continue
		}
		owner := g.byAccessor(r.Start)
		if owner == nil {
			continue
		}
		if owner.Accessor.RequireAccess {
			if !g.accesses.Accepts(r.End, n.Binding.AccessTypes) {
				continue
			}
		} else if !g.bareRead(n, owner.Accessor, ref.Offset, ref.Offset+ref.Length, r.End) {
			continue
		}
		out = append(out, owner)
	}
	return out
}

// bareRead reports whether a reference inside an accessor that does not
// require access reads n. It mirrors walkIdentifiers: below a nested function
// literal the reference must be accessed in a form n declares, and the object
// of a nested property or element access is not a read.
func (g *graph) bareRead(n *Node, accessor *Accessor, start, end, mappedEnd int) bool {
	ref := g.unit.Root().NamedDescendantForByteRange(uint32(start), uint32(end))
	if ref == nil {
		return true
	}
	root := syntax.KeyOf(accessor.Node)
	if syntax.KeyOf(ref) == root {
		return true
	}

	parent := ref.Parent()
	for p := parent; p != nil && syntax.KeyOf(p) != root; p = p.Parent() {
		if syntax.Is(p, syntax.ShapeFunction) {
			return g.accesses.Accepts(mappedEnd, n.Binding.AccessTypes)
		}
	}
	return !objectOf(parent, ref, root)
}

// objectOf reports whether ref is the object of a member or element access
// other than the accessor root itself.
func objectOf(parent, ref *sitter.Node, root syntax.NodeKey) bool {
	if parent == nil || syntax.KeyOf(parent) == root {
		return false
	}
	if !syntax.Is(parent, syntax.ShapeMember) && !syntax.Is(parent, syntax.ShapeElement) {
		return false
	}
	obj := parent.ChildByFieldName("object")
	return obj != nil && syntax.KeyOf(obj) == syntax.KeyOf(ref)
}

// declarationOffset is the raw offset of the identifier a binding declares.
func declarationOffset(n *Node) int {
	if id := syntax.DeclaredIdentifier(n.Binding.Node); id != nil {
		return int(id.StartByte())
	}
	return int(n.Binding.Node.StartByte())
}
