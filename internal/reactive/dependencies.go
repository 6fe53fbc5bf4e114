package reactive

import (
	sitter "github.com/smacker/go-tree-sitter"

	"sigtrace/internal/rules"
	"sigtrace/internal/syntax"
)

// graph is the read-only state shared by one query's traversals.
type graph struct {
	unit     *syntax.Unit
	signals  []*Node
	accesses *AccessIndex
	services Services
	mapper   RangeMapper
}

// byBinding returns the first node whose binding contains pos.
func (g *graph) byBinding(pos int) *Node {
	for _, n := range g.signals {
		if n.Binding != nil && n.Binding.Contains(pos) {
			return n
		}
	}
	return nil
}

// byCallback returns the innermost node whose callback contains pos.
func (g *graph) byCallback(pos int) *Node {
	var best *Node
	for _, n := range g.signals {
		if n.Callback == nil || !n.Callback.Contains(pos) {
			continue
		}
		if best == nil || n.Callback.Len() < best.Callback.Len() {
			best = n
		}
	}
	return best
}

// byAccessor returns the innermost node whose accessor contains pos.
func (g *graph) byAccessor(pos int) *Node {
	var best *Node
	for _, n := range g.signals {
		if n.Accessor == nil || !n.Accessor.Contains(pos) {
			continue
		}
		if best == nil || n.Accessor.Len() < best.Accessor.Len() {
			best = n
		}
	}
	return best
}

// declarations resolves the identifier at a raw offset to the nodes whose
// binding holds its declaration.
func (g *graph) declarations(ident *sitter.Node) []*Node {
	if g.services.Resolver == nil {
		return nil
	}
	var out []*Node
	for _, loc := range g.services.Resolver.ResolveDeclaration(g.unit.Path, int(ident.StartByte())) {
		if loc.Path != g.unit.Path {
			continue
		}
		r, ok := g.mapper(loc.Offset, loc.Offset)
		if !ok {
			continue
		}
		if n := g.byBinding(r.Start); n != nil {
			out = append(out, n)
		}
	}
	return out
}

// dependencyWalk is the traversal context of a forward query.
type dependencyWalk struct {
	g       *graph
	visited map[*Node]bool
}

func newDependencyWalk(g *graph) *dependencyWalk {
	return &dependencyWalk{g: g, visited: make(map[*Node]bool)}
}

// dependencies returns the binding and callback spans of every signal n
// transitively reads, with the signals themselves. A node that neither is a
// dependency nor reaches one contributes nothing.
func (w *dependencyWalk) dependencies(n *Node) *dependencyAcc {
	if w.visited[n] {
		return &dependencyAcc{}
	}
	w.visited[n] = true

	acc := &dependencyAcc{has: n.IsDependency}
	if n.Accessor != nil {
		root := n.Accessor.Node
		if n.Accessor.RequireAccess {
			w.walkAccesses(root, acc)
		} else {
			w.walkIdentifiers(syntax.KeyOf(root), root, false, acc)
		}
	}
	if !acc.has {
		return &dependencyAcc{}
	}
	return acc
}

type dependencyAcc struct {
	spans []*Span
	nodes []*Node
	has   bool
}

func (a *dependencyAcc) empty() bool {
	return len(a.spans) == 0
}

// found records dep and everything it depends on.
func (w *dependencyWalk) found(dep *Node, acc *dependencyAcc) {
	acc.spans = append(acc.spans, &dep.Binding.Span)
	acc.nodes = append(acc.nodes, dep)
	acc.has = acc.has || dep.IsDependency
	if dep.Callback != nil {
		acc.spans = append(acc.spans, dep.Callback)
	}

	nested := w.dependencies(dep)
	acc.spans = append(acc.spans, nested.spans...)
	acc.nodes = append(acc.nodes, nested.nodes...)
	acc.has = acc.has || !nested.empty()
}

// walkIdentifiers examines bare identifiers: the identifier itself is the
// dependency. Identifiers used as the object of an access are skipped unless
// they sit directly under the accessor root. Function literals met on the
// way are read through their bodies.
func (w *dependencyWalk) walkIdentifiers(root syntax.NodeKey, n *sitter.Node, skip bool, acc *dependencyAcc) {
	atRoot := syntax.KeyOf(n) == root
	switch syntax.Classify(n) {
	case syntax.ShapeIdentifier:
		if !skip {
			for _, dep := range w.g.declarations(n) {
				w.found(dep, acc)
			}
		}
		return
	case syntax.ShapeFunction:
		if fn, ok := syntax.AsFunction(n); ok && !atRoot {
			w.walkAccesses(fn.Body, acc)
			return
		}
	}

	var object *syntax.NodeKey
	if !atRoot {
		switch syntax.Classify(n) {
		case syntax.ShapeMember, syntax.ShapeElement:
			if obj := n.ChildByFieldName("object"); obj != nil {
				key := syntax.KeyOf(obj)
				object = &key
			}
		}
	}
	for _, child := range syntax.NamedChildren(n) {
		w.walkIdentifiers(root, child, object != nil && syntax.KeyOf(child) == *object, acc)
	}
}

// walkAccesses examines property reads, element reads and calls whose base
// is an identifier, keeping only those whose form the signal declares.
func (w *dependencyWalk) walkAccesses(root *sitter.Node, acc *dependencyAcc) {
	src := w.g.unit.Source
	syntax.Walk(root, func(n *sitter.Node) bool {
		base, form, ok := accessForm(n, src)
		if !ok {
			return true
		}
		for _, dep := range w.g.declarations(base) {
			if dep.Binding == nil || !rules.MatchesAny(dep.Binding.AccessTypes, form) {
				continue
			}
			w.found(dep, acc)
		}
		return true
	})
}
