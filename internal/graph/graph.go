package graph

import (
	"fmt"

	"sigtrace/internal/reactive"
	"sigtrace/internal/syntax"
)

// Node represents a vertex in the reactive graph.
type Node struct {
	Symbol *Symbol
	Source *reactive.Node
}

// Edge represents a directed relationship between two nodes.
type Edge struct {
	From string // Reader ID
	To   string // Signal ID
	Kind EdgeKind
}

// Graph manages nodes and their relationships.
type Graph struct {
	Nodes map[string]*Node
	Edges []Edge

	// order keeps document order for deterministic output.
	order []string
	// bySource maps analyzer nodes to graph IDs.
	bySource map[*reactive.Node]string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:    make(map[string]*Node),
		Edges:    []Edge{},
		bySource: make(map[*reactive.Node]string),
	}
}

// Build materializes every direct read of a unit.
func Build(u *syntax.Unit, a *reactive.Analyzer, svc reactive.Services) *Graph {
	g := NewGraph()
	for _, n := range a.Collect(u).Signals {
		g.AddNode(FromReactiveNode(u, n), n)
	}
	for _, e := range a.Edges(u, svc) {
		from, ok := g.bySource[e.To]
		if !ok {
			continue
		}
		to, ok := g.bySource[e.From]
		if !ok {
			continue
		}
		g.Link(from, to, EdgeReads)
	}
	return g
}

// FromReactiveNode converts analyzer output into a graph-domain Symbol.
func FromReactiveNode(u *syntax.Unit, n *reactive.Node) *Symbol {
	s := &Symbol{
		Filepath: u.Path,
		Name:     n.Name,
		Callee:   n.Callee,
		Kind:     kindOf(n),
	}

	anchor := n.Callback
	if n.Binding != nil {
		anchor = &n.Binding.Span
	}
	if anchor != nil && anchor.Node != nil {
		start := int(anchor.Node.StartByte())
		line, col := u.Position(start)
		s.ID = fmt.Sprintf("%s:%d:%d", u.Path, line, col)
		s.StartLine = line
		s.EndLine = line
	}
	if n.Callback != nil && n.Callback.Node != nil {
		s.EndLine, _ = u.Position(int(n.Callback.Node.EndByte()))
	}
	return s
}

func kindOf(n *reactive.Node) NodeKind {
	switch {
	case n.Callee == "function":
		return KindFunction
	case n.IsDependency && n.IsDependent:
		return KindDerived
	case n.IsDependent:
		return KindEffect
	default:
		return KindSignal
	}
}

// AddNode adds a symbol as a node. Symbols without an ID are ignored.
func (g *Graph) AddNode(s *Symbol, source *reactive.Node) {
	if s == nil || s.ID == "" {
		return
	}
	if _, ok := g.Nodes[s.ID]; !ok {
		g.order = append(g.order, s.ID)
	}
	g.Nodes[s.ID] = &Node{Symbol: s, Source: source}
	if source != nil {
		g.bySource[source] = s.ID
	}
}

// Link records that from depends on to. Duplicate edges are ignored.
func (g *Graph) Link(from, to string, kind EdgeKind) {
	for _, e := range g.Edges {
		if e.From == from && e.To == to && e.Kind == kind {
			return
		}
	}
	g.Edges = append(g.Edges, Edge{From: from, To: to, Kind: kind})
}

// Ordered returns the nodes in document order.
func (g *Graph) Ordered() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.Nodes[id])
	}
	return out
}

// Lookup returns the graph node of an analyzer node.
func (g *Graph) Lookup(n *reactive.Node) (*Node, bool) {
	id, ok := g.bySource[n]
	if !ok {
		return nil, false
	}
	return g.Nodes[id], true
}

// GetDependencies returns all nodes that the given node depends on.
func (g *Graph) GetDependencies(id string) []*Node {
	var deps []*Node
	for _, edge := range g.Edges {
		if edge.From == id {
			if node, ok := g.Nodes[edge.To]; ok {
				deps = append(deps, node)
			}
		}
	}
	return deps
}

// GetDependents returns all nodes that depend on the given node.
func (g *Graph) GetDependents(id string) []*Node {
	var deps []*Node
	for _, edge := range g.Edges {
		if edge.To == id {
			if node, ok := g.Nodes[edge.From]; ok {
				deps = append(deps, node)
			}
		}
	}
	return deps
}
