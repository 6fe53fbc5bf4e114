package syntax

import sitter "github.com/smacker/go-tree-sitter"

// Walk visits n and its named descendants in pre-order. Returning false from
// fn skips the children of the current node.
func Walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range NamedChildren(n) {
		Walk(child, fn)
	}
}

// NamedChildren returns the named children of n, comments excluded.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// NodeKey identifies a node inside a single tree.
type NodeKey struct {
	Start uint32
	End   uint32
	Type  string
}

// KeyOf returns the identity key of n.
func KeyOf(n *sitter.Node) NodeKey {
	return NodeKey{Start: n.StartByte(), End: n.EndByte(), Type: n.Type()}
}
