package graph

// KindCounts returns how many nodes of each kind the graph holds.
func (g *Graph) KindCounts() map[NodeKind]int {
	counts := make(map[NodeKind]int)
	if g == nil {
		return counts
	}
	for _, n := range g.Nodes {
		counts[n.Symbol.Kind]++
	}
	return counts
}
