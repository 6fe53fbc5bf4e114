package analysis

import (
	"sigtrace/internal/git"
	"sigtrace/internal/graph"
)

// ImpactReport summarizes the reactive nodes affected by changes.
type ImpactReport struct {
	DirectlyAffected   []*graph.Node
	IndirectlyAffected []*graph.Node
}

// Analyzer performs impact analysis on the reactive graph.
type Analyzer struct {
	g *graph.Graph
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(g *graph.Graph) *Analyzer {
	return &Analyzer{g: g}
}

// AnalyzeImpact identifies which nodes are affected by the given changes.
// A node is directly affected when a changed line falls inside it, and
// indirectly affected when it transitively reads a directly affected node.
func (a *Analyzer) AnalyzeImpact(changes []git.ChangedFile) (*ImpactReport, error) {
	report := &ImpactReport{
		DirectlyAffected:   []*graph.Node{},
		IndirectlyAffected: []*graph.Node{},
	}

	seenDirect := make(map[string]bool)
	seenIndirect := make(map[string]bool)

	// 1. Find Direct Impacts
	for _, change := range changes {
		for _, node := range a.g.Ordered() {
			if node.Symbol.Filepath != change.Path || !isAffected(node, change.ChangedLines) {
				continue
			}
			if !seenDirect[node.Symbol.ID] {
				report.DirectlyAffected = append(report.DirectlyAffected, node)
				seenDirect[node.Symbol.ID] = true
			}
		}
	}

	// 2. Find Indirect Impacts (readers, transitively)
	queue := append([]*graph.Node(nil), report.DirectlyAffected...)
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, dep := range a.g.GetDependents(node.Symbol.ID) {
			if seenDirect[dep.Symbol.ID] || seenIndirect[dep.Symbol.ID] {
				continue
			}
			report.IndirectlyAffected = append(report.IndirectlyAffected, dep)
			seenIndirect[dep.Symbol.ID] = true
			queue = append(queue, dep)
		}
	}

	return report, nil
}

func isAffected(node *graph.Node, lines []int) bool {
	for _, line := range lines {
		if line >= node.Symbol.StartLine && line <= node.Symbol.EndLine {
			return true
		}
	}
	return false
}
