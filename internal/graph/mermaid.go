package graph

import (
	"fmt"
	"regexp"
	"strings"
)

var mermaidUnsafe = regexp.MustCompile(`[^a-z0-9_]`)

// Mermaid renders the graph as a flowchart. Arrows follow the data: a signal
// points at every node that reads it.
func (g *Graph) Mermaid() string {
	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("flowchart LR\n")

	ids := make(map[string]string, len(g.order))
	for i, n := range g.Ordered() {
		id := fmt.Sprintf("n%d_%s", i, sanitizeMermaidID(n.Symbol.Label()))
		ids[n.Symbol.ID] = id
		label := fmt.Sprintf("%s<br/>%s L%d", n.Symbol.Label(), n.Symbol.Kind, n.Symbol.StartLine)
		sb.WriteString(fmt.Sprintf("    %s%s\n", id, shape(n.Symbol.Kind, label)))
	}

	for _, e := range g.Edges {
		from, to := ids[e.To], ids[e.From]
		if from == "" || to == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", from, to))
	}

	sb.WriteString("```\n")
	return sb.String()
}

func shape(kind NodeKind, label string) string {
	switch kind {
	case KindEffect:
		return fmt.Sprintf("([%q])", label)
	case KindDerived:
		return fmt.Sprintf("[[%q]]", label)
	case KindFunction:
		return fmt.Sprintf("[/%q/]", label)
	default:
		return fmt.Sprintf("[%q]", label)
	}
}

func sanitizeMermaidID(v string) string {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "" {
		return "node"
	}
	v = mermaidUnsafe.ReplaceAllString(strings.ReplaceAll(v, "-", "_"), "_")
	if v == "" {
		return "node"
	}
	return v
}
