package retrieval

import (
	"sort"

	"sigtrace/internal/git"
	"sigtrace/internal/graph"
)

// Direction selects which edges a traversal follows from a node.
type Direction int

const (
	// Both follows reads in either direction.
	Both Direction = iota
	// Upstream follows a reader to the signals it reads.
	Upstream
	// Downstream follows a signal to its readers.
	Downstream
)

// Config controls how subgraphs are extracted.
type Config struct {
	MaxHops   int
	Direction Direction
}

func DefaultConfig() Config {
	return Config{
		MaxHops:   2,
		Direction: Both,
	}
}

// Subgraph is the neighbourhood of a set of seed nodes.
type Subgraph struct {
	MaxHops int
	SeedIDs []string
	NodeIDs []string
	Depth   map[string]int
	Edges   []graph.Edge
}

// ExtractFromChanges seeds the traversal with the nodes touched by changes.
func ExtractFromChanges(g *graph.Graph, changes []git.ChangedFile, cfg Config) *Subgraph {
	if g == nil {
		return &Subgraph{Depth: map[string]int{}}
	}
	seeds := make(map[string]bool)
	for _, ch := range changes {
		for _, node := range g.Ordered() {
			if node.Symbol.Filepath != ch.Path {
				continue
			}
			if !lineRangeOverlaps(node.Symbol.StartLine, node.Symbol.EndLine, ch.ChangedLines) {
				continue
			}
			seeds[node.Symbol.ID] = true
		}
	}
	return Extract(g, sortedKeys(seeds), cfg)
}

// ExtractByName seeds the traversal with every node labelled name.
func ExtractByName(g *graph.Graph, name string, cfg Config) *Subgraph {
	if g == nil {
		return &Subgraph{Depth: map[string]int{}}
	}
	var seeds []string
	for _, node := range g.Ordered() {
		if node.Symbol.Label() == name {
			seeds = append(seeds, node.Symbol.ID)
		}
	}
	return Extract(g, seeds, cfg)
}

// Extract walks at most cfg.MaxHops edges away from the seeds.
func Extract(g *graph.Graph, seedIDs []string, cfg Config) *Subgraph {
	if cfg.MaxHops < 0 {
		cfg.MaxHops = 0
	}
	sg := &Subgraph{
		MaxHops: cfg.MaxHops,
		SeedIDs: seedIDs,
		Depth:   make(map[string]int, len(seedIDs)),
	}
	if g == nil || len(seedIDs) == 0 {
		return sg
	}

	adj := make(map[string][]edgeHop)
	for _, e := range g.Edges {
		if cfg.Direction != Downstream {
			adj[e.From] = append(adj[e.From], edgeHop{to: e.To, edge: e})
		}
		if cfg.Direction != Upstream {
			adj[e.To] = append(adj[e.To], edgeHop{to: e.From, edge: e})
		}
	}

	queue := make([]queueItem, 0, len(seedIDs))
	for _, id := range seedIDs {
		sg.Depth[id] = 0
		queue = append(queue, queueItem{id: id, depth: 0})
	}

	edgeSeen := make(map[graph.Edge]bool)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= cfg.MaxHops {
			continue
		}

		for _, next := range adj[cur.id] {
			if !edgeSeen[next.edge] {
				edgeSeen[next.edge] = true
				sg.Edges = append(sg.Edges, next.edge)
			}

			nextDepth := cur.depth + 1
			prevDepth, seen := sg.Depth[next.to]
			if !seen || nextDepth < prevDepth {
				sg.Depth[next.to] = nextDepth
				queue = append(queue, queueItem{id: next.to, depth: nextDepth})
			}
		}
	}

	sg.NodeIDs = sortedKeys(sg.Depth)
	sort.Slice(sg.Edges, func(i, j int) bool {
		if sg.Edges[i].From == sg.Edges[j].From {
			return sg.Edges[i].To < sg.Edges[j].To
		}
		return sg.Edges[i].From < sg.Edges[j].From
	})
	return sg
}

// Graph materializes the subgraph from g, keeping g's node order.
func (sg *Subgraph) Graph(g *graph.Graph) *graph.Graph {
	out := graph.NewGraph()
	for _, node := range g.Ordered() {
		if _, ok := sg.Depth[node.Symbol.ID]; ok {
			out.AddNode(node.Symbol, node.Source)
		}
	}
	for _, e := range sg.Edges {
		out.Link(e.From, e.To, e.Kind)
	}
	return out
}

type queueItem struct {
	id    string
	depth int
}

type edgeHop struct {
	to   string
	edge graph.Edge
}

func lineRangeOverlaps(start, end int, changed []int) bool {
	if len(changed) == 0 {
		return true
	}
	for _, line := range changed {
		if line >= start && line <= end {
			return true
		}
	}
	return false
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
