package reactive

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"sigtrace/internal/syntax"
)

// Analyzer answers reactive queries and memoizes one Collection per unit.
//
// Entries are keyed by path and content hash but only reused for the unit
// they were collected from: a collection holds nodes of that unit's tree, so
// a reparsed unit with the same content replaces the entry. Evict drops the
// entries of a path.
type Analyzer struct {
	opts  Options
	cache *lru.Cache[string, *Collection]
}

// NewAnalyzer creates an analyzer for one rule set.
func NewAnalyzer(opts Options) (*Analyzer, error) {
	opts = opts.withDefaults()
	cache, err := lru.New[string, *Collection](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection cache: %w", err)
	}
	return &Analyzer{opts: opts, cache: cache}, nil
}

// Collect returns the memoized collection of u.
func (a *Analyzer) Collect(u *syntax.Unit) *Collection {
	if c, ok := a.cache.Get(u.Key()); ok && c.unit == u {
		return c
	}
	c := Collect(u, a.opts)
	a.cache.Add(u.Key(), c)
	a.opts.Logger.Debug("collected unit",
		slog.String("path", u.Path),
		slog.Int("signals", len(c.Signals)))
	return c
}

// Evict drops every cached collection of path and returns how many were held.
func (a *Analyzer) Evict(path string) int {
	n := 0
	for _, key := range a.cache.Keys() {
		i := strings.LastIndex(key, "@")
		if i >= 0 && key[:i] == path && a.cache.Remove(key) {
			n++
		}
	}
	return n
}

func (a *Analyzer) graph(u *syntax.Unit, svc Services) *graph {
	c := a.Collect(u)
	return &graph{
		unit:     u,
		signals:  c.Signals,
		accesses: c.Accesses,
		services: svc,
		mapper:   a.opts.Mapper,
	}
}

func (g *graph) at(pos int) (*Node, bool) {
	if n := g.byBinding(pos); n != nil {
		return n, true
	}
	if n := g.byCallback(pos); n != nil {
		return n, true
	}
	return nil, false
}

// Analyze computes the dependencies and dependents of the node under pos.
// It returns false when pos matches nothing or when the node has no proven
// relationships worth reporting.
func (a *Analyzer) Analyze(u *syntax.Unit, pos int, svc Services) (*Result, bool) {
	g := a.graph(u, svc)
	n, ok := g.at(pos)
	if !ok {
		a.opts.Logger.Debug("no reactive node at position",
			slog.String("path", u.Path),
			slog.Int("pos", pos))
		return nil, false
	}

	deps := newDependencyWalk(g).dependencies(n)
	dependents := uniqueNodes(newDependentWalk(g).dependents(n))

	provenDependency := n.IsDependency || !deps.empty()
	provenDependent := n.IsDependent || len(dependents) > 0
	if a.opts.Strict {
		if !provenDependency || !provenDependent {
			return nil, false
		}
	} else if !provenDependency && !provenDependent {
		return nil, false
	}

	res := &Result{
		Node:         n,
		Dependencies: uniqueNodes(deps.nodes),
		Dependents:   dependents,
	}
	for _, s := range deps.spans {
		if r, ok := g.reduce(s); ok {
			res.DependencyRanges = append(res.DependencyRanges, r)
		}
	}
	for _, d := range dependents {
		if d.Callback == nil {
			continue
		}
		if r, ok := g.reduce(d.Callback); ok {
			res.DependentRanges = append(res.DependentRanges, r)
		}
	}
	res.DependencyRanges = uniqueRanges(res.DependencyRanges)
	res.DependentRanges = uniqueRanges(res.DependentRanges)
	return res, true
}

// Edge is a direct read: From is a signal whose binding is read inside the
// accessor of To.
type Edge struct {
	From *Node
	To   *Node
}

// Edges lists every direct read in the unit, in signal order.
func (a *Analyzer) Edges(u *syntax.Unit, svc Services) []Edge {
	g := a.graph(u, svc)
	var out []Edge
	for _, n := range g.signals {
		seen := make(map[*Node]bool)
		for _, reader := range g.readers(n) {
			if seen[reader] {
				continue
			}
			seen[reader] = true
			out = append(out, Edge{From: n, To: reader})
		}
	}
	return out
}

// reduce turns a span into its reported range: the statements of a non-empty
// block without its braces, the span itself otherwise.
func (g *graph) reduce(s *Span) (syntax.Range, bool) {
	stmts := syntax.BlockStatements(s.Node)
	if len(stmts) == 0 {
		return s.Range, true
	}
	first, last := stmts[0], stmts[len(stmts)-1]
	return g.mapper(int(first.StartByte()), int(last.EndByte()))
}

func uniqueNodes(in []*Node) []*Node {
	seen := make(map[*Node]bool, len(in))
	out := make([]*Node, 0, len(in))
	for _, n := range in {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func uniqueRanges(in []syntax.Range) []syntax.Range {
	sort.Slice(in, func(i, j int) bool {
		if in[i].Start != in[j].Start {
			return in[i].Start < in[j].Start
		}
		return in[i].End < in[j].End
	})
	out := in[:0]
	for i, r := range in {
		if i > 0 && r == in[i-1] {
			continue
		}
		out = append(out, r)
	}
	return out
}
