// Package symbols provides single-file definition and reference lookup for
// JavaScript and TypeScript sources using lexical scoping rules.
package symbols

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"sigtrace/internal/syntax"
)

// Location is a declaration site.
type Location struct {
	Path   string `json:"path"`
	Offset int    `json:"offset"`
}

// Reference is one occurrence of a symbol.
type Reference struct {
	Path   string `json:"path"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

// Symbol is a declared name and every occurrence resolved to it.
type Symbol struct {
	Name        string
	Declaration syntax.Range
	Occurrences []syntax.Range
}

// Table answers definition and reference queries for one unit.
type Table struct {
	path    string
	byStart map[int]*Symbol
	sorted  []syntax.Range
}

// Build analyzes the scopes of u and resolves every identifier occurrence.
func Build(u *syntax.Unit) *Table {
	b := &builder{src: u.Source}
	root := newScope(nil, true)
	b.visit(u.Root(), root)
	b.resolve()

	t := &Table{path: u.Path, byStart: make(map[int]*Symbol)}
	for _, sym := range b.symbols {
		sort.Slice(sym.Occurrences, func(i, j int) bool {
			return sym.Occurrences[i].Start < sym.Occurrences[j].Start
		})
		for _, occ := range sym.Occurrences {
			t.byStart[occ.Start] = sym
			t.sorted = append(t.sorted, occ)
		}
	}
	sort.Slice(t.sorted, func(i, j int) bool { return t.sorted[i].Start < t.sorted[j].Start })
	return t
}

// SymbolAt returns the symbol whose occurrence starts at, or spans, offset.
func (t *Table) SymbolAt(offset int) (*Symbol, bool) {
	if sym, ok := t.byStart[offset]; ok {
		return sym, true
	}
	i := sort.Search(len(t.sorted), func(i int) bool { return t.sorted[i].Start > offset }) - 1
	if i >= 0 && t.sorted[i].Contains(offset) {
		return t.byStart[t.sorted[i].Start], true
	}
	return nil, false
}

// ResolveDeclaration returns the declaration of the identifier at offset.
// Identifiers that resolve to no local declaration yield nothing.
func (t *Table) ResolveDeclaration(path string, offset int) []Location {
	if path != t.path {
		return nil
	}
	sym, ok := t.SymbolAt(offset)
	if !ok {
		return nil
	}
	return []Location{{Path: t.path, Offset: sym.Declaration.Start}}
}

// FindReferences returns every occurrence of the symbol declared (or used)
// at offset, including the declaration itself, in document order.
func (t *Table) FindReferences(path string, offset int) []Reference {
	if path != t.path {
		return nil
	}
	sym, ok := t.SymbolAt(offset)
	if !ok {
		return nil
	}
	refs := make([]Reference, 0, len(sym.Occurrences))
	for _, occ := range sym.Occurrences {
		refs = append(refs, Reference{Path: t.path, Offset: occ.Start, Length: occ.Len()})
	}
	return refs
}

type scope struct {
	parent   *scope
	function bool
	names    map[string]*Symbol
}

func newScope(parent *scope, function bool) *scope {
	return &scope{parent: parent, function: function, names: make(map[string]*Symbol)}
}

func (s *scope) hoistTarget() *scope {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.function {
			return cur
		}
	}
	return s
}

func (s *scope) lookup(name string) *Symbol {
	for cur := s; cur != nil; cur = cur.parent {
		if sym, ok := cur.names[name]; ok {
			return sym
		}
	}
	return nil
}

type pending struct {
	node  *sitter.Node
	scope *scope
}

type builder struct {
	src     []byte
	symbols []*Symbol
	refs    []pending
}

func (b *builder) declare(n *sitter.Node, s *scope) {
	name := n.Content(b.src)
	if existing, ok := s.names[name]; ok {
		// Redeclaration (var, function overloads) joins the first symbol.
		existing.Occurrences = append(existing.Occurrences, syntax.NodeRange(n))
		return
	}
	r := syntax.NodeRange(n)
	sym := &Symbol{Name: name, Declaration: r, Occurrences: []syntax.Range{r}}
	s.names[name] = sym
	b.symbols = append(b.symbols, sym)
}

func (b *builder) reference(n *sitter.Node, s *scope) {
	b.refs = append(b.refs, pending{node: n, scope: s})
}

// resolve runs after every scope is populated so hoisted and later
// declarations are visible to earlier references.
func (b *builder) resolve() {
	for _, ref := range b.refs {
		sym := ref.scope.lookup(ref.node.Content(b.src))
		if sym == nil {
			continue
		}
		sym.Occurrences = append(sym.Occurrences, syntax.NodeRange(ref.node))
	}
}
