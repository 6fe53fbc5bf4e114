// Package reactive infers the reactive graph of a source unit: which bindings
// are signals, which expressions are effects, and how they depend on each
// other.
package reactive

import (
	sitter "github.com/smacker/go-tree-sitter"

	"sigtrace/internal/rules"
	"sigtrace/internal/symbols"
	"sigtrace/internal/syntax"
)

// Span is a mapped source range and the syntax node it was taken from.
type Span struct {
	syntax.Range
	Node *sitter.Node `json:"-"`
}

// Binding is the declaration site of a signal.
type Binding struct {
	Span
	AccessTypes []rules.AccessType `json:"accessTypes"`
}

// Accessor is the expression whose reads determine a node's dependencies.
// When RequireAccess is false the referenced identifier itself is the
// dependency and no access-type filtering applies.
type Accessor struct {
	Span
	RequireAccess bool `json:"requireAccess"`
}

// Node is one participant of the reactive graph.
//
// Co-signals produced by one destructuring call share Accessor and Callback
// pointers and differ only in Binding.
type Node struct {
	IsDependency bool      `json:"isDependency"`
	IsDependent  bool      `json:"isDependent"`
	Binding      *Binding  `json:"binding,omitempty"`
	Accessor     *Accessor `json:"accessor,omitempty"`
	Callback     *Span     `json:"callback,omitempty"`

	// Name is the identifier the binding declares, if any.
	Name string `json:"name,omitempty"`
	// Callee is the recognized call, or "function" for implicit function signals.
	Callee string `json:"callee"`
}

// RangeMapper translates raw byte offsets to the caller's coordinate space.
// Returning false drops whatever would have been reported for the range.
type RangeMapper func(start, end int) (syntax.Range, bool)

// Identity is the default RangeMapper.
func Identity(start, end int) (syntax.Range, bool) {
	return syntax.Range{Start: start, End: end}, true
}

// DeclarationResolver finds the declaration sites of the identifier starting
// at a raw offset.
type DeclarationResolver interface {
	ResolveDeclaration(path string, offset int) []symbols.Location
}

// ReferenceFinder lists every reference to the symbol declared at a raw offset.
type ReferenceFinder interface {
	FindReferences(path string, offset int) []symbols.Reference
}

// Services are the symbol collaborators Analyze needs. *symbols.Table
// satisfies both.
type Services struct {
	Resolver DeclarationResolver
	Finder   ReferenceFinder
}

// TableServices adapts a symbol table.
func TableServices(t *symbols.Table) Services {
	return Services{Resolver: t, Finder: t}
}

// Result is the answer to a query.
type Result struct {
	// Node is the queried node.
	Node             *Node          `json:"node"`
	Dependencies     []*Node        `json:"-"`
	Dependents       []*Node        `json:"-"`
	DependencyRanges []syntax.Range `json:"dependencyRanges"`
	DependentRanges  []syntax.Range `json:"dependentRanges"`
}
