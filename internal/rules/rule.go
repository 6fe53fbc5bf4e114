// Package rules defines how reactive primitives are recognized: a rule
// matches a callee name and classifies parts of the call.
package rules

import (
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"

	"sigtrace/internal/syntax"
)

// TriggerKind is the role a call sub-expression plays in reactivity.
type TriggerKind string

const (
	// Accessor is read to determine dependencies.
	Accessor TriggerKind = "accessor"
	// Callback runs when the dependencies change.
	Callback TriggerKind = "callback"
	// Effect is both accessor and callback.
	Effect TriggerKind = "effect"
)

// ClassificationKind tags a Classification.
type ClassificationKind int

const (
	KindSignal ClassificationKind = iota + 1
	KindTrigger
)

// Classification is what a rule reports about one node: either a signal
// declaration with its permitted access types, or a trigger role.
type Classification struct {
	Kind        ClassificationKind
	Node        *sitter.Node
	AccessTypes []AccessType
	Trigger     TriggerKind
}

// Signal declares node as a dependable binding.
func Signal(node *sitter.Node, types ...AccessType) Classification {
	return Classification{Kind: KindSignal, Node: node, AccessTypes: types}
}

// Trigger classifies node as contributing to the call's reactive behavior.
func Trigger(kind TriggerKind, node *sitter.Node) Classification {
	return Classification{Kind: KindTrigger, Node: node, Trigger: kind}
}

// Context is what a rule sees at a recognized call site.
type Context struct {
	// Binding is the identifier or pattern the call initializes, if any.
	Binding *sitter.Node
	Call    syntax.Call
	Source  []byte
}

// NameMatcher tests a callee identifier.
type NameMatcher interface {
	Match(name string) bool
	String() string
}

type exactName string

func (e exactName) Match(name string) bool { return string(e) == name }
func (e exactName) String() string         { return string(e) }

type patternName struct{ re *regexp.Regexp }

func (p patternName) Match(name string) bool { return p.re.MatchString(name) }
func (p patternName) String() string         { return "/" + p.re.String() + "/" }

// Exact matches one callee name.
func Exact(name string) NameMatcher {
	return exactName(name)
}

// Pattern matches callee names against a regular expression. It panics on
// an invalid expression and is meant for rule sets defined in code.
func Pattern(expr string) NameMatcher {
	return patternName{re: regexp.MustCompile(expr)}
}

// Regexp wraps a compiled expression.
func Regexp(re *regexp.Regexp) NameMatcher {
	return patternName{re: re}
}

// Rule recognizes calls by callee name.
type Rule struct {
	Name NameMatcher
	// Accepts, when set, checks the shape of the call site. A rejected call
	// is offered to the next rule whose name matches.
	Accepts func(Context) bool
	Resolve func(Context) []Classification
}

// Set is an ordered rule list. The first rule whose name matches and whose
// shape check passes wins.
type Set []Rule

// Find returns the first rule matching callee that accepts ctx.
func (s Set) Find(callee string, ctx Context) (Rule, bool) {
	for _, r := range s {
		if r.Name == nil || !r.Name.Match(callee) {
			continue
		}
		if r.Accepts != nil && !r.Accepts(ctx) {
			continue
		}
		return r, true
	}
	return Rule{}, false
}

// Prepend returns a new set with extra rules ahead of s.
func (s Set) Prepend(extra ...Rule) Set {
	out := make(Set, 0, len(extra)+len(s))
	out = append(out, extra...)
	return append(out, s...)
}
