package rules

import (
	sitter "github.com/smacker/go-tree-sitter"

	"sigtrace/internal/syntax"
)

// BindIdentifier declares the initialized identifier as a signal.
func BindIdentifier(ctx Context, types ...AccessType) []Classification {
	if ctx.Binding == nil || ctx.Binding.Type() != "identifier" {
		return nil
	}
	return []Classification{Signal(ctx.Binding, types...)}
}

// BindElements declares every identifier element of an object destructuring
// pattern as its own signal, in source order.
func BindElements(ctx Context, types ...AccessType) []Classification {
	return BindElementsWhere(ctx, func(string) bool { return true }, types...)
}

// BindElementsWhere is BindElements restricted to property keys accepted by keep.
func BindElementsWhere(ctx Context, keep func(key string) bool, types ...AccessType) []Classification {
	pattern, ok := syntax.AsObjectPattern(ctx.Binding, ctx.Source)
	if !ok {
		return nil
	}
	var out []Classification
	for _, el := range pattern.Elements {
		if el.Local == nil || !keep(el.Key) {
			continue
		}
		out = append(out, Signal(el.Node, types...))
	}
	return out
}

// Getter classifies a computed getter: the `get` entry of an object literal,
// or the node itself otherwise.
func Getter(ctx Context, n *sitter.Node) []Classification {
	return PropertyOr(ctx, n, "get", Effect)
}

// PropertyOr classifies the named property of an object literal argument,
// falling back to the argument itself when it is not an object literal.
func PropertyOr(ctx Context, n *sitter.Node, key string, kind TriggerKind) []Classification {
	if n == nil {
		return nil
	}
	if obj, ok := syntax.AsObject(n, ctx.Source); ok {
		if value, ok := obj.Lookup(key); ok {
			return []Classification{Trigger(kind, value)}
		}
		return nil
	}
	return []Classification{Trigger(kind, n)}
}

// Arg classifies the i-th call argument when present.
func Arg(ctx Context, i int, kind TriggerKind) []Classification {
	arg := ctx.Call.Arg(i)
	if arg == nil {
		return nil
	}
	return []Classification{Trigger(kind, arg)}
}
