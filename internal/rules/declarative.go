package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"sigtrace/internal/syntax"
)

// Declaration describes a rule without code. It is the shape rules take in
// the configuration file.
//
//	name: /^use[A-Z]/
//	binding: { access_types: [".*"] }
//	bindings: [{ access_types: [".value"] }]
//	arguments: [{ type: accessor }, { type: callback }]
//
// A declaration that the call site does not fit, such as a `binding` rule
// on a destructured call or an argument that is not the declared shape,
// leaves the call to the next rule with a matching name.
type Declaration struct {
	Name        string               `yaml:"name" json:"name"`
	Binding     *BindingDeclaration  `yaml:"binding,omitempty" json:"binding,omitempty"`
	Bindings    []ElementDeclaration `yaml:"bindings,omitempty" json:"bindings,omitempty"`
	Arguments   []ArgumentDecl       `yaml:"arguments,omitempty" json:"arguments,omitempty"`
	AnyArgument *ArgumentDecl        `yaml:"any_argument,omitempty" json:"any_argument,omitempty"`
}

// BindingDeclaration declares the initialized identifier as a signal.
type BindingDeclaration struct {
	AccessTypes []string `yaml:"access_types" json:"access_types"`
}

// ElementDeclaration declares destructured elements as signals. An empty
// Name accepts every element; a /regex/ name filters by property key.
type ElementDeclaration struct {
	Name        string   `yaml:"name,omitempty" json:"name,omitempty"`
	AccessTypes []string `yaml:"access_types" json:"access_types"`
}

// ArgumentDecl assigns a trigger role to a call argument. When Property is
// set and the argument is an object literal, the named entry is used instead.
//
// Or and Properties describe argument shapes instead of a role: Or accepts
// the first alternative that fits, Properties requires an object literal
// whose named entries each fit their own declaration.
type ArgumentDecl struct {
	Type       string                  `yaml:"type,omitempty" json:"type,omitempty"`
	Property   string                  `yaml:"property,omitempty" json:"property,omitempty"`
	Or         []ArgumentDecl          `yaml:"or,omitempty" json:"or,omitempty"`
	Properties map[string]ArgumentDecl `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// ParseName turns "/expr/" into a pattern matcher and anything else into an
// exact matcher.
func ParseName(s string) (NameMatcher, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("rule name is empty")
	}
	if len(s) > 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/") {
		re, err := regexp.Compile(s[1 : len(s)-1])
		if err != nil {
			return nil, fmt.Errorf("invalid rule name pattern %s: %w", s, err)
		}
		return Regexp(re), nil
	}
	return Exact(s), nil
}

func parseTrigger(s string) (TriggerKind, error) {
	switch k := TriggerKind(strings.TrimSpace(s)); k {
	case Accessor, Callback, Effect:
		return k, nil
	}
	return "", fmt.Errorf("invalid argument type %q: want accessor, callback or effect", s)
}

type compiledElement struct {
	name  NameMatcher
	types []AccessType
}

type compiledArgument struct {
	kind       TriggerKind
	property   string
	or         []*compiledArgument
	properties []compiledProperty
}

type compiledProperty struct {
	key string
	arg *compiledArgument
}

func (a ArgumentDecl) compile() (*compiledArgument, error) {
	shapes := 0
	for _, set := range []bool{a.Type != "", len(a.Or) > 0, len(a.Properties) > 0} {
		if set {
			shapes++
		}
	}
	if shapes != 1 {
		return nil, fmt.Errorf("argument must declare exactly one of type, or, properties")
	}
	if a.Property != "" && a.Type == "" {
		return nil, fmt.Errorf("argument property %q needs a type", a.Property)
	}

	switch {
	case len(a.Or) > 0:
		out := &compiledArgument{}
		for _, alt := range a.Or {
			c, err := alt.compile()
			if err != nil {
				return nil, err
			}
			out.or = append(out.or, c)
		}
		return out, nil
	case len(a.Properties) > 0:
		keys := make([]string, 0, len(a.Properties))
		for k := range a.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := &compiledArgument{}
		for _, k := range keys {
			c, err := a.Properties[k].compile()
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", k, err)
			}
			out.properties = append(out.properties, compiledProperty{key: k, arg: c})
		}
		return out, nil
	}

	kind, err := parseTrigger(a.Type)
	if err != nil {
		return nil, err
	}
	return &compiledArgument{kind: kind, property: a.Property}, nil
}

// match reports whether n fits the declared shape and appends the triggers
// it yields. A rejected alternative leaves out untouched.
func (a *compiledArgument) match(ctx Context, n *sitter.Node, out []Classification) ([]Classification, bool) {
	switch {
	case len(a.or) > 0:
		for _, alt := range a.or {
			if got, ok := alt.match(ctx, n, out); ok {
				return got, true
			}
		}
		return out, false
	case len(a.properties) > 0:
		obj, ok := syntax.AsObject(n, ctx.Source)
		if !ok {
			return out, false
		}
		got := out
		for _, p := range a.properties {
			value, ok := obj.Lookup(p.key)
			if !ok {
				return out, false
			}
			if got, ok = p.arg.match(ctx, value, got); !ok {
				return out, false
			}
		}
		return got, true
	case a.property != "":
		return append(out, PropertyOr(ctx, n, a.property, a.kind)...), true
	}
	return append(out, Trigger(a.kind, n)), true
}

// Compile validates the declaration and builds the equivalent Rule.
func (d Declaration) Compile() (Rule, error) {
	name, err := ParseName(d.Name)
	if err != nil {
		return Rule{}, err
	}

	var bindingTypes []AccessType
	if d.Binding != nil {
		if bindingTypes, err = ParseAccessTypes(d.Binding.AccessTypes); err != nil {
			return Rule{}, fmt.Errorf("rule %s: %w", d.Name, err)
		}
	}

	elements := make([]compiledElement, 0, len(d.Bindings))
	for _, el := range d.Bindings {
		types, err := ParseAccessTypes(el.AccessTypes)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %s: %w", d.Name, err)
		}
		ce := compiledElement{types: types}
		if el.Name != "" {
			if ce.name, err = ParseName(el.Name); err != nil {
				return Rule{}, fmt.Errorf("rule %s: %w", d.Name, err)
			}
		}
		elements = append(elements, ce)
	}

	if d.AnyArgument != nil && len(d.Arguments) > 0 {
		return Rule{}, fmt.Errorf("rule %s: arguments and any_argument are exclusive", d.Name)
	}
	args := make([]*compiledArgument, 0, len(d.Arguments))
	for i, a := range d.Arguments {
		c, err := a.compile()
		if err != nil {
			return Rule{}, fmt.Errorf("rule %s: argument %d: %w", d.Name, i, err)
		}
		args = append(args, c)
	}

	var anyArg *compiledArgument
	if d.AnyArgument != nil {
		if anyArg, err = d.AnyArgument.compile(); err != nil {
			return Rule{}, fmt.Errorf("rule %s: any_argument: %w", d.Name, err)
		}
	}

	// triggers matches the call arguments against their declarations. An
	// argument left out of the call ends the match; a misfit rejects it.
	triggers := func(ctx Context) ([]Classification, bool) {
		var out []Classification
		for i, arg := range ctx.Call.Args {
			decl := anyArg
			if i < len(args) {
				decl = args[i]
			}
			if decl == nil {
				break
			}
			var ok bool
			if out, ok = decl.match(ctx, arg, out); !ok {
				return nil, false
			}
		}
		return out, true
	}

	return Rule{
		Name: name,
		Accepts: func(ctx Context) bool {
			if d.Binding != nil && (ctx.Binding == nil || ctx.Binding.Type() != "identifier") {
				return false
			}
			if len(elements) > 0 {
				if _, ok := syntax.AsObjectPattern(ctx.Binding, ctx.Source); !ok {
					return false
				}
			}
			_, ok := triggers(ctx)
			return ok
		},
		Resolve: func(ctx Context) []Classification {
			var out []Classification
			if d.Binding != nil {
				out = append(out, BindIdentifier(ctx, bindingTypes...)...)
			}
			if len(elements) > 0 {
				out = append(out, resolveElements(ctx, elements)...)
			}
			got, _ := triggers(ctx)
			return append(out, got...)
		},
	}, nil
}

// resolveElements gives each destructured element, in source order, the
// types of the first element declaration accepting its key.
func resolveElements(ctx Context, elements []compiledElement) []Classification {
	pattern, ok := syntax.AsObjectPattern(ctx.Binding, ctx.Source)
	if !ok {
		return nil
	}
	var out []Classification
	for _, el := range pattern.Elements {
		if el.Local == nil {
			continue
		}
		for _, decl := range elements {
			if decl.name != nil && !decl.name.Match(el.Key) {
				continue
			}
			out = append(out, Signal(el.Node, decl.types...))
			break
		}
	}
	return out
}

// CompileAll compiles declarations in order.
func CompileAll(decls []Declaration) (Set, error) {
	out := make(Set, 0, len(decls))
	for _, d := range decls {
		r, err := d.Compile()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
