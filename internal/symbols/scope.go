package symbols

import (
	sitter "github.com/smacker/go-tree-sitter"

	"sigtrace/internal/syntax"
)

var typeOnly = map[string]bool{
	"type_annotation":        true,
	"type_arguments":         true,
	"type_parameters":        true,
	"type_alias_declaration": true,
	"interface_declaration":  true,
	"implements_clause":      true,
	"ambient_declaration":    true,
	"comment":                true,
}

func (b *builder) visit(n *sitter.Node, s *scope) {
	if n == nil || typeOnly[n.Type()] {
		return
	}
	switch n.Type() {
	case "identifier", "shorthand_property_identifier":
		b.reference(n, s)
	case "lexical_declaration", "variable_declaration":
		target := s
		if n.Type() == "variable_declaration" {
			target = s.hoistTarget()
		}
		for _, child := range syntax.NamedChildren(n) {
			decl, ok := syntax.AsDeclarator(child)
			if !ok {
				continue
			}
			b.declarePattern(decl.Name, target, s)
			b.visit(decl.Value, s)
		}
	case "function_declaration", "generator_function_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			b.declare(name, s)
		}
		b.visitFunction(n, s)
	case "function", "function_expression", "generator_function", "arrow_function", "method_definition":
		b.visitFunction(n, s)
	case "class_declaration":
		if name := n.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
			b.declare(name, s)
		}
		b.visitChildrenExcept(n, s, n.ChildByFieldName("name"))
	case "class":
		b.visitChildrenExcept(n, s, n.ChildByFieldName("name"))
	case "statement_block", "for_statement", "switch_statement":
		inner := newScope(s, false)
		for _, child := range syntax.NamedChildren(n) {
			b.visit(child, inner)
		}
	case "for_in_statement":
		b.visitForIn(n, s)
	case "catch_clause":
		inner := newScope(s, false)
		if param := n.ChildByFieldName("parameter"); param != nil {
			b.declarePattern(param, inner, inner)
		}
		b.visit(n.ChildByFieldName("body"), inner)
	case "import_statement":
		b.visitImport(n, s)
	case "export_specifier":
		b.visit(n.ChildByFieldName("name"), s)
	default:
		for _, child := range syntax.NamedChildren(n) {
			b.visit(child, s)
		}
	}
}

func (b *builder) visitChildrenExcept(n *sitter.Node, s *scope, skip *sitter.Node) {
	for _, child := range syntax.NamedChildren(n) {
		if skip != nil && syntax.KeyOf(child) == syntax.KeyOf(skip) {
			continue
		}
		b.visit(child, s)
	}
}

func (b *builder) visitFunction(n *sitter.Node, s *scope) {
	fs := newScope(s, true)
	name := n.ChildByFieldName("name")
	switch n.Type() {
	case "function", "function_expression", "generator_function":
		if name != nil {
			b.declare(name, fs)
		}
	case "method_definition":
		if name != nil && name.Type() == "computed_property_name" {
			b.visit(name, s)
		}
	}

	if params := n.ChildByFieldName("parameters"); params != nil {
		for _, p := range syntax.NamedChildren(params) {
			b.declareParam(p, fs)
		}
	}
	if param := n.ChildByFieldName("parameter"); param != nil {
		b.declareParam(param, fs)
	}

	body := n.ChildByFieldName("body")
	if syntax.Is(body, syntax.ShapeBlock) {
		for _, child := range syntax.NamedChildren(body) {
			b.visit(child, fs)
		}
		return
	}
	b.visit(body, fs)
}

func (b *builder) declareParam(p *sitter.Node, fs *scope) {
	switch p.Type() {
	case "required_parameter", "optional_parameter":
		if pattern := p.ChildByFieldName("pattern"); pattern != nil {
			b.declarePattern(pattern, fs, fs)
		}
		b.visit(p.ChildByFieldName("value"), fs)
	case "this":
	default:
		b.declarePattern(p, fs, fs)
	}
}

// declarePattern binds every identifier of a (possibly destructuring)
// pattern in target. Default values are references evaluated in s.
func (b *builder) declarePattern(p *sitter.Node, target, s *scope) {
	if p == nil {
		return
	}
	switch p.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		b.declare(p, target)
	case "object_pattern", "array_pattern", "rest_pattern":
		for _, child := range syntax.NamedChildren(p) {
			b.declarePattern(child, target, s)
		}
	case "pair_pattern":
		if key := p.ChildByFieldName("key"); key != nil && key.Type() == "computed_property_name" {
			b.visit(key, s)
		}
		b.declarePattern(p.ChildByFieldName("value"), target, s)
	case "object_assignment_pattern", "assignment_pattern":
		b.declarePattern(p.ChildByFieldName("left"), target, s)
		b.visit(p.ChildByFieldName("right"), s)
	default:
		b.visit(p, s)
	}
}

func (b *builder) visitForIn(n *sitter.Node, s *scope) {
	inner := newScope(s, false)
	left := n.ChildByFieldName("left")
	if kind := n.ChildByFieldName("kind"); kind != nil {
		target := inner
		if kind.Type() == "var" {
			target = s.hoistTarget()
		}
		b.declarePattern(left, target, inner)
	} else {
		b.visit(left, inner)
	}
	b.visit(n.ChildByFieldName("right"), s)
	b.visit(n.ChildByFieldName("body"), inner)
}

func (b *builder) visitImport(n *sitter.Node, s *scope) {
	syntax.Walk(n, func(c *sitter.Node) bool {
		switch c.Type() {
		case "import_clause", "named_imports", "import_statement":
			for _, child := range syntax.NamedChildren(c) {
				if child.Type() == "identifier" {
					b.declare(child, s)
				}
			}
			return true
		case "namespace_import":
			for _, child := range syntax.NamedChildren(c) {
				if child.Type() == "identifier" {
					b.declare(child, s)
				}
			}
			return false
		case "import_specifier":
			local := c.ChildByFieldName("alias")
			if local == nil {
				local = c.ChildByFieldName("name")
			}
			if local != nil && local.Type() == "identifier" {
				b.declare(local, s)
			}
			return false
		}
		return false
	})
}
