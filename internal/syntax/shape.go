package syntax

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Shape is the closed set of node forms the analyzer distinguishes.
type Shape int

const (
	ShapeOther Shape = iota
	ShapeIdentifier
	ShapeMember
	ShapeElement
	ShapeCall
	ShapeObjectPattern
	ShapeArrayPattern
	ShapeFunction
	ShapeBlock
	ShapeObject
	ShapeArray
	ShapeString
)

var shapeNames = map[Shape]string{
	ShapeOther:         "other",
	ShapeIdentifier:    "identifier",
	ShapeMember:        "member",
	ShapeElement:       "element",
	ShapeCall:          "call",
	ShapeObjectPattern: "object_pattern",
	ShapeArrayPattern:  "array_pattern",
	ShapeFunction:      "function",
	ShapeBlock:         "block",
	ShapeObject:        "object",
	ShapeArray:         "array",
	ShapeString:        "string",
}

func (s Shape) String() string {
	return shapeNames[s]
}

var functionTypes = map[string]bool{
	"arrow_function":                 true,
	"function":                       true,
	"function_expression":            true,
	"function_declaration":           true,
	"generator_function":             true,
	"generator_function_declaration": true,
	"method_definition":              true,
}

// Classify maps a tree-sitter node type to its Shape.
func Classify(n *sitter.Node) Shape {
	if n == nil {
		return ShapeOther
	}
	t := n.Type()
	switch t {
	case "identifier", "shorthand_property_identifier", "shorthand_property_identifier_pattern":
		return ShapeIdentifier
	case "member_expression":
		return ShapeMember
	case "subscript_expression":
		return ShapeElement
	case "call_expression":
		return ShapeCall
	case "object_pattern":
		return ShapeObjectPattern
	case "array_pattern":
		return ShapeArrayPattern
	case "statement_block":
		return ShapeBlock
	case "object":
		return ShapeObject
	case "array":
		return ShapeArray
	case "string", "template_string":
		return ShapeString
	}
	if functionTypes[t] {
		return ShapeFunction
	}
	return ShapeOther
}

// Is reports whether n has the given shape.
func Is(n *sitter.Node, s Shape) bool {
	return Classify(n) == s
}

// Unwrap strips parentheses and TypeScript non-null / type assertions.
func Unwrap(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "parenthesized_expression", "non_null_expression", "as_expression", "satisfies_expression":
			children := NamedChildren(n)
			if len(children) == 0 {
				return n
			}
			n = children[0]
		default:
			return n
		}
	}
	return n
}

// Call is a captured call expression.
type Call struct {
	Node   *sitter.Node
	Callee *sitter.Node
	Args   []*sitter.Node
}

// AsCall captures a call expression with a regular argument list.
// Tagged templates are not calls for the analyzer.
func AsCall(n *sitter.Node) (Call, bool) {
	if !Is(n, ShapeCall) {
		return Call{}, false
	}
	callee := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")
	if callee == nil || args == nil || args.Type() != "arguments" {
		return Call{}, false
	}
	return Call{Node: n, Callee: callee, Args: NamedChildren(args)}, true
}

// CalleeName returns the callee text when the callee is a plain identifier.
func (c Call) CalleeName(src []byte) (string, bool) {
	if c.Callee == nil || c.Callee.Type() != "identifier" {
		return "", false
	}
	return c.Callee.Content(src), true
}

// Arg returns the i-th argument or nil.
func (c Call) Arg(i int) *sitter.Node {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// Member is a captured property read `object.property`.
type Member struct {
	Node     *sitter.Node
	Object   *sitter.Node
	Property *sitter.Node
}

// AsMember captures a named property access.
func AsMember(n *sitter.Node) (Member, bool) {
	if !Is(n, ShapeMember) {
		return Member{}, false
	}
	obj := n.ChildByFieldName("object")
	prop := n.ChildByFieldName("property")
	if obj == nil || prop == nil {
		return Member{}, false
	}
	return Member{Node: n, Object: obj, Property: prop}, true
}

// Name returns the accessed property name.
func (m Member) Name(src []byte) string {
	return strings.TrimPrefix(m.Property.Content(src), "#")
}

// Element is a captured computed read `object[index]`.
type Element struct {
	Node   *sitter.Node
	Object *sitter.Node
	Index  *sitter.Node
}

// AsElement captures a computed (subscript) access.
func AsElement(n *sitter.Node) (Element, bool) {
	if !Is(n, ShapeElement) {
		return Element{}, false
	}
	obj := n.ChildByFieldName("object")
	idx := n.ChildByFieldName("index")
	if obj == nil || idx == nil {
		return Element{}, false
	}
	return Element{Node: n, Object: obj, Index: idx}, true
}

// Key returns the literal key when the index is a plain string literal.
func (e Element) Key(src []byte) (string, bool) {
	return StringValue(e.Index, src)
}

// StringValue returns the value of a string literal without interpolation.
func StringValue(n *sitter.Node, src []byte) (string, bool) {
	n = Unwrap(n)
	if n == nil {
		return "", false
	}
	switch n.Type() {
	case "string":
	case "template_string":
		for _, child := range NamedChildren(n) {
			if child.Type() == "template_substitution" {
				return "", false
			}
		}
	default:
		return "", false
	}
	text := n.Content(src)
	if len(text) < 2 {
		return "", false
	}
	return text[1 : len(text)-1], true
}

// Function is a captured function-like node that has a body.
type Function struct {
	Node *sitter.Node
	Name *sitter.Node
	Body *sitter.Node
}

// AsFunction captures arrow functions, function expressions and
// declarations, generators and methods.
func AsFunction(n *sitter.Node) (Function, bool) {
	if !Is(n, ShapeFunction) {
		return Function{}, false
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		return Function{}, false
	}
	return Function{Node: n, Name: n.ChildByFieldName("name"), Body: body}, true
}

// Declarator is a captured `name = value` variable declarator.
type Declarator struct {
	Node  *sitter.Node
	Name  *sitter.Node
	Value *sitter.Node
}

// AsDeclarator captures a variable declarator.
func AsDeclarator(n *sitter.Node) (Declarator, bool) {
	if n == nil || n.Type() != "variable_declarator" {
		return Declarator{}, false
	}
	name := n.ChildByFieldName("name")
	if name == nil {
		return Declarator{}, false
	}
	return Declarator{Node: n, Name: name, Value: n.ChildByFieldName("value")}, true
}

// PatternElement is one element of an object destructuring pattern.
type PatternElement struct {
	Node *sitter.Node
	// Key is the source property name.
	Key string
	// Local is the identifier the element binds, or nil for nested patterns.
	Local *sitter.Node
}

// ObjectPattern is a captured object destructuring pattern.
type ObjectPattern struct {
	Node     *sitter.Node
	Elements []PatternElement
}

// AsObjectPattern captures `{ a, b: c, d = 1 }` patterns. Rest elements are skipped.
func AsObjectPattern(n *sitter.Node, src []byte) (ObjectPattern, bool) {
	if !Is(n, ShapeObjectPattern) {
		return ObjectPattern{}, false
	}
	p := ObjectPattern{Node: n}
	for _, child := range NamedChildren(n) {
		switch child.Type() {
		case "shorthand_property_identifier_pattern":
			p.Elements = append(p.Elements, PatternElement{Node: child, Key: child.Content(src), Local: child})
		case "pair_pattern":
			el := PatternElement{Node: child}
			if key := child.ChildByFieldName("key"); key != nil {
				el.Key = key.Content(src)
			}
			if value := child.ChildByFieldName("value"); value != nil && value.Type() == "identifier" {
				el.Local = value
			}
			p.Elements = append(p.Elements, el)
		case "object_assignment_pattern":
			left := child.ChildByFieldName("left")
			el := PatternElement{Node: child}
			if left != nil {
				el.Key = left.Content(src)
				if Is(left, ShapeIdentifier) {
					el.Local = left
				}
			}
			p.Elements = append(p.Elements, el)
		}
	}
	return p, true
}

// DeclaredIdentifier returns the identifier a binding node introduces: the
// node itself for identifiers, the local name for destructuring elements.
func DeclaredIdentifier(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return n
	case "pair_pattern":
		if value := n.ChildByFieldName("value"); value != nil && value.Type() == "identifier" {
			return value
		}
	case "object_assignment_pattern", "assignment_pattern":
		return DeclaredIdentifier(n.ChildByFieldName("left"))
	}
	return nil
}

// Property is one entry of an object literal.
type Property struct {
	Node  *sitter.Node
	Key   string
	Value *sitter.Node
}

// Object is a captured object literal.
type Object struct {
	Node       *sitter.Node
	Properties []Property
}

// AsObject captures an object literal. Method definitions are their own value.
func AsObject(n *sitter.Node, src []byte) (Object, bool) {
	n = Unwrap(n)
	if !Is(n, ShapeObject) {
		return Object{}, false
	}
	o := Object{Node: n}
	for _, child := range NamedChildren(n) {
		switch child.Type() {
		case "pair":
			key := child.ChildByFieldName("key")
			value := child.ChildByFieldName("value")
			if key == nil || value == nil || key.Type() != "property_identifier" {
				continue
			}
			o.Properties = append(o.Properties, Property{Node: child, Key: key.Content(src), Value: value})
		case "method_definition":
			name := child.ChildByFieldName("name")
			if name == nil || name.Type() != "property_identifier" {
				continue
			}
			o.Properties = append(o.Properties, Property{Node: child, Key: name.Content(src), Value: child})
		case "shorthand_property_identifier":
			o.Properties = append(o.Properties, Property{Node: child, Key: child.Content(src), Value: child})
		}
	}
	return o, true
}

// Lookup returns the value of the named property.
func (o Object) Lookup(key string) (*sitter.Node, bool) {
	for _, p := range o.Properties {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// BlockStatements returns the statements of a statement block.
func BlockStatements(n *sitter.Node) []*sitter.Node {
	if !Is(n, ShapeBlock) {
		return nil
	}
	return NamedChildren(n)
}
