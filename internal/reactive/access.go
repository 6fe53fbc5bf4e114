package reactive

import (
	sitter "github.com/smacker/go-tree-sitter"

	"sigtrace/internal/rules"
	"sigtrace/internal/syntax"
)

// elementKey marks a computed read whose key is not a literal string.
const elementKey = "*"

// AccessIndex records what immediately follows every base expression of a
// unit, keyed by the mapped end offset of that base. It is built once per
// unit and never mutated afterwards.
type AccessIndex struct {
	// PropertyAccesses maps base end -> property name read (`a.x`, `a["x"]`),
	// or "*" for a non-literal computed read.
	PropertyAccesses map[int]string `json:"propertyAccesses"`
	// PropertyCalls maps base end -> method name called (`a.x()`).
	PropertyCalls map[int]string `json:"propertyCalls"`
	// FunctionCalls holds the end of every bare identifier callee (`a()`).
	FunctionCalls map[int]struct{} `json:"-"`
}

// IndexAccesses walks the unit once and builds its AccessIndex.
func IndexAccesses(u *syntax.Unit, mapper RangeMapper) *AccessIndex {
	if mapper == nil {
		mapper = Identity
	}
	idx := &AccessIndex{
		PropertyAccesses: make(map[int]string),
		PropertyCalls:    make(map[int]string),
		FunctionCalls:    make(map[int]struct{}),
	}
	end := func(n *sitter.Node) (int, bool) {
		n = syntax.Unwrap(n)
		r, ok := mapper(int(n.StartByte()), int(n.EndByte()))
		return r.End, ok
	}

	syntax.Walk(u.Root(), func(n *sitter.Node) bool {
		switch syntax.Classify(n) {
		case syntax.ShapeMember:
			if m, ok := syntax.AsMember(n); ok {
				if at, ok := end(m.Object); ok {
					idx.PropertyAccesses[at] = m.Name(u.Source)
				}
			}
		case syntax.ShapeElement:
			if e, ok := syntax.AsElement(n); ok {
				if at, ok := end(e.Object); ok {
					key, literal := e.Key(u.Source)
					if !literal {
						key = elementKey
					}
					idx.PropertyAccesses[at] = key
				}
			}
		case syntax.ShapeCall:
			c, ok := syntax.AsCall(n)
			if !ok {
				break
			}
			callee := syntax.Unwrap(c.Callee)
			if m, ok := syntax.AsMember(callee); ok {
				if at, ok := end(m.Object); ok {
					idx.PropertyCalls[at] = m.Name(u.Source)
				}
			} else if callee.Type() == "identifier" {
				if at, ok := end(callee); ok {
					idx.FunctionCalls[at] = struct{}{}
				}
			}
		}
		return true
	})
	return idx
}

// FormsAt returns every access form observed right after a reference ending
// at offset.
func (x *AccessIndex) FormsAt(offset int) []rules.Form {
	var out []rules.Form
	if name, ok := x.PropertyAccesses[offset]; ok {
		if name == elementKey {
			out = append(out, rules.Form{Kind: rules.FormElement, Name: name})
		} else {
			out = append(out, rules.Form{Kind: rules.FormProperty, Name: name})
		}
	}
	if name, ok := x.PropertyCalls[offset]; ok {
		out = append(out, rules.Form{Kind: rules.FormMethod, Name: name})
	}
	if _, ok := x.FunctionCalls[offset]; ok {
		out = append(out, rules.Form{Kind: rules.FormCall})
	}
	return out
}

// Accepts reports whether any form observed at offset satisfies one of types.
func (x *AccessIndex) Accepts(offset int, types []rules.AccessType) bool {
	for _, f := range x.FormsAt(offset) {
		if rules.MatchesAny(types, f) {
			return true
		}
	}
	return false
}

// accessForm classifies an access expression whose base is a plain
// identifier. It is the forward counterpart of IndexAccesses.
func accessForm(n *sitter.Node, src []byte) (*sitter.Node, rules.Form, bool) {
	identifier := func(n *sitter.Node) (*sitter.Node, bool) {
		n = syntax.Unwrap(n)
		return n, n != nil && n.Type() == "identifier"
	}

	switch syntax.Classify(n) {
	case syntax.ShapeMember:
		m, ok := syntax.AsMember(n)
		if !ok {
			break
		}
		if base, ok := identifier(m.Object); ok {
			return base, rules.Form{Kind: rules.FormProperty, Name: m.Name(src)}, true
		}
	case syntax.ShapeElement:
		e, ok := syntax.AsElement(n)
		if !ok {
			break
		}
		if base, ok := identifier(e.Object); ok {
			if key, literal := e.Key(src); literal {
				return base, rules.Form{Kind: rules.FormProperty, Name: key}, true
			}
			return base, rules.Form{Kind: rules.FormElement, Name: elementKey}, true
		}
	case syntax.ShapeCall:
		c, ok := syntax.AsCall(n)
		if !ok {
			break
		}
		if base, ok := identifier(c.Callee); ok {
			return base, rules.Form{Kind: rules.FormCall}, true
		}
		if m, ok := syntax.AsMember(syntax.Unwrap(c.Callee)); ok {
			if base, ok := identifier(m.Object); ok {
				return base, rules.Form{Kind: rules.FormMethod, Name: m.Name(src)}, true
			}
		}
	}
	return nil, rules.Form{}, false
}
