package rules

import (
	"fmt"
	"strings"
)

// AccessType is how a binding must be consumed for a use to count as a read:
// `.name`, `.*`, `()` or `.name()`.
type AccessType string

const (
	// AnyProperty matches every named or computed property read.
	AnyProperty AccessType = ".*"
	// Invoke matches a bare call of the binding.
	Invoke AccessType = "()"
)

// Property returns the access type for a read of one named property.
func Property(name string) AccessType {
	return AccessType("." + name)
}

// Method returns the access type for a call of one named method.
func Method(name string) AccessType {
	return AccessType("." + name + "()")
}

// ParseAccessType validates s and returns it as an AccessType.
func ParseAccessType(s string) (AccessType, error) {
	a := AccessType(strings.TrimSpace(s))
	if err := a.Validate(); err != nil {
		return "", err
	}
	return a, nil
}

// ParseAccessTypes validates every entry of list.
func ParseAccessTypes(list []string) ([]AccessType, error) {
	out := make([]AccessType, 0, len(list))
	for _, s := range list {
		a, err := ParseAccessType(s)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Validate checks the access type is one of the four recognized forms.
func (a AccessType) Validate() error {
	s := string(a)
	switch {
	case a == AnyProperty, a == Invoke:
		return nil
	case strings.HasPrefix(s, ".") && strings.HasSuffix(s, "()"):
		if isName(s[1 : len(s)-2]) {
			return nil
		}
	case strings.HasPrefix(s, "."):
		if isName(s[1:]) {
			return nil
		}
	}
	return fmt.Errorf("invalid access type %q: want .name, .*, () or .name()", s)
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r == '.' || r == '(' || r == ')' || r == '*' || r == ' ' {
			return false
		}
	}
	return true
}

// FormKind is the syntactic shape that follows a reference.
type FormKind int

const (
	FormProperty FormKind = iota + 1
	FormElement
	FormCall
	FormMethod
)

// Form is an observed access at a reference site.
type Form struct {
	Kind FormKind
	Name string
}

func (f Form) String() string {
	switch f.Kind {
	case FormProperty:
		return "." + f.Name
	case FormElement:
		return "[*]"
	case FormCall:
		return "()"
	case FormMethod:
		return "." + f.Name + "()"
	}
	return "?"
}

// Matches reports whether the observed form satisfies the access type.
func (a AccessType) Matches(f Form) bool {
	s := string(a)
	switch {
	case a == AnyProperty:
		return f.Kind == FormProperty || f.Kind == FormElement
	case a == Invoke:
		return f.Kind == FormCall
	case strings.HasSuffix(s, "()"):
		return f.Kind == FormMethod && "."+f.Name+"()" == s
	default:
		return f.Kind == FormProperty && "."+f.Name == s
	}
}

// MatchesAny reports whether at least one declared type accepts the form.
func MatchesAny(types []AccessType, f Form) bool {
	for _, a := range types {
		if a.Matches(f) {
			return true
		}
	}
	return false
}
