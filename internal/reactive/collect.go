package reactive

import (
	"io"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"

	"sigtrace/internal/rules"
	"sigtrace/internal/syntax"
)

// Options configures collection and analysis.
type Options struct {
	Rules  rules.Set
	Mapper RangeMapper
	Logger *slog.Logger
	// Strict rejects a query as soon as either its dependency side or its
	// dependent side is unproven.
	Strict bool
	// CacheSize bounds the number of memoized collections. Zero means 128.
	CacheSize int
}

func (o Options) withDefaults() Options {
	if o.Mapper == nil {
		o.Mapper = Identity
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.CacheSize <= 0 {
		o.CacheSize = 128
	}
	return o
}

// Collection is everything collected from one unit.
type Collection struct {
	Path     string       `json:"path"`
	Key      string       `json:"key"`
	Signals  []*Node      `json:"signals"`
	Accesses *AccessIndex `json:"accesses"`

	unit *syntax.Unit
}

// Collect applies the rule set to every call of u and builds its access
// index. The result depends only on the content of u and on opts.
func Collect(u *syntax.Unit, opts Options) *Collection {
	opts = opts.withDefaults()
	c := &collector{
		unit:     u,
		rules:    opts.Rules,
		mapper:   opts.Mapper,
		logger:   opts.Logger.With("path", u.Path),
		resolved: make(map[syntax.NodeKey]bool),
	}
	syntax.Walk(u.Root(), c.visit)
	return &Collection{
		unit:     u,
		Path:     u.Path,
		Key:      u.Key(),
		Signals:  c.nodes,
		Accesses: IndexAccesses(u, opts.Mapper),
	}
}

type collector struct {
	unit   *syntax.Unit
	rules  rules.Set
	mapper RangeMapper
	logger *slog.Logger

	// resolved holds initializer calls already handled with their binding.
	resolved map[syntax.NodeKey]bool
	nodes    []*Node
}

func (c *collector) visit(n *sitter.Node) bool {
	switch n.Type() {
	case "variable_declarator":
		d, ok := syntax.AsDeclarator(n)
		if !ok || d.Value == nil {
			break
		}
		value := syntax.Unwrap(d.Value)
		if call, ok := syntax.AsCall(value); ok {
			if c.apply(call, d.Name) {
				c.resolved[syntax.KeyOf(call.Node)] = true
			}
		} else if fn, ok := syntax.AsFunction(value); ok {
			c.function(d.Name, fn.Body)
		}
	case "call_expression":
		if call, ok := syntax.AsCall(n); ok && !c.resolved[syntax.KeyOf(n)] {
			c.apply(call, nil)
		}
	case "function_declaration", "generator_function_declaration":
		if fn, ok := syntax.AsFunction(n); ok && fn.Name != nil {
			c.function(fn.Name, fn.Body)
		}
	}
	return true
}

// apply runs the first rule accepting the call. It reports whether a rule
// matched, whatever the rule emitted.
func (c *collector) apply(call syntax.Call, binding *sitter.Node) bool {
	name, ok := call.CalleeName(c.unit.Source)
	if !ok {
		return false
	}
	ctx := rules.Context{Binding: binding, Call: call, Source: c.unit.Source}
	rule, ok := c.rules.Find(name, ctx)
	if !ok {
		return false
	}

	base := &Node{Callee: name}
	var signals []rules.Classification
	for _, cl := range rule.Resolve(ctx) {
		if cl.Node == nil {
			continue
		}
		switch cl.Kind {
		case rules.KindSignal:
			signals = append(signals, cl)
		case rules.KindTrigger:
			c.trigger(base, cl)
		}
	}

	if len(signals) == 0 {
		if !base.IsDependent {
			c.logger.Debug("dropping call without binding or callback",
				slog.String("callee", name),
				slog.Int("offset", int(call.Node.StartByte())))
			return true
		}
		c.nodes = append(c.nodes, base)
		return true
	}

	for _, cl := range signals {
		span, ok := c.span(cl.Node)
		if !ok {
			continue
		}
		co := *base
		co.IsDependency = true
		co.Binding = &Binding{Span: span, AccessTypes: cl.AccessTypes}
		co.Name = c.bindingName(cl.Node)
		c.nodes = append(c.nodes, &co)
	}
	return true
}

func (c *collector) trigger(base *Node, cl rules.Classification) {
	target, requireAccess := cl.Node, false
	if fn, ok := syntax.AsFunction(syntax.Unwrap(cl.Node)); ok {
		target, requireAccess = fn.Body, true
	}
	span, ok := c.span(target)
	if !ok {
		return
	}

	switch cl.Trigger {
	case rules.Accessor:
		base.Accessor = &Accessor{Span: span, RequireAccess: requireAccess}
	case rules.Callback:
		base.IsDependent = true
		base.Callback = &Span{Range: span.Range, Node: span.Node}
	case rules.Effect:
		base.Accessor = &Accessor{Span: span, RequireAccess: requireAccess}
		base.IsDependent = true
		base.Callback = &Span{Range: span.Range, Node: span.Node}
	}
}

// function records a named function as an implicit zero-argument signal.
func (c *collector) function(name, body *sitter.Node) {
	binding, ok := c.span(name)
	if !ok {
		return
	}
	callback, ok := c.span(body)
	if !ok {
		return
	}
	c.nodes = append(c.nodes, &Node{
		Binding:  &Binding{Span: binding, AccessTypes: []rules.AccessType{rules.Invoke}},
		Accessor: &Accessor{Span: callback, RequireAccess: true},
		Callback: &Span{Range: callback.Range, Node: callback.Node},
		Name:     c.bindingName(name),
		Callee:   "function",
	})
}

func (c *collector) span(n *sitter.Node) (Span, bool) {
	r, ok := c.mapper(int(n.StartByte()), int(n.EndByte()))
	if !ok {
		return Span{}, false
	}
	return Span{Range: r, Node: n}, true
}

func (c *collector) bindingName(n *sitter.Node) string {
	if id := syntax.DeclaredIdentifier(n); id != nil {
		return id.Content(c.unit.Source)
	}
	return n.Content(c.unit.Source)
}
