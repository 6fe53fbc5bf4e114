package graph

type NodeKind string

const (
	// KindSignal is a binding other code can depend on.
	KindSignal NodeKind = "signal"
	// KindDerived is both a signal and an effect (computed values).
	KindDerived NodeKind = "derived"
	// KindEffect runs when what it reads changes.
	KindEffect NodeKind = "effect"
	// KindFunction is a named function, an implicit zero-argument signal.
	KindFunction NodeKind = "function"
)

type EdgeKind string

const (
	// EdgeReads links a reader to the signal it reads.
	EdgeReads EdgeKind = "reads"
)

// Symbol is the graph-domain node payload.
// It is intentionally decoupled from reactive.Node.
type Symbol struct {
	ID        string   `json:"id"`
	Filepath  string   `json:"filepath"`
	Name      string   `json:"name"`
	Callee    string   `json:"callee"`
	Kind      NodeKind `json:"kind"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
}

// Label is the display name of the symbol.
func (s *Symbol) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Callee
}
