package syntax

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Range is a half-open span of byte offsets. A zero-length range is a point.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NodeRange returns the byte span of n.
func NodeRange(n *sitter.Node) Range {
	return Range{Start: int(n.StartByte()), End: int(n.EndByte())}
}

// Len is the width of the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Contains reports whether pos touches the range. The end offset is
// included so that a cursor placed right after an identifier selects it.
func (r Range) Contains(pos int) bool {
	return r.Start <= pos && pos <= r.End
}

func (r Range) String() string {
	return fmt.Sprintf("%d,%d", r.Start, r.End)
}
