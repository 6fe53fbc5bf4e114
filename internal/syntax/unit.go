package syntax

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ErrUnsupportedLanguage is returned for files whose extension has no grammar.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Language names a tree-sitter grammar.
type Language string

const (
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
)

// DetectLanguage picks a grammar from the file extension.
func DetectLanguage(path string) (Language, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".mjs", ".cjs", ".jsx":
		return JavaScript, nil
	case ".ts", ".mts", ".cts":
		return TypeScript, nil
	case ".tsx":
		return TSX, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, path)
}

// IsSource reports whether path has an extension DetectLanguage accepts.
func IsSource(path string) bool {
	_, err := DetectLanguage(path)
	return err == nil
}

func (l Language) grammar() *sitter.Language {
	switch l {
	case TypeScript:
		return typescript.GetLanguage()
	case TSX:
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// Unit is one parsed source file. A Unit is immutable once parsed; a content
// change must produce a new Unit (and therefore a new Key).
type Unit struct {
	Path     string
	Language Language
	Source   []byte
	Tree     *sitter.Tree

	key   string
	lines []int
}

// ParseFile reads and parses a single source file.
func ParseFile(ctx context.Context, path string) (*Unit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return Parse(ctx, path, src)
}

// Parse parses src using the grammar selected by the extension of path.
func Parse(ctx context.Context, path string, src []byte) (*Unit, error) {
	lang, err := DetectLanguage(path)
	if err != nil {
		return nil, err
	}
	return ParseLanguage(ctx, path, lang, src)
}

// ParseLanguage parses src with an explicit grammar.
func ParseLanguage(ctx context.Context, path string, lang Language, src []byte) (*Unit, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang.grammar())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", path, err)
	}

	sum := sha256.Sum256(src)
	u := &Unit{
		Path:     path,
		Language: lang,
		Source:   src,
		Tree:     tree,
		key:      path + "@" + hex.EncodeToString(sum[:8]),
	}
	u.lines = lineStarts(src)
	return u, nil
}

// Key identifies the unit by path and content hash.
func (u *Unit) Key() string {
	return u.key
}

// Root returns the program node.
func (u *Unit) Root() *sitter.Node {
	return u.Tree.RootNode()
}

// Text returns the source text covered by r.
func (u *Unit) Text(r Range) string {
	if r.Start < 0 || r.End > len(u.Source) || r.Start > r.End {
		return ""
	}
	return string(u.Source[r.Start:r.End])
}

// Content returns the source text of n.
func (u *Unit) Content(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(u.Source)
}

// Position converts a byte offset to a 1-based line and column.
func (u *Unit) Position(offset int) (line, col int) {
	i := sort.Search(len(u.lines), func(i int) bool { return u.lines[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, offset - u.lines[i] + 1
}

// Offset converts a 1-based line and column to a byte offset.
func (u *Unit) Offset(line, col int) (int, bool) {
	if line < 1 || line > len(u.lines) || col < 1 {
		return 0, false
	}
	off := u.lines[line-1] + col - 1
	if off > len(u.Source) {
		return 0, false
	}
	return off, true
}

// Close releases the tree-sitter tree.
func (u *Unit) Close() {
	if u.Tree != nil {
		u.Tree.Close()
	}
}

func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}
