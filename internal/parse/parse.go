// Package parse extracts declarations, imports, calls and branch counts from
// source files. Python is parsed with tree-sitter; other supported languages
// fall back to line-pattern matching.
package parse

import (
	"context"
	"path/filepath"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/agentscout/internal/lang"
	"github.com/phobologic/agentscout/internal/model"
)

// Parser turns file contents into a model.ParseResult. A Parser owns a
// tree-sitter parser and must not be shared between goroutines.
type Parser struct {
	ts *sitter.Parser

	// EndWindow is the number of lines added to a heuristic declaration's
	// start line to approximate its end.
	EndWindow int
}

// NewParser returns a Parser whose heuristic end lines are start+endWindow.
func NewParser(endWindow int) *Parser {
	return &Parser{ts: lang.NewPythonParser(), EndWindow: endWindow}
}

// Close releases the tree-sitter parser.
func (p *Parser) Close() {
	p.ts.Close()
}

// Tree is an exact-mode parse of one file, shared between the structural
// parser and the complexity scorer. Close must be called when done.
type Tree struct {
	tree   *sitter.Tree
	source []byte
	ok     bool
}

// legacyStatements are accepted by the grammar but are syntax errors in
// Python 3.
var legacyStatements = map[string]struct{}{
	"print_statement": {},
	"exec_statement":  {},
}

// Root returns the root node, or nil when the source could not be parsed at all.
func (t *Tree) Root() *sitter.Node {
	if t == nil || t.tree == nil {
		return nil
	}
	return t.tree.RootNode()
}

// Source returns the parsed bytes.
func (t *Tree) Source() []byte { return t.source }

// OK reports whether the source parsed without syntax errors. Python 2
// print and exec statements count as errors.
func (t *Tree) OK() bool {
	return t != nil && t.ok
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t != nil && t.tree != nil {
		t.tree.Close()
	}
}

// ParseTree runs the exact-mode grammar over source regardless of the file's
// language. The returned Tree is never nil.
func (p *Parser) ParseTree(ctx context.Context, source []byte) *Tree {
	tree, err := p.ts.ParseCtx(ctx, nil, source)
	if err != nil {
		return &Tree{source: source}
	}
	t := &Tree{tree: tree, source: source}
	root := t.Root()
	t.ok = root != nil && !root.HasError() && !containsLegacy(root)
	return t
}

func containsLegacy(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	if _, ok := legacyStatements[n.Type()]; ok {
		return true
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if containsLegacy(n.NamedChild(i)) {
			return true
		}
	}
	return false
}

// Parse dispatches on the file extension and returns the ParseResult for
// path. It never panics for valid UTF-8 input.
func (p *Parser) Parse(ctx context.Context, path string, source []byte) model.ParseResult {
	mode := lang.ModeFor(filepath.Ext(path))
	switch mode {
	case lang.ModeExact:
		tree := p.ParseTree(ctx, source)
		defer tree.Close()
		return FromTree(tree)
	case lang.ModeHeuristic:
		return Heuristic(source, p.EndWindow)
	default:
		return Empty(lang.ModeNone)
	}
}

// Empty returns a ParseResult with no extracted data for the given mode.
func Empty(mode lang.Mode) model.ParseResult {
	return model.ParseResult{
		Mode:         mode.String(),
		Declarations: []model.Declaration{},
		Imports:      []string{},
		Calls:        []string{},
	}
}

// stringSet collects unique strings and returns them sorted.
type stringSet map[string]struct{}

func (s stringSet) add(v string) {
	if v != "" {
		s[v] = struct{}{}
	}
}

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
