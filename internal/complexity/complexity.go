// Package complexity computes a cyclomatic-style score per file.
package complexity

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/agentscout/internal/config"
	"github.com/phobologic/agentscout/internal/parse"
)

// branchNodes are the exact-mode node types that each add one to the score.
var branchNodes = map[string]struct{}{
	"if_statement":        {},
	"elif_clause":         {},
	"for_statement":       {},
	"while_statement":     {},
	"with_statement":      {},
	"try_statement":       {},
	"except_clause":       {},
	"except_group_clause": {},
}

// fallbackKeywords are counted by PolicyKeywords when the grammar fails.
var fallbackKeywords = []string{"if ", "for ", "while ", "case ", "catch "}

// Score parses source with the exact-mode grammar and scores it.
func Score(ctx context.Context, p *parse.Parser, source []byte, policy config.ComplexityPolicy) int {
	tree := p.ParseTree(ctx, source)
	defer tree.Close()
	return FromTree(tree, policy)
}

// FromTree scores an already parsed tree. A clean tree scores 1 plus one per
// branching or exception-handling construct. A tree with syntax errors scores
// 0 under PolicyZero, or falls back to keyword counting under PolicyKeywords.
func FromTree(tree *parse.Tree, policy config.ComplexityPolicy) int {
	if !tree.OK() {
		if policy == config.PolicyKeywords {
			return keywordScore(string(tree.Source()))
		}
		return 0
	}

	score := 1
	walk(tree.Root(), tree.Source(), &score)
	return score
}

func walk(n *sitter.Node, source []byte, score *int) {
	if n == nil {
		return
	}
	t := n.Type()
	if _, ok := branchNodes[t]; ok {
		*score++
	} else if t == "boolean_operator" && !continuesChain(n, source) {
		*score++
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), source, score)
	}
}

// continuesChain reports whether n is the left operand of a parent boolean
// operator with the same operator. `a and b and c` is one short-circuit
// chain, so only its outermost node counts.
func continuesChain(n *sitter.Node, source []byte) bool {
	parent := n.Parent()
	if parent == nil || parent.Type() != "boolean_operator" {
		return false
	}
	left := parent.ChildByFieldName("left")
	if left == nil || !left.Equal(n) {
		return false
	}
	return operator(parent, source) == operator(n, source)
}

func operator(n *sitter.Node, source []byte) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return op.Content(source)
	}
	return ""
}

func keywordScore(content string) int {
	c := 1
	for _, kw := range fallbackKeywords {
		c += strings.Count(content, kw)
	}
	return c
}
