package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Python is the primary language; it is the only one parsed in exact mode.
const Python = "python"

func init() {
	Languages[Python] = &Language{
		Name:       Python,
		Extensions: []string{".py"},
		Mode:       ModeExact,
		lang:       python.GetLanguage(),
	}
}

// NewPythonParser returns a parser for the exact-mode grammar.
func NewPythonParser() *sitter.Parser {
	return Languages[Python].NewParser()
}

// PythonName returns the name identifier of a class_definition or
// function_definition node.
func PythonName(node *sitter.Node, source []byte) string {
	if n := node.ChildByFieldName("name"); n != nil {
		return NodeText(n, source)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "identifier" {
			return NodeText(child, source)
		}
	}
	return ""
}
