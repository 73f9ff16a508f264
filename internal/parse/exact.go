package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/agentscout/internal/lang"
	"github.com/phobologic/agentscout/internal/model"
)

// FromTree extracts a ParseResult from an exact-mode tree. A tree with syntax
// errors yields an empty result tagged model.SyntaxError.
func FromTree(tree *Tree) model.ParseResult {
	if !tree.OK() {
		res := Empty(lang.ModeExact)
		res.Error = model.SyntaxError
		return res
	}

	res := Empty(lang.ModeExact)
	imports := stringSet{}
	calls := stringSet{}
	source := tree.Source()

	walk(tree.Root(), func(n *sitter.Node) {
		switch n.Type() {
		case "class_definition":
			res.Declarations = append(res.Declarations, declaration(model.Class, n, source))
		case "function_definition":
			res.Declarations = append(res.Declarations, declaration(model.Function, n, source))
		case "import_statement":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				imports.add(importedModule(n.NamedChild(i), source))
			}
		case "import_from_statement":
			if m := n.ChildByFieldName("module_name"); m != nil {
				imports.add(fromModule(m, source))
			}
		case "future_import_statement":
			imports.add("__future__")
		case "call":
			calls.add(callTarget(n.ChildByFieldName("function"), source))
		case "if_statement", "elif_clause":
			res.ControlStructures.If++
		case "for_statement":
			res.ControlStructures.For++
		case "while_statement":
			res.ControlStructures.While++
		}
	})

	res.Imports = imports.sorted()
	res.Calls = calls.sorted()
	return res
}

// walk visits n and its descendants in source order.
func walk(n *sitter.Node, visit func(*sitter.Node)) {
	if n == nil {
		return
	}
	visit(n)
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), visit)
	}
}

func declaration(kind model.DeclKind, n *sitter.Node, source []byte) model.Declaration {
	start := int(n.StartPoint().Row) + 1
	end := int(n.EndPoint().Row) + 1
	if end < start {
		end = start
	}
	return model.Declaration{
		Kind:      kind,
		Name:      lang.PythonName(n, source),
		StartLine: start,
		EndLine:   end,
	}
}

// importedModule handles one entry of `import a.b, c as d`.
func importedModule(n *sitter.Node, source []byte) string {
	switch n.Type() {
	case "dotted_name":
		return lang.NodeText(n, source)
	case "aliased_import":
		if name := n.ChildByFieldName("name"); name != nil {
			return lang.NodeText(name, source)
		}
	}
	return ""
}

// fromModule normalizes the module of `from X import Y` to X. Relative
// imports drop their leading dots; `from . import y` contributes nothing.
func fromModule(n *sitter.Node, source []byte) string {
	return strings.TrimLeft(lang.NodeText(n, source), ".")
}

// callTarget returns the simple name of a call: `f()` gives f, `a.b.f()` gives f.
func callTarget(fn *sitter.Node, source []byte) string {
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return lang.NodeText(fn, source)
	case "attribute":
		if attr := fn.ChildByFieldName("attribute"); attr != nil {
			return lang.NodeText(attr, source)
		}
	}
	return ""
}
