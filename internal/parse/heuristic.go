package parse

import (
	"regexp"
	"strings"

	"github.com/phobologic/agentscout/internal/lang"
	"github.com/phobologic/agentscout/internal/model"
)

// Declaration shapes recognized in heuristic mode. The last submatch group of
// each pattern is the declared name.
var (
	functionPatterns = []*regexp.Regexp{
		// function foo(...) / export default async function* foo(...)
		regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*[<(]`),
		// const foo = (...) => / export const foo = async x =>
		regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::[^=]+)?=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z_$][\w$]*)\s*(?::\s*[^=]+)?=>`),
		// const foo = function (...)
		regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?function\b`),
		// func Foo(...) / func (r *Recv) Foo(...)
		regexp.MustCompile(`^\s*func\s+(?:\([^)]*\)\s*)?([A-Za-z_]\w*)\s*[\[(]`),
		// public static Foo bar(...)
		regexp.MustCompile(`^\s*(?:@\w+\s+)*(?:(?:public|private|protected|static|final|abstract|synchronized|native|default)\s+)+(?:<[^>]+>\s+)?[\w<>\[\],.?\s]+?\s+([A-Za-z_]\w*)\s*\([^;]*$`),
		// class members: async fetchData(id) { / static create(): Foo {
		regexp.MustCompile(`^\s*(?:(?:async|static|get|set)\s+)*([A-Za-z_$][\w$]*)\s*\([^)]*\)\s*(?::\s*[^{;]+)?\{\s*$`),
	}

	classPatterns = []*regexp.Regexp{
		// class Foo / export default abstract class Foo / public final class Foo
		regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:(?:public|private|protected|abstract|final|static)\s+)*(?:class|interface|enum)\s+([A-Za-z_$][\w$]*)`),
		// type Foo struct / type Foo interface
		regexp.MustCompile(`^\s*type\s+([A-Za-z_]\w*)(?:\[[^\]]*\])?\s+(?:struct|interface)\b`),
	}

	importPatterns = []*regexp.Regexp{
		// import x from "mod" / import { a } from 'mod' / import "mod" / export * from "mod"
		regexp.MustCompile(`^\s*(?:import|export)\s+(?:type\s+)?(?:[\w$*{}\s,]+\s+from\s+)?['"]([^'"]+)['"]`),
		// require("mod") / import("mod")
		regexp.MustCompile(`\b(?:require|import)\s*\(\s*['"]([^'"]+)['"]\s*\)`),
		// from mod import x
		regexp.MustCompile(`^\s*from\s+\.*([\w.]+)\s+import\b`),
		// } from "mod" closing a multi-line import
		regexp.MustCompile(`^\s*\}\s*from\s+['"]([^'"]+)['"]`),
		// import "fmt" / import alias "fmt"
		regexp.MustCompile(`^\s*import\s+(?:[\w.]+\s+)?"([^"]+)"`),
		// import java.util.List; / import static org.x.Y.z;
		regexp.MustCompile(`^\s*import\s+(?:static\s+)?([\w.]+?)(?:\.\*)?\s*;`),
	}

	goImportBlockStart = regexp.MustCompile(`^\s*import\s*\(\s*$`)
	goImportBlockLine  = regexp.MustCompile(`^\s*(?:[\w.]+\s+)?"([^"]+)"`)

	callPattern   = regexp.MustCompile(`([A-Za-z_$][\w$]*)\s*\(`)
	branchPattern = regexp.MustCompile(`\b(if|for|while)\b`)
)

// callKeywords are identifiers followed by "(" that are not calls.
var callKeywords = map[string]struct{}{
	"if": {}, "for": {}, "while": {}, "switch": {}, "catch": {}, "function": {},
	"return": {}, "func": {}, "typeof": {}, "new": {}, "super": {}, "this": {},
	"import": {}, "require": {}, "synchronized": {}, "await": {}, "yield": {}, "async": {},
	"try": {}, "using": {},
}

// Heuristic extracts a ParseResult from source using line patterns. End lines
// are approximated as start+endWindow.
func Heuristic(source []byte, endWindow int) model.ParseResult {
	res := Empty(lang.ModeHeuristic)
	imports := stringSet{}
	calls := stringSet{}

	inImportBlock := false
	inBlockComment := false

	for i, line := range strings.Split(string(source), "\n") {
		lineNo := i + 1
		line = strings.TrimRight(line, "\r")

		code, stillInComment := stripComments(line, inBlockComment)
		inBlockComment = stillInComment
		if strings.TrimSpace(code) == "" {
			continue
		}

		if inImportBlock {
			if strings.HasPrefix(strings.TrimSpace(code), ")") {
				inImportBlock = false
			} else if m := goImportBlockLine.FindStringSubmatch(code); m != nil {
				imports.add(m[1])
			}
			continue
		}
		if goImportBlockStart.MatchString(code) {
			inImportBlock = true
			continue
		}

		for _, re := range importPatterns {
			for _, m := range re.FindAllStringSubmatch(code, -1) {
				imports.add(m[1])
			}
		}

		if d, ok := matchDeclaration(code); ok {
			d.StartLine = lineNo
			d.EndLine = lineNo + endWindow
			res.Declarations = append(res.Declarations, d)
		}

		for _, m := range callPattern.FindAllStringSubmatch(code, -1) {
			if _, kw := callKeywords[m[1]]; !kw {
				calls.add(m[1])
			}
		}

		for _, m := range branchPattern.FindAllStringSubmatch(code, -1) {
			switch m[1] {
			case "if":
				res.ControlStructures.If++
			case "for":
				res.ControlStructures.For++
			case "while":
				res.ControlStructures.While++
			}
		}
	}

	// Declared names are not calls of themselves.
	for _, d := range res.Declarations {
		delete(calls, d.Name)
	}

	res.Imports = imports.sorted()
	res.Calls = calls.sorted()
	return res
}

func matchDeclaration(code string) (model.Declaration, bool) {
	for _, re := range classPatterns {
		if m := re.FindStringSubmatch(code); m != nil {
			return model.Declaration{Kind: model.Class, Name: m[len(m)-1]}, true
		}
	}
	for _, re := range functionPatterns {
		if m := re.FindStringSubmatch(code); m != nil {
			name := m[len(m)-1]
			if _, kw := callKeywords[name]; kw {
				continue
			}
			return model.Declaration{Kind: model.Function, Name: name}, true
		}
	}
	return model.Declaration{}, false
}

// stripComments removes // line comments and /* */ block comments from line.
// Quotes are tracked within a single line only.
func stripComments(line string, inBlock bool) (string, bool) {
	var b strings.Builder
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inBlock:
			if strings.HasPrefix(line[i:], "*/") {
				inBlock = false
				i++
			}
		case quote != 0:
			b.WriteByte(c)
			if c == '\\' && i+1 < len(line) {
				i++
				b.WriteByte(line[i])
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
			b.WriteByte(c)
		case strings.HasPrefix(line[i:], "/*"):
			inBlock = true
			i++
		case strings.HasPrefix(line[i:], "//"):
			return b.String(), false
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), inBlock
}
