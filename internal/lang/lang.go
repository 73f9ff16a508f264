// Package lang provides a language registry mapping file extensions to a
// language name and the parse mode used for it.
package lang

import (
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// Mode selects how the structural parser handles a file. It is resolved once
// per file from the extension.
type Mode int

const (
	// ModeNone yields an empty parse result with no error.
	ModeNone Mode = iota
	// ModeExact parses with a tree-sitter grammar.
	ModeExact
	// ModeHeuristic matches declaration and import shapes line by line.
	ModeHeuristic
)

func (m Mode) String() string {
	switch m {
	case ModeExact:
		return "exact"
	case ModeHeuristic:
		return "heuristic"
	default:
		return "none"
	}
}

// Language holds configuration for a supported language.
type Language struct {
	Name       string
	Extensions []string
	Mode       Mode
	lang       *sitter.Language
}

// GetLanguage returns the tree-sitter Language pointer, or nil for languages
// without a grammar.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]*Language
var extensionOnce sync.Once

func getExtensionMap() map[string]*Language {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]*Language)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
func ForExtension(ext string) string {
	if l := getExtensionMap()[strings.ToLower(ext)]; l != nil {
		return l.Name
	}
	return ""
}

// ModeFor returns the parse mode for a file extension.
func ModeFor(ext string) Mode {
	if l := getExtensionMap()[strings.ToLower(ext)]; l != nil {
		return l.Mode
	}
	return ModeNone
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
