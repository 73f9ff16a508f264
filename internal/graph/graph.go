// Package graph builds the file-to-imports dependency map and resolves
// imports to files inside the repository.
package graph

import (
	"path"
	"sort"
	"strings"

	"github.com/phobologic/agentscout/internal/model"
)

// BuildDependencyMap maps every file to its imports. Files without imports
// map to an empty slice. Imports are not deduplicated across files.
func BuildDependencyMap(results map[string]model.ParseResult) model.DependencyMap {
	deps := make(model.DependencyMap, len(results))
	for file, res := range results {
		imports := make([]string, len(res.Imports))
		copy(imports, res.Imports)
		deps[file] = imports
	}
	return deps
}

// jsExtensions are tried, in order, when resolving an extensionless relative
// JavaScript/TypeScript specifier.
var jsExtensions = []string{".ts", ".tsx", ".js", ".jsx"}

// BuildEdges resolves each import to an analyzed file and returns the
// resulting file-to-file edges. Python modules resolve by dotted path
// (module.py or package/__init__.py, relative to the repo root or the
// importing file's directory); JavaScript/TypeScript resolve "./" and "../"
// specifiers. Unresolved imports and self-edges are dropped.
func BuildEdges(deps model.DependencyMap) []model.Dependency {
	type edgeKey struct{ src, tgt string }
	edgeImports := make(map[edgeKey][]string)

	for _, src := range sortedKeys(deps) {
		for _, imp := range deps[src] {
			tgt := resolve(src, imp, deps)
			if tgt == "" || tgt == src {
				continue // no self-edges
			}
			key := edgeKey{src, tgt}
			if !contains(edgeImports[key], imp) {
				edgeImports[key] = append(edgeImports[key], imp)
			}
		}
	}

	edges := make([]model.Dependency, 0, len(edgeImports))
	for key, imps := range edgeImports {
		edges = append(edges, model.Dependency{
			Source:  key.src,
			Target:  key.tgt,
			Imports: imps,
		})
	}

	// Sort for deterministic output
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})

	return edges
}

func resolve(src, imp string, files model.DependencyMap) string {
	dir := path.Dir(src)
	if dir == "." {
		dir = ""
	}

	if strings.HasPrefix(imp, "./") || strings.HasPrefix(imp, "../") {
		base := path.Join(dir, imp)
		if _, ok := files[base]; ok {
			return base
		}
		for _, ext := range jsExtensions {
			if _, ok := files[base+ext]; ok {
				return base + ext
			}
		}
		for _, ext := range jsExtensions {
			if idx := path.Join(base, "index"+ext); hasKey(files, idx) {
				return idx
			}
		}
		return ""
	}

	if !strings.HasSuffix(src, ".py") || strings.ContainsAny(imp, "/\"'") {
		return ""
	}
	modPath := strings.ReplaceAll(imp, ".", "/")
	for _, base := range []string{modPath, path.Join(dir, modPath)} {
		if hasKey(files, base+".py") {
			return base + ".py"
		}
		if hasKey(files, base+"/__init__.py") {
			return base + "/__init__.py"
		}
	}
	return ""
}

func hasKey(m model.DependencyMap, k string) bool {
	_, ok := m[k]
	return ok
}

func sortedKeys(m model.DependencyMap) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
