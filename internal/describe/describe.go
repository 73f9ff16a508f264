// Package describe turns a Report and its code slices into a normalized
// system description for downstream modernization planning.
package describe

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/phobologic/agentscout/internal/config"
	"github.com/phobologic/agentscout/internal/model"
	"github.com/phobologic/agentscout/internal/slice"
)

// keyFlowSteps caps the number of functions listed per key flow.
const keyFlowSteps = 5

// System is the normalized description of a repository.
type System struct {
	InputType   string        `json:"input_type"`
	SystemType  string        `json:"system_type"`
	Name        string        `json:"name"`
	Languages   []string      `json:"languages"`
	Stats       Stats         `json:"stats"`
	Entrypoints []string      `json:"entrypoints"`
	KeyFlows    []Flow        `json:"key_flows"`
	PainPoints  []string      `json:"pain_points"`
	Components  []Component   `json:"components"`
	CodeSlices  []slice.Slice `json:"code_slices"`
}

// Stats are repository-level counts.
type Stats struct {
	FileCount       int `json:"file_count"`
	TotalComplexity int `json:"total_complexity"`
}

// Flow is a complex file presented as a logic flow.
type Flow struct {
	Name       string   `json:"name"`
	Steps      []string `json:"steps"`
	Files      []string `json:"files"`
	Complexity int      `json:"complexity"`
}

// Component is the per-file entry of a System.
type Component struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Functions  []string `json:"functions"`
	Imports    []string `json:"imports"`
	Complexity int      `json:"complexity"`
	Calls      []string `json:"calls"`
}

// Adapt builds the System for report. slices may be nil.
func Adapt(report *model.Report, slices []slice.Slice, cfg config.Config) System {
	if slices == nil {
		slices = []slice.Slice{}
	}
	name := report.Repo
	if name == "" {
		name = "Unknown Repo"
	}
	languages := report.Summary.Languages
	if languages == nil {
		languages = []string{}
	}

	paths := report.Paths()
	sys := System{
		InputType:  "repo",
		SystemType: "software_system",
		Name:       name,
		Languages:  languages,
		Stats: Stats{
			FileCount:       report.Summary.Files,
			TotalComplexity: report.Summary.TotalComplexity,
		},
		Entrypoints: entrypoints(report, paths, cfg.EntrypointFilenames),
		KeyFlows:    keyFlows(report, paths, cfg.KeyFlowComplexity),
		PainPoints:  painPoints(report, paths, cfg),
		Components:  make([]Component, 0, len(paths)),
		CodeSlices:  slices,
	}

	for _, p := range paths {
		fr := report.Files[p]
		sys.Components = append(sys.Components, Component{
			Name:       p,
			Type:       "module",
			Functions:  functionNames(fr.AST, 0),
			Imports:    nonNil(fr.AST.Imports),
			Complexity: fr.Complexity,
			Calls:      nonNil(fr.AST.Calls),
		})
	}
	return sys
}

// entrypoints returns files with a well-known entry filename, or the most
// complex file when there are none.
func entrypoints(report *model.Report, paths []string, names []string) []string {
	found := make([]string, 0)
	for _, p := range paths {
		base := strings.ToLower(path.Base(p))
		for _, n := range names {
			if base == n {
				found = append(found, p)
				break
			}
		}
	}
	if len(found) > 0 || len(paths) == 0 {
		return found
	}

	best := paths[0]
	for _, p := range paths[1:] {
		if report.Files[p].Complexity > report.Files[best].Complexity {
			best = p
		}
	}
	return append(found, best)
}

func keyFlows(report *model.Report, paths []string, threshold int) []Flow {
	flows := make([]Flow, 0)
	for _, p := range paths {
		fr := report.Files[p]
		if fr.Complexity <= threshold {
			continue
		}
		steps := functionNames(fr.AST, keyFlowSteps)
		for i, s := range steps {
			steps[i] = "Function: " + s
		}
		flows = append(flows, Flow{
			Name:       "Complex Logic in " + p,
			Steps:      steps,
			Files:      []string{p},
			Complexity: fr.Complexity,
		})
	}
	return flows
}

// painPoints collects candidate explanations and file-level quality issues,
// deduplicated and sorted.
func painPoints(report *model.Report, paths []string, cfg config.Config) []string {
	seen := make(map[string]struct{})
	for _, opp := range report.AgentOpportunities {
		if opp.Verdict == model.Candidate && opp.Explanation != "" {
			seen[opp.FilePath+": "+opp.Explanation] = struct{}{}
		}
	}
	for _, p := range paths {
		fr := report.Files[p]
		if fr.Complexity > cfg.PainPointComplexity {
			seen[fmt.Sprintf("%s has very high cyclomatic complexity (%d).", p, fr.Complexity)] = struct{}{}
		}
		if n := len(fr.AST.Functions()); n > cfg.MonolithDeclarations {
			seen[fmt.Sprintf("%s is a large monolith with %d functions.", p, n)] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// functionNames returns up to limit function names; limit 0 means all.
func functionNames(ast model.ParseResult, limit int) []string {
	names := make([]string, 0)
	for _, fn := range ast.Functions() {
		if limit > 0 && len(names) == limit {
			break
		}
		names = append(names, fn.Name)
	}
	return names
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
