// Package model defines core data structures for agentscout.
package model

import "sort"

// DeclKind indicates the syntactic kind of a declaration.
type DeclKind string

const (
	Function DeclKind = "function"
	Class    DeclKind = "class"
)

// Verdict is the detector's decision for one declaration.
type Verdict string

const (
	Candidate Verdict = "candidate"
	Rejected  Verdict = "rejected"
)

// RiskLevel categorizes the risk of turning a declaration into an agent.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Archetype is the suggested autonomous-agent pattern for a candidate.
type Archetype string

const (
	OrchestrationAgent Archetype = "Orchestration Agent"
	ReasoningAgent     Archetype = "Reasoning & Planning Agent"
	ToolUseAgent       Archetype = "Tool Use Agent"
)

// SyntaxError marks a ParseResult produced from source the exact-mode
// grammar could not parse.
const SyntaxError = "SyntaxError"

// Declaration is a named function or class found in a file.
// EndLine is 0 when the parser could not determine it.
type Declaration struct {
	Kind      DeclKind `json:"kind"`
	Name      string   `json:"name"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line,omitempty"`
}

// ControlStructures counts branching constructs in a file.
type ControlStructures struct {
	If    int `json:"if"`
	For   int `json:"for"`
	While int `json:"while"`
}

// ParseResult holds everything the structural parser extracted from one file.
// Imports and Calls have set semantics and are kept sorted.
type ParseResult struct {
	Error             string            `json:"error,omitempty"`
	Mode              string            `json:"mode"`
	Declarations      []Declaration     `json:"declarations"`
	Imports           []string          `json:"imports"`
	Calls             []string          `json:"calls"`
	ControlStructures ControlStructures `json:"control_structures"`
}

// Functions returns the function declarations in source order.
func (r ParseResult) Functions() []Declaration {
	var out []Declaration
	for _, d := range r.Declarations {
		if d.Kind == Function {
			out = append(out, d)
		}
	}
	return out
}

// FileReport is the per-file entry of a Report.
type FileReport struct {
	Language   string      `json:"language"`
	AST        ParseResult `json:"ast"`
	Complexity int         `json:"complexity"`
	Hash       string      `json:"hash"`
}

// DependencyMap maps a file path to the imports it declares, in parser order.
type DependencyMap map[string][]string

// Dependency is a resolved edge between two analyzed files:
// Source imports modules that live in Target.
type Dependency struct {
	Source  string   `json:"source"`
	Target  string   `json:"target"`
	Imports []string `json:"imports"`
}

// AgentOpportunity is a code-anchored opportunity for agentification.
type AgentOpportunity struct {
	FilePath            string    `json:"file_path"`
	FunctionName        string    `json:"function_name"`
	StartLine           int       `json:"start_line"`
	EndLine             int       `json:"end_line"`
	Signals             []string  `json:"signals"`
	Verdict             Verdict   `json:"verdict"`
	RiskLevel           RiskLevel `json:"risk_level"`
	SuggestedAgentType  Archetype `json:"suggested_agent_type,omitempty"`
	IntegrationBoundary string    `json:"integration_boundary,omitempty"`
	Explanation         string    `json:"explanation,omitempty"`
}

// Summary aggregates repository-level figures.
type Summary struct {
	Files           int      `json:"files"`
	Skipped         int      `json:"skipped"`
	Languages       []string `json:"languages"`
	TotalComplexity int      `json:"total_complexity"`
	Fingerprint     string   `json:"fingerprint"`
}

// Report is the complete analysis of one repository snapshot. It is built
// once and never mutated afterwards.
type Report struct {
	Repo                 string                `json:"repo"`
	Summary              Summary               `json:"summary"`
	Files                map[string]FileReport `json:"files"`
	Dependencies         DependencyMap         `json:"dependencies"`
	InternalDependencies []Dependency          `json:"internal_dependencies"`
	AgentOpportunities   []AgentOpportunity    `json:"agent_opportunities"`
}

// Paths returns the analyzed file paths in sorted order.
func (r *Report) Paths() []string {
	paths := make([]string, 0, len(r.Files))
	for p := range r.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
