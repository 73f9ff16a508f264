// Package detect classifies declarations as agent opportunities using a fixed
// decision procedure over complexity, import and naming signals.
package detect

import (
	"fmt"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/phobologic/agentscout/internal/config"
	"github.com/phobologic/agentscout/internal/model"
)

// Signal tags attached to opportunities.
const (
	SignalHighComplexity = "high_complexity_context"
	SignalExternalIO     = "external_io_dependencies"
	SignalOrchestration  = "orchestration_naming_pattern"

	// Filter tags, only present on materialized rejections.
	SignalFrontendFilter  = "frontend_ui_filter"
	SignalComponentFilter = "ui_component_filter"
)

// explanationIOLimit caps how many matched imports an explanation names.
const explanationIOLimit = 3

// FileInput is what the detector needs to know about one analyzed file.
type FileInput struct {
	Path       string
	AST        model.ParseResult
	Complexity int
}

// Detector evaluates declarations against the configured vocabularies and
// thresholds. The zero value is not usable; call New.
type Detector struct {
	cfg config.Config
}

// New returns a Detector bound to cfg.
func New(cfg config.Config) *Detector {
	return &Detector{cfg: cfg}
}

// Detect evaluates every declaration of every file in the given order and
// returns the resulting opportunities. Rejected declarations are omitted
// unless the config asks for them.
func (d *Detector) Detect(files []FileInput) []model.AgentOpportunity {
	opps := make([]model.AgentOpportunity, 0)
	for _, f := range files {
		for _, decl := range f.AST.Declarations {
			if opp, ok := d.Evaluate(f.Path, decl, f.AST.Imports, f.Complexity); ok {
				opps = append(opps, opp)
			}
		}
	}
	return opps
}

// Evaluate runs the decision procedure for a single declaration. The boolean
// is false when nothing should be reported for it.
func (d *Detector) Evaluate(filePath string, decl model.Declaration, imports []string, complexity int) (model.AgentOpportunity, bool) {
	opp := model.AgentOpportunity{
		FilePath:     filePath,
		FunctionName: decl.Name,
		StartLine:    decl.StartLine,
		EndLine:      decl.EndLine,
		Signals:      []string{},
		Verdict:      model.Rejected,
		RiskLevel:    model.RiskLow,
	}
	if opp.EndLine == 0 {
		opp.EndLine = decl.StartLine + d.cfg.DefaultEndOffset
	}

	if complexity > d.cfg.HighComplexity {
		opp.Signals = append(opp.Signals, SignalHighComplexity)
	}

	frontend := d.cfg.IsFrontend(strings.ToLower(path.Ext(filePath)))
	component := frontend && d.inComponentDir(filePath)

	if frontend {
		if tag, reject := d.uiFilter(decl.Name, component); reject {
			return d.rejected(opp, tag)
		}
	}

	vocab := d.cfg.IOVocabulary
	if component {
		vocab = d.cfg.ComponentIOVocabulary
	}
	io := matchImports(imports, vocab)
	if len(io) > 0 {
		opp.Signals = append(opp.Signals, SignalExternalIO+": "+strings.Join(io, ", "))
	}

	naming := containsAny(strings.ToLower(decl.Name), d.cfg.OrchestrationKeywords)
	if naming {
		opp.Signals = append(opp.Signals, SignalOrchestration)
	}

	switch {
	case naming && len(io) > 0:
		opp.RiskLevel = model.RiskMedium
		opp.SuggestedAgentType = model.OrchestrationAgent
	case complexity > d.cfg.HighComplexity && len(io) > 0:
		opp.RiskLevel = model.RiskHigh
		opp.SuggestedAgentType = model.ReasoningAgent
	case len(io) > 0 && complexity > d.cfg.ToolUseComplexity:
		opp.RiskLevel = model.RiskLow
		opp.SuggestedAgentType = model.ToolUseAgent
	default:
		return d.rejected(opp, "")
	}

	opp.Verdict = model.Candidate
	opp.IntegrationBoundary = d.cfg.IntegrationBoundary
	opp.Explanation = explain(opp.SuggestedAgentType, decl, io)
	return opp, true
}

// uiFilter reports whether a frontend declaration is UI plumbing rather than
// logic, and which filter caught it.
func (d *Detector) uiFilter(name string, component bool) (string, bool) {
	for _, prefix := range d.cfg.LowValuePrefixes {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if strings.HasPrefix(name, "handle") && strings.Contains(strings.ToLower(name), "submit") {
			break
		}
		return SignalFrontendFilter, true
	}

	if component {
		if r, _ := utf8.DecodeRuneInString(name); unicode.IsUpper(r) {
			return SignalComponentFilter, true
		}
	}
	return "", false
}

func (d *Detector) inComponentDir(filePath string) bool {
	for _, seg := range strings.Split(path.Dir(filePath), "/") {
		for _, dir := range d.cfg.ComponentDirs {
			if seg == dir {
				return true
			}
		}
	}
	return false
}

func (d *Detector) rejected(opp model.AgentOpportunity, filter string) (model.AgentOpportunity, bool) {
	if !d.cfg.IncludeRejected {
		return model.AgentOpportunity{}, false
	}
	if filter != "" {
		opp.Signals = append(opp.Signals, filter)
	}
	opp.Verdict = model.Rejected
	opp.RiskLevel = model.RiskLow
	opp.SuggestedAgentType = ""
	return opp, true
}

// matchImports returns, in import order, every import whose lower-cased form
// contains a vocabulary token.
func matchImports(imports, vocab []string) []string {
	var out []string
	for _, imp := range imports {
		if containsAny(strings.ToLower(imp), vocab) {
			out = append(out, imp)
		}
	}
	return out
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func explain(archetype model.Archetype, decl model.Declaration, io []string) string {
	noun := "function"
	if decl.Kind == model.Class {
		noun = "class"
	}
	named := io
	if len(named) > explanationIOLimit {
		named = named[:explanationIOLimit]
	}
	list := strings.Join(named, ", ")

	var b strings.Builder
	switch archetype {
	case model.OrchestrationAgent:
		fmt.Fprintf(&b, "This %s ('%s') appears to coordinate multiple tasks or services.", noun, decl.Name)
		if list != "" {
			fmt.Fprintf(&b, " It interacts with external services like %s.", list)
		}
	case model.ReasoningAgent:
		b.WriteString("This code handles complex logic and decision making.")
		if list != "" {
			fmt.Fprintf(&b, " It integrates with %s to perform its tasks.", list)
		}
	case model.ToolUseAgent:
		if list != "" {
			fmt.Fprintf(&b, "This %s interacts with external tools or APIs (%s).", noun, list)
		}
	}
	if b.Len() == 0 {
		return fmt.Sprintf("Identified as a candidate for %s based on code patterns.", archetype)
	}
	return b.String()
}
