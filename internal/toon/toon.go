// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/agentscout/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a Report into TOON format. Sections are emitted in a fixed
// order with rows in path order, so equal reports encode identically.
func Encode(r *model.Report) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("repo: %s", encodeValue(r.Repo)))
	parts = append(parts, formatSummary(&r.Summary))

	paths := r.Paths()

	var fileRows [][]string
	for _, p := range paths {
		fr := r.Files[p]
		fileRows = append(fileRows, []string{
			p,
			fr.Language,
			fr.AST.Mode,
			strconv.Itoa(fr.Complexity),
			fr.AST.Error,
		})
	}
	parts = append(parts, formatTabular("files", []string{"path", "language", "mode", "complexity", "error"}, fileRows))

	var declRows [][]string
	for _, p := range paths {
		decls := r.Files[p].AST.Declarations
		for i := range decls {
			d := &decls[i]
			declRows = append(declRows, []string{
				p,
				d.Name,
				string(d.Kind),
				strconv.Itoa(d.StartLine),
				strconv.Itoa(d.EndLine),
			})
		}
	}
	parts = append(parts, formatTabular("declarations", []string{"file", "name", "kind", "start", "end"}, declRows))

	var importRows [][]string
	for _, p := range paths {
		for _, imp := range r.Dependencies[p] {
			importRows = append(importRows, []string{p, imp})
		}
	}
	parts = append(parts, formatTabular("imports", []string{"file", "module"}, importRows))

	var depRows [][]string
	for i := range r.InternalDependencies {
		d := &r.InternalDependencies[i]
		depRows = append(depRows, []string{
			d.Source,
			d.Target,
			strings.Join(d.Imports, " "),
		})
	}
	parts = append(parts, formatTabular("dependencies", []string{"source", "target", "imports"}, depRows))

	var oppRows [][]string
	for i := range r.AgentOpportunities {
		o := &r.AgentOpportunities[i]
		oppRows = append(oppRows, []string{
			o.FilePath,
			o.FunctionName,
			strconv.Itoa(o.StartLine),
			strconv.Itoa(o.EndLine),
			string(o.Verdict),
			string(o.RiskLevel),
			string(o.SuggestedAgentType),
			strings.Join(o.Signals, "; "),
			o.Explanation,
		})
	}
	parts = append(parts, formatTabular("opportunities",
		[]string{"file", "name", "start", "end", "verdict", "risk", "archetype", "signals", "explanation"}, oppRows))

	return strings.Join(parts, "\n")
}

func formatSummary(s *model.Summary) string {
	langs := make([]string, len(s.Languages))
	for i, l := range s.Languages {
		langs[i] = encodeValue(l)
	}

	var b strings.Builder
	b.WriteString("summary:")
	fmt.Fprintf(&b, "\n  files: %d", s.Files)
	fmt.Fprintf(&b, "\n  skipped: %d", s.Skipped)
	fmt.Fprintf(&b, "\n  languages[%d]:", len(langs))
	if len(langs) > 0 {
		b.WriteString(" " + strings.Join(langs, ","))
	}
	fmt.Fprintf(&b, "\n  total_complexity: %d", s.TotalComplexity)
	fmt.Fprintf(&b, "\n  fingerprint: %s", encodeValue(s.Fingerprint))
	return b.String()
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
