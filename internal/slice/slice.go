// Package slice extracts bounded source excerpts for the functions found by
// an analysis, for hand-off to a downstream reviewer.
package slice

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/phobologic/agentscout/internal/config"
	"github.com/phobologic/agentscout/internal/model"
)

// Slice is a window of source lines starting at a function declaration.
// EndLine is inclusive.
type Slice struct {
	File      string `json:"file"`
	Function  string `json:"function"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Code      string `json:"code"`
	Reason    string `json:"reason"`
}

// Collect reads every analyzed file under root and returns up to
// cfg.SliceLimit slices, files in path order and functions in source order.
// Each slice spans at most cfg.SliceWindow lines. Files that are missing,
// unreadable or not valid UTF-8 are skipped.
func Collect(report *model.Report, root string, cfg config.Config) []Slice {
	slices := make([]Slice, 0)
	for _, path := range report.Paths() {
		if len(slices) >= cfg.SliceLimit {
			break
		}
		fr := report.Files[path]
		funcs := fr.AST.Functions()
		if len(funcs) == 0 {
			continue
		}

		lines, ok := readLines(filepath.Join(root, filepath.FromSlash(path)))
		if !ok {
			continue
		}

		reason := "Function found in analysis"
		if fr.Complexity > cfg.KeyFlowComplexity {
			reason = fmt.Sprintf("High complexity (%d) function", fr.Complexity)
		}

		for _, fn := range funcs {
			if len(slices) >= cfg.SliceLimit {
				break
			}
			start := max(fn.StartLine-1, 0)
			end := min(start+cfg.SliceWindow, len(lines))
			code := ""
			if start < end {
				code = strings.Join(lines[start:end], "")
			}
			slices = append(slices, Slice{
				File:      path,
				Function:  fn.Name,
				StartLine: fn.StartLine,
				EndLine:   end,
				Code:      code,
				Reason:    reason,
			})
		}
	}
	return slices
}

// readLines splits a file into lines, keeping line terminators.
func readLines(path string) ([]string, bool) {
	data, err := os.ReadFile(path)
	if err != nil || !utf8.Valid(data) {
		return nil, false
	}
	if len(data) == 0 {
		return nil, true
	}
	lines := strings.SplitAfter(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, true
}
