package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/agentscout/internal/analyzer"
	"github.com/phobologic/agentscout/internal/config"
	"github.com/phobologic/agentscout/internal/discover"
	"github.com/phobologic/agentscout/internal/model"
	"github.com/phobologic/agentscout/internal/toon"
)

// Output formats accepted by --format.
const (
	formatJSON = "json"
	formatTOON = "toon"
	formatText = "text"
)

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Analyze a repository and print the report",
		Long: `Scan the repository at path (default: current directory), parse every
supported file, and print the report with per-file structure, complexity,
dependencies and agent opportunities.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyze,
	}
	addScanFlags(cmd)
	cmd.Flags().StringP("format", "f", formatJSON, "output format: json, toon, text")
	cmd.Flags().String("cache", "", "cache file path; reused while the options and file set match and no analyzed file is newer")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case formatJSON, formatTOON, formatText:
	default:
		return fmt.Errorf("unknown format %q (want json, toon or text)", format)
	}
	cachePath, _ := cmd.Flags().GetString("cache")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}
	stdout := cmd.OutOrStdout()

	var key string
	if cachePath != "" {
		files, err := discover.Files(root, cfg)
		if err != nil {
			return fmt.Errorf("discovering files: %w", err)
		}
		name, _ := cmd.Flags().GetString("name")
		key, err = cacheKey(format, name, root, cfg, files)
		if err != nil {
			return err
		}
		if data, ok := readCache(cachePath, key, root, files); ok {
			_, _ = stdout.Write(data)
			return nil
		}
	}

	report, err := analyze(cmd, cfg, root)
	if err != nil {
		return err
	}

	output, err := render(report, format)
	if err != nil {
		return err
	}

	if cachePath != "" {
		if err := writeCache(cachePath, key, output); err != nil {
			newLogger(cmd).Warn("writing cache", "path", cachePath, "err", err)
		}
	}

	_, err = io.WriteString(stdout, output)
	return err
}

func analyze(cmd *cobra.Command, cfg config.Config, root string) (*model.Report, error) {
	name, _ := cmd.Flags().GetString("name")
	a := analyzer.New(cfg, analyzer.WithLogger(newLogger(cmd)))
	report, err := a.Analyze(cmd.Context(), root, name)
	if err != nil {
		return nil, fmt.Errorf("analyzing %s: %w", root, err)
	}
	return report, nil
}

// render formats report, always ending with a newline.
func render(report *model.Report, format string) (string, error) {
	switch format {
	case formatTOON:
		return toon.Encode(report) + "\n", nil
	case formatText:
		return renderText(report), nil
	default:
		var buf bytes.Buffer
		if err := encodeJSON(&buf, report); err != nil {
			return "", fmt.Errorf("encoding report: %w", err)
		}
		return buf.String(), nil
	}
}

func renderText(r *model.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d files", r.Repo, r.Summary.Files)
	if r.Summary.Skipped > 0 {
		fmt.Fprintf(&b, " (%d skipped)", r.Summary.Skipped)
	}
	fmt.Fprintf(&b, ", total complexity %d\n", r.Summary.TotalComplexity)
	if len(r.Summary.Languages) > 0 {
		fmt.Fprintf(&b, "languages: %s\n", strings.Join(r.Summary.Languages, ", "))
	}

	if len(r.AgentOpportunities) == 0 {
		b.WriteString("\nNo agent opportunities found.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "\nAgent opportunities (%d):\n", len(r.AgentOpportunities))
	for _, o := range r.AgentOpportunities {
		fmt.Fprintf(&b, "\n  %s:%d-%d  %s\n", o.FilePath, o.StartLine, o.EndLine, o.FunctionName)
		if o.Verdict == model.Candidate {
			fmt.Fprintf(&b, "    %s, %s risk\n", o.SuggestedAgentType, o.RiskLevel)
			fmt.Fprintf(&b, "    %s\n", o.Explanation)
		} else {
			fmt.Fprintf(&b, "    %s\n", o.Verdict)
		}
		for _, s := range o.Signals {
			fmt.Fprintf(&b, "    - %s\n", s)
		}
	}
	return b.String()
}

// encodeJSON writes v as indented JSON followed by a newline. Archetype
// names contain "&", so HTML escaping is off.
func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// cacheHeader prefixes the first line of a cache file, followed by the key.
const cacheHeader = "# agentscout-cache "

// cacheKey hashes everything besides file contents that shapes the output:
// the format, the report name and root, the effective configuration and the
// discovered file set.
func cacheKey(format, name, root string, cfg config.Config, files []discover.FileEntry) (string, error) {
	cfgYAML, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encoding config for cache key: %w", err)
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	sort.Strings(paths)

	h := xxhash.New()
	for _, part := range []string{format, name, root, string(cfgYAML)} {
		_, _ = h.WriteString(part)
		_, _ = h.WriteString("\x00")
	}
	for _, p := range paths {
		_, _ = h.WriteString(p)
		_, _ = h.WriteString("\n")
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// readCache returns the cached output when the cache was written under key
// and is fresh.
func readCache(cachePath, key, root string, files []discover.FileEntry) ([]byte, bool) {
	if !cacheIsFresh(cachePath, root, files) {
		return nil, false
	}
	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, false
	}
	header, body, found := bytes.Cut(data, []byte("\n"))
	if !found || string(header) != cacheHeader+key {
		return nil, false
	}
	return body, true
}

func writeCache(cachePath, key, output string) error {
	return os.WriteFile(cachePath, []byte(cacheHeader+key+"\n"+output), 0o644)
}

// cacheIsFresh reports whether every discovered file is older than the cache.
func cacheIsFresh(cachePath, root string, files []discover.FileEntry) bool {
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false
	}
	cacheMtime := cacheInfo.ModTime()

	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, filepath.FromSlash(f.Path)))
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(cacheMtime) {
			return false
		}
	}
	return true
}
