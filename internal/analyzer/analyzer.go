// Package analyzer runs the full pipeline over a repository snapshot:
// scan, parse and score every file in parallel, then map dependencies and
// detect agent opportunities over the merged results.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/agentscout/internal/complexity"
	"github.com/phobologic/agentscout/internal/config"
	"github.com/phobologic/agentscout/internal/detect"
	"github.com/phobologic/agentscout/internal/discover"
	"github.com/phobologic/agentscout/internal/graph"
	"github.com/phobologic/agentscout/internal/lang"
	"github.com/phobologic/agentscout/internal/model"
	"github.com/phobologic/agentscout/internal/parse"
)

// Analyzer produces Reports. It is safe for concurrent use; parse results
// are cached by content hash across calls.
type Analyzer struct {
	cfg      config.Config
	logger   *slog.Logger
	detector *detect.Detector
	cache    *lru.Cache[string, cachedFile]
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used for skipped files and run summaries.
// The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

type cachedFile struct {
	ast        model.ParseResult
	complexity int
}

// New returns an Analyzer for cfg. A cfg.ParseCacheSize of 0 disables the
// parse cache.
func New(cfg config.Config, opts ...Option) *Analyzer {
	a := &Analyzer{
		cfg:      cfg,
		logger:   slog.New(slog.DiscardHandler),
		detector: detect.New(cfg),
	}
	if cfg.ParseCacheSize > 0 {
		// Only fails for a non-positive size.
		a.cache, _ = lru.New[string, cachedFile](cfg.ParseCacheSize)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// fileResult is one worker's output slot. ok is false for skipped files.
type fileResult struct {
	ok     bool
	report model.FileReport
}

// Analyze builds the Report for the repository at root. An empty name
// defaults to the base name of root. Files that cannot be read or decoded
// are skipped; the only error returned is the context's.
func (a *Analyzer) Analyze(ctx context.Context, root, name string) (*model.Report, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	if name == "" {
		name = filepath.Base(absRoot)
	}

	files, err := discover.Files(absRoot, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	a.logger.Debug("discovered files", "root", absRoot, "count", len(files))

	results, err := a.analyzeFiles(ctx, absRoot, files)
	if err != nil {
		return nil, err
	}

	return a.assemble(name, files, results), nil
}

// analyzeFiles fans the per-file work out to a fixed pool of workers, each
// owning its own parser, and waits for all of them before returning.
func (a *Analyzer) analyzeFiles(ctx context.Context, root string, files []discover.FileEntry) ([]fileResult, error) {
	results := make([]fileResult, len(files))
	work := make(chan int)

	g, gctx := errgroup.WithContext(ctx)
	for range a.cfg.WorkerCount(len(files)) {
		g.Go(func() error {
			p := parse.NewParser(a.cfg.HeuristicEndWindow)
			defer p.Close()
			for idx := range work {
				results[idx] = a.analyzeFile(gctx, p, root, files[idx])
			}
			return nil
		})
	}

feed:
	for i := range files {
		select {
		case work <- i:
		case <-gctx.Done():
			break feed
		}
	}
	close(work)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *Analyzer) analyzeFile(ctx context.Context, p *parse.Parser, root string, f discover.FileEntry) (res fileResult) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("skipping file", "path", f.Path, "err", fmt.Errorf("panic while parsing: %v", r))
			res = fileResult{}
		}
	}()

	absPath := filepath.Join(root, filepath.FromSlash(f.Path))
	if a.cfg.MaxFileSize > 0 {
		if fi, err := os.Stat(absPath); err == nil && fi.Size() > a.cfg.MaxFileSize {
			a.logger.Warn("skipping file", "path", f.Path, "err", fmt.Errorf("larger than %d bytes", a.cfg.MaxFileSize))
			return fileResult{}
		}
	}

	source, err := os.ReadFile(absPath)
	if err != nil {
		a.logger.Warn("skipping file", "path", f.Path, "err", err)
		return fileResult{}
	}
	if !utf8.Valid(source) {
		a.logger.Warn("skipping file", "path", f.Path, "err", "not valid UTF-8")
		return fileResult{}
	}

	sum := xxhash.Sum64(source)
	key := cacheKey(f.Path, sum)
	if a.cache != nil {
		if c, ok := a.cache.Get(key); ok {
			return fileResult{ok: true, report: a.fileReport(f, c, sum)}
		}
	}

	c := a.parseAndScore(ctx, p, f, source)
	if ctx.Err() != nil {
		// A cancelled parse looks like a syntax error; don't cache it.
		return fileResult{}
	}
	if a.cache != nil {
		a.cache.Add(key, c)
	}
	return fileResult{ok: true, report: a.fileReport(f, c, sum)}
}

// parseAndScore runs the structural parser and the complexity scorer. Python
// files are parsed once and the tree is shared.
func (a *Analyzer) parseAndScore(ctx context.Context, p *parse.Parser, f discover.FileEntry, source []byte) cachedFile {
	if f.Mode == lang.ModeExact {
		tree := p.ParseTree(ctx, source)
		defer tree.Close()
		return cachedFile{
			ast:        parse.FromTree(tree),
			complexity: complexity.FromTree(tree, a.cfg.ComplexityPolicy),
		}
	}
	return cachedFile{
		ast:        p.Parse(ctx, f.Path, source),
		complexity: complexity.Score(ctx, p, source, a.cfg.ComplexityPolicy),
	}
}

func (a *Analyzer) fileReport(f discover.FileEntry, c cachedFile, sum uint64) model.FileReport {
	return model.FileReport{
		Language:   f.Language,
		AST:        c.ast,
		Complexity: c.complexity,
		Hash:       formatHash(sum),
	}
}

// assemble merges the worker results into a Report. It runs after every
// worker has finished.
func (a *Analyzer) assemble(name string, files []discover.FileEntry, results []fileResult) *model.Report {
	report := &model.Report{
		Repo:  name,
		Files: make(map[string]model.FileReport, len(files)),
	}

	asts := make(map[string]model.ParseResult, len(files))
	inputs := make([]detect.FileInput, 0, len(files))
	languages := make(map[string]struct{})
	fingerprint := xxhash.New()

	for i, f := range files {
		r := results[i]
		if !r.ok {
			report.Summary.Skipped++
			continue
		}
		report.Files[f.Path] = r.report
		asts[f.Path] = r.report.AST
		inputs = append(inputs, detect.FileInput{
			Path:       f.Path,
			AST:        r.report.AST,
			Complexity: r.report.Complexity,
		})
		languages[r.report.Language] = struct{}{}
		report.Summary.TotalComplexity += r.report.Complexity
		_, _ = fingerprint.WriteString(f.Path + "\x00" + r.report.Hash + "\n")
	}

	report.Summary.Files = len(report.Files)
	report.Summary.Languages = sortedSet(languages)
	report.Summary.Fingerprint = formatHash(fingerprint.Sum64())

	report.Dependencies = graph.BuildDependencyMap(asts)
	report.InternalDependencies = graph.BuildEdges(report.Dependencies)
	report.AgentOpportunities = a.detector.Detect(inputs)

	a.logger.Info("analysis complete",
		"repo", name,
		"files", report.Summary.Files,
		"skipped", report.Summary.Skipped,
		"opportunities", len(report.AgentOpportunities),
	)
	return report
}

// cacheKey includes the extension because the same bytes parse differently
// per language.
func cacheKey(filePath string, sum uint64) string {
	return strings.ToLower(path.Ext(filePath)) + ":" + formatHash(sum)
}

func formatHash(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
