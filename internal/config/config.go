// Package config holds the immutable configuration of the analysis pipeline:
// scanner lists, detector vocabularies and numeric thresholds.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ComplexityPolicy decides what the complexity scorer returns for source the
// exact-mode grammar cannot parse.
type ComplexityPolicy string

const (
	// PolicyZero scores unparseable files as 0.
	PolicyZero ComplexityPolicy = "zero"
	// PolicyKeywords falls back to counting branch keywords in the raw text.
	PolicyKeywords ComplexityPolicy = "keywords"
)

// ErrInvalid is returned (wrapped) by Validate.
var ErrInvalid = errors.New("invalid config")

// Config is passed by value into every pipeline stage. Slices must not be
// mutated after construction.
type Config struct {
	// Scanner
	IgnoreDirs       []string `yaml:"ignore_dirs"`
	Extensions       []string `yaml:"extensions"`
	Exclude          []string `yaml:"exclude"`
	RespectGitignore bool     `yaml:"respect_gitignore"`
	MaxFileSize      int64    `yaml:"max_file_size"`

	// Parser and scorer
	HeuristicEndWindow int              `yaml:"heuristic_end_window"`
	ComplexityPolicy   ComplexityPolicy `yaml:"complexity_policy"`

	// Detector
	FrontendExtensions    []string `yaml:"frontend_extensions"`
	ComponentDirs         []string `yaml:"component_dirs"`
	LowValuePrefixes      []string `yaml:"low_value_prefixes"`
	IOVocabulary          []string `yaml:"io_vocabulary"`
	ComponentIOVocabulary []string `yaml:"component_io_vocabulary"`
	OrchestrationKeywords []string `yaml:"orchestration_keywords"`
	HighComplexity        int      `yaml:"high_complexity"`
	ToolUseComplexity     int      `yaml:"tool_use_complexity"`
	DefaultEndOffset      int      `yaml:"default_end_offset"`
	IncludeRejected       bool     `yaml:"include_rejected"`

	// Slices and system description
	KeyFlowComplexity    int      `yaml:"key_flow_complexity"`
	PainPointComplexity  int      `yaml:"pain_point_complexity"`
	MonolithDeclarations int      `yaml:"monolith_declarations"`
	SliceWindow          int      `yaml:"slice_window"`
	SliceLimit           int      `yaml:"slice_limit"`
	EntrypointFilenames  []string `yaml:"entrypoint_filenames"`
	IntegrationBoundary  string   `yaml:"integration_boundary"`

	// Orchestrator
	Workers        int `yaml:"workers"`
	ParseCacheSize int `yaml:"parse_cache_size"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		IgnoreDirs:  []string{"node_modules", ".git", "__pycache__", "dist", "build", "venv", "env"},
		Extensions:  []string{".py", ".ts", ".js", ".jsx", ".tsx", ".go", ".java"},
		MaxFileSize: 1_000_000,

		HeuristicEndWindow: 20,
		ComplexityPolicy:   PolicyZero,

		FrontendExtensions: []string{".tsx", ".jsx", ".ts", ".js"},
		ComponentDirs:      []string{"components", "views", "pages"},
		LowValuePrefixes:   []string{"render", "toggle", "set", "use", "on", "get", "handle"},
		IOVocabulary: []string{
			"requests", "httpx", "aiohttp", "boto3", "sql", "mongo", "redis",
			"firebase", "api", "client", "ai", "openai", "anthropic", "google",
		},
		ComponentIOVocabulary: []string{"openai", "anthropic", "langchain", "firebase", "google"},
		OrchestrationKeywords: []string{
			"process", "manager", "workflow", "run", "execute", "summarize",
			"generate", "analyze", "chat", "bot", "service", "job", "task",
		},
		HighComplexity:    20,
		ToolUseComplexity: 5,
		DefaultEndOffset:  10,

		KeyFlowComplexity:    10,
		PainPointComplexity:  15,
		MonolithDeclarations: 20,
		SliceWindow:          50,
		SliceLimit:           10,
		EntrypointFilenames: []string{
			"main.py", "app.py", "index.py", "wsgi.py", "manage.py", "index.js", "server.js",
		},
		IntegrationBoundary: "Internal Logic Replacement",

		Workers:        runtime.GOMAXPROCS(0),
		ParseCacheSize: 4096,
	}
}

// Load reads a YAML file on top of Default. An empty path skips the file.
// A .env file in the working directory is loaded first when present, and
// AGENTSCOUT_* environment variables override the result.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("AGENTSCOUT_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AGENTSCOUT_WORKERS: %w", err)
		}
		cfg.Workers = n
	}
	if v := os.Getenv("AGENTSCOUT_COMPLEXITY_POLICY"); v != "" {
		cfg.ComplexityPolicy = ComplexityPolicy(strings.ToLower(strings.TrimSpace(v)))
	}
	if v := os.Getenv("AGENTSCOUT_INCLUDE_REJECTED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AGENTSCOUT_INCLUDE_REJECTED: %w", err)
		}
		cfg.IncludeRejected = b
	}
	return nil
}

// Validate reports the first problem found in cfg.
func (c Config) Validate() error {
	switch c.ComplexityPolicy {
	case PolicyZero, PolicyKeywords:
	default:
		return fmt.Errorf("%w: unknown complexity policy %q", ErrInvalid, c.ComplexityPolicy)
	}

	thresholds := map[string]int{
		"heuristic_end_window":  c.HeuristicEndWindow,
		"high_complexity":       c.HighComplexity,
		"tool_use_complexity":   c.ToolUseComplexity,
		"default_end_offset":    c.DefaultEndOffset,
		"key_flow_complexity":   c.KeyFlowComplexity,
		"pain_point_complexity": c.PainPointComplexity,
		"monolith_declarations": c.MonolithDeclarations,
		"slice_window":          c.SliceWindow,
		"slice_limit":           c.SliceLimit,
		"parse_cache_size":      c.ParseCacheSize,
	}
	for name, v := range thresholds {
		if v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalid, name)
		}
	}
	if c.MaxFileSize < 0 {
		return fmt.Errorf("%w: max_file_size must not be negative", ErrInvalid)
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("%w: no extensions configured", ErrInvalid)
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%w: extension %q must start with a dot", ErrInvalid, ext)
		}
	}
	return nil
}

// WorkerCount returns the number of parse workers to start for n files.
func (c Config) WorkerCount(n int) int {
	w := c.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if w > n {
		w = n
	}
	return w
}

// HasExtension reports whether ext is in the scanner allow-list.
func (c Config) HasExtension(ext string) bool {
	return contains(c.Extensions, ext)
}

// IsFrontend reports whether ext marks a view/markup-oriented file.
func (c Config) IsFrontend(ext string) bool {
	return contains(c.FrontendExtensions, ext)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
