package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/phobologic/agentscout/internal/config"
	"github.com/phobologic/agentscout/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// fixture lays out a small mixed-language repository.
func fixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeFile(t, root, "backend/payments.py", `import requests
from backend.stripe_api import charge

def process_payment(order):
    if order.total > 0:
        for item in order.items:
            pass
    return charge(order)
`)
	writeFile(t, root, "backend/stripe_api.py", "def charge(order):\n    return order\n")
	writeFile(t, root, "broken.py", "def broken(:\n    return\n")
	writeFile(t, root, "src/components/Home.tsx", `import React from 'react';

export default function Home() {
  return null;
}
`)
	writeFile(t, root, "README.md", "# not code\n")
	writeFile(t, root, "node_modules/dep/index.js", "function runJob() {}\n")
	writeFile(t, root, "latin1.py", "name = '\xe9t\xe9'\n")
	return root
}

func TestAnalyzeReport(t *testing.T) {
	t.Parallel()

	root := fixture(t)
	report, err := New(config.Default()).Analyze(context.Background(), root, "shop")
	require.NoError(t, err)

	assert.Equal(t, "shop", report.Repo)
	assert.Equal(t, []string{
		"backend/payments.py",
		"backend/stripe_api.py",
		"broken.py",
		"src/components/Home.tsx",
	}, report.Paths())

	assert.Equal(t, 4, report.Summary.Files)
	assert.Equal(t, 1, report.Summary.Skipped, "invalid UTF-8 file is skipped")
	assert.Equal(t, []string{"python", "typescript"}, report.Summary.Languages)
	assert.Equal(t, 4, report.Summary.TotalComplexity)
	assert.Len(t, report.Summary.Fingerprint, 16)

	payments := report.Files["backend/payments.py"]
	assert.Equal(t, "python", payments.Language)
	assert.Equal(t, "exact", payments.AST.Mode)
	assert.Equal(t, 3, payments.Complexity)
	assert.Len(t, payments.Hash, 16)

	broken := report.Files["broken.py"]
	assert.Equal(t, model.SyntaxError, broken.AST.Error)
	assert.Equal(t, 0, broken.Complexity)
	assert.Empty(t, broken.AST.Declarations)

	home := report.Files["src/components/Home.tsx"]
	assert.Equal(t, "heuristic", home.AST.Mode)
	assert.Equal(t, 0, home.Complexity)

	assert.Len(t, report.Dependencies, 4, "one entry per analyzed file")
	assert.NotNil(t, report.Dependencies["broken.py"])
	assert.Equal(t, []string{"backend.stripe_api", "requests"}, report.Dependencies["backend/payments.py"])

	assert.Equal(t, []model.Dependency{{
		Source:  "backend/payments.py",
		Target:  "backend/stripe_api.py",
		Imports: []string{"backend.stripe_api"},
	}}, report.InternalDependencies)

	require.Len(t, report.AgentOpportunities, 1)
	opp := report.AgentOpportunities[0]
	assert.Equal(t, "backend/payments.py", opp.FilePath)
	assert.Equal(t, "process_payment", opp.FunctionName)
	assert.Equal(t, 4, opp.StartLine)
	assert.Equal(t, 8, opp.EndLine)
	assert.Equal(t, model.OrchestrationAgent, opp.SuggestedAgentType)
	assert.Equal(t, []string{
		"external_io_dependencies: backend.stripe_api, requests",
		"orchestration_naming_pattern",
	}, opp.Signals)
}

func TestAnalyzeIdempotent(t *testing.T) {
	t.Parallel()

	root := fixture(t)
	a := New(config.Default())

	first, err := a.Analyze(context.Background(), root, "shop")
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), root, "shop")
	require.NoError(t, err)
	third, err := New(config.Default()).Analyze(context.Background(), root, "shop")
	require.NoError(t, err)

	b1, err := json.Marshal(first)
	require.NoError(t, err)
	b2, err := json.Marshal(second)
	require.NoError(t, err)
	b3, err := json.Marshal(third)
	require.NoError(t, err)

	assert.Equal(t, string(b1), string(b2), "cached run differs")
	assert.Equal(t, string(b1), string(b3), "fresh run differs")
}

func TestAnalyzeWorkerCountDoesNotChangeReport(t *testing.T) {
	t.Parallel()

	root := fixture(t)

	serial := config.Default()
	serial.Workers = 1
	serial.ParseCacheSize = 0
	wide := config.Default()
	wide.Workers = 16

	r1, err := New(serial).Analyze(context.Background(), root, "x")
	require.NoError(t, err)
	r2, err := New(wide).Analyze(context.Background(), root, "x")
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
}

func TestAnalyzeMissingRoot(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "does-not-exist")
	report, err := New(config.Default()).Analyze(context.Background(), root, "")
	require.NoError(t, err)

	assert.Equal(t, "does-not-exist", report.Repo)
	assert.Equal(t, 0, report.Summary.Files)
	assert.Equal(t, 0, report.Summary.TotalComplexity)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"files":{}`)
	assert.Contains(t, string(data), `"dependencies":{}`)
	assert.Contains(t, string(data), `"agent_opportunities":[]`)
	assert.Contains(t, string(data), `"languages":[]`)
}

func TestAnalyzeSkipsOversizedFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "small.py", "x = 1\n")
	writeFile(t, root, "big.py", "def f():\n    return 1\n\n\n\n\n\n\n\n")

	cfg := config.Default()
	cfg.MaxFileSize = 10
	report, err := New(cfg).Analyze(context.Background(), root, "r")
	require.NoError(t, err)

	assert.Equal(t, []string{"small.py"}, report.Paths())
	assert.Equal(t, 1, report.Summary.Skipped)
	assert.NotContains(t, report.Dependencies, "big.py")
}

func TestAnalyzeLogsSkippedFiles(t *testing.T) {
	t.Parallel()

	root := fixture(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := New(config.Default(), WithLogger(logger)).Analyze(context.Background(), root, "shop")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "skipping file")
	assert.Contains(t, out, "path=latin1.py")
	assert.Contains(t, out, "analysis complete")
}

func TestAnalyzeKeywordsPolicy(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "app.js", "if (a) { for (;;) {} }\n")

	cfg := config.Default()
	cfg.ComplexityPolicy = config.PolicyKeywords
	report, err := New(cfg).Analyze(context.Background(), root, "r")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Files["app.js"].Complexity)

	report, err = New(config.Default()).Analyze(context.Background(), root, "r")
	require.NoError(t, err)
	assert.Equal(t, 0, report.Files["app.js"].Complexity)
}

func TestAnalyzeCancelled(t *testing.T) {
	t.Parallel()

	root := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := New(config.Default()).Analyze(ctx, root, "shop")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)
}

func TestAnalyzeIncludeRejected(t *testing.T) {
	t.Parallel()

	root := fixture(t)
	cfg := config.Default()
	cfg.IncludeRejected = true

	report, err := New(cfg).Analyze(context.Background(), root, "shop")
	require.NoError(t, err)

	verdicts := map[string]model.Verdict{}
	for _, opp := range report.AgentOpportunities {
		verdicts[opp.FunctionName] = opp.Verdict
	}
	assert.Equal(t, map[string]model.Verdict{
		"process_payment": model.Candidate,
		"charge":          model.Rejected,
		"Home":            model.Rejected,
	}, verdicts)
}
