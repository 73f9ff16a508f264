package slice

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/agentscout/internal/config"
	"github.com/phobologic/agentscout/internal/model"
)

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

func fn(name string, start int) model.Declaration {
	return model.Declaration{Kind: model.Function, Name: name, StartLine: start}
}

func fileReport(complexity int, decls ...model.Declaration) model.FileReport {
	return model.FileReport{Complexity: complexity, AST: model.ParseResult{Declarations: decls}}
}

func TestCollectWindows(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.py", "def one():\n    return 1\n\ndef two():\n    return 2\n")

	report := &model.Report{Files: map[string]model.FileReport{
		"a.py": fileReport(3, fn("one", 1), fn("two", 4)),
	}}

	slices := Collect(report, root, config.Default())
	require.Len(t, slices, 2)

	assert.Equal(t, Slice{
		File:      "a.py",
		Function:  "one",
		StartLine: 1,
		EndLine:   5,
		Code:      "def one():\n    return 1\n\ndef two():\n    return 2\n",
		Reason:    "Function found in analysis",
	}, slices[0])
	assert.Equal(t, 4, slices[1].StartLine)
	assert.Equal(t, "def two():\n    return 2\n", slices[1].Code)
}

func TestCollectWindowIsBounded(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	var b strings.Builder
	b.WriteString("def long():\n")
	for i := 0; i < 99; i++ {
		fmt.Fprintf(&b, "    x%d = %d\n", i, i)
	}
	writeFile(t, root, "long.py", b.String())

	report := &model.Report{Files: map[string]model.FileReport{
		"long.py": fileReport(12, fn("long", 1)),
	}}

	slices := Collect(report, root, config.Default())
	require.Len(t, slices, 1)
	assert.Equal(t, 50, slices[0].EndLine)
	assert.Equal(t, 50, strings.Count(slices[0].Code, "\n"))
	assert.Equal(t, "High complexity (12) function", slices[0].Reason)
}

func TestCollectLimit(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	files := map[string]model.FileReport{}
	for i := 0; i < 4; i++ {
		path := fmt.Sprintf("m%d.py", i)
		writeFile(t, root, path, "def a(): pass\ndef b(): pass\ndef c(): pass\n")
		files[path] = fileReport(1, fn("a", 1), fn("b", 2), fn("c", 3))
	}

	slices := Collect(&model.Report{Files: files}, root, config.Default())
	require.Len(t, slices, 10)
	assert.Equal(t, "m0.py", slices[0].File)
	assert.Equal(t, "m3.py", slices[9].File)
	assert.Equal(t, "a", slices[9].Function)
}

func TestCollectSkipsMissingAndClasses(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "models.py", "class User:\n    pass\n")

	report := &model.Report{Files: map[string]model.FileReport{
		"gone.py":   fileReport(1, fn("vanished", 1)),
		"models.py": fileReport(1, model.Declaration{Kind: model.Class, Name: "User", StartLine: 1}),
	}}

	assert.Empty(t, Collect(report, root, config.Default()))
}

func TestCollectStartBeyondEOF(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.ts", "function f() {}\n")

	report := &model.Report{Files: map[string]model.FileReport{
		"a.ts": fileReport(0, fn("ghost", 30)),
	}}

	slices := Collect(report, root, config.Default())
	require.Len(t, slices, 1)
	assert.Empty(t, slices[0].Code)
}
