// Package discover finds analyzable source files in a repository.
package discover

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/agentscout/internal/config"
	"github.com/phobologic/agentscout/internal/lang"
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path     string // Relative to repo root, slash-separated
	Language string
	Mode     lang.Mode
}

// Files discovers source files under root whose extension is in
// cfg.Extensions. Ignored directories are pruned before they are entered.
// A root that does not exist yields no files and no error.
func Files(root string, cfg config.Config) ([]FileEntry, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, nil
	}

	skipDirs := make(map[string]struct{}, len(cfg.IgnoreDirs))
	for _, d := range cfg.IgnoreDirs {
		skipDirs[d] = struct{}{}
	}

	var gi *ignore.GitIgnore
	if cfg.RespectGitignore {
		gi = loadGitignore(root)
	}

	var results []FileEntry

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if _, skip := skipDirs[d.Name()]; skip {
				return filepath.SkipDir
			}
			if excluded(cfg.Exclude, rel) || (gi != nil && gi.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		ext := filepath.Ext(d.Name())
		if !cfg.HasExtension(ext) {
			return nil
		}
		if excluded(cfg.Exclude, rel) || (gi != nil && gi.MatchesPath(rel)) {
			return nil
		}

		results = append(results, FileEntry{
			Path:     rel,
			Language: languageName(ext),
			Mode:     lang.ModeFor(ext),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

// languageName falls back to the bare extension for allow-listed extensions
// the registry does not know, so the summary still reports them.
func languageName(ext string) string {
	if name := lang.ForExtension(ext); name != "" {
		return name
	}
	if len(ext) > 1 {
		return ext[1:]
	}
	return ext
}

func excluded(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			// A bad pattern shouldn't break scanning.
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
