package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/panbanda/typeone/pkg/config"
	"github.com/panbanda/typeone/pkg/parser"
)

// Scanner finds source files the clone detector can parse.
type Scanner struct {
	config  *config.Config
	exclude gitignore.Matcher
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg, exclude: excludeMatcher(cfg)}
}

// excludeMatcher turns the config exclusions into gitignore patterns so that
// directories, extensions and globs share one matching rule.
func excludeMatcher(cfg *config.Config) gitignore.Matcher {
	var patterns []gitignore.Pattern
	for _, p := range cfg.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}
	for _, dir := range cfg.Exclude.Dirs {
		patterns = append(patterns, gitignore.ParsePattern(strings.TrimSuffix(dir, "/")+"/", nil))
	}
	for _, ext := range cfg.Exclude.Extensions {
		patterns = append(patterns, gitignore.ParsePattern("*"+ext, nil))
	}
	return gitignore.NewMatcher(patterns)
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// gitignore reads every .gitignore of the repository containing root.
// Patterns are relative to the returned repository root.
func (s *Scanner) gitignore(root string) (gitignore.Matcher, string) {
	if !s.config.Exclude.Gitignore {
		return nil, ""
	}
	gitRoot := findGitRoot(root)
	if gitRoot == "" {
		return nil, ""
	}
	patterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil)
	if err != nil || len(patterns) == 0 {
		return nil, ""
	}
	return gitignore.NewMatcher(patterns), gitRoot
}

func splitPath(path string) []string {
	return strings.Split(filepath.ToSlash(path), "/")
}

// ScanDir recursively scans a directory for source files.
// Symlinks that resolve outside the root are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 1024)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}
	ignore, gitRoot := s.gitignore(absRoot)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		relPath, _ := filepath.Rel(root, path)
		if relPath == "." {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		isDir := d.IsDir()
		if s.exclude.Match(splitPath(relPath), isDir) {
			if isDir {
				return filepath.SkipDir
			}
			return nil
		}
		if ignore != nil {
			if gitRel, err := filepath.Rel(gitRoot, filepath.Join(absRoot, relPath)); err == nil && ignore.Match(splitPath(gitRel), isDir) {
				if isDir {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if !isDir && parser.DetectLanguage(path) != parser.LangUnknown {
			files = append(files, path)
		}
		return nil
	})

	return files, walkErr
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// ScanFile checks if a single file should be analyzed.
func (s *Scanner) ScanFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if s.exclude.Match([]string{filepath.Base(path)}, false) {
		return false, nil
	}
	return parser.DetectLanguage(path) != parser.LangUnknown, nil
}

// ScanPaths expands files and directories into a sorted, de-duplicated list
// of source files.
func (s *Scanner) ScanPaths(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			ok, err := s.ScanFile(p)
			if err != nil {
				return nil, err
			}
			if ok {
				add(p)
			}
			continue
		}
		found, err := s.ScanDir(p)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}

	sort.Strings(files)
	return files, nil
}

// Filter applies the config exclusions and the language check to paths that
// do not live on disk, such as entries of a git tree.
func (s *Scanner) Filter(paths []string) []string {
	var out []string
	for _, p := range paths {
		parts := splitPath(p)
		excluded := false
		for i := 1; i <= len(parts); i++ {
			if s.exclude.Match(parts[:i], i < len(parts)) {
				excluded = true
				break
			}
		}
		if !excluded && parser.DetectLanguage(p) != parser.LangUnknown {
			out = append(out, p)
		}
	}
	return out
}

// FilterByLanguage filters files to only those of a specific language.
func (s *Scanner) FilterByLanguage(files []string, lang parser.Language) []string {
	var filtered []string
	for _, f := range files {
		if parser.DetectLanguage(f) == lang {
			filtered = append(filtered, f)
		}
	}
	return filtered
}
