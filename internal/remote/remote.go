package remote

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/panbanda/typeone/internal/vcs"
)

// Source represents a remote repository to analyze.
type Source struct {
	URL      string // normalized git URL
	Ref      string // branch, tag, or SHA (empty = default branch)
	CloneDir string // temp directory after clone
}

// Parse detects if a path is a remote reference.
// Returns nil if path exists on filesystem (local path takes precedence).
func Parse(path string) (*Source, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, nil
	}

	if strings.HasSuffix(path, "@") && path != "git@" {
		return nil, fmt.Errorf("empty ref in %q", path)
	}
	path, ref := splitRef(path)

	switch {
	case strings.HasPrefix(path, "https://"), strings.HasPrefix(path, "http://"),
		strings.HasPrefix(path, "ssh://"), strings.HasPrefix(path, "file://"):
		return &Source{URL: path, Ref: ref}, nil
	case strings.HasPrefix(path, "git@"):
		return &Source{URL: path, Ref: ref}, nil
	case isHostPath(path):
		return &Source{URL: "https://" + path, Ref: ref}, nil
	case isGitHubShorthand(path):
		return &Source{URL: "https://github.com/" + path, Ref: ref}, nil
	}
	return nil, nil
}

// splitRef separates a trailing @ref. The user part of an scp-style SSH
// address (git@host:...) is not a ref.
func splitRef(path string) (string, string) {
	start := 0
	if strings.HasPrefix(path, "git@") {
		start = len("git@")
	}
	idx := strings.LastIndex(path[start:], "@")
	if idx == -1 {
		return path, ""
	}
	idx += start
	return path[:idx], path[idx+1:]
}

// isGitHubShorthand returns true if path matches owner/repo pattern.
func isGitHubShorthand(path string) bool {
	slashIdx := strings.Index(path, "/")
	if slashIdx == -1 {
		return false
	}
	if strings.Count(path, "/") != 1 {
		return false
	}
	if strings.Contains(path[:slashIdx], ".") {
		return false
	}
	return slashIdx > 0 && slashIdx < len(path)-1
}

// isHostPath matches host.tld/owner/repo without a scheme.
func isHostPath(path string) bool {
	parts := strings.Split(path, "/")
	if len(parts) < 3 || !strings.Contains(parts[0], ".") || strings.HasPrefix(parts[0], ".") {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// Clone fetches the repository into a temporary directory and sets
// CloneDir. A shallow clone only fetches the tip of the default branch, so
// it is used only when no ref is requested.
func (s *Source) Clone(ctx context.Context, progress io.Writer, shallow bool) error {
	dir, err := os.MkdirTemp("", "typeone-remote-*")
	if err != nil {
		return fmt.Errorf("create clone directory: %w", err)
	}

	opts := &git.CloneOptions{
		URL:      s.URL,
		Progress: progress,
		Tags:     git.AllTags,
	}
	if shallow && s.Ref == "" {
		opts.Depth = 1
		opts.SingleBranch = true
		opts.Tags = git.NoTags
	}

	if _, err := git.PlainCloneContext(ctx, dir, false, opts); err != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("clone %s: %w", s.URL, err)
	}
	s.CloneDir = dir
	return nil
}

// Revision returns the revision to analyze in the clone. Branches other
// than the default one only exist as origin/<branch> after cloning.
func (s *Source) Revision() string {
	if s.Ref == "" {
		return "HEAD"
	}
	repo, err := vcs.DefaultOpener().Open(s.CloneDir)
	if err != nil {
		return s.Ref
	}
	for _, rev := range []string{s.Ref, "origin/" + s.Ref} {
		if _, err := repo.Resolve(rev); err == nil {
			return rev
		}
	}
	return s.Ref
}

// Cleanup removes the clone directory.
func (s *Source) Cleanup() error {
	if s.CloneDir == "" {
		return nil
	}
	err := os.RemoveAll(s.CloneDir)
	s.CloneDir = ""
	return err
}
