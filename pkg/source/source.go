// Package source supplies file content to the analyzer, either from the
// working tree or from a git revision.
package source

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/panbanda/typeone/internal/vcs"
)

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct{}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// TreeSource reads files from a git tree. Paths are relative to the
// repository root.
// It is safe for concurrent use by multiple goroutines.
type TreeSource struct {
	tree vcs.Tree
	mu   sync.Mutex
}

// NewTree creates a source that reads from a git tree.
func NewTree(tree vcs.Tree) *TreeSource {
	return &TreeSource{tree: tree}
}

// AtRevision opens the repository containing dir and returns a source for
// the tree at rev.
func AtRevision(dir, rev string) (*TreeSource, error) {
	repo, err := vcs.DefaultOpener().Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", dir, err)
	}
	commit, err := repo.Resolve(rev)
	if err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree of %s: %w", rev, err)
	}
	return NewTree(tree), nil
}

// Read implements ContentSource.
// It is safe for concurrent use.
func (t *TreeSource) Read(path string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.File(path)
}

// Files lists the files in the tree no larger than maxSize (0 = no limit),
// sorted by path.
func (t *TreeSource) Files(maxSize int64) ([]string, error) {
	t.mu.Lock()
	entries, err := t.tree.Entries()
	t.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		if maxSize > 0 && e.Size > maxSize {
			continue
		}
		files = append(files, e.Path)
	}
	sort.Strings(files)
	return files, nil
}
