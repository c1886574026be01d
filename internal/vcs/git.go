package vcs

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrRevisionNotFound is returned when a revision cannot be resolved.
var ErrRevisionNotFound = errors.New("revision not found")

// GitOpener opens repositories with go-git.
type GitOpener struct{}

// Open finds the repository containing dir, searching parent directories
// for .git.
func (GitOpener) Open(dir string) (Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, err
	}
	root := dir
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return &gitRepository{repo: repo, root: root}, nil
}

var defaultOpener Opener = GitOpener{}

// DefaultOpener returns the go-git backed opener.
func DefaultOpener() Opener {
	return defaultOpener
}

type gitRepository struct {
	repo *git.Repository
	root string
}

func (r *gitRepository) Root() string {
	return r.root
}

func (r *gitRepository) Resolve(rev string) (Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRevisionNotFound, rev, err)
	}
	c, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRevisionNotFound, rev, err)
	}
	return gitCommit{c}, nil
}

type gitCommit struct {
	commit *object.Commit
}

func (c gitCommit) ID() string {
	return c.commit.Hash.String()
}

func (c gitCommit) Tree() (Tree, error) {
	tree, err := c.commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("tree of %s: %w", c.commit.Hash, err)
	}
	return gitTree{tree}, nil
}

type gitTree struct {
	tree *object.Tree
}

func (t gitTree) Entries() ([]TreeEntry, error) {
	var entries []TreeEntry
	walker := object.NewTreeWalker(t.tree, true, nil)
	defer walker.Close()
	for {
		name, entry, err := walker.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		switch entry.Mode {
		case filemode.Submodule:
			continue
		case filemode.Dir:
			entries = append(entries, TreeEntry{Path: name, IsDir: true})
		default:
			size, _ := t.tree.Size(name)
			entries = append(entries, TreeEntry{Path: name, Size: size})
		}
	}
}

func (t gitTree) File(path string) ([]byte, error) {
	f, err := t.tree.File(path)
	if err != nil {
		return nil, err
	}
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
