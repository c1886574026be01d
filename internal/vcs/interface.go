// Package vcs reads source trees out of git history so detection can run
// against a revision instead of the working copy.
package vcs

// Opener opens the git repository containing a directory.
type Opener interface {
	Open(dir string) (Repository, error)
}

// Repository resolves revisions.
type Repository interface {
	// Resolve returns the commit named by rev: a branch, tag, hash,
	// remote-tracking branch or ancestry expression such as HEAD~2.
	Resolve(rev string) (Commit, error)
	// Root is the worktree root. User paths are made relative to it.
	Root() string
}

// Commit is a resolved revision.
type Commit interface {
	// ID is the full hex object name.
	ID() string
	Tree() (Tree, error)
}

// TreeEntry is a file or directory in a tree. Size is zero for directories.
type TreeEntry struct {
	Path  string
	Size  int64
	IsDir bool
}

// Tree is a snapshot of the repository contents.
type Tree interface {
	// Entries walks the tree recursively. Submodules are not included.
	Entries() ([]TreeEntry, error)
	// File returns the blob at a slash-separated path.
	File(path string) ([]byte, error)
}
