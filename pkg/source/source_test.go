package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/panbanda/typeone/internal/vcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemSource(t *testing.T) {
	src := NewFilesystem()

	content, err := src.Read("../../go.mod")
	require.NoError(t, err)
	assert.Contains(t, string(content), "module github.com/panbanda/typeone")

	_, err = src.Read("nonexistent.txt")
	assert.Error(t, err)
}

func initRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	w, err := repo.Worktree()
	require.NoError(t, err)

	for name, content := range files {
		full := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
		_, err := w.Add(name)
		require.NoError(t, err)
	}
	_, err = w.Commit("init", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func TestAtRevision(t *testing.T) {
	dir := initRepo(t, map[string]string{
		"b/B.java": "class B {}\n",
		"A.java":   "class A { int x; }\n",
	})

	src, err := AtRevision(dir, "HEAD")
	require.NoError(t, err)

	files, err := src.Files(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"A.java", "b/B.java"}, files)

	small, err := src.Files(12)
	require.NoError(t, err)
	assert.Equal(t, []string{"b/B.java"}, small)

	content, err := src.Read("b/B.java")
	require.NoError(t, err)
	assert.Equal(t, "class B {}\n", string(content))

	_, err = src.Read("missing.java")
	assert.Error(t, err)
}

func TestAtRevision_Unknown(t *testing.T) {
	dir := initRepo(t, map[string]string{"A.java": "class A {}\n"})
	_, err := AtRevision(dir, "does-not-exist")
	assert.ErrorIs(t, err, vcs.ErrRevisionNotFound)
}

func TestAtRevision_NotARepository(t *testing.T) {
	_, err := AtRevision(t.TempDir(), "HEAD")
	assert.Error(t, err)
}
