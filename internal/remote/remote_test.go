package remote

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestParse_LocalPath(t *testing.T) {
	// Create a temp directory that exists
	dir := t.TempDir()

	src, err := Parse(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src != nil {
		t.Errorf("expected nil for local path, got %+v", src)
	}
}

func TestParse_GitHubShorthand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantURL string
		wantRef string
	}{
		{
			name:    "simple owner/repo",
			input:   "facebook/react",
			wantURL: "https://github.com/facebook/react",
			wantRef: "",
		},
		{
			name:    "with ref suffix",
			input:   "facebook/react@v18.2.0",
			wantURL: "https://github.com/facebook/react",
			wantRef: "v18.2.0",
		},
		{
			name:    "with branch ref",
			input:   "owner/repo@feature-branch",
			wantURL: "https://github.com/owner/repo",
			wantRef: "feature-branch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src == nil {
				t.Fatal("expected Source, got nil")
			}
			if src.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", src.URL, tt.wantURL)
			}
			if src.Ref != tt.wantRef {
				t.Errorf("Ref = %q, want %q", src.Ref, tt.wantRef)
			}
		})
	}
}

func TestParse_FullURLs(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantURL string
		wantRef string
	}{
		{
			name:    "github.com without scheme",
			input:   "github.com/golang/go",
			wantURL: "https://github.com/golang/go",
			wantRef: "",
		},
		{
			name:    "https URL",
			input:   "https://github.com/kubernetes/kubernetes",
			wantURL: "https://github.com/kubernetes/kubernetes",
			wantRef: "",
		},
		{
			name:    "gitlab URL",
			input:   "https://gitlab.com/group/project",
			wantURL: "https://gitlab.com/group/project",
			wantRef: "",
		},
		{
			name:    "SSH URL",
			input:   "git@github.com:owner/repo.git",
			wantURL: "git@github.com:owner/repo.git",
			wantRef: "",
		},
		{
			name:    "URL with ref",
			input:   "github.com/golang/go@go1.21.0",
			wantURL: "https://github.com/golang/go",
			wantRef: "go1.21.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src == nil {
				t.Fatal("expected Source, got nil")
			}
			if src.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", src.URL, tt.wantURL)
			}
			if src.Ref != tt.wantRef {
				t.Errorf("Ref = %q, want %q", src.Ref, tt.wantRef)
			}
		})
	}
}

func TestParse_EmptyRef(t *testing.T) {
	if _, err := Parse("owner/repo@"); err == nil {
		t.Error("expected error for empty ref")
	}
}

func TestParse_NotRemote(t *testing.T) {
	for _, input := range []string{"main.go", "./src/app", "a/b/c", "example.com"} {
		src, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", input, err)
		}
		if src != nil {
			t.Errorf("Parse(%q) = %+v, want nil", input, src)
		}
	}
}

// originRepo creates a local repository with a feature branch and a tag.
func originRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git-upload-pack"); err != nil {
		t.Skip("git-upload-pack not available")
	}

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	commitFile := func(name, content string) plumbing.Hash {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := w.Add(name); err != nil {
			t.Fatal(err)
		}
		hash, err := w.Commit("add "+name, &git.CommitOptions{
			Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
		})
		if err != nil {
			t.Fatal(err)
		}
		return hash
	}

	first := commitFile("A.java", "class A {}\n")
	if _, err := repo.CreateTag("v1", first, nil); err != nil {
		t.Fatalf("tag: %v", err)
	}
	head, err := repo.Head()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName("feature"), Create: true}); err != nil {
		t.Fatalf("checkout feature: %v", err)
	}
	commitFile("B.java", "class B {}\n")
	if err := w.Checkout(&git.CheckoutOptions{Branch: head.Name()}); err != nil {
		t.Fatalf("checkout default: %v", err)
	}
	return dir
}

func TestSource_Clone(t *testing.T) {
	src := &Source{URL: originRepo(t)}

	if err := src.Clone(context.Background(), io.Discard, true); err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	dir := src.CloneDir
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		t.Errorf(".git directory not found in %s", dir)
	}
	if _, err := os.Stat(filepath.Join(dir, "A.java")); err != nil {
		t.Error("default branch should be checked out")
	}
	if got := src.Revision(); got != "HEAD" {
		t.Errorf("Revision() = %q, want HEAD", got)
	}

	if err := src.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("Cleanup should remove the clone directory")
	}
	if src.CloneDir != "" {
		t.Error("Cleanup should reset CloneDir")
	}
}

func TestSource_Revision(t *testing.T) {
	origin := originRepo(t)
	tests := []struct {
		ref  string
		want string
	}{
		{"v1", "v1"},
		{"feature", "origin/feature"},
		{"missing", "missing"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			src := &Source{URL: origin, Ref: tt.ref}
			if err := src.Clone(context.Background(), io.Discard, true); err != nil {
				t.Fatalf("Clone failed: %v", err)
			}
			defer src.Cleanup()
			if got := src.Revision(); got != tt.want {
				t.Errorf("Revision() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSource_CloneFailure(t *testing.T) {
	src := &Source{URL: filepath.Join(t.TempDir(), "missing")}
	if err := src.Clone(context.Background(), io.Discard, false); err == nil {
		t.Fatal("expected clone of a missing repository to fail")
	}
	if src.CloneDir != "" {
		t.Errorf("CloneDir = %q after failure, want empty", src.CloneDir)
	}
}
