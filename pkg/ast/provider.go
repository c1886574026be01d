package ast

import (
	"context"
	"errors"

	"github.com/panbanda/typeone/pkg/syntax"
)

// ErrUnsupportedLanguage is returned when parsing a file with an unsupported language.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ErrParseUnavailable is returned when a tree could not be produced for a file.
var ErrParseUnavailable = errors.New("parse unavailable")

// Language represents a programming language.
type Language string

const (
	LangGo         Language = "go"
	LangRust       Language = "rust"
	LangPython     Language = "python"
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangTSX        Language = "tsx"
	LangJava       Language = "java"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangCSharp     Language = "csharp"
	LangRuby       Language = "ruby"
	LangPHP        Language = "php"
	LangBash       Language = "bash"
	LangUnknown    Language = "unknown"
)

// Provider supplies syntax trees for source files.
// A Provider is not required to be safe for concurrent use; callers create
// one per worker through a Factory.
type Provider interface {
	// Parse builds the syntax tree for one file.
	Parse(ctx context.Context, path string, source []byte) (*syntax.Tree, error)

	// Language returns the detected language for a file path.
	Language(path string) Language

	// Close releases provider resources.
	Close()
}

// Factory creates a fresh Provider.
type Factory func() Provider
