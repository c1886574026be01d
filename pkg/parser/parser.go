package parser

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ErrUnsupportedLanguage is returned for languages without a grammar.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Language identifies a grammar.
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

type grammar struct {
	language   func() *sitter.Language
	extensions []string
	aliases    []string
}

// JSX files use the TSX grammar.
var grammars = map[Language]grammar{
	LangGo:         {golang.GetLanguage, []string{".go"}, []string{"golang"}},
	LangRust:       {rust.GetLanguage, []string{".rs"}, []string{"rs"}},
	LangPython:     {python.GetLanguage, []string{".py", ".pyw", ".pyi"}, []string{"py"}},
	LangTypeScript: {typescript.GetLanguage, []string{".ts", ".mts", ".cts"}, []string{"ts"}},
	LangTSX:        {tsx.GetLanguage, []string{".tsx", ".jsx"}, []string{"jsx"}},
	LangJavaScript: {javascript.GetLanguage, []string{".js", ".mjs", ".cjs"}, []string{"js"}},
	LangJava:       {java.GetLanguage, []string{".java"}, nil},
	LangC:          {c.GetLanguage, []string{".c", ".h"}, nil},
	LangCPP:        {cpp.GetLanguage, []string{".cpp", ".cc", ".cxx", ".hpp", ".hxx", ".hh"}, []string{"c++", "cxx"}},
	LangCSharp:     {csharp.GetLanguage, []string{".cs"}, []string{"c#", "cs"}},
	LangRuby:       {ruby.GetLanguage, []string{".rb"}, []string{"rb"}},
	LangPHP:        {php.GetLanguage, []string{".php"}, nil},
	LangBash:       {bash.GetLanguage, []string{".sh", ".bash"}, []string{"sh", "shell"}},
}

var (
	byExtension = map[string]Language{}
	byName      = map[string]Language{}
)

func init() {
	for lang, g := range grammars {
		byName[string(lang)] = lang
		for _, a := range g.aliases {
			byName[a] = lang
		}
		for _, ext := range g.extensions {
			byExtension[ext] = lang
		}
	}
}

// Languages returns every supported language, sorted by name.
func Languages() []Language {
	langs := make([]Language, 0, len(grammars))
	for lang := range grammars {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}

// ParseLanguage resolves a user-supplied language name or alias, ignoring
// case.
func ParseLanguage(name string) (Language, error) {
	if lang, ok := byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return lang, nil
	}
	return LangUnknown, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, name)
}

// DetectLanguage determines the language from a file extension.
func DetectLanguage(path string) Language {
	if lang, ok := byExtension[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return LangUnknown
}

// GetTreeSitterLanguage returns the grammar for lang.
func GetTreeSitterLanguage(lang Language) (*sitter.Language, error) {
	g, ok := grammars[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}
	return g.language(), nil
}

// Parser wraps a tree-sitter parser.
// A Parser is not safe for concurrent use; create one per worker.
type Parser struct {
	parser *sitter.Parser
}

// ParseResult holds a tree-sitter tree and the source it was built from.
type ParseResult struct {
	Tree     *sitter.Tree
	Language Language
	Source   []byte
	Path     string
}

// Close releases the underlying tree-sitter tree.
func (r *ParseResult) Close() {
	if r.Tree != nil {
		r.Tree.Close()
	}
}

// New creates a new parser instance.
func New() *Parser {
	return &Parser{parser: sitter.NewParser()}
}

// Parse parses source with the grammar for lang.
func (p *Parser) Parse(ctx context.Context, source []byte, lang Language, path string) (*ParseResult, error) {
	tsLang, err := GetTreeSitterLanguage(lang)
	if err != nil {
		return nil, err
	}
	p.parser.SetLanguage(tsLang)
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &ParseResult{Tree: tree, Language: lang, Source: source, Path: path}, nil
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// GetNodeText extracts the source text for a node.
// Returns empty string if node is nil or byte offsets are out of bounds.
func GetNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}
