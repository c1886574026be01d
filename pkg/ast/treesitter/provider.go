package treesitter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/panbanda/typeone/pkg/ast"
	"github.com/panbanda/typeone/pkg/parser"
	"github.com/panbanda/typeone/pkg/syntax"
	sitter "github.com/smacker/go-tree-sitter"
)

// Provider implements ast.Provider using tree-sitter.
type Provider struct {
	parser *parser.Parser
}

// New creates a new tree-sitter based provider.
func New() *Provider {
	return &Provider{
		parser: parser.New(),
	}
}

// Factory returns an ast.Factory producing tree-sitter providers.
func Factory() ast.Factory {
	return func() ast.Provider { return New() }
}

// Parse parses source and converts the tree-sitter tree into an arena tree.
func (p *Provider) Parse(ctx context.Context, path string, source []byte) (*syntax.Tree, error) {
	lang := parser.DetectLanguage(path)
	if lang == parser.LangUnknown {
		return nil, fmt.Errorf("%w: %s", ast.ErrUnsupportedLanguage, path)
	}

	result, err := p.parser.Parse(ctx, source, lang, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ast.ErrParseUnavailable, path, err)
	}
	defer result.Close()

	root := result.Tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("%w: %s: empty tree", ast.ErrParseUnavailable, path)
	}
	// Error-recovered trees are rejected rather than partially analyzed.
	if root.HasError() {
		return nil, fmt.Errorf("%w: %s: syntax errors", ast.ErrParseUnavailable, path)
	}

	c := &converter{
		b:      syntax.NewBuilder(path, string(lang)),
		source: result.Source,
		table:  categoriesFor(lang),
	}
	c.convert(root)
	return c.b.Tree()
}

// Language returns the detected language for a file path.
func (p *Provider) Language(path string) ast.Language {
	return ast.Language(parser.DetectLanguage(path))
}

// Close releases parser resources.
func (p *Provider) Close() {
	p.parser.Close()
}

// converter walks a tree-sitter tree in pre-order, emitting named nodes
// into the arena. Comments are dropped. Anonymous children (operators,
// keywords, punctuation) are folded into the parent's content as
// "slot:text", where slot is the number of named children before them, so
// i++ and ++i or for (;c;) and for (;;c) stay distinct. Field names of
// named children are recorded the same way as "slot=field".
type converter struct {
	b      *syntax.Builder
	source []byte
	table  categoryTable
}

func (c *converter) convert(node *sitter.Node) {
	nodeType := node.Type()
	count := int(node.ChildCount())

	id := c.b.Open(nodeType, c.table.classify(nodeType, count == 0), spanOf(node))
	if count == 0 {
		c.b.AppendContent(id, parser.GetNodeText(node, c.source))
	}

	slot := 0
	for i := range count {
		child := node.Child(i)
		if child == nil || child.IsExtra() {
			continue
		}
		if !child.IsNamed() {
			c.b.AppendContent(id, strconv.Itoa(slot)+":"+parser.GetNodeText(child, c.source))
			continue
		}
		if field := node.FieldNameForChild(i); field != "" {
			c.b.AppendContent(id, strconv.Itoa(slot)+"="+field)
		}
		c.convert(child)
		slot++
	}
	c.b.Close()
}

// spanOf converts tree-sitter points to 1-based inclusive lines. A node that
// ends at column 0 does not occupy its final row.
func spanOf(node *sitter.Node) syntax.Span {
	start := node.StartPoint()
	end := node.EndPoint()
	endRow := end.Row
	if end.Column == 0 && endRow > start.Row {
		endRow--
	}
	return syntax.Span{StartLine: start.Row + 1, EndLine: endRow + 1}
}
