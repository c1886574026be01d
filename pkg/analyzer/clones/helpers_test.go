package clones

import (
	"testing"

	"github.com/panbanda/typeone/pkg/syntax"
	"github.com/stretchr/testify/require"
)

// tn describes a synthetic syntax node.
type tn struct {
	typ     string
	cat     syntax.Category
	content string
	start   uint32
	end     uint32
	kids    []tn
}

// inc is a three-node statement "name++;" on one line.
func inc(name string, line uint32) tn {
	return tn{
		typ: "expression_statement", cat: syntax.CategoryStatement, content: ";",
		start: line, end: line,
		kids: []tn{{
			typ: "update_expression", cat: syntax.CategoryExpression, content: "++",
			start: line, end: line,
			kids: []tn{{typ: "identifier", cat: syntax.CategoryToken, content: name, start: line, end: line}},
		}},
	}
}

func block(start, end uint32, stmts ...tn) tn {
	return tn{typ: "block", cat: syntax.CategoryBlock, content: "{\x1f}", start: start, end: end, kids: stmts}
}

func program(end uint32, kids ...tn) tn {
	return tn{typ: "program", cat: syntax.CategoryOther, start: 1, end: end, kids: kids}
}

func buildTree(t *testing.T, file string, root tn) *syntax.Tree {
	t.Helper()
	b := syntax.NewBuilder(file, "java")
	var emit func(n tn)
	emit = func(n tn) {
		id := b.Open(n.typ, n.cat, syntax.Span{StartLine: n.start, EndLine: n.end})
		if n.content != "" {
			b.AppendContent(id, n.content)
		}
		for _, k := range n.kids {
			emit(k)
		}
		b.Close()
	}
	emit(root)
	tree, err := b.Tree()
	require.NoError(t, err)
	return tree
}

// incBlock builds a file holding one block of increments, one per line
// starting at line 2.
func incBlock(t *testing.T, file string, names ...string) *syntax.Tree {
	t.Helper()
	stmts := make([]tn, len(names))
	for i, n := range names {
		stmts[i] = inc(n, uint32(i+2))
	}
	end := uint32(len(names) + 2)
	return buildTree(t, file, program(end, block(1, end, stmts...)))
}

func analyzeTrees(t *testing.T, trees []*syntax.Tree, opts ...Option) *Report {
	t.Helper()
	report, err := New(opts...).AnalyzeTrees(t.Context(), trees)
	require.NoError(t, err)
	return report
}

func classByKind(r *Report, kind string) []CloneClass {
	var out []CloneClass
	for _, cc := range r.Classes {
		if cc.Kind == kind {
			out = append(out, cc)
		}
	}
	return out
}
