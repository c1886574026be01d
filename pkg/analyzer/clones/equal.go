package clones

import (
	"github.com/panbanda/typeone/pkg/syntax"
)

// Equal reports whether the subtrees rooted at a and b are structurally
// identical: same language, and at every depth the same node type, category,
// content and child order.
func Equal(ta *syntax.Tree, a syntax.NodeID, tb *syntax.Tree, b syntax.NodeID) bool {
	alo, ahi := ta.Extent(a)
	blo, bhi := tb.Extent(b)
	return equalRange(ta, alo, ahi, tb, blo, bhi)
}

// equalRange compares two arena ranges holding whole subtrees. A pre-order
// listing annotated with child counts determines the shape of a forest, so
// comparing the ranges node by node is a full structural comparison.
func equalRange(ta *syntax.Tree, alo, ahi syntax.NodeID, tb *syntax.Tree, blo, bhi syntax.NodeID) bool {
	if ahi-alo != bhi-blo {
		return false
	}
	if ta.Language != tb.Language {
		return false
	}
	for i := syntax.NodeID(0); i < ahi-alo; i++ {
		x := &ta.Nodes[alo+i]
		y := &tb.Nodes[blo+i]
		if x.Type != y.Type ||
			x.Category != y.Category ||
			len(x.Children) != len(y.Children) ||
			x.Content != y.Content {
			return false
		}
	}
	return true
}
