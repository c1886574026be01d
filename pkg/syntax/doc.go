// Package syntax defines the arena-allocated syntax trees consumed by the
// clone detector.
//
// Nodes are stored in pre-order inside a single slice and addressed by
// NodeID. Because of the pre-order layout every subtree occupies the
// contiguous index range [id, id+Size), so a fragment of code can be
// referenced by two integers instead of a copy of the subtree.
//
// Trees are built once by a front end (see pkg/ast) and are read-only for
// the rest of an analysis run.
//
// Usage:
//
//	b := syntax.NewBuilder("Main.java", "java")
//	b.Open("block", syntax.CategoryBlock, syntax.Span{StartLine: 1, EndLine: 3})
//	b.Leaf("empty_statement", syntax.CategoryStatement, ";", syntax.Span{StartLine: 2, EndLine: 2})
//	b.Close()
//	tree, err := b.Tree()
package syntax
