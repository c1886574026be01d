// Package ast defines the Tree Source used by the clone detector: a Provider
// turns source text into an arena syntax tree (see pkg/syntax) with per-node
// categories, content and line spans.
//
// The Provider interface abstracts the parsing mechanism so the detector
// never depends on how parsing occurred. The tree-sitter implementation in
// pkg/ast/treesitter covers the languages supported by pkg/parser.
//
// Usage:
//
//	provider := treesitter.New()
//	defer provider.Close()
//
//	tree, err := provider.Parse(ctx, "Main.java", src)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(tree.Len(), "nodes")
package ast
