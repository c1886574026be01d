package syntax

import (
	"fmt"
	"strings"
)

// NodeID addresses a node inside a Tree's arena.
type NodeID int32

// NoNode is the parent of a root node.
const NoNode NodeID = -1

// Category is the coarse kind of a syntax node.
type Category uint8

const (
	CategoryOther Category = iota
	CategoryStatement
	CategoryBlock
	CategoryDeclaration
	CategoryExpression
	CategoryToken
)

var categoryNames = [...]string{
	CategoryOther:       "other",
	CategoryStatement:   "statement",
	CategoryBlock:       "block",
	CategoryDeclaration: "declaration",
	CategoryExpression:  "expression",
	CategoryToken:       "token",
}

// String returns the string representation.
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", c)
}

// ParseCategory converts a category name to a Category.
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil
		}
	}
	return CategoryOther, fmt.Errorf("unknown node category %q", s)
}

// Span is an inclusive 1-based line range.
type Span struct {
	StartLine uint32 `json:"start_line"`
	EndLine   uint32 `json:"end_line"`
}

// Lines returns the number of lines covered by the span.
func (s Span) Lines() int {
	if s.EndLine < s.StartLine {
		return 0
	}
	return int(s.EndLine-s.StartLine) + 1
}

// Contains reports whether o lies within s.
func (s Span) Contains(o Span) bool {
	return s.StartLine <= o.StartLine && o.EndLine <= s.EndLine
}

// Node is one arena entry.
type Node struct {
	// Type is the grammar node type, e.g. "if_statement".
	Type     string
	Category Category
	// Content holds the text that distinguishes nodes of the same type:
	// identifier names, literal values, operator symbols and keywords.
	Content  string
	Parent   NodeID
	Children []NodeID
	// Size is the number of nodes in the subtree rooted here, itself included.
	Size int32
	Span Span
}

// Tree is an immutable syntax tree for one source file.
type Tree struct {
	File     string
	Language string
	Nodes    []Node
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.Nodes)
}

// Root returns the root node, or NoNode for an empty tree.
func (t *Tree) Root() NodeID {
	if len(t.Nodes) == 0 {
		return NoNode
	}
	return 0
}

// Node returns the node with the given id.
func (t *Tree) Node(id NodeID) *Node {
	return &t.Nodes[id]
}

// Extent returns the half-open arena range [lo, hi) covered by the subtree at id.
func (t *Tree) Extent(id NodeID) (lo, hi NodeID) {
	return id, id + NodeID(t.Nodes[id].Size)
}

// Walk visits nodes in pre-order. Returning false skips the node's children.
func (t *Tree) Walk(fn func(id NodeID, n *Node) bool) {
	for id := NodeID(0); int(id) < len(t.Nodes); {
		n := &t.Nodes[id]
		if fn(id, n) {
			id++
			continue
		}
		id += NodeID(n.Size)
	}
}
