package syntax

import (
	"errors"
	"fmt"
)

// ErrUnbalanced is returned when Open and Close calls do not pair up.
var ErrUnbalanced = errors.New("unbalanced syntax tree builder")

// Builder constructs a Tree in pre-order.
type Builder struct {
	tree  *Tree
	stack []NodeID
	err   error
}

// NewBuilder creates a builder for the given file.
func NewBuilder(file, language string) *Builder {
	return &Builder{
		tree: &Tree{File: file, Language: language},
	}
}

// Open starts a node whose children follow until the matching Close.
func (b *Builder) Open(typ string, cat Category, span Span) NodeID {
	id := NodeID(len(b.tree.Nodes))
	parent := NoNode
	if len(b.stack) > 0 {
		parent = b.stack[len(b.stack)-1]
		b.tree.Nodes[parent].Children = append(b.tree.Nodes[parent].Children, id)
	} else if id != 0 {
		b.fail(fmt.Errorf("%w: second root %q", ErrUnbalanced, typ))
	}
	b.tree.Nodes = append(b.tree.Nodes, Node{
		Type:     typ,
		Category: cat,
		Parent:   parent,
		Span:     span,
	})
	b.stack = append(b.stack, id)
	return id
}

// AppendContent adds text to the content of an open node.
func (b *Builder) AppendContent(id NodeID, text string) {
	n := &b.tree.Nodes[id]
	if n.Content == "" {
		n.Content = text
		return
	}
	n.Content += "\x1f" + text
}

// Close finishes the most recently opened node.
func (b *Builder) Close() {
	if len(b.stack) == 0 {
		b.fail(fmt.Errorf("%w: close without open", ErrUnbalanced))
		return
	}
	id := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	b.tree.Nodes[id].Size = int32(len(b.tree.Nodes) - int(id))
}

// Leaf adds a childless node.
func (b *Builder) Leaf(typ string, cat Category, content string, span Span) NodeID {
	id := b.Open(typ, cat, span)
	b.tree.Nodes[id].Content = content
	b.Close()
	return id
}

// Tree returns the finished tree.
func (b *Builder) Tree() (*Tree, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.stack) != 0 {
		return nil, fmt.Errorf("%w: %d nodes left open", ErrUnbalanced, len(b.stack))
	}
	return b.tree, nil
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}
