package clones

import (
	"encoding/binary"
	"encoding/hex"
	"sync"

	"github.com/panbanda/typeone/pkg/syntax"
	"github.com/zeebo/blake3"
)

// Digest is a structural fingerprint of a subtree or statement run.
// The first four bytes identify the node type (per language), so nodes of
// different types never share a digest; the rest is a blake3 sum.
type Digest [20]byte

// String returns the hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// TypeID returns the interned type identifier embedded in the digest.
func (d Digest) TypeID() uint32 {
	return binary.BigEndian.Uint32(d[:4])
}

const sequenceType = "\x00sequence"

// Signer computes digests. Digests are only comparable between trees signed
// by the same Signer. A Signer is safe for concurrent use.
type Signer struct {
	mu    sync.RWMutex
	types map[string]uint32
}

// NewSigner creates a signer with an empty type table.
func NewSigner() *Signer {
	return &Signer{types: make(map[string]uint32)}
}

// typeID interns a (language, node type) pair.
func (s *Signer) typeID(language, nodeType string) uint32 {
	key := language + "\x00" + nodeType

	s.mu.RLock()
	id, ok := s.types[key]
	s.mu.RUnlock()
	if ok {
		return id
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.types[key]; ok {
		return id
	}
	id = uint32(len(s.types)) + 1
	s.types[key] = id
	return id
}

// Sign returns the digest of every node in the tree, indexed by NodeID.
// Nodes are visited once in reverse pre-order so children are always
// signed before their parent.
func (s *Signer) Sign(tree *syntax.Tree) []Digest {
	digests := make([]Digest, tree.Len())
	h := blake3.New()
	var buf [binary.MaxVarintLen64]byte
	var sum [32]byte

	for i := tree.Len() - 1; i >= 0; i-- {
		n := &tree.Nodes[i]
		h.Reset()

		buf[0] = byte(n.Category)
		_, _ = h.Write(buf[:1])
		k := binary.PutUvarint(buf[:], uint64(len(n.Content)))
		_, _ = h.Write(buf[:k])
		_, _ = h.Write([]byte(n.Content))
		k = binary.PutUvarint(buf[:], uint64(len(n.Children)))
		_, _ = h.Write(buf[:k])
		for _, c := range n.Children {
			_, _ = h.Write(digests[c][:])
		}

		h.Sum(sum[:0])
		d := &digests[i]
		binary.BigEndian.PutUint32(d[:4], s.typeID(tree.Language, n.Type))
		copy(d[4:], sum[:16])
	}
	return digests
}

// sequenceSigner incrementally digests runs of sibling statements that share
// a first element. Each call to extend appends one statement and returns the
// digest of the run so far.
type sequenceSigner struct {
	h      *blake3.Hasher
	typeID uint32
	sum    [32]byte
}

func (s *Signer) newSequenceSigner(language string) *sequenceSigner {
	return &sequenceSigner{
		h:      blake3.New(),
		typeID: s.typeID(language, sequenceType),
	}
}

func (q *sequenceSigner) reset() {
	q.h.Reset()
	_, _ = q.h.Write([]byte(sequenceType))
}

func (q *sequenceSigner) extend(child Digest) Digest {
	_, _ = q.h.Write(child[:])
	q.h.Sum(q.sum[:0])
	var d Digest
	binary.BigEndian.PutUint32(d[:4], q.typeID)
	copy(d[4:], q.sum[:16])
	return d
}

// SignSequence returns the digest of a run of sibling nodes.
func (s *Signer) SignSequence(tree *syntax.Tree, digests []Digest, run []syntax.NodeID) Digest {
	q := s.newSequenceSigner(tree.Language)
	q.reset()
	var d Digest
	for _, id := range run {
		d = q.extend(digests[id])
	}
	return d
}
