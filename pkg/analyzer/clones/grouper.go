package clones

import (
	"github.com/panbanda/typeone/pkg/syntax"
)

// unit is one signed file inside a session.
type unit struct {
	id      int32
	tree    *syntax.Tree
	digests []Digest
}

// candidate is a potential clone fragment: either one subtree or a run of
// consecutive sibling statements. Either way it covers the contiguous arena
// range [lo, hi) of its file.
type candidate struct {
	file   int32
	lo, hi syntax.NodeID
	// length is the statement count of a run, 0 for subtrees.
	length int32
	span   syntax.Span
}

func (c candidate) nodes() int {
	return int(c.hi - c.lo)
}

func (c candidate) isSequence() bool {
	return c.length > 0
}

// contains reports whether o lies wholly inside c.
func (c candidate) contains(o candidate) bool {
	return c.file == o.file && c.lo <= o.lo && o.hi <= c.hi && c.span.Contains(o.span)
}

func (c candidate) overlaps(o candidate) bool {
	return c.file == o.file && c.lo < o.hi && o.lo < c.hi
}

func (c candidate) less(o candidate) bool {
	if c.file != o.file {
		return c.file < o.file
	}
	if c.lo != o.lo {
		return c.lo < o.lo
	}
	return c.hi > o.hi
}

// buckets maps digests to the candidates sharing them, in discovery order.
type buckets struct {
	order []Digest
	byKey map[Digest][]candidate
}

func newBuckets() *buckets {
	return &buckets{byKey: make(map[Digest][]candidate)}
}

func (b *buckets) add(d Digest, c candidate) {
	list, ok := b.byKey[d]
	if !ok {
		b.order = append(b.order, d)
	}
	b.byKey[d] = append(list, c)
}

// grouper collects candidates from signed files.
type grouper struct {
	cfg      Config
	eligible [syntax.CategoryToken + 1]bool
	signer   *Signer
	buckets  *buckets
	count    int
}

func newGrouper(cfg Config, signer *Signer) *grouper {
	return &grouper{
		cfg:      cfg,
		eligible: cfg.eligible(),
		signer:   signer,
		buckets:  newBuckets(),
	}
}

func (g *grouper) sequencesEnabled() bool {
	return g.cfg.Sequences && g.eligible[syntax.CategoryStatement]
}

// addUnit buckets every eligible subtree and statement run of a file.
func (g *grouper) addUnit(u *unit) {
	tree := u.tree
	var seq *sequenceSigner
	if g.sequencesEnabled() {
		seq = g.signer.newSequenceSigner(tree.Language)
	}

	for i := range tree.Nodes {
		id := syntax.NodeID(i)
		n := &tree.Nodes[i]
		if int(n.Category) < len(g.eligible) && g.eligible[n.Category] && int(n.Size) >= g.cfg.MinNodes {
			lo, hi := tree.Extent(id)
			g.add(u.digests[id], candidate{
				file: u.id,
				lo:   lo,
				hi:   hi,
				span: n.Span,
			})
		}
		if seq != nil && len(n.Children) >= 2 {
			g.addRuns(u, id, seq)
		}
	}
}

// addRuns buckets every run of 2 or more consecutive statement children of
// parent. A non-statement child ends the current run.
func (g *grouper) addRuns(u *unit, parent syntax.NodeID, seq *sequenceSigner) {
	tree := u.tree
	children := tree.Nodes[parent].Children

	for start := 0; start < len(children); {
		end := start
		for end < len(children) && tree.Nodes[children[end]].Category == syntax.CategoryStatement {
			end++
		}
		if end-start >= 2 {
			g.addRun(u, children, start, end, seq)
		}
		if end == start {
			end++
		}
		start = end
	}
}

func (g *grouper) addRun(u *unit, children []syntax.NodeID, start, end int, seq *sequenceSigner) {
	tree := u.tree
	maxLen := g.cfg.MaxSequenceLength

	for i := start; i < end-1; i++ {
		seq.reset()
		lo := children[i]
		startLine := tree.Nodes[lo].Span.StartLine
		seq.extend(u.digests[lo])

		for j := i + 1; j < end; j++ {
			length := j - i + 1
			if maxLen > 0 && length > maxLen {
				break
			}
			last := children[j]
			d := seq.extend(u.digests[last])
			_, hi := tree.Extent(last)
			if int(hi-lo) < g.cfg.MinNodes {
				continue
			}
			g.add(d, candidate{
				file:   u.id,
				lo:     lo,
				hi:     hi,
				length: int32(length),
				span: syntax.Span{
					StartLine: startLine,
					EndLine:   tree.Nodes[last].Span.EndLine,
				},
			})
		}
	}
}

func (g *grouper) add(d Digest, c candidate) {
	g.count++
	g.buckets.add(d, c)
}
