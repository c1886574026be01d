package clones

import (
	"context"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/sourcegraph/conc/pool"
)

// indexEntry locates one class member within its file.
type indexEntry struct {
	class int32
	c     candidate
}

// subsumer removes clone classes that are covered by a larger class.
//
// Class A is covered by class B when each member of A can be paired with a
// distinct member of B that wholly contains it. B dominates A when B covers A
// and A does not cover B back, or when they cover each other and B has more
// nodes (lower index on a tie). A class is discarded when any class in the
// input dominates it. Because covering is transitive, the survivors contain
// no dominated pair and a second pass removes nothing.
type subsumer struct {
	classes []*class
	byFile  map[int32][]indexEntry
	workers int
}

func newSubsumer(classes []*class, workers int) *subsumer {
	s := &subsumer{
		classes: classes,
		byFile:  make(map[int32][]indexEntry),
		workers: workers,
	}
	for _, cl := range classes {
		for _, m := range cl.members {
			s.byFile[m.file] = append(s.byFile[m.file], indexEntry{class: int32(cl.idx), c: m})
		}
	}
	for _, list := range s.byFile {
		sort.Slice(list, func(i, j int) bool {
			return list[i].c.lo < list[j].c.lo
		})
	}
	return s
}

// filter returns the surviving classes in input order and the number
// discarded. Comparisons run in parallel over read-only state; discards are
// applied afterwards on the calling goroutine.
func (s *subsumer) filter(ctx context.Context) ([]*class, int, error) {
	discard := make([]bool, len(s.classes))

	p := pool.New().WithMaxGoroutines(s.workers)
	for i, a := range s.classes {
		p.Go(func() {
			if ctx.Err() != nil {
				return
			}
			discard[i] = s.dominated(a)
		})
	}
	p.Wait()
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	kept := make([]*class, 0, len(s.classes))
	for i, cl := range s.classes {
		if !discard[i] {
			kept = append(kept, cl)
		}
	}
	return kept, len(s.classes) - len(kept), nil
}

// dominated reports whether any other class dominates a.
func (s *subsumer) dominated(a *class) bool {
	for _, idx := range s.containers(a).ToArray() {
		if s.dominates(s.classes[idx], a) {
			return true
		}
	}
	return false
}

// containers returns the classes having, for every member of a, some member
// that contains it, and at least as many members as a. Only these can cover a.
func (s *subsumer) containers(a *class) *roaring.Bitmap {
	var acc *roaring.Bitmap
	for _, m := range a.members {
		bm := roaring.New()
		list := s.byFile[m.file]
		end := sort.Search(len(list), func(k int) bool {
			return list[k].c.lo > m.lo
		})
		for _, e := range list[:end] {
			if int(e.class) == a.idx || len(s.classes[e.class].members) < len(a.members) {
				continue
			}
			if e.c.contains(m) {
				bm.Add(uint32(e.class))
			}
		}
		if acc == nil {
			acc = bm
		} else {
			acc.And(bm)
		}
		if acc.IsEmpty() {
			return acc
		}
	}
	if acc == nil {
		return roaring.New()
	}
	return acc
}

// dominates reports whether b should absorb a.
func (s *subsumer) dominates(b, a *class) bool {
	if !covers(b, a) {
		return false
	}
	if !covers(a, b) {
		return true
	}
	if b.nodes() != a.nodes() {
		return b.nodes() > a.nodes()
	}
	return b.idx < a.idx
}

// covers reports whether every member of inner sits inside a distinct member
// of outer.
func covers(outer, inner *class) bool {
	left, right := len(inner.members), len(outer.members)
	if left > right {
		return false
	}
	adj := make([][]int, left)
	for i, m := range inner.members {
		for j, o := range outer.members {
			if o.contains(m) {
				adj[i] = append(adj[i], j)
			}
		}
		if len(adj[i]) == 0 {
			return false
		}
	}
	return perfectMatching(adj, right)
}

// perfectMatching reports whether every left vertex can be matched to a
// distinct right vertex, using augmenting paths (Kuhn's algorithm).
func perfectMatching(adj [][]int, right int) bool {
	owner := make([]int, right)
	for j := range owner {
		owner[j] = -1
	}
	seen := make([]int, right)
	stamp := 0

	var augment func(i int) bool
	augment = func(i int) bool {
		for _, j := range adj[i] {
			if seen[j] == stamp {
				continue
			}
			seen[j] = stamp
			if owner[j] < 0 || augment(owner[j]) {
				owner[j] = i
				return true
			}
		}
		return false
	}

	for i := range adj {
		stamp++
		if !augment(i) {
			return false
		}
	}
	return true
}
