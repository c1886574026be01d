package clones

import (
	"context"
	"log/slog"
	"sort"
)

// class is a clone class under construction.
type class struct {
	idx     int
	digest  Digest
	members []candidate
}

func (c *class) nodes() int {
	return c.members[0].nodes()
}

func (c *class) lines() int {
	best := 0
	for _, m := range c.members {
		if l := m.span.Lines(); l > best {
			best = l
		}
	}
	return best
}

// classBuilder turns digest buckets into verified clone classes.
type classBuilder struct {
	units  []*unit
	logger *slog.Logger
	diag   *Diagnostics
}

// build verifies every bucket with two or more members. Digest equality only
// proposes a partition; members must also compare equal node by node.
func (b *classBuilder) build(ctx context.Context, bk *buckets) []*class {
	var classes []*class
	for _, d := range bk.order {
		members := bk.byKey[d]
		if len(members) < 2 {
			continue
		}
		for _, part := range b.partition(ctx, d, members) {
			part = b.dropOverlaps(part)
			if len(part) < 2 {
				continue
			}
			classes = append(classes, &class{
				idx:     len(classes),
				digest:  d,
				members: part,
			})
		}
	}
	return classes
}

// partition splits a bucket into groups of mutually equal candidates.
// Every split beyond the first group is a digest collision.
func (b *classBuilder) partition(ctx context.Context, d Digest, members []candidate) [][]candidate {
	var parts [][]candidate
	for _, m := range members {
		placed := false
		for i, p := range parts {
			if b.equal(p[0], m) {
				parts[i] = append(p, m)
				placed = true
				break
			}
		}
		if !placed {
			parts = append(parts, []candidate{m})
		}
	}
	if len(parts) > 1 {
		b.diag.Collisions += len(parts) - 1
		b.logger.DebugContext(ctx, "digest collision",
			"digest", d.String(),
			"members", len(members),
			"partitions", len(parts))
	}
	return parts
}

func (b *classBuilder) equal(x, y candidate) bool {
	return equalRange(b.units[x.file].tree, x.lo, x.hi, b.units[y.file].tree, y.lo, y.hi)
}

// dropOverlaps keeps members in source order, discarding any member that
// intersects one already kept. Only statement runs can overlap.
func (b *classBuilder) dropOverlaps(members []candidate) []candidate {
	sort.Slice(members, func(i, j int) bool {
		return members[i].less(members[j])
	})
	kept := members[:0]
	for _, m := range members {
		if len(kept) > 0 && kept[len(kept)-1].overlaps(m) {
			b.diag.Overlaps++
			continue
		}
		kept = append(kept, m)
	}
	return kept
}
