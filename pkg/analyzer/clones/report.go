package clones

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cespare/xxhash/v2"
	"github.com/panbanda/typeone/pkg/stats"
)

const maxHotspots = 10

// reporter converts surviving classes into a Report.
type reporter struct {
	units []*unit
}

func (r *reporter) fragment(c candidate) Fragment {
	return Fragment{
		File:      r.units[c.file].tree.File,
		StartLine: c.span.StartLine,
		EndLine:   c.span.EndLine,
		Lines:     c.span.Lines(),
		NodeCount: c.nodes(),
	}
}

func (r *reporter) kind(cl *class) string {
	m := cl.members[0]
	if m.isSequence() {
		return SequenceKind
	}
	return r.units[m.file].tree.Nodes[m.lo].Type
}

// classID hashes the member locations, so the same clone found in another
// run of the same corpus keeps its identifier.
func classID(members []Fragment) uint64 {
	h := xxhash.New()
	var buf [4]byte
	for _, m := range members {
		_, _ = h.WriteString(m.File)
		binary.BigEndian.PutUint32(buf[:], m.StartLine)
		_, _ = h.Write(buf[:])
		binary.BigEndian.PutUint32(buf[:], m.EndLine)
		_, _ = h.Write(buf[:])
		binary.BigEndian.PutUint32(buf[:], uint32(m.NodeCount))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

func lessFragment(a, b Fragment) bool {
	if a.File != b.File {
		return a.File < b.File
	}
	if a.StartLine != b.StartLine {
		return a.StartLine < b.StartLine
	}
	return a.EndLine < b.EndLine
}

func (r *reporter) classes(kept []*class) []CloneClass {
	out := make([]CloneClass, 0, len(kept))
	for _, cl := range kept {
		members := make([]Fragment, 0, len(cl.members))
		for _, m := range cl.members {
			members = append(members, r.fragment(m))
		}
		sort.Slice(members, func(i, j int) bool {
			return lessFragment(members[i], members[j])
		})

		cc := CloneClass{
			ID:          classID(members),
			Kind:        r.kind(cl),
			Language:    r.units[cl.members[0].file].tree.Language,
			Members:     members,
			MemberCount: len(members),
			NodeCount:   cl.nodes(),
		}
		for _, m := range members {
			if m.Lines > cc.BiggestLines {
				cc.BiggestLines = m.Lines
			}
			if m.NodeCount > cc.BiggestNodes {
				cc.BiggestNodes = m.NodeCount
			}
		}
		out = append(out, cc)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.BiggestLines != b.BiggestLines {
			return a.BiggestLines > b.BiggestLines
		}
		if a.BiggestNodes != b.BiggestNodes {
			return a.BiggestNodes > b.BiggestNodes
		}
		return lessFragment(a.Members[0], b.Members[0])
	})
	return out
}

// summarize fills the aggregate counters and hotspots.
func summarize(report *Report) {
	s := &report.Summary
	s.CloneClassCount = len(report.Classes)

	linesByFile := make(map[string]*roaring.Bitmap)
	classesByFile := make(map[string]map[uint64]bool)
	sizes := make([]float64, 0, len(report.Classes))

	for _, cc := range report.Classes {
		s.CloneInstanceCount += cc.MemberCount
		s.RedundantInstanceCount += cc.MemberCount - 1
		s.BiggestFragmentLines = max(s.BiggestFragmentLines, cc.BiggestLines)
		s.BiggestFragmentNodes = max(s.BiggestFragmentNodes, cc.BiggestNodes)

		for _, m := range cc.Members {
			sizes = append(sizes, float64(m.Lines))
			bm, ok := linesByFile[m.File]
			if !ok {
				bm = roaring.New()
				linesByFile[m.File] = bm
				classesByFile[m.File] = make(map[uint64]bool)
			}
			bm.AddRange(uint64(m.StartLine), uint64(m.EndLine)+1)
			classesByFile[m.File][cc.ID] = true
		}
	}
	s.FragmentLines = stats.Describe(sizes)

	hotspots := make([]Hotspot, 0, len(linesByFile))
	for file, bm := range linesByFile {
		lines := int(bm.GetCardinality())
		s.DuplicatedLines += lines
		n := len(classesByFile[file])
		hotspots = append(hotspots, Hotspot{
			File:            file,
			DuplicateLines:  lines,
			CloneClassCount: n,
			Severity:        math.Log(float64(lines)+1) * math.Sqrt(float64(n)),
		})
	}
	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].Severity != hotspots[j].Severity {
			return hotspots[i].Severity > hotspots[j].Severity
		}
		return hotspots[i].File < hotspots[j].File
	})
	if len(hotspots) > maxHotspots {
		hotspots = hotspots[:maxHotspots]
	}
	report.Hotspots = hotspots
}
