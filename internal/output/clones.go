package output

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/typeone/pkg/analyzer/clones"
)

// maxListedMembers caps the member locations printed per class in tables.
const maxListedMembers = 3

// CloneReport builds the renderable view of a clone report. JSON and TOON
// output serialize the report itself.
func CloneReport(r *clones.Report, colored bool) *Report {
	view := &Report{
		Title: "Type I Clone Report",
		Data:  r,
	}
	view.Sections = append(view.Sections, summarySection(r))
	view.Sections = append(view.Sections, classTable(r, colored))
	if len(r.Hotspots) > 0 {
		view.Sections = append(view.Sections, hotspotTable(r))
	}
	if len(r.Warnings) > 0 {
		view.Sections = append(view.Sections, warningTable(r))
	}
	return view
}

func summarySection(r *clones.Report) *Section {
	s := r.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "Files analyzed:     %d (%d skipped)\n", s.FilesAnalyzed, s.FilesSkipped)
	fmt.Fprintf(&b, "Clone classes:      %d\n", s.CloneClassCount)
	fmt.Fprintf(&b, "Clone instances:    %d (%d redundant)\n", s.CloneInstanceCount, s.RedundantInstanceCount)
	fmt.Fprintf(&b, "Duplicated lines:   %d\n", s.DuplicatedLines)
	fmt.Fprintf(&b, "Biggest fragment:   %d lines, %d nodes\n", s.BiggestFragmentLines, s.BiggestFragmentNodes)
	if s.FragmentLines.Count > 0 {
		fmt.Fprintf(&b, "Fragment lines:     mean %.1f, p50 %.0f, p95 %.0f\n",
			s.FragmentLines.Mean, s.FragmentLines.P50, s.FragmentLines.P95)
	}
	if r.Revision != nil {
		commit := r.Revision.Commit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		fmt.Fprintf(&b, "Revision:           %s (%s)\n", r.Revision.Ref, commit)
	}
	fmt.Fprintf(&b, "Thresholds:         min nodes %d, kinds %s", r.MinNodes, strings.Join(r.Kinds, ","))
	return &Section{Title: "Summary", Content: b.String(), Data: s}
}

func memberList(members []clones.Fragment) string {
	parts := make([]string, 0, maxListedMembers+1)
	for i, m := range members {
		if i == maxListedMembers {
			parts = append(parts, fmt.Sprintf("+%d more", len(members)-maxListedMembers))
			break
		}
		parts = append(parts, m.String())
	}
	return strings.Join(parts, ", ")
}

func classTable(r *clones.Report, colored bool) *Table {
	rows := make([][]string, 0, len(r.Classes))
	for _, cc := range r.Classes {
		count := fmt.Sprintf("%d", cc.MemberCount)
		if colored && cc.MemberCount >= 4 {
			count = color.RedString(count)
		} else if colored && cc.MemberCount == 3 {
			count = color.YellowString(count)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%016x", cc.ID),
			cc.Kind,
			count,
			fmt.Sprintf("%d", cc.BiggestLines),
			fmt.Sprintf("%d", cc.NodeCount),
			memberList(cc.Members),
		})
	}
	return NewTable(
		"Clone Classes",
		[]string{"ID", "Kind", "Members", "Lines", "Nodes", "Locations"},
		rows,
		[]string{
			fmt.Sprintf("Classes: %d", r.Summary.CloneClassCount),
			"",
			fmt.Sprintf("%d", r.Summary.CloneInstanceCount),
			fmt.Sprintf("%d", r.Summary.BiggestFragmentLines),
			"",
			"",
		},
		r.Classes,
	)
}

func hotspotTable(r *clones.Report) *Table {
	rows := make([][]string, 0, len(r.Hotspots))
	for _, h := range r.Hotspots {
		rows = append(rows, []string{
			h.File,
			fmt.Sprintf("%d", h.DuplicateLines),
			fmt.Sprintf("%d", h.CloneClassCount),
			fmt.Sprintf("%.2f", h.Severity),
		})
	}
	return NewTable("Hotspots", []string{"File", "Duplicate Lines", "Classes", "Severity"}, rows, nil, r.Hotspots)
}

func warningTable(r *clones.Report) *Table {
	rows := make([][]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		rows = append(rows, []string{w.File, w.Reason})
	}
	return NewTable("Skipped Files", []string{"File", "Reason"}, rows, nil, r.Warnings)
}
