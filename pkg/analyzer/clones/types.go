package clones

import (
	"errors"
	"fmt"
	"strings"

	"github.com/panbanda/typeone/pkg/stats"
	"github.com/panbanda/typeone/pkg/syntax"
)

// ErrInvalidThreshold is returned when the detection thresholds violate
// their contract. It is raised before any file is read.
var ErrInvalidThreshold = errors.New("invalid clone threshold")

// SequenceKind is the kind reported for classes made of statement runs.
const SequenceKind = "sequence"

// Config holds clone detection configuration.
type Config struct {
	// MinNodes is the minimum subtree node count for a fragment.
	MinNodes int
	// EligibleKinds lists the node categories that may form fragments.
	EligibleKinds []syntax.Category
	// Sequences enables runs of consecutive sibling statements as fragments.
	Sequences bool
	// MaxSequenceLength caps statement runs; 0 means unbounded.
	MaxSequenceLength int
	// Workers bounds parse and comparison parallelism; 0 means 2x NumCPU.
	Workers int
	// MaxFileSize skips larger files; 0 means no limit.
	MaxFileSize int64
}

// DefaultConfig returns the default detection settings.
func DefaultConfig() Config {
	return Config{
		MinNodes:      10,
		EligibleKinds: []syntax.Category{syntax.CategoryStatement, syntax.CategoryBlock},
		Sequences:     true,
	}
}

// Validate checks the thresholds.
func (c Config) Validate() error {
	if c.MinNodes < 0 {
		return fmt.Errorf("%w: min nodes must be >= 0, got %d", ErrInvalidThreshold, c.MinNodes)
	}
	if len(c.EligibleKinds) == 0 {
		return fmt.Errorf("%w: eligible kinds must not be empty", ErrInvalidThreshold)
	}
	for _, k := range c.EligibleKinds {
		if k == syntax.CategoryToken {
			return fmt.Errorf("%w: %s nodes cannot form fragments", ErrInvalidThreshold, k)
		}
		if k > syntax.CategoryToken {
			return fmt.Errorf("%w: unknown kind %s", ErrInvalidThreshold, k)
		}
	}
	if c.MaxSequenceLength < 0 {
		return fmt.Errorf("%w: max sequence length must be >= 0, got %d", ErrInvalidThreshold, c.MaxSequenceLength)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidThreshold, c.Workers)
	}
	return nil
}

func (c Config) eligible() [syntax.CategoryToken + 1]bool {
	var set [syntax.CategoryToken + 1]bool
	for _, k := range c.EligibleKinds {
		if k < syntax.CategoryToken {
			set[k] = true
		}
	}
	return set
}

// Fragment is one occurrence of a repeated code shape.
type Fragment struct {
	File      string `json:"file"`
	StartLine uint32 `json:"start_line"`
	EndLine   uint32 `json:"end_line"`
	Lines     int    `json:"lines"`
	NodeCount int    `json:"node_count"`
}

// String returns file:start-end.
func (f Fragment) String() string {
	return fmt.Sprintf("%s:%d-%d", f.File, f.StartLine, f.EndLine)
}

// CloneClass is a maximal set of structurally identical fragments.
type CloneClass struct {
	ID           uint64     `json:"class_id"`
	Kind         string     `json:"kind"`
	Language     string     `json:"language"`
	Members      []Fragment `json:"members"`
	MemberCount  int        `json:"member_count"`
	NodeCount    int        `json:"node_count"`
	BiggestLines int        `json:"biggest_lines"`
	BiggestNodes int        `json:"biggest_nodes"`
}

// Summary provides aggregate statistics.
//
// CloneInstanceCount is the sum of member counts over all classes.
// RedundantInstanceCount counts one fewer per class, i.e. the copies that
// could be removed if each class were reduced to a single occurrence.
type Summary struct {
	CloneClassCount        int                `json:"clone_class_count"`
	CloneInstanceCount     int                `json:"clone_instance_count"`
	RedundantInstanceCount int                `json:"redundant_instance_count"`
	BiggestFragmentLines   int                `json:"biggest_fragment_lines"`
	BiggestFragmentNodes   int                `json:"biggest_fragment_nodes"`
	DuplicatedLines        int                `json:"duplicated_lines"`
	FilesAnalyzed          int                `json:"files_analyzed"`
	FilesSkipped           int                `json:"files_skipped"`
	FragmentLines          stats.Distribution `json:"fragment_lines"`
}

// Hotspot represents a file with high duplication.
type Hotspot struct {
	File            string  `json:"file"`
	DuplicateLines  int     `json:"duplicate_lines"`
	CloneClassCount int     `json:"clone_class_count"`
	Severity        float64 `json:"severity"`
}

// Warning records a file that was skipped.
type Warning struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// Diagnostics counts pipeline events.
type Diagnostics struct {
	Nodes      int `json:"nodes"`
	Candidates int `json:"candidates"`
	Buckets    int `json:"buckets"`
	RawClasses int `json:"raw_classes"`
	Subsumed   int `json:"subsumed"`
	Collisions int `json:"collisions"`
	Overlaps   int `json:"overlaps"`
}

// Report is the result of one analysis run.
type Report struct {
	Classes     []CloneClass `json:"classes"`
	Summary     Summary      `json:"summary"`
	Hotspots    []Hotspot    `json:"hotspots,omitempty"`
	Warnings    []Warning    `json:"warnings,omitempty"`
	Diagnostics Diagnostics  `json:"diagnostics"`
	MinNodes    int          `json:"min_nodes"`
	Kinds       []string     `json:"eligible_kinds"`
	// Revision is set when a git revision was analyzed instead of the
	// working copy.
	Revision *Revision `json:"revision,omitempty"`
}

// Revision names the commit a report was computed from.
type Revision struct {
	Ref    string `json:"ref"`
	Commit string `json:"commit"`
}

// SkippedFiles lists the files named in warnings.
func (r *Report) SkippedFiles() []string {
	files := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		files = append(files, w.File)
	}
	return files
}

func kindNames(kinds []syntax.Category) []string {
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, k.String())
	}
	return names
}

// ParseKinds converts names such as "statement,block" to categories.
func ParseKinds(names []string) ([]syntax.Category, error) {
	var kinds []syntax.Category
	seen := make(map[syntax.Category]bool)
	for _, raw := range names {
		for _, name := range strings.Split(raw, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			k, err := syntax.ParseCategory(name)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidThreshold, err)
			}
			if !seen[k] {
				seen[k] = true
				kinds = append(kinds, k)
			}
		}
	}
	return kinds, nil
}
