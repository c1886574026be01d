package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/panbanda/typeone/internal/logging"
	"github.com/panbanda/typeone/internal/scanner"
	"github.com/panbanda/typeone/internal/vcs"
	"github.com/panbanda/typeone/pkg/analyzer/clones"
	"github.com/panbanda/typeone/pkg/config"
	"github.com/panbanda/typeone/pkg/parser"
	"github.com/panbanda/typeone/pkg/source"
)

// ErrNoFiles is returned when no analyzable source files match the request.
var ErrNoFiles = errors.New("no source files found")

// Service orchestrates clone detection runs.
type Service struct {
	config *config.Config
	opener vcs.Opener
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithOpener sets the VCS opener (for testing).
func WithOpener(opener vcs.Opener) Option {
	return func(s *Service) {
		s.opener = opener
	}
}

// WithLogger sets the logger handed to the analyzer.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault(),
		opener: vcs.DefaultOpener(),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.DefaultConfig()
	}
	return s
}

// DetectOptions configures one detection run. Nil pointers and empty
// values fall back to the service configuration.
type DetectOptions struct {
	// Paths are files or directories to analyze. With Ref set they are
	// path prefixes inside the repository.
	Paths []string
	// Ref analyzes the tree of a git revision instead of the working copy.
	Ref string
	// RepoDir locates the repository when Ref is set; defaults to ".".
	RepoDir string

	MinNodes          *int
	Kinds             []string
	Sequences         *bool
	MaxSequenceLength *int
	Workers           *int
	// Language restricts analysis to one language.
	Language   string
	OnProgress func()
}

// DetectionConfig merges per-run overrides onto the configured thresholds.
func (s *Service) DetectionConfig(opts DetectOptions) (clones.Config, error) {
	cc := s.config.Clones
	if opts.MinNodes != nil {
		cc.MinNodes = *opts.MinNodes
	}
	if len(opts.Kinds) > 0 {
		cc.EligibleKinds = opts.Kinds
	}
	if opts.Sequences != nil {
		cc.Sequences = *opts.Sequences
	}
	if opts.MaxSequenceLength != nil {
		cc.MaxSequenceLength = *opts.MaxSequenceLength
	}
	if opts.Workers != nil {
		cc.Workers = *opts.Workers
	}
	merged := *s.config
	merged.Clones = cc
	if err := merged.Validate(); err != nil {
		return clones.Config{}, err
	}
	return merged.Detection()
}

// Detect finds Type I clones in the requested files.
func (s *Service) Detect(ctx context.Context, opts DetectOptions) (*clones.Report, error) {
	cfg, err := s.DetectionConfig(opts)
	if err != nil {
		return nil, err
	}

	sc, err := s.collect(opts, cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}
	if len(sc.files) == 0 {
		return nil, ErrNoFiles
	}

	s.logger.DebugContext(ctx, "detecting clones", "files", len(sc.files), "ref", opts.Ref, "min_nodes", cfg.MinNodes)

	a := clones.New(
		clones.WithConfig(cfg),
		clones.WithLogger(s.logger),
		clones.WithProgress(opts.OnProgress),
	)
	report, err := a.Analyze(ctx, sc.files, sc.src)
	if err != nil {
		return nil, err
	}
	report.Revision = sc.revision
	return report, nil
}

// Files lists the files a detection run would analyze. It lets callers size
// progress output before running.
func (s *Service) Files(opts DetectOptions) ([]string, error) {
	sc, err := s.collect(opts, s.config.Clones.MaxFileSize)
	if err != nil {
		return nil, err
	}
	return sc.files, nil
}

// scope is the resolved input of a detection run. src and revision are nil
// for the working copy.
type scope struct {
	files    []string
	src      source.ContentSource
	revision *clones.Revision
}

func (s *Service) collect(opts DetectOptions, maxSize int64) (scope, error) {
	var lang parser.Language
	if opts.Language != "" {
		var err error
		if lang, err = parser.ParseLanguage(opts.Language); err != nil {
			return scope{}, err
		}
	}

	var (
		sc  scope
		err error
	)
	if opts.Ref != "" {
		sc, err = s.revisionScope(opts, maxSize)
	} else {
		sc.files, err = s.workingFiles(opts)
	}
	if err != nil {
		return scope{}, err
	}
	if lang != "" {
		sc.files = scanner.NewScanner(s.config).FilterByLanguage(sc.files, lang)
	}
	return sc, nil
}

func (s *Service) workingFiles(opts DetectOptions) ([]string, error) {
	paths := opts.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}
	return scanner.NewScanner(s.config).ScanPaths(paths)
}

func (s *Service) revisionScope(opts DetectOptions, maxSize int64) (scope, error) {
	dir := opts.RepoDir
	if dir == "" {
		dir = "."
	}
	repo, err := s.opener.Open(dir)
	if err != nil {
		return scope{}, fmt.Errorf("open repository %s: %w", dir, err)
	}
	commit, err := repo.Resolve(opts.Ref)
	if err != nil {
		return scope{}, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return scope{}, fmt.Errorf("read tree of %s: %w", opts.Ref, err)
	}
	src := source.NewTree(tree)
	all, err := src.Files(maxSize)
	if err != nil {
		return scope{}, err
	}
	sc := scope{
		files:    scanner.NewScanner(s.config).Filter(all),
		src:      src,
		revision: &clones.Revision{Ref: opts.Ref, Commit: commit.ID()},
	}

	prefixes := treePrefixes(repo.Root(), opts.Paths)
	if len(prefixes) == 0 {
		return sc, nil
	}
	var selected []string
	for _, f := range sc.files {
		for _, p := range prefixes {
			if f == p || strings.HasPrefix(f, p+"/") {
				selected = append(selected, f)
				break
			}
		}
	}
	sc.files = selected
	return sc, nil
}

// treePrefixes converts user paths into slash-separated paths relative to
// the repository root. "." and the root itself select everything.
func treePrefixes(root string, paths []string) []string {
	var out []string
	for _, p := range paths {
		if filepath.IsAbs(p) && root != "" {
			rel, err := filepath.Rel(root, p)
			if err != nil {
				continue
			}
			p = rel
		}
		p = strings.Trim(filepath.ToSlash(filepath.Clean(p)), "/")
		if p == "." || p == "" {
			return nil
		}
		out = append(out, p)
	}
	return out
}
