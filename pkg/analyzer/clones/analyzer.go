package clones

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/panbanda/typeone/internal/fileproc"
	"github.com/panbanda/typeone/internal/logging"
	"github.com/panbanda/typeone/pkg/ast"
	"github.com/panbanda/typeone/pkg/ast/treesitter"
	"github.com/panbanda/typeone/pkg/source"
	"github.com/panbanda/typeone/pkg/syntax"
	"github.com/sourcegraph/conc/pool"
)

// errTooLarge marks files skipped by the size limit.
var errTooLarge = errors.New("file exceeds size limit")

// Analyzer detects strict Type I clones: fragments whose syntax trees are
// identical including identifier and literal text.
type Analyzer struct {
	config     Config
	provider   ast.Factory
	logger     *slog.Logger
	onProgress fileproc.ProgressFunc
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithConfig replaces the whole detection configuration.
func WithConfig(cfg Config) Option {
	return func(a *Analyzer) {
		a.config = cfg
	}
}

// WithMinNodes sets the minimum subtree node count for a fragment.
func WithMinNodes(n int) Option {
	return func(a *Analyzer) {
		a.config.MinNodes = n
	}
}

// WithEligibleKinds sets the node categories that may form fragments.
func WithEligibleKinds(kinds ...syntax.Category) Option {
	return func(a *Analyzer) {
		a.config.EligibleKinds = kinds
	}
}

// WithSequences enables or disables statement-run fragments.
func WithSequences(enabled bool) Option {
	return func(a *Analyzer) {
		a.config.Sequences = enabled
	}
}

// WithMaxSequenceLength caps statement runs (0 = unbounded).
func WithMaxSequenceLength(n int) Option {
	return func(a *Analyzer) {
		a.config.MaxSequenceLength = n
	}
}

// WithWorkers sets the parallelism (0 = 2x NumCPU).
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.config.Workers = n
	}
}

// WithMaxFileSize sets the maximum file size to analyze (0 = no limit).
func WithMaxFileSize(maxSize int64) Option {
	return func(a *Analyzer) {
		a.config.MaxFileSize = maxSize
	}
}

// WithProvider sets the factory for syntax tree providers. One provider is
// created per worker.
func WithProvider(f ast.Factory) Option {
	return func(a *Analyzer) {
		a.provider = f
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// WithProgress sets a callback invoked once per input file.
func WithProgress(fn fileproc.ProgressFunc) Option {
	return func(a *Analyzer) {
		a.onProgress = fn
	}
}

// New creates a new clone analyzer with default config.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		config:   DefaultConfig(),
		provider: treesitter.Factory(),
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config returns the effective configuration.
func (a *Analyzer) Config() Config {
	return a.config
}

// Analyze parses and analyzes files read from src. Files that cannot be read
// or parsed are skipped and reported as warnings. Only an invalid
// configuration or a cancelled context produces an error.
func (a *Analyzer) Analyze(ctx context.Context, files []string, src source.ContentSource) (*Report, error) {
	if err := a.config.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		src = source.NewFilesystem()
	}

	s := a.newSession()
	start := time.Now()

	results, errs := fileproc.MapFilesWithResource(ctx, files, a.config.Workers,
		func() ast.Provider { return a.provider() },
		func(p ast.Provider) { p.Close() },
		func(ctx context.Context, p ast.Provider, path string) (*unit, error) {
			return s.load(ctx, p, src, path)
		},
		a.onProgress,
	)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if errs != nil {
		for _, pe := range errs.Sorted() {
			s.skip(ctx, pe.Path, pe.Err)
		}
	}

	units := make([]*unit, 0, len(results))
	for _, u := range results {
		if u != nil {
			u.id = int32(len(units))
			units = append(units, u)
		}
	}
	s.logger.DebugContext(ctx, "parsed and signed files",
		"files", len(units),
		"skipped", len(s.warnings),
		"elapsed", time.Since(start))

	return s.run(ctx, units)
}

// AnalyzeTrees analyzes trees that were already built. Nil or empty trees
// are skipped with a warning.
func (a *Analyzer) AnalyzeTrees(ctx context.Context, trees []*syntax.Tree) (*Report, error) {
	if err := a.config.Validate(); err != nil {
		return nil, err
	}
	s := a.newSession()

	units := make([]*unit, 0, len(trees))
	for i, t := range trees {
		if t == nil || t.Len() == 0 {
			name := fmt.Sprintf("tree #%d", i)
			if t != nil {
				name = t.File
			}
			s.skip(ctx, name, fmt.Errorf("%w: empty tree", ast.ErrParseUnavailable))
			continue
		}
		units = append(units, &unit{id: int32(len(units)), tree: t})
	}

	p := pool.New().WithMaxGoroutines(fileproc.Workers(a.config.Workers))
	for _, u := range units {
		p.Go(func() {
			u.digests = s.signer.Sign(u.tree)
		})
	}
	p.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.run(ctx, units)
}

// session holds the state of one analysis run.
type session struct {
	cfg      Config
	logger   *slog.Logger
	signer   *Signer
	warnings []Warning
	diag     Diagnostics
}

func (a *Analyzer) newSession() *session {
	return &session{
		cfg:    a.config,
		logger: a.logger,
		signer: NewSigner(),
	}
}

// load reads, parses and signs one file. Any failure becomes a skip.
func (s *session) load(ctx context.Context, p ast.Provider, src source.ContentSource, path string) (*unit, error) {
	content, err := src.Read(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ast.ErrParseUnavailable, err)
	}
	if s.cfg.MaxFileSize > 0 && int64(len(content)) > s.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes", errTooLarge, len(content))
	}

	tree, err := p.Parse(ctx, path, content)
	if err != nil {
		if !errors.Is(err, ast.ErrParseUnavailable) {
			err = fmt.Errorf("%w: %w", ast.ErrParseUnavailable, err)
		}
		return nil, err
	}
	if tree.Len() == 0 {
		return nil, fmt.Errorf("%w: empty tree", ast.ErrParseUnavailable)
	}
	return &unit{tree: tree, digests: s.signer.Sign(tree)}, nil
}

func (s *session) skip(ctx context.Context, file string, err error) {
	s.warnings = append(s.warnings, Warning{File: file, Reason: err.Error()})
	s.logger.WarnContext(ctx, "skipping file", "file", file, "error", err)
}

// run groups, verifies, filters and reports. The context is checked
// between phases.
func (s *session) run(ctx context.Context, units []*unit) (*Report, error) {
	g := newGrouper(s.cfg, s.signer)
	for _, u := range units {
		s.diag.Nodes += u.tree.Len()
		g.addUnit(u)
	}
	s.diag.Candidates = g.count
	s.diag.Buckets = len(g.buckets.order)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cb := &classBuilder{units: units, logger: s.logger, diag: &s.diag}
	classes := cb.build(ctx, g.buckets)
	s.diag.RawClasses = len(classes)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kept, discarded, err := newSubsumer(classes, fileproc.Workers(s.cfg.Workers)).filter(ctx)
	if err != nil {
		return nil, err
	}
	s.diag.Subsumed = discarded

	r := &reporter{units: units}
	report := &Report{
		Classes:     r.classes(kept),
		Warnings:    s.warnings,
		Diagnostics: s.diag,
		MinNodes:    s.cfg.MinNodes,
		Kinds:       kindNames(s.cfg.EligibleKinds),
	}
	report.Summary.FilesAnalyzed = len(units)
	report.Summary.FilesSkipped = len(s.warnings)
	summarize(report)

	s.logger.DebugContext(ctx, "clone detection finished",
		"candidates", s.diag.Candidates,
		"raw_classes", s.diag.RawClasses,
		"subsumed", s.diag.Subsumed,
		"collisions", s.diag.Collisions,
		"classes", report.Summary.CloneClassCount)
	return report, nil
}
