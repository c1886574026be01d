package main

import (
	"errors"
	"io"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/panbanda/typeone/internal/output"
	"github.com/panbanda/typeone/internal/progress"
	"github.com/panbanda/typeone/internal/remote"
	"github.com/panbanda/typeone/internal/service/analysis"
	"github.com/urfave/cli/v2"
)

func detectCmd() *cli.Command {
	return &cli.Command{
		Name:      "detect",
		Aliases:   []string{"clones", "dup"},
		Usage:     "Detect exact structural clones",
		ArgsUsage: "[path... | owner/repo[@ref] | git-url[@ref]]",
		Description: `Reports clone classes: groups of two or more fragments whose syntax trees
are identical. Thresholds default to the config file, then to built-in values.

Examples:
  typeone detect                         # Current directory
  typeone detect --min-nodes 25 src/     # Only larger fragments
  typeone detect --kinds block --no-sequences
  typeone detect --ref main -f json      # Analyze the tree of a branch
  typeone detect owner/repo@v1.2.0       # Clone and analyze a GitHub repository`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "min-nodes",
				Usage: "Minimum syntax tree nodes per fragment (default 10)",
			},
			&cli.StringSliceFlag{
				Name:  "kinds",
				Usage: "Eligible fragment kinds: statement, block, declaration, expression, other",
			},
			&cli.BoolFlag{
				Name:  "no-sequences",
				Usage: "Do not detect runs of consecutive statements",
			},
			&cli.IntFlag{
				Name:  "max-seq",
				Usage: "Longest statement run considered (0 = unbounded)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Parallel workers (0 = 2x CPU count)",
			},
			&cli.StringFlag{
				Name:  "ref",
				Usage: "Analyze a git revision (branch, tag, or commit) instead of the working copy",
			},
			&cli.StringFlag{
				Name:  "lang",
				Usage: "Only analyze files of this language (go, java, python, ts, c++, ...)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, toon",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
		},
		Action: runDetectCmd,
	}
}

func detectOptions(c *cli.Context) analysis.DetectOptions {
	opts := analysis.DetectOptions{
		Paths:    getPaths(c),
		Ref:      c.String("ref"),
		Kinds:    c.StringSlice("kinds"),
		Language: c.String("lang"),
	}
	if opts.Ref != "" {
		opts.Paths = c.Args().Slice()
	}
	if c.IsSet("min-nodes") {
		n := c.Int("min-nodes")
		opts.MinNodes = &n
	}
	if c.IsSet("no-sequences") {
		seq := !c.Bool("no-sequences")
		opts.Sequences = &seq
	}
	if c.IsSet("max-seq") {
		n := c.Int("max-seq")
		opts.MaxSequenceLength = &n
	}
	if c.IsSet("workers") {
		n := c.Int("workers")
		opts.Workers = &n
	}
	return opts
}

func runDetectCmd(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg := loaded.Config
	logger := newLogger(c)
	if loaded.Source != "" {
		logger.Debug("loaded config", "path", loaded.Source)
	}

	formatName := cfg.Output.Format
	if c.IsSet("format") {
		formatName = c.String("format")
	}
	format := output.ParseFormat(formatName)
	colored := cfg.Output.Color && !color.NoColor

	var formatter *output.Formatter
	if path := c.String("output"); path != "" {
		formatter, err = output.CreateFormatter(format, path)
		if err != nil {
			return err
		}
		defer formatter.Close()
	} else {
		formatter = output.NewWriterFormatter(format, c.App.Writer, colored)
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := analysis.New(analysis.WithConfig(cfg), analysis.WithLogger(logger))
	opts := detectOptions(c)

	if c.Args().Len() == 1 {
		src, err := remote.Parse(c.Args().First())
		if err != nil {
			return err
		}
		if src != nil {
			if src.Ref == "" {
				src.Ref = opts.Ref
			}
			var cloneProgress io.Writer = c.App.ErrWriter
			if c.Bool("quiet") {
				cloneProgress = io.Discard
			}
			logger.Info("cloning remote repository", "url", src.URL, "ref", src.Ref)
			if err := src.Clone(ctx, cloneProgress, true); err != nil {
				return err
			}
			defer src.Cleanup()
			opts.Ref = src.Revision()
			opts.RepoDir = src.CloneDir
			opts.Paths = nil
		}
	}

	tracker := progress.Disabled()
	if !c.Bool("quiet") {
		files, err := svc.Files(opts)
		if err != nil {
			return err
		}
		tracker = progress.NewTracker(c.App.ErrWriter, "Detecting clones...", len(files))
	}
	opts.OnProgress = tracker.Tick

	report, err := svc.Detect(ctx, opts)
	tracker.Finish()
	if errors.Is(err, analysis.ErrNoFiles) {
		formatter.Warning("No source files found")
		return nil
	}
	if err != nil {
		return err
	}

	if len(report.Classes) == 0 && format == output.FormatText {
		formatter.Success("No Type I clones of %d or more nodes found", report.MinNodes)
	}
	return formatter.Output(output.CloneReport(report, formatter.Colored()))
}
