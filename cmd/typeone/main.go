package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/panbanda/typeone/internal/logging"
	"github.com/panbanda/typeone/pkg/config"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "typeone",
		Usage:     "Exact (Type I) structural clone detection",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Description: `typeone parses source files into syntax trees and reports groups of
fragments that are structurally identical, ignoring whitespace and comments.
Only maximal clones are reported: a fragment contained in a larger clone of
the same group is folded into it.

Supports: Go, Rust, Python, TypeScript, JavaScript, Java, C, C++, C#, Ruby, PHP, Bash`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"TYPEONE_CONFIG"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log debug details to stderr",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress logs and progress output",
			},
		},
		Commands: []*cli.Command{
			detectCmd(),
			initCmd(),
			configCmd(),
			mcpCmd(),
		},
	}
}

// loadConfig reads the --config file or searches the standard locations.
func loadConfig(c *cli.Context) (*config.LoadResult, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	return config.LoadConfig(opts...)
}

func newLogger(c *cli.Context) *slog.Logger {
	return logging.New(c.App.ErrWriter, logging.LevelFromFlags(c.Bool("verbose"), c.Bool("quiet")))
}
