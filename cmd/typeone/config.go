package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/typeone/pkg/config"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a configuration file with the default settings",
		Description: `Creates a typeone.toml in the current directory.

Examples:
  typeone init                          # Creates typeone.toml
  typeone init -o .typeone/typeone.toml # Creates config in .typeone directory
  typeone init --force                  # Overwrite an existing file`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "typeone.toml",
				Usage:   "Output file path",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite existing config file",
			},
		},
		Action: runInitCmd,
	}
}

func runInitCmd(c *cli.Context) error {
	outputPath := c.String("output")
	if _, err := os.Stat(outputPath); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", outputPath)
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	content, err := generateDefaultConfig()
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintln(c.App.Writer, color.GreenString("Created %s", outputPath))
	return nil
}

func generateDefaultConfig() (string, error) {
	content, err := toml.Marshal(config.DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("failed to marshal config to TOML: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# typeone configuration\n")
	buf.WriteString("# min_clone_node_number: smallest fragment, in syntax tree nodes, that can be a clone\n")
	buf.WriteString("# eligible_kinds: statement, block, declaration, expression, other\n\n")
	buf.Write(content)
	return buf.String(), nil
}

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect configuration",
		Subcommands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Check a config file against the schema and thresholds",
				ArgsUsage: "[file]",
				Action:    runConfigValidateCmd,
			},
			{
				Name:  "show",
				Usage: "Print the effective configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "toml",
						Usage:   "Output format: toml or yaml",
					},
				},
				Action: runConfigShowCmd,
			},
		},
	}
}

// configPath prefers a positional argument over --config.
func configPath(c *cli.Context) string {
	if c.Args().Len() > 0 {
		return c.Args().First()
	}
	return c.String("config")
}

func runConfigValidateCmd(c *cli.Context) error {
	var opts []config.LoadOption
	if path := configPath(c); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	result, err := config.LoadConfig(opts...)
	if err != nil {
		return err
	}
	if result.Source == "" {
		fmt.Fprintln(c.App.Writer, "No config file found; defaults are valid")
		return nil
	}
	fmt.Fprintln(c.App.Writer, color.GreenString("%s is valid", result.Source))
	return nil
}

func runConfigShowCmd(c *cli.Context) error {
	result, err := loadConfig(c)
	if err != nil {
		return err
	}

	var content []byte
	switch strings.ToLower(c.String("format")) {
	case "toml":
		content, err = toml.Marshal(result.Config)
	case "yaml", "yml":
		content, err = yaml.Marshal(result.Config)
	default:
		return fmt.Errorf("unknown config format %q (use toml or yaml)", c.String("format"))
	}
	if err != nil {
		return err
	}

	source := result.Source
	if source == "" {
		source = "defaults"
	}
	fmt.Fprintf(c.App.Writer, "# source: %s\n", source)
	_, err = c.App.Writer.Write(content)
	return err
}
