package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	koanfjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/panbanda/typeone/pkg/analyzer/clones"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrInvalidConfig is returned when a configuration file fails schema or
// semantic validation.
var ErrInvalidConfig = errors.New("invalid configuration")

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "typeone.schema.json"

// Config holds all configuration options for typeone.
type Config struct {
	// Clone detection thresholds
	Clones ClonesConfig `koanf:"clones" toml:"clones" yaml:"clones"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude" yaml:"exclude"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output" yaml:"output"`
}

// ClonesConfig controls clone detection.
type ClonesConfig struct {
	MinNodes          int      `koanf:"min_clone_node_number" toml:"min_clone_node_number" yaml:"min_clone_node_number"`
	EligibleKinds     []string `koanf:"eligible_kinds" toml:"eligible_kinds" yaml:"eligible_kinds"`
	Sequences         bool     `koanf:"sequences" toml:"sequences" yaml:"sequences"`
	MaxSequenceLength int      `koanf:"max_sequence_length" toml:"max_sequence_length" yaml:"max_sequence_length"`
	Workers           int      `koanf:"workers" toml:"workers" yaml:"workers"`
	MaxFileSize       int64    `koanf:"max_file_size" toml:"max_file_size" yaml:"max_file_size"` // bytes, 0 = no limit
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns   []string `koanf:"patterns" toml:"patterns" yaml:"patterns"`
	Extensions []string `koanf:"extensions" toml:"extensions" yaml:"extensions"`
	Dirs       []string `koanf:"dirs" toml:"dirs" yaml:"dirs"`
	Gitignore  bool     `koanf:"gitignore" toml:"gitignore" yaml:"gitignore"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format" yaml:"format"` // text, json, markdown, toon
	Color  bool   `koanf:"color" toml:"color" yaml:"color"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	def := clones.DefaultConfig()
	kinds := make([]string, 0, len(def.EligibleKinds))
	for _, k := range def.EligibleKinds {
		kinds = append(kinds, k.String())
	}

	return &Config{
		Clones: ClonesConfig{
			MinNodes:          def.MinNodes,
			EligibleKinds:     kinds,
			Sequences:         def.Sequences,
			MaxSequenceLength: def.MaxSequenceLength,
			Workers:           def.Workers,
			MaxFileSize:       def.MaxFileSize,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.min.js",
				"*.pb.go",
			},
			Extensions: []string{
				".lock",
				".sum",
			},
			Dirs: []string{
				"vendor",
				"node_modules",
				".git",
				".typeone",
				"dist",
				"build",
				"__pycache__",
			},
			Gitignore: true,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// Detection converts the clone settings into analyzer configuration.
func (c *Config) Detection() (clones.Config, error) {
	kinds, err := clones.ParseKinds(c.Clones.EligibleKinds)
	if err != nil {
		return clones.Config{}, err
	}
	cfg := clones.Config{
		MinNodes:          c.Clones.MinNodes,
		EligibleKinds:     kinds,
		Sequences:         c.Clones.Sequences,
		MaxSequenceLength: c.Clones.MaxSequenceLength,
		Workers:           c.Clones.Workers,
		MaxFileSize:       c.Clones.MaxFileSize,
	}
	if err := cfg.Validate(); err != nil {
		return clones.Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for semantic errors.
func (c *Config) Validate() error {
	if _, err := c.Detection(); err != nil {
		return fmt.Errorf("%w: clones: %w", ErrInvalidConfig, err)
	}
	switch c.Output.Format {
	case "", "text", "json", "markdown", "toon":
	default:
		return fmt.Errorf("%w: output: unknown format %q", ErrInvalidConfig, c.Output.Format)
	}
	return nil
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// ValidateSchema checks raw, parsed configuration data against the embedded
// JSON Schema.
func ValidateSchema(raw map[string]any) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	// Normalize parser-specific value types (int64, time values) to JSON.
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return koanfjson.Parser()
	default:
		return toml.Parser()
	}
}

// Load loads configuration from a file. Values absent from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, err
	}
	if err := ValidateSchema(k.Raw()); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadResult is a loaded configuration and the file it came from.
type LoadResult struct {
	Config *Config
	// Source is the config file path, or empty when defaults were used.
	Source string
}

type loadOptions struct {
	path string
	dir  string
}

// LoadOption customizes LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads an explicit config file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithDir searches for config files relative to dir instead of the working
// directory.
func WithDir(dir string) LoadOption {
	return func(o *loadOptions) {
		o.dir = dir
	}
}

// configNames are the file names searched, in order.
var configNames = []string{
	"typeone.toml",
	"typeone.yaml",
	"typeone.yml",
	"typeone.json",
	".typeone.toml",
	".typeone.yaml",
	".typeone.yml",
	".typeone.json",
}

// Find returns the first config file found in dir or dir/.typeone, or an
// empty string.
func Find(dir string) string {
	for _, sub := range []string{"", ".typeone"} {
		for _, name := range configNames {
			path := filepath.Join(dir, sub, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

// LoadConfig loads configuration from an explicit path or the standard
// locations. Errors in a found file are returned rather than ignored.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{dir: "."}
	for _, opt := range opts {
		opt(&o)
	}

	path := o.path
	if path == "" {
		path = Find(o.dir)
	}
	if path == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return &LoadResult{Config: cfg, Source: path}, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	result, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return result.Config
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	sep := string(filepath.Separator)
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, sep+dir+sep) || strings.HasPrefix(path, dir+sep) {
			return true
		}
	}

	ext := filepath.Ext(path)
	for _, excludeExt := range c.Exclude.Extensions {
		if ext == excludeExt {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
