package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/panbanda/typeone/pkg/analyzer/clones"
	"github.com/panbanda/typeone/pkg/syntax"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if cfg.Clones.MinNodes != 10 {
		t.Errorf("Clones.MinNodes = %d, want 10", cfg.Clones.MinNodes)
	}
	if len(cfg.Clones.EligibleKinds) != 2 || cfg.Clones.EligibleKinds[0] != "statement" || cfg.Clones.EligibleKinds[1] != "block" {
		t.Errorf("Clones.EligibleKinds = %v, want [statement block]", cfg.Clones.EligibleKinds)
	}
	if !cfg.Clones.Sequences {
		t.Error("Clones.Sequences should be true by default")
	}
	if !cfg.Exclude.Gitignore {
		t.Error("Exclude.Gitignore should be true by default")
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Output.Format = %s, want text", cfg.Output.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestDetection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Clones.MinNodes = 4
	cfg.Clones.EligibleKinds = []string{"block", "expression"}
	cfg.Clones.Sequences = false
	cfg.Clones.MaxSequenceLength = 6

	det, err := cfg.Detection()
	if err != nil {
		t.Fatalf("Detection() error: %v", err)
	}
	if det.MinNodes != 4 {
		t.Errorf("MinNodes = %d, want 4", det.MinNodes)
	}
	if len(det.EligibleKinds) != 2 || det.EligibleKinds[0] != syntax.CategoryBlock || det.EligibleKinds[1] != syntax.CategoryExpression {
		t.Errorf("EligibleKinds = %v", det.EligibleKinds)
	}
	if det.Sequences {
		t.Error("Sequences should be false")
	}
	if det.MaxSequenceLength != 6 {
		t.Errorf("MaxSequenceLength = %d, want 6", det.MaxSequenceLength)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"negative min nodes", func(c *Config) { c.Clones.MinNodes = -1 }, clones.ErrInvalidThreshold},
		{"empty kinds", func(c *Config) { c.Clones.EligibleKinds = nil }, clones.ErrInvalidThreshold},
		{"token kind", func(c *Config) { c.Clones.EligibleKinds = []string{"token"} }, clones.ErrInvalidThreshold},
		{"unknown kind", func(c *Config) { c.Clones.EligibleKinds = []string{"loop"} }, clones.ErrInvalidThreshold},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }, ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "typeone.toml", `
[clones]
min_clone_node_number = 25
eligible_kinds = ["statement"]
sequences = false

[exclude]
dirs = ["vendor", "custom_exclude"]
patterns = ["*_generated.go"]

[output]
format = "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Clones.MinNodes != 25 {
		t.Errorf("Clones.MinNodes = %d, want 25", cfg.Clones.MinNodes)
	}
	if len(cfg.Clones.EligibleKinds) != 1 || cfg.Clones.EligibleKinds[0] != "statement" {
		t.Errorf("Clones.EligibleKinds = %v, want [statement]", cfg.Clones.EligibleKinds)
	}
	if cfg.Clones.Sequences {
		t.Error("Clones.Sequences should be false")
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Output.Format = %s, want json", cfg.Output.Format)
	}
	if !cfg.Output.Color {
		t.Error("Output.Color should keep its default")
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "typeone.yaml", `
clones:
  min_clone_node_number: 40
  max_sequence_length: 12

output:
  format: markdown
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Clones.MinNodes != 40 {
		t.Errorf("Clones.MinNodes = %d, want 40", cfg.Clones.MinNodes)
	}
	if cfg.Clones.MaxSequenceLength != 12 {
		t.Errorf("Clones.MaxSequenceLength = %d, want 12", cfg.Clones.MaxSequenceLength)
	}
	if cfg.Output.Format != "markdown" {
		t.Errorf("Output.Format = %s, want markdown", cfg.Output.Format)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "typeone.json", `{
  "clones": {
    "min_clone_node_number": 60,
    "workers": 2
  },
  "output": {
    "format": "toon"
  }
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Clones.MinNodes != 60 {
		t.Errorf("Clones.MinNodes = %d, want 60", cfg.Clones.MinNodes)
	}
	if cfg.Clones.Workers != 2 {
		t.Errorf("Clones.Workers = %d, want 2", cfg.Clones.Workers)
	}
	if cfg.Output.Format != "toon" {
		t.Errorf("Output.Format = %s, want toon", cfg.Output.Format)
	}
}

func TestLoadSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative min nodes", "[clones]\nmin_clone_node_number = -3\n"},
		{"wrong type", "[clones]\nsequences = \"yes\"\n"},
		{"token kind", "[clones]\neligible_kinds = [\"token\"]\n"},
		{"empty kinds", "[clones]\neligible_kinds = []\n"},
		{"unknown section", "[analysis]\ncomplexity = true\n"},
		{"unknown key", "[clones]\nsimilarity = 0.8\n"},
		{"unknown format", "[output]\nformat = \"xml\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "typeone.toml", tt.content)
			_, err := Load(path)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Load() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/typeone.toml")
	if err == nil {
		t.Error("Load() should return error for non-existent file")
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "typeone.toml", `[clones
invalid toml`)

	_, err := Load(path)
	if err == nil {
		t.Error("Load() should return error for invalid config")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults when nothing found", func(t *testing.T) {
		result, err := LoadConfig(WithDir(t.TempDir()))
		if err != nil {
			t.Fatalf("LoadConfig() error: %v", err)
		}
		if result.Source != "" {
			t.Errorf("Source = %q, want empty", result.Source)
		}
		if result.Config.Clones.MinNodes != 10 {
			t.Errorf("MinNodes = %d, want default", result.Config.Clones.MinNodes)
		}
	})

	t.Run("searches dot directory", func(t *testing.T) {
		dir := t.TempDir()
		want := writeConfig(t, dir, filepath.Join(".typeone", "typeone.yaml"), "clones:\n  min_clone_node_number: 7\n")

		result, err := LoadConfig(WithDir(dir))
		if err != nil {
			t.Fatalf("LoadConfig() error: %v", err)
		}
		if result.Source != want {
			t.Errorf("Source = %q, want %q", result.Source, want)
		}
		if result.Config.Clones.MinNodes != 7 {
			t.Errorf("MinNodes = %d, want 7", result.Config.Clones.MinNodes)
		}
	})

	t.Run("top level wins over dot directory", func(t *testing.T) {
		dir := t.TempDir()
		want := writeConfig(t, dir, "typeone.toml", "[clones]\nmin_clone_node_number = 11\n")
		writeConfig(t, dir, filepath.Join(".typeone", "typeone.toml"), "[clones]\nmin_clone_node_number = 99\n")

		result, err := LoadConfig(WithDir(dir))
		if err != nil {
			t.Fatalf("LoadConfig() error: %v", err)
		}
		if result.Source != want {
			t.Errorf("Source = %q, want %q", result.Source, want)
		}
	})

	t.Run("explicit path", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "custom.json", `{"clones": {"min_clone_node_number": 3}}`)
		result, err := LoadConfig(WithPath(path))
		if err != nil {
			t.Fatalf("LoadConfig() error: %v", err)
		}
		if result.Config.Clones.MinNodes != 3 {
			t.Errorf("MinNodes = %d, want 3", result.Config.Clones.MinNodes)
		}
	})

	t.Run("invalid file is an error", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "typeone.toml", "[clones]\nmin_clone_node_number = -1\n")
		if _, err := LoadConfig(WithDir(dir)); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("LoadConfig() = %v, want ErrInvalidConfig", err)
		}
	})
}

func TestLoadOrDefault(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg := LoadOrDefault()
	if cfg == nil {
		t.Fatal("LoadOrDefault() returned nil")
	}
	if cfg.Clones.MinNodes != 10 {
		t.Errorf("LoadOrDefault() returned non-default MinNodes: %d", cfg.Clones.MinNodes)
	}
}

func TestShouldExclude(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		path string
		want bool
	}{
		{"vendor/pkg/file.go", true},
		{"node_modules/pkg/file.js", true},
		{".git/objects/file", true},
		{"app.min.js", true},
		{"api.pb.go", true},
		{"go.sum", true},
		{"package.lock", true},
		{"main.go", false},
		{"pkg/util/helper.go", false},
		{"main_test.go", false},
		{filepath.Join("src", "vendor", "pkg", "file.go"), true},
		{filepath.Join("pkg", "vendor_utils.go"), false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := cfg.ShouldExclude(tt.path)
			if got != tt.want {
				t.Errorf("ShouldExclude(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
