package mcpserver

import (
	"bytes"
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/typeone/internal/output"
	"github.com/panbanda/typeone/internal/service/analysis"
)

// ScopeInput selects what to analyze.
type ScopeInput struct {
	Paths    []string `json:"paths,omitempty" jsonschema:"Paths to analyze. Defaults to current directory if empty."`
	Ref      string   `json:"ref,omitempty" jsonschema:"Git revision to analyze instead of the working copy (branch, tag, or commit). Paths become repository-relative prefixes."`
	Language string   `json:"language,omitempty" jsonschema:"Restrict analysis to one language, e.g. java, go, python."`
	Format   string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// DetectClonesInput adds clone detection thresholds.
type DetectClonesInput struct {
	ScopeInput
	MinNodes          *int     `json:"min_nodes,omitempty" jsonschema:"Minimum syntax tree nodes for a fragment. Default 10."`
	Kinds             []string `json:"kinds,omitempty" jsonschema:"Eligible fragment kinds: statement, block, declaration, expression, other. Default statement and block."`
	Sequences         *bool    `json:"sequences,omitempty" jsonschema:"Detect runs of consecutive statements. Default true."`
	MaxSequenceLength *int     `json:"max_sequence_length,omitempty" jsonschema:"Longest statement run considered; 0 means unbounded."`
}

// FileList is the list_clone_files result.
type FileList struct {
	Files []string `json:"files"`
	Count int      `json:"count"`
}

func getPaths(input ScopeInput) []string {
	if len(input.Paths) == 0 {
		return []string{"."}
	}
	return input.Paths
}

func getFormat(input ScopeInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	if format != output.FormatMarkdown {
		return output.Marshal(format, data)
	}
	if r, ok := data.(output.Renderable); ok {
		var buf bytes.Buffer
		if err := r.RenderMarkdown(&buf); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	out, err := output.Marshal(output.FormatTOON, data)
	if err != nil {
		return "", err
	}
	return "```\n" + out + "\n```", nil
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func detectOptions(input ScopeInput) analysis.DetectOptions {
	opts := analysis.DetectOptions{
		Paths:    getPaths(input),
		Ref:      input.Ref,
		Language: input.Language,
	}
	if input.Ref != "" {
		opts.Paths = input.Paths
	}
	return opts
}

func handleDetectClones(ctx context.Context, req *mcp.CallToolRequest, input DetectClonesInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.ScopeInput)

	opts := detectOptions(input.ScopeInput)
	opts.MinNodes = input.MinNodes
	opts.Kinds = input.Kinds
	opts.Sequences = input.Sequences
	opts.MaxSequenceLength = input.MaxSequenceLength

	report, err := analysis.New().Detect(ctx, opts)
	if errors.Is(err, context.Canceled) {
		return nil, nil, err
	}
	if err != nil {
		return toolError(err.Error())
	}

	if format == output.FormatMarkdown {
		return toolResult(output.CloneReport(report, false), format)
	}
	return toolResult(report, format)
}

func handleListCloneFiles(ctx context.Context, req *mcp.CallToolRequest, input ScopeInput) (*mcp.CallToolResult, any, error) {
	files, err := analysis.New().Files(detectOptions(input))
	if err != nil {
		return toolError(err.Error())
	}
	if files == nil {
		files = []string{}
	}
	return toolResult(FileList{Files: files, Count: len(files)}, getFormat(input))
}
