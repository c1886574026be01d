package mcpserver

import (
	"bytes"
	"context"
	"embed"
	"path"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.md
var promptFiles embed.FS

// promptDoc is a prompt file split into its YAML header and markdown body.
type promptDoc struct {
	Description string           `yaml:"description"`
	Arguments   []promptArgument `yaml:"arguments"`
	Body        string           `yaml:"-"`
}

type promptArgument struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Default     string `yaml:"default"`
}

func (s *Server) registerPrompts() {
	entries, err := promptFiles.ReadDir("prompts")
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		content, err := promptFiles.ReadFile(path.Join("prompts", entry.Name()))
		if err != nil {
			continue
		}
		doc := parsePrompt(content)

		prompt := &mcp.Prompt{
			Name:        strings.TrimSuffix(entry.Name(), ".md"),
			Description: doc.Description,
		}
		for _, arg := range doc.Arguments {
			prompt.Arguments = append(prompt.Arguments, &mcp.PromptArgument{
				Name:        arg.Name,
				Description: arg.Description,
			})
		}
		s.server.AddPrompt(prompt, makePromptHandler(doc))
	}
}

// parsePrompt splits "---\n<yaml>\n---\n<body>". Files without a valid
// header are returned whole as the body.
func parsePrompt(content []byte) promptDoc {
	plain := promptDoc{Body: string(content)}
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return plain
	}
	rest := content[4:]
	end := bytes.Index(rest, []byte("\n---\n"))
	if end == -1 {
		return plain
	}
	var doc promptDoc
	if err := yaml.Unmarshal(rest[:end], &doc); err != nil {
		return plain
	}
	doc.Body = strings.TrimPrefix(string(rest[end+5:]), "\n")
	return doc
}

// render replaces {{name}} placeholders with the caller's arguments,
// falling back to each argument's default.
func (d promptDoc) render(args map[string]string) string {
	body := d.Body
	for _, arg := range d.Arguments {
		value := args[arg.Name]
		if value == "" {
			value = arg.Default
		}
		body = strings.ReplaceAll(body, "{{"+arg.Name+"}}", value)
	}
	return body
}

func makePromptHandler(doc promptDoc) mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		var args map[string]string
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		return &mcp.GetPromptResult{
			Description: doc.Description,
			Messages: []*mcp.PromptMessage{
				{
					Role:    "user",
					Content: &mcp.TextContent{Text: doc.render(args)},
				},
			},
		}, nil
	}
}
