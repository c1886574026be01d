package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server and registers the clone detection tools.
type Server struct {
	server *mcp.Server
}

// NewServer creates a new MCP server with all typeone tools registered.
func NewServer(version string) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "typeone",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "detect_clones",
		Description: describeDetectClones(),
	}, handleDetectClones)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_clone_files",
		Description: describeListCloneFiles(),
	}, handleListCloneFiles)
}
