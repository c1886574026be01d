package main

import (
	"github.com/panbanda/typeone/internal/mcpserver"
	"github.com/urfave/cli/v2"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes clone detection
as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "typeone": {
        "command": "typeone",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - detect_clones      Exact structural clone classes, hotspots, and summary
  - list_clone_files   Files a detect_clones call would analyze`,
		Action: func(c *cli.Context) error {
			return mcpserver.NewServer(version).Run(c.Context)
		},
	}
}
