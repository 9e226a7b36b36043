package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/udirag/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ask questions
against the indexed pages.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (default)
  udirag mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  udirag mcp serve --port 8080

Desktop client configuration:
  {
    "mcpServers": {
      "udirag": {
        "command": "/path/to/udirag",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	p, err := requireProvider()
	if err != nil {
		return err
	}
	answers, err := p.Answerer(cmd.Context())
	if err != nil {
		return err
	}
	retriever, err := p.Retriever(cmd.Context())
	if err != nil {
		return err
	}
	documents, err := p.Documents()
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Answer:    answers,
		Retriever: retriever,
		Documents: documents,
	})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
