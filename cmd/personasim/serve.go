package main

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"personasim/internal/engine"
	"personasim/internal/mcp"
	"personasim/internal/scenario"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	catalog, err := scenario.NewCatalog()
	if err != nil {
		return err
	}

	eng := engine.New(engine.NewRandFromTime(), nil)
	server := mcp.NewServer(a.state, catalog, eng, a.simConfig(), version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
